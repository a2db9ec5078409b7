package index

import (
	"fmt"
	"strings"

	"event-template-cli/internal/lexical"
	"event-template-cli/internal/logger"
	"event-template-cli/internal/sheet"
)

// ActivityResorts maps a lower-cased activity label to the resort names offering it.
type ActivityResorts map[string]nameSet

// Resorts returns the resort display names for activity, sorted.
func (ar ActivityResorts) Resorts(activity string) []string {
	return ar[lexical.NormKey(activity)].sorted()
}

// BuildActivityResorts scans the target sheets of the event workbook once. Blank
// activity rows are skipped without ending the scan.
func BuildActivityResorts(wb sheet.Workbook, targets []string, tick Tick) ActivityResorts {
	ar := ActivityResorts{}
	for _, name := range wb.SheetNames() {
		if !containsFold(targets, name) {
			continue
		}
		t, err := wb.Table(name)
		if err != nil {
			logger.Warnf("event sheet %s unreadable, skipping: %v", name, err)
			continue
		}
		header := sheet.HeaderIndex(t)
		actCol, resCol := header["activity"], header["resort name"]
		if actCol == 0 || resCol == 0 {
			continue
		}
		last := lexical.LastPopulatedRow(t.MaxRow(), 1, func(r int) string { return t.Value(r, actCol) })
		for r := 2; r <= last; r++ {
			tick.step(fmt.Sprintf("Scanning activities %s row %d", name, r))
			act := strings.TrimSpace(t.Value(r, actCol))
			if act == "" {
				continue
			}
			key := strings.ToLower(act)
			if ar[key] == nil {
				ar[key] = nameSet{}
			}
			ar[key].add(strings.TrimSpace(t.Value(r, resCol)))
		}
	}
	return ar
}
