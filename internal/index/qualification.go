package index

import (
	"fmt"
	"strings"

	"event-template-cli/internal/lexical"
	"event-template-cli/internal/logger"
	"event-template-cli/internal/sheet"
)

// Qualifications maps (category, lower-cased label) to instructor names in
// sheet column order. Repeated names are kept.
type Qualifications struct {
	byCategory map[string]map[string][]string
}

// Lookup returns the instructors listed under label for category. Both are matched case-insensitively.
func (q *Qualifications) Lookup(category, label string) []string {
	if q == nil {
		return nil
	}
	return q.byCategory[strings.ToUpper(strings.TrimSpace(category))][lexical.NormKey(label)]
}

// Labels returns how many distinct labels were indexed for category.
func (q *Qualifications) Labels(category string) int {
	if q == nil {
		return 0
	}
	return len(q.byCategory[strings.ToUpper(strings.TrimSpace(category))])
}

// BuildQualifications scans one staff sheet per target category. Each column after
// "priority" belongs to the instructor named in its header; a highlighted cell is
// skipped and a blank cell ends the column.
func BuildQualifications(wb sheet.Workbook, targets []string, excluded lexical.Highlight, tick Tick) *Qualifications {
	q := &Qualifications{byCategory: map[string]map[string][]string{}}
	for _, target := range targets {
		actual := sheet.FindSheet(wb, target)
		if actual == "" {
			continue
		}
		t, err := wb.Table(actual)
		if err != nil {
			logger.Warnf("staff sheet %s unreadable, skipping: %v", actual, err)
			continue
		}
		category := strings.ToUpper(strings.TrimSpace(target))
		q.byCategory[category] = scanQualificationSheet(t, category, excluded, tick)
	}
	return q
}

func scanQualificationSheet(t sheet.Table, category string, excluded lexical.Highlight, tick Tick) map[string][]string {
	labels := map[string][]string{}
	priority := 1
	for c := 1; c <= t.MaxCol(); c++ {
		if lexical.NormKey(t.Value(1, c)) == "priority" {
			priority = c
			break
		}
	}
	for col := priority + 1; col <= t.MaxCol(); col++ {
		name := lexical.CleanInstructorName(t.Value(1, col))
		if name == "" {
			continue
		}
		last := lexical.LastPopulatedRow(t.MaxRow(), 1, func(r int) string { return t.Value(r, col) })
		for r := 2; r <= last; r++ {
			tick.step(fmt.Sprintf("Preloading Staff %s row %d", category, r))
			if excluded.Matches(t.Fill(r, col)) {
				continue
			}
			val := strings.TrimSpace(t.Value(r, col))
			if val == "" {
				break
			}
			key := strings.ToLower(val)
			labels[key] = append(labels[key], name)
		}
	}
	return labels
}
