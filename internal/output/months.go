package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"event-template-cli/internal/lexical"
)

type SheetMonths struct {
	Sheet  string
	Months []string
}

// Months lists, per sheet with a "Month" header, the distinct month labels of
// rows that are not hidden by a filter. Labels sort by month number, unknown last.
func Months(path string) ([]SheetMonths, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []SheetMonths
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %s: %w", name, err)
		}
		if len(rows) == 0 {
			continue
		}
		monthCol := -1
		for i, h := range rows[0] {
			if lexical.NormKey(h) == "month" {
				monthCol = i
				break
			}
		}
		if monthCol < 0 {
			continue
		}
		seen := map[string]bool{}
		var labels []string
		for i, row := range rows[1:] {
			if monthCol >= len(row) {
				continue
			}
			v := strings.TrimSpace(row[monthCol])
			if v == "" || seen[v] {
				continue
			}
			visible, err := f.GetRowVisible(name, i+2)
			if err != nil || !visible {
				continue
			}
			seen[v] = true
			labels = append(labels, v)
		}
		if len(labels) == 0 {
			continue
		}
		sortMonths(labels)
		out = append(out, SheetMonths{Sheet: name, Months: labels})
	}
	return out, nil
}

func sortMonths(labels []string) {
	rank := func(s string) int {
		if m, ok := lexical.MonthToNumber(s); ok {
			return m
		}
		return 13
	}
	sort.SliceStable(labels, func(i, j int) bool {
		ri, rj := rank(labels[i]), rank(labels[j])
		if ri != rj {
			return ri < rj
		}
		return labels[i] < labels[j]
	})
}
