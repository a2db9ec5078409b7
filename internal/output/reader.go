package output

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"event-template-cli/internal/model"
)

// column positions used when a header is missing or renamed.
const (
	colEvent = iota
	colResource
	colConfiguration
	colDate
	colStart
	colEnd
	colCapacity
	colReference
)

// ReadRecords loads every sheet of a generated (or corrected) workbook. Columns
// are found by header name with a positional fallback; fully blank rows are
// dropped but still count towards row numbers.
func ReadRecords(path string) ([]model.TimeslotRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []model.TimeslotRecord
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("reading sheet %s: %w", name, err)
		}
		if len(rows) == 0 {
			continue
		}
		cols := columns(rows[0])
		for i, row := range rows[1:] {
			if blank(row) {
				continue
			}
			get := func(c int) string {
				idx := cols[c]
				if idx < 0 || idx >= len(row) {
					return ""
				}
				return strings.TrimSpace(row[idx])
			}
			out = append(out, model.TimeslotRecord{
				Sheet:         name,
				RowNumber:     i + 2,
				Event:         get(colEvent),
				Resource:      get(colResource),
				Configuration: get(colConfiguration),
				Capacity:      get(colCapacity),
				Date:          dateText(get(colDate)),
				StartTime:     timeText(get(colStart)),
				EndTime:       timeText(get(colEnd)),
				Reference:     get(colReference),
			})
		}
	}
	return out, nil
}

// columns maps each field to a 0-based column index from the header row.
func columns(header []string) []int {
	byName := map[string]int{}
	for i, h := range header {
		byName[strings.ToLower(strings.TrimSpace(h))] = i
	}
	cols := make([]int, len(model.Headers))
	for i, h := range model.Headers {
		if idx, ok := byName[strings.ToLower(h)]; ok {
			cols[i] = idx
		} else {
			cols[i] = i
		}
	}
	return cols
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// dateText turns an Excel date serial into 2006-01-02 and leaves text alone.
func dateText(v string) string {
	serial, err := strconv.ParseFloat(v, 64)
	if err != nil || serial < 1 {
		return v
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return v
	}
	return t.Format(time.DateOnly)
}

// timeText turns a day fraction such as 0.375 into 09:00:00 and leaves text alone.
func timeText(v string) string {
	frac, err := strconv.ParseFloat(v, 64)
	if err != nil || frac < 0 || frac >= 1 {
		return v
	}
	secs := int(frac*86400 + 0.5)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
}
