// Package output is the write side of the spreadsheet boundary: it saves
// generated sheets as a styled workbook and reads a (possibly hand-corrected)
// workbook back into records for preview and push.
package output

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"event-template-cli/internal/model"
)

const (
	headerFill   = "FFFF00"
	defaultSheet = "Sheet1"
)

var colWidths = []float64{28, 24, 24, 12, 11, 11, 10, 30}

func cell(col, row int) string { ref, _ := excelize.CoordinatesToCellName(col, row); return ref }

// styles caches one style id per (bold, colour) pair.
type styles struct {
	f      *excelize.File
	header int
	byKey  map[string]int
}

func newStyles(f *excelize.File) (*styles, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{headerFill}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}
	return &styles{f: f, header: header, byKey: map[string]int{}}, nil
}

// rgb6 drops the alpha byte of an ARGB colour; excelize adds its own.
func rgb6(color string) string {
	c := strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(color), "#"))
	if len(c) > 6 {
		c = c[len(c)-6:]
	}
	return c
}

// forRow returns 0 for rows that stay unstyled.
func (s *styles) forRow(r model.EventRow) (int, error) {
	bold := r.Kind == model.RowMain
	color := ""
	if r.Kind != model.RowOffDuty {
		color = rgb6(r.Color)
	}
	if !bold && color == "" {
		return 0, nil
	}
	key := fmt.Sprintf("%t|%s", bold, color)
	if id, ok := s.byKey[key]; ok {
		return id, nil
	}
	st := &excelize.Style{}
	if bold {
		st.Font = &excelize.Font{Bold: true}
	}
	if color != "" {
		st.Fill = excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1}
	}
	id, err := s.f.NewStyle(st)
	if err != nil {
		return 0, err
	}
	s.byKey[key] = id
	return id, nil
}

// Write saves one worksheet per generated sheet, in order, to path.
func Write(path string, sheets []model.GeneratedSheet) error {
	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return fmt.Errorf("creating styles: %w", err)
	}
	keepDefault := false
	for _, s := range sheets {
		if s.Name == defaultSheet {
			keepDefault = true
		}
		if err := writeSheet(f, st, s); err != nil {
			return fmt.Errorf("writing sheet %s: %w", s.Name, err)
		}
	}
	if len(sheets) > 0 && !keepDefault {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return err
		}
		f.SetActiveSheet(0)
	}
	return f.SaveAs(path)
}

func writeSheet(f *excelize.File, st *styles, s model.GeneratedSheet) error {
	if _, err := f.NewSheet(s.Name); err != nil {
		return err
	}
	header := make([]any, len(model.Headers))
	for i, h := range model.Headers {
		header[i] = h
	}
	last := len(model.Headers)
	if err := f.SetSheetRow(s.Name, cell(1, 1), &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(s.Name, cell(1, 1), cell(last, 1), st.header); err != nil {
		return err
	}
	for i, r := range s.Rows {
		row := i + 2
		values := r.Values()
		if err := f.SetSheetRow(s.Name, cell(1, row), &values); err != nil {
			return err
		}
		id, err := st.forRow(r)
		if err != nil {
			return err
		}
		if id == 0 {
			continue
		}
		if err := f.SetCellStyle(s.Name, cell(1, row), cell(last, row), id); err != nil {
			return err
		}
	}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(s.Name, col, col, w); err != nil {
			return err
		}
	}
	return f.SetPanes(s.Name, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}
