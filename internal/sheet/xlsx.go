package sheet

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
)

// XLSX is an excelize-backed Workbook that also answers dropdown lookups.
type XLSX struct {
	path        string
	f           *excelize.File
	tables      map[string]*xlsxTable
	validations map[string][]*excelize.DataValidation
	fillByStyle map[int]string
	dateByStyle map[int]bool
	date1904    bool
}

var (
	_ Workbook    = (*XLSX)(nil)
	_ HoursLookup = (*XLSX)(nil)
)

// Open opens an xlsx file. The caller owns Close.
func Open(path string) (*XLSX, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	x := &XLSX{
		path:        path,
		f:           f,
		tables:      map[string]*xlsxTable{},
		validations: map[string][]*excelize.DataValidation{},
		fillByStyle: map[int]string{},
		dateByStyle: map[int]bool{},
	}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		x.date1904 = *props.Date1904
	}
	return x, nil
}

// OpenAll opens every path concurrently. On failure nothing is left open.
func OpenAll(ctx context.Context, paths ...string) ([]*XLSX, error) {
	books := make([]*XLSX, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b, err := Open(p)
			if err != nil {
				return fmt.Errorf("opening %s: %w", p, err)
			}
			books[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, b := range books {
			if b != nil {
				_ = b.Close()
			}
		}
		return nil, err
	}
	return books, nil
}

func (x *XLSX) Path() string { return x.path }

func (x *XLSX) SheetNames() []string { return x.f.GetSheetList() }

func (x *XLSX) Close() error { return x.f.Close() }

func (x *XLSX) Table(name string) (Table, error) {
	return x.table(name)
}

func (x *XLSX) table(name string) (*xlsxTable, error) {
	if t, ok := x.tables[name]; ok {
		return t, nil
	}
	rows, err := x.f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	x.dateCells(name, rows)
	maxCol := 0
	for _, r := range rows {
		if len(r) > maxCol {
			maxCol = len(r)
		}
	}
	t := &xlsxTable{book: x, name: name, rows: rows, maxCol: maxCol}
	x.tables[name] = t
	return t, nil
}

// dateCells rewrites serials in date-formatted cells as "2006-01-02 15:04:05"
// text so month and day parsing sees the date rather than a day count.
func (x *XLSX) dateCells(sheet string, rows [][]string) {
	for r, row := range rows {
		for c, v := range row {
			serial, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil || serial <= 0 {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				continue
			}
			idx, err := x.f.GetCellStyle(sheet, ref)
			if err != nil || idx == 0 || !x.isDateStyle(idx) {
				continue
			}
			t, err := excelize.ExcelDateToTime(serial, x.date1904)
			if err != nil {
				continue
			}
			row[c] = t.Format(time.DateTime)
		}
	}
}

func (x *XLSX) isDateStyle(idx int) bool {
	if d, ok := x.dateByStyle[idx]; ok {
		return d
	}
	d := false
	if st, err := x.f.GetStyle(idx); err == nil && st != nil {
		if st.CustomNumFmt != nil {
			d = isDateFormatCode(*st.CustomNumFmt)
		} else {
			d = isDateNumFmt(st.NumFmt)
		}
	}
	x.dateByStyle[idx] = d
	return d
}

// isDateNumFmt covers the built-in date formats, including the East Asian ones.
func isDateNumFmt(id int) bool {
	switch {
	case id >= 14 && id <= 17, id == 22:
		return true
	case id >= 27 && id <= 36, id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode reports whether a custom format shows a year or a day.
// Quoted literals and bracketed sections such as colours are ignored.
func isDateFormatCode(code string) bool {
	inQuote, inBracket := false, false
	for _, r := range strings.ToLower(code) {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		case r == 'y' || r == 'd':
			return true
		}
	}
	return false
}

func (x *XLSX) fill(sheet string, row, col int) string {
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return ""
	}
	idx, err := x.f.GetCellStyle(sheet, ref)
	if err != nil || idx == 0 {
		return ""
	}
	if rgb, ok := x.fillByStyle[idx]; ok {
		return rgb
	}
	rgb := ""
	if st, err := x.f.GetStyle(idx); err == nil && st != nil {
		if st.Fill.Type == "pattern" && len(st.Fill.Color) > 0 {
			rgb = strings.TrimPrefix(st.Fill.Color[0], "#")
		}
	}
	x.fillByStyle[idx] = rgb
	return rgb
}

type xlsxTable struct {
	book   *XLSX
	name   string
	rows   [][]string
	maxCol int
}

func (t *xlsxTable) Name() string { return t.name }
func (t *xlsxTable) MaxRow() int  { return len(t.rows) }
func (t *xlsxTable) MaxCol() int  { return t.maxCol }

func (t *xlsxTable) Value(row, col int) string {
	if row < 1 || row > len(t.rows) || col < 1 || col > len(t.rows[row-1]) {
		return ""
	}
	return t.rows[row-1][col-1]
}

func (t *xlsxTable) Fill(row, col int) string {
	return t.book.fill(t.name, row, col)
}
