// Package sheet is the read side of the spreadsheet boundary. The matching
// engine only sees the interfaces declared here; the xlsx adapter and the
// in-memory Grid implement them.
package sheet

import (
	"fmt"
	"strings"
)

// Table is one worksheet addressed with 1-based row and column numbers.
type Table interface {
	Name() string
	MaxRow() int
	MaxCol() int
	// Value returns the cell text, "" for an empty or out-of-range cell.
	Value(row, col int) string
	// Fill returns the cell's solid fill colour as hex, "" when unfilled.
	Fill(row, col int) string
}

// Workbook is an opened spreadsheet file.
type Workbook interface {
	SheetNames() []string
	Table(name string) (Table, error)
	Close() error
}

// HoursLookup returns the dropdown choices attached to a cell. An empty result is legitimate.
type HoursLookup interface {
	BookableHours(sheet string, row, col int) ([]string, error)
}

// HoursFunc adapts a plain function to HoursLookup.
type HoursFunc func(sheet string, row, col int) ([]string, error)

func (fn HoursFunc) BookableHours(sheet string, row, col int) ([]string, error) {
	return fn(sheet, row, col)
}

// HeaderIndex maps the lower-cased, trimmed header text of row 1 to its column.
// A repeated header keeps the right-most column.
func HeaderIndex(t Table) map[string]int {
	idx := make(map[string]int, t.MaxCol())
	for c := 1; c <= t.MaxCol(); c++ {
		h := strings.ToLower(strings.TrimSpace(t.Value(1, c)))
		if h == "" {
			continue
		}
		idx[h] = c
	}
	return idx
}

// FindSheet returns the workbook sheet whose name equals name ignoring case.
func FindSheet(wb Workbook, name string) string {
	for _, s := range wb.SheetNames() {
		if strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(name)) {
			return s
		}
	}
	return ""
}

// ==================== Grid ====================

// Grid is an in-memory Table. Rows are 0-based slices of 1-based sheet rows.
type Grid struct {
	name  string
	rows  [][]string
	fills map[[2]int]string
}

// NewGrid wraps rows, row 1 being the header, as a named Table.
func NewGrid(name string, rows [][]string) *Grid {
	return &Grid{name: name, rows: rows, fills: map[[2]int]string{}}
}

func (g *Grid) Name() string { return g.name }
func (g *Grid) MaxRow() int  { return len(g.rows) }

func (g *Grid) MaxCol() int {
	n := 0
	for _, r := range g.rows {
		if len(r) > n {
			n = len(r)
		}
	}
	return n
}

func (g *Grid) Value(row, col int) string {
	if row < 1 || row > len(g.rows) || col < 1 || col > len(g.rows[row-1]) {
		return ""
	}
	return g.rows[row-1][col-1]
}

// SetFill colours a cell; it returns g for chaining in fixtures.
func (g *Grid) SetFill(row, col int, rgb string) *Grid {
	g.fills[[2]int{row, col}] = rgb
	return g
}

func (g *Grid) Fill(row, col int) string { return g.fills[[2]int{row, col}] }

// MemoryBook is an in-memory Workbook preserving sheet order.
type MemoryBook struct {
	order  []string
	tables map[string]*Grid
}

// NewMemoryBook holds grids in the given sheet order.
func NewMemoryBook(grids ...*Grid) *MemoryBook {
	b := &MemoryBook{tables: map[string]*Grid{}}
	for _, g := range grids {
		b.order = append(b.order, g.Name())
		b.tables[g.Name()] = g
	}
	return b
}

func (b *MemoryBook) SheetNames() []string { return append([]string(nil), b.order...) }

func (b *MemoryBook) Table(name string) (Table, error) {
	g, ok := b.tables[name]
	if !ok {
		return nil, fmt.Errorf("sheet %q not found", name)
	}
	return g, nil
}

func (b *MemoryBook) Close() error { return nil }
