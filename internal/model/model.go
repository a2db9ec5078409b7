// Package model holds the rows the generator emits and the records the sink receives.
package model

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Headers is the fixed column order of every generated sheet.
var Headers = []string{"Event", "Resource", "Configuration", "Date", "Start Time", "End Time", "Capacity", "Reference"}

// RowKind tells main, instructor and off-duty rows apart.
type RowKind int

const (
	RowMain RowKind = iota
	RowInstructor
	RowOffDuty
)

func (k RowKind) String() string {
	switch k {
	case RowMain:
		return "main"
	case RowInstructor:
		return "instructor"
	case RowOffDuty:
		return "off"
	default:
		return "unknown"
	}
}

// EventRow is one generated output row.
type EventRow struct {
	Kind RowKind
	// Event holds the activity label, or the off-code on an off-duty row.
	Event string
	// Resource holds the resource label on main rows and the instructor name otherwise.
	Resource      string
	Configuration string
	Date          string
	StartTime     string
	EndTime       string
	Capacity      decimal.NullDecimal
	Reference     string
	// Color is the ARGB fill shared by a main row and its instructor rows.
	Color string
}

// Values returns the cells in Headers order. A missing capacity is nil.
func (r EventRow) Values() []any {
	var capacity any
	if r.Capacity.Valid {
		capacity = r.Capacity.Decimal.InexactFloat64()
	}
	return []any{r.Event, r.Resource, r.Configuration, r.Date, r.StartTime, r.EndTime, capacity, r.Reference}
}

// Record converts the row to the sink's string form.
func (r EventRow) Record(sheet string, rowNumber int) TimeslotRecord {
	capacity := ""
	if r.Capacity.Valid {
		capacity = r.Capacity.Decimal.String()
	}
	return TimeslotRecord{
		Sheet:         sheet,
		RowNumber:     rowNumber,
		Event:         r.Event,
		Resource:      r.Resource,
		Configuration: r.Configuration,
		Capacity:      capacity,
		Date:          r.Date,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		Reference:     r.Reference,
	}
}

// GeneratedSheet is the output of one target sheet.
type GeneratedSheet struct {
	Name string
	Rows []EventRow
}

// Count returns how many rows of kind the sheet holds.
func (s GeneratedSheet) Count(kind RowKind) int {
	n := 0
	for _, r := range s.Rows {
		if r.Kind == kind {
			n++
		}
	}
	return n
}

// Records numbers rows from 2, matching their position under the header row.
func (s GeneratedSheet) Records() []TimeslotRecord {
	out := make([]TimeslotRecord, 0, len(s.Rows))
	for i, r := range s.Rows {
		out = append(out, r.Record(s.Name, i+2))
	}
	return out
}

// TimeslotRecord is a row as the record sink receives it, all fields still text.
type TimeslotRecord struct {
	Sheet         string `yaml:"sheet"`
	RowNumber     int    `yaml:"row"`
	Event         string `yaml:"event"`
	Resource      string `yaml:"resource"`
	Configuration string `yaml:"configuration"`
	Capacity      string `yaml:"capacity"`
	Date          string `yaml:"date"`
	StartTime     string `yaml:"start_time"`
	EndTime       string `yaml:"end_time"`
	Reference     string `yaml:"reference"`
}

// PushError reports one record the sink rejected.
type PushError struct {
	Sheet     string
	RowNumber int
	Message   string
}

func (e PushError) Error() string {
	return e.Sheet + " row " + strconv.Itoa(e.RowNumber) + ": " + e.Message
}
