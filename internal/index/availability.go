package index

import (
	"fmt"
	"sort"
	"strings"

	"event-template-cli/internal/lexical"
	"event-template-cli/internal/logger"
	"event-template-cli/internal/sheet"
)

// RosterOptions carries the configuration the roster scan depends on.
type RosterOptions struct {
	// Marker is the header text anchoring the name column, compared lower-cased.
	Marker   string
	OffCodes []string
	Resorts  lexical.ResortTable
}

// OffEntry is one instructor's off-code on one day.
type OffEntry struct {
	Instructor string
	Code       string
}

// Availability holds who is present at which resort per day, and who is off.
type Availability struct {
	present map[SlotKey]nameSet
	off     map[DayKey]map[string]string
}

func newAvailability() *Availability {
	return &Availability{present: map[SlotKey]nameSet{}, off: map[DayKey]map[string]string{}}
}

// IsAvailable reports whether name is rostered at resort on month/day.
func (a *Availability) IsAvailable(month, day int, resort, name string) bool {
	if a == nil || resort == "" {
		return false
	}
	_, ok := a.present[SlotKey{month, day, resort}][name]
	return ok
}

// Present lists the instructors rostered at resort on month/day, sorted.
func (a *Availability) Present(month, day int, resort string) []string {
	if a == nil {
		return nil
	}
	return a.present[SlotKey{month, day, resort}].sorted()
}

// OffCode returns the off-code recorded for name on month/day.
func (a *Availability) OffCode(month, day int, name string) (string, bool) {
	if a == nil {
		return "", false
	}
	code, ok := a.off[DayKey{month, day}][name]
	return code, ok
}

// OffDuty lists every off entry for month/day ordered by instructor name.
func (a *Availability) OffDuty(month, day int) []OffEntry {
	if a == nil {
		return nil
	}
	codes := a.off[DayKey{month, day}]
	out := make([]OffEntry, 0, len(codes))
	for name, code := range codes {
		out = append(out, OffEntry{Instructor: name, Code: code})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Instructor < out[j].Instructor })
	return out
}

// Size returns the number of (day, resort) slots and off-duty days indexed.
func (a *Availability) Size() (slots, offDays int) {
	if a == nil {
		return 0, 0
	}
	return len(a.present), len(a.off)
}

// BuildAvailability scans every month tab of the roster workbook. Tabs whose name
// is not a month, or that lack the marker header, are skipped.
func BuildAvailability(wb sheet.Workbook, opts RosterOptions, tick Tick) *Availability {
	a := newAvailability()
	offCodes := map[string]bool{}
	for _, c := range opts.OffCodes {
		offCodes[strings.ToUpper(strings.TrimSpace(c))] = true
	}
	marker := lexical.NormKey(opts.Marker)
	for _, name := range wb.SheetNames() {
		tick.step("Preloading Roster sheet " + name)
		month, ok := lexical.MonthFromSheetName(name)
		if !ok {
			logger.Debugf("roster tab %q is not a month, skipping", name)
			continue
		}
		t, err := wb.Table(name)
		if err != nil {
			logger.Warnf("roster tab %s unreadable, skipping: %v", name, err)
			continue
		}
		a.scanRosterSheet(t, month, marker, offCodes, opts.Resorts, tick)
	}
	return a
}

func (a *Availability) scanRosterSheet(t sheet.Table, month int, marker string, offCodes map[string]bool, resorts lexical.ResortTable, tick Tick) {
	teamRow, teamCol := findMarker(t, marker, tick)
	if teamRow == 0 {
		logger.Debugf("roster tab %q has no %q header, skipping", t.Name(), marker)
		return
	}

	type dayCol struct{ col, day int }
	var days []dayCol
	for c := teamCol + 1; c <= t.MaxCol(); c++ {
		n, ok := lexical.WholeNumber(t.Value(teamRow, c))
		if !ok {
			break
		}
		if n >= 1 && n <= 31 {
			days = append(days, dayCol{c, n})
		}
	}

	last := lexical.LastPopulatedRow(t.MaxRow(), teamRow, func(r int) string { return t.Value(r, teamCol) })
	for r := teamRow + 1; r <= last; r++ {
		tick.step(fmt.Sprintf("Preloading Roster %s row %d", t.Name(), r))
		name := lexical.CleanInstructorName(t.Value(r, teamCol))
		if name == "" {
			break
		}
		for _, dc := range days {
			for _, tok := range lexical.SplitRosterCell(t.Value(r, dc.col)) {
				up := strings.ToUpper(tok)
				if offCodes[up] {
					a.markOff(month, dc.day, name, up)
					continue
				}
				a.markPresent(month, dc.day, resorts.ShortCode(tok), name)
			}
		}
	}
}

func findMarker(t sheet.Table, marker string, tick Tick) (row, col int) {
	for r := 1; r <= t.MaxRow(); r++ {
		tick.step(fmt.Sprintf("Preloading Roster %s scanning row %d", t.Name(), r))
		for c := 1; c <= t.MaxCol(); c++ {
			if lexical.NormKey(t.Value(r, c)) == marker {
				return r, c
			}
		}
	}
	return 0, 0
}

// markOff keeps the last code seen for an instructor on a day.
func (a *Availability) markOff(month, day int, name, code string) {
	k := DayKey{month, day}
	if a.off[k] == nil {
		a.off[k] = map[string]string{}
	}
	a.off[k][name] = code
}

func (a *Availability) markPresent(month, day int, resort, name string) {
	k := SlotKey{month, day, resort}
	if a.present[k] == nil {
		a.present[k] = nameSet{}
	}
	a.present[k].add(name)
}
