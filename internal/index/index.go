// Package index builds the read-only lookup tables the row generator
// consults: who is qualified for what, who is where on which day, who is off,
// and which resorts offer an activity. All indexes are rebuilt on every run.
package index

import (
	"sort"
	"strings"
)

// Tick is called once per scanned row or column step. It may be nil.
type Tick func(message string)

func (t Tick) step(message string) {
	if t != nil {
		t(message)
	}
}

// DayKey addresses a calendar day of the output year.
type DayKey struct {
	Month int
	Day   int
}

// SlotKey addresses the instructors present at one resort on one day.
type SlotKey struct {
	Month  int
	Day    int
	Resort string
}

type nameSet map[string]struct{}

func (s nameSet) add(name string) { s[name] = struct{}{} }

func (s nameSet) sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func containsFold(list []string, name string) bool {
	for _, s := range list {
		if strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}
