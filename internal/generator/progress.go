package generator

import (
	"event-template-cli/internal/sheet"
)

// Progress is an advisory report sent after each scan step.
type Progress struct {
	Current int
	Total   int
	Message string
}

// Percent is Current/Total as 0..100.
func (p Progress) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	pct := p.Current * 100 / p.Total
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct
}

// ProgressFunc observes a run. It may be nil.
type ProgressFunc func(Progress)

type tracker struct {
	fn      ProgressFunc
	current int
	total   int
}

func newTracker(fn ProgressFunc, total int) *tracker {
	if total <= 0 {
		total = 1
	}
	return &tracker{fn: fn, total: total}
}

// tick counts one step. The estimate can run short, so Current never passes Total.
func (t *tracker) tick(message string) {
	if t.current < t.total {
		t.current++
	}
	if t.fn != nil {
		t.fn(Progress{Current: t.current, Total: t.total, Message: message})
	}
}

func (t *tracker) finish(message string) {
	t.current = t.total
	if t.fn != nil {
		t.fn(Progress{Current: t.total, Total: t.total, Message: message})
	}
}

// estimateTotal counts data rows of the target event sheets, the staff sheets and every roster tab.
func estimateTotal(in Inputs, targets []string) int {
	rows := func(wb sheet.Workbook, name string) int {
		if wb == nil || name == "" {
			return 0
		}
		t, err := wb.Table(name)
		if err != nil {
			return 0
		}
		return max(0, t.MaxRow()-1)
	}
	total := 0
	for _, target := range targets {
		if in.Events != nil {
			total += rows(in.Events, sheet.FindSheet(in.Events, target))
		}
		if in.Staff != nil {
			total += rows(in.Staff, sheet.FindSheet(in.Staff, target))
		}
	}
	if in.Roster != nil {
		for _, name := range in.Roster.SheetNames() {
			total += rows(in.Roster, name)
		}
	}
	return max(1, total)
}
