package generator

import (
	"math/rand/v2"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"event-template-cli/internal/index"
)

// colorPicker hands out a palette colour per event label and keeps it for the run.
type colorPicker struct {
	palette []string
	rnd     *rand.Rand
	memo    map[string]string
}

func newColorPicker(palette []string, seed int64) *colorPicker {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &colorPicker{
		palette: palette,
		rnd:     rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1)),
		memo:    map[string]string{},
	}
}

func (p *colorPicker) pick(event string) string {
	if c, ok := p.memo[event]; ok {
		return c
	}
	c := ""
	if len(p.palette) > 0 {
		c = strings.ToUpper(strings.TrimPrefix(p.palette[p.rnd.IntN(len(p.palette))], "#"))
	}
	p.memo[event] = c
	return c
}

type lookupKey struct {
	category string
	label    string
}

// runState lives for one Run call.
type runState struct {
	colors    *colorPicker
	qualified map[lookupKey][]string
	quals     *index.Qualifications
}

func newRunState(opts Options, quals *index.Qualifications) *runState {
	return &runState{
		colors:    newColorPicker(opts.Palette, opts.Seed),
		qualified: map[lookupKey][]string{},
		quals:     quals,
	}
}

func (s *runState) qualifiedFor(category, label string) []string {
	k := lookupKey{category, label}
	if names, ok := s.qualified[k]; ok {
		return names
	}
	names := s.quals.Lookup(category, label)
	s.qualified[k] = names
	return names
}

type mainKey struct {
	event, resort, date string
}

type offKey struct {
	instructor, date string
}

type instructorKey struct {
	event, resort, instructor, date, start, end string
}

// mainRow is what instructor rows inherit from the main row of their (event, resort, date).
type mainRow struct {
	capacity  decimal.Decimal
	reference string
	color     string
}

// sheetState holds the dedup sets of one generated sheet.
type sheetState struct {
	mains       map[mainKey]mainRow
	offs        map[offKey]struct{}
	instructors map[instructorKey]struct{}
}

func newSheetState() *sheetState {
	return &sheetState{
		mains:       map[mainKey]mainRow{},
		offs:        map[offKey]struct{}{},
		instructors: map[instructorKey]struct{}{},
	}
}
