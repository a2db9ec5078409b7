// Package generator turns an event workbook, a staff qualification workbook and
// a monthly roster into deduplicated timeslot rows.
//
// A run first builds the qualification, availability and activity indexes, then
// walks every target sheet of the event workbook. For each row with a month,
// at least one positive capacity day and at least one bookable hour it emits a
// main row per (event, resort, date), an off-duty row per (instructor, date) on
// the off-duty sheet, and an instructor row per qualified, rostered, non-off
// instructor and time slot.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"event-template-cli/internal/index"
	"event-template-cli/internal/lexical"
	"event-template-cli/internal/logger"
	"event-template-cli/internal/model"
	"event-template-cli/internal/sheet"
)

const (
	offDayStart = "00:00:00"
	offDayEnd   = "23:59:59"
)

// Inputs are the opened workbooks of one run. Hours may be nil, in which case
// no row has bookable hours.
type Inputs struct {
	Events sheet.Workbook
	Staff  sheet.Workbook
	Roster sheet.Workbook
	Hours  sheet.HoursLookup
}

// Paths names the three input files.
type Paths struct {
	Events string
	Staff  string
	Roster string
}

// Result is the output of a run.
type Result struct {
	Sheets []model.GeneratedSheet
	// Skipped holds one *SheetError per target sheet left out of Sheets.
	Skipped    []error
	Activities index.ActivityResorts
}

// Rows counts the rows across all sheets.
func (r *Result) Rows() int {
	n := 0
	for _, s := range r.Sheets {
		n += len(s.Rows)
	}
	return n
}

// Generator turns the event, staff and roster workbooks into timeslot sheets.
type Generator struct {
	opts     Options
	progress ProgressFunc
}

// New returns a Generator; progress may be nil.
func New(opts Options, progress ProgressFunc) *Generator {
	return &Generator{opts: opts, progress: progress}
}

// GenerateFiles opens the three workbooks, runs the generator and closes them
// again on every path out.
func GenerateFiles(ctx context.Context, opts Options, paths Paths, progress ProgressFunc) (*Result, error) {
	books, err := sheet.OpenAll(ctx, paths.Events, paths.Staff, paths.Roster)
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, b := range books {
			if cerr := b.Close(); cerr != nil {
				logger.Warnf("closing %s: %v", b.Path(), cerr)
			}
		}
	}()
	return New(opts, progress).Run(Inputs{
		Events: books[0],
		Staff:  books[1],
		Roster: books[2],
		Hours:  books[0],
	})
}

// Run builds the indexes and generates every target sheet in event workbook order.
func (g *Generator) Run(in Inputs) (*Result, error) {
	if in.Events == nil || in.Staff == nil || in.Roster == nil {
		return nil, errors.New("generator: events, staff and roster workbooks are required")
	}
	tr := newTracker(g.progress, estimateTotal(in, g.opts.TargetSheets))

	quals := index.BuildQualifications(in.Staff, g.opts.TargetSheets, g.opts.Exclude, tr.tick)
	avail := index.BuildAvailability(in.Roster, index.RosterOptions{
		Marker:   g.opts.TeamMarker,
		OffCodes: g.opts.OffCodes,
		Resorts:  g.opts.Resorts,
	}, tr.tick)
	slots, offDays := avail.Size()
	logger.Debugf("roster indexed: %d resort slots, %d off-duty days", slots, offDays)

	res := &Result{Activities: index.BuildActivityResorts(in.Events, g.opts.TargetSheets, tr.tick)}
	state := newRunState(g.opts, quals)

	for _, name := range in.Events.SheetNames() {
		if !g.opts.isTarget(name) {
			continue
		}
		t, err := in.Events.Table(name)
		if err != nil {
			logger.Warnf("event sheet %s unreadable, skipping: %v", name, err)
			res.Skipped = append(res.Skipped, &SheetError{Sheet: name, Stage: "read", Err: err})
			continue
		}
		run, err := g.newSheetRun(t, state, avail, in.Hours, tr)
		if err != nil {
			logger.Warnf("%v", err)
			res.Skipped = append(res.Skipped, err)
			continue
		}
		res.Sheets = append(res.Sheets, run.generate())
	}

	tr.finish("Finished generating output")
	return res, nil
}

// ==================== Sheet run ====================

type sheetRun struct {
	opts  Options
	t     sheet.Table
	state *runState
	seen  *sheetState
	avail *index.Availability
	hours sheet.HoursLookup
	tr    *tracker

	category   string
	offDuty    bool
	product    bool
	monthCol   int
	activity   int
	bookable   int
	resortCol  int
	configCol  int
	productCol int

	rows []model.EventRow
}

func (g *Generator) newSheetRun(t sheet.Table, state *runState, avail *index.Availability, hours sheet.HoursLookup, tr *tracker) (*sheetRun, error) {
	header := sheet.HeaderIndex(t)
	var missing []string
	for _, h := range []string{"month", "activity", "bookable hours"} {
		if header[h] == 0 {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, &SheetError{
			Sheet: t.Name(),
			Stage: "header",
			Err:   fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", ")),
		}
	}
	category := strings.ToUpper(strings.TrimSpace(t.Name()))
	return &sheetRun{
		opts:       g.opts,
		t:          t,
		state:      state,
		seen:       newSheetState(),
		avail:      avail,
		hours:      hours,
		tr:         tr,
		category:   category,
		offDuty:    strings.EqualFold(category, strings.TrimSpace(g.opts.OffDutySheet)),
		product:    strings.EqualFold(category, strings.TrimSpace(g.opts.ProductSheet)),
		monthCol:   header["month"],
		activity:   header["activity"],
		bookable:   header["bookable hours"],
		resortCol:  header["resort name"],
		configCol:  header["configuration"],
		productCol: header["product"],
	}, nil
}

func (s *sheetRun) generate() model.GeneratedSheet {
	last := lexical.LastPopulatedRow(s.t.MaxRow(), 1, func(r int) string { return s.t.Value(r, s.activity) })
	for r := 2; r <= last; r++ {
		s.tr.tick(fmt.Sprintf("Processing %s row %d", s.t.Name(), r))
		s.row(r)
	}
	return model.GeneratedSheet{Name: s.t.Name(), Rows: s.rows}
}

type capacityDay struct {
	day      int
	capacity decimal.Decimal
}

type slot struct {
	start, end string
}

func (s *sheetRun) cell(r, c int) string {
	if c == 0 {
		return ""
	}
	return strings.TrimSpace(s.t.Value(r, c))
}

func (s *sheetRun) row(r int) {
	activity := s.cell(r, s.activity)
	if activity == "" {
		return
	}
	resort := s.cell(r, s.resortCol)

	configuration := activity
	if c := s.cell(r, s.configCol); c != "" {
		configuration = c
	}
	resource := activity
	if s.opts.Override.applies(s.t.Name(), activity) {
		resource, configuration = s.opts.Override.Label, s.opts.Override.Label
	}

	month, ok := lexical.MonthToNumber(s.cell(r, s.monthCol))
	if !ok {
		logger.Debugf("%s row %d: unknown month %q", s.t.Name(), r, s.cell(r, s.monthCol))
		return
	}
	days := s.capacityDays(r, month)
	if len(days) == 0 {
		return
	}

	qualified := s.state.qualifiedFor(s.category, s.lookupKey(r, configuration, activity))
	resortCode := s.opts.Resorts.ShortCode(resort)

	raw := s.bookableHours(r)
	if len(raw) == 0 {
		logger.Debugf("%s row %d: no bookable hours", s.t.Name(), r)
		return
	}
	var slots []slot
	for _, h := range raw {
		start, end, ok := lexical.ParseSlot(h)
		if !ok {
			logger.Debugf("%s row %d: malformed slot %q", s.t.Name(), r, h)
			continue
		}
		slots = append(slots, slot{start, end})
	}

	color := s.state.colors.pick(activity)
	for _, cd := range days {
		date := lexical.ISODate(s.opts.Year, month, cd.day)
		if s.offDuty {
			s.emitOffDuty(month, cd.day, date)
		}
		mk := mainKey{lexical.NormKey(activity), lexical.NormKey(resort), date}
		for _, sl := range slots {
			mr, ok := s.seen.mains[mk]
			if !ok {
				mr = mainRow{
					capacity:  cd.capacity,
					reference: fmt.Sprintf("%s-%s-%s", s.t.Name(), resort, lexical.MonthAbbrev(month)),
					color:     color,
				}
				s.seen.mains[mk] = mr
				s.rows = append(s.rows, model.EventRow{
					Kind:          model.RowMain,
					Event:         activity,
					Resource:      resource,
					Configuration: configuration,
					Date:          date,
					StartTime:     sl.start,
					EndTime:       sl.end,
					Capacity:      decimal.NewNullDecimal(mr.capacity),
					Reference:     mr.reference,
					Color:         mr.color,
				})
			}
			for _, name := range qualified {
				if !s.avail.IsAvailable(month, cd.day, resortCode, name) {
					continue
				}
				if _, off := s.avail.OffCode(month, cd.day, name); off {
					continue
				}
				ik := instructorKey{mk.event, mk.resort, name, date, sl.start, sl.end}
				if _, dup := s.seen.instructors[ik]; dup {
					continue
				}
				s.seen.instructors[ik] = struct{}{}
				s.rows = append(s.rows, model.EventRow{
					Kind:          model.RowInstructor,
					Event:         activity,
					Resource:      name,
					Configuration: configuration,
					Date:          date,
					StartTime:     sl.start,
					EndTime:       sl.end,
					Capacity:      decimal.NewNullDecimal(mr.capacity),
					Reference:     mr.reference,
					Color:         mr.color,
				})
			}
		}
	}
}

// lookupKey picks product (product sheet only), then the configuration label, then the activity.
func (s *sheetRun) lookupKey(r int, configuration, activity string) string {
	if s.product {
		if p := s.cell(r, s.productCol); p != "" {
			return lexical.NormKey(p)
		}
	}
	if configuration != "" {
		return lexical.NormKey(configuration)
	}
	return lexical.NormKey(activity)
}

// capacityDays reads the day columns right of month, bounded by the month's length.
func (s *sheetRun) capacityDays(r, month int) []capacityDay {
	last := lexical.DaysIn(s.opts.Year, month)
	from := s.monthCol + 1
	to := min(s.t.MaxCol(), from+last-1)
	var out []capacityDay
	for c := from; c <= to; c++ {
		day, ok := lexical.WholeNumber(s.t.Value(1, c))
		if !ok || day < 1 || day > last {
			continue
		}
		v := s.cell(r, c)
		if v == "" {
			continue
		}
		capacity, err := decimal.NewFromString(v)
		if err != nil || !capacity.IsPositive() {
			continue
		}
		out = append(out, capacityDay{day: day, capacity: capacity})
	}
	return out
}

func (s *sheetRun) bookableHours(r int) []string {
	if s.hours == nil {
		return nil
	}
	hours, err := s.hours.BookableHours(s.t.Name(), r, s.bookable)
	if err != nil {
		logger.Warnf("could not fetch dropdown for %s!R%dC%d: %v", s.t.Name(), r, s.bookable, err)
		return nil
	}
	return hours
}

func (s *sheetRun) emitOffDuty(month, day int, date string) {
	for _, e := range s.avail.OffDuty(month, day) {
		k := offKey{e.Instructor, date}
		if _, dup := s.seen.offs[k]; dup {
			continue
		}
		s.seen.offs[k] = struct{}{}
		s.rows = append(s.rows, model.EventRow{
			Kind:      model.RowOffDuty,
			Event:     e.Code,
			Resource:  e.Instructor,
			Date:      date,
			StartTime: offDayStart,
			EndTime:   offDayEnd,
		})
	}
}
