package generator

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"event-template-cli/internal/config"
	"event-template-cli/internal/model"
	"event-template-cli/internal/sheet"
)

const testColor = "FFCCE5FF"

func testOptions() Options {
	cfg := config.DefaultConfig()
	cfg.Generate.Year = 2025
	cfg.Generate.Seed = 42
	cfg.Generate.Palette = []string{testColor}
	return OptionsFromConfig(cfg, time.Now())
}

var eventHeader = []string{"Activity", "Resort Name", "Activity Duration", "Bookable Hours", "Month", "14", "15", "16"}

func events(name string, rows ...[]string) *sheet.Grid {
	return sheet.NewGrid(name, append([][]string{eventHeader}, rows...))
}

func staff(grids ...*sheet.Grid) *sheet.MemoryBook { return sheet.NewMemoryBook(grids...) }

func fixedHours(slots ...string) sheet.HoursLookup {
	return sheet.HoursFunc(func(string, int, int) ([]string, error) { return slots, nil })
}

func run(t *testing.T, opts Options, in Inputs) *Result {
	t.Helper()
	res, err := New(opts, nil).Run(in)
	require.NoError(t, err)
	return res
}

func instructorRows(rows []model.EventRow) []string {
	var out []string
	for _, r := range rows {
		if r.Kind == model.RowInstructor {
			out = append(out, r.Event+"/"+r.Resource+"/"+r.StartTime)
		}
	}
	return out
}

func TestRunMainAndInstructorRows(t *testing.T) {
	in := Inputs{
		Events: sheet.NewMemoryBook(events("AKUN", []string{"Yoga", "St. Regis", "60", "", "March", "", "5", ""})),
		Staff:  staff(sheet.NewGrid("AKUN", [][]string{{"Priority", "Alice", "Bob"}, {"1", "Yoga", "Yoga"}})),
		Roster: sheet.NewMemoryBook(sheet.NewGrid("March", [][]string{
			{"Team Members Name", "15"},
			{"Alice", "ST"},
			{"Bob", "TB"},
		})),
		Hours: fixedHours("09:00-10:00"),
	}

	res := run(t, testOptions(), in)

	require.Len(t, res.Sheets, 1)
	assert.Empty(t, res.Skipped)
	rows := res.Sheets[0].Rows
	require.Len(t, rows, 2)

	assert.Equal(t, model.RowMain, rows[0].Kind)
	assert.Equal(t, []any{"Yoga", "Yoga", "Yoga", "2025-03-15", "09:00:00", "10:00:00", float64(5), "AKUN-St. Regis-Mar"}, rows[0].Values())
	assert.True(t, rows[0].Capacity.Valid)
	assert.True(t, decimal.NewFromInt(5).Equal(rows[0].Capacity.Decimal))

	assert.Equal(t, model.RowInstructor, rows[1].Kind)
	assert.Equal(t, []any{"Yoga", "Alice", "Yoga", "2025-03-15", "09:00:00", "10:00:00", float64(5), "AKUN-St. Regis-Mar"}, rows[1].Values())
	assert.Equal(t, testColor, rows[0].Color)
	assert.Equal(t, rows[0].Color, rows[1].Color)
	assert.Equal(t, []string{"St. Regis"}, res.Activities.Resorts("yoga"))
}

func TestRunOffDutyRowOncePerInstructorAndDate(t *testing.T) {
	in := Inputs{
		Events: sheet.NewMemoryBook(
			events("AKUN",
				[]string{"Yoga", "St. Regis", "", "", "March", "", "5", ""},
				[]string{"Pilates", "St. Regis", "", "", "March", "", "4", ""},
			),
			events("WAMA", []string{"Kayak", "St. Regis", "", "", "March", "", "2", ""}),
		),
		Staff: staff(
			sheet.NewGrid("AKUN", [][]string{{"Priority", "Alice", "Carol"}, {"1", "Yoga", "Yoga"}, {"2", "Pilates", "Pilates"}}),
			sheet.NewGrid("WAMA", [][]string{{"Priority", "Carol"}, {"1", "Kayak"}}),
		),
		Roster: sheet.NewMemoryBook(sheet.NewGrid("March 2025", [][]string{
			{"Team Members Name", "15"},
			{"Alice", "ST"},
			{"Carol (Senior)", "AL"},
		})),
		Hours: fixedHours("09:00-10:00"),
	}

	res := run(t, testOptions(), in)
	require.Len(t, res.Sheets, 2)

	akun := res.Sheets[0]
	assert.Equal(t, "AKUN", akun.Name)
	require.Equal(t, 1, akun.Count(model.RowOffDuty))
	assert.Equal(t, model.RowOffDuty, akun.Rows[0].Kind)
	assert.Equal(t, []any{"AL", "Carol", "", "2025-03-15", "00:00:00", "23:59:59", nil, ""}, akun.Rows[0].Values())
	assert.Equal(t, []string{"Yoga/Alice/09:00:00", "Pilates/Alice/09:00:00"}, instructorRows(akun.Rows))

	wama := res.Sheets[1]
	assert.Zero(t, wama.Count(model.RowOffDuty))
	assert.Equal(t, 1, wama.Count(model.RowMain))
	assert.Empty(t, instructorRows(wama.Rows))
}

func TestRunDuplicateSourceRowsKeepFirst(t *testing.T) {
	in := Inputs{
		Events: sheet.NewMemoryBook(events("AKUN",
			[]string{"Yoga", "St. Regis", "", "", "March", "", "5", ""},
			[]string{"", "", "", "", "", "", "", ""},
			[]string{"yoga ", " st. regis", "", "", "Mar", "", "9", ""},
		)),
		Staff:  staff(sheet.NewGrid("AKUN", [][]string{{"Priority", "Alice"}, {"1", "Yoga"}})),
		Roster: sheet.NewMemoryBook(sheet.NewGrid("March", [][]string{{"Team Members Name", "15"}, {"Alice", "ST"}})),
		Hours:  fixedHours("09:00-10:00"),
	}

	rows := run(t, testOptions(), in).Sheets[0].Rows

	require.Len(t, rows, 2)
	assert.Equal(t, model.RowMain, rows[0].Kind)
	assert.True(t, decimal.NewFromInt(5).Equal(rows[0].Capacity.Decimal))
	assert.Equal(t, model.RowInstructor, rows[1].Kind)
}

func TestRunSkipsRowsWithoutCapacityMonthOrHours(t *testing.T) {
	in := Inputs{
		Events: sheet.NewMemoryBook(events("AKUN",
			[]string{"Yoga", "St. Regis", "", "", "March", "0", "-2", "abc"},
			[]string{"Kayak", "St. Regis", "", "", "March", "", "3", ""},
			[]string{"Hike", "St. Regis", "", "", "Someday", "", "3", ""},
		)),
		Staff:  staff(sheet.NewGrid("AKUN", [][]string{{"Priority", "Alice"}, {"1", "Kayak"}})),
		Roster: sheet.NewMemoryBook(sheet.NewGrid("March", [][]string{{"Team Members Name", "15"}, {"Alice", "ST"}})),
		Hours: sheet.HoursFunc(func(_ string, row, _ int) ([]string, error) {
			if row == 3 {
				return nil, nil
			}
			return []string{"09:00-10:00"}, nil
		}),
	}

	res := run(t, testOptions(), in)

	require.Len(t, res.Sheets, 1)
	assert.Empty(t, res.Sheets[0].Rows)
}

func TestRunSkipsMalformedSlots(t *testing.T) {
	in := Inputs{
		Events: sheet.NewMemoryBook(events("AKUN", []string{"Yoga", "St. Regis", "", "", "March", "", "5", ""})),
		Staff:  staff(sheet.NewGrid("AKUN", [][]string{{"Priority", "Alice"}, {"1", "Yoga"}})),
		Roster: sheet.NewMemoryBook(sheet.NewGrid("March", [][]string{{"Team Members Name", "15"}, {"Alice", "ST"}})),
		Hours:  fixedHours("09:00", "bad-", "10:00-11:00", "11:00:00 - 12:00:00", "1-2-3"),
	}

	rows := run(t, testOptions(), in).Sheets[0].Rows

	require.Len(t, rows, 3)
	assert.Equal(t, "10:00:00", rows[0].StartTime)
	assert.Equal(t, "11:00:00", rows[0].EndTime)
	assert.Equal(t, []string{"Yoga/Alice/10:00:00", "Yoga/Alice/11:00:00"}, instructorRows(rows))
}

func TestRunHoursLookupFailureDegrades(t *testing.T) {
	in := Inputs{
		Events: sheet.NewMemoryBook(events("AKUN", []string{"Yoga", "St. Regis", "", "", "March", "", "5", ""})),
		Staff:  staff(),
		Roster: sheet.NewMemoryBook(),
		Hours: sheet.HoursFunc(func(string, int, int) ([]string, error) {
			return nil, errors.New("validation xml unreadable")
		}),
	}

	res := run(t, testOptions(), in)
	require.Len(t, res.Sheets, 1)
	assert.Empty(t, res.Sheets[0].Rows)
}

func TestRunQualificationLookupPrecedence(t *testing.T) {
	header := []string{"Activity", "Resort Name", "Bookable Hours", "Configuration", "Product", "Month", "14", "15"}
	quals := [][]string{{"Priority", "Dave", "Erin"}, {"1", "Reef Tour", "Boat Trip"}}
	in := Inputs{
		Events: sheet.NewMemoryBook(
			sheet.NewGrid("GALAXEA", [][]string{
				header,
				{"Snorkel", "St. Regis", "", "Boat Trip", "Reef Tour", "March", "", "5"},
				{"Dive", "St. Regis", "", "Boat Trip", "", "March", "", "4"},
			}),
			sheet.NewGrid("AKUN", [][]string{
				header,
				{"Snorkel", "St. Regis", "", "Boat Trip", "Reef Tour", "March", "", "3"},
			}),
		),
		Staff:  staff(sheet.NewGrid("GALAXEA", quals), sheet.NewGrid("AKUN", quals)),
		Roster: sheet.NewMemoryBook(sheet.NewGrid("March", [][]string{{"Team Members Name", "15"}, {"Dave", "ST"}, {"Erin", "ST"}})),
		Hours:  fixedHours("09:00-10:00"),
	}

	res := run(t, testOptions(), in)
	require.Len(t, res.Sheets, 2)

	galaxea := res.Sheets[0]
	assert.Equal(t, []string{"Snorkel/Dave/09:00:00", "Dive/Erin/09:00:00"}, instructorRows(galaxea.Rows))
	assert.Equal(t, "Boat Trip", galaxea.Rows[0].Configuration)
	assert.Equal(t, "Snorkel", galaxea.Rows[0].Resource)

	akun := res.Sheets[1]
	assert.Equal(t, []string{"Snorkel/Erin/09:00:00"}, instructorRows(akun.Rows))
}

func TestRunLabelOverride(t *testing.T) {
	in := Inputs{
		Events: sheet.NewMemoryBook(events("WAMA",
			[]string{"Sailing Sunset", "St. Regis", "", "", "March", "", "6", ""},
			[]string{"Kayak", "St. Regis", "", "", "March", "", "2", ""},
		)),
		Staff:  staff(sheet.NewGrid("WAMA", [][]string{{"Priority", "Finn"}, {"1", "Sailing"}})),
		Roster: sheet.NewMemoryBook(sheet.NewGrid("March", [][]string{{"Team Members Name", "15"}, {"Finn", "ST"}})),
		Hours:  fixedHours("09:00-10:00"),
	}

	rows := run(t, testOptions(), in).Sheets[0].Rows

	require.Len(t, rows, 3)
	assert.Equal(t, []any{"Sailing Sunset", "Sailing", "Sailing"}, rows[0].Values()[:3])
	assert.Equal(t, []any{"Sailing Sunset", "Finn", "Sailing"}, rows[1].Values()[:3])
	assert.Equal(t, []any{"Kayak", "Kayak", "Kayak"}, rows[2].Values()[:3])
}

func TestRunSkipsSheetWithMissingColumns(t *testing.T) {
	in := Inputs{
		Events: sheet.NewMemoryBook(
			events("AKUN", []string{"Yoga", "St. Regis", "", "", "March", "", "5", ""}),
			sheet.NewGrid("WAMA", [][]string{{"Activity", "Resort Name", "Month", "15"}, {"Kayak", "St. Regis", "March", "3"}}),
			sheet.NewGrid("Lookups", [][]string{{"Hours"}, {"09:00-10:00"}}),
		),
		Staff:  staff(),
		Roster: sheet.NewMemoryBook(),
		Hours:  fixedHours("09:00-10:00"),
	}

	res := run(t, testOptions(), in)

	require.Len(t, res.Sheets, 1)
	assert.Equal(t, "AKUN", res.Sheets[0].Name)
	require.Len(t, res.Skipped, 1)
	var se *SheetError
	require.ErrorAs(t, res.Skipped[0], &se)
	assert.Equal(t, "WAMA", se.Sheet)
	assert.ErrorIs(t, res.Skipped[0], ErrMissingColumn)
	assert.Contains(t, se.Error(), "bookable hours")
}

func TestRunIsDeterministicForASeed(t *testing.T) {
	build := func() Inputs {
		return Inputs{
			Events: sheet.NewMemoryBook(events("AKUN",
				[]string{"Yoga", "St. Regis", "", "", "March", "3", "5", "2"},
				[]string{"Pilates", "Turtle Bay", "", "", "March", "", "5", ""},
				[]string{"Kayak", "St. Regis", "", "", "March", "1", "", ""},
			)),
			Staff: staff(sheet.NewGrid("AKUN", [][]string{
				{"Priority", "Alice", "Bob", "Carol"},
				{"1", "Yoga", "Pilates", "Yoga"},
				{"2", "Kayak", "Yoga", "Pilates"},
			})),
			Roster: sheet.NewMemoryBook(sheet.NewGrid("March", [][]string{
				{"Team Members Name", "14", "15", "16"},
				{"Alice", "ST", "ST", "SK"},
				{"Bob", "TB", "ST, TB", "ST"},
				{"Carol", "AL", "TB", "ST"},
			})),
			Hours: fixedHours("09:00-10:00", "14:00-15:30"),
		}
	}
	opts := testOptions()
	opts.Palette = []string{"FFFFE5CC", "FFE5FFCC", "FFCCFFE5", "FFCCE5FF"}

	first := run(t, opts, build())
	second := run(t, opts, build())
	assert.Equal(t, first.Sheets, second.Sheets)

	opts.Seed = 0
	unseeded := run(t, opts, build())
	require.Len(t, unseeded.Sheets, 1)
	require.Len(t, unseeded.Sheets[0].Rows, len(first.Sheets[0].Rows))
	colors := map[string]string{}
	for i, r := range unseeded.Sheets[0].Rows {
		want := first.Sheets[0].Rows[i]
		want.Color = r.Color
		assert.Equal(t, want, r)
		if r.Kind == model.RowOffDuty {
			assert.Empty(t, r.Color)
			continue
		}
		assert.Contains(t, opts.Palette, r.Color)
		if c, ok := colors[r.Event]; ok {
			assert.Equal(t, c, r.Color, "event %s changed colour", r.Event)
		}
		colors[r.Event] = r.Color
	}
}

func TestRunProgressDoesNotChangeOutput(t *testing.T) {
	build := func() Inputs {
		return Inputs{
			Events: sheet.NewMemoryBook(events("AKUN", []string{"Yoga", "St. Regis", "", "", "March", "", "5", ""})),
			Staff:  staff(sheet.NewGrid("AKUN", [][]string{{"Priority", "Alice"}, {"1", "Yoga"}})),
			Roster: sheet.NewMemoryBook(sheet.NewGrid("March", [][]string{{"Team Members Name", "15"}, {"Alice", "ST"}})),
			Hours:  fixedHours("09:00-10:00"),
		}
	}
	var seen []Progress
	observed, err := New(testOptions(), func(p Progress) { seen = append(seen, p) }).Run(build())
	require.NoError(t, err)
	silent := run(t, testOptions(), build())

	assert.Equal(t, silent.Sheets, observed.Sheets)
	require.NotEmpty(t, seen)
	last := seen[len(seen)-1]
	assert.Equal(t, last.Total, last.Current)
	assert.Equal(t, "Finished generating output", last.Message)
	assert.Equal(t, 100, last.Percent())
	for i, p := range seen {
		assert.LessOrEqual(t, p.Current, p.Total)
		if i > 0 {
			assert.GreaterOrEqual(t, p.Current, seen[i-1].Current)
		}
	}
}

func TestRunRequiresAllWorkbooks(t *testing.T) {
	_, err := New(testOptions(), nil).Run(Inputs{Events: sheet.NewMemoryBook()})
	assert.Error(t, err)
}

func TestProgressPercentClamps(t *testing.T) {
	assert.Equal(t, 0, Progress{Current: 3}.Percent())
	assert.Equal(t, 50, Progress{Current: 1, Total: 2}.Percent())
	assert.Equal(t, 100, Progress{Current: 5, Total: 2}.Percent())
}

func TestColorPickerIsStablePerEvent(t *testing.T) {
	p := newColorPicker([]string{"#ffccffff", "FFE5CCFF"}, 7)
	first := p.pick("Yoga")
	for range 20 {
		assert.Equal(t, first, p.pick("Yoga"))
	}
	assert.Contains(t, []string{"FFCCFFFF", "FFE5CCFF"}, first)
	assert.Empty(t, newColorPicker(nil, 1).pick("Yoga"))
}

func saveBook(t *testing.T, f *excelize.File, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

// writeInputs saves an events, staff and roster workbook holding one Yoga
// session on day 15 and one rostered instructor; month fills the Month cell.
func writeInputs(t *testing.T, month any) Paths {
	t.Helper()
	ev := excelize.NewFile()
	require.NoError(t, ev.SetSheetName("Sheet1", "AKUN"))
	require.NoError(t, ev.SetSheetRow("AKUN", "A1", &[]any{"Activity", "Resort Name", "Activity Duration", "Bookable Hours", "Month", 14, 15}))
	require.NoError(t, ev.SetSheetRow("AKUN", "A2", &[]any{"Yoga", "St. Regis", 60, "", month, "", 5}))
	dv := excelize.NewDataValidation(true)
	dv.Sqref = "D2"
	require.NoError(t, dv.SetDropList([]string{"09:00-10:00"}))
	require.NoError(t, ev.AddDataValidation("AKUN", dv))
	eventsPath := saveBook(t, ev, "events.xlsx")

	st := excelize.NewFile()
	require.NoError(t, st.SetSheetName("Sheet1", "AKUN"))
	require.NoError(t, st.SetSheetRow("AKUN", "A1", &[]any{"Priority", "Alice"}))
	require.NoError(t, st.SetSheetRow("AKUN", "A2", &[]any{1, "Yoga"}))
	staffPath := saveBook(t, st, "staff.xlsx")

	ro := excelize.NewFile()
	require.NoError(t, ro.SetSheetName("Sheet1", "March"))
	require.NoError(t, ro.SetSheetRow("March", "A1", &[]any{"Team Members Name", 15}))
	require.NoError(t, ro.SetSheetRow("March", "A2", &[]any{"Alice", "ST"}))
	rosterPath := saveBook(t, ro, "roster.xlsx")

	return Paths{Events: eventsPath, Staff: staffPath, Roster: rosterPath}
}

func TestGenerateFiles(t *testing.T) {
	paths := writeInputs(t, "March")
	res, err := GenerateFiles(context.Background(), testOptions(), paths, nil)
	require.NoError(t, err)
	require.Len(t, res.Sheets, 1)
	require.Len(t, res.Sheets[0].Rows, 2)
	assert.Equal(t, "09:00:00", res.Sheets[0].Rows[0].StartTime)
	assert.Equal(t, "Alice", res.Sheets[0].Rows[1].Resource)
	assert.Equal(t, 2, res.Rows())

	paths.Roster = filepath.Join(t.TempDir(), "missing.xlsx")
	_, err = GenerateFiles(context.Background(), testOptions(), paths, nil)
	assert.Error(t, err)
}

func TestGenerateFilesReadsDateFormattedMonth(t *testing.T) {
	paths := writeInputs(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	res, err := GenerateFiles(context.Background(), testOptions(), paths, nil)
	require.NoError(t, err)
	require.Len(t, res.Sheets, 1)
	rows := res.Sheets[0].Rows
	require.Len(t, rows, 2)
	assert.Equal(t, "2025-03-15", rows[0].Date)
	assert.Equal(t, "AKUN-St. Regis-Mar", rows[0].Reference)
	assert.Equal(t, "Alice", rows[1].Resource)
}
