package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"event-template-cli/internal/generator"
	"event-template-cli/internal/logger"
)

func saveBook(t *testing.T, dir string, f *excelize.File, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

// fixtures writes a one-event, one-instructor set of input workbooks and a
// config pinned to 2025 with its database inside dir.
func fixtures(t *testing.T, dir string) (events, staff, roster, cfgPath string) {
	t.Helper()
	ev := excelize.NewFile()
	require.NoError(t, ev.SetSheetName("Sheet1", "AKUN"))
	require.NoError(t, ev.SetSheetRow("AKUN", "A1", &[]any{"Activity", "Resort Name", "Bookable Hours", "Month", 15}))
	require.NoError(t, ev.SetSheetRow("AKUN", "A2", &[]any{"Yoga", "St. Regis", "", "March", 5}))
	dv := excelize.NewDataValidation(true)
	dv.Sqref = "C2"
	require.NoError(t, dv.SetDropList([]string{"09:00-10:00"}))
	require.NoError(t, ev.AddDataValidation("AKUN", dv))
	events = saveBook(t, dir, ev, "events.xlsx")

	st := excelize.NewFile()
	require.NoError(t, st.SetSheetName("Sheet1", "AKUN"))
	require.NoError(t, st.SetSheetRow("AKUN", "A1", &[]any{"Priority", "Alice"}))
	require.NoError(t, st.SetSheetRow("AKUN", "A2", &[]any{1, "Yoga"}))
	staff = saveBook(t, dir, st, "staff.xlsx")

	ro := excelize.NewFile()
	require.NoError(t, ro.SetSheetName("Sheet1", "March"))
	require.NoError(t, ro.SetSheetRow("March", "A1", &[]any{"Team Members Name", 15}))
	require.NoError(t, ro.SetSheetRow("March", "A2", &[]any{"Alice", "ST"}))
	roster = saveBook(t, dir, ro, "roster.xlsx")

	cfgPath = filepath.Join(dir, "config.yaml")
	body := "app:\n  timezone: UTC\n  log_level: warn\ngenerate:\n  year: 2025\n  seed: 7\ndatabase:\n  path: " +
		filepath.Join(dir, "db", "timeslots.db") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o644))
	return events, staff, roster, cfgPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGeneratePreviewAndPush(t *testing.T) {
	dir := t.TempDir()
	events, staff, roster, cfgPath := fixtures(t, dir)
	outFile := filepath.Join(dir, "out", "timeslots.xlsx")

	out, err := execute(t, "generate", "-c", cfgPath, "--progress=false",
		"-s", events, "--staff", staff, "--roster", roster, "-o", outFile, "--push")
	require.NoError(t, err)
	assert.Contains(t, out, "(1 events, 1 instructor, 0 off duty)")
	assert.Contains(t, out, "SAVED: "+outFile)
	assert.Contains(t, out, "PUSHED: 2 of 2 rows")
	assert.FileExists(t, outFile)

	out, err = execute(t, "preview", "-c", cfgPath, "-f", outFile, "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "sheet: AKUN")
	assert.Contains(t, out, "2025-03-15")
	assert.Contains(t, out, "resource: Alice")

	// The same rows are already stored, so a second push rejects both.
	out, err = execute(t, "push", "-c", cfgPath, "--from", outFile)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "REJECTED: AKUN row"))
	assert.Contains(t, out, "PUSHED: 0 of 2 rows")
}

func TestMonthsCommand(t *testing.T) {
	dir := t.TempDir()
	events, _, _, cfgPath := fixtures(t, dir)

	out, err := execute(t, "months", "-c", cfgPath, "-s", events)
	require.NoError(t, err)
	assert.Equal(t, "AKUN: March\n", out)
}

func TestPreviewRejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	events, staff, roster, cfgPath := fixtures(t, dir)
	outFile := filepath.Join(dir, "timeslots.xlsx")
	_, err := execute(t, "generate", "-c", cfgPath, "--progress=false",
		"-s", events, "--staff", staff, "--roster", roster, "-o", outFile)
	require.NoError(t, err)

	_, err = execute(t, "preview", "-c", cfgPath, "-f", outFile, "--format", "csv")
	assert.ErrorContains(t, err, `unknown format "csv"`)
}

func TestGenerateRequiresInputs(t *testing.T) {
	_, err := execute(t, "generate", "-c", filepath.Join(t.TempDir(), "absent.yaml"), "-s", "events.xlsx")
	assert.Error(t, err)
}

func TestSetupLogOutputTeesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "eventgen.log")
	var console bytes.Buffer
	require.NoError(t, setupLogOutput(&console, path))
	t.Cleanup(func() { _ = closeLogOutput() })

	logger.Errorf("disk %s", "full")
	require.NoError(t, closeLogOutput())
	assert.Nil(t, logFile)
	assert.NoError(t, closeLogOutput())

	logger.SetOutput(&console)
	logger.Errorf("after close")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "disk full")
	assert.NotContains(t, string(data), "after close")
	assert.Contains(t, console.String(), "disk full")
	logger.SetOutput(os.Stderr)
}

func TestCommandClosesLogFile(t *testing.T) {
	dir := t.TempDir()
	events, _, _, cfgPath := fixtures(t, dir)
	logPath := filepath.Join(dir, "logs", "eventgen.log")
	body, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	withLog := strings.Replace(string(body), "app:\n", "app:\n  log_path: "+logPath+"\n", 1)
	require.NoError(t, os.WriteFile(cfgPath, []byte(withLog), 0o644))

	_, err = execute(t, "months", "-c", cfgPath, "-s", events)
	require.NoError(t, err)
	assert.Nil(t, logFile)
	assert.FileExists(t, logPath)
}

func TestProgressPrinterSkipsRepeatedPercent(t *testing.T) {
	var buf bytes.Buffer
	p := progressPrinter(&buf)
	p(generator.Progress{Current: 1, Total: 4, Message: "a"})
	p(generator.Progress{Current: 1, Total: 4, Message: "b"})
	p(generator.Progress{Current: 4, Total: 4, Message: "done"})
	assert.Equal(t, 2, strings.Count(buf.String(), "\r"))
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
	assert.Contains(t, buf.String(), "[100%] done")
}

func TestDefaultOutputPath(t *testing.T) {
	now := time.Date(2025, 3, 15, 9, 5, 7, 0, time.UTC)
	got := defaultOutputPath(now)
	assert.Equal(t, "EventTimeslots_2025-03-15_09.05.07.xlsx", filepath.Base(got))
	assert.Equal(t, "EventTimeslots", filepath.Base(filepath.Dir(got)))
}
