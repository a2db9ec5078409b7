package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"event-template-cli/internal/config"
	"event-template-cli/internal/generator"
	"event-template-cli/internal/logger"
	"event-template-cli/internal/model"
	"event-template-cli/internal/output"
	"event-template-cli/internal/sink"
)

// ==================== FLAGS ====================

var (
	configPath string
	verbose    bool

	sourcePath   string
	staffPath    string
	rosterPath   string
	outPath      string
	pushAfter    bool
	showProgress bool

	fromPath      string
	previewFormat string
	previewLimit  int
)

// cfg is loaded once per invocation by the root command's pre-run hook.
var cfg *config.Config

// logFile is the app.log_path file while a command runs.
var logFile *os.File

// ==================== COMMANDS ====================

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "eventgen",
		Short: "Generate event timeslot templates from activity, staff and roster workbooks",
		Long: `eventgen reads an events workbook, a staff qualification workbook and a
monthly roster workbook, and writes one timeslot row per scheduled event plus
one row per qualified, rostered instructor. The result can be reviewed in
Excel and pushed to the timeslot database.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  setup,
		PersistentPostRunE: teardown,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $"+config.EnvConfigPath+" or "+config.DefaultConfigPath+")")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(newGenerateCmd(), newPushCmd(), newPreviewCmd(), newMonthsCmd())
	return root
}

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Build the timeslot workbook",
		Args:  cobra.NoArgs,
		RunE:  runGenerate,
	}
	cmd.Flags().StringVarP(&sourcePath, "source", "s", "", "events workbook (.xlsx)")
	cmd.Flags().StringVar(&staffPath, "staff", "", "staff qualification workbook (.xlsx)")
	cmd.Flags().StringVar(&rosterPath, "roster", "", "monthly roster workbook (.xlsx)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output workbook (default Documents/EventTimeslots/EventTimeslots_<timestamp>.xlsx)")
	cmd.Flags().BoolVar(&pushAfter, "push", false, "push the generated rows to the database afterwards")
	cmd.Flags().BoolVar(&showProgress, "progress", true, "print progress to stderr")
	for _, name := range []string{"source", "staff", "roster"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newPushCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Push a reviewed timeslot workbook to the database",
		Args:  cobra.NoArgs,
		RunE:  runPush,
	}
	cmd.Flags().StringVarP(&fromPath, "from", "f", "", "timeslot workbook to push")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func newPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the rows of a timeslot workbook",
		Args:  cobra.NoArgs,
		RunE:  runPreview,
	}
	cmd.Flags().StringVarP(&fromPath, "file", "f", "", "timeslot workbook to show")
	cmd.Flags().StringVar(&previewFormat, "format", "table", "table or yaml")
	cmd.Flags().IntVarP(&previewLimit, "limit", "n", 20, "rows per sheet, 0 for all")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newMonthsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "months",
		Short: "List the months present in an events workbook",
		Args:  cobra.NoArgs,
		RunE:  runMonths,
	}
	cmd.Flags().StringVarP(&sourcePath, "source", "s", "", "events workbook (.xlsx)")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}

// ==================== SETUP ====================

func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(config.ResolvePath(configPath))
	if err != nil {
		return err
	}
	cfg = loaded
	logger.SetLevel(cfg.App.LogLevel)
	if verbose {
		logger.SetLevel("debug")
	}
	return setupLogOutput(cmd.ErrOrStderr(), cfg.App.LogPath)
}

// setupLogOutput sends log lines to w and, when path is set, appends them to that file too.
func setupLogOutput(w io.Writer, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		logger.SetOutput(w)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("log file: %w", err)
	}
	if err := closeLogOutput(); err != nil {
		logger.Warnf("closing previous log file: %v", err)
	}
	logFile = f
	mw := io.MultiWriter(w, f)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return nil
}

func teardown(*cobra.Command, []string) error {
	return closeLogOutput()
}

// closeLogOutput points logging back at stderr and closes the log file, if any.
func closeLogOutput() error {
	if logFile == nil {
		return nil
	}
	f := logFile
	logFile = nil
	log.SetOutput(os.Stderr)
	logger.SetOutput(os.Stderr)
	return f.Close()
}

// ==================== GENERATE ====================

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	loc := cfg.Location()
	opts := generator.OptionsFromConfig(cfg, time.Now().In(loc))

	var progress generator.ProgressFunc
	if showProgress {
		progress = progressPrinter(cmd.ErrOrStderr())
	}
	res, err := generator.GenerateFiles(ctx, opts, generator.Paths{
		Events: sourcePath,
		Staff:  staffPath,
		Roster: rosterPath,
	}, progress)
	if err != nil {
		return err
	}
	if len(res.Sheets) == 0 {
		return errors.New("no target sheet could be generated")
	}

	target := outPath
	if target == "" {
		target = defaultOutputPath(time.Now().In(loc))
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("output directory: %w", err)
	}
	if err := output.Write(target, res.Sheets); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}

	out := cmd.OutOrStdout()
	printSummary(out, res)
	fmt.Fprintln(out, "SAVED:", target)

	if !pushAfter {
		return nil
	}
	var records []model.TimeslotRecord
	for _, s := range res.Sheets {
		records = append(records, s.Records()...)
	}
	return pushRecords(ctx, out, records)
}

// progressPrinter rewrites one status line and only when the percentage moves.
func progressPrinter(w io.Writer) generator.ProgressFunc {
	last := -1
	return func(p generator.Progress) {
		pct := p.Percent()
		if pct == last {
			return
		}
		last = pct
		fmt.Fprintf(w, "\r[%3d%%] %-60.60s", pct, p.Message)
		if pct == 100 {
			fmt.Fprintln(w)
		}
	}
}

func printSummary(w io.Writer, res *generator.Result) {
	for _, s := range res.Sheets {
		fmt.Fprintf(w, "%-10s %5d rows  (%d events, %d instructor, %d off duty)\n", s.Name, len(s.Rows),
			s.Count(model.RowMain), s.Count(model.RowInstructor), s.Count(model.RowOffDuty))
	}
	for _, err := range res.Skipped {
		fmt.Fprintln(w, "SKIPPED:", err)
	}
	for activity := range res.Activities {
		logger.Debugf("activity %q offered at %s", activity, strings.Join(res.Activities.Resorts(activity), ", "))
	}
	fmt.Fprintf(w, "TOTAL: %d rows\n", res.Rows())
}

// ==================== PUSH ====================

func runPush(cmd *cobra.Command, _ []string) error {
	records, err := output.ReadRecords(fromPath)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("%s has no timeslot rows", fromPath)
	}
	return pushRecords(cmd.Context(), cmd.OutOrStdout(), records)
}

func pushRecords(ctx context.Context, w io.Writer, records []model.TimeslotRecord) error {
	store, err := sink.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Warnf("closing database: %v", cerr)
		}
	}()

	res, err := store.Push(ctx, records)
	if err != nil {
		return err
	}
	for _, e := range res.Errors {
		fmt.Fprintln(w, "REJECTED:", e.Error())
	}
	if !res.Committed {
		fmt.Fprintf(w, "CANCELLED: %d of %d rows rolled back, nothing pushed\n", res.Attempted, len(records))
		return nil
	}
	fmt.Fprintf(w, "PUSHED: %d of %d rows (batch %s)\n", res.Pushed, len(records), res.BatchID)
	return nil
}

// ==================== PREVIEW & MONTHS ====================

func runPreview(cmd *cobra.Command, _ []string) error {
	records, err := output.ReadRecords(fromPath)
	if err != nil {
		return err
	}
	previews := output.Preview(records, previewLimit)
	switch strings.ToLower(previewFormat) {
	case "table", "":
		return output.RenderTable(cmd.OutOrStdout(), previews)
	case "yaml", "yml":
		return output.RenderYAML(cmd.OutOrStdout(), previews)
	default:
		return fmt.Errorf("unknown format %q (want table or yaml)", previewFormat)
	}
}

func runMonths(cmd *cobra.Command, _ []string) error {
	months, err := output.Months(sourcePath)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(months) == 0 {
		fmt.Fprintln(out, "no month column found")
		return nil
	}
	for _, m := range months {
		fmt.Fprintf(out, "%s: %s\n", m.Sheet, strings.Join(m.Months, ", "))
	}
	return nil
}

// ==================== PATHS ====================

func getDocumentsDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, "Documents")
}

func defaultOutputPath(now time.Time) string {
	name := fmt.Sprintf("EventTimeslots_%s.xlsx", now.Format("2006-01-02_15.04.05"))
	return filepath.Join(getDocumentsDir(), "EventTimeslots", name)
}

// ==================== MAIN ====================

func main() {
	log.SetFlags(0)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err := newRootCmd().ExecuteContext(ctx)
	if cerr := closeLogOutput(); cerr != nil {
		fmt.Fprintln(os.Stderr, "WARNING: closing log file:", cerr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		stop()
		os.Exit(1)
	}
}
