package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/shaharg/timewatch/internal/calendar"
	"github.com/shaharg/timewatch/internal/classify"
	"github.com/shaharg/timewatch/internal/config"
	"github.com/shaharg/timewatch/internal/evidence"
	"github.com/shaharg/timewatch/internal/portal"
	"github.com/shaharg/timewatch/internal/report"
	"github.com/shaharg/timewatch/internal/spoof"
	"github.com/shaharg/timewatch/internal/store"
	"github.com/shaharg/timewatch/internal/timesheet"
)

var rootCmd = &cobra.Command{
	Use:   "timewatch",
	Short: "Fill a TimeWatch timesheet from calendar rules and location history",
	Long: "timewatch classifies each day in a date range (weekend, vacation, sick, holiday,\n" +
		"office, home) and submits the matching values to the portal, preserving or\n" +
		"overwriting whatever is already recorded.",
}

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Classify and submit every day in the date range",
	RunE:  runFill,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent fill outcomes",
	RunE:  runStatus,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Open config file in your editor",
	RunE:  runConfig,
}

func init() {
	fillCmd.Flags().String("start-date", "", "first date of the range (inclusive), DD-MM-YYYY")
	fillCmd.Flags().String("end-date", "", "last date of the range (inclusive), DD-MM-YYYY")
	fillCmd.Flags().Bool("overwrite", false, "overwrite already recorded values instead of preserving them")
	fillCmd.Flags().StringSlice("vacation", nil, "vacation dates (DD-MM-YYYY), ranges as start..end")
	fillCmd.Flags().StringSlice("sick", nil, "sick dates (DD-MM-YYYY), ranges as start..end")
	fillCmd.Flags().String("proxy", "", "HTTP/HTTPS proxy URL (same for both)")
	fillCmd.Flags().Bool("verbose", false, "debug logging")

	statusCmd.Flags().IntP("limit", "n", 20, "number of ledger rows to show")

	rootCmd.AddCommand(fillCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runFill(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := newLogger(verbose)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	now := time.Now()
	start, end, err := parseRange(cmd, now)
	if err != nil {
		return err
	}

	vacation, err := parseDateFlag(cmd, "vacation", now)
	if err != nil {
		return err
	}
	sick, err := parseDateFlag(cmd, "sick", now)
	if err != nil {
		return err
	}

	overwrite, _ := cmd.Flags().GetBool("overwrite")
	proxy, _ := cmd.Flags().GetString("proxy")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if src := cfg.Calendar.VacationSource; src != "" {
		imported, err := calendar.LoadDateSet(ctx, src, start, end)
		if err != nil {
			return fmt.Errorf("importing vacation calendar: %w", err)
		}
		vacation.Union(imported)
	}
	if src := cfg.Calendar.SickSource; src != "" {
		imported, err := calendar.LoadDateSet(ctx, src, start, end)
		if err != nil {
			return fmt.Errorf("importing sick calendar: %w", err)
		}
		sick.Union(imported)
	}

	client, err := portal.NewClient(cfg.Portal.BaseURL, portal.Credentials{
		Company:  cfg.Portal.Company,
		Username: cfg.Portal.Username,
		Password: cfg.Portal.Password,
	}, proxy, logger)
	if err != nil {
		return err
	}

	if err := client.Login(ctx); err != nil {
		return fmt.Errorf("logging in: %w", err)
	}

	provider, err := evidence.NewFileProvider(cfg.Evidence.Dir, logger)
	if err != nil {
		return err
	}

	classifier := classify.New(classify.Config{
		WeekendDays:      weekendDays(cfg.Work.WeekendDays),
		WorkLat:          cfg.Work.Lat,
		WorkLong:         cfg.Work.Long,
		Tolerance:        cfg.Work.Tolerance,
		HolidayDayPhrase: cfg.Holiday.DayPhrase,
		HolidayEvePhrase: cfg.Holiday.EvePhrase,
		VacationExcuse:   portal.ExcuseCode(cfg.Excuses.Vacation),
	}, provider, logger)

	spoofer, err := newSpoofer(cfg)
	if err != nil {
		return err
	}

	db, err := store.Open()
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer db.Close()

	runner := report.NewRunner(client, classifier, spoofer, db, report.Options{
		Overwrite: overwrite,
		Excuses: report.ExcuseMap{
			Sick:       portal.ExcuseCode(cfg.Excuses.Sick),
			Vacation:   portal.ExcuseCode(cfg.Excuses.Vacation),
			HolidayDay: portal.ExcuseCode(cfg.Excuses.Holiday),
			HolidayEve: portal.ExcuseCode(cfg.Excuses.HolidayEve),
			Home:       portal.ExcuseCode(cfg.Excuses.Home),
			Office:     portal.ExcuseCode(cfg.Excuses.Office),
		},
		Prohibiting: prohibitingCodes(cfg.Excuses.TimeProhibiting),
		Notify:      cfg.Notifications.Enabled,
	}, logger)

	summary, err := runner.Run(ctx, start, end, vacation, sick)
	if err != nil {
		return err
	}

	fmt.Println(summary.String())
	return nil
}

func parseRange(cmd *cobra.Command, now time.Time) (start, end time.Time, err error) {
	startArg, _ := cmd.Flags().GetString("start-date")
	endArg, _ := cmd.Flags().GetString("end-date")
	if startArg == "" || endArg == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("--start-date and --end-date are required")
	}

	start, err = timesheet.ParseDateArg(startArg, now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err = timesheet.ParseDateArg(endArg, now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("start date %s is after end date %s",
			start.Format("02-01-2006"), end.Format("02-01-2006"))
	}
	return start, end, nil
}

func parseDateFlag(cmd *cobra.Command, name string, now time.Time) (*timesheet.DateSet, error) {
	values, _ := cmd.Flags().GetStringSlice(name)
	set, err := timesheet.ParseDateList(values, now)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return set, nil
}

func weekendDays(days []int) []time.Weekday {
	out := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		out = append(out, time.Weekday(d))
	}
	return out
}

func prohibitingCodes(codes []int) []portal.ExcuseCode {
	out := make([]portal.ExcuseCode, 0, len(codes))
	for _, c := range codes {
		out = append(out, portal.ExcuseCode(c))
	}
	return out
}

func newSpoofer(cfg *config.Config) (spoof.Strategy, error) {
	minStart, err := timesheet.ParseTimeOfDay(cfg.WorkDay.MinimalStartTime)
	if err != nil {
		return nil, err
	}
	maxEnd, err := timesheet.ParseTimeOfDay(cfg.WorkDay.MaximalEndTime)
	if err != nil {
		return nil, err
	}
	return spoof.New(spoof.Config{
		MinimalStart:  minStart,
		MaximalEnd:    maxEnd,
		NominalLength: cfg.WorkDay.NominalLength,
		MaxLength:     cfg.WorkDay.MaxLength,
		Randomize:     cfg.WorkDay.Randomize,
		JitterBegin:   cfg.WorkDay.JitterBegin,
	}, rand.New(rand.NewSource(time.Now().UnixNano()))), nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	db, err := store.Open()
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer db.Close()

	fills, err := db.RecentFills(limit)
	if err != nil {
		return fmt.Errorf("fetching fills: %w", err)
	}

	if len(fills) == 0 {
		fmt.Println("No fills recorded yet.")
		return nil
	}

	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	for _, f := range fills {
		status := f.Status
		switch f.Status {
		case store.StatusSubmitted:
			status = green(status)
		case store.StatusUnchanged, store.StatusSkipped:
			status = yellow(status)
		case store.StatusFailed:
			status = red(status)
		}

		times := ""
		if f.Begin != "" || f.End != "" {
			times = fmt.Sprintf("%s-%s", f.Begin, f.End)
		}
		line := fmt.Sprintf("  %s  %-12s %-12s %s", f.Date.Format("2006-01-02"), f.Category, times, status)
		if f.Detail != "" {
			line += "  (" + f.Detail + ")"
		}
		fmt.Println(line)
	}

	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := config.DefaultConfig()
		data := fmt.Sprintf(`[portal]
base_url = "%s"
company = ""
username = ""
password = ""

[work]
lat = 0.0
long = 0.0
tolerance = %g
weekend_days = [5, 6]

[work_day]
minimal_start_time = "%s"
maximal_end_time = "%s"
nominal_length = %d
max_length = %d
randomize = %t
jitter_begin = false

[excuses]
sick = %d
vacation = %d
holiday = %d
holiday_eve = %d
home = %d
office = %d
time_prohibiting = [%d, %d]

[holiday]
day_phrase = "%s"
eve_phrase = "%s"

[evidence]
dir = ""

[calendar]
vacation_source = ""
sick_source = ""

[notifications]
enabled = false
`,
			cfg.Portal.BaseURL,
			cfg.Work.Tolerance,
			cfg.WorkDay.MinimalStartTime,
			cfg.WorkDay.MaximalEndTime,
			cfg.WorkDay.NominalLength,
			cfg.WorkDay.MaxLength,
			cfg.WorkDay.Randomize,
			cfg.Excuses.Sick,
			cfg.Excuses.Vacation,
			cfg.Excuses.Holiday,
			cfg.Excuses.HolidayEve,
			cfg.Excuses.Home,
			cfg.Excuses.Office,
			cfg.Excuses.Vacation,
			cfg.Excuses.HolidayEve,
			cfg.Holiday.DayPhrase,
			cfg.Holiday.EvePhrase,
		)
		if err := os.WriteFile(configPath, []byte(data), 0600); err != nil {
			return fmt.Errorf("writing default config: %w", err)
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	fmt.Printf("Opening %s with %s...\n", configPath, editor)

	proc := os.ProcAttr{
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
	}
	process, err := os.StartProcess(editor, []string{editor, configPath}, &proc)
	if err != nil {
		fmt.Printf("Could not open editor. Config file is at: %s\n", configPath)
		return nil
	}
	_, err = process.Wait()
	return err
}
