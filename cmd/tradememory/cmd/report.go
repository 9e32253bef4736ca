package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tradememory/journal"
	"tradememory/reflection"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Produce reflection reports from trade history",
	Long: `Render rule-based daily, weekly and monthly performance summaries from
the trade journal.

Subcommands:
  daily   - Summary for one UTC day (default today)
  weekly  - Summary for the 7 days ending on a date (default last Sunday)
  monthly - Summary for a calendar month (default current)

Examples:
  tradememory report daily 2026-01-15
  tradememory report weekly 2026-01-18
  tradememory report monthly 2026-01`,
}

var reportDailyCmd = &cobra.Command{
	Use:   "daily [YYYY-MM-DD]",
	Short: "Summary for one UTC day",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReportDaily,
}

var reportWeeklyCmd = &cobra.Command{
	Use:   "weekly [YYYY-MM-DD]",
	Short: "Summary for the week ending on a date",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReportWeekly,
}

var reportMonthlyCmd = &cobra.Command{
	Use:   "monthly [YYYY-MM]",
	Short: "Summary for a calendar month",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReportMonthly,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportDailyCmd)
	reportCmd.AddCommand(reportWeeklyCmd)
	reportCmd.AddCommand(reportMonthlyCmd)
}

func newReflectionEngine() (*reflection.Engine, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	j, err := journal.NewSQLite(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}

	eng := reflection.NewEngine(j, nil, cfg.Reflection.Model, newLogger())
	return eng, func() { j.Close() }, nil
}

func runReportDaily(cmd *cobra.Command, args []string) error {
	var target time.Time
	if len(args) == 1 {
		t, err := time.ParseInLocation("2006-01-02", args[0], time.UTC)
		if err != nil {
			return fmt.Errorf("date: %w", err)
		}
		target = t
	}

	eng, cleanup, err := newReflectionEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	out, err := eng.Daily(target)
	if err != nil {
		return err
	}

	fmt.Println(out)
	return nil
}

func runReportWeekly(cmd *cobra.Command, args []string) error {
	var weekEnding time.Time
	if len(args) == 1 {
		t, err := time.ParseInLocation("2006-01-02", args[0], time.UTC)
		if err != nil {
			return fmt.Errorf("date: %w", err)
		}
		weekEnding = t
	}

	eng, cleanup, err := newReflectionEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	out, err := eng.Weekly(weekEnding)
	if err != nil {
		return err
	}

	fmt.Println(out)
	return nil
}

func runReportMonthly(cmd *cobra.Command, args []string) error {
	now := time.Now().UTC()
	year, month := now.Year(), now.Month()
	if len(args) == 1 {
		t, err := time.ParseInLocation("2006-01", args[0], time.UTC)
		if err != nil {
			return fmt.Errorf("month: %w", err)
		}
		year, month = t.Year(), t.Month()
	}

	eng, cleanup, err := newReflectionEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	out, err := eng.Monthly(year, month)
	if err != nil {
		return err
	}

	fmt.Println(out)
	return nil
}
