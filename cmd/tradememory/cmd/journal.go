package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tradememory/journal"
	"tradememory/pkg/id"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Record and query trade journal data",
	Long: `Record trade decisions and outcomes and query the SQLite journal.

Subcommands:
  record - Record a new trade decision
  close  - Record the outcome of an open trade
  trade  - Get details of a specific trade by ID
  active - List open trades
  today  - List trades closed today
  day    - List trades closed on a specific day

Examples:
  tradememory journal record --symbol EURUSD --direction long --lot 0.05 --strategy Breakout
  tradememory journal close <trade-id> --pnl 120.50 --exit-price 1.0875
  tradememory journal day 2026-01-15`,
}

var journalRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a new trade decision",
	Args:  cobra.NoArgs,
	RunE:  runJournalRecord,
}

var journalCloseCmd = &cobra.Command{
	Use:   "close <trade-id>",
	Short: "Record the outcome of an open trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalClose,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <trade-id>",
	Short: "Get details of a specific trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var journalActiveCmd = &cobra.Command{
	Use:   "active",
	Short: "List open trades",
	Args:  cobra.NoArgs,
	RunE:  runJournalActive,
}

var journalTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "List trades closed today",
	Args:  cobra.NoArgs,
	RunE:  runJournalToday,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List trades closed on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var (
	recSymbol     string
	recDirection  string
	recLot        float64
	recStrategy   string
	recConfidence float64
	recReasoning  string
	recPrice      float64
	recTags       []string

	closeExitPrice float64
	closePnL       float64
	closePnLR      float64
	closeHold      int
	closeReasoning string
	closeLessons   string
	closeGrade     string
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRecordCmd)
	journalCmd.AddCommand(journalCloseCmd)
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalActiveCmd)
	journalCmd.AddCommand(journalTodayCmd)
	journalCmd.AddCommand(journalDayCmd)

	f := journalRecordCmd.Flags()
	f.StringVar(&recSymbol, "symbol", "", "instrument symbol (required)")
	f.StringVar(&recDirection, "direction", "", "long or short (required)")
	f.Float64Var(&recLot, "lot", 0.01, "lot size")
	f.StringVar(&recStrategy, "strategy", "", "strategy tag (required)")
	f.Float64Var(&recConfidence, "confidence", 0.5, "decision confidence 0.0-1.0")
	f.StringVar(&recReasoning, "reasoning", "", "entry thesis")
	f.Float64Var(&recPrice, "price", 0, "entry price")
	f.StringArrayVar(&recTags, "tag", nil, "tag (repeatable)")
	journalRecordCmd.MarkFlagRequired("symbol")
	journalRecordCmd.MarkFlagRequired("direction")
	journalRecordCmd.MarkFlagRequired("strategy")

	g := journalCloseCmd.Flags()
	g.Float64Var(&closeExitPrice, "exit-price", 0, "exit price")
	g.Float64Var(&closePnL, "pnl", 0, "realized P&L in account currency")
	g.Float64Var(&closePnLR, "pnl-r", 0, "realized P&L in R-multiples")
	g.IntVar(&closeHold, "hold", 0, "hold duration in minutes (0 = derive from entry time)")
	g.StringVar(&closeReasoning, "reasoning", "", "exit reasoning")
	g.StringVar(&closeLessons, "lessons", "", "lessons learned")
	g.StringVar(&closeGrade, "grade", "", "decision grade A-F")
}

func openJournal() (*journal.SQLite, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	j, err := journal.NewSQLite(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func runJournalRecord(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	rec := journal.TradeRecord{
		ID:         id.NewTrade(),
		Timestamp:  time.Now().UTC(),
		Symbol:     recSymbol,
		Direction:  journal.Direction(recDirection),
		LotSize:    recLot,
		Strategy:   recStrategy,
		Confidence: recConfidence,
		Reasoning:  recReasoning,
		Market:     journal.MarketContext{Price: recPrice},
		Tags:       recTags,
	}
	if err := j.RecordDecision(rec); err != nil {
		return fmt.Errorf("record decision: %w", err)
	}

	fmt.Println(rec.ID)
	return nil
}

func runJournalClose(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	tradeID := args[0]
	now := time.Now().UTC()

	hold := closeHold
	if hold == 0 {
		rec, err := j.GetTrade(tradeID)
		if err != nil {
			return fmt.Errorf("get trade: %w", err)
		}
		hold = int(now.Sub(rec.Timestamp).Minutes())
	}

	outcome := journal.Outcome{
		ExitTime:      now,
		ExitPrice:     closeExitPrice,
		PnL:           closePnL,
		PnLR:          closePnLR,
		HoldDuration:  hold,
		ExitReasoning: closeReasoning,
		Lessons:       closeLessons,
		Grade:         journal.Grade(closeGrade),
	}
	if err := j.RecordOutcome(tradeID, outcome); err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}

	fmt.Printf("closed %s (pnl %.2f)\n", tradeID, closePnL)
	return nil
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	rec, err := j.GetTrade(args[0])
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}

	fmt.Println(journal.FormatTradeOrg(rec))
	return nil
}

func runJournalActive(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	recs, err := j.ActiveTrades()
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	fmt.Println(journal.FormatTradesOrg(recs))
	return nil
}

func runJournalToday(cmd *cobra.Command, args []string) error {
	return listClosedOnDay(time.Now().UTC().Format("2006-01-02"))
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	return listClosedOnDay(args[0])
}

func listClosedOnDay(day string) error {
	start, end, err := dayBounds(day)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	// ClosedSince keys on entry time; widen the window a week back so trades
	// opened earlier but closed on the target day are still included.
	recs, err := j.ClosedSince(start.Add(-7 * 24 * time.Hour))
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	var matched []journal.TradeRecord
	for _, r := range recs {
		if !r.ExitTime.Before(start) && r.ExitTime.Before(end) {
			matched = append(matched, r)
		}
	}

	fmt.Println(journal.FormatTradesOrg(matched))
	return nil
}

func dayBounds(day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour), nil
}
