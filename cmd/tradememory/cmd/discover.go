package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"tradememory/journal"
	"tradememory/patterns"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover performance patterns in closed-trade history",
	Long: `Run pattern detection over the closed trades in the journal and persist
every discovered pattern. Detection is idempotent: re-running refreshes the
stored snapshot without duplicating rows.

Examples:
  tradememory discover
  tradememory discover list --type strategy_ranking`,
	Args: cobra.NoArgs,
	RunE: runDiscover,
}

var discoverListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored patterns",
	Args:  cobra.NoArgs,
	RunE:  runDiscoverList,
}

var (
	patternType     string
	patternStrategy string
	patternSymbol   string
	patternLimit    int
)

func init() {
	rootCmd.AddCommand(discoverCmd)
	discoverCmd.AddCommand(discoverListCmd)

	f := discoverListCmd.Flags()
	f.StringVar(&patternType, "type", "", "filter by pattern type")
	f.StringVar(&patternStrategy, "strategy", "", "filter by strategy")
	f.StringVar(&patternSymbol, "symbol", "", "filter by symbol")
	f.IntVar(&patternLimit, "limit", 50, "maximum patterns to list")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	j, err := journal.NewSQLite(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	store, err := patterns.NewSQLite(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open pattern store: %w", err)
	}
	defer store.Close()

	det := patterns.NewDetector(cfg.Analysis.BaselineEquity, cfg.Analysis.DiagnosticStrategy, newLogger())
	found, err := det.Discover(j, store)
	if err != nil {
		return fmt.Errorf("discover: %w", err)
	}

	fmt.Printf("discovered %d patterns\n", len(found))
	for _, p := range found {
		fmt.Printf("  %-14s %-22s conf %.2f n=%-4d %s\n",
			p.ID, p.Type, p.Confidence, p.SampleSize, p.Description)
	}
	return nil
}

func runDiscoverList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := patterns.NewSQLite(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open pattern store: %w", err)
	}
	defer store.Close()

	found, err := store.Query(patterns.Filter{
		Type:     patterns.Type(patternType),
		Strategy: patternStrategy,
		Symbol:   patternSymbol,
		Limit:    patternLimit,
	})
	if err != nil {
		return fmt.Errorf("query patterns: %w", err)
	}

	for _, p := range found {
		fmt.Printf("%-14s %-22s conf %.2f n=%-4d %s\n",
			p.ID, p.Type, p.Confidence, p.SampleSize, p.Description)
	}
	return nil
}
