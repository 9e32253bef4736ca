package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tradememory/adjust"
	"tradememory/patterns"
)

var adjustCmd = &cobra.Command{
	Use:   "adjust",
	Short: "Generate and review parameter adjustments",
	Long: `Generate parameter adjustments from high-confidence auto-discovered
patterns and walk them through review.

Adjustments start as proposals. A reviewer approves or rejects each one;
approved adjustments are marked applied once the change lands in the agent
configuration. Status never moves backwards.

Examples:
  tradememory adjust generate
  tradememory adjust list --status proposed
  tradememory adjust approve ADJ-DISABLE-001
  tradememory adjust apply ADJ-DISABLE-001`,
}

var adjustGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate adjustment proposals from stored patterns",
	Args:  cobra.NoArgs,
	RunE:  runAdjustGenerate,
}

var adjustListCmd = &cobra.Command{
	Use:   "list",
	Short: "List adjustments",
	Args:  cobra.NoArgs,
	RunE:  runAdjustList,
}

var adjustApproveCmd = &cobra.Command{
	Use:   "approve <adjustment-id>",
	Short: "Approve a proposed adjustment",
	Args:  cobra.ExactArgs(1),
	RunE:  statusRunner(adjust.StatusApproved),
}

var adjustRejectCmd = &cobra.Command{
	Use:   "reject <adjustment-id>",
	Short: "Reject a proposed adjustment",
	Args:  cobra.ExactArgs(1),
	RunE:  statusRunner(adjust.StatusRejected),
}

var adjustApplyCmd = &cobra.Command{
	Use:   "apply <adjustment-id>",
	Short: "Mark an approved adjustment as applied",
	Args:  cobra.ExactArgs(1),
	RunE:  statusRunner(adjust.StatusApplied),
}

var (
	adjustStatus string
	adjustType   string
	adjustLimit  int
)

func init() {
	rootCmd.AddCommand(adjustCmd)
	adjustCmd.AddCommand(adjustGenerateCmd)
	adjustCmd.AddCommand(adjustListCmd)
	adjustCmd.AddCommand(adjustApproveCmd)
	adjustCmd.AddCommand(adjustRejectCmd)
	adjustCmd.AddCommand(adjustApplyCmd)

	f := adjustListCmd.Flags()
	f.StringVar(&adjustStatus, "status", "", "filter by status (proposed, approved, rejected, applied)")
	f.StringVar(&adjustType, "type", "", "filter by adjustment type")
	f.IntVar(&adjustLimit, "limit", 50, "maximum adjustments to list")
}

func openAdjustStore() (*adjust.SQLite, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := adjust.NewSQLite(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open adjustment store: %w", err)
	}
	return store, nil
}

func runAdjustGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	pats, err := patterns.NewSQLite(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open pattern store: %w", err)
	}
	defer pats.Close()

	store, err := adjust.NewSQLite(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open adjustment store: %w", err)
	}
	defer store.Close()

	gen := adjust.NewGenerator(newLogger())
	proposed, err := gen.Propose(pats, store)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	fmt.Printf("generated %d adjustments\n", len(proposed))
	for _, a := range proposed {
		printAdjustment(a)
	}
	return nil
}

func runAdjustList(cmd *cobra.Command, args []string) error {
	store, err := openAdjustStore()
	if err != nil {
		return err
	}
	defer store.Close()

	found, err := store.Query(adjust.Filter{
		Status: adjust.Status(adjustStatus),
		Type:   adjust.Type(adjustType),
		Limit:  adjustLimit,
	})
	if err != nil {
		return fmt.Errorf("query adjustments: %w", err)
	}

	for _, a := range found {
		printAdjustment(a)
	}
	return nil
}

func statusRunner(to adjust.Status) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		store, err := openAdjustStore()
		if err != nil {
			return err
		}
		defer store.Close()

		id := args[0]
		if err := store.UpdateStatus(id, to, time.Now().UTC()); err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		fmt.Printf("%s -> %s\n", id, to)
		return nil
	}
}

func printAdjustment(a adjust.Adjustment) {
	oldJSON, _ := json.Marshal(a.Old)
	newJSON, _ := json.Marshal(a.New)
	fmt.Printf("%-18s %-18s [%s] %s: %s -> %s\n", a.ID, a.Type, a.Status, a.Param, oldJSON, newJSON)
	fmt.Printf("                   %s (pattern %s, conf %.2f)\n", a.Reason, a.PatternID, a.Confidence)
}
