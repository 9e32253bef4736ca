package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"tradememory/journal"
	"tradememory/risk"
	"tradememory/state"
)

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Recalculate and query adaptive risk constraints",
	Long: `Derive per-agent risk constraints from recent closed-trade history and
gate proposed trades against them.

Subcommands:
  recalc - Recompute constraints from the lookback window
  show   - Print the current constraints snapshot
  check  - Gate a proposed trade against the constraints

Examples:
  tradememory risk recalc --agent Breakout
  tradememory risk check --agent Breakout --lot 0.10 --session london`,
}

var riskRecalcCmd = &cobra.Command{
	Use:   "recalc",
	Short: "Recompute risk constraints from recent history",
	Args:  cobra.NoArgs,
	RunE:  runRiskRecalc,
}

var riskShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current constraints snapshot",
	Args:  cobra.NoArgs,
	RunE:  runRiskShow,
}

var riskCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Gate a proposed trade against the constraints",
	Args:  cobra.NoArgs,
	RunE:  runRiskCheck,
}

var (
	riskAgent   string
	riskLot     float64
	riskSession string
)

func init() {
	rootCmd.AddCommand(riskCmd)
	riskCmd.AddCommand(riskRecalcCmd)
	riskCmd.AddCommand(riskShowCmd)
	riskCmd.AddCommand(riskCheckCmd)

	riskCmd.PersistentFlags().StringVar(&riskAgent, "agent", "", "agent (strategy tag), empty for all strategies")

	riskCheckCmd.Flags().Float64Var(&riskLot, "lot", 0.01, "proposed lot size")
	riskCheckCmd.Flags().StringVar(&riskSession, "session", "", "session bucket (asian, london, newyork)")
}

func newRiskCalculator() (*risk.Calculator, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	j, err := journal.NewSQLite(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}

	st, err := state.NewStore(cfg.Database.Path)
	if err != nil {
		j.Close()
		return nil, nil, fmt.Errorf("open state store: %w", err)
	}

	cleanup := func() {
		st.Close()
		j.Close()
	}
	return risk.NewCalculator(cfg.Policy(), j, st, newLogger()), cleanup, nil
}

func runRiskRecalc(cmd *cobra.Command, args []string) error {
	calc, cleanup, err := newRiskCalculator()
	if err != nil {
		return err
	}
	defer cleanup()

	cons, err := calc.Recalculate(riskAgent)
	if err != nil {
		return fmt.Errorf("recalculate: %w", err)
	}

	printConstraints(cons)
	return nil
}

func runRiskShow(cmd *cobra.Command, args []string) error {
	calc, cleanup, err := newRiskCalculator()
	if err != nil {
		return err
	}
	defer cleanup()

	cons, err := calc.Constraints(riskAgent)
	if err != nil {
		return fmt.Errorf("constraints: %w", err)
	}

	printConstraints(cons)
	return nil
}

func runRiskCheck(cmd *cobra.Command, args []string) error {
	calc, cleanup, err := newRiskCalculator()
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := calc.CheckTrade(riskAgent, risk.Proposal{LotSize: riskLot, Session: riskSession})
	if err != nil {
		return fmt.Errorf("check trade: %w", err)
	}

	verdict := "REJECTED"
	if res.Approved {
		verdict = "APPROVED"
	}
	fmt.Printf("%s lot %.2f\n", verdict, res.AdjustedLot)
	for _, r := range res.Reasons {
		fmt.Printf("  - %s\n", r)
	}
	return nil
}

func printConstraints(c risk.Constraints) {
	agent := c.Agent
	if agent == "" {
		agent = "(all)"
	}
	fmt.Printf("agent:              %s\n", agent)
	fmt.Printf("status:             %s\n", c.Status)
	if c.Reason != "" {
		fmt.Printf("reason:             %s\n", c.Reason)
	}
	fmt.Printf("max lot:            %.2f\n", c.MaxLotSize)
	fmt.Printf("risk per trade:     %.1f%%\n", c.RiskPerTradePct)
	fmt.Printf("scale factor:       %.2f\n", c.ScaleFactor)
	fmt.Printf("kelly fraction:     %.4f\n", c.KellyFraction)
	fmt.Printf("daily loss limit:   %.2f\n", c.DailyLossLimit)
	fmt.Printf("consec loss limit:  %d\n", c.ConsecutiveLossLimit)
	fmt.Printf("sample size:        %d\n", c.SampleSize)

	sessions := make([]string, 0, len(c.SessionMultipliers))
	for s := range c.SessionMultipliers {
		sessions = append(sessions, s)
	}
	sort.Strings(sessions)
	for _, s := range sessions {
		fmt.Printf("session %-10s  x%.2f\n", s, c.SessionMultipliers[s])
	}
	fmt.Printf("updated:            %s\n", c.UpdatedAt.UTC().Format("2006-01-02 15:04:05"))
}
