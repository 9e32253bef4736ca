package risk

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tradememory/journal"
)

// HistorySource is the slice of the trade-history store the calculator
// reads: closed trades from a cutoff onward, oldest first.
type HistorySource interface {
	ClosedSince(cutoff time.Time) ([]journal.TradeRecord, error)
}

// StateStore persists constraint snapshots per agent.
type StateStore interface {
	SaveConstraints(agent string, c Constraints) error
	LoadConstraints(agent string) (Constraints, bool, error)
}

// Calculator recomputes Constraints from an agent's trailing trade window.
// Recalculation is a read-then-persist sequence with no compare-and-swap
// guard in the store, so a per-agent mutex serializes it; calls for
// different agents never block each other.
type Calculator struct {
	policy Policy
	trades HistorySource
	state  StateStore
	log    zerolog.Logger
	now    func() time.Time

	mu     sync.Mutex
	agents map[string]*sync.Mutex
}

func NewCalculator(policy Policy, trades HistorySource, state StateStore, logger zerolog.Logger) *Calculator {
	return &Calculator{
		policy: policy.Normalize(),
		trades: trades,
		state:  state,
		log:    logger,
		now:    time.Now,
		agents: map[string]*sync.Mutex{},
	}
}

func (c *Calculator) agentLock(agent string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.agents[agent]
	if !ok {
		m = &sync.Mutex{}
		c.agents[agent] = m
	}
	return m
}

// Recalculate rebuilds the agent's constraints from its trailing window and
// persists the snapshot. The agent name matches the strategy tag on trade
// records; an empty agent covers all strategies.
func (c *Calculator) Recalculate(agent string) (Constraints, error) {
	lock := c.agentLock(agent)
	lock.Lock()
	defer lock.Unlock()

	now := c.now().UTC()
	cutoff := now.AddDate(0, 0, -c.policy.LookbackDays)

	window, err := c.trades.ClosedSince(cutoff)
	if err != nil {
		return Constraints{}, fmt.Errorf("load trade window for %q: %w", agent, err)
	}
	if agent != "" {
		filtered := window[:0]
		for _, t := range window {
			if t.Strategy == agent {
				filtered = append(filtered, t)
			}
		}
		window = filtered
	}

	constraints := c.compute(agent, window, now)
	if err := c.state.SaveConstraints(agent, constraints); err != nil {
		return Constraints{}, fmt.Errorf("persist constraints for %q: %w", agent, err)
	}

	c.log.Info().Str("agent", agent).Int("trades", len(window)).
		Str("status", string(constraints.Status)).
		Float64("max_lot", constraints.MaxLotSize).
		Msg("risk constraints recalculated")
	return constraints, nil
}

// compute merges the five sub-algorithms into one snapshot.
func (c *Calculator) compute(agent string, window []journal.TradeRecord, now time.Time) Constraints {
	if len(window) < c.policy.MinTrades {
		return c.policy.SafeDefaults(agent, len(window), now)
	}

	sort.SliceStable(window, func(i, j int) bool {
		return window[i].Timestamp.Before(window[j].Timestamp)
	})

	kelly := QuarterKelly(window)
	scale, maxDD := DrawdownScale(window, c.policy.BaselineEquity)
	sessions := SessionAdjustments(window)
	lossStatus, streak := ConsecutiveLossStatus(window, c.policy.ConsecutiveLossLimit)
	dayStatus, dayLoss := DailyLossStatus(window, c.policy.DailyLossLimit, now)

	status := WorseStatus(lossStatus, dayStatus)

	var reasons []string
	if maxDD > 5 {
		reasons = append(reasons, fmt.Sprintf("max drawdown %.1f%%", maxDD))
	}
	if lossStatus != StatusActive {
		reasons = append(reasons, fmt.Sprintf("%d consecutive losses (limit %d)", streak, c.policy.ConsecutiveLossLimit))
	}
	if dayStatus != StatusActive {
		reasons = append(reasons, fmt.Sprintf("daily loss %.2f of limit %.2f", dayLoss, c.policy.DailyLossLimit))
	}

	// A reduced agent trades at half the drawdown-derived scale.
	if status == StatusReduced {
		scale /= 2
	}

	reason := strings.Join(reasons, "; ")
	if reason == "" {
		reason = "calculated from trade history"
	}

	return Constraints{
		Agent:                agent,
		MaxLotSize:           c.policy.MaxLotSize,
		RiskPerTradePct:      RiskPctFromKelly(kelly),
		DailyLossLimit:       c.policy.DailyLossLimit,
		ScaleFactor:          scale,
		SessionMultipliers:   sessions,
		ConsecutiveLossLimit: c.policy.ConsecutiveLossLimit,
		KellyFraction:        kelly,
		Status:               status,
		Reason:               reason,
		SampleSize:           len(window),
		UpdatedAt:            now,
	}
}

// Constraints returns the agent's stored snapshot, recalculating when none
// has been persisted yet.
func (c *Calculator) Constraints(agent string) (Constraints, error) {
	stored, ok, err := c.state.LoadConstraints(agent)
	if err != nil {
		return Constraints{}, fmt.Errorf("load constraints for %q: %w", agent, err)
	}
	if !ok {
		return c.Recalculate(agent)
	}
	return stored, nil
}

// CheckTrade gates a proposed trade against the agent's current constraints.
func (c *Calculator) CheckTrade(agent string, p Proposal) (CheckResult, error) {
	constraints, err := c.Constraints(agent)
	if err != nil {
		return CheckResult{}, err
	}
	return Check(constraints, p, c.policy.MinLotSize), nil
}
