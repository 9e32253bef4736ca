package adjust

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"tradememory/patterns"
)

// Rule thresholds. A pattern can satisfy several rules at once; the rules
// never read each other's output.
const (
	minConfidence     = 0.7
	disableBelowPct   = -5.0
	weakWinRate       = 35.0
	strongWinRate     = 60.0
	exposureMinSample = 30
	restrictRatio     = 0.5
)

// PatternSource is the slice of the pattern store the generator reads.
type PatternSource interface {
	Query(patterns.Filter) ([]patterns.Pattern, error)
}

// Store persists proposals keyed by ID.
type Store interface {
	Put(Adjustment) error
}

// Generator applies the five adjustment rules to auto-discovered patterns.
// Generation is a pure function of the pattern set: the same patterns always
// produce the same proposals with the same IDs.
type Generator struct {
	log zerolog.Logger
	now func() time.Time
}

func NewGenerator(logger zerolog.Logger) *Generator {
	return &Generator{log: logger, now: time.Now}
}

// Propose loads every auto-discovered pattern, runs the rules and persists
// the resulting proposals. Storage replaces by adjustment ID, so re-runs on
// an unchanged pattern set never grow the stored set.
func (g *Generator) Propose(src PatternSource, store Store) ([]Adjustment, error) {
	found, err := src.Query(patterns.Filter{Source: patterns.SourceAuto, Limit: 1000})
	if err != nil {
		return nil, fmt.Errorf("load patterns: %w", err)
	}

	proposals := g.Generate(found)
	for _, a := range proposals {
		if err := store.Put(a); err != nil {
			return nil, fmt.Errorf("store adjustment %s: %w", a.ID, err)
		}
	}

	g.log.Info().Int("patterns", len(found)).Int("adjustments", len(proposals)).
		Msg("adjustment generation complete")
	return proposals, nil
}

// Generate runs all five rules over the pattern set. Patterns lacking the
// metrics a rule needs are skipped by that rule, never an error.
func (g *Generator) Generate(found []patterns.Pattern) []Adjustment {
	// Stable input order keeps the per-rule counters, and therefore the
	// proposal IDs, deterministic across re-runs.
	sorted := make([]patterns.Pattern, len(found))
	copy(sorted, found)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	now := g.now().UTC()
	counters := map[Type]int{}
	next := func(t Type, rule string) string {
		counters[t]++
		return fmt.Sprintf("ADJ-%s-%03d", rule, counters[t])
	}

	var out []Adjustment
	for _, p := range sorted {
		if p.Source != patterns.SourceAuto || p.Confidence < minConfidence {
			continue
		}
		switch p.Type {
		case patterns.TypeStrategyRanking:
			if a, ok := ruleStrategyDisable(p, now, next); ok {
				out = append(out, a)
			}
			if a, ok := ruleStrategyPrefer(p, now, next); ok {
				out = append(out, a)
			}
		case patterns.TypeDirectionBias:
			if a, ok := ruleExposureReduce(p, now, next); ok {
				out = append(out, a)
			}
			if a, ok := ruleExposureIncrease(p, now, next); ok {
				out = append(out, a)
			}
			if a, ok := ruleDirectionRestrict(p, now, next); ok {
				out = append(out, a)
			}
		}
	}
	return out
}

type idFunc func(Type, string) string

// ruleStrategyDisable proposes disabling a strategy losing more than 5
// percentage points of baseline equity.
func ruleStrategyDisable(p patterns.Pattern, now time.Time, next idFunc) (Adjustment, bool) {
	m := p.Metrics.Ranking
	if m == nil || p.Strategy == "" || m.PnLPct >= disableBelowPct {
		return Adjustment{}, false
	}
	return Adjustment{
		ID:    next(TypeStrategyDisable, "DISABLE"),
		Type:  TypeStrategyDisable,
		Param: fmt.Sprintf("strategies.%s.enabled", p.Strategy),
		Old:   boolChange(true),
		New:   boolChange(false),
		Reason: fmt.Sprintf("%s lost %.1f%% of baseline equity over %d trades (WR %.1f%%)",
			p.Strategy, -m.PnLPct, p.SampleSize, m.WinRate),
		PatternID:  p.ID,
		Confidence: p.Confidence,
		Status:     StatusProposed,
		CreatedAt:  now,
	}, true
}

// ruleStrategyPrefer proposes raising scheduling priority for a net
// profitable strategy.
func ruleStrategyPrefer(p patterns.Pattern, now time.Time, next idFunc) (Adjustment, bool) {
	m := p.Metrics.Ranking
	if m == nil || p.Strategy == "" || m.PnLPct <= 0 {
		return Adjustment{}, false
	}
	return Adjustment{
		ID:    next(TypeStrategyPrefer, "PREFER"),
		Type:  TypeStrategyPrefer,
		Param: fmt.Sprintf("strategies.%s.priority", p.Strategy),
		Old:   priorityChange("normal"),
		New:   priorityChange("high"),
		Reason: fmt.Sprintf("%s gained %.1f%% of baseline equity over %d trades (PF %.2f)",
			p.Strategy, m.PnLPct, p.SampleSize, m.ProfitFactor),
		PatternID:  p.ID,
		Confidence: p.Confidence,
		Status:     StatusProposed,
		CreatedAt:  now,
	}, true
}

// ruleExposureReduce proposes halving max position size when the worse
// direction's win rate collapses below 35%.
func ruleExposureReduce(p patterns.Pattern, now time.Time, next idFunc) (Adjustment, bool) {
	m := p.Metrics.DirectionBias
	if m == nil || m.DirN+m.BothN < exposureMinSample {
		return Adjustment{}, false
	}
	worseWR := math.Min(m.DirWinRate, m.BothWinRate)
	if worseWR >= weakWinRate {
		return Adjustment{}, false
	}
	return Adjustment{
		ID:    next(TypeSessionReduce, "REDUCE"),
		Type:  TypeSessionReduce,
		Param: fmt.Sprintf("strategies.%s.symbols.%s.max_lot_factor", p.Strategy, p.Symbol),
		Old:   sizeChange(1.0),
		New:   sizeChange(0.5),
		Reason: fmt.Sprintf("%s %s worse direction win rate %.1f%% across %d trades",
			p.Strategy, p.Symbol, worseWR, m.DirN+m.BothN),
		PatternID:  p.ID,
		Confidence: p.Confidence,
		Status:     StatusProposed,
		CreatedAt:  now,
	}, true
}

// ruleExposureIncrease proposes a 50% size increase when the better
// direction's win rate clears 60%.
func ruleExposureIncrease(p patterns.Pattern, now time.Time, next idFunc) (Adjustment, bool) {
	m := p.Metrics.DirectionBias
	if m == nil || m.DirN+m.BothN < exposureMinSample {
		return Adjustment{}, false
	}
	betterWR := math.Max(m.DirWinRate, m.BothWinRate)
	if betterWR <= strongWinRate {
		return Adjustment{}, false
	}
	return Adjustment{
		ID:    next(TypeSessionIncrease, "INCREASE"),
		Type:  TypeSessionIncrease,
		Param: fmt.Sprintf("strategies.%s.symbols.%s.max_lot_factor", p.Strategy, p.Symbol),
		Old:   sizeChange(1.0),
		New:   sizeChange(1.5),
		Reason: fmt.Sprintf("%s %s better direction win rate %.1f%% across %d trades",
			p.Strategy, p.Symbol, betterWR, m.DirN+m.BothN),
		PatternID:  p.ID,
		Confidence: p.Confidence,
		Status:     StatusProposed,
		CreatedAt:  now,
	}, true
}

// ruleDirectionRestrict proposes trading only the directional variant when
// it beats the both-directions baseline by more than half the baseline's
// own magnitude. A zero baseline gives no reference scale, so the rule
// stays silent.
func ruleDirectionRestrict(p patterns.Pattern, now time.Time, next idFunc) (Adjustment, bool) {
	m := p.Metrics.DirectionBias
	if m == nil || m.BothPnLPct == 0 || m.Delta <= 0 {
		return Adjustment{}, false
	}
	if m.Delta <= restrictRatio*math.Abs(m.BothPnLPct) {
		return Adjustment{}, false
	}
	return Adjustment{
		ID:    next(TypeDirectionRestrict, "RESTRICT"),
		Type:  TypeDirectionRestrict,
		Param: fmt.Sprintf("strategies.%s.symbols.%s.direction", p.Strategy, p.Symbol),
		Old:   directionChange("BOTH"),
		New:   directionChange(m.DirectionFilter),
		Reason: fmt.Sprintf("%s %s %s-only %+.1f%% vs BOTH %+.1f%%, edge exceeds half the baseline magnitude",
			p.Strategy, p.Symbol, m.DirectionFilter, m.DirPnLPct, m.BothPnLPct),
		PatternID:  p.ID,
		Confidence: p.Confidence,
		Status:     StatusProposed,
		CreatedAt:  now,
	}, true
}
