package patterns

import (
	"fmt"
	"math"
	"sort"
	"time"

	"tradememory/journal"
)

// directionMinDelta is the significance floor for a direction-bias pattern:
// smaller pnl-percentage deltas are treated as noise.
const directionMinDelta = 5.0

// directionConsistencyDelta is where the delta is large enough to earn the
// consistency bonus.
const directionConsistencyDelta = 10.0

type directionGroup struct {
	strategy string
	symbol   string
	filters  map[string]*perf // direction filter -> aggregate
}

// detectDirectionBias compares, per (strategy, symbol), every directional
// variant against the both-directions variant of the same pair.
func (d *Detector) detectDirectionBias(trades []journal.TradeRecord, dateRange string, now time.Time) []Pattern {
	groups := map[string]*directionGroup{}

	for _, t := range trades {
		v, ok := t.Variant()
		if !ok {
			continue // live records carry no direction filter
		}
		key := t.Strategy + "\x00" + t.Symbol
		g, ok := groups[key]
		if !ok {
			g = &directionGroup{strategy: t.Strategy, symbol: t.Symbol, filters: map[string]*perf{}}
			groups[key] = g
		}
		p, ok := g.filters[v.DirectionFilter]
		if !ok {
			p = &perf{}
			g.filters[v.DirectionFilter] = p
		}
		p.add(t.PnL)
	}

	keys := sortedKeys(groups)
	var out []Pattern
	idx := 0
	for _, key := range keys {
		g := groups[key]
		both, ok := g.filters[journal.DirectionBoth]
		if !ok {
			continue
		}

		var filters []string
		for f := range g.filters {
			if f != journal.DirectionBoth {
				filters = append(filters, f)
			}
		}
		sort.Strings(filters)

		for _, filter := range filters {
			dir := g.filters[filter]

			dirPct := d.pnlPct(dir.totalPnL)
			bothPct := d.pnlPct(both.totalPnL)
			delta := round1(dirPct - bothPct)
			if math.Abs(delta) < directionMinDelta {
				continue
			}

			idx++
			better := filter + "-only"
			if delta < 0 {
				better = journal.DirectionBoth
			}
			desc := fmt.Sprintf(
				"%s %s: %s-only %+.1f%% vs BOTH %+.1f%% (delta %+.1f%%, %s better)",
				g.strategy, g.symbol, filter, dirPct, bothPct, delta, better,
			)

			minN := dir.n
			if both.n < minN {
				minN = both.n
			}
			consistent := math.Abs(delta) > directionConsistencyDelta

			out = append(out, Pattern{
				ID:          fmt.Sprintf("AUTO-DIR-%03d", idx),
				Type:        TypeDirectionBias,
				Description: desc,
				Confidence:  ConfidenceFromSamples(minN, consistent),
				SampleSize:  dir.n + both.n,
				DateRange:   dateRange,
				Strategy:    g.strategy,
				Symbol:      g.symbol,
				Metrics: Metrics{DirectionBias: &DirectionBiasMetrics{
					DirectionFilter: filter,
					DirPnLPct:       dirPct,
					BothPnLPct:      bothPct,
					Delta:           delta,
					DirN:            dir.n,
					BothN:           both.n,
					DirWinRate:      dir.winRate(),
					BothWinRate:     both.winRate(),
				}},
				Source:       SourceAuto,
				Validation:   ValidationInSample,
				DiscoveredAt: now,
			})
		}
	}
	return out
}
