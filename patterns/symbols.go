package patterns

import (
	"fmt"
	"sort"
	"time"

	"tradememory/journal"
)

// symbolMinSpread is the minimum best-vs-worst pnl-percentage spread for a
// multi-symbol fit pattern.
const symbolMinSpread = 10.0

// specialistMinAdvantage is the pnl-percentage edge a single-symbol strategy
// needs over other strategies' average on different symbols.
const specialistMinAdvantage = 50.0

// specialistMinSamples is the trade floor for flagging a specialist.
const specialistMinSamples = 10

type symbolEntry struct {
	symbol string
	perf   *perf
}

// detectSymbolFit builds the strategy x symbol performance matrix: a
// best-vs-worst pattern for strategies traded on several symbols, plus
// single-symbol specialist flags.
func (d *Detector) detectSymbolFit(trades []journal.TradeRecord, dateRange string, now time.Time) []Pattern {
	matrix := map[string]map[string]*perf{} // strategy -> symbol -> aggregate
	for _, t := range trades {
		if matrix[t.Strategy] == nil {
			matrix[t.Strategy] = map[string]*perf{}
		}
		p, ok := matrix[t.Strategy][t.Symbol]
		if !ok {
			p = &perf{}
			matrix[t.Strategy][t.Symbol] = p
		}
		p.add(t.PnL)
	}

	byStrategy := map[string][]symbolEntry{}
	for strat, symbols := range matrix {
		for _, sym := range sortedKeys(symbols) {
			byStrategy[strat] = append(byStrategy[strat], symbolEntry{symbol: sym, perf: symbols[sym]})
		}
	}

	var out []Pattern
	idx := 0

	for _, strat := range sortedKeys(byStrategy) {
		entries := byStrategy[strat]
		if len(entries) < 2 {
			continue
		}

		sort.SliceStable(entries, func(i, j int) bool {
			return d.pnlPct(entries[i].perf.totalPnL) > d.pnlPct(entries[j].perf.totalPnL)
		})
		best, worst := entries[0], entries[len(entries)-1]
		delta := round1(d.pnlPct(best.perf.totalPnL) - d.pnlPct(worst.perf.totalPnL))
		if delta < symbolMinSpread {
			continue
		}

		idx++
		desc := fmt.Sprintf(
			"%s: %s %+.1f%% (WR %.1f%%, RR %.2f) vs %s %+.1f%% (WR %.1f%%, RR %.2f), delta %+.1f%%",
			strat,
			best.symbol, d.pnlPct(best.perf.totalPnL), best.perf.winRate(), best.perf.rewardRisk(),
			worst.symbol, d.pnlPct(worst.perf.totalPnL), worst.perf.winRate(), worst.perf.rewardRisk(),
			delta,
		)

		minN, combined := entries[0].perf.n, 0
		stats := map[string]SymbolStats{}
		for _, e := range entries {
			combined += e.perf.n
			if e.perf.n < minN {
				minN = e.perf.n
			}
			stats[e.symbol] = symbolStats(d, e.perf)
		}

		out = append(out, Pattern{
			ID:          fmt.Sprintf("AUTO-SYM-%03d", idx),
			Type:        TypeSymbolFit,
			Description: desc,
			Confidence:  ConfidenceFromSamples(minN, false),
			SampleSize:  combined,
			DateRange:   dateRange,
			Strategy:    strat,
			Metrics: Metrics{SymbolFit: &SymbolFitMetrics{
				Symbols:     stats,
				BestSymbol:  best.symbol,
				WorstSymbol: worst.symbol,
				Delta:       delta,
			}},
			Source:       SourceAuto,
			Validation:   ValidationInSample,
			DiscoveredAt: now,
		})
	}

	out = append(out, d.detectSpecialists(byStrategy, dateRange, now, &idx)...)
	return out
}

// detectSpecialists flags strategies that trade exactly one symbol and beat
// the field: profitable on enough samples, with a large pnl-percentage edge
// over multi-symbol strategies' average on other symbols.
func (d *Detector) detectSpecialists(byStrategy map[string][]symbolEntry, dateRange string, now time.Time, idx *int) []Pattern {
	// Per-symbol entries contributed by multi-symbol strategies.
	otherBySymbol := map[string][]*perf{}
	for _, entries := range byStrategy {
		if len(entries) < 2 {
			continue
		}
		for _, e := range entries {
			otherBySymbol[e.symbol] = append(otherBySymbol[e.symbol], e.perf)
		}
	}
	if len(otherBySymbol) == 0 {
		return nil
	}

	var out []Pattern
	for _, strat := range sortedKeys(byStrategy) {
		entries := byStrategy[strat]
		if len(entries) != 1 {
			continue
		}
		solo := entries[0]
		soloPct := d.pnlPct(solo.perf.totalPnL)
		if solo.perf.n < specialistMinSamples || soloPct <= 0 {
			continue
		}

		var others []*perf
		for sym, ps := range otherBySymbol {
			if sym != solo.symbol {
				others = append(others, ps...)
			}
		}
		if len(others) == 0 {
			continue
		}

		var otherPnL, otherRR float64
		for _, p := range others {
			otherPnL += d.pnlPct(p.totalPnL)
			otherRR += p.rewardRisk()
		}
		otherAvgPnL := round1(otherPnL / float64(len(others)))
		otherAvgRR := round2(otherRR / float64(len(others)))

		advantage := round1(soloPct - otherAvgPnL)
		if advantage < specialistMinAdvantage {
			continue
		}

		*idx++
		desc := fmt.Sprintf(
			"%s: %s-only, PnL %+.1f%% (RR %.2f, PF %.2f) vs other strategies on non-%s avg PnL %+.1f%% (avg RR %.2f)",
			strat, solo.symbol, soloPct, solo.perf.rewardRisk(), solo.perf.profitFactor(),
			solo.symbol, otherAvgPnL, otherAvgRR,
		)

		out = append(out, Pattern{
			ID:          fmt.Sprintf("AUTO-SYM-%03d", *idx),
			Type:        TypeSymbolFit,
			Description: desc,
			Confidence:  ConfidenceFromSamples(solo.perf.n, false),
			SampleSize:  solo.perf.n,
			DateRange:   dateRange,
			Strategy:    strat,
			Symbol:      solo.symbol,
			Metrics: Metrics{SymbolFit: &SymbolFitMetrics{
				Symbols:        map[string]SymbolStats{solo.symbol: symbolStats(d, solo.perf)},
				BestSymbol:     solo.symbol,
				SingleSymbol:   true,
				PnLAdvantage:   advantage,
				OtherAvgPnLPct: otherAvgPnL,
				OtherAvgRR:     otherAvgRR,
			}},
			Source:       SourceAuto,
			Validation:   ValidationInSample,
			DiscoveredAt: now,
		})
	}
	return out
}

func symbolStats(d *Detector, p *perf) SymbolStats {
	return SymbolStats{
		PnLPct:       d.pnlPct(p.totalPnL),
		WinRate:      p.winRate(),
		ProfitFactor: p.profitFactor(),
		RewardRisk:   p.rewardRisk(),
		N:            p.n,
	}
}
