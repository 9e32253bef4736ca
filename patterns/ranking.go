package patterns

import (
	"fmt"
	"sort"
	"time"

	"tradememory/journal"
)

// detectStrategyRanking ranks strategies by total pnl and reports per
// strategy how many of its parameter variants are individually profitable.
func (d *Detector) detectStrategyRanking(trades []journal.TradeRecord, dateRange string, now time.Time) []Pattern {
	byStrategy := map[string]*perf{}
	variantPnL := map[string]map[string]float64{} // strategy -> variant tag -> pnl

	for _, t := range trades {
		p, ok := byStrategy[t.Strategy]
		if !ok {
			p = &perf{}
			byStrategy[t.Strategy] = p
		}
		p.add(t.PnL)

		if v, ok := t.Variant(); ok {
			if variantPnL[t.Strategy] == nil {
				variantPnL[t.Strategy] = map[string]float64{}
			}
			variantPnL[t.Strategy][v.Tag] += t.PnL
		}
	}

	strategies := sortedKeys(byStrategy)
	sort.SliceStable(strategies, func(i, j int) bool {
		return byStrategy[strategies[i]].totalPnL > byStrategy[strategies[j]].totalPnL
	})

	out := make([]Pattern, 0, len(strategies))
	for i, strat := range strategies {
		p := byStrategy[strat]

		variantsTotal := len(variantPnL[strat])
		variantsProfitable := 0
		for _, pnl := range variantPnL[strat] {
			if pnl > 0 {
				variantsProfitable++
			}
		}

		pnlPct := d.pnlPct(p.totalPnL)
		label := "profitable"
		if p.totalPnL <= 0 {
			label = "unprofitable"
		}
		desc := fmt.Sprintf(
			"%s avg PnL %+.1f%% (%s), WR %.1f%%, PF %.2f, %d/%d variants profitable",
			strat, pnlPct, label, p.winRate(), p.profitFactor(),
			variantsProfitable, variantsTotal,
		)

		out = append(out, Pattern{
			ID:          fmt.Sprintf("AUTO-RANK-%03d", i+1),
			Type:        TypeStrategyRanking,
			Description: desc,
			Confidence:  ConfidenceFromSamples(p.n, false),
			SampleSize:  p.n,
			DateRange:   dateRange,
			Strategy:    strat,
			Metrics: Metrics{Ranking: &RankingMetrics{
				PnLPct:             pnlPct,
				WinRate:            p.winRate(),
				ProfitFactor:       p.profitFactor(),
				TotalPnL:           round2(p.totalPnL),
				VariantsTotal:      variantsTotal,
				VariantsProfitable: variantsProfitable,
			}},
			Source:       SourceAuto,
			Validation:   ValidationInSample,
			DiscoveredAt: now,
		})
	}
	return out
}
