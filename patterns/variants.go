package patterns

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"tradememory/journal"
)

// variantMinTrades excludes thin variants from the top/bottom ranking.
const variantMinTrades = 10

// detectTopVariants ranks every parameter variant with enough trades by
// pnl-percentage and emits one pattern for the top 5 and one for the
// bottom 5.
func (d *Detector) detectTopVariants(trades []journal.TradeRecord, dateRange string, now time.Time) []Pattern {
	byTag := map[string]*variantAgg{}
	for _, t := range trades {
		v, ok := t.Variant()
		if !ok {
			continue
		}
		a, ok := byTag[v.Tag]
		if !ok {
			a = &variantAgg{variant: v, perf: &perf{}}
			byTag[v.Tag] = a
		}
		a.perf.add(t.PnL)
	}

	var ranked []VariantPerf
	for _, tag := range sortedKeys(byTag) {
		a := byTag[tag]
		if a.perf.n < variantMinTrades {
			continue
		}
		ranked = append(ranked, VariantPerf{
			Tag:          a.variant.Tag,
			Strategy:     a.variant.Strategy,
			Symbol:       a.variant.Symbol,
			Direction:    a.variant.DirectionFilter,
			N:            a.perf.n,
			PnLPct:       d.pnlPct(a.perf.totalPnL),
			WinRate:      a.perf.winRate(),
			ProfitFactor: a.perf.profitFactor(),
		})
	}
	if len(ranked) == 0 {
		return nil
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PnLPct > ranked[j].PnLPct
	})

	top := ranked
	if len(top) > 5 {
		top = ranked[:5]
	}
	bottom := ranked
	if len(bottom) > 5 {
		bottom = ranked[len(ranked)-5:]
	}

	return []Pattern{
		d.variantListPattern("AUTO-TOP-001", "Top 5", top, dateRange, now),
		d.variantListPattern("AUTO-BOT-001", "Bottom 5", bottom, dateRange, now),
	}
}

func (d *Detector) variantListPattern(id, label string, list []VariantPerf, dateRange string, now time.Time) Pattern {
	lines := make([]string, 0, len(list))
	minN, total := list[0].N, 0
	for _, v := range list {
		lines = append(lines, fmt.Sprintf("%s %+.1f%% (n=%d, PF=%.2f)", v.Tag, v.PnLPct, v.N, v.ProfitFactor))
		total += v.N
		if v.N < minN {
			minN = v.N
		}
	}

	return Pattern{
		ID:          id,
		Type:        TypeTopVariant,
		Description: fmt.Sprintf("%s variants (n>=%d): %s", label, variantMinTrades, strings.Join(lines, "; ")),
		Confidence:  ConfidenceFromSamples(minN, false),
		SampleSize:  total,
		DateRange:   dateRange,
		Metrics:     Metrics{VariantList: &VariantListMetrics{Ranking: list}},
		Source:       SourceAuto,
		Validation:   ValidationInSample,
		DiscoveredAt: now,
	}
}
