package patterns

import (
	"fmt"
	"time"

	"tradememory/journal"
)

// lotShrinkThreshold is the average-lot contraction, in percent, that
// triggers the parameter-starvation warning.
const lotShrinkThreshold = 25.0

type variantAgg struct {
	variant journal.Variant
	perf    *perf
	lots    float64
}

// detectDiagnostic gives the configured mean-reversion-style strategy a
// deeper scan: overall variant profitability, directional vs both-ways
// variant comparison, and an average-lot shrinkage check between the earlier
// and recent halves of its trading period.
func (d *Detector) detectDiagnostic(trades []journal.TradeRecord, dateRange string, now time.Time) []Pattern {
	byTag := map[string]*variantAgg{}
	var strat []journal.TradeRecord

	for _, t := range trades {
		if t.Strategy != d.diagnostic {
			continue
		}
		strat = append(strat, t)
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
		a.lots += t.LotSize
	}
	if len(byTag) == 0 {
		return nil
	}

	var all, dir, both []*variantAgg
	totalN := 0
	for _, tag := range sortedKeys(byTag) {
		a := byTag[tag]
		all = append(all, a)
		totalN += a.perf.n
		if a.variant.DirectionFilter == journal.DirectionBoth {
			both = append(both, a)
		} else {
			dir = append(dir, a)
		}
	}

	var out []Pattern
	out = append(out, d.diagnosticOverall(all, totalN, dateRange, now))
	if p, ok := d.diagnosticDirection(dir, both, totalN, dateRange, now); ok {
		out = append(out, p)
	}
	if p, ok := d.diagnosticLotShrink(strat, dateRange, now); ok {
		out = append(out, p)
	}
	return out
}

func (d *Detector) diagnosticOverall(all []*variantAgg, totalN int, dateRange string, now time.Time) Pattern {
	var sumPct float64
	var profitable []VariantPerf
	var best *variantAgg

	for _, a := range all {
		pct := d.pnlPct(a.perf.totalPnL)
		sumPct += pct
		if a.perf.totalPnL > 0 {
			profitable = append(profitable, VariantPerf{
				Tag:          a.variant.Tag,
				N:            a.perf.n,
				PnLPct:       pct,
				ProfitFactor: a.perf.profitFactor(),
			})
			if best == nil || pct > d.pnlPct(best.perf.totalPnL) {
				best = a
			}
		}
	}
	avgPct := round1(sumPct / float64(len(all)))

	desc := fmt.Sprintf("%s avg PnL %+.1f%% across %d variants, %d/%d profitable",
		d.diagnostic, avgPct, len(all), len(profitable), len(all))
	if best != nil {
		desc += fmt.Sprintf(". Best: %s %+.1f%% (n=%d, PF=%.2f)",
			best.variant.Tag, d.pnlPct(best.perf.totalPnL), best.perf.n, best.perf.profitFactor())
	}

	return Pattern{
		ID:          "AUTO-MR-001",
		Type:        TypeMeanRevAnalysis,
		Description: desc,
		Confidence:  ConfidenceFromSamples(totalN, false),
		SampleSize:  totalN,
		DateRange:   dateRange,
		Strategy:    d.diagnostic,
		Metrics: Metrics{MeanRev: &MeanRevMetrics{Overall: &MeanRevOverall{
			AvgPnLPct:          avgPct,
			VariantsTotal:      len(all),
			VariantsProfitable: len(profitable),
			Profitable:         profitable,
		}}},
		Source:       SourceAuto,
		Validation:   ValidationInSample,
		DiscoveredAt: now,
	}
}

func (d *Detector) diagnosticDirection(dir, both []*variantAgg, totalN int, dateRange string, now time.Time) (Pattern, bool) {
	if len(dir) == 0 || len(both) == 0 {
		return Pattern{}, false
	}

	avg := func(as []*variantAgg) (pct float64, n, profitable int) {
		for _, a := range as {
			pct += d.pnlPct(a.perf.totalPnL)
			n += a.perf.n
			if a.perf.totalPnL > 0 {
				profitable++
			}
		}
		return round1(pct / float64(len(as))), n, profitable
	}
	dirAvg, dirN, dirProf := avg(dir)
	bothAvg, bothN, bothProf := avg(both)
	delta := round1(dirAvg - bothAvg)

	desc := fmt.Sprintf(
		"%s directional avg %+.1f%% (%d/%d profitable) vs BOTH avg %+.1f%% (%d/%d profitable), delta %+.1f%%",
		d.diagnostic, dirAvg, dirProf, len(dir), bothAvg, bothProf, len(both), delta,
	)

	minN := dirN
	if bothN < minN {
		minN = bothN
	}

	return Pattern{
		ID:          "AUTO-MR-002",
		Type:        TypeMeanRevAnalysis,
		Description: desc,
		Confidence:  ConfidenceFromSamples(minN, false),
		SampleSize:  totalN,
		DateRange:   dateRange,
		Strategy:    d.diagnostic,
		Metrics: Metrics{MeanRev: &MeanRevMetrics{Direction: &MeanRevDirection{
			DirAvgPnLPct:   dirAvg,
			BothAvgPnLPct:  bothAvg,
			Delta:          delta,
			DirVariants:    len(dir),
			BothVariants:   len(both),
			DirProfitable:  dirProf,
			BothProfitable: bothProf,
		}}},
		Source:       SourceAuto,
		Validation:   ValidationInSample,
		DiscoveredAt: now,
	}, true
}

// diagnosticLotShrink splits the strategy's trades at the midpoint of its
// trading period and compares average lot sizes between the halves.
func (d *Detector) diagnosticLotShrink(trades []journal.TradeRecord, dateRange string, now time.Time) (Pattern, bool) {
	if len(trades) < 2 {
		return Pattern{}, false
	}

	first, last := trades[0].Timestamp, trades[0].Timestamp
	for _, t := range trades[1:] {
		if t.Timestamp.Before(first) {
			first = t.Timestamp
		}
		if t.Timestamp.After(last) {
			last = t.Timestamp
		}
	}
	mid := first.Add(last.Sub(first) / 2)

	var earlierLots, recentLots float64
	var earlierN, recentN int
	for _, t := range trades {
		if t.Timestamp.After(mid) {
			recentLots += t.LotSize
			recentN++
		} else {
			earlierLots += t.LotSize
			earlierN++
		}
	}
	if earlierN == 0 || recentN == 0 {
		return Pattern{}, false
	}

	earlierAvg := round4(earlierLots / float64(earlierN))
	recentAvg := round4(recentLots / float64(recentN))
	if earlierAvg <= 0 {
		return Pattern{}, false
	}

	shrink := round1((1 - recentAvg/earlierAvg) * 100)
	if shrink <= lotShrinkThreshold {
		return Pattern{}, false
	}

	desc := fmt.Sprintf(
		"%s lot size shrinkage: recent avg %.3f vs earlier avg %.3f (%.0f%% smaller), approaching min lot in high-volatility regime",
		d.diagnostic, recentAvg, earlierAvg, shrink,
	)

	return Pattern{
		ID:          "AUTO-MR-003",
		Type:        TypeMeanRevAnalysis,
		Description: desc,
		Confidence:  ConfidenceFromSamples(recentN, false),
		SampleSize:  earlierN + recentN,
		DateRange:   dateRange,
		Strategy:    d.diagnostic,
		Metrics: Metrics{MeanRev: &MeanRevMetrics{LotShrink: &MeanRevLotShrink{
			RecentAvgLot:  recentAvg,
			EarlierAvgLot: earlierAvg,
			ShrinkagePct:  shrink,
			RecentN:       recentN,
			EarlierN:      earlierN,
		}}},
		Source:       SourceAuto,
		Validation:   ValidationInSample,
		DiscoveredAt: now,
	}, true
}
