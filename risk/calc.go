package risk

import (
	"math"
	"time"

	"tradememory/journal"
)

var sessionBuckets = journal.Sessions

// Bounds shared by the sub-algorithms.
const (
	kellyCap       = 0.25
	riskPctFloor   = 0.5
	riskPctCeiling = 5.0
	riskPctDefault = 2.0
)

// QuarterKelly computes a quarter of the Kelly fraction from closed trades.
// f = (p*b - q) / b with p the win fraction and b the average-win to
// average-loss ratio. Fewer than two winners or two losers gives no basis
// for an estimate and returns 0. The result stays within [0, 0.25].
func QuarterKelly(trades []journal.TradeRecord) float64 {
	var wins, losses int
	var grossWins, grossLosses float64
	for _, t := range trades {
		switch {
		case t.PnL > 0:
			wins++
			grossWins += t.PnL
		case t.PnL < 0:
			losses++
			grossLosses += -t.PnL
		}
	}
	if wins < 2 || losses < 2 {
		return 0
	}

	avgWin := grossWins / float64(wins)
	avgLoss := grossLosses / float64(losses)
	if avgLoss <= 0 {
		return 0
	}

	b := avgWin / avgLoss
	p := float64(wins) / float64(len(trades))
	q := 1 - p

	f := (p*b - q) / b
	if f <= 0 {
		return 0
	}
	return math.Min(f/4, kellyCap)
}

// RiskPctFromKelly maps a quarter-Kelly fraction to a per-trade risk
// percentage, clamped to [0.5, 5.0]. A zero fraction keeps the 2% default.
func RiskPctFromKelly(f float64) float64 {
	if f == 0 {
		return riskPctDefault
	}
	return math.Min(math.Max(f*100, riskPctFloor), riskPctCeiling)
}

// DrawdownScale replays closed trades in chronological order against the
// baseline equity and scales exposure by the worst peak-to-trough drawdown:
// >10% halves sizing, >5% takes a quarter off, otherwise 1.0. The input
// must already be sorted oldest first.
func DrawdownScale(trades []journal.TradeRecord, baselineEquity float64) (scale, maxDrawdownPct float64) {
	equity := baselineEquity
	peak := baselineEquity

	for _, t := range trades {
		equity += t.PnL
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			dd := (peak - equity) / peak * 100
			if dd > maxDrawdownPct {
				maxDrawdownPct = dd
			}
		}
	}

	switch {
	case maxDrawdownPct > 10:
		return 0.5, maxDrawdownPct
	case maxDrawdownPct > 5:
		return 0.75, maxDrawdownPct
	default:
		return 1.0, maxDrawdownPct
	}
}

// SessionAdjustments derives a size multiplier per session bucket from the
// bucket's win rate. Thin buckets (fewer than 3 trades) get a conservative
// 0.75 regardless of the observed rate.
func SessionAdjustments(trades []journal.TradeRecord) map[string]float64 {
	type tally struct{ n, wins int }
	counts := map[string]*tally{}
	for _, s := range sessionBuckets {
		counts[s] = &tally{}
	}

	for _, t := range trades {
		c, ok := counts[t.Session()]
		if !ok {
			continue
		}
		c.n++
		if t.PnL > 0 {
			c.wins++
		}
	}

	out := make(map[string]float64, len(sessionBuckets))
	for _, s := range sessionBuckets {
		c := counts[s]
		if c.n < 3 {
			out[s] = 0.75
			continue
		}
		winRate := float64(c.wins) * 100 / float64(c.n)
		switch {
		case winRate < 40:
			out[s] = 0.5
		case winRate < 50:
			out[s] = 0.75
		default:
			out[s] = 1.0
		}
	}
	return out
}

// ConsecutiveLossStatus scans trades newest first and counts the losing
// streak up to the first non-loss. The input must be sorted oldest first;
// the scan walks it backward.
func ConsecutiveLossStatus(trades []journal.TradeRecord, limit int) (Status, int) {
	streak := 0
	for i := len(trades) - 1; i >= 0; i-- {
		if trades[i].PnL >= 0 {
			break
		}
		streak++
	}

	switch {
	case streak >= limit:
		return StatusStopped, streak
	case streak >= limit-1:
		return StatusReduced, streak
	default:
		return StatusActive, streak
	}
}

// DailyLossStatus sums the absolute pnl of today's losing trades against
// the daily loss limit. Reaching the limit stops trading; 80% of it
// triggers reduced sizing. Days roll over at UTC midnight.
func DailyLossStatus(trades []journal.TradeRecord, limit float64, now time.Time) (Status, float64) {
	today := now.UTC().Truncate(24 * time.Hour)

	var loss float64
	for _, t := range trades {
		if t.PnL >= 0 {
			continue
		}
		if t.Timestamp.UTC().Truncate(24 * time.Hour).Equal(today) {
			loss += -t.PnL
		}
	}

	switch {
	case loss >= limit:
		return StatusStopped, loss
	case loss >= 0.8*limit:
		return StatusReduced, loss
	default:
		return StatusActive, loss
	}
}
