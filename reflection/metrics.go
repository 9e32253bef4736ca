package reflection

import (
	"math"
	"sort"
	"time"

	"tradememory/journal"
)

// groupStats is the win/loss tally for one breakdown bucket (a strategy,
// a session, a weekday).
type groupStats struct {
	Total    int
	Winners  int
	WinRate  float64
	TotalPnL float64
}

func statsOf(trades []journal.TradeRecord) groupStats {
	s := groupStats{Total: len(trades)}
	for _, t := range trades {
		if t.PnL > 0 {
			s.Winners++
		}
		s.TotalPnL += t.PnL
	}
	if s.Total > 0 {
		s.WinRate = float64(s.Winners) * 100 / float64(s.Total)
	}
	return s
}

// dailyMetrics is the per-day performance block shared by all summaries.
type dailyMetrics struct {
	Total         int
	Winners       int
	Losers        int
	Breakeven     int
	TotalPnL      float64
	WinRate       float64
	AvgR          float64
	AvgConfidence float64
}

func computeDailyMetrics(trades []journal.TradeRecord) dailyMetrics {
	m := dailyMetrics{Total: len(trades)}

	var rSum float64
	var rCount int
	var confSum float64
	for _, t := range trades {
		switch {
		case t.PnL > 0:
			m.Winners++
		case t.PnL < 0:
			m.Losers++
		}
		m.TotalPnL += t.PnL
		if t.PnLR != 0 {
			rSum += t.PnLR
			rCount++
		}
		confSum += t.Confidence
	}
	m.Breakeven = m.Total - m.Winners - m.Losers

	if m.Total > 0 {
		m.WinRate = float64(m.Winners) * 100 / float64(m.Total)
		m.AvgConfidence = confSum / float64(m.Total)
	}
	if rCount > 0 {
		m.AvgR = rSum / float64(rCount)
	}
	return m
}

// weeklyMetrics extends the daily block with breakdowns, streaks and
// risk-adjusted figures.
type weeklyMetrics struct {
	dailyMetrics

	Start time.Time
	End   time.Time

	ByStrategy map[string]groupStats
	BySession  map[string]groupStats
	ByWeekday  map[string]groupStats
	BestDay    string
	WorstDay   string

	MaxWinStreak  int
	MaxLossStreak int

	ProfitFactor float64 // +Inf when there are wins but no losses
	AvgWin       float64
	AvgLoss      float64 // negative
	BestTrade    float64
	WorstTrade   float64
}

func computeWeeklyMetrics(trades []journal.TradeRecord, start, end time.Time) weeklyMetrics {
	m := weeklyMetrics{
		dailyMetrics: computeDailyMetrics(trades),
		Start:        start,
		End:          end,
		ByStrategy:   map[string]groupStats{},
		BySession:    map[string]groupStats{},
		ByWeekday:    map[string]groupStats{},
	}

	byStrategy := map[string][]journal.TradeRecord{}
	bySession := map[string][]journal.TradeRecord{}
	byWeekday := map[string][]journal.TradeRecord{}
	for _, t := range trades {
		byStrategy[t.Strategy] = append(byStrategy[t.Strategy], t)
		bySession[t.Session()] = append(bySession[t.Session()], t)
		day := t.Timestamp.UTC().Weekday().String()
		byWeekday[day] = append(byWeekday[day], t)
	}
	for k, v := range byStrategy {
		m.ByStrategy[k] = statsOf(v)
	}
	for k, v := range bySession {
		m.BySession[k] = statsOf(v)
	}

	bestPnL, worstPnL := math.Inf(-1), math.Inf(1)
	for k, v := range byWeekday {
		s := statsOf(v)
		m.ByWeekday[k] = s
		if s.TotalPnL > bestPnL {
			bestPnL, m.BestDay = s.TotalPnL, k
		}
		if s.TotalPnL < worstPnL {
			worstPnL, m.WorstDay = s.TotalPnL, k
		}
	}

	// Streaks over the chronological sequence. Breakeven trades reset both.
	sorted := make([]journal.TradeRecord, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	var winRun, lossRun int
	for _, t := range sorted {
		switch {
		case t.PnL > 0:
			winRun++
			lossRun = 0
		case t.PnL < 0:
			lossRun++
			winRun = 0
		default:
			winRun, lossRun = 0, 0
		}
		if winRun > m.MaxWinStreak {
			m.MaxWinStreak = winRun
		}
		if lossRun > m.MaxLossStreak {
			m.MaxLossStreak = lossRun
		}
	}

	var grossWins, grossLosses float64
	var winN, lossN int
	for _, t := range trades {
		switch {
		case t.PnL > 0:
			grossWins += t.PnL
			winN++
		case t.PnL < 0:
			grossLosses += -t.PnL
			lossN++
		}
		if t.PnL > m.BestTrade {
			m.BestTrade = t.PnL
		}
		if t.PnL < m.WorstTrade {
			m.WorstTrade = t.PnL
		}
	}
	switch {
	case grossLosses > 0:
		m.ProfitFactor = grossWins / grossLosses
	case grossWins > 0:
		m.ProfitFactor = math.Inf(1)
	}
	if winN > 0 {
		m.AvgWin = grossWins / float64(winN)
	}
	if lossN > 0 {
		m.AvgLoss = -grossLosses / float64(lossN)
	}
	return m
}

// weekTrend is one calendar week's slice of a monthly summary.
type weekTrend struct {
	Week    int
	Start   time.Time
	End     time.Time
	Trades  int
	WinRate float64
	PnL     float64
}

// strategyShift compares a strategy's first-half and second-half win rates
// within the month.
type strategyShift struct {
	FirstHalfTrades  int
	FirstHalfWR      float64
	SecondHalfTrades int
	SecondHalfWR     float64
	Direction        string // improving | declining | stable
}

// monthlyMetrics extends the weekly block with trend and evolution views.
type monthlyMetrics struct {
	weeklyMetrics

	TradingDays     int
	AvgTradesPerDay float64
	WeeklyTrends    []weekTrend
	TrendDirection  string // improving | declining | stable | insufficient_data
	Evolution       map[string]strategyShift
}

func computeMonthlyMetrics(trades []journal.TradeRecord, start, end time.Time) monthlyMetrics {
	m := monthlyMetrics{
		weeklyMetrics: computeWeeklyMetrics(trades, start, end),
		Evolution:     map[string]strategyShift{},
	}

	days := map[string]bool{}
	for _, t := range trades {
		days[t.Timestamp.UTC().Format("2006-01-02")] = true
	}
	m.TradingDays = len(days)
	if m.TradingDays > 0 {
		m.AvgTradesPerDay = float64(m.Total) / float64(m.TradingDays)
	}

	// Week-by-week slices of the month.
	weekNum := 1
	for cur := start; !cur.After(end); weekNum++ {
		wEnd := cur.AddDate(0, 0, 6)
		if wEnd.After(end) {
			wEnd = end
		}
		var wTrades []journal.TradeRecord
		for _, t := range trades {
			d := dateOnly(t.Timestamp)
			if !d.Before(cur) && !d.After(wEnd) {
				wTrades = append(wTrades, t)
			}
		}
		if len(wTrades) > 0 {
			s := statsOf(wTrades)
			m.WeeklyTrends = append(m.WeeklyTrends, weekTrend{
				Week:    weekNum,
				Start:   cur,
				End:     wEnd,
				Trades:  s.Total,
				WinRate: s.WinRate,
				PnL:     s.TotalPnL,
			})
		}
		cur = wEnd.AddDate(0, 0, 1)
	}

	m.TrendDirection = "insufficient_data"
	if len(m.WeeklyTrends) >= 2 {
		first := m.WeeklyTrends[0].WinRate
		last := m.WeeklyTrends[len(m.WeeklyTrends)-1].WinRate
		m.TrendDirection = shiftDirection(first, last)
	}

	// Strategy evolution across the month's halves.
	mid := start.AddDate(0, 0, int(end.Sub(start).Hours()/24)/2)
	for _, t := range trades {
		shift := m.Evolution[t.Strategy]
		if !dateOnly(t.Timestamp).After(mid) {
			shift.FirstHalfTrades++
			if t.PnL > 0 {
				shift.FirstHalfWR++ // win count for now, converted below
			}
		} else {
			shift.SecondHalfTrades++
			if t.PnL > 0 {
				shift.SecondHalfWR++
			}
		}
		m.Evolution[t.Strategy] = shift
	}
	for strat, shift := range m.Evolution {
		if shift.FirstHalfTrades > 0 {
			shift.FirstHalfWR = shift.FirstHalfWR * 100 / float64(shift.FirstHalfTrades)
		}
		if shift.SecondHalfTrades > 0 {
			shift.SecondHalfWR = shift.SecondHalfWR * 100 / float64(shift.SecondHalfTrades)
		}
		shift.Direction = shiftDirection(shift.FirstHalfWR, shift.SecondHalfWR)
		m.Evolution[strat] = shift
	}
	return m
}

// shiftDirection labels a win-rate move; swings within 5 points are noise.
func shiftDirection(from, to float64) string {
	switch {
	case to > from+5:
		return "improving"
	case to < from-5:
		return "declining"
	default:
		return "stable"
	}
}

func dateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
