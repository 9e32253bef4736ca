package reflection

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"tradememory/journal"
)

const dateLayout = "2006-01-02"

func noTradesDaily(day time.Time) string {
	return fmt.Sprintf(`=== DAILY SUMMARY: %s ===

PERFORMANCE:
No trades today.

STATUS: Waiting for market opportunities.
`, day.Format(dateLayout))
}

func formatDaily(day time.Time, trades []journal.TradeRecord, m dailyMetrics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== DAILY SUMMARY: %s ===\n\n", day.Format(dateLayout))
	fmt.Fprintf(&b, "PERFORMANCE:\nTrades: %d | Winners: %d | Losers: %d\n", m.Total, m.Winners, m.Losers)
	fmt.Fprintf(&b, "Net P&L: $%.2f | Win Rate: %.1f%% | Avg R: %.2f\n\n", m.TotalPnL, m.WinRate, m.AvgR)

	if m.Total < 3 {
		b.WriteString("STATUS: Insufficient data for pattern analysis.\n\n")
	}

	var observations []string
	if m.AvgConfidence > 0.8 {
		observations = append(observations,
			fmt.Sprintf("High average confidence (%.2f), agent is selective.", m.AvgConfidence))
	}
	if m.WinRate > 60 {
		observations = append(observations,
			fmt.Sprintf("Strong win rate (%.1f%%), edge appears present.", m.WinRate))
	} else if m.WinRate < 40 {
		observations = append(observations,
			fmt.Sprintf("Low win rate (%.1f%%), review entry criteria.", m.WinRate))
	}
	if m.AvgR < 0 {
		observations = append(observations,
			fmt.Sprintf("Negative avg R (%.2f), risk management issue.", m.AvgR))
	}
	writeList(&b, "KEY OBSERVATIONS:", observations, 3)

	// Losing trades entered with high confidence deserve a second look.
	var mistakes []string
	for _, t := range trades {
		if t.PnL < 0 && t.Confidence > 0.75 {
			mistakes = append(mistakes,
				fmt.Sprintf("%s: High confidence (%.2f) but lost $%.2f", t.ID, t.Confidence, -t.PnL))
		}
	}
	writeList(&b, "MISTAKES:", mistakes, 2)

	b.WriteString("TOMORROW:\n")
	advised := false
	if m.WinRate < 50 {
		b.WriteString("- Review entry criteria, consider tighter filters.\n")
		advised = true
	}
	if m.AvgR < 1.0 {
		b.WriteString("- Focus on improving R-multiple, trail stops more aggressively.\n")
		advised = true
	}
	if len(observations) == 0 && !advised {
		b.WriteString("- Continue monitoring. More data needed.\n")
	}
	return b.String()
}

func noTradesWeekly(start, end time.Time) string {
	return fmt.Sprintf(`=== WEEKLY SUMMARY: %s to %s ===

PERFORMANCE:
No trades this week.

STATUS: Waiting for market opportunities.
`, start.Format(dateLayout), end.Format(dateLayout))
}

func formatWeekly(m weeklyMetrics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== WEEKLY SUMMARY: %s to %s ===\n\n",
		m.Start.Format(dateLayout), m.End.Format(dateLayout))
	fmt.Fprintf(&b, "PERFORMANCE:\nTrades: %d | Winners: %d | Losers: %d\n", m.Total, m.Winners, m.Losers)
	fmt.Fprintf(&b, "Net P&L: $%.2f | Win Rate: %.1f%% | Avg R: %.2f | Profit Factor: %s\n\n",
		m.TotalPnL, m.WinRate, m.AvgR, profitFactorString(m.ProfitFactor))

	if m.Total < 5 {
		b.WriteString("STATUS: Insufficient data for weekly pattern analysis.\n\n")
	}

	if len(m.ByStrategy) > 0 {
		b.WriteString("STRATEGY BREAKDOWN:\n")
		for _, strat := range sortedStatKeys(m.ByStrategy) {
			s := m.ByStrategy[strat]
			flag := ""
			if s.WinRate >= 60 {
				flag = " [STRONG]"
			} else if s.WinRate <= 35 {
				flag = " [WEAK]"
			}
			fmt.Fprintf(&b, "- %s: %d trades, %d wins, WR %.1f%%, P&L $%.2f%s\n",
				strat, s.Total, s.Winners, s.WinRate, s.TotalPnL, flag)
		}
		b.WriteString("\n")
	}

	if len(m.BySession) > 0 {
		b.WriteString("SESSION PATTERNS:\n")
		for _, sess := range sortedStatKeys(m.BySession) {
			s := m.BySession[sess]
			fmt.Fprintf(&b, "- %s: %d trades, WR %.1f%%, P&L $%.2f\n",
				sess, s.Total, s.WinRate, s.TotalPnL)
		}
		b.WriteString("\n")
	}

	if m.BestDay != "" {
		fmt.Fprintf(&b, "DAY OF WEEK:\n- Best: %s\n- Worst: %s\n\n", m.BestDay, m.WorstDay)
	}

	fmt.Fprintf(&b, "STREAKS:\n- Max win streak: %d\n- Max loss streak: %d\n\n",
		m.MaxWinStreak, m.MaxLossStreak)

	var observations []string
	if m.WinRate > 60 {
		observations = append(observations,
			fmt.Sprintf("Strong weekly win rate (%.1f%%), edge consistent.", m.WinRate))
	} else if m.WinRate < 40 {
		observations = append(observations,
			fmt.Sprintf("Low weekly win rate (%.1f%%), review entry criteria.", m.WinRate))
	}
	if m.MaxLossStreak >= 3 {
		observations = append(observations,
			fmt.Sprintf("Loss streak of %d detected, check for tilt or regime change.", m.MaxLossStreak))
	}
	if m.AvgLoss != 0 && m.AvgWin > 0 {
		if rr := m.AvgWin / -m.AvgLoss; rr < 1.0 {
			observations = append(observations,
				fmt.Sprintf("Reward/risk ratio %.2f < 1.0, improve target placement.", rr))
		}
	}
	for _, strat := range sortedStatKeys(m.ByStrategy) {
		s := m.ByStrategy[strat]
		if s.Total >= 3 && s.WinRate <= 30 {
			observations = append(observations,
				fmt.Sprintf("Strategy %q underperforming (%.0f%% WR), consider pausing.", strat, s.WinRate))
		}
	}
	writeList(&b, "KEY OBSERVATIONS:", observations, 4)

	b.WriteString("NEXT WEEK:\n")
	if m.WinRate < 50 {
		b.WriteString("- Tighten entry filters, selectivity over volume.\n")
	}
	if m.MaxLossStreak >= 3 {
		b.WriteString("- Implement cooldown after 3 consecutive losses.\n")
	}
	if len(observations) == 0 {
		b.WriteString("- Continue current approach. More data needed for patterns.\n")
	}
	return b.String()
}

func noTradesMonthly(year int, month time.Month) string {
	return fmt.Sprintf(`=== MONTHLY SUMMARY: %d-%02d ===

PERFORMANCE:
No trades this month.

STATUS: Waiting for market opportunities.
`, year, int(month))
}

func formatMonthly(year int, month time.Month, m monthlyMetrics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== MONTHLY SUMMARY: %d-%02d ===\n\n", year, int(month))
	fmt.Fprintf(&b, "PERFORMANCE:\nTrades: %d | Winners: %d | Losers: %d\n", m.Total, m.Winners, m.Losers)
	fmt.Fprintf(&b, "Net P&L: $%.2f | Win Rate: %.1f%% | Avg R: %.2f | Profit Factor: %s\n",
		m.TotalPnL, m.WinRate, m.AvgR, profitFactorString(m.ProfitFactor))
	fmt.Fprintf(&b, "Trading Days: %d | Avg Trades/Day: %.1f\n\n", m.TradingDays, m.AvgTradesPerDay)

	if len(m.WeeklyTrends) > 0 {
		b.WriteString("WEEKLY TRENDS:\n")
		for _, wt := range m.WeeklyTrends {
			fmt.Fprintf(&b, "- Week %d (%s to %s): %d trades, WR %.1f%%, P&L $%.2f\n",
				wt.Week, wt.Start.Format(dateLayout), wt.End.Format(dateLayout),
				wt.Trades, wt.WinRate, wt.PnL)
		}
		fmt.Fprintf(&b, "- Trend: %s\n\n", m.TrendDirection)
	}

	if len(m.ByStrategy) > 0 {
		b.WriteString("STRATEGY BREAKDOWN:\n")
		for _, strat := range sortedStatKeys(m.ByStrategy) {
			s := m.ByStrategy[strat]
			flag := ""
			if s.WinRate >= 60 {
				flag = " [STRONG]"
			} else if s.WinRate <= 35 {
				flag = " [WEAK]"
			}
			fmt.Fprintf(&b, "- %s: %d trades, %d wins, WR %.1f%%, P&L $%.2f%s\n",
				strat, s.Total, s.Winners, s.WinRate, s.TotalPnL, flag)
		}
		b.WriteString("\n")
	}

	if len(m.Evolution) > 0 {
		b.WriteString("STRATEGY EVOLUTION:\n")
		for _, strat := range sortedStatKeys(m.Evolution) {
			evo := m.Evolution[strat]
			fmt.Fprintf(&b, "- %s: 1st half WR %.1f%% (%d trades) -> 2nd half WR %.1f%% (%d trades) [%s]\n",
				strat, evo.FirstHalfWR, evo.FirstHalfTrades,
				evo.SecondHalfWR, evo.SecondHalfTrades, evo.Direction)
		}
		b.WriteString("\n")
	}

	if len(m.BySession) > 0 {
		b.WriteString("SESSION PATTERNS:\n")
		for _, sess := range sortedStatKeys(m.BySession) {
			s := m.BySession[sess]
			fmt.Fprintf(&b, "- %s: %d trades, WR %.1f%%, P&L $%.2f\n",
				sess, s.Total, s.WinRate, s.TotalPnL)
		}
		b.WriteString("\n")
	}

	var observations []string
	switch m.TrendDirection {
	case "improving":
		observations = append(observations, "Win rate trending upward across weeks, adaptation working.")
	case "declining":
		observations = append(observations, "Win rate declining across weeks, review for regime change.")
	}
	for _, strat := range sortedStatKeys(m.Evolution) {
		evo := m.Evolution[strat]
		if evo.Direction == "declining" && evo.FirstHalfTrades >= 3 {
			observations = append(observations,
				fmt.Sprintf("Strategy %q declining (%.0f%% -> %.0f%%), reassess.", strat, evo.FirstHalfWR, evo.SecondHalfWR))
		}
	}
	if m.WinRate > 55 {
		observations = append(observations,
			fmt.Sprintf("Solid monthly win rate (%.1f%%), maintain discipline.", m.WinRate))
	} else if m.WinRate < 40 {
		observations = append(observations,
			fmt.Sprintf("Low monthly win rate (%.1f%%), major review needed.", m.WinRate))
	}
	writeList(&b, "KEY OBSERVATIONS:", observations, 4)

	b.WriteString("NEXT MONTH:\n")
	if m.TrendDirection == "declining" {
		b.WriteString("- Reduce position sizes until trend stabilizes.\n")
	}
	if m.WinRate < 45 {
		b.WriteString("- Focus on highest-conviction setups only.\n")
	}
	for _, strat := range sortedStatKeys(m.Evolution) {
		evo := m.Evolution[strat]
		if evo.Direction == "declining" && evo.SecondHalfWR < 35 {
			fmt.Fprintf(&b, "- Consider pausing strategy %q.\n", strat)
		}
	}
	if len(observations) == 0 {
		b.WriteString("- Continue current approach. More data needed.\n")
	}
	return b.String()
}

// Prompts mirror the rule-based templates so that provider output can be
// checked against the same section markers.

func dailyPrompt(day time.Time, trades []journal.TradeRecord, m dailyMetrics) string {
	return fmt.Sprintf(`You are a trade reflection engine. Analyze today's trade records and produce a structured daily summary.

## Input
%s

## Output format (follow exactly)
=== DAILY SUMMARY: %s ===

PERFORMANCE:
Trades: %d | Winners: %d | Losers: %d
Net P&L: $%.2f | Win Rate: %.1f%% | Avg R: %.2f

KEY OBSERVATIONS:
- [at most 3, one or two sentences each, focused on actionable insight]

MISTAKES:
- [call out clearly wrong trades and why]

TOMORROW:
- [what to watch tomorrow based on today]

## Rules
- No filler, no encouragement.
- Only observations backed by the data.
- If there were no trades, write only "No trades today."
- With fewer than 3 trades, note "Insufficient data for pattern analysis."
`, tradesJSON(trades), day.Format(dateLayout), m.Total, m.Winners, m.Losers, m.TotalPnL, m.WinRate, m.AvgR)
}

func weeklyPrompt(trades []journal.TradeRecord, m weeklyMetrics) string {
	return fmt.Sprintf(`You are a trade reflection engine. Analyze this week's trade records and produce a structured weekly summary.

## Input
%s

## Output format (follow exactly)
=== WEEKLY SUMMARY: %s to %s ===

PERFORMANCE:
Trades: %d | Winners: %d | Losers: %d
Net P&L: $%.2f | Win Rate: %.1f%%

STRATEGY BREAKDOWN:
- [trades / win rate / P&L per strategy]

SESSION PATTERNS:
- [performance per session]

KEY OBSERVATIONS:
- [at most 4, one or two sentences each, focused on actionable insight]

NEXT WEEK:
- [what to watch next week based on this week]

## Rules
- No filler, no encouragement.
- Only observations backed by the data.
- With fewer than 5 trades, note "Insufficient data for weekly pattern analysis."
`, tradesJSON(trades), m.Start.Format(dateLayout), m.End.Format(dateLayout),
		m.Total, m.Winners, m.Losers, m.TotalPnL, m.WinRate)
}

func monthlyPrompt(year int, month time.Month, trades []journal.TradeRecord, m monthlyMetrics) string {
	return fmt.Sprintf(`You are a trade reflection engine. Analyze this month's trade records and produce a structured monthly summary.

## Input
%s

## Output format (follow exactly)
=== MONTHLY SUMMARY: %d-%02d ===

PERFORMANCE:
Trades: %d | Winners: %d | Losers: %d
Net P&L: $%.2f | Win Rate: %.1f%%

WEEKLY TRENDS:
- [trades / win rate / P&L per week, plus the trend direction]

STRATEGY BREAKDOWN:
- [detailed performance per strategy]

STRATEGY EVOLUTION:
- [first half vs second half of the month per strategy]

KEY OBSERVATIONS:
- [at most 4, month-level insights]

NEXT MONTH:
- [strategic recommendations]

## Rules
- No filler, no encouragement.
- Only observations backed by the data.
- Emphasize monthly trends and strategy evolution.
`, tradesJSON(trades), year, int(month), m.Total, m.Winners, m.Losers, m.TotalPnL, m.WinRate)
}

// Validators enforce the structural contract on provider output: the exact
// header, the performance block, and at least two of the section markers.

func validateDaily(out string, day time.Time) bool {
	header := fmt.Sprintf("=== DAILY SUMMARY: %s ===", day.Format(dateLayout))
	return validateSections(out, 50, header,
		[]string{"KEY OBSERVATIONS:", "MISTAKES:", "TOMORROW:"})
}

func validateWeekly(out string, start, end time.Time) bool {
	header := fmt.Sprintf("=== WEEKLY SUMMARY: %s to %s ===",
		start.Format(dateLayout), end.Format(dateLayout))
	return validateSections(out, 80, header,
		[]string{"STRATEGY BREAKDOWN:", "SESSION PATTERNS:", "KEY OBSERVATIONS:", "NEXT WEEK:"})
}

func validateMonthly(out string, year int, month time.Month) bool {
	header := fmt.Sprintf("=== MONTHLY SUMMARY: %d-%02d ===", year, int(month))
	return validateSections(out, 80, header,
		[]string{"WEEKLY TRENDS:", "STRATEGY BREAKDOWN:", "KEY OBSERVATIONS:", "NEXT MONTH:"})
}

func validateSections(out string, minLen int, header string, optional []string) bool {
	if len(out) < minLen {
		return false
	}
	for _, required := range []string{header, "PERFORMANCE:", "Trades:", "Win Rate:"} {
		if !strings.Contains(out, required) {
			return false
		}
	}
	found := 0
	for _, s := range optional {
		if strings.Contains(out, s) {
			found++
		}
	}
	return found >= 2
}

func writeList(b *strings.Builder, title string, items []string, max int) {
	if len(items) == 0 {
		return
	}
	if len(items) > max {
		items = items[:max]
	}
	b.WriteString(title + "\n")
	for _, item := range items {
		b.WriteString("- " + item + "\n")
	}
	b.WriteString("\n")
}

func tradesJSON(trades []journal.TradeRecord) string {
	encoded, err := json.MarshalIndent(trades, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(encoded)
}

func profitFactorString(pf float64) string {
	if math.IsInf(pf, 1) {
		return "INF"
	}
	return fmt.Sprintf("%.2f", pf)
}

func sortedStatKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
