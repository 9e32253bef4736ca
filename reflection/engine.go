// Package reflection renders daily, weekly and monthly narrative summaries
// of trade history. A language-model provider can be injected for richer
// prose; its output is validated against a fixed structural contract and
// falls back to the deterministic rule-based summary on any failure, so the
// narrative never regresses below the baseline.
package reflection

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"tradememory/journal"
)

// Provider produces narrative text from a prompt. Implementations wrap a
// language-model call; nil means rule-based summaries only.
type Provider func(model, prompt string) (string, error)

// TradeSource is the slice of the trade-history store the engine reads.
type TradeSource interface {
	QueryTrades(journal.Query) ([]journal.TradeRecord, error)
}

const (
	dailyQueryLimit = 1000
	rangeQueryLimit = 10000
	defaultModel    = "claude-sonnet-4-5"
	fallbackNoteFmt = "\n(narrative provider %s, using rule-based fallback)\n"
)

// Engine generates summaries over closed and open trade records alike; a
// decision without an outcome still counts toward activity figures.
type Engine struct {
	trades   TradeSource
	provider Provider
	model    string
	log      zerolog.Logger
	now      func() time.Time
}

// NewEngine builds an engine. provider may be nil; model "" selects the
// default.
func NewEngine(trades TradeSource, provider Provider, model string, logger zerolog.Logger) *Engine {
	if model == "" {
		model = defaultModel
	}
	return &Engine{
		trades:   trades,
		provider: provider,
		model:    model,
		log:      logger,
		now:      time.Now,
	}
}

// Daily renders the summary for one UTC calendar day. A zero target means
// today.
func (e *Engine) Daily(target time.Time) (string, error) {
	if target.IsZero() {
		target = e.now()
	}
	day := dateOnly(target)

	all, err := e.trades.QueryTrades(journal.Query{Limit: dailyQueryLimit})
	if err != nil {
		return "", fmt.Errorf("load trades for daily summary: %w", err)
	}

	var trades []journal.TradeRecord
	for _, t := range all {
		if dateOnly(t.Timestamp).Equal(day) {
			trades = append(trades, t)
		}
	}
	if len(trades) == 0 {
		return noTradesDaily(day), nil
	}

	m := computeDailyMetrics(trades)
	rendered := func() string { return formatDaily(day, trades, m) }
	return e.withProvider(dailyPrompt(day, trades, m), func(out string) bool {
		return validateDaily(out, day)
	}, rendered), nil
}

// Weekly renders the summary for the seven days ending at weekEnding. A
// zero value means the most recent Sunday.
func (e *Engine) Weekly(weekEnding time.Time) (string, error) {
	if weekEnding.IsZero() {
		today := dateOnly(e.now())
		daysSinceSunday := int(today.Weekday()) % 7
		weekEnding = today.AddDate(0, 0, -daysSinceSunday)
	}
	end := dateOnly(weekEnding)
	start := end.AddDate(0, 0, -6)

	trades, err := e.tradesInRange(start, end)
	if err != nil {
		return "", fmt.Errorf("load trades for weekly summary: %w", err)
	}
	if len(trades) == 0 {
		return noTradesWeekly(start, end), nil
	}

	m := computeWeeklyMetrics(trades, start, end)
	rendered := func() string { return formatWeekly(m) }
	return e.withProvider(weeklyPrompt(trades, m), func(out string) bool {
		return validateWeekly(out, start, end)
	}, rendered), nil
}

// Monthly renders the summary for one calendar month. Zero year/month mean
// the current month.
func (e *Engine) Monthly(year int, month time.Month) (string, error) {
	if year == 0 || month == 0 {
		now := e.now().UTC()
		year, month = now.Year(), now.Month()
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)

	trades, err := e.tradesInRange(start, end)
	if err != nil {
		return "", fmt.Errorf("load trades for monthly summary: %w", err)
	}
	if len(trades) == 0 {
		return noTradesMonthly(year, month), nil
	}

	m := computeMonthlyMetrics(trades, start, end)
	rendered := func() string { return formatMonthly(year, month, m) }
	return e.withProvider(monthlyPrompt(year, month, trades, m), func(out string) bool {
		return validateMonthly(out, year, month)
	}, rendered), nil
}

func (e *Engine) tradesInRange(start, end time.Time) ([]journal.TradeRecord, error) {
	all, err := e.trades.QueryTrades(journal.Query{Limit: rangeQueryLimit})
	if err != nil {
		return nil, err
	}
	var out []journal.TradeRecord
	for _, t := range all {
		d := dateOnly(t.Timestamp)
		if !d.Before(start) && !d.After(end) {
			out = append(out, t)
		}
	}
	return out, nil
}

// withProvider tries the injected provider and falls back to the rule-based
// rendering when the provider is absent, fails, or produces output that
// misses the structural contract.
func (e *Engine) withProvider(prompt string, valid func(string) bool, fallback func() string) string {
	if e.provider == nil {
		return fallback()
	}

	out, err := e.provider(e.model, prompt)
	if err != nil {
		e.log.Warn().Err(err).Msg("narrative provider failed")
		return fallback() + fmt.Sprintf(fallbackNoteFmt, "failed: "+err.Error())
	}
	if !valid(out) {
		e.log.Warn().Msg("narrative provider output failed validation")
		return fallback() + fmt.Sprintf(fallbackNoteFmt, "output failed validation")
	}
	return out
}
