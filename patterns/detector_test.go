package patterns

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradememory/journal"
)

var testBase = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

// btTrades builds n closed backtest records for one variant tag, each with
// the given pnl, spaced an hour apart starting at start.
func btTrades(tag string, n int, pnl float64, start time.Time) []journal.TradeRecord {
	v := journal.ParseVariantTag(tag)
	out := make([]journal.TradeRecord, 0, n)
	for i := 0; i < n; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)
		out = append(out, journal.TradeRecord{
			ID:         fmt.Sprintf("BT-%s-%04d", tag, i+1),
			Timestamp:  ts,
			Symbol:     v.Symbol,
			Direction:  journal.Long,
			LotSize:    0.05,
			Strategy:   v.Strategy,
			Confidence: 0.5,
			Reasoning:  "backtest",
			Market:     journal.MarketContext{Price: 2000, Session: journal.SessionLondon},
			ExitTime:   ts.Add(30 * time.Minute),
			ExitPrice:  2001,
			PnL:        pnl,
			Tags:       []string{"backtest", v.Strategy, v.Symbol, v.DirectionFilter, journal.SessionLondon},
		})
	}
	return out
}

func newTestDetector() *Detector {
	d := NewDetector(10000, "", zerolog.Nop())
	d.now = func() time.Time { return testBase.AddDate(0, 1, 0) }
	return d
}

func TestConfidenceFromSamples(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.30, ConfidenceFromSamples(0, false), 1e-9)
	assert.InDelta(t, 0.30, ConfidenceFromSamples(9, false), 1e-9)
	assert.InDelta(t, 0.50, ConfidenceFromSamples(10, false), 1e-9)
	assert.InDelta(t, 0.50, ConfidenceFromSamples(50, false), 1e-9)
	assert.InDelta(t, 0.70, ConfidenceFromSamples(51, false), 1e-9)
	assert.InDelta(t, 0.70, ConfidenceFromSamples(200, false), 1e-9)
	assert.InDelta(t, 0.85, ConfidenceFromSamples(201, false), 1e-9)

	// Consistency bonus, capped at 1.0.
	assert.InDelta(t, 0.95, ConfidenceFromSamples(300, true), 1e-9)
	assert.InDelta(t, 0.40, ConfidenceFromSamples(5, true), 1e-9)

	// Monotonically non-decreasing, always within [0, 1].
	prev := 0.0
	for n := 0; n <= 400; n += 7 {
		c := ConfidenceFromSamples(n, false)
		assert.GreaterOrEqual(t, c, prev)
		assert.GreaterOrEqual(t, c, 0.0)
		assert.LessOrEqual(t, c, 1.0)
		prev = c
	}
}

func TestDetectEmptyHistory(t *testing.T) {
	t.Parallel()

	d := newTestDetector()
	assert.Empty(t, d.Detect(nil))

	// Open trades only: still no patterns, never an error.
	open := journal.TradeRecord{ID: "T-1", Timestamp: testBase, Strategy: "VolBreakout", Symbol: "XAUUSD"}
	assert.Empty(t, d.Detect([]journal.TradeRecord{open}))
}

func TestDetectStrategyRanking(t *testing.T) {
	t.Parallel()

	d := newTestDetector()

	var trades []journal.TradeRecord
	// VolBreakout: one profitable variant, one losing, net +300 (+3.0%).
	trades = append(trades, btTrades("VB_XAUUSD_BUY_RR3", 10, 50, testBase)...)
	trades = append(trades, btTrades("VB_XAUUSD_BOTH_RR3", 10, -20, testBase)...)
	// PullbackEntry: net +1000 (+10.0%), ranks first.
	trades = append(trades, btTrades("PB_EURUSD_BUY_RR2", 12, 100, testBase)...)
	trades = append(trades, btTrades("PB_EURUSD_BOTH_RR2", 12, -15, testBase)...)

	var ranking []Pattern
	for _, p := range d.Detect(trades) {
		if p.Type == TypeStrategyRanking {
			ranking = append(ranking, p)
		}
	}
	require.Len(t, ranking, 2)

	// Ordered by total pnl descending.
	assert.Equal(t, "AUTO-RANK-001", ranking[0].ID)
	assert.Equal(t, "PullbackEntry", ranking[0].Strategy)
	assert.Equal(t, "VolBreakout", ranking[1].Strategy)

	m := ranking[0].Metrics.Ranking
	require.NotNil(t, m)
	assert.InDelta(t, 10.2, m.PnLPct, 1e-9) // (1200-180)/100
	assert.Equal(t, 2, m.VariantsTotal)
	assert.Equal(t, 1, m.VariantsProfitable)
	assert.InDelta(t, 0.50, ranking[0].Confidence, 1e-9) // n=24

	m = ranking[1].Metrics.Ranking
	require.NotNil(t, m)
	assert.InDelta(t, 3.0, m.PnLPct, 1e-9)
	assert.Equal(t, 1, m.VariantsProfitable)
}

func TestDetectDirectionBias(t *testing.T) {
	t.Parallel()

	d := newTestDetector()

	var trades []journal.TradeRecord
	// BUY +8.0%, BOTH +1.0% -> delta +7.0, emitted.
	trades = append(trades, btTrades("VB_XAUUSD_BUY_RR3", 16, 50, testBase)...)
	trades = append(trades, btTrades("VB_XAUUSD_BOTH_RR3", 20, 5, testBase)...)
	// Delta 2.0 -> noise, suppressed.
	trades = append(trades, btTrades("PB_EURUSD_BUY_RR2", 10, 30, testBase)...)
	trades = append(trades, btTrades("PB_EURUSD_BOTH_RR2", 10, 10, testBase)...)

	var bias []Pattern
	for _, p := range d.Detect(trades) {
		if p.Type == TypeDirectionBias {
			bias = append(bias, p)
		}
	}
	require.Len(t, bias, 1)

	p := bias[0]
	assert.Equal(t, "AUTO-DIR-001", p.ID)
	assert.Equal(t, "VolBreakout", p.Strategy)
	assert.Equal(t, "XAUUSD", p.Symbol)
	assert.Equal(t, 36, p.SampleSize)

	m := p.Metrics.DirectionBias
	require.NotNil(t, m)
	assert.Equal(t, "BUY", m.DirectionFilter)
	assert.InDelta(t, 8.0, m.DirPnLPct, 1e-9)
	assert.InDelta(t, 1.0, m.BothPnLPct, 1e-9)
	assert.InDelta(t, 7.0, m.Delta, 1e-9)
	assert.Equal(t, 16, m.DirN)
	assert.Equal(t, 20, m.BothN)

	// |delta| 7 is significant but below the consistency band: base 0.5 for
	// min(n)=16, no bonus.
	assert.InDelta(t, 0.50, p.Confidence, 1e-9)
}

func TestDetectDirectionBiasConsistencyBonus(t *testing.T) {
	t.Parallel()

	d := newTestDetector()

	var trades []journal.TradeRecord
	// Delta +15.0 -> earns the +0.10 bonus.
	trades = append(trades, btTrades("VB_XAUUSD_BUY_RR3", 12, 150, testBase)...)
	trades = append(trades, btTrades("VB_XAUUSD_BOTH_RR3", 12, 25, testBase)...)

	for _, p := range d.Detect(trades) {
		if p.Type == TypeDirectionBias {
			assert.InDelta(t, 0.60, p.Confidence, 1e-9)
			return
		}
	}
	t.Fatal("no direction_bias pattern emitted")
}

func TestDetectSymbolFit(t *testing.T) {
	t.Parallel()

	d := newTestDetector()

	var trades []journal.TradeRecord
	// VolBreakout on two symbols: +12.0% vs -3.0%, spread 15 -> emitted.
	trades = append(trades, btTrades("VB_XAUUSD_BOTH_RR3", 12, 100, testBase)...)
	trades = append(trades, btTrades("VB_EURUSD_BOTH_RR3", 10, -30, testBase)...)
	// PullbackEntry spread below 10 -> suppressed.
	trades = append(trades, btTrades("PB_XAUUSD_BOTH_RR2", 10, 20, testBase)...)
	trades = append(trades, btTrades("PB_EURUSD_BOTH_RR2", 10, 10, testBase)...)

	var fit []Pattern
	for _, p := range d.Detect(trades) {
		if p.Type == TypeSymbolFit {
			fit = append(fit, p)
		}
	}
	require.Len(t, fit, 1)

	m := fit[0].Metrics.SymbolFit
	require.NotNil(t, m)
	assert.Equal(t, "XAUUSD", m.BestSymbol)
	assert.Equal(t, "EURUSD", m.WorstSymbol)
	assert.InDelta(t, 15.0, m.Delta, 1e-9)
	assert.False(t, m.SingleSymbol)
	assert.Len(t, m.Symbols, 2)
}

func TestDetectSingleSymbolSpecialist(t *testing.T) {
	t.Parallel()

	d := newTestDetector()

	var trades []journal.TradeRecord
	// Specialist: one symbol, n>=10, +80.0%.
	trades = append(trades, btTrades("IM_GBPUSD_BOTH_TH0.5", 12, 666.67, testBase)...)
	// Field: a multi-symbol strategy averaging ~+1% on other symbols.
	trades = append(trades, btTrades("VB_XAUUSD_BOTH_RR3", 12, 10, testBase)...)
	trades = append(trades, btTrades("VB_EURUSD_BOTH_RR3", 12, 8, testBase)...)

	var specialist *Pattern
	for _, p := range d.Detect(trades) {
		if p.Type == TypeSymbolFit && p.Metrics.SymbolFit.SingleSymbol {
			specialist = &p
			break
		}
	}
	require.NotNil(t, specialist, "specialist pattern not emitted")

	assert.Equal(t, "IntradayMomentum", specialist.Strategy)
	assert.Equal(t, "GBPUSD", specialist.Symbol)
	m := specialist.Metrics.SymbolFit
	assert.GreaterOrEqual(t, m.PnLAdvantage, 50.0)
	assert.Equal(t, "GBPUSD", m.BestSymbol)
}

func TestDetectDiagnostic(t *testing.T) {
	t.Parallel()

	d := newTestDetector()

	var trades []journal.TradeRecord
	trades = append(trades, btTrades("MR_XAUUSD_BUY_SL2.0", 10, 40, testBase)...)
	trades = append(trades, btTrades("MR_XAUUSD_BOTH_SL2.0", 10, -25, testBase)...)

	found := map[string]Pattern{}
	for _, p := range d.Detect(trades) {
		if p.Type == TypeMeanRevAnalysis {
			found[p.ID] = p
		}
	}

	overall, ok := found["AUTO-MR-001"]
	require.True(t, ok)
	m := overall.Metrics.MeanRev.Overall
	require.NotNil(t, m)
	assert.Equal(t, 2, m.VariantsTotal)
	assert.Equal(t, 1, m.VariantsProfitable)
	assert.InDelta(t, 0.8, m.AvgPnLPct, 1e-9) // (+4.0 + -2.5) / 2

	split, ok := found["AUTO-MR-002"]
	require.True(t, ok)
	dm := split.Metrics.MeanRev.Direction
	require.NotNil(t, dm)
	assert.InDelta(t, 4.0, dm.DirAvgPnLPct, 1e-9)
	assert.InDelta(t, -2.5, dm.BothAvgPnLPct, 1e-9)
	assert.InDelta(t, 6.5, dm.Delta, 1e-9)

	// Constant lot sizes: no shrinkage warning.
	_, ok = found["AUTO-MR-003"]
	assert.False(t, ok)
}

func TestDetectDiagnosticLotShrink(t *testing.T) {
	t.Parallel()

	d := newTestDetector()

	early := btTrades("MR_XAUUSD_BOTH_SL2.0", 10, 5, testBase)
	late := btTrades("MR_XAUUSD_BOTH_SL3.0", 10, 5, testBase.AddDate(0, 2, 0))
	for i := range late {
		late[i].LotSize = 0.01 // 80% smaller than the earlier 0.05
	}

	var trades []journal.TradeRecord
	trades = append(trades, early...)
	trades = append(trades, late...)

	var shrink *Pattern
	for _, p := range d.Detect(trades) {
		if p.ID == "AUTO-MR-003" {
			shrink = &p
			break
		}
	}
	require.NotNil(t, shrink, "lot shrink pattern not emitted")

	m := shrink.Metrics.MeanRev.LotShrink
	require.NotNil(t, m)
	assert.InDelta(t, 0.01, m.RecentAvgLot, 1e-9)
	assert.InDelta(t, 0.05, m.EarlierAvgLot, 1e-9)
	assert.InDelta(t, 80.0, m.ShrinkagePct, 1e-9)
}

func TestDetectTopVariants(t *testing.T) {
	t.Parallel()

	d := newTestDetector()

	var trades []journal.TradeRecord
	// Seven variants above the trade floor, one below it.
	for i, pnl := range []float64{90, 60, 40, 20, 10, -10, -40} {
		tag := fmt.Sprintf("VB_XAUUSD_BUY_RR%d", i+1)
		trades = append(trades, btTrades(tag, 10, pnl, testBase)...)
	}
	trades = append(trades, btTrades("VB_XAUUSD_BUY_THIN", 4, 999, testBase)...)

	found := map[string]Pattern{}
	for _, p := range d.Detect(trades) {
		if p.Type == TypeTopVariant {
			found[p.ID] = p
		}
	}
	require.Len(t, found, 2)

	top := found["AUTO-TOP-001"].Metrics.VariantList
	require.NotNil(t, top)
	require.Len(t, top.Ranking, 5)
	assert.Equal(t, "VB_XAUUSD_BUY_RR1", top.Ranking[0].Tag)
	assert.InDelta(t, 9.0, top.Ranking[0].PnLPct, 1e-9)
	// The thin variant is excluded despite its huge pnl.
	for _, v := range top.Ranking {
		assert.NotEqual(t, "VB_XAUUSD_BUY_THIN", v.Tag)
	}

	bottom := found["AUTO-BOT-001"].Metrics.VariantList
	require.NotNil(t, bottom)
	require.Len(t, bottom.Ranking, 5)
	assert.Equal(t, "VB_XAUUSD_BUY_RR7", bottom.Ranking[4].Tag)
	assert.InDelta(t, -4.0, bottom.Ranking[4].PnLPct, 1e-9)
}

type sliceSource []journal.TradeRecord

func (s sliceSource) QueryTrades(journal.Query) ([]journal.TradeRecord, error) {
	return s, nil
}

func TestDiscoverIdempotent(t *testing.T) {
	t.Parallel()

	d := newTestDetector()
	store := newTestStore(t)

	var trades []journal.TradeRecord
	trades = append(trades, btTrades("VB_XAUUSD_BUY_RR3", 16, 50, testBase)...)
	trades = append(trades, btTrades("VB_XAUUSD_BOTH_RR3", 20, 5, testBase)...)
	trades = append(trades, btTrades("PB_EURUSD_BOTH_RR2", 12, 100, testBase)...)
	src := sliceSource(trades)

	first, err := d.Discover(src, store)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	count1, err := store.Count()
	require.NoError(t, err)

	second, err := d.Discover(src, store)
	require.NoError(t, err)

	count2, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, count1, count2, "re-run must not grow the stored set")

	ids := func(ps []Pattern) []string {
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = p.ID
		}
		return out
	}
	assert.ElementsMatch(t, ids(first), ids(second))
}
