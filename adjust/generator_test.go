package adjust

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradememory/patterns"
)

var testNow = time.Date(2026, 2, 15, 8, 0, 0, 0, time.UTC)

func newTestGenerator() *Generator {
	g := NewGenerator(zerolog.Nop())
	g.now = func() time.Time { return testNow }
	return g
}

func rankingPattern(id, strategy string, pnlPct, confidence float64, n int) patterns.Pattern {
	return patterns.Pattern{
		ID:         id,
		Type:       patterns.TypeStrategyRanking,
		Confidence: confidence,
		SampleSize: n,
		Strategy:   strategy,
		Metrics: patterns.Metrics{Ranking: &patterns.RankingMetrics{
			PnLPct:       pnlPct,
			WinRate:      45.0,
			ProfitFactor: 1.1,
		}},
		Source:     patterns.SourceAuto,
		Validation: patterns.ValidationInSample,
	}
}

func biasPattern(id string, m patterns.DirectionBiasMetrics, confidence float64) patterns.Pattern {
	return patterns.Pattern{
		ID:         id,
		Type:       patterns.TypeDirectionBias,
		Confidence: confidence,
		SampleSize: m.DirN + m.BothN,
		Strategy:   "VolBreakout",
		Symbol:     "XAUUSD",
		Metrics:    patterns.Metrics{DirectionBias: &m},
		Source:     patterns.SourceAuto,
		Validation: patterns.ValidationInSample,
	}
}

func TestStrategyDisable(t *testing.T) {
	t.Parallel()

	g := newTestGenerator()

	// 60 trades, -1370 against a 10k baseline.
	out := g.Generate([]patterns.Pattern{
		rankingPattern("AUTO-RANK-003", "MeanReversion", -13.7, 0.7, 60),
	})
	require.Len(t, out, 1)

	a := out[0]
	assert.Equal(t, "ADJ-DISABLE-001", a.ID)
	assert.Equal(t, TypeStrategyDisable, a.Type)
	assert.Equal(t, "strategies.MeanReversion.enabled", a.Param)
	require.NotNil(t, a.Old.Enabled)
	require.NotNil(t, a.New.Enabled)
	assert.True(t, *a.Old.Enabled)
	assert.False(t, *a.New.Enabled)
	assert.Equal(t, StatusProposed, a.Status)
	assert.Equal(t, "AUTO-RANK-003", a.PatternID)
	assert.InDelta(t, 0.7, a.Confidence, 1e-9)
	assert.True(t, a.AppliedAt.IsZero())
}

func TestStrategyDisableThresholds(t *testing.T) {
	t.Parallel()

	g := newTestGenerator()

	// -5.0 exactly is not "worse than -5.0".
	assert.Empty(t, g.Generate([]patterns.Pattern{
		rankingPattern("AUTO-RANK-001", "MeanReversion", -5.0, 0.9, 60),
	}))

	// Confidence below 0.7 suppresses every rule.
	assert.Empty(t, g.Generate([]patterns.Pattern{
		rankingPattern("AUTO-RANK-001", "MeanReversion", -13.7, 0.5, 60),
	}))
}

func TestStrategyPrefer(t *testing.T) {
	t.Parallel()

	g := newTestGenerator()

	out := g.Generate([]patterns.Pattern{
		rankingPattern("AUTO-RANK-001", "PullbackEntry", 10.2, 0.7, 55),
		rankingPattern("AUTO-RANK-002", "VolBreakout", -2.0, 0.7, 40), // flat-ish, no rule
	})
	require.Len(t, out, 1)

	a := out[0]
	assert.Equal(t, "ADJ-PREFER-001", a.ID)
	assert.Equal(t, TypeStrategyPrefer, a.Type)
	assert.Equal(t, "strategies.PullbackEntry.priority", a.Param)
	require.NotNil(t, a.New.Priority)
	assert.Equal(t, "high", *a.New.Priority)
}

func TestExposureReduce(t *testing.T) {
	t.Parallel()

	g := newTestGenerator()

	out := g.Generate([]patterns.Pattern{
		biasPattern("AUTO-DIR-001", patterns.DirectionBiasMetrics{
			DirectionFilter: "BUY",
			DirPnLPct:       8.0, BothPnLPct: -4.0, Delta: 12.0,
			DirN: 20, BothN: 20,
			DirWinRate: 55.0, BothWinRate: 30.0,
		}, 0.7),
	})

	var reduce *Adjustment
	for i := range out {
		if out[i].Type == TypeSessionReduce {
			reduce = &out[i]
		}
	}
	require.NotNil(t, reduce, "exposure reduce not proposed")

	assert.Equal(t, "strategies.VolBreakout.symbols.XAUUSD.max_lot_factor", reduce.Param)
	require.NotNil(t, reduce.New.SizeFactor)
	assert.InDelta(t, 0.5, *reduce.New.SizeFactor, 1e-9)
}

func TestExposureReduceSampleFloor(t *testing.T) {
	t.Parallel()

	g := newTestGenerator()

	// 29 combined trades, one short of the floor.
	out := g.Generate([]patterns.Pattern{
		biasPattern("AUTO-DIR-001", patterns.DirectionBiasMetrics{
			DirectionFilter: "BUY",
			DirPnLPct:       8.0, BothPnLPct: -4.0, Delta: 12.0,
			DirN: 15, BothN: 14,
			DirWinRate: 55.0, BothWinRate: 30.0,
		}, 0.7),
	})
	for _, a := range out {
		assert.NotEqual(t, TypeSessionReduce, a.Type)
		assert.NotEqual(t, TypeSessionIncrease, a.Type)
	}
}

func TestExposureIncrease(t *testing.T) {
	t.Parallel()

	g := newTestGenerator()

	out := g.Generate([]patterns.Pattern{
		biasPattern("AUTO-DIR-001", patterns.DirectionBiasMetrics{
			DirectionFilter: "BUY",
			DirPnLPct:       12.0, BothPnLPct: 4.0, Delta: 8.0,
			DirN: 25, BothN: 25,
			DirWinRate: 65.0, BothWinRate: 48.0,
		}, 0.85),
	})

	var increase *Adjustment
	for i := range out {
		if out[i].Type == TypeSessionIncrease {
			increase = &out[i]
		}
	}
	require.NotNil(t, increase, "exposure increase not proposed")
	require.NotNil(t, increase.New.SizeFactor)
	assert.InDelta(t, 1.5, *increase.New.SizeFactor, 1e-9)
}

func TestExposureReduceCrossedOrdering(t *testing.T) {
	t.Parallel()

	g := newTestGenerator()

	// The directional variant leads on pnl but its win rate is the weak
	// one: a few large wins carry a 30% hit rate. The rule keys on the
	// lower win rate regardless of which side leads on pnl.
	out := g.Generate([]patterns.Pattern{
		biasPattern("AUTO-DIR-001", patterns.DirectionBiasMetrics{
			DirectionFilter: "BUY",
			DirPnLPct:       18.0, BothPnLPct: -2.0, Delta: 20.0,
			DirN: 20, BothN: 20,
			DirWinRate: 30.0, BothWinRate: 55.0,
		}, 0.7),
	})

	var reduce *Adjustment
	for i := range out {
		if out[i].Type == TypeSessionReduce {
			reduce = &out[i]
		}
	}
	require.NotNil(t, reduce, "exposure reduce not proposed")
	assert.Contains(t, reduce.Reason, "30.0%")
}

func TestExposureIncreaseCrossedOrdering(t *testing.T) {
	t.Parallel()

	g := newTestGenerator()

	// The BOTH baseline holds the strong win rate while the directional
	// variant leads on pnl. The rule keys on the higher win rate.
	out := g.Generate([]patterns.Pattern{
		biasPattern("AUTO-DIR-001", patterns.DirectionBiasMetrics{
			DirectionFilter: "BUY",
			DirPnLPct:       12.0, BothPnLPct: 2.0, Delta: 10.0,
			DirN: 20, BothN: 20,
			DirWinRate: 45.0, BothWinRate: 65.0,
		}, 0.7),
	})

	var increase *Adjustment
	for i := range out {
		if out[i].Type == TypeSessionIncrease {
			increase = &out[i]
		}
	}
	require.NotNil(t, increase, "exposure increase not proposed")
	assert.Contains(t, increase.Reason, "65.0%")
}

func TestDirectionRestrict(t *testing.T) {
	t.Parallel()

	g := newTestGenerator()

	// Delta 12.0 > 0.5 * |−4.0|: restrict to BUY.
	out := g.Generate([]patterns.Pattern{
		biasPattern("AUTO-DIR-001", patterns.DirectionBiasMetrics{
			DirectionFilter: "BUY",
			DirPnLPct:       8.0, BothPnLPct: -4.0, Delta: 12.0,
			DirN: 20, BothN: 20,
			DirWinRate: 55.0, BothWinRate: 38.0,
		}, 0.7),
	})

	var restrict *Adjustment
	for i := range out {
		if out[i].Type == TypeDirectionRestrict {
			restrict = &out[i]
		}
	}
	require.NotNil(t, restrict, "direction restrict not proposed")

	assert.Equal(t, "strategies.VolBreakout.symbols.XAUUSD.direction", restrict.Param)
	require.NotNil(t, restrict.Old.Direction)
	require.NotNil(t, restrict.New.Direction)
	assert.Equal(t, "BOTH", *restrict.Old.Direction)
	assert.Equal(t, "BUY", *restrict.New.Direction)
}

func TestDirectionRestrictZeroBaseline(t *testing.T) {
	t.Parallel()

	g := newTestGenerator()

	// BOTH pnl exactly zero: no reference scale, the rule stays silent.
	out := g.Generate([]patterns.Pattern{
		biasPattern("AUTO-DIR-001", patterns.DirectionBiasMetrics{
			DirectionFilter: "BUY",
			DirPnLPct:       8.0, BothPnLPct: 0.0, Delta: 8.0,
			DirN: 20, BothN: 20,
			DirWinRate: 55.0, BothWinRate: 45.0,
		}, 0.7),
	})
	for _, a := range out {
		assert.NotEqual(t, TypeDirectionRestrict, a.Type)
	}
}

func TestGenerateSkipsManualPatterns(t *testing.T) {
	t.Parallel()

	g := newTestGenerator()
	p := rankingPattern("OBS-001", "MeanReversion", -13.7, 0.9, 60)
	p.Source = patterns.SourceManual
	assert.Empty(t, g.Generate([]patterns.Pattern{p}))
}

func TestGenerateDeterministicIDs(t *testing.T) {
	t.Parallel()

	g := newTestGenerator()
	input := []patterns.Pattern{
		rankingPattern("AUTO-RANK-002", "MeanReversion", -13.7, 0.7, 60),
		rankingPattern("AUTO-RANK-001", "PullbackEntry", 10.2, 0.7, 55),
	}

	first := g.Generate(input)
	// Same patterns in reverse order: same proposals, same IDs.
	second := g.Generate([]patterns.Pattern{input[1], input[0]})

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Param, second[i].Param)
	}
}

type slicePatternSource []patterns.Pattern

func (s slicePatternSource) Query(patterns.Filter) ([]patterns.Pattern, error) {
	return s, nil
}

func TestProposeIdempotent(t *testing.T) {
	t.Parallel()

	g := newTestGenerator()
	store := newTestStore(t)
	src := slicePatternSource{
		rankingPattern("AUTO-RANK-001", "PullbackEntry", 10.2, 0.7, 55),
		rankingPattern("AUTO-RANK-002", "MeanReversion", -13.7, 0.7, 60),
	}

	first, err := g.Propose(src, store)
	require.NoError(t, err)
	require.Len(t, first, 2)

	count1, err := store.Count()
	require.NoError(t, err)

	_, err = g.Propose(src, store)
	require.NoError(t, err)

	count2, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, count1, count2)
}
