package state

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradememory/risk"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetGetRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	type warmMemory struct {
		LastSymbol string  `json:"last_symbol"`
		OpenRisk   float64 `json:"open_risk"`
	}

	want := warmMemory{LastSymbol: "XAUUSD", OpenRisk: 1.5}
	require.NoError(t, s.Set("VolBreakout", "warm_memory", want))

	var got warmMemory
	ok, err := s.Get("VolBreakout", "warm_memory", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestGetMissingKey(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	var out map[string]any
	ok, err := s.Get("VolBreakout", "nonexistent", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetOverwrites(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	require.NoError(t, s.Set("VolBreakout", "counter", 1))
	require.NoError(t, s.Set("VolBreakout", "counter", 2))

	var n int
	ok, err := s.Get("VolBreakout", "counter", &n)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, n)
}

func TestAgentsAreIsolated(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	require.NoError(t, s.Set("VolBreakout", "note", "a"))
	require.NoError(t, s.Set("MeanReversion", "note", "b"))

	var got string
	ok, err := s.Get("MeanReversion", "note", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", got)

	keys, err := s.Keys("VolBreakout")
	require.NoError(t, err)
	assert.Equal(t, []string{"note"}, keys)
}

func TestDelete(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	require.NoError(t, s.Set("VolBreakout", "note", "a"))
	require.NoError(t, s.Delete("VolBreakout", "note"))

	var got string
	ok, err := s.Get("VolBreakout", "note", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting again is a no-op.
	require.NoError(t, s.Delete("VolBreakout", "note"))
}

func TestConstraintsRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	_, ok, err := s.LoadConstraints("VolBreakout")
	require.NoError(t, err)
	assert.False(t, ok)

	want := risk.Constraints{
		Agent:                "VolBreakout",
		MaxLotSize:           0.1,
		RiskPerTradePct:      2.5,
		DailyLossLimit:       500,
		ScaleFactor:          0.75,
		SessionMultipliers:   map[string]float64{"asian": 0.75, "london": 1.0, "newyork": 1.0},
		ConsecutiveLossLimit: 5,
		KellyFraction:        0.025,
		Status:               risk.StatusActive,
		SampleSize:           42,
		UpdatedAt:            time.Date(2026, 2, 10, 21, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.SaveConstraints("VolBreakout", want))

	got, ok, err := s.LoadConstraints("VolBreakout")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}
