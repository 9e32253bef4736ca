package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseVariantTag(t *testing.T) {
	t.Parallel()

	v := ParseVariantTag("VB_XAUUSD_BUY_RR3_BUF0.1")
	assert.Equal(t, "VolBreakout", v.Strategy)
	assert.Equal(t, "XAUUSD", v.Symbol)
	assert.Equal(t, "BUY", v.DirectionFilter)
	assert.Equal(t, "RR3_BUF0.1", v.Params)
	assert.Equal(t, "VB_XAUUSD_BUY_RR3_BUF0.1", v.Tag)

	v = ParseVariantTag("IM_EURUSD_BOTH_RR2.5_TH0.55")
	assert.Equal(t, "IntradayMomentum", v.Strategy)
	assert.Equal(t, DirectionBoth, v.DirectionFilter)
}

func TestParseVariantTagDefaults(t *testing.T) {
	t.Parallel()

	// Unknown abbreviation passes through; missing positions get defaults.
	v := ParseVariantTag("Scalper")
	assert.Equal(t, "Scalper", v.Strategy)
	assert.Equal(t, "UNKNOWN", v.Symbol)
	assert.Equal(t, DirectionBoth, v.DirectionFilter)
	assert.Empty(t, v.Params)
}

func TestTradeRecordVariant(t *testing.T) {
	t.Parallel()

	rec := TradeRecord{ID: "BT-MR_XAUUSD_BOTH_SL2.0-0042"}
	v, ok := rec.Variant()
	assert.True(t, ok)
	assert.Equal(t, "MeanReversion", v.Strategy)
	assert.Equal(t, "XAUUSD", v.Symbol)
	assert.Equal(t, "SL2.0", v.Params)

	// Live trades carry no variant tag.
	_, ok = TradeRecord{ID: "T-2026-0001"}.Variant()
	assert.False(t, ok)
}

func TestClassifySession(t *testing.T) {
	t.Parallel()

	assert.Equal(t, SessionAsian, ClassifySession(0))
	assert.Equal(t, SessionAsian, ClassifySession(7))
	assert.Equal(t, SessionLondon, ClassifySession(8))
	assert.Equal(t, SessionLondon, ClassifySession(15))
	assert.Equal(t, SessionNewYork, ClassifySession(16))
	assert.Equal(t, SessionNewYork, ClassifySession(23))
}
