package journal

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	open := time.Date(2026, 3, 15, 10, 30, 45, 0, time.UTC)
	exit := time.Date(2026, 3, 15, 14, 20, 30, 0, time.UTC)

	trade := TradeRecord{
		ID:            "T-01HXAMPLE0000000000000000",
		Timestamp:     open,
		Symbol:        "EURUSD",
		Direction:     Long,
		LotSize:       0.05,
		Strategy:      "Breakout",
		Confidence:    0.8,
		Reasoning:     "range break with volume",
		ExitTime:      exit,
		ExitPrice:     1.0875,
		PnL:           250.00,
		PnLR:          2.5,
		HoldDuration:  230,
		ExitReasoning: "target hit",
		Lessons:       "held through the retest",
		Tags:          []string{"BT-Breakout-RR2.0-L0.05"},
		Grade:         GradeA,
	}

	result := FormatTradeOrg(trade)

	assert.Contains(t, result, "** Trade: EURUSD long (T-01HXAM)")
	assert.Contains(t, result, ":PROPERTIES:")
	assert.Contains(t, result, ":TRADE_ID: T-01HXAMPLE0000000000000000")
	assert.Contains(t, result, ":STRATEGY: Breakout")
	assert.Contains(t, result, ":LOT_SIZE: 0.05")
	assert.Contains(t, result, ":OPEN_TIME: 2026-03-15T10:30:45Z")
	assert.Contains(t, result, ":CLOSE_TIME: 2026-03-15T14:20:30Z")
	assert.Contains(t, result, ":PNL: 250.00")
	assert.Contains(t, result, ":PNL_R: 2.50")
	assert.Contains(t, result, ":HOLD_MINUTES: 230")
	assert.Contains(t, result, ":GRADE: A")
	assert.Contains(t, result, ":TAGS: BT-Breakout-RR2.0-L0.05")
	assert.Contains(t, result, ":END:")
	assert.Contains(t, result, "*** Thesis")
	assert.Contains(t, result, "- range break with volume")
	assert.Contains(t, result, "*** Exit")
	assert.Contains(t, result, "*** Review")
}

func TestFormatTradeOrgOpenTrade(t *testing.T) {
	t.Parallel()

	trade := TradeRecord{
		ID:         "T-OPEN",
		Timestamp:  time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC),
		Symbol:     "GBPUSD",
		Direction:  Short,
		LotSize:    0.02,
		Strategy:   "MeanReversion",
		Confidence: 0.6,
	}

	result := FormatTradeOrg(trade)

	assert.Contains(t, result, "** Trade: GBPUSD short (T-OPEN)")
	assert.NotContains(t, result, ":CLOSE_TIME:")
	assert.NotContains(t, result, ":PNL:")
	assert.NotContains(t, result, "*** Thesis")
	assert.NotContains(t, result, "*** Review")
}

func TestFormatTradeOrgNegativePnL(t *testing.T) {
	t.Parallel()

	trade := TradeRecord{
		ID:        "T-LOSS",
		Timestamp: time.Now(),
		Symbol:    "USDJPY",
		Direction: Long,
		LotSize:   0.10,
		Strategy:  "Breakout",
		ExitTime:  time.Now(),
		PnL:       -500.00,
	}

	result := FormatTradeOrg(trade)
	assert.Contains(t, result, ":PNL: -500.00")
}

func TestFormatTradesOrg(t *testing.T) {
	t.Parallel()

	trades := []TradeRecord{
		{ID: "T-001", Timestamp: time.Now(), Symbol: "EURUSD", Direction: Long, LotSize: 0.01, Strategy: "Breakout"},
		{ID: "T-002", Timestamp: time.Now(), Symbol: "GBPUSD", Direction: Short, LotSize: 0.02, Strategy: "Breakout"},
	}

	result := FormatTradesOrg(trades)

	assert.Contains(t, result, "T-001")
	assert.Contains(t, result, "T-002")

	parts := strings.Split(result, "\n\n\n")
	assert.Len(t, parts, 2)
}

func TestFormatTradesOrgEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, FormatTradesOrg(nil))
}

func TestShortID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "T-01HXAM", shortID("T-01HXAMPLE0000000000000000"))
	assert.Equal(t, "12345678", shortID("12345678"))
	assert.Equal(t, "short", shortID("short"))
	assert.Equal(t, "", shortID(""))
}
