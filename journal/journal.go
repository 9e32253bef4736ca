// journal/journal.go
package journal

import (
	"fmt"
	"time"
)

// Direction of a trade.
type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

// Grade rates the quality of the decision, not the result.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// Session buckets. Hours are broker server time.
const (
	SessionAsian   = "asian"
	SessionLondon  = "london"
	SessionNewYork = "newyork"
)

// Sessions lists every session bucket in chronological order.
var Sessions = []string{SessionAsian, SessionLondon, SessionNewYork}

// ClassifySession maps an hour of day to its session bucket.
func ClassifySession(hour int) string {
	switch {
	case hour >= 0 && hour < 8:
		return SessionAsian
	case hour >= 8 && hour < 16:
		return SessionLondon
	default:
		return SessionNewYork
	}
}

// MarketContext is the market snapshot captured at decision time.
type MarketContext struct {
	Price      float64            `json:"price"`
	ATR        float64            `json:"atr,omitempty"`
	Session    string             `json:"session,omitempty"`
	Indicators map[string]float64 `json:"indicators,omitempty"`
}

// Outcome holds the exit-side fields of a trade. They are written exactly
// once, when the position closes.
type Outcome struct {
	ExitTime         time.Time
	ExitPrice        float64
	PnL              float64
	PnLR             float64 // P&L in R-multiples
	HoldDuration     int     // minutes
	ExitReasoning    string
	Slippage         float64 // entry slippage in pips
	ExecutionQuality float64 // 0.0 - 1.0
	Lessons          string
	Grade            Grade
}

// TradeRecord is one trade decision with full context. Records are
// append-only: decision fields are written at entry, outcome fields at close.
type TradeRecord struct {
	ID         string
	Timestamp  time.Time
	Symbol     string
	Direction  Direction
	LotSize    float64
	Strategy   string
	Confidence float64 // 0.0 - 1.0
	Reasoning  string
	Market     MarketContext
	References []string // past trade IDs that informed the decision

	// Outcome, zero until the trade closes.
	ExitTime         time.Time
	ExitPrice        float64
	PnL              float64
	PnLR             float64
	HoldDuration     int
	ExitReasoning    string
	Slippage         float64
	ExecutionQuality float64
	Lessons          string

	Tags  []string
	Grade Grade
}

// Closed reports whether the trade outcome has been recorded.
func (t TradeRecord) Closed() bool {
	return !t.ExitTime.IsZero()
}

// Session returns the record's session bucket, deriving it from the entry
// timestamp when the market context did not capture one.
func (t TradeRecord) Session() string {
	if t.Market.Session != "" {
		return t.Market.Session
	}
	return ClassifySession(t.Timestamp.Hour())
}

// Validate checks decision-time invariants.
func (t TradeRecord) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("trade id is required")
	}
	if t.Direction != Long && t.Direction != Short {
		return fmt.Errorf("direction must be %q or %q, got %q", Long, Short, t.Direction)
	}
	if t.Confidence < 0.0 || t.Confidence > 1.0 {
		return fmt.Errorf("confidence must be 0.0-1.0, got %v", t.Confidence)
	}
	if t.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if t.Strategy == "" {
		return fmt.Errorf("strategy is required")
	}
	return nil
}

// Query filters a trade history lookup.
type Query struct {
	Strategy string
	Symbol   string
	Limit    int
}

// Journal is the trade-history store consumed by the analysis engines.
type Journal interface {
	RecordDecision(TradeRecord) error
	RecordOutcome(tradeID string, o Outcome) error
	GetTrade(tradeID string) (TradeRecord, error)
	QueryTrades(Query) ([]TradeRecord, error)
	ActiveTrades() ([]TradeRecord, error)
	ClosedSince(cutoff time.Time) ([]TradeRecord, error)
	Close() error
}
