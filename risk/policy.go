// Package risk computes per-agent position-sizing limits from recent trade
// history and gates proposed trades against them. Five sub-algorithms feed
// one Constraints snapshot: quarter-Kelly sizing, drawdown scaling, session
// multipliers, consecutive-loss status and daily-loss status.
package risk

import "time"

// Status is an agent's trading state. Ordering matters: active < reduced
// < stopped, and merged statuses take the worse value.
type Status string

const (
	StatusActive  Status = "active"
	StatusReduced Status = "reduced"
	StatusStopped Status = "stopped"
)

var statusRank = map[Status]int{
	StatusActive:  0,
	StatusReduced: 1,
	StatusStopped: 2,
}

// WorseStatus returns the more restrictive of two statuses.
func WorseStatus(a, b Status) Status {
	if statusRank[b] > statusRank[a] {
		return b
	}
	return a
}

// Policy holds the fixed inputs of the risk calculation. Zero values are
// replaced by the defaults below; see Normalize.
type Policy struct {
	MaxLotSize           float64 // hard lot cap, 0.1
	DailyLossLimit       float64 // account currency, 500
	ConsecutiveLossLimit int     // 5
	LookbackDays         int     // history window, 30
	MinTrades            int     // sample floor below which safe defaults apply, 5
	MinLotSize           float64 // broker minimum, 0.01
	BaselineEquity       float64 // assumed equity for drawdown replay, 10000
}

// DefaultPolicy returns the standing defaults.
func DefaultPolicy() Policy {
	return Policy{
		MaxLotSize:           0.1,
		DailyLossLimit:       500,
		ConsecutiveLossLimit: 5,
		LookbackDays:         30,
		MinTrades:            5,
		MinLotSize:           0.01,
		BaselineEquity:       10000,
	}
}

// Normalize fills zero fields from DefaultPolicy.
func (p Policy) Normalize() Policy {
	d := DefaultPolicy()
	if p.MaxLotSize <= 0 {
		p.MaxLotSize = d.MaxLotSize
	}
	if p.DailyLossLimit <= 0 {
		p.DailyLossLimit = d.DailyLossLimit
	}
	if p.ConsecutiveLossLimit <= 0 {
		p.ConsecutiveLossLimit = d.ConsecutiveLossLimit
	}
	if p.LookbackDays <= 0 {
		p.LookbackDays = d.LookbackDays
	}
	if p.MinTrades <= 0 {
		p.MinTrades = d.MinTrades
	}
	if p.MinLotSize <= 0 {
		p.MinLotSize = d.MinLotSize
	}
	if p.BaselineEquity <= 0 {
		p.BaselineEquity = d.BaselineEquity
	}
	return p
}

// Constraints is one agent's computed risk snapshot.
type Constraints struct {
	Agent                string             `json:"agent"`
	MaxLotSize           float64            `json:"max_lot_size"`
	RiskPerTradePct      float64            `json:"risk_per_trade_pct"` // clamped [0.5, 5.0]
	DailyLossLimit       float64            `json:"daily_loss_limit"`
	ScaleFactor          float64            `json:"scale_factor"` // clamped [0, 1]
	SessionMultipliers   map[string]float64 `json:"session_multipliers"`
	ConsecutiveLossLimit int                `json:"consecutive_loss_limit"`
	KellyFraction        float64            `json:"kelly_fraction"` // clamped [0, 0.25]
	Status               Status             `json:"status"`
	Reason               string             `json:"reason"`
	SampleSize           int                `json:"sample_size"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

// SafeDefaults is the conservative snapshot used when the window holds too
// few closed trades to trust any sub-algorithm.
func (p Policy) SafeDefaults(agent string, sampleSize int, now time.Time) Constraints {
	multipliers := make(map[string]float64, 3)
	for _, s := range sessionBuckets {
		multipliers[s] = 1.0
	}
	return Constraints{
		Agent:                agent,
		MaxLotSize:           p.MaxLotSize,
		RiskPerTradePct:      2.0,
		DailyLossLimit:       p.DailyLossLimit,
		ScaleFactor:          1.0,
		SessionMultipliers:   multipliers,
		ConsecutiveLossLimit: p.ConsecutiveLossLimit,
		KellyFraction:        0,
		Status:               StatusActive,
		Reason:               "insufficient history, safe defaults",
		SampleSize:           sampleSize,
		UpdatedAt:            now,
	}
}
