// Package patterns discovers confidence-scored statistical observations in
// trade history. Five independent detectors scan a snapshot of closed trades
// and emit Pattern records that the adjustment generator consumes.
package patterns

import "time"

// Type identifies which detector produced a pattern.
type Type string

const (
	TypeStrategyRanking Type = "strategy_ranking"
	TypeDirectionBias   Type = "direction_bias"
	TypeSymbolFit       Type = "symbol_fit"
	TypeMeanRevAnalysis Type = "mr_analysis"
	TypeTopVariant      Type = "top_variant"
)

// Source distinguishes detector output from hand-entered observations.
type Source string

const (
	SourceAuto   Source = "auto"
	SourceManual Source = "manual"
)

// ValidationInSample marks patterns observed on the data they were mined
// from, before any out-of-sample confirmation.
const ValidationInSample = "in_sample"

// Pattern is one statistical observation about trading performance, scoped
// to a strategy and/or symbol. Detection is deterministic: re-running on the
// same snapshot produces the same IDs, and storage replaces by ID.
type Pattern struct {
	ID          string
	Type        Type
	Description string
	Confidence  float64 // 0.0 - 1.0, derived from sample size
	SampleSize  int
	DateRange   string
	Strategy    string // empty when not scoped to one strategy
	Symbol      string // empty when not scoped to one symbol
	Metrics     Metrics
	Source      Source
	Validation  string
	DiscoveredAt time.Time
}

// Metrics is a tagged union keyed by pattern type: exactly one member is
// non-nil, matching the pattern's Type.
type Metrics struct {
	Ranking       *RankingMetrics       `json:"ranking,omitempty"`
	DirectionBias *DirectionBiasMetrics `json:"direction_bias,omitempty"`
	SymbolFit     *SymbolFitMetrics     `json:"symbol_fit,omitempty"`
	MeanRev       *MeanRevMetrics       `json:"mean_reversion,omitempty"`
	VariantList   *VariantListMetrics   `json:"variant_list,omitempty"`
}

// RankingMetrics backs strategy_ranking patterns.
type RankingMetrics struct {
	PnLPct             float64 `json:"pnl_pct"`
	WinRate            float64 `json:"win_rate"`
	ProfitFactor       float64 `json:"profit_factor"`
	TotalPnL           float64 `json:"total_pnl"`
	VariantsTotal      int     `json:"variants_total"`
	VariantsProfitable int     `json:"variants_profitable"`
}

// DirectionBiasMetrics backs direction_bias patterns: a directional variant
// compared against the both-directions variant of the same strategy+symbol.
type DirectionBiasMetrics struct {
	DirectionFilter string  `json:"direction_filter"`
	DirPnLPct       float64 `json:"dir_pnl_pct"`
	BothPnLPct      float64 `json:"both_pnl_pct"`
	Delta           float64 `json:"delta"`
	DirN            int     `json:"dir_n"`
	BothN           int     `json:"both_n"`
	DirWinRate      float64 `json:"dir_win_rate"`
	BothWinRate     float64 `json:"both_win_rate"`
}

// SymbolStats is one symbol's slice of a symbol_fit comparison.
type SymbolStats struct {
	PnLPct       float64 `json:"pnl_pct"`
	WinRate      float64 `json:"win_rate"`
	ProfitFactor float64 `json:"profit_factor"`
	RewardRisk   float64 `json:"rr"`
	N            int     `json:"n"`
}

// SymbolFitMetrics backs symbol_fit patterns, both the best-vs-worst spread
// form and the single-symbol specialist form.
type SymbolFitMetrics struct {
	Symbols        map[string]SymbolStats `json:"symbols"`
	BestSymbol     string                 `json:"best_symbol"`
	WorstSymbol    string                 `json:"worst_symbol,omitempty"`
	Delta          float64                `json:"delta,omitempty"`
	SingleSymbol   bool                   `json:"single_symbol,omitempty"`
	PnLAdvantage   float64                `json:"pnl_advantage,omitempty"`
	OtherAvgPnLPct float64                `json:"other_avg_pnl_pct,omitempty"`
	OtherAvgRR     float64                `json:"other_avg_rr,omitempty"`
}

// VariantPerf is one variant's aggregate performance.
type VariantPerf struct {
	Tag          string  `json:"tag"`
	Strategy     string  `json:"strategy,omitempty"`
	Symbol       string  `json:"symbol,omitempty"`
	Direction    string  `json:"direction,omitempty"`
	N            int     `json:"n"`
	PnLPct       float64 `json:"pnl_pct"`
	WinRate      float64 `json:"win_rate"`
	ProfitFactor float64 `json:"profit_factor"`
}

// MeanRevMetrics backs the domain-diagnostic patterns for the configured
// mean-reversion-style strategy. Each sub-struct matches one of the three
// diagnostic patterns.
type MeanRevMetrics struct {
	Overall   *MeanRevOverall   `json:"overall,omitempty"`
	Direction *MeanRevDirection `json:"direction,omitempty"`
	LotShrink *MeanRevLotShrink `json:"lot_shrink,omitempty"`
}

type MeanRevOverall struct {
	AvgPnLPct          float64       `json:"avg_pnl_pct"`
	VariantsTotal      int           `json:"variants_total"`
	VariantsProfitable int           `json:"variants_profitable"`
	Profitable         []VariantPerf `json:"profitable_variants,omitempty"`
}

type MeanRevDirection struct {
	DirAvgPnLPct   float64 `json:"dir_avg_pnl_pct"`
	BothAvgPnLPct  float64 `json:"both_avg_pnl_pct"`
	Delta          float64 `json:"delta"`
	DirVariants    int     `json:"dir_variants"`
	BothVariants   int     `json:"both_variants"`
	DirProfitable  int     `json:"dir_profitable"`
	BothProfitable int     `json:"both_profitable"`
}

// MeanRevLotShrink flags average position size collapsing between an earlier
// and a recent period, an early warning for parameter starvation under
// changing volatility.
type MeanRevLotShrink struct {
	RecentAvgLot  float64 `json:"recent_avg_lot"`
	EarlierAvgLot float64 `json:"earlier_avg_lot"`
	ShrinkagePct  float64 `json:"shrinkage_pct"`
	RecentN       int     `json:"recent_n"`
	EarlierN      int     `json:"earlier_n"`
}

// VariantListMetrics backs top_variant patterns: an ordered ranking slice.
type VariantListMetrics struct {
	Ranking []VariantPerf `json:"ranking"`
}
