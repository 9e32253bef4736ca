package journal

import "strings"

// Variant identifies one parameterization of a strategy: direction filter
// plus tuning constants, evaluated independently in backtests. Tags look
// like VB_XAUUSD_BUY_RR3_BUF0.1 and split by fixed position.
type Variant struct {
	Strategy        string
	Symbol          string
	DirectionFilter string // BUY, SELL or BOTH
	Params          string
	Tag             string
}

// DirectionBoth is the direction filter of variants that trade both ways.
const DirectionBoth = "BOTH"

// backtestIDPrefix marks trade IDs imported from backtest reports:
// BT-<variant tag>-NNNN.
const backtestIDPrefix = "BT-"

var strategyAbbrevs = map[string]string{
	"VB": "VolBreakout",
	"IM": "IntradayMomentum",
	"PB": "PullbackEntry",
	"MR": "MeanReversion",
}

// ParseVariantTag splits a variant tag into its positional fields. Unknown
// strategy abbreviations pass through unchanged; missing positions get
// defaults (UNKNOWN symbol, BOTH direction).
func ParseVariantTag(tag string) Variant {
	parts := strings.Split(tag, "_")

	v := Variant{
		Strategy:        parts[0],
		Symbol:          "UNKNOWN",
		DirectionFilter: DirectionBoth,
		Tag:             tag,
	}
	if full, ok := strategyAbbrevs[parts[0]]; ok {
		v.Strategy = full
	}
	if len(parts) > 1 {
		v.Symbol = parts[1]
	}
	if len(parts) > 2 {
		v.DirectionFilter = parts[2]
	}
	if len(parts) > 3 {
		v.Params = strings.Join(parts[3:], "_")
	}
	return v
}

// Variant recovers the variant encoded in a backtest record ID, parsing it
// once at load so downstream detectors work with structured fields. The
// second return is false for live records, which carry no variant tag.
func (t TradeRecord) Variant() (Variant, bool) {
	if !strings.HasPrefix(t.ID, backtestIDPrefix) {
		return Variant{}, false
	}
	// Strip the BT- prefix and the -NNNN trade counter.
	body := t.ID[len(backtestIDPrefix):]
	i := strings.LastIndex(body, "-")
	if i <= 0 {
		return Variant{}, false
	}
	return ParseVariantTag(body[:i]), true
}
