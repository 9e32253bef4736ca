package risk

import (
	"fmt"
	"math"
)

// Proposal is a trade the gate evaluates: a lot size and the session it
// would execute in.
type Proposal struct {
	LotSize float64
	Session string
}

// CheckResult is the gate's verdict. Reasons list every alteration in the
// order applied; Constraints echoes the snapshot the verdict came from.
type CheckResult struct {
	Approved    bool
	AdjustedLot float64
	Reasons     []string
	Constraints Constraints
}

// Check gates a proposal against a constraints snapshot. Steps apply
// strictly in order: stopped status rejects outright, then the lot cap,
// the scale factor, the session multiplier, and finally the minimum lot
// floor. The adjusted size never exceeds the proposed size.
func Check(c Constraints, p Proposal, minLot float64) CheckResult {
	result := CheckResult{
		Approved:    true,
		AdjustedLot: p.LotSize,
		Constraints: c,
	}

	if c.Status == StatusStopped {
		result.Approved = false
		result.AdjustedLot = 0
		reason := "trading stopped"
		if c.Reason != "" {
			reason += ": " + c.Reason
		}
		result.Reasons = append(result.Reasons, reason)
		return result
	}

	if result.AdjustedLot > c.MaxLotSize {
		result.AdjustedLot = c.MaxLotSize
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("lot capped at max %.2f", c.MaxLotSize))
	}

	if c.ScaleFactor < 1.0 {
		result.AdjustedLot = round2(result.AdjustedLot * c.ScaleFactor)
		reason := fmt.Sprintf("scaled by %.2f", c.ScaleFactor)
		if c.Reason != "" {
			reason += " (" + c.Reason + ")"
		}
		result.Reasons = append(result.Reasons, reason)
	}

	if mult, ok := c.SessionMultipliers[p.Session]; ok && mult < 1.0 {
		result.AdjustedLot = round2(result.AdjustedLot * mult)
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("%s session multiplier %.2f", p.Session, mult))
	}

	if result.AdjustedLot < minLot {
		result.AdjustedLot = minLot
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("floored at minimum lot %.2f", minLot))
	}

	return result
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
