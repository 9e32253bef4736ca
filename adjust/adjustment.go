// Package adjust turns discovered patterns into proposed parameter changes.
// Five deterministic rules map pattern metrics to Adjustment records; every
// proposal waits in "proposed" status for an external review decision.
package adjust

import (
	"fmt"
	"time"
)

// Type identifies which rule produced an adjustment.
type Type string

const (
	TypeStrategyDisable   Type = "strategy_disable"
	TypeStrategyPrefer    Type = "strategy_prefer"
	TypeSessionReduce     Type = "session_reduce"
	TypeSessionIncrease   Type = "session_increase"
	TypeDirectionRestrict Type = "direction_restrict"
)

// Status is the review lifecycle of an adjustment. Transitions only move
// forward: proposed -> approved|rejected, approved -> applied.
type Status string

const (
	StatusProposed Status = "proposed"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusApplied  Status = "applied"
)

// CanTransition reports whether from -> to is a legal forward move.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusProposed:
		return to == StatusApproved || to == StatusRejected
	case StatusApproved:
		return to == StatusApplied
	default:
		return false
	}
}

// Change is the old or new value of the targeted parameter. Exactly one
// field is set, matching the adjustment type.
type Change struct {
	Enabled    *bool    `json:"enabled,omitempty"`
	Priority   *string  `json:"priority,omitempty"`
	SizeFactor *float64 `json:"size_factor,omitempty"`
	Direction  *string  `json:"direction,omitempty"`
}

func boolChange(v bool) Change       { return Change{Enabled: &v} }
func priorityChange(v string) Change { return Change{Priority: &v} }
func sizeChange(v float64) Change    { return Change{SizeFactor: &v} }
func directionChange(v string) Change {
	return Change{Direction: &v}
}

// Adjustment is one proposed parameter change, traceable to the pattern
// that motivated it.
type Adjustment struct {
	ID         string
	Type       Type
	Param      string // dotted path of the targeted parameter
	Old        Change
	New        Change
	Reason     string
	PatternID  string // weak reference, the pattern may be re-mined away
	Confidence float64
	Status     Status
	CreatedAt  time.Time
	AppliedAt  time.Time // zero until status reaches applied
}

// Validate checks the fields the generator and store rely on.
func (a Adjustment) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("adjustment ID must not be empty")
	}
	switch a.Type {
	case TypeStrategyDisable, TypeStrategyPrefer, TypeSessionReduce,
		TypeSessionIncrease, TypeDirectionRestrict:
	default:
		return fmt.Errorf("unknown adjustment type %q", a.Type)
	}
	if a.Param == "" {
		return fmt.Errorf("adjustment %s has no target parameter", a.ID)
	}
	if a.Confidence < 0 || a.Confidence > 1 {
		return fmt.Errorf("adjustment %s confidence %v outside [0,1]", a.ID, a.Confidence)
	}
	return nil
}
