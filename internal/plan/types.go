// Package plan orders raw restructuring actions into a dependency-safe,
// risk-scored execution plan with rollback checkpoints. It describes intent
// only and never touches the file system.
package plan

import (
	"modplan/internal/ranking"
)

// ActionKind is the kind of a restructuring action
type ActionKind string

const (
	KindCreateBarrel ActionKind = "create-barrel"
	KindMove         ActionKind = "move"
	KindMerge        ActionKind = "merge"
	KindDelete       ActionKind = "delete"
)

// precedence is the fixed execution order of kinds, independent of risk.
var precedence = []ActionKind{KindCreateBarrel, KindMove, KindMerge, KindDelete}

// Valid reports whether k is a known action kind.
func (k ActionKind) Valid() bool {
	for _, p := range precedence {
		if k == p {
			return true
		}
	}
	return false
}

// needsTarget reports whether actions of kind k must name a target.
func (k ActionKind) needsTarget() bool {
	return k == KindMove || k == KindMerge
}

// RawAction is a candidate action as produced by a structure detector.
type RawAction struct {
	ID      string     `json:"id,omitempty" yaml:"id,omitempty"`
	Kind    ActionKind `json:"kind" yaml:"kind" validate:"required"`
	Sources []string   `json:"sources" yaml:"sources" validate:"min=1,dive,required"`
	Target  string     `json:"target,omitempty" yaml:"target,omitempty"`
	Reason  string     `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Action is one ordered step of a plan.
type Action struct {
	ID             string            `json:"id"`
	Kind           ActionKind        `json:"kind"`
	Sources        []string          `json:"sources"`
	Target         string            `json:"target,omitempty"`
	Order          int               `json:"order"`
	Prerequisites  []string          `json:"prerequisites"`
	RiskLevel      ranking.RiskLevel `json:"riskLevel"`
	RiskScore      float64           `json:"riskScore,omitempty"`
	Reason         string            `json:"reason"`
	CanParallelize bool              `json:"canParallelize"`
	RollbackPoint  bool              `json:"rollbackPoint"`
	Warnings       []string          `json:"warnings,omitempty"`
}

// RollbackPoint is a clean undo boundary after an action.
type RollbackPoint struct {
	After       string `json:"after"`
	Order       int    `json:"order"`
	Description string `json:"description"`
}

// Stage is a group of actions that may be applied together. Actions in a
// parallel stage have no ordering among themselves.
type Stage struct {
	Index    int        `json:"index"`
	Kind     ActionKind `json:"kind"`
	Actions  []string   `json:"actions"`
	Parallel bool       `json:"parallel"`
}

// Summary counts plan actions.
type Summary struct {
	Total       int                `json:"total"`
	ByKind      map[ActionKind]int `json:"byKind"`
	ByRisk      []string           `json:"byRisk"`
	HighestRisk ranking.RiskLevel  `json:"highestRisk,omitempty"`
	Warnings    int                `json:"warnings"`
}

// Plan is the ordered execution plan for a batch of actions.
type Plan struct {
	Actions        []Action        `json:"actions"`
	ExecutionOrder []string        `json:"executionOrder"`
	RollbackPoints []RollbackPoint `json:"rollbackPoints"`
	Stages         []Stage         `json:"stages"`
	Summary        Summary         `json:"summary"`
}

// Action returns the action with the given id.
func (p *Plan) Action(id string) (Action, bool) {
	for _, a := range p.Actions {
		if a.ID == id {
			return a, true
		}
	}
	return Action{}, false
}

// ActionsOf returns the actions of kind k in execution order.
func (p *Plan) ActionsOf(k ActionKind) []Action {
	var out []Action
	for _, a := range p.Actions {
		if a.Kind == k {
			out = append(out, a)
		}
	}
	return out
}

// defaultRisk is the risk of a kind when no ranking data is available.
func defaultRisk(k ActionKind) ranking.RiskLevel {
	switch k {
	case KindCreateBarrel:
		return ranking.RiskLow
	case KindDelete:
		return ranking.RiskHigh
	default:
		return ranking.RiskMedium
	}
}
