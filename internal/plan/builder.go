package plan

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"modplan/internal/architecture"
	"modplan/internal/output"
	"modplan/internal/ranking"
	"modplan/internal/slogutil"
)

// Inputs is the architecture data a plan is scored against. Either field
// may be nil.
type Inputs struct {
	Health  *architecture.Health
	Ranking *ranking.Analysis
}

// Builder orders raw actions into plans
type Builder struct {
	logger *slog.Logger
}

// NewBuilder creates a new plan builder
func NewBuilder(logger *slog.Logger) *Builder {
	return &Builder{logger: slogutil.OrDiscard(logger)}
}

// Build validates raw and orders it by kind: barrels, then moves, merges and
// deletes, keeping input order within a kind. Every merge depends on the last
// move before it and every delete on every merge. Rollback points follow each
// barrel and each merge.
func (b *Builder) Build(ctx context.Context, raw []RawAction, in Inputs) (*Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateActions(raw); err != nil {
		return nil, err
	}

	byKind := make(map[ActionKind][]RawAction, len(precedence))
	taken := make(map[string]bool, len(raw))
	for _, r := range raw {
		byKind[r.Kind] = append(byKind[r.Kind], r)
		if r.ID != "" {
			taken[r.ID] = true
		}
	}

	p := &Plan{
		Actions:        make([]Action, 0, len(raw)),
		ExecutionOrder: make([]string, 0, len(raw)),
		RollbackPoints: []RollbackPoint{},
		Stages:         []Stage{},
	}

	var lastMove string
	var merges []string
	order := 0
	for _, kind := range precedence {
		for n, r := range byKind[kind] {
			order++
			a := Action{
				ID:             r.ID,
				Kind:           kind,
				Sources:        append([]string(nil), r.Sources...),
				Target:         r.Target,
				Order:          order,
				Prerequisites:  []string{},
				Reason:         r.Reason,
				CanParallelize: kind == KindCreateBarrel || kind == KindDelete,
				RollbackPoint:  kind == KindCreateBarrel || kind == KindMerge,
			}
			if a.ID == "" {
				a.ID = nextID(kind, n+1, taken)
			}
			if a.Reason == "" {
				a.Reason = describe(a)
			}

			switch kind {
			case KindMove:
				lastMove = a.ID
			case KindMerge:
				if lastMove != "" {
					a.Prerequisites = append(a.Prerequisites, lastMove)
				}
				merges = append(merges, a.ID)
			case KindDelete:
				a.Prerequisites = append(a.Prerequisites, merges...)
			}

			a.RiskLevel, a.RiskScore = b.risk(a, in.Ranking)
			p.Actions = append(p.Actions, a)
			p.ExecutionOrder = append(p.ExecutionOrder, a.ID)
			if a.RollbackPoint {
				p.RollbackPoints = append(p.RollbackPoints, RollbackPoint{
					After:       a.ID,
					Order:       a.Order,
					Description: "after " + a.Reason,
				})
			}
		}
	}

	annotate(p, in.Health)
	p.Stages = stages(p.Actions)
	p.Summary = summarize(p.Actions)

	b.logger.Debug("Plan built",
		"actions", len(p.Actions),
		"rollbackPoints", len(p.RollbackPoints),
		"stages", len(p.Stages),
	)
	return p, nil
}

func (b *Builder) risk(a Action, an *ranking.Analysis) (ranking.RiskLevel, float64) {
	if an != nil {
		if score, level, ok := an.PhaseRisk(a.Sources); ok {
			return level, score
		}
	}
	return defaultRisk(a.Kind), 0
}

func nextID(kind ActionKind, n int, taken map[string]bool) string {
	for ; ; n++ {
		id := fmt.Sprintf("%s-%d", kind, n)
		if !taken[id] {
			taken[id] = true
			return id
		}
	}
}

func describe(a Action) string {
	sources := strings.Join(a.Sources, ", ")
	switch a.Kind {
	case KindCreateBarrel:
		return "create barrel for " + sources
	case KindMove:
		return fmt.Sprintf("move %s to %s", sources, a.Target)
	case KindMerge:
		return fmt.Sprintf("merge %s into %s", sources, a.Target)
	default:
		return "delete " + sources
	}
}

// annotate attaches warnings derived from the dependency graph: unknown
// sources, sources inside a cycle, and deleted modules that something
// outside the plan still imports.
func annotate(p *Plan, h *architecture.Health) {
	if h == nil || h.Graph == nil {
		return
	}
	g := h.Graph
	inCycle := h.CycleMembers()

	// Modules the plan makes disappear.
	removed := make(map[string]bool)
	mergeTargets := make(map[string]string)
	for _, a := range p.Actions {
		if a.Kind == KindMerge || a.Kind == KindDelete {
			for _, s := range a.Sources {
				removed[s] = true
			}
		}
		if a.Kind == KindMerge && a.Target != "" {
			mergeTargets[a.Target] = a.ID
		}
	}

	for i := range p.Actions {
		a := &p.Actions[i]
		for _, s := range a.Sources {
			if !g.HasNode(s) {
				a.Warnings = append(a.Warnings, fmt.Sprintf("source %s is not a known module", s))
				continue
			}
			if inCycle[s] {
				a.Warnings = append(a.Warnings, fmt.Sprintf("source %s is part of a dependency cycle", s))
			}
			if a.Kind != KindDelete {
				continue
			}
			var live []string
			for _, d := range g.Dependents(s) {
				if !removed[d] {
					live = append(live, d)
				}
			}
			if len(live) > 0 {
				sort.Strings(live)
				a.Warnings = append(a.Warnings, fmt.Sprintf("%s is still imported by %s", s, strings.Join(live, ", ")))
			}
			if id, ok := mergeTargets[s]; ok {
				a.Warnings = append(a.Warnings, fmt.Sprintf("%s is the target of %s", s, id))
			}
		}
	}
}

func stages(actions []Action) []Stage {
	var out []Stage
	for _, a := range actions {
		if n := len(out); n > 0 && a.CanParallelize && out[n-1].Parallel && out[n-1].Kind == a.Kind {
			out[n-1].Actions = append(out[n-1].Actions, a.ID)
			continue
		}
		out = append(out, Stage{
			Index:    len(out),
			Kind:     a.Kind,
			Actions:  []string{a.ID},
			Parallel: a.CanParallelize,
		})
	}
	if out == nil {
		out = []Stage{}
	}
	return out
}

func summarize(actions []Action) Summary {
	s := Summary{
		Total:  len(actions),
		ByKind: make(map[ActionKind]int),
	}
	byRisk := make([]Action, len(actions))
	copy(byRisk, actions)
	output.SortByRisk(byRisk,
		func(a Action) string { return string(a.RiskLevel) },
		func(a Action) string { return a.ID },
	)
	s.ByRisk = make([]string, len(byRisk))
	for i, a := range byRisk {
		s.ByKind[a.Kind]++
		s.Warnings += len(a.Warnings)
		s.ByRisk[i] = a.ID
	}
	if len(byRisk) > 0 {
		s.HighestRisk = byRisk[0].RiskLevel
	}
	return s
}
