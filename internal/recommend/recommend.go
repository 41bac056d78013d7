// Package recommend merges architecture violations, ranking hotspots and
// plan risk into one prioritized list for rendering.
package recommend

import (
	"fmt"
	"strings"

	"modplan/internal/architecture"
	"modplan/internal/output"
	"modplan/internal/plan"
	"modplan/internal/ranking"
)

// Category groups recommendations by their source
type Category string

const (
	CategoryHealth   Category = "health"
	CategoryCycle    Category = "cycle"
	CategoryLayering Category = "layering"
	CategoryHotspot  Category = "hotspot"
	CategoryPlan     Category = "plan"
)

// Recommendation suggests an action based on the analysis
type Recommendation struct {
	ID       string   `json:"id"`
	Priority int      `json:"priority"`
	Category Category `json:"category"`
	Severity string   `json:"severity"` // "critical", "error", "warning", "info"
	Message  string   `json:"message"`
	Action   string   `json:"action"`
	Modules  []string `json:"modules,omitempty"`
}

// Inputs are the analysis results to synthesize. Any may be nil.
type Inputs struct {
	Health  *architecture.Health
	Ranking *ranking.Analysis
	Plan    *plan.Plan
}

// Options tunes synthesis.
type Options struct {
	// MaxHotspots caps hotspot recommendations; 0 means none.
	MaxHotspots int
	// HealthTarget is the score below which the overall health is flagged.
	HealthTarget float64
}

// DefaultOptions returns the standard synthesis options.
func DefaultOptions() Options {
	return Options{MaxHotspots: 5, HealthTarget: 80}
}

// Synthesize builds the prioritized recommendation list: severity first,
// then id. Priority is the 1-based position in that order.
func Synthesize(in Inputs, opts Options) []Recommendation {
	var recs []Recommendation
	if in.Health != nil {
		recs = append(recs, fromHealth(in.Health, opts)...)
	}
	if in.Ranking != nil {
		recs = append(recs, fromHotspots(in.Ranking, opts)...)
	}
	if in.Plan != nil {
		recs = append(recs, fromPlan(in.Plan)...)
	}

	output.SortBySeverity(recs,
		func(r Recommendation) string { return r.Severity },
		func(r Recommendation) string { return r.ID },
	)
	for i := range recs {
		recs[i].Priority = i + 1
	}
	if recs == nil {
		recs = []Recommendation{}
	}
	return recs
}

func fromHealth(h *architecture.Health, opts Options) []Recommendation {
	var recs []Recommendation
	if h.Score < opts.HealthTarget {
		severity := string(architecture.SeverityWarning)
		if h.Score < opts.HealthTarget/2 {
			severity = string(architecture.SeverityError)
		}
		recs = append(recs, Recommendation{
			ID:       "health",
			Category: CategoryHealth,
			Severity: severity,
			Message: fmt.Sprintf("architecture health is %s/100 with %d violation(s)",
				output.FormatFloat(h.Score), len(h.Violations)),
			Action: "resolve the cycle and layering findings, highest severity first",
		})
	}

	for _, v := range h.Violations {
		switch v.Kind {
		case architecture.KindCircular:
			recs = append(recs, Recommendation{
				ID:       "cycle:" + strings.Join(v.Modules, ","),
				Category: CategoryCycle,
				Severity: string(v.Severity),
				Message:  v.Message,
				Action:   fmt.Sprintf("break the cycle at %s -> %s by extracting the shared code or inverting the dependency", v.From, v.To),
				Modules:  v.Modules,
			})
		case architecture.KindLayerViolation:
			recs = append(recs, Recommendation{
				ID:       "layer:" + v.From + "->" + v.To,
				Category: CategoryLayering,
				Severity: string(v.Severity),
				Message:  v.Message,
				Action:   fmt.Sprintf("move what %s needs from %s into a layer %s may use, or depend on an interface", v.From, v.To, layerName(v.FromLayer)),
				Modules:  []string{v.From, v.To},
			})
		}
	}
	return recs
}

func layerName(layer string) string {
	if layer == "" {
		return "it"
	}
	return layer
}

// fromHotspots flags the most central core or cyclic modules.
func fromHotspots(an *ranking.Analysis, opts Options) []Recommendation {
	var recs []Recommendation
	for _, h := range an.Hotspots {
		if len(recs) >= opts.MaxHotspots {
			break
		}
		if h.Classification != ranking.Core && !h.InCycle {
			continue
		}
		severity := string(architecture.SeverityInfo)
		if h.InCycle {
			severity = string(architecture.SeverityWarning)
		}
		recs = append(recs, Recommendation{
			ID:       "hotspot:" + h.ID,
			Category: CategoryHotspot,
			Severity: severity,
			Message: fmt.Sprintf("%s is hotspot #%d (centrality %s, %d dependents, %s)",
				h.ID, h.Rank, output.FormatFloat(h.Centrality), h.Ca, h.Classification),
			Action:  fmt.Sprintf("refactor %s incrementally behind a stable interface", h.ID),
			Modules: []string{h.ID},
		})
	}
	return recs
}

// fromPlan flags risky actions and actions with graph warnings.
func fromPlan(p *plan.Plan) []Recommendation {
	var recs []Recommendation
	for _, a := range p.Actions {
		var severity string
		switch a.RiskLevel {
		case ranking.RiskCritical:
			severity = string(architecture.SeverityError)
		case ranking.RiskHigh:
			severity = string(architecture.SeverityWarning)
		}
		if severity == "" && len(a.Warnings) > 0 {
			severity = string(architecture.SeverityInfo)
		}
		if severity == "" {
			continue
		}

		msg := fmt.Sprintf("%s (%s) is %s risk", a.ID, a.Reason, a.RiskLevel)
		if len(a.Warnings) > 0 {
			msg += ": " + strings.Join(a.Warnings, "; ")
		}
		recs = append(recs, Recommendation{
			ID:       "plan:" + a.ID,
			Category: CategoryPlan,
			Severity: severity,
			Message:  msg,
			Action:   fmt.Sprintf("apply %s on its own and verify the build before step %d", a.ID, a.Order+1),
			Modules:  a.Sources,
		})
	}
	return recs
}
