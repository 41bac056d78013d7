package main

import (
	"fmt"
	"strings"

	"modplan/internal/orchestrator"
	"modplan/internal/output"
	"modplan/internal/pipeline"
	"modplan/internal/plan"
	"modplan/internal/recommend"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON renders the response with sorted keys and rounded floats so
// repeated runs produce identical bytes.
func formatJSON(resp interface{}) (string, error) {
	data, err := output.DeterministicEncodeIndented(resp, "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *pipeline.Report:
		return formatReportHuman(v), nil
	case *plan.Plan:
		var b strings.Builder
		writePlan(&b, v)
		return b.String(), nil
	case *HotspotsResponseCLI:
		return formatHotspotsHuman(v), nil
	case *LayersResponseCLI:
		return formatLayersHuman(v), nil
	default:
		return formatJSON(resp)
	}
}

func statusIcon(s orchestrator.Status) string {
	switch s {
	case orchestrator.StatusSuccess:
		return "✓"
	case orchestrator.StatusSkipped:
		return "-"
	default:
		return "✗"
	}
}

func heading(b *strings.Builder, title string) {
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
}

func formatReportHuman(r *pipeline.Report) string {
	var b strings.Builder

	heading(&b, "modplan Analysis")

	if r.Run != nil {
		b.WriteString(fmt.Sprintf("Analyzers (%d pass", r.Run.Passes))
		if r.Run.Passes != 1 {
			b.WriteString("es")
		}
		b.WriteString("):\n")
		for _, id := range r.Run.Order {
			res := r.Run.Results[id]
			line := fmt.Sprintf("  %s %s: %s", statusIcon(res.Status), id, res.Status)
			if res.Reason != "" {
				line += " (" + res.Reason + ")"
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}

	if h := r.Health; h != nil {
		b.WriteString(fmt.Sprintf("Health: %s/100 (%d modules, %d edges, %d violations)\n",
			output.FormatFloat(h.Score), h.Graph.NumNodes(), h.Graph.NumEdges(), len(h.Violations)))
		for _, v := range h.Violations {
			b.WriteString(fmt.Sprintf("  [%s] %s\n", v.Severity, v.Message))
		}
		if len(h.Rejected) > 0 {
			b.WriteString(fmt.Sprintf("  ! %d dependencies on unknown modules dropped\n", len(h.Rejected)))
		}
		if len(h.Skipped) > 0 {
			b.WriteString(fmt.Sprintf("  ! %d files could not be read\n", len(h.Skipped)))
		}
		b.WriteString("\n")
	}

	if an := r.Ranking; an != nil && len(an.Hotspots) > 0 {
		b.WriteString("Hotspots:\n")
		for _, h := range an.Hotspots {
			cycle := ""
			if h.InCycle {
				cycle = ", in cycle"
			}
			b.WriteString(fmt.Sprintf("  %d. %s (%s, centrality %s, %d dependents%s)\n",
				h.Rank, h.ID, h.Classification, output.FormatFloat(h.Centrality), h.Ca, cycle))
		}
		b.WriteString("\n")
	}

	if r.Plan != nil {
		writePlan(&b, r.Plan)
		b.WriteString("\n")
	}

	if len(r.Recommendations) > 0 {
		writeRecommendations(&b, r.Recommendations)
	}
	return b.String()
}

func writePlan(b *strings.Builder, p *plan.Plan) {
	b.WriteString(fmt.Sprintf("Migration Plan: %d actions", p.Summary.Total))
	if p.Summary.HighestRisk != "" {
		b.WriteString(fmt.Sprintf(", highest risk %s", p.Summary.HighestRisk))
	}
	b.WriteString("\n")

	for _, st := range p.Stages {
		mode := "sequential"
		if st.Parallel {
			mode = "parallel"
		}
		b.WriteString(fmt.Sprintf("  Stage %d (%s, %s):\n", st.Index+1, st.Kind, mode))
		for _, id := range st.Actions {
			a, _ := p.Action(id)
			b.WriteString(fmt.Sprintf("    %d. %s [%s risk] %s\n", a.Order, a.ID, a.RiskLevel, a.Reason))
			if len(a.Prerequisites) > 0 {
				b.WriteString(fmt.Sprintf("       after: %s\n", strings.Join(a.Prerequisites, ", ")))
			}
			for _, w := range a.Warnings {
				b.WriteString(fmt.Sprintf("       ! %s\n", w))
			}
			if a.RollbackPoint {
				b.WriteString("       -- rollback point --\n")
			}
		}
	}
}

func writeRecommendations(b *strings.Builder, recs []recommend.Recommendation) {
	b.WriteString("Recommendations:\n")
	for _, r := range recs {
		b.WriteString(fmt.Sprintf("  %d. [%s] %s\n", r.Priority, r.Severity, r.Message))
		if r.Action != "" {
			b.WriteString(fmt.Sprintf("     → %s\n", r.Action))
		}
	}
}

func formatHotspotsHuman(resp *HotspotsResponseCLI) string {
	var b strings.Builder

	heading(&b, "Module Hotspots")
	b.WriteString(fmt.Sprintf("Showing %d of %d modules", len(resp.Modules), resp.Total))
	if !resp.Converged {
		b.WriteString(" (centrality did not converge)")
	}
	b.WriteString("\n\n")

	for i, m := range resp.Modules {
		b.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, m.ID, m.Classification))
		b.WriteString(fmt.Sprintf("   Centrality: %s (p%d)\n", output.FormatFloat(m.Centrality), m.CentralityPercentile))
		b.WriteString(fmt.Sprintf("   Coupling: Ca %d (p%d), Ce %d, instability %s\n",
			m.Ca, m.CaPercentile, m.Ce, output.FormatFloat(m.Instability)))
		if m.InCycle {
			b.WriteString("   ⚠ part of a dependency cycle\n")
		}
	}
	return b.String()
}

func formatLayersHuman(resp *LayersResponseCLI) string {
	var b strings.Builder

	heading(&b, "Layer Policy")
	for i, l := range resp.Layers {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, l.Name))
		if len(l.Patterns) > 0 {
			b.WriteString(fmt.Sprintf("   Patterns: %s\n", strings.Join(l.Patterns, ", ")))
		}
		if len(l.Allow) > 0 {
			b.WriteString(fmt.Sprintf("   May depend on: %s\n", strings.Join(l.Allow, ", ")))
		}
		if len(l.Modules) == 0 {
			b.WriteString("   Modules: (none)\n")
		} else {
			b.WriteString(fmt.Sprintf("   Modules: %s\n", strings.Join(l.Modules, ", ")))
		}
	}
	if len(resp.Unlayered) > 0 {
		b.WriteString(fmt.Sprintf("\nUnlayered: %s\n", strings.Join(resp.Unlayered, ", ")))
	}
	return b.String()
}
