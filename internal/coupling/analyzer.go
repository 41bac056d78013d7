package coupling

import (
	"sort"

	"modplan/internal/graph"
)

// Compute returns Metrics for every node of g. Ca and Ce count distinct
// modules; the graph already collapses duplicate edges.
func Compute(g *graph.DependencyGraph) map[string]Metrics {
	out := make(map[string]Metrics, g.NumNodes())
	for _, id := range g.Nodes() {
		out[id] = Of(g, id)
	}
	return out
}

// Of returns the Metrics of a single module.
func Of(g *graph.DependencyGraph, id string) Metrics {
	m := Metrics{
		Ca: g.InDegree(id),
		Ce: g.OutDegree(id),
	}
	if m.Ca+m.Ce > 0 {
		m.Instability = float64(m.Ce) / float64(m.Ca+m.Ce)
	}
	return m
}

// Summarize aggregates metrics. Modules are visited in id order so the
// floating point average is reproducible.
func Summarize(metrics map[string]Metrics) Summary {
	ids := make([]string, 0, len(metrics))
	for id := range metrics {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	s := Summary{Modules: len(ids)}
	total := 0.0
	for _, id := range ids {
		m := metrics[id]
		total += m.Instability
		if m.Ca > s.MaxCa {
			s.MaxCa = m.Ca
		}
		if m.Ce > s.MaxCe {
			s.MaxCe = m.Ce
		}
		switch GetInstabilityLevel(m.Instability) {
		case "unstable":
			s.Unstable++
		case "balanced":
			s.Balanced++
		default:
			s.Stable++
		}
	}
	if len(ids) > 0 {
		s.AverageInstability = total / float64(len(ids))
	}
	return s
}
