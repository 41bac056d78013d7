package ranking

import (
	"context"
	"log/slog"
	"sort"

	"modplan/internal/coupling"
	"modplan/internal/graph"
	"modplan/internal/output"
	"modplan/internal/slogutil"
)

// uniformTolerance is how close centralities must be to count as equal.
const uniformTolerance = 1e-12

// Analyzer ranks the modules of a dependency graph
type Analyzer struct {
	opts   Options
	logger *slog.Logger
}

// NewAnalyzer creates a new ranking analyzer
func NewAnalyzer(opts Options, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		opts:   opts,
		logger: slogutil.OrDiscard(logger),
	}
}

// Analyze ranks every module of g. cycleMembers marks modules that take part
// in a dependency cycle; their phases get the cycle risk multiplier.
func (a *Analyzer) Analyze(ctx context.Context, g *graph.DependencyGraph, cycleMembers map[string]bool) (*Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids := g.Nodes()
	centrality := g.Centrality(a.opts.Centrality)
	metrics := coupling.Compute(g)

	caSet := make([]float64, len(ids))
	centSet := make([]float64, len(ids))
	for i, id := range ids {
		caSet[i] = float64(metrics[id].Ca)
		centSet[i] = centrality.Scores[id]
	}
	uniform := flat(caSet, 0) && flat(centSet, uniformTolerance)

	analysis := &Analysis{
		Centrality:     centrality.Scores,
		Coupling:       metrics,
		Classification: make(map[string]Classification, len(ids)),
		Modules:        make([]ModuleRank, len(ids)),
		Summary:        coupling.Summarize(metrics),
		Iterations:     centrality.Iterations,
		Converged:      centrality.Converged,
		opts:           a.opts,
		index:          make(map[string]int, len(ids)),
	}

	for i, id := range ids {
		m := metrics[id]
		pos := Position{
			Ca:                   m.Ca,
			CaPercentile:         Percentile(caSet[i], caSet),
			CentralityPercentile: Percentile(centSet[i], centSet),
			Uniform:              uniform,
		}
		class := Classify(pos, a.opts)
		analysis.Classification[id] = class
		analysis.index[id] = i
		analysis.Modules[i] = ModuleRank{
			ID:                   id,
			Centrality:           centSet[i],
			Ca:                   m.Ca,
			Ce:                   m.Ce,
			Instability:          m.Instability,
			CaPercentile:         pos.CaPercentile,
			CentralityPercentile: pos.CentralityPercentile,
			Classification:       class,
			InCycle:              cycleMembers[id],
		}
	}

	analysis.Hotspots = a.hotspots(analysis)
	analysis.Phases = a.phases(analysis)

	if !centrality.Converged {
		a.logger.Warn("Centrality did not converge",
			"iterations", centrality.Iterations,
			"epsilon", a.opts.Centrality.Epsilon,
		)
	}
	a.logger.Debug("Ranking computed",
		"modules", len(ids),
		"hotspots", len(analysis.Hotspots),
		"phases", len(analysis.Phases),
	)
	return analysis, nil
}

// hotspots ranks modules by centrality. Centralities equal after rounding
// tie on id, so float noise cannot reorder symmetric modules.
func (a *Analyzer) hotspots(analysis *Analysis) []Hotspot {
	ranked := make([]ModuleRank, len(analysis.Modules))
	copy(ranked, analysis.Modules)
	output.SortByScore(ranked,
		func(m ModuleRank) float64 { return m.Centrality },
		func(m ModuleRank) string { return m.ID },
	)

	limit := len(ranked)
	if a.opts.HotspotLimit > 0 && a.opts.HotspotLimit < limit {
		limit = a.opts.HotspotLimit
	}
	out := make([]Hotspot, 0, limit)
	for i, m := range ranked[:limit] {
		out = append(out, Hotspot{
			Rank:           i + 1,
			ID:             m.ID,
			Centrality:     m.Centrality,
			Ca:             m.Ca,
			Classification: m.Classification,
			InCycle:        m.InCycle,
		})
	}
	return out
}

func (a *Analyzer) phases(analysis *Analysis) []Phase {
	var out []Phase
	for _, class := range phaseOrder {
		var members []string
		for _, m := range analysis.Modules {
			if m.Classification == class {
				members = append(members, m.ID)
			}
		}
		if len(members) == 0 {
			continue
		}
		score, level, inCycle, _ := analysis.risk(members)
		out = append(out, Phase{
			Number:         len(out) + 1,
			Classification: class,
			Modules:        members,
			RiskScore:      score,
			RiskLevel:      level,
			InCycle:        inCycle,
		})
	}
	return out
}

// Module returns the ranking record of id.
func (an *Analysis) Module(id string) (ModuleRank, bool) {
	i, ok := an.index[id]
	if !ok {
		return ModuleRank{}, false
	}
	return an.Modules[i], true
}

// PhaseRisk scores a set of modules as one refactoring phase: the mean of
// Ca*WeightCa + centrality*WeightCentrality, times CycleMultiplier when any
// member is in a cycle. Ids unknown to the graph are ignored; ok is false
// when none is known.
func (an *Analysis) PhaseRisk(ids []string) (score float64, level RiskLevel, ok bool) {
	score, level, _, ok = an.risk(ids)
	return score, level, ok
}

func (an *Analysis) risk(ids []string) (float64, RiskLevel, bool, bool) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	total := 0.0
	known := 0
	inCycle := false
	for _, id := range sorted {
		m, ok := an.Module(id)
		if !ok {
			continue
		}
		known++
		total += float64(m.Ca)*an.opts.WeightCa + m.Centrality*an.opts.WeightCentrality
		inCycle = inCycle || m.InCycle
	}
	if known == 0 {
		return 0, RiskLow, false, false
	}

	score := total / float64(known)
	if inCycle && an.opts.CycleMultiplier > 0 {
		score *= an.opts.CycleMultiplier
	}
	return score, LevelFor(score, an.opts), inCycle, true
}

// ModulesOf returns the ids with the given classification, sorted.
func (an *Analysis) ModulesOf(class Classification) []string {
	var out []string
	for _, m := range an.Modules {
		if m.Classification == class {
			out = append(out, m.ID)
		}
	}
	return out
}
