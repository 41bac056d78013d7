// Package architecture builds the module dependency graph from a scan and
// reports its health: dependency cycles, layer policy breaches and a 0-100
// score.
package architecture

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"modplan/internal/config"
	"modplan/internal/graph"
	"modplan/internal/layers"
	"modplan/internal/modules"
	"modplan/internal/output"
	"modplan/internal/slogutil"
)

// Generator turns a module scan into a Health report
type Generator struct {
	policy *layers.Policy
	config config.HealthConfig
	logger *slog.Logger
}

// NewGenerator creates a generator. A nil policy means the default layer
// policy.
func NewGenerator(policy *layers.Policy, cfg config.HealthConfig, logger *slog.Logger) *Generator {
	if policy == nil {
		policy = layers.DefaultPolicy()
	}
	return &Generator{
		policy: policy,
		config: cfg,
		logger: slogutil.OrDiscard(logger),
	}
}

// Policy returns the layer policy in use.
func (g *Generator) Policy() *layers.Policy {
	return g.policy
}

// Generate builds the graph and evaluates it. Dependencies naming modules
// absent from the scan are dropped and reported in Health.Rejected.
func (g *Generator) Generate(ctx context.Context, scan *modules.ScanResult) (*Health, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if scan == nil {
		scan = &modules.ScanResult{}
	}

	g.logger.Debug("Generating architecture health",
		"modules", len(scan.Modules),
		"dependencies", len(scan.Dependencies),
	)

	summaries := make([]ModuleSummary, 0, len(scan.Modules))
	layerOf := make(map[string]string, len(scan.Modules))
	ids := make([]string, 0, len(scan.Modules))
	for _, m := range scan.Modules {
		layer := g.policy.Assign(m)
		layerOf[m.ID] = layer
		ids = append(ids, m.ID)
		summaries = append(summaries, ModuleSummary{
			ID:       m.ID,
			Name:     m.Name,
			RootPath: m.RootPath,
			Language: m.Language,
			Layer:    layer,
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })

	edges := make([]graph.Edge, 0, len(scan.Dependencies))
	sites := make(map[graph.Edge][]modules.ImportSite, len(scan.Dependencies))
	for _, d := range scan.Dependencies {
		e := graph.Edge{From: d.From, To: d.To}
		edges = append(edges, e)
		sites[e] = append(sites[e], d.Sites...)
	}

	dg, rejected := graph.Build(ids, edges)
	for _, e := range rejected {
		g.logger.Warn("Dropping dependency on unknown module", "from", e.From, "to", e.To)
	}

	violations := g.cycleViolations(dg, sites)
	violations = append(violations, g.layerViolations(dg, layerOf, sites)...)
	SortViolations(violations)

	health := &Health{
		Score:      Score(violations, g.config),
		Violations: violations,
		Graph:      dg,
		Modules:    summaries,
		Layers:     g.policy.Names(),
		Rejected:   rejected,
		Skipped:    scan.Failures,
		Method:     scan.Method,
	}

	g.logger.Info("Architecture health computed",
		"score", health.Score,
		"violations", len(violations),
		"modules", dg.NumNodes(),
		"edges", dg.NumEdges(),
	)
	return health, nil
}

func (g *Generator) cycleViolations(dg *graph.DependencyGraph, sites map[graph.Edge][]modules.ImportSite) []Violation {
	var out []Violation
	for _, c := range dg.Cycles() {
		first := c.Edges[0]
		out = append(out, Violation{
			Kind:     KindCircular,
			From:     first.From,
			To:       first.To,
			Message:  cycleMessage(c),
			Severity: cycleSeverity(c.Size(), g.config.CriticalCycleSize),
			Modules:  c.Nodes,
			Edges:    c.Edges,
			Sites:    collectSites(c.Edges, sites),
		})
	}
	return out
}

func cycleMessage(c graph.Component) string {
	if c.Size() == 2 {
		return fmt.Sprintf("circular dependency: %s <-> %s", c.Nodes[0], c.Nodes[1])
	}
	return fmt.Sprintf("circular dependency among %d modules: %s", c.Size(), strings.Join(c.Nodes, ", "))
}

func (g *Generator) layerViolations(dg *graph.DependencyGraph, layerOf map[string]string, sites map[graph.Edge][]modules.ImportSite) []Violation {
	var out []Violation
	for _, e := range dg.Edges() {
		from, to := layerOf[e.From], layerOf[e.To]
		if g.policy.Allows(from, to) {
			continue
		}
		severity := SeverityWarning
		direction := "a layer it may not use"
		if g.policy.IsUpward(from, to) {
			severity = SeverityError
			direction = "a higher layer"
		}
		out = append(out, Violation{
			Kind:      KindLayerViolation,
			From:      e.From,
			To:        e.To,
			Message:   fmt.Sprintf("%s (%s) depends on %s (%s), %s", e.From, from, e.To, to, direction),
			Severity:  severity,
			Modules:   []string{e.From, e.To},
			Edges:     []graph.Edge{e},
			Sites:     collectSites([]graph.Edge{e}, sites),
			FromLayer: from,
			ToLayer:   to,
		})
	}
	return out
}

func collectSites(edges []graph.Edge, sites map[graph.Edge][]modules.ImportSite) []modules.ImportSite {
	var out []modules.ImportSite
	for _, e := range edges {
		out = append(out, sites[e]...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		return out[i].Line < out[j].Line
	})
	return out
}

// SortViolations orders violations by kind, severity, then endpoints.
func SortViolations(vs []Violation) {
	output.SortBySeverity(vs,
		func(v Violation) string { return string(v.Severity) },
		func(v Violation) string { return v.From + "\x00" + v.To },
	)
	sort.SliceStable(vs, func(i, j int) bool {
		return vs[i].Kind == KindCircular && vs[j].Kind != KindCircular
	})
}
