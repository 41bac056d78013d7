// Package testutil provides module-graph fixtures and golden-file helpers
// for tests.
package testutil

import (
	"context"
	"sort"
	"strings"
	"testing"

	"modplan/internal/architecture"
	"modplan/internal/config"
	"modplan/internal/graph"
	"modplan/internal/modules"
	"modplan/internal/ranking"
	"modplan/internal/slogutil"
)

// Scan builds a scan result from edge specs of the form "a->b". A spec
// without an arrow declares an isolated module. Every module is a Go module
// rooted at its id; modules are sorted by id and dependencies keep spec
// order.
func Scan(specs ...string) *modules.ScanResult {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	var deps []modules.Dependency
	for _, spec := range specs {
		from, to, ok := strings.Cut(spec, "->")
		from = strings.TrimSpace(from)
		add(from)
		if !ok {
			continue
		}
		to = strings.TrimSpace(to)
		add(to)
		deps = append(deps, modules.Dependency{From: from, To: to})
	}

	sort.Strings(ids)
	mods := make([]*modules.Module, len(ids))
	for i, id := range ids {
		mods[i] = modules.NewModule(id, modules.LanguageGo)
	}
	return &modules.ScanResult{Modules: mods, Dependencies: deps, Method: "static"}
}

// Source wraps Scan in a static module source.
func Source(specs ...string) modules.StaticSource {
	scan := Scan(specs...)
	return modules.StaticSource{Modules: scan.Modules, Dependencies: scan.Dependencies}
}

// Graph builds a dependency graph from edge specs, failing the test if any
// edge is rejected.
func Graph(t testing.TB, specs ...string) *graph.DependencyGraph {
	t.Helper()

	scan := Scan(specs...)
	nodes := make([]string, len(scan.Modules))
	for i, m := range scan.Modules {
		nodes[i] = m.ID
	}
	edges := make([]graph.Edge, len(scan.Dependencies))
	for i, d := range scan.Dependencies {
		edges[i] = graph.Edge{From: d.From, To: d.To}
	}
	g, rejected := graph.Build(nodes, edges)
	if len(rejected) > 0 {
		t.Fatalf("fixture edges rejected: %v", rejected)
	}
	return g
}

// Analyze runs the architecture generator and the ranking analyzer over the
// fixture with default configuration.
func Analyze(t testing.TB, specs ...string) (*architecture.Health, *ranking.Analysis) {
	t.Helper()

	cfg := config.DefaultConfig()
	health, err := architecture.NewGenerator(nil, cfg.Health, slogutil.NewDiscardLogger()).
		Generate(context.Background(), Scan(specs...))
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	opts := ranking.OptionsFromConfig(cfg.Ranking)
	opts.HotspotLimit = 0
	analysis, err := ranking.NewAnalyzer(opts, slogutil.NewDiscardLogger()).
		Analyze(context.Background(), health.Graph, health.CycleMembers())
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	return health, analysis
}
