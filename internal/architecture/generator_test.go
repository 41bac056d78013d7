package architecture

import (
	"context"
	"strings"
	"testing"

	"modplan/internal/config"
	"modplan/internal/graph"
	"modplan/internal/layers"
	"modplan/internal/modules"
	"modplan/internal/slogutil"
)

func newTestGenerator(policy *layers.Policy) *Generator {
	return NewGenerator(policy, config.DefaultConfig().Health, slogutil.NewDiscardLogger())
}

func scanOf(ids []string, deps ...modules.Dependency) *modules.ScanResult {
	mods := make([]*modules.Module, len(ids))
	for i, id := range ids {
		mods[i] = modules.NewModule(id, modules.LanguageGo)
	}
	return &modules.ScanResult{Modules: mods, Dependencies: deps}
}

func TestGenerate_TwoModuleCycle(t *testing.T) {
	scan := scanOf([]string{"A", "B"},
		modules.Dependency{From: "A", To: "B", Sites: []modules.ImportSite{{File: "A/a.go", Line: 3}}},
		modules.Dependency{From: "B", To: "A", Sites: []modules.ImportSite{{File: "B/b.go", Line: 5}}},
	)

	health, err := newTestGenerator(nil).Generate(context.Background(), scan)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	circular := health.ViolationsOf(KindCircular)
	if len(circular) != 1 {
		t.Fatalf("got %d circular violations, want 1: %+v", len(circular), health.Violations)
	}
	v := circular[0]
	if len(v.Modules) != 2 || v.Modules[0] != "A" || v.Modules[1] != "B" {
		t.Errorf("Modules = %v, want [A B]", v.Modules)
	}
	if v.From != "A" || v.To != "B" {
		t.Errorf("From/To = %s/%s, want A/B", v.From, v.To)
	}
	if len(v.Edges) != 2 || len(v.Sites) != 2 {
		t.Errorf("Edges/Sites = %v/%v, want both import statements", v.Edges, v.Sites)
	}
	if v.Severity != SeverityError {
		t.Errorf("Severity = %s, want error", v.Severity)
	}
	if health.Score != 90 {
		t.Errorf("Score = %v, want 90", health.Score)
	}
	if !health.CycleMembers()["A"] || !health.CycleMembers()["B"] {
		t.Error("A and B should be cycle members")
	}
}

func TestGenerate_LargeCycleIsCritical(t *testing.T) {
	ids := []string{"m1", "m2", "m3", "m4", "m5", "m6"}
	var deps []modules.Dependency
	for i := range ids {
		deps = append(deps, modules.Dependency{From: ids[i], To: ids[(i+1)%len(ids)]})
	}

	health, err := newTestGenerator(nil).Generate(context.Background(), scanOf(ids, deps...))
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if len(health.Violations) != 1 || health.Violations[0].Severity != SeverityCritical {
		t.Fatalf("Violations = %+v, want one critical cycle", health.Violations)
	}
	if !strings.Contains(health.Violations[0].Message, "6 modules") {
		t.Errorf("Message = %q", health.Violations[0].Message)
	}
}

func TestGenerate_LayerViolations(t *testing.T) {
	scan := scanOf([]string{"src/ui", "src/domain", "src/core", "src/misc"},
		modules.Dependency{From: "src/ui", To: "src/domain"},
		modules.Dependency{From: "src/domain", To: "src/core"},
		modules.Dependency{From: "src/core", To: "src/ui", Sites: []modules.ImportSite{{File: "src/core/x.ts", Line: 1}}},
		modules.Dependency{From: "src/misc", To: "src/ui"},
	)

	health, err := newTestGenerator(nil).Generate(context.Background(), scan)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	layered := health.ViolationsOf(KindLayerViolation)
	if len(layered) != 1 {
		t.Fatalf("got %d layer violations, want 1: %+v", len(layered), layered)
	}
	v := layered[0]
	if v.From != "src/core" || v.To != "src/ui" || v.Severity != SeverityError {
		t.Errorf("violation = %+v", v)
	}
	if v.FromLayer != "core" || v.ToLayer != "ui" {
		t.Errorf("layers = %s -> %s", v.FromLayer, v.ToLayer)
	}
	if len(v.Sites) != 1 || v.Sites[0].File != "src/core/x.ts" {
		t.Errorf("Sites = %+v", v.Sites)
	}

	// The ui -> domain -> core -> ui loop is also a cycle.
	if len(health.ViolationsOf(KindCircular)) != 1 {
		t.Errorf("expected the ui/domain/core cycle to be reported")
	}
	if health.Violations[0].Kind != KindCircular {
		t.Error("circular violations sort first")
	}
	if health.LayerOf("src/misc") != "" {
		t.Errorf("src/misc should be unlayered, got %q", health.LayerOf("src/misc"))
	}
}

func TestGenerate_ExplicitAllowListIsWarning(t *testing.T) {
	policy := layers.MustNew(
		layers.Layer{Name: "app", Patterns: []string{"app"}, Allow: []string{"lib"}},
		layers.Layer{Name: "lib", Patterns: []string{"lib"}},
		layers.Layer{Name: "base", Patterns: []string{"base"}},
	)
	scan := scanOf([]string{"app", "lib", "base"},
		modules.Dependency{From: "app", To: "base"},
		modules.Dependency{From: "app", To: "lib"},
	)

	health, err := newTestGenerator(policy).Generate(context.Background(), scan)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if len(health.Violations) != 1 {
		t.Fatalf("Violations = %+v, want 1", health.Violations)
	}
	if v := health.Violations[0]; v.To != "base" || v.Severity != SeverityWarning {
		t.Errorf("violation = %+v, want app -> base warning", v)
	}
	if health.Score != 95 {
		t.Errorf("Score = %v, want 95", health.Score)
	}
}

func TestGenerate_RejectsUnknownModules(t *testing.T) {
	scan := scanOf([]string{"a"}, modules.Dependency{From: "a", To: "ghost"})

	health, err := newTestGenerator(nil).Generate(context.Background(), scan)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if len(health.Rejected) != 1 || health.Rejected[0] != (graph.Edge{From: "a", To: "ghost"}) {
		t.Errorf("Rejected = %+v", health.Rejected)
	}
	if health.Graph.NumEdges() != 0 || health.Score != 100 {
		t.Errorf("edges/score = %d/%v", health.Graph.NumEdges(), health.Score)
	}
}

func TestGenerate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newTestGenerator(nil).Generate(ctx, scanOf([]string{"a"})); err == nil {
		t.Error("Generate() on cancelled context should fail")
	}
}

func TestSortViolations(t *testing.T) {
	vs := []Violation{
		{Kind: KindLayerViolation, Severity: SeverityWarning, From: "a", To: "b"},
		{Kind: KindLayerViolation, Severity: SeverityError, From: "z", To: "a"},
		{Kind: KindCircular, Severity: SeverityError, From: "m", To: "n"},
		{Kind: KindLayerViolation, Severity: SeverityError, From: "c", To: "d"},
		{Kind: KindCircular, Severity: SeverityCritical, From: "x", To: "y"},
		{Kind: KindLayerViolation, Severity: SeverityError, From: "c", To: "a"},
	}
	SortViolations(vs)

	var got []string
	for _, v := range vs {
		got = append(got, string(v.Severity)+":"+v.From+"->"+v.To)
	}
	want := "critical:x->y error:m->n error:c->a error:c->d error:z->a warning:a->b"
	if strings.Join(got, " ") != want {
		t.Errorf("order = %s\nwant    %s", strings.Join(got, " "), want)
	}
}
