package recommend

import (
	"context"
	"strings"
	"testing"

	"modplan/internal/plan"
	"modplan/internal/testutil"
)

func ids(recs []Recommendation) string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return strings.Join(out, " ")
}

func TestSynthesize_CycleHotspotsAndPlan(t *testing.T) {
	health, analysis := testutil.Analyze(t, "A->B", "B->A", "C")
	p, err := plan.NewBuilder(nil).Build(context.Background(), []plan.RawAction{
		{ID: "fold", Kind: plan.KindMerge, Sources: []string{"A"}, Target: "B"},
		{ID: "barrel", Kind: plan.KindCreateBarrel, Sources: []string{"C"}},
	}, plan.Inputs{Health: health, Ranking: analysis})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	recs := Synthesize(Inputs{Health: health, Ranking: analysis, Plan: p}, DefaultOptions())

	if got, want := ids(recs), "cycle:A,B plan:fold hotspot:A hotspot:B"; got != want {
		t.Fatalf("ids = %q, want %q", got, want)
	}
	for i, r := range recs {
		if r.Priority != i+1 {
			t.Errorf("%s priority = %d, want %d", r.ID, r.Priority, i+1)
		}
	}

	cycle := recs[0]
	if cycle.Category != CategoryCycle || cycle.Severity != "error" || !strings.Contains(cycle.Action, "A -> B") {
		t.Errorf("cycle recommendation = %+v", cycle)
	}
	fold := recs[1]
	if fold.Severity != "error" || !strings.Contains(fold.Message, "critical risk") || !strings.Contains(fold.Message, "dependency cycle") {
		t.Errorf("plan recommendation = %+v", fold)
	}
	if hot := recs[2]; hot.Severity != "warning" || !strings.Contains(hot.Message, "hotspot #1") {
		t.Errorf("hotspot recommendation = %+v", hot)
	}
}

func TestSynthesize_HealthTarget(t *testing.T) {
	health, _ := testutil.Analyze(t, "A->B", "B->A")

	recs := Synthesize(Inputs{Health: health}, Options{HealthTarget: 95})
	if len(recs) != 2 || recs[1].ID != "health" {
		t.Fatalf("ids = %q, want cycle then health", ids(recs))
	}
	if recs[1].Severity != "warning" || !strings.Contains(recs[1].Message, "90/100") {
		t.Errorf("health recommendation = %+v", recs[1])
	}

	recs = Synthesize(Inputs{Health: health}, Options{HealthTarget: 200})
	for _, r := range recs {
		if r.ID == "health" && r.Severity != "error" {
			t.Errorf("health far below target should be an error, got %s", r.Severity)
		}
	}

	recs = Synthesize(Inputs{Health: health}, DefaultOptions())
	for _, r := range recs {
		if r.ID == "health" {
			t.Error("score 90 meets the default target")
		}
	}
}

func TestSynthesize_LayerViolation(t *testing.T) {
	health, _ := testutil.Analyze(t, "src/core->src/ui", "src/ui")

	recs := Synthesize(Inputs{Health: health}, DefaultOptions())
	var layer *Recommendation
	for i := range recs {
		if recs[i].Category == CategoryLayering {
			layer = &recs[i]
		}
	}
	if layer == nil {
		t.Fatalf("no layering recommendation in %q", ids(recs))
	}
	if layer.ID != "layer:src/core->src/ui" || layer.Severity != "error" {
		t.Errorf("layer recommendation = %+v", layer)
	}
	if !strings.Contains(layer.Action, "a layer core may use") {
		t.Errorf("action = %q", layer.Action)
	}
}

func TestSynthesize_HotspotLimit(t *testing.T) {
	health, analysis := testutil.Analyze(t, "A->B", "B->A")
	recs := Synthesize(Inputs{Health: health, Ranking: analysis}, Options{MaxHotspots: 0})
	for _, r := range recs {
		if r.Category == CategoryHotspot {
			t.Errorf("MaxHotspots 0 should suppress %s", r.ID)
		}
	}
	recs = Synthesize(Inputs{Ranking: analysis}, Options{MaxHotspots: 1})
	if ids(recs) != "hotspot:A" {
		t.Errorf("ids = %q, want hotspot:A", ids(recs))
	}
}

func TestSynthesize_Empty(t *testing.T) {
	recs := Synthesize(Inputs{}, DefaultOptions())
	if recs == nil || len(recs) != 0 {
		t.Errorf("Synthesize() = %#v, want empty non-nil", recs)
	}
}
