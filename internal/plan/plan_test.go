package plan

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"modplan/internal/errors"
	"modplan/internal/ranking"
	"modplan/internal/slogutil"
	"modplan/internal/testutil"
)

func build(t *testing.T, raw []RawAction, in Inputs) *Plan {
	t.Helper()
	p, err := NewBuilder(slogutil.NewDiscardLogger()).Build(context.Background(), raw, in)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return p
}

func scenarioActions() []RawAction {
	return []RawAction{
		{Kind: KindMerge, Sources: []string{"src/dup"}, Target: "src/utils"},
		{Kind: KindDelete, Sources: []string{"src/old"}},
		{Kind: KindCreateBarrel, Sources: []string{"src/index"}},
	}
}

func TestBuild_MergeDeleteBarrel(t *testing.T) {
	p := build(t, scenarioActions(), Inputs{})

	if len(p.Actions) != 3 {
		t.Fatalf("got %d actions, want 3", len(p.Actions))
	}
	barrel := p.Actions[0]
	if barrel.Kind != KindCreateBarrel || barrel.Order != 1 || len(barrel.Prerequisites) != 0 {
		t.Errorf("first action = %+v, want create-barrel with order 1 and no prerequisites", barrel)
	}
	merge, del := p.Actions[1], p.Actions[2]
	if merge.Kind != KindMerge || del.Kind != KindDelete {
		t.Fatalf("kinds = %s, %s; want merge, delete", merge.Kind, del.Kind)
	}
	if !reflect.DeepEqual(del.Prerequisites, []string{merge.ID}) {
		t.Errorf("delete prerequisites = %v, want [%s]", del.Prerequisites, merge.ID)
	}
	if len(merge.Prerequisites) != 0 {
		t.Errorf("merge without a preceding move has prerequisites %v", merge.Prerequisites)
	}

	testutil.CompareGolden(t, "merge_delete_barrel", p)
}

func TestBuild_Precedence(t *testing.T) {
	raw := []RawAction{
		{ID: "d1", Kind: KindDelete, Sources: []string{"x"}},
		{ID: "g1", Kind: KindMerge, Sources: []string{"a"}, Target: "b"},
		{ID: "m1", Kind: KindMove, Sources: []string{"c"}, Target: "lib/c"},
		{ID: "b1", Kind: KindCreateBarrel, Sources: []string{"lib"}},
		{ID: "g2", Kind: KindMerge, Sources: []string{"e"}, Target: "b"},
		{ID: "m2", Kind: KindMove, Sources: []string{"f"}, Target: "lib/f"},
		{ID: "d2", Kind: KindDelete, Sources: []string{"y"}},
		{ID: "b2", Kind: KindCreateBarrel, Sources: []string{"app"}},
	}
	p := build(t, raw, Inputs{})

	wantOrder := []string{"b1", "b2", "m1", "m2", "g1", "g2", "d1", "d2"}
	if !reflect.DeepEqual(p.ExecutionOrder, wantOrder) {
		t.Fatalf("ExecutionOrder = %v, want %v", p.ExecutionOrder, wantOrder)
	}

	want := map[string]struct {
		prereqs  []string
		parallel bool
		rollback bool
	}{
		"b1": {[]string{}, true, true},
		"b2": {[]string{}, true, true},
		"m1": {[]string{}, false, false},
		"m2": {[]string{}, false, false},
		"g1": {[]string{"m2"}, false, true},
		"g2": {[]string{"m2"}, false, true},
		"d1": {[]string{"g1", "g2"}, true, false},
		"d2": {[]string{"g1", "g2"}, true, false},
	}
	for i, a := range p.Actions {
		if a.Order != i+1 {
			t.Errorf("%s order = %d, want %d", a.ID, a.Order, i+1)
		}
		w := want[a.ID]
		if !reflect.DeepEqual(a.Prerequisites, w.prereqs) {
			t.Errorf("%s prerequisites = %v, want %v", a.ID, a.Prerequisites, w.prereqs)
		}
		if a.CanParallelize != w.parallel {
			t.Errorf("%s canParallelize = %v, want %v", a.ID, a.CanParallelize, w.parallel)
		}
		if a.RollbackPoint != w.rollback {
			t.Errorf("%s rollbackPoint = %v, want %v", a.ID, a.RollbackPoint, w.rollback)
		}
	}

	var after []string
	for _, rp := range p.RollbackPoints {
		after = append(after, rp.After)
	}
	if !reflect.DeepEqual(after, []string{"b1", "b2", "g1", "g2"}) {
		t.Errorf("rollback points after %v", after)
	}

	var stages []string
	for _, s := range p.Stages {
		stages = append(stages, strings.Join(s.Actions, "+"))
	}
	if got := strings.Join(stages, " "); got != "b1+b2 m1 m2 g1 g2 d1+d2" {
		t.Errorf("stages = %s", got)
	}

	if p.Summary.Total != 8 || p.Summary.ByKind[KindMove] != 2 || p.Summary.HighestRisk != ranking.RiskHigh {
		t.Errorf("summary = %+v", p.Summary)
	}
}

func TestBuild_GeneratedIDs(t *testing.T) {
	raw := []RawAction{
		{ID: "merge-1", Kind: KindDelete, Sources: []string{"old"}},
		{Kind: KindMerge, Sources: []string{"a"}, Target: "b"},
		{Kind: KindMerge, Sources: []string{"c"}, Target: "b"},
	}
	p := build(t, raw, Inputs{})
	if !reflect.DeepEqual(p.ExecutionOrder, []string{"merge-2", "merge-3", "merge-1"}) {
		t.Errorf("ExecutionOrder = %v", p.ExecutionOrder)
	}
	del, _ := p.Action("merge-1")
	if !reflect.DeepEqual(del.Prerequisites, []string{"merge-2", "merge-3"}) {
		t.Errorf("delete prerequisites = %v", del.Prerequisites)
	}
}

func TestBuild_Empty(t *testing.T) {
	p := build(t, nil, Inputs{})
	if len(p.Actions) != 0 || len(p.ExecutionOrder) != 0 || len(p.Stages) != 0 {
		t.Errorf("empty plan = %+v", p)
	}
	if p.Summary.HighestRisk != "" {
		t.Errorf("HighestRisk = %q, want empty", p.Summary.HighestRisk)
	}
}

func TestBuild_RiskFromRanking(t *testing.T) {
	health, analysis := testutil.Analyze(t, "A->B", "B->A", "C")
	raw := []RawAction{
		{ID: "cycle", Kind: KindMerge, Sources: []string{"A"}, Target: "B"},
		{ID: "lonely", Kind: KindDelete, Sources: []string{"C"}},
		{ID: "ghost", Kind: KindMove, Sources: []string{"nowhere"}, Target: "x"},
	}
	p := build(t, raw, Inputs{Health: health, Ranking: analysis})

	cycle, _ := p.Action("cycle")
	score, level, _ := analysis.PhaseRisk([]string{"A"})
	if cycle.RiskLevel != level || cycle.RiskScore != score {
		t.Errorf("cycle risk = %s/%v, want %s/%v", cycle.RiskLevel, cycle.RiskScore, level, score)
	}
	if level != ranking.RiskCritical {
		t.Errorf("merging a cycle member should be critical, got %s", level)
	}

	lonely, _ := p.Action("lonely")
	if lonely.RiskLevel != ranking.RiskLow {
		t.Errorf("deleting an isolated module: risk = %s, want low", lonely.RiskLevel)
	}

	ghost, _ := p.Action("ghost")
	if ghost.RiskLevel != ranking.RiskMedium || ghost.RiskScore != 0 {
		t.Errorf("unknown source falls back to kind default, got %s/%v", ghost.RiskLevel, ghost.RiskScore)
	}
	if len(ghost.Warnings) != 1 || !strings.Contains(ghost.Warnings[0], "not a known module") {
		t.Errorf("ghost warnings = %v", ghost.Warnings)
	}
	if len(cycle.Warnings) != 1 || !strings.Contains(cycle.Warnings[0], "dependency cycle") {
		t.Errorf("cycle warnings = %v", cycle.Warnings)
	}
	if p.Summary.HighestRisk != ranking.RiskCritical || p.Summary.Warnings != 2 {
		t.Errorf("summary = %+v", p.Summary)
	}
	if !reflect.DeepEqual(p.Summary.ByRisk, []string{"cycle", "ghost", "lonely"}) {
		t.Errorf("ByRisk = %v, want riskiest first", p.Summary.ByRisk)
	}
}

func TestBuild_DeleteStillImported(t *testing.T) {
	health, _ := testutil.Analyze(t, "app->legacy", "dup->legacy", "dup->util", "util")
	raw := []RawAction{
		{ID: "fold", Kind: KindMerge, Sources: []string{"dup"}, Target: "util"},
		{ID: "drop", Kind: KindDelete, Sources: []string{"legacy"}},
		{ID: "drop-util", Kind: KindDelete, Sources: []string{"util"}},
	}
	p := build(t, raw, Inputs{Health: health})

	drop, _ := p.Action("drop")
	// dup is merged away, so only app still imports legacy.
	if len(drop.Warnings) != 1 || drop.Warnings[0] != "legacy is still imported by app" {
		t.Errorf("drop warnings = %v", drop.Warnings)
	}
	dropUtil, _ := p.Action("drop-util")
	if len(dropUtil.Warnings) != 1 || dropUtil.Warnings[0] != "util is the target of fold" {
		t.Errorf("drop-util warnings = %v", dropUtil.Warnings)
	}
	if drop.RiskLevel != ranking.RiskHigh {
		t.Errorf("without ranking data delete risk = %s, want high", drop.RiskLevel)
	}
}

func TestBuild_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  []RawAction
		want string
	}{
		{"unknown kind", []RawAction{{Kind: "rename", Sources: []string{"a"}}}, "unknown kind"},
		{"missing kind", []RawAction{{Sources: []string{"a"}}}, "kind is required"},
		{"no sources", []RawAction{{Kind: KindDelete}}, "sources needs at least 1"},
		{"empty source", []RawAction{{Kind: KindDelete, Sources: []string{""}}}, "is required"},
		{"move without target", []RawAction{{Kind: KindMove, Sources: []string{"a"}}}, "move requires a target"},
		{"merge without target", []RawAction{{Kind: KindMerge, Sources: []string{"a"}, Target: " "}}, "merge requires a target"},
		{"duplicate id", []RawAction{
			{ID: "x", Kind: KindDelete, Sources: []string{"a"}},
			{ID: "x", Kind: KindDelete, Sources: []string{"b"}},
		}, "action 2: duplicate id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBuilder(nil).Build(context.Background(), tt.raw, Inputs{})
			if !errors.HasCode(err, errors.InvalidAction) {
				t.Fatalf("Build() error = %v, want INVALID_ACTION", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want containing %q", err.Error(), tt.want)
			}
		})
	}
}

func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewBuilder(nil).Build(ctx, scenarioActions(), Inputs{}); err == nil {
		t.Error("Build() on cancelled context should fail")
	}
}

func TestBuild_DoesNotAliasInput(t *testing.T) {
	raw := scenarioActions()
	p := build(t, raw, Inputs{})
	p.Actions[1].Sources[0] = "changed"
	if raw[0].Sources[0] != "src/dup" {
		t.Error("plan actions must not share source slices with the raw input")
	}
}
