package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"

	"modplan/internal/errors"
	"modplan/internal/layers"
)

// shopRepo writes a Go repository where internal/api and internal/core
// import each other and cmd/shop imports internal/api.
func shopRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"go.mod":               "module example.com/shop\n\ngo 1.24\n",
		"cmd/shop/main.go":     "package main\n\nimport _ \"example.com/shop/internal/api\"\n\nfunc main() {}\n",
		"internal/api/api.go":  "package api\n\nimport _ \"example.com/shop/internal/core\"\n",
		"internal/core/core.go": "package core\n\nimport _ \"example.com/shop/internal/api\"\n",
	}
	for rel, body := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

// execute runs the root command with flags reset to their defaults.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configFlag, formatFlag, outputFlag, metricsFileFlag, layersFlag = "", "json", "", "", ""
	verboseFlag, quietFlag = 0, false
	analyzeStrict, analyzeActions, planActions = false, "", ""
	hotspotsLimit, hotspotsSort, layersWrite = 20, "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func decode(t *testing.T, out string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	return m
}

func status(t *testing.T, report map[string]any, id string) string {
	t.Helper()
	results := report["run"].(map[string]any)["results"].(map[string]any)
	res, ok := results[id].(map[string]any)
	if !ok {
		t.Fatalf("no result for %s", id)
	}
	return res["status"].(string)
}

func TestAnalyze(t *testing.T) {
	root := shopRepo(t)

	out, err := execute(t, "analyze", root, "--strict")
	if err != nil {
		t.Fatalf("analyze error: %v", err)
	}
	report := decode(t, out)

	for id, want := range map[string]string{
		"architecture":    "success",
		"ranking":         "success",
		"migration-plan":  "skipped",
		"recommendations": "success",
	} {
		if got := status(t, report, id); got != want {
			t.Errorf("%s status = %s, want %s", id, got, want)
		}
	}

	health := report["health"].(map[string]any)
	kinds := map[string]int{}
	for _, v := range health["violations"].([]any) {
		kinds[v.(map[string]any)["kind"].(string)]++
	}
	if kinds["circular"] != 1 || kinds["layer-violation"] != 1 {
		t.Errorf("violations by kind = %v, want one cycle and one upward layer edge", kinds)
	}
}

func TestAnalyze_CompressedOutputAndMetrics(t *testing.T) {
	root := shopRepo(t)
	dir := t.TempDir()
	target := filepath.Join(dir, "report.json.zst")
	metricsFile := filepath.Join(dir, "modplan.prom")

	if _, err := execute(t, "analyze", root, "--output", target, "--metrics-file", metricsFile); err != nil {
		t.Fatalf("analyze error: %v", err)
	}

	f, err := os.Open(target)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()
	data, err := io.ReadAll(dec)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	decode(t, string(data))

	prom, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatalf("metrics file: %v", err)
	}
	if !strings.Contains(string(prom), "modplan_graph_modules 3") {
		t.Errorf("metrics missing module gauge:\n%s", prom)
	}
}

func TestPlan(t *testing.T) {
	root := shopRepo(t)
	actions := filepath.Join(t.TempDir(), "actions.yaml")
	if err := os.WriteFile(actions, []byte(`actions:
  - kind: delete
    sources: [cmd/shop]
  - id: fold
    kind: merge
    sources: [internal/core]
    target: internal/api
`), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "plan", root, "--actions", actions)
	if err != nil {
		t.Fatalf("plan error: %v", err)
	}
	p := decode(t, out)
	order := p["executionOrder"].([]any)
	if len(order) != 2 || order[0] != "fold" || order[1] != "delete-1" {
		t.Errorf("executionOrder = %v, want [fold delete-1]", order)
	}
}

func TestPlan_InvalidActions(t *testing.T) {
	root := shopRepo(t)
	actions := filepath.Join(t.TempDir(), "actions.yaml")
	if err := os.WriteFile(actions, []byte("actions:\n  - kind: move\n    sources: [internal/core]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := execute(t, "plan", root, "--actions", actions)
	if !errors.HasCode(err, errors.InvalidAction) {
		t.Fatalf("plan error = %v, want INVALID_ACTION", err)
	}
}

func TestHotspots_SortAndLimit(t *testing.T) {
	root := shopRepo(t)

	out, err := execute(t, "hotspots", root, "--sort", "ca:desc,id", "--limit", "1")
	if err != nil {
		t.Fatalf("hotspots error: %v", err)
	}
	resp := decode(t, out)
	mods := resp["modules"].([]any)
	if len(mods) != 1 || mods[0].(map[string]any)["id"] != "internal/api" {
		t.Errorf("modules = %v, want internal/api first", mods)
	}
	if resp["total"].(float64) != 3 {
		t.Errorf("total = %v, want 3", resp["total"])
	}

	if _, err := execute(t, "hotspots", root, "--sort", "bogus"); err == nil {
		t.Error("unknown sort field should fail")
	}
}

func TestLayers_Write(t *testing.T) {
	root := shopRepo(t)
	policyFile := filepath.Join(t.TempDir(), "layers.toml")

	out, err := execute(t, "layers", root, "--write", policyFile)
	if err != nil {
		t.Fatalf("layers error: %v", err)
	}
	resp := decode(t, out)
	assigned := map[string]string{}
	for _, l := range resp["layers"].([]any) {
		layer := l.(map[string]any)
		mods, _ := layer["modules"].([]any)
		for _, m := range mods {
			assigned[m.(string)] = layer["name"].(string)
		}
	}
	want := map[string]string{"cmd/shop": "ui", "internal/api": "integration", "internal/core": "core"}
	for id, layer := range want {
		if assigned[id] != layer {
			t.Errorf("%s layer = %q, want %q", id, assigned[id], layer)
		}
	}

	p, err := layers.LoadTOML(policyFile)
	if err != nil {
		t.Fatalf("written policy does not load: %v", err)
	}
	if len(p.Layers) != 4 {
		t.Errorf("written policy has %d layers, want 4", len(p.Layers))
	}
}

func TestAnalyze_MissingDirectory(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")

	out, err := execute(t, "analyze", missing)
	if err != nil {
		t.Fatalf("analyze error: %v", err)
	}
	report := decode(t, out)
	results := report["run"].(map[string]any)["results"].(map[string]any)
	arch := results["architecture"].(map[string]any)
	if arch["status"] != "error" || arch["code"] != "SCAN_FAILED" {
		t.Errorf("architecture = %v, want error SCAN_FAILED", arch)
	}
	for _, id := range []string{"ranking", "migration-plan", "recommendations"} {
		res := results[id].(map[string]any)
		if res["status"] != "skipped" || res["code"] != "UPSTREAM_SKIP" {
			t.Errorf("%s = %v, want skipped UPSTREAM_SKIP", id, res)
		}
	}

	if _, err := execute(t, "analyze", missing, "--strict"); err == nil {
		t.Error("--strict should fail when the scan fails")
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version error: %v", err)
	}
	if !strings.HasPrefix(out, "modplan version ") {
		t.Errorf("version output = %q", out)
	}
}
