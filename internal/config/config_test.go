package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", cfg.Version, CurrentVersion)
	}
	if cfg.Ranking.Damping != 0.85 {
		t.Errorf("Damping = %v, want 0.85", cfg.Ranking.Damping)
	}
	if cfg.Ranking.LeafPercentile != 20 || cfg.Ranking.CorePercentile != 80 {
		t.Errorf("percentiles = %v/%v, want 20/80", cfg.Ranking.LeafPercentile, cfg.Ranking.CorePercentile)
	}
	if cfg.Ranking.WeightCa != 10 || cfg.Ranking.WeightCentrality != 100 || cfg.Ranking.CycleMultiplier != 1.5 {
		t.Errorf("risk weights = %v/%v/%v, want 10/100/1.5",
			cfg.Ranking.WeightCa, cfg.Ranking.WeightCentrality, cfg.Ranking.CycleMultiplier)
	}
	if cfg.Health.Curve != "linear" {
		t.Errorf("Curve = %q, want linear", cfg.Health.Curve)
	}
	if cfg.Orchestrator.StrictCycles {
		t.Error("StrictCycles should be off by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad version", func(c *Config) { c.Version = 7 }, "version"},
		{"empty repo root", func(c *Config) { c.RepoRoot = "" }, "repoRoot"},
		{"damping out of range", func(c *Config) { c.Ranking.Damping = 1.2 }, "ranking.damping"},
		{"core below leaf", func(c *Config) { c.Ranking.CorePercentile = 10 }, "ranking.corePercentile"},
		{"multiplier below one", func(c *Config) { c.Ranking.CycleMultiplier = 0.5 }, "ranking.cycleMultiplier"},
		{"unknown curve", func(c *Config) { c.Health.Curve = "cubic" }, "health.curve"},
		{"negative penalty", func(c *Config) { c.Health.Penalties.Error = -1 }, "health.penalties.error"},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"zero concurrency", func(c *Config) { c.Scan.Concurrency = 0 }, "scan.concurrency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate() = %v, want *ConfigError", err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.wantField)
			}
		})
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.RepoRoot != dir {
		t.Errorf("RepoRoot = %q, want %q", cfg.RepoRoot, dir)
	}
	if cfg.Ranking.MaxIterations != 100 {
		t.Errorf("MaxIterations = %d, want 100", cfg.Ranking.MaxIterations)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.RepoRoot = dir
	cfg.Ranking.HotspotLimit = 3
	cfg.Health.Curve = "exponential"
	cfg.Orchestrator.StrictCycles = true
	if err := cfg.Save(dir); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if loaded.Ranking.HotspotLimit != 3 {
		t.Errorf("HotspotLimit = %d, want 3", loaded.Ranking.HotspotLimit)
	}
	if loaded.Health.Curve != "exponential" {
		t.Errorf("Curve = %q, want exponential", loaded.Health.Curve)
	}
	if !loaded.Orchestrator.StrictCycles {
		t.Error("StrictCycles should round-trip")
	}
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, DirName), 0o755); err != nil {
		t.Fatal(err)
	}
	body := `{"ranking": {"damping": 0.9}}`
	if err := os.WriteFile(filepath.Join(dir, DirName, "config.json"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Ranking.Damping != 0.9 {
		t.Errorf("Damping = %v, want 0.9", cfg.Ranking.Damping)
	}
	if cfg.Ranking.CorePercentile != 80 {
		t.Errorf("CorePercentile = %v, want default 80", cfg.Ranking.CorePercentile)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MODPLAN_HEALTH_CURVE", "exponential")
	t.Setenv("MODPLAN_ORCHESTRATOR_STRICTCYCLES", "true")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Health.Curve != "exponential" {
		t.Errorf("Curve = %q, want env override", cfg.Health.Curve)
	}
	if !cfg.Orchestrator.StrictCycles {
		t.Error("StrictCycles should be set from env")
	}
}

func TestLoadConfigFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modplan.yaml")
	body := strings.Join([]string{
		"ranking:",
		"  hotspotLimit: 4",
		"logging:",
		"  level: debug",
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() error: %v", err)
	}
	if cfg.Ranking.HotspotLimit != 4 {
		t.Errorf("HotspotLimit = %d, want 4", cfg.Ranking.HotspotLimit)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{Field: "health.curve", Message: "must be one of [linear exponential]"}
	want := "config error in field 'health.curve': must be one of [linear exponential]"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
