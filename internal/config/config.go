package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = 1

// DirName is the per-repository directory holding config.json.
const DirName = ".modplan"

// Config represents the complete modplan configuration.
type Config struct {
	Version  int    `json:"version" mapstructure:"version" validate:"eq=1"`
	RepoRoot string `json:"repoRoot" mapstructure:"repoRoot" validate:"required"`

	Scan         ScanConfig         `json:"scan" mapstructure:"scan"`
	Layers       LayersConfig       `json:"layers" mapstructure:"layers"`
	Ranking      RankingConfig      `json:"ranking" mapstructure:"ranking"`
	Health       HealthConfig       `json:"health" mapstructure:"health"`
	Orchestrator OrchestratorConfig `json:"orchestrator" mapstructure:"orchestrator"`
	Logging      LoggingConfig      `json:"logging" mapstructure:"logging"`
	Telemetry    TelemetryConfig    `json:"telemetry" mapstructure:"telemetry"`
}

// ScanConfig contains module detection and import scanning configuration
type ScanConfig struct {
	DeclarationFile  string   `json:"declarationFile" mapstructure:"declarationFile"`
	Roots            []string `json:"roots" mapstructure:"roots"`
	Ignore           []string `json:"ignore" mapstructure:"ignore"`
	MaxFileSizeBytes int      `json:"maxFileSizeBytes" mapstructure:"maxFileSizeBytes" validate:"gte=0"`
	Concurrency      int      `json:"concurrency" mapstructure:"concurrency" validate:"gte=1,lte=256"`
}

// LayersConfig points at an explicit layer policy file.
// An empty PolicyFile selects the built-in default policy.
type LayersConfig struct {
	PolicyFile string `json:"policyFile" mapstructure:"policyFile"`
}

// RankingConfig contains the centrality and classification policy parameters.
type RankingConfig struct {
	Damping          float64 `json:"damping" mapstructure:"damping" validate:"gt=0,lt=1"`
	Epsilon          float64 `json:"epsilon" mapstructure:"epsilon" validate:"gt=0"`
	MaxIterations    int     `json:"maxIterations" mapstructure:"maxIterations" validate:"gte=1"`
	LeafPercentile   float64 `json:"leafPercentile" mapstructure:"leafPercentile" validate:"gte=0,lte=100"`
	CorePercentile   float64 `json:"corePercentile" mapstructure:"corePercentile" validate:"gte=0,lte=100,gtefield=LeafPercentile"`
	WeightCa         float64 `json:"weightCa" mapstructure:"weightCa" validate:"gte=0"`
	WeightCentrality float64 `json:"weightCentrality" mapstructure:"weightCentrality" validate:"gte=0"`
	CycleMultiplier  float64 `json:"cycleMultiplier" mapstructure:"cycleMultiplier" validate:"gte=1"`
	HotspotLimit     int     `json:"hotspotLimit" mapstructure:"hotspotLimit" validate:"gte=0"`
	MediumRisk       float64 `json:"mediumRisk" mapstructure:"mediumRisk" validate:"gte=0"`
	HighRisk         float64 `json:"highRisk" mapstructure:"highRisk" validate:"gtefield=MediumRisk"`
	CriticalRisk     float64 `json:"criticalRisk" mapstructure:"criticalRisk" validate:"gtefield=HighRisk"`
}

// HealthConfig contains the health score curve.
type HealthConfig struct {
	Curve             string        `json:"curve" mapstructure:"curve" validate:"oneof=linear exponential"`
	Scale             float64       `json:"scale" mapstructure:"scale" validate:"gt=0"`
	CriticalCycleSize int           `json:"criticalCycleSize" mapstructure:"criticalCycleSize" validate:"gte=2"`
	Penalties         PenaltyConfig `json:"penalties" mapstructure:"penalties"`
}

// PenaltyConfig holds the per-severity score penalties.
type PenaltyConfig struct {
	Critical float64 `json:"critical" mapstructure:"critical" validate:"gte=0"`
	Error    float64 `json:"error" mapstructure:"error" validate:"gte=0"`
	Warning  float64 `json:"warning" mapstructure:"warning" validate:"gte=0"`
	Info     float64 `json:"info" mapstructure:"info" validate:"gte=0"`
}

// OrchestratorConfig contains analyzer scheduling configuration
type OrchestratorConfig struct {
	// StrictCycles turns a cyclic analyzer declaration into a startup failure.
	StrictCycles bool `json:"strictCycles" mapstructure:"strictCycles"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format" validate:"oneof=human json"`
	Level  string `json:"level" mapstructure:"level" validate:"oneof=debug info warn warning error"`
	File   string `json:"file" mapstructure:"file"`
}

// TelemetryConfig contains metrics and tracing configuration
type TelemetryConfig struct {
	MetricsFile    string `json:"metricsFile" mapstructure:"metricsFile"`
	TracingEnabled bool   `json:"tracingEnabled" mapstructure:"tracingEnabled"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:  CurrentVersion,
		RepoRoot: ".",
		Scan: ScanConfig{
			DeclarationFile:  "MODULES.toml",
			Roots:            []string{},
			Ignore:           []string{"node_modules", "build", ".dart_tool", "vendor", ".git", DirName},
			MaxFileSizeBytes: 1000000,
			Concurrency:      8,
		},
		Ranking: RankingConfig{
			Damping:          0.85,
			Epsilon:          1e-6,
			MaxIterations:    100,
			LeafPercentile:   20,
			CorePercentile:   80,
			WeightCa:         10,
			WeightCentrality: 100,
			CycleMultiplier:  1.5,
			HotspotLimit:     10,
			MediumRisk:       10,
			HighRisk:         30,
			CriticalRisk:     50,
		},
		Health: HealthConfig{
			Curve:             "linear",
			Scale:             50,
			CriticalCycleSize: 5,
			Penalties: PenaltyConfig{
				Critical: 20,
				Error:    10,
				Warning:  5,
				Info:     1,
			},
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "warn",
		},
	}
}

// LoadConfig loads configuration from .modplan/config.json under repoRoot.
// A missing file yields DefaultConfig with RepoRoot set.
func LoadConfig(repoRoot string) (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(repoRoot, DirName))
	v.SetDefault("repoRoot", repoRoot)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return unmarshal(v)
}

// LoadConfigFile loads configuration from an explicit file path.
// The format follows the file extension (json, yaml, toml).
func LoadConfigFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix("MODPLAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// setDefaults registers every key so env overrides resolve through AutomaticEnv.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)
	v.SetDefault("repoRoot", d.RepoRoot)

	v.SetDefault("scan.declarationFile", d.Scan.DeclarationFile)
	v.SetDefault("scan.roots", d.Scan.Roots)
	v.SetDefault("scan.ignore", d.Scan.Ignore)
	v.SetDefault("scan.maxFileSizeBytes", d.Scan.MaxFileSizeBytes)
	v.SetDefault("scan.concurrency", d.Scan.Concurrency)

	v.SetDefault("layers.policyFile", d.Layers.PolicyFile)

	v.SetDefault("ranking.damping", d.Ranking.Damping)
	v.SetDefault("ranking.epsilon", d.Ranking.Epsilon)
	v.SetDefault("ranking.maxIterations", d.Ranking.MaxIterations)
	v.SetDefault("ranking.leafPercentile", d.Ranking.LeafPercentile)
	v.SetDefault("ranking.corePercentile", d.Ranking.CorePercentile)
	v.SetDefault("ranking.weightCa", d.Ranking.WeightCa)
	v.SetDefault("ranking.weightCentrality", d.Ranking.WeightCentrality)
	v.SetDefault("ranking.cycleMultiplier", d.Ranking.CycleMultiplier)
	v.SetDefault("ranking.hotspotLimit", d.Ranking.HotspotLimit)
	v.SetDefault("ranking.mediumRisk", d.Ranking.MediumRisk)
	v.SetDefault("ranking.highRisk", d.Ranking.HighRisk)
	v.SetDefault("ranking.criticalRisk", d.Ranking.CriticalRisk)

	v.SetDefault("health.curve", d.Health.Curve)
	v.SetDefault("health.scale", d.Health.Scale)
	v.SetDefault("health.criticalCycleSize", d.Health.CriticalCycleSize)
	v.SetDefault("health.penalties.critical", d.Health.Penalties.Critical)
	v.SetDefault("health.penalties.error", d.Health.Penalties.Error)
	v.SetDefault("health.penalties.warning", d.Health.Penalties.Warning)
	v.SetDefault("health.penalties.info", d.Health.Penalties.Info)

	v.SetDefault("orchestrator.strictCycles", d.Orchestrator.StrictCycles)

	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)

	v.SetDefault("telemetry.metricsFile", d.Telemetry.MetricsFile)
	v.SetDefault("telemetry.tracingEnabled", d.Telemetry.TracingEnabled)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the configuration to .modplan/config.json
func (c *Config) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, DirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0o644)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names so errors match the config file.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	e := validationErrs[0]
	field := strings.TrimPrefix(e.Namespace(), "Config.")
	switch e.Tag() {
	case "required":
		return &ConfigError{Field: field, Message: "field is required"}
	case "eq":
		return &ConfigError{Field: field, Message: fmt.Sprintf("unsupported value %v (want %s)", e.Value(), e.Param())}
	case "oneof":
		return &ConfigError{Field: field, Message: fmt.Sprintf("must be one of [%s]", e.Param())}
	case "gtefield":
		return &ConfigError{Field: field, Message: fmt.Sprintf("must be at least %s", e.Param())}
	default:
		return &ConfigError{Field: field, Message: fmt.Sprintf("failed %s=%s (got %v)", e.Tag(), e.Param(), e.Value())}
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
