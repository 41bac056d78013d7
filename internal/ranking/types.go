// Package ranking ranks and classifies the modules of a dependency graph:
// centrality, coupling, percentile classification, hotspots and the risk of
// refactoring each classification phase.
package ranking

import (
	"modplan/internal/config"
	"modplan/internal/coupling"
	"modplan/internal/graph"
)

// Classification is the structural role of a module
type Classification string

const (
	Leaf         Classification = "leaf"
	Intermediate Classification = "intermediate"
	Core         Classification = "core"
)

// RiskLevel represents the risk level of refactoring a set of modules
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Options holds the ranking policy parameters
type Options struct {
	Centrality graph.CentralityOptions

	// Percentile thresholds for classification
	LeafPercentile float64
	CorePercentile float64

	// Phase risk weights
	WeightCa         float64
	WeightCentrality float64
	CycleMultiplier  float64

	// Risk level thresholds: below MediumRisk is low, and so on
	MediumRisk   float64
	HighRisk     float64
	CriticalRisk float64

	// HotspotLimit caps the hotspot list; 0 keeps every module
	HotspotLimit int
}

// DefaultOptions returns the standard ranking policy.
func DefaultOptions() Options {
	return OptionsFromConfig(config.DefaultConfig().Ranking)
}

// OptionsFromConfig maps the ranking config section onto Options.
func OptionsFromConfig(cfg config.RankingConfig) Options {
	return Options{
		Centrality: graph.CentralityOptions{
			Damping:       cfg.Damping,
			MaxIterations: cfg.MaxIterations,
			Epsilon:       cfg.Epsilon,
		},
		LeafPercentile:   cfg.LeafPercentile,
		CorePercentile:   cfg.CorePercentile,
		WeightCa:         cfg.WeightCa,
		WeightCentrality: cfg.WeightCentrality,
		CycleMultiplier:  cfg.CycleMultiplier,
		MediumRisk:       cfg.MediumRisk,
		HighRisk:         cfg.HighRisk,
		CriticalRisk:     cfg.CriticalRisk,
		HotspotLimit:     cfg.HotspotLimit,
	}
}

// ModuleRank is the full ranking record of one module
type ModuleRank struct {
	ID                   string         `json:"id"`
	Centrality           float64        `json:"centrality"`
	Ca                   int            `json:"ca"`
	Ce                   int            `json:"ce"`
	Instability          float64        `json:"instability"`
	CaPercentile         int            `json:"caPercentile"`
	CentralityPercentile int            `json:"centralityPercentile"`
	Classification       Classification `json:"classification"`
	InCycle              bool           `json:"inCycle,omitempty"`
}

// Hotspot is a module ranked by centrality
type Hotspot struct {
	Rank           int            `json:"rank"`
	ID             string         `json:"id"`
	Centrality     float64        `json:"centrality"`
	Ca             int            `json:"ca"`
	Classification Classification `json:"classification"`
	InCycle        bool           `json:"inCycle,omitempty"`
}

// Phase is one bottom-up refactoring phase
type Phase struct {
	Number         int            `json:"number"`
	Classification Classification `json:"classification"`
	Modules        []string       `json:"modules"`
	RiskScore      float64        `json:"riskScore"`
	RiskLevel      RiskLevel      `json:"riskLevel"`
	InCycle        bool           `json:"inCycle,omitempty"`
}

// Analysis is the ranking of every module in one graph.
type Analysis struct {
	Centrality     map[string]float64          `json:"centrality"`
	Coupling       map[string]coupling.Metrics `json:"coupling"`
	Classification map[string]Classification   `json:"classification"`
	Modules        []ModuleRank                `json:"modules"`
	Hotspots       []Hotspot                   `json:"hotspots"`
	Phases         []Phase                     `json:"phases"`
	Summary        coupling.Summary            `json:"summary"`
	Iterations     int                         `json:"iterations"`
	Converged      bool                        `json:"converged"`

	opts  Options
	index map[string]int
}
