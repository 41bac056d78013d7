package architecture

import (
	"modplan/internal/graph"
	"modplan/internal/modules"
)

// ViolationKind classifies an architecture violation
type ViolationKind string

const (
	// KindCircular is a strongly connected component of two or more modules
	KindCircular ViolationKind = "circular"
	// KindLayerViolation is an edge the layer policy does not allow
	KindLayerViolation ViolationKind = "layer-violation"
)

// Severity of a violation, highest first
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityError    Severity = "error"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Violation is a single architecture finding.
//
// For circular violations Modules lists every module of the component and
// Edges every edge inside it; From and To name the first of those edges.
// For layer violations Edges holds the single offending edge.
type Violation struct {
	Kind      ViolationKind        `json:"kind"`
	From      string               `json:"from"`
	To        string               `json:"to"`
	Message   string               `json:"message"`
	Severity  Severity             `json:"severity"`
	Modules   []string             `json:"modules,omitempty"`
	Edges     []graph.Edge         `json:"edges,omitempty"`
	Sites     []modules.ImportSite `json:"sites,omitempty"` // Import statements behind Edges
	FromLayer string               `json:"fromLayer,omitempty"`
	ToLayer   string               `json:"toLayer,omitempty"`
}

// ModuleSummary is a module with its policy-assigned layer
type ModuleSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	RootPath string `json:"rootPath"`
	Language string `json:"language"`
	Layer    string `json:"layer,omitempty"` // empty when unlayered
}

// Health is the architecture health of one scan.
type Health struct {
	Score      float64                `json:"score"`
	Violations []Violation            `json:"violations"`
	Graph      *graph.DependencyGraph `json:"graph"`
	Modules    []ModuleSummary        `json:"modules"`
	Layers     []string               `json:"layers"`
	Rejected   []graph.Edge           `json:"rejected,omitempty"` // edges naming unknown modules
	Skipped    []modules.ScanFailure  `json:"skippedFiles,omitempty"`
	Method     string                 `json:"detectionMethod,omitempty"`
}

// ViolationsOf returns the violations of the given kind.
func (h *Health) ViolationsOf(kind ViolationKind) []Violation {
	var out []Violation
	for _, v := range h.Violations {
		if v.Kind == kind {
			out = append(out, v)
		}
	}
	return out
}

// CycleMembers returns the set of modules participating in any cycle.
func (h *Health) CycleMembers() map[string]bool {
	members := make(map[string]bool)
	for _, v := range h.ViolationsOf(KindCircular) {
		for _, m := range v.Modules {
			members[m] = true
		}
	}
	return members
}

// LayerOf returns the assigned layer of a module.
func (h *Health) LayerOf(id string) string {
	for _, m := range h.Modules {
		if m.ID == id {
			return m.Layer
		}
	}
	return ""
}
