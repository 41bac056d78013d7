package modules

// ImportEdgeKind represents the classification of an import dependency
type ImportEdgeKind string

const (
	// LocalFile represents an import of another file in the same module
	LocalFile ImportEdgeKind = "local-file"

	// LocalModule represents an import to another module in the same repository
	LocalModule ImportEdgeKind = "local-module"

	// WorkspacePackage represents an import of a sibling package declared in the workspace
	WorkspacePackage ImportEdgeKind = "workspace-package"

	// ExternalDependency represents an import to an external package (npm/pub/go modules)
	ExternalDependency ImportEdgeKind = "external-dependency"

	// Stdlib represents an import to a standard library (dart:core, node:*, Go builtins)
	Stdlib ImportEdgeKind = "stdlib"

	// Unknown represents an import that couldn't be classified
	Unknown ImportEdgeKind = "unknown"
)

// ImportEdge represents one import statement found in a source file
type ImportEdge struct {
	// From is the repo-relative path of the importing file
	From string `json:"from"`

	// RawImport is the original import string as it appears in the source code
	RawImport string `json:"rawImport"`

	// Line is the line number where this import appears
	Line int `json:"line,omitempty"`

	// Kind is the classification of this import
	Kind ImportEdgeKind `json:"kind"`

	// FromModule and ToModule are the owning module ids; ToModule is empty
	// unless the import resolved inside the repository.
	FromModule string `json:"fromModule,omitempty"`
	ToModule   string `json:"toModule,omitempty"`
}

// IsLocal returns true if this is a local import (local-file or local-module)
func (e *ImportEdge) IsLocal() bool {
	return e.Kind == LocalFile || e.Kind == LocalModule
}

// IsCrossModule reports whether the import links two different in-project modules.
func (e *ImportEdge) IsCrossModule() bool {
	return (e.Kind == LocalModule || e.Kind == WorkspacePackage) &&
		e.ToModule != "" && e.ToModule != e.FromModule
}

// ImportSite locates an import statement.
type ImportSite struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// Dependency is a resolved edge between two in-project modules, with the
// import statements that produced it.
type Dependency struct {
	From  string       `json:"from"`
	To    string       `json:"to"`
	Sites []ImportSite `json:"sites,omitempty"`
}

// GroupImportsByKind groups import edges by their kind
func GroupImportsByKind(edges []*ImportEdge) map[ImportEdgeKind][]*ImportEdge {
	grouped := make(map[ImportEdgeKind][]*ImportEdge)
	for _, edge := range edges {
		grouped[edge.Kind] = append(grouped[edge.Kind], edge)
	}
	return grouped
}

// ImportStats counts scanned imports per kind.
type ImportStats struct {
	Total              int `json:"total"`
	LocalFile          int `json:"localFile"`
	LocalModule        int `json:"localModule"`
	WorkspacePackage   int `json:"workspacePackage"`
	ExternalDependency int `json:"externalDependency"`
	Stdlib             int `json:"stdlib"`
	Unknown            int `json:"unknown"`
}

// GetImportStatistics computes statistics for import edges
func GetImportStatistics(edges []*ImportEdge) ImportStats {
	grouped := GroupImportsByKind(edges)
	return ImportStats{
		Total:              len(edges),
		LocalFile:          len(grouped[LocalFile]),
		LocalModule:        len(grouped[LocalModule]),
		WorkspacePackage:   len(grouped[WorkspacePackage]),
		ExternalDependency: len(grouped[ExternalDependency]),
		Stdlib:             len(grouped[Stdlib]),
		Unknown:            len(grouped[Unknown]),
	}
}
