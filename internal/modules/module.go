package modules

import (
	"path"

	"modplan/internal/paths"
)

// Module represents a detected module/package in the repository
type Module struct {
	// ID is the unique identifier for this module; the normalized root path
	// unless a declaration names it explicitly.
	ID string `json:"id"`

	// Name is the human-readable name of the module
	Name string `json:"name"`

	// RootPath is the repo-relative path to the module root
	RootPath string `json:"rootPath"`

	// Language is the detected primary language of the module
	Language string `json:"language"`

	// LayerHint is the layer a declaration assigned to this module, if any.
	LayerHint string `json:"layerHint,omitempty"`
}

// Language constants
const (
	LanguageTypeScript = "typescript"
	LanguageJavaScript = "javascript"
	LanguageDart       = "dart"
	LanguageGo         = "go"
	LanguagePython     = "python"
	LanguageUnknown    = "unknown"
)

// NewModule creates a module identified by its normalized root path.
func NewModule(rootPath, language string) *Module {
	rootPath = paths.NormalizePath(rootPath)
	name := path.Base(rootPath)
	if rootPath == "." {
		name = "root"
	}
	return &Module{
		ID:       rootPath,
		Name:     name,
		RootPath: rootPath,
		Language: language,
	}
}

// Roots returns the root paths of mods in input order.
func Roots(mods []*Module) []string {
	roots := make([]string, len(mods))
	for i, m := range mods {
		roots[i] = m.RootPath
	}
	return roots
}
