package modules

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"modplan/internal/paths"
)

// ModulesDeclarationFile is the default filename for module declarations
const ModulesDeclarationFile = "MODULES.toml"

// ModuleDeclaration represents a declared module in MODULES.toml
type ModuleDeclaration struct {
	// ID is the unique module identifier (optional, defaults to the normalized path)
	ID string `toml:"id,omitempty"`

	// Name is the human-readable name of the module
	Name string `toml:"name,omitempty"`

	// Path is the repo-relative path to the module root
	Path string `toml:"path"`

	// Layer is the layer hint for this module; it overrides pattern matching
	// in the layer policy when it names a known layer.
	Layer string `toml:"layer,omitempty"`

	// Language is the primary language of the module (optional, will be detected)
	Language string `toml:"language,omitempty"`

	// Tags are free-form classification tags
	Tags []string `toml:"tags,omitempty"`
}

// ModulesFile represents the root structure of MODULES.toml
type ModulesFile struct {
	Version int                 `toml:"version"`
	Modules []ModuleDeclaration `toml:"module"`
}

// ParseModulesFile parses a MODULES.toml file from the given path
func ParseModulesFile(filePath string) (*ModulesFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(filePath), err)
	}

	var modulesFile ModulesFile
	if err := toml.Unmarshal(data, &modulesFile); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(filePath), err)
	}

	if modulesFile.Version < 1 {
		modulesFile.Version = 1
	}

	return &modulesFile, nil
}

// LoadDeclaredModules loads declared modules if the declaration file exists.
// It returns (nil, nil) when there is no declaration file.
func LoadDeclaredModules(repoRoot string, declarationFile string) ([]*Module, error) {
	if declarationFile == "" {
		declarationFile = ModulesDeclarationFile
	}

	filePath := filepath.Join(repoRoot, declarationFile)
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, nil
	}

	modulesFile, err := ParseModulesFile(filePath)
	if err != nil {
		return nil, err
	}

	return convertDeclarationsToModules(repoRoot, modulesFile.Modules)
}

func convertDeclarationsToModules(repoRoot string, declarations []ModuleDeclaration) ([]*Module, error) {
	modules := make([]*Module, 0, len(declarations))
	seen := make(map[string]bool, len(declarations))

	for i, decl := range declarations {
		if decl.Path == "" {
			return nil, fmt.Errorf("module declaration %d missing required 'path' field", i+1)
		}

		rootPath := paths.NormalizePath(decl.Path)
		abs := paths.JoinRepoPath(repoRoot, rootPath)
		if !paths.IsWithinRepo(abs, repoRoot) {
			return nil, fmt.Errorf("module declaration %d path %q is outside the repository", i+1, decl.Path)
		}
		moduleID := decl.ID
		if moduleID == "" {
			moduleID = rootPath
		}
		if seen[moduleID] {
			return nil, fmt.Errorf("duplicate module id %q in declarations", moduleID)
		}
		seen[moduleID] = true

		name := decl.Name
		if name == "" {
			name = path.Base(rootPath)
		}

		language := decl.Language
		if language == "" {
			language = detectLanguageFromFiles(abs)
		}

		modules = append(modules, &Module{
			ID:        moduleID,
			Name:      name,
			RootPath:  rootPath,
			Language:  language,
			LayerHint: decl.Layer,
		})
	}

	return modules, nil
}

// WriteModulesFile writes a ModulesFile to the given path
func WriteModulesFile(filePath string, modulesFile *ModulesFile) error {
	data, err := toml.Marshal(modulesFile)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(filePath), err)
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(filePath), err)
	}

	return nil
}

// DeclarationsFromModules turns detected modules into declarations, e.g. to
// seed a MODULES.toml that a user then annotates with layers.
func DeclarationsFromModules(mods []*Module) *ModulesFile {
	file := &ModulesFile{Version: 1}
	for _, m := range mods {
		decl := ModuleDeclaration{
			Path:     m.RootPath,
			Layer:    m.LayerHint,
			Language: m.Language,
		}
		if m.ID != m.RootPath {
			decl.ID = m.ID
		}
		file.Modules = append(file.Modules, decl)
	}
	return file
}
