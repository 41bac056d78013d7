package modules

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"

	"modplan/internal/paths"
)

// ModuleContext provides context for import classification
type ModuleContext struct {
	// RepoRoot is the repository root path
	RepoRoot string

	// Modules is the list of detected modules
	Modules []*Module

	// GoModulePath is the module path declared in the root go.mod, if any
	GoModulePath string

	// WorkspacePackages maps workspace package names (npm/pub) to module ids
	WorkspacePackages map[string]string

	roots  []string
	byRoot map[string]string
}

// BuildModuleContext prepares the lookup tables used to resolve imports.
func BuildModuleContext(repoRoot string, mods []*Module) *ModuleContext {
	ctx := &ModuleContext{
		RepoRoot:          repoRoot,
		Modules:           mods,
		GoModulePath:      readGoModulePath(filepath.Join(repoRoot, "go.mod")),
		WorkspacePackages: make(map[string]string),
		roots:             Roots(mods),
		byRoot:            make(map[string]string, len(mods)),
	}
	for _, m := range mods {
		ctx.byRoot[m.RootPath] = m.ID
		ctx.WorkspacePackages[m.Name] = m.ID
	}
	return ctx
}

func readGoModulePath(goModPath string) string {
	data, err := os.ReadFile(goModPath)
	if err != nil {
		return ""
	}
	return modfile.ModulePath(data)
}

// OwningModule returns the id of the deepest module containing the
// repo-relative path p, or "" when no module contains it.
func (c *ModuleContext) OwningModule(p string) string {
	root := paths.LongestDirPrefix(p, c.roots)
	if root == "" {
		return ""
	}
	return c.byRoot[root]
}

// ImportClassifier classifies import edges
type ImportClassifier struct {
	context *ModuleContext
}

// NewImportClassifier creates a new import classifier
func NewImportClassifier(ctx *ModuleContext) *ImportClassifier {
	return &ImportClassifier{context: ctx}
}

// ClassifyEdge sets the edge's Kind, FromModule and ToModule.
func (c *ImportClassifier) ClassifyEdge(edge *ImportEdge) {
	edge.FromModule = c.context.OwningModule(edge.From)
	language := languageForExt(path.Ext(edge.From))

	if c.isStdlib(edge.RawImport, language) {
		edge.Kind = Stdlib
		return
	}

	target, workspace := c.resolveImport(edge.RawImport, edge.From, language)
	if target == "" {
		if workspace != "" {
			edge.Kind = WorkspacePackage
			edge.ToModule = workspace
			return
		}
		if isRelative(edge.RawImport) {
			edge.Kind = Unknown
			return
		}
		edge.Kind = ExternalDependency
		return
	}

	owner := c.context.OwningModule(target)
	switch {
	case owner == "":
		edge.Kind = Unknown
	case owner == edge.FromModule:
		edge.Kind = LocalFile
		edge.ToModule = owner
	default:
		edge.Kind = LocalModule
		edge.ToModule = owner
	}
}

// resolveImport returns the repo-relative path an import points at, or the
// id of a workspace package it names. Both are empty for external imports.
func (c *ImportClassifier) resolveImport(importStr, fromFile, language string) (target string, workspace string) {
	switch language {
	case LanguageTypeScript, LanguageJavaScript:
		if isRelative(importStr) {
			return joinRelative(fromFile, importStr), ""
		}
		return "", c.context.WorkspacePackages[extractNpmPackageName(importStr)]
	case LanguageDart:
		if isRelative(importStr) {
			return joinRelative(fromFile, importStr), ""
		}
		if strings.HasPrefix(importStr, "package:") {
			pkg := strings.SplitN(strings.TrimPrefix(importStr, "package:"), "/", 2)[0]
			return "", c.context.WorkspacePackages[pkg]
		}
		return "", ""
	case LanguageGo:
		return c.resolveGoImport(importStr), ""
	case LanguagePython:
		return c.resolvePythonImport(importStr, fromFile), ""
	default:
		return "", ""
	}
}

func (c *ImportClassifier) resolveGoImport(importStr string) string {
	mod := c.context.GoModulePath
	if mod == "" {
		return ""
	}
	if importStr == mod {
		return "."
	}
	if strings.HasPrefix(importStr, mod+"/") {
		return strings.TrimPrefix(importStr, mod+"/")
	}
	return ""
}

// resolvePythonImport resolves relative imports (leading dots) against the
// importing file's package, and absolute imports against the repo root when
// the dotted path exists on disk.
func (c *ImportClassifier) resolvePythonImport(importStr, fromFile string) string {
	if strings.HasPrefix(importStr, ".") {
		dots := len(importStr) - len(strings.TrimLeft(importStr, "."))
		dir := path.Dir(fromFile)
		for i := 1; i < dots; i++ {
			dir = path.Dir(dir)
		}
		rest := strings.ReplaceAll(strings.TrimLeft(importStr, "."), ".", "/")
		return paths.NormalizePath(path.Join(dir, rest))
	}

	rel := strings.ReplaceAll(importStr, ".", "/")
	abs := filepath.Join(c.context.RepoRoot, filepath.FromSlash(rel))
	if _, err := os.Stat(abs + ".py"); err == nil {
		return rel
	}
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return rel
	}
	return ""
}

func isRelative(importStr string) bool {
	return strings.HasPrefix(importStr, "./") || strings.HasPrefix(importStr, "../") ||
		importStr == "." || importStr == ".."
}

func joinRelative(fromFile, importStr string) string {
	joined := path.Join(path.Dir(fromFile), importStr)
	if joined == ".." || strings.HasPrefix(joined, "../") {
		return ""
	}
	return paths.NormalizePath(joined)
}

// isStdlib checks if an import is a standard library import
func (c *ImportClassifier) isStdlib(importStr, language string) bool {
	switch language {
	case LanguageDart:
		return strings.HasPrefix(importStr, "dart:")
	case LanguageTypeScript, LanguageJavaScript:
		return isNodeBuiltin(importStr)
	case LanguageGo:
		return c.isGoStdlib(importStr)
	case LanguagePython:
		return isPythonStdlib(importStr)
	default:
		return false
	}
}

var nodeBuiltins = map[string]bool{
	"assert": true, "buffer": true, "child_process": true, "cluster": true,
	"crypto": true, "dgram": true, "dns": true, "events": true,
	"fs": true, "http": true, "http2": true, "https": true,
	"net": true, "os": true, "path": true, "perf_hooks": true,
	"process": true, "querystring": true, "readline": true, "stream": true,
	"string_decoder": true, "timers": true, "tls": true, "tty": true,
	"url": true, "util": true, "v8": true, "vm": true, "zlib": true,
}

func isNodeBuiltin(importStr string) bool {
	if strings.HasPrefix(importStr, "node:") {
		return true
	}
	return nodeBuiltins[strings.SplitN(importStr, "/", 2)[0]]
}

// isGoStdlib treats imports whose first path element has no dot as stdlib,
// unless they fall under the repository's own module path.
func (c *ImportClassifier) isGoStdlib(importStr string) bool {
	if mod := c.context.GoModulePath; mod != "" && (importStr == mod || strings.HasPrefix(importStr, mod+"/")) {
		return false
	}
	first := strings.SplitN(importStr, "/", 2)[0]
	return !strings.Contains(first, ".")
}

var pythonStdlib = map[string]bool{
	"os": true, "sys": true, "re": true, "json": true, "math": true,
	"time": true, "datetime": true, "collections": true, "itertools": true,
	"functools": true, "pathlib": true, "typing": true, "asyncio": true,
	"subprocess": true, "threading": true, "multiprocessing": true,
	"socket": true, "http": true, "urllib": true, "email": true,
	"logging": true, "unittest": true, "pickle": true, "csv": true,
	"xml": true, "html": true, "sqlite3": true, "hashlib": true,
	"dataclasses": true, "enum": true, "abc": true, "io": true,
}

func isPythonStdlib(importStr string) bool {
	return pythonStdlib[strings.SplitN(importStr, ".", 2)[0]]
}

// extractNpmPackageName returns the package part of a bare specifier,
// keeping the scope for "@scope/name/sub".
func extractNpmPackageName(importStr string) string {
	parts := strings.Split(importStr, "/")
	if strings.HasPrefix(importStr, "@") && len(parts) >= 2 {
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}
