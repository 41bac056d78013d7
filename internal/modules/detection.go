package modules

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"modplan/internal/paths"
)

// DetectionResult represents the result of module detection
type DetectionResult struct {
	Modules         []*Module
	DetectionMethod string // "declared", "explicit", "directory"
}

// DetectModules detects modules without a declaration file.
// Explicit roots win; otherwise every directory that directly contains
// source files becomes a module identified by its repo-relative path.
func DetectModules(repoRoot string, explicitRoots []string, ignoreDirs []string, logger *slog.Logger) (*DetectionResult, error) {
	if len(explicitRoots) > 0 {
		mods := make([]*Module, 0, len(explicitRoots))
		for _, root := range explicitRoots {
			abs := filepath.Join(repoRoot, filepath.FromSlash(root))
			info, err := os.Stat(abs)
			if err != nil {
				return nil, err
			}
			if !info.IsDir() {
				continue
			}
			mods = append(mods, NewModule(root, detectLanguageFromFiles(abs)))
		}
		return &DetectionResult{Modules: mods, DetectionMethod: "explicit"}, nil
	}

	mods, err := detectDirectoryModules(repoRoot, ignoreDirs, logger)
	if err != nil {
		return nil, err
	}
	return &DetectionResult{Modules: mods, DetectionMethod: "directory"}, nil
}

func detectDirectoryModules(repoRoot string, ignoreDirs []string, logger *slog.Logger) ([]*Module, error) {
	ignoreMap := make(map[string]bool, len(ignoreDirs))
	for _, dir := range ignoreDirs {
		ignoreMap[dir] = true
	}

	var mods []*Module
	err := filepath.WalkDir(repoRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == repoRoot {
				return err
			}
			logger.Warn("Skipping unreadable directory", "path", p, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(repoRoot, p)
		if relErr != nil {
			return nil
		}
		if rel != "." && (strings.HasPrefix(d.Name(), ".") || shouldIgnore(rel, ignoreMap)) {
			return filepath.SkipDir
		}

		lang := detectLanguageFromFiles(p)
		if lang == LanguageUnknown {
			return nil
		}
		m := NewModule(rel, lang)
		mods = append(mods, m)
		logger.Debug("Detected directory module", "id", m.ID, "language", lang)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(mods, func(i, j int) bool { return mods[i].ID < mods[j].ID })
	return mods, nil
}

// languageForExt maps a file extension to a language.
func languageForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".go":
		return LanguageGo
	case ".ts", ".tsx":
		return LanguageTypeScript
	case ".js", ".jsx", ".mjs", ".cjs":
		return LanguageJavaScript
	case ".dart":
		return LanguageDart
	case ".py", ".pyx":
		return LanguagePython
	default:
		return ""
	}
}

// detectLanguageFromFiles scans a directory for source files and infers the language
func detectLanguageFromFiles(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return LanguageUnknown
	}

	langCounts := make(map[string]int)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if lang := languageForExt(filepath.Ext(entry.Name())); lang != "" {
			langCounts[lang]++
		}
	}

	// Ties break alphabetically so detection is deterministic.
	maxCount := 0
	bestLang := LanguageUnknown
	for lang, count := range langCounts {
		if count > maxCount || (count == maxCount && lang < bestLang) {
			maxCount = count
			bestLang = lang
		}
	}

	return bestLang
}

// shouldIgnore checks if a directory should be ignored
func shouldIgnore(relPath string, ignoreMap map[string]bool) bool {
	relPath = paths.NormalizePath(relPath)
	if ignoreMap[relPath] {
		return true
	}

	for _, part := range strings.Split(relPath, "/") {
		if ignoreMap[part] {
			return true
		}
	}

	return false
}
