package modules

import (
	"bufio"
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"modplan/internal/config"
	"modplan/internal/paths"
	"modplan/internal/slogutil"
)

// LanguagePattern defines import patterns for a specific language
type LanguagePattern struct {
	Language   string
	Extensions []string
	Patterns   []*regexp.Regexp
}

var (
	goSingleImport = regexp.MustCompile(`^\s*import\s+(?:[\w.]+\s+)?"([^"]+)"`)
	goBlockStart   = regexp.MustCompile(`^\s*import\s*\(`)
	goBlockEntry   = regexp.MustCompile(`^\s*(?:[\w.]+\s+)?"([^"]+)"`)
)

var jsPatterns = []*regexp.Regexp{
	regexp.MustCompile(`import\s+.*?from\s+['"]([^'"]+)['"]`),
	regexp.MustCompile(`^\s*import\s+['"]([^'"]+)['"]`),
	regexp.MustCompile(`export\s+.*?from\s+['"]([^'"]+)['"]`),
	regexp.MustCompile(`require\s*\(\s*['"]([^'"]+)['"]\s*\)`),
	regexp.MustCompile(`import\s*\(\s*['"]([^'"]+)['"]\s*\)`),
}

var builtinPatterns = map[string]*LanguagePattern{
	LanguageTypeScript: {
		Language:   LanguageTypeScript,
		Extensions: []string{".ts", ".tsx"},
		Patterns:   jsPatterns,
	},
	LanguageJavaScript: {
		Language:   LanguageJavaScript,
		Extensions: []string{".js", ".jsx", ".mjs", ".cjs"},
		Patterns:   jsPatterns,
	},
	LanguageDart: {
		Language:   LanguageDart,
		Extensions: []string{".dart"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`^\s*import\s+['"]([^'"]+)['"]`),
			regexp.MustCompile(`^\s*export\s+['"]([^'"]+)['"]`),
		},
	},
	LanguagePython: {
		Language:   LanguagePython,
		Extensions: []string{".py", ".pyx"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`^\s*from\s+(\.*[\w.]*)\s+import\b`),
			regexp.MustCompile(`^\s*import\s+([\w.]+)`),
		},
	},
	// Go is matched statefully in scanGo; the entry only carries extensions.
	LanguageGo: {
		Language:   LanguageGo,
		Extensions: []string{".go"},
	},
}

// ScanFailure records a file the scanner could not read.
type ScanFailure struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// ImportScanner scans files for import statements
type ImportScanner struct {
	config   *config.ScanConfig
	patterns map[string]*LanguagePattern
	logger   *slog.Logger
}

// NewImportScanner creates a new import scanner
func NewImportScanner(cfg *config.ScanConfig, logger *slog.Logger) *ImportScanner {
	if cfg == nil {
		cfg = &config.DefaultConfig().Scan
	}
	return &ImportScanner{
		config:   cfg,
		patterns: builtinPatterns,
		logger:   slogutil.OrDiscard(logger),
	}
}

// ScanFile scans a single file for imports.
// Unsupported and oversized files yield no edges and no error.
func (s *ImportScanner) ScanFile(filePath string, repoRoot string) ([]*ImportEdge, error) {
	canonicalPath, err := paths.CanonicalizePath(filePath, repoRoot)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return nil, err
	}
	if s.config.MaxFileSizeBytes > 0 && info.Size() > int64(s.config.MaxFileSizeBytes) {
		s.logger.Debug("Skipping file: too large", "file", canonicalPath, "size", info.Size())
		return nil, nil
	}

	language := languageForExt(filepath.Ext(filePath))
	pattern, ok := s.patterns[language]
	if !ok {
		return nil, nil
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var edges []*ImportEdge
	add := func(raw string, line int) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return
		}
		edges = append(edges, &ImportEdge{From: canonicalPath, RawImport: raw, Line: line})
	}

	if language == LanguageGo {
		scanGo(scanner, add)
	} else {
		lineNum := 0
		for scanner.Scan() {
			lineNum++
			line := scanner.Text()
			for _, re := range pattern.Patterns {
				for _, match := range re.FindAllStringSubmatch(line, -1) {
					if len(match) > 1 {
						add(match[1], lineNum)
					}
				}
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return edges, nil
}

// scanGo tracks import blocks so string literals elsewhere are not taken for imports.
func scanGo(scanner *bufio.Scanner, add func(string, int)) {
	lineNum := 0
	inBlock := false
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		switch {
		case inBlock:
			if strings.HasPrefix(strings.TrimSpace(line), ")") {
				inBlock = false
				continue
			}
			if m := goBlockEntry.FindStringSubmatch(line); m != nil {
				add(m[1], lineNum)
			}
		case goBlockStart.MatchString(line):
			inBlock = true
		default:
			if m := goSingleImport.FindStringSubmatch(line); m != nil {
				add(m[1], lineNum)
			}
		}
	}
}

// ScanDirectory walks dirPath and scans every supported file.
// Files that cannot be read are returned as failures and logged; only a
// failure to walk dirPath itself is an error.
func (s *ImportScanner) ScanDirectory(ctx context.Context, dirPath string, repoRoot string, ignoreDirs []string) ([]*ImportEdge, []ScanFailure, error) {
	ignoreMap := make(map[string]bool, len(ignoreDirs))
	for _, dir := range ignoreDirs {
		ignoreMap[dir] = true
	}

	var files []string
	var failures []ScanFailure
	err := filepath.WalkDir(dirPath, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if p == dirPath {
				return err
			}
			rel, _ := paths.CanonicalizePath(p, repoRoot)
			s.logger.Warn("Error walking path", "path", rel, "error", err)
			failures = append(failures, ScanFailure{File: rel, Error: err.Error()})
			return nil
		}
		if d.IsDir() {
			relPath, _ := filepath.Rel(repoRoot, p)
			if relPath != "." && (strings.HasPrefix(d.Name(), ".") || shouldIgnore(relPath, ignoreMap)) {
				return filepath.SkipDir
			}
			return nil
		}
		if languageForExt(filepath.Ext(p)) != "" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	edges, fileFailures, err := s.ScanFiles(ctx, files, repoRoot)
	if err != nil {
		return nil, nil, err
	}
	failures = append(failures, fileFailures...)

	s.logger.Info("Import scan completed",
		"filesScanned", len(files),
		"importsFound", len(edges),
		"failures", len(failures),
	)
	return edges, failures, nil
}

// ScanFiles scans files concurrently, bounded by the configured concurrency.
// Results keep the order of files regardless of completion order.
func (s *ImportScanner) ScanFiles(ctx context.Context, files []string, repoRoot string) ([]*ImportEdge, []ScanFailure, error) {
	perFile := make([][]*ImportEdge, len(files))
	errs := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	limit := s.config.Concurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perFile[i], errs[i] = s.ScanFile(f, repoRoot)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var edges []*ImportEdge
	var failures []ScanFailure
	for i, f := range files {
		if errs[i] != nil {
			rel, _ := paths.CanonicalizePath(f, repoRoot)
			s.logger.Warn("Error scanning file", "file", rel, "error", errs[i])
			failures = append(failures, ScanFailure{File: rel, Error: errs[i].Error()})
			continue
		}
		edges = append(edges, perFile[i]...)
	}
	return edges, failures, nil
}

// GetPatternForLanguage returns the import pattern for a language
func (s *ImportScanner) GetPatternForLanguage(language string) (*LanguagePattern, bool) {
	pattern, ok := s.patterns[language]
	return pattern, ok
}
