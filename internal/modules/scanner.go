package modules

import (
	"context"
	"log/slog"
	"os"
	"sort"

	"modplan/internal/config"
	"modplan/internal/errors"
	"modplan/internal/slogutil"
)

// ScanResult is the module set and resolved in-project dependencies of a repository.
type ScanResult struct {
	Modules      []*Module     `json:"modules"`
	Dependencies []Dependency  `json:"dependencies"`
	Failures     []ScanFailure `json:"failures,omitempty"`
	Imports      ImportStats   `json:"imports"`
	Method       string        `json:"method"`
}

// Source yields modules and resolved dependencies.
type Source interface {
	Scan(ctx context.Context) (*ScanResult, error)
}

// Scanner provides high-level module and import scanning functionality
type Scanner struct {
	repoRoot      string
	config        *config.ScanConfig
	logger        *slog.Logger
	importScanner *ImportScanner
}

// NewScanner creates a new module scanner
func NewScanner(repoRoot string, cfg *config.ScanConfig, logger *slog.Logger) *Scanner {
	if cfg == nil {
		cfg = &config.DefaultConfig().Scan
	}
	logger = slogutil.OrDiscard(logger)
	return &Scanner{
		repoRoot:      repoRoot,
		config:        cfg,
		logger:        logger,
		importScanner: NewImportScanner(cfg, logger),
	}
}

// Scan detects modules, scans imports and resolves them to module edges.
// An unreadable root is a SCAN_FAILED error; unreadable files are recorded
// in Failures and skipped.
func (s *Scanner) Scan(ctx context.Context) (*ScanResult, error) {
	info, err := os.Stat(s.repoRoot)
	if err != nil {
		return nil, errors.New(errors.ScanFailed, "cannot read repository root "+s.repoRoot, err)
	}
	if !info.IsDir() {
		return nil, errors.Newf(errors.ScanFailed, "repository root %s is not a directory", s.repoRoot)
	}

	mods, method, err := s.ScanModules()
	if err != nil {
		return nil, errors.New(errors.ScanFailed, "module detection failed", err)
	}

	s.logger.Info("Module detection completed", "method", method, "moduleCount", len(mods))

	edges, failures, err := s.importScanner.ScanDirectory(ctx, s.repoRoot, s.repoRoot, s.config.Ignore)
	if err != nil {
		return nil, errors.New(errors.ScanFailed, "import scan failed", err)
	}

	classifier := NewImportClassifier(BuildModuleContext(s.repoRoot, mods))
	for _, edge := range edges {
		classifier.ClassifyEdge(edge)
	}

	return &ScanResult{
		Modules:      mods,
		Dependencies: ResolveDependencies(edges),
		Failures:     failures,
		Imports:      GetImportStatistics(edges),
		Method:       method,
	}, nil
}

// ScanModules returns the declared modules if a declaration file exists,
// otherwise the detected ones.
func (s *Scanner) ScanModules() ([]*Module, string, error) {
	declared, err := LoadDeclaredModules(s.repoRoot, s.config.DeclarationFile)
	if err != nil {
		return nil, "", err
	}
	if declared != nil {
		return declared, "declared", nil
	}

	result, err := DetectModules(s.repoRoot, s.config.Roots, s.config.Ignore, s.logger)
	if err != nil {
		return nil, "", err
	}
	return result.Modules, result.DetectionMethod, nil
}

// ResolveDependencies collapses cross-module import edges into one
// Dependency per (from, to) pair, sorted by from then to.
func ResolveDependencies(edges []*ImportEdge) []Dependency {
	type key struct{ from, to string }
	index := make(map[key]int)
	var deps []Dependency

	for _, e := range edges {
		if !e.IsCrossModule() || e.FromModule == "" {
			continue
		}
		k := key{e.FromModule, e.ToModule}
		i, ok := index[k]
		if !ok {
			i = len(deps)
			index[k] = i
			deps = append(deps, Dependency{From: k.from, To: k.to})
		}
		deps[i].Sites = append(deps[i].Sites, ImportSite{File: e.From, Line: e.Line})
	}

	sort.Slice(deps, func(i, j int) bool {
		if deps[i].From != deps[j].From {
			return deps[i].From < deps[j].From
		}
		return deps[i].To < deps[j].To
	})
	for i := range deps {
		sites := deps[i].Sites
		sort.Slice(sites, func(a, b int) bool {
			if sites[a].File != sites[b].File {
				return sites[a].File < sites[b].File
			}
			return sites[a].Line < sites[b].Line
		})
	}
	return deps
}

// StaticSource serves a precomputed module list, for callers that already
// have resolved edges.
type StaticSource struct {
	Modules      []*Module
	Dependencies []Dependency
}

// Scan returns copies of the static modules and dependencies.
func (s StaticSource) Scan(ctx context.Context) (*ScanResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mods := make([]*Module, len(s.Modules))
	for i, m := range s.Modules {
		cp := *m
		mods[i] = &cp
	}
	deps := make([]Dependency, len(s.Dependencies))
	copy(deps, s.Dependencies)
	return &ScanResult{Modules: mods, Dependencies: deps, Method: "static"}, nil
}

// GetModuleByID returns a module by its ID
func GetModuleByID(mods []*Module, moduleID string) *Module {
	for _, m := range mods {
		if m.ID == moduleID {
			return m
		}
	}
	return nil
}
