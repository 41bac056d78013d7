// Package pipeline registers the core analyzers (architecture health,
// ranking, migration plan and recommendations) on an orchestrator.
package pipeline

import (
	"context"
	"log/slog"

	"modplan/internal/architecture"
	"modplan/internal/config"
	"modplan/internal/errors"
	"modplan/internal/graph"
	"modplan/internal/layers"
	"modplan/internal/metrics"
	"modplan/internal/modules"
	"modplan/internal/orchestrator"
	"modplan/internal/plan"
	"modplan/internal/ranking"
	"modplan/internal/recommend"
	"modplan/internal/slogutil"
)

// Analyzer ids
const (
	AnalyzerArchitecture    = "architecture"
	AnalyzerRanking         = "ranking"
	AnalyzerPlan            = "migration-plan"
	AnalyzerRecommendations = "recommendations"
)

// OptionRawActions is the run option holding []plan.RawAction.
const OptionRawActions = "raw-actions"

// Typed values exchanged between the core analyzers.
var (
	GraphKey      = orchestrator.NewKey[*graph.DependencyGraph]("dependency-graph")
	ViolationsKey = orchestrator.NewKey[[]architecture.Violation]("violations")
	ModulesKey    = orchestrator.NewKey[[]architecture.ModuleSummary]("modules")
	HealthKey     = orchestrator.NewKey[*architecture.Health]("architecture-health")
	RankingKey    = orchestrator.NewKey[*ranking.Analysis]("ranking")
	PlanKey       = orchestrator.NewKey[*plan.Plan]("plan")
)

// Config wires the core analyzers.
type Config struct {
	// Source yields the modules and their resolved dependencies. Required.
	Source modules.Source
	// Policy is the layer policy; nil means layers.DefaultPolicy.
	Policy *layers.Policy
	// Settings supplies health and ranking parameters; nil means defaults.
	Settings *config.Config
	// Recommend tunes the recommendation synthesizer; nil means defaults.
	Recommend *recommend.Options
	Logger    *slog.Logger
	Metrics   *metrics.Registry
	// Extra analyzers are registered after the core ones.
	Extra []orchestrator.Registration
}

// Register adds the core analyzers and cfg.Extra to o.
func Register(o *orchestrator.Orchestrator, cfg Config) error {
	if cfg.Source == nil {
		return errors.Newf(errors.ConfigurationError, "pipeline needs a module source")
	}
	settings := cfg.Settings
	if settings == nil {
		settings = config.DefaultConfig()
	}
	logger := slogutil.OrDiscard(cfg.Logger)
	recOpts := recommend.DefaultOptions()
	if cfg.Recommend != nil {
		recOpts = *cfg.Recommend
	}

	// Registration order also orders the plan after ranking and the
	// recommendations after the plan; both inputs are optional there.
	regs := []orchestrator.Registration{
		architectureAnalyzer(cfg.Source, architecture.NewGenerator(cfg.Policy, settings.Health, logger), cfg.Metrics),
		rankingAnalyzer(ranking.NewAnalyzer(ranking.OptionsFromConfig(settings.Ranking), logger)),
		planAnalyzer(plan.NewBuilder(logger), cfg.Metrics),
		recommendationsAnalyzer(recOpts),
	}
	regs = append(regs, cfg.Extra...)

	for _, reg := range regs {
		if err := o.Register(reg); err != nil {
			return err
		}
	}
	return nil
}

// New builds an orchestrator with the core analyzers registered.
func New(cfg Config, opts ...orchestrator.Option) (*orchestrator.Orchestrator, error) {
	o := orchestrator.New(opts...)
	if err := Register(o, cfg); err != nil {
		return nil, err
	}
	return o, nil
}

func architectureAnalyzer(src modules.Source, gen *architecture.Generator, m *metrics.Registry) orchestrator.Registration {
	return orchestrator.Registration{
		ID: AnalyzerArchitecture,
		Provides: []orchestrator.Provider{
			orchestrator.Provide(HealthKey, func(h *architecture.Health) (*architecture.Health, bool) { return h, true }),
			orchestrator.Provide(GraphKey, func(h *architecture.Health) (*graph.DependencyGraph, bool) { return h.Graph, h.Graph != nil }),
			orchestrator.Provide(ViolationsKey, func(h *architecture.Health) ([]architecture.Violation, bool) { return h.Violations, true }),
			orchestrator.Provide(ModulesKey, func(h *architecture.Health) ([]architecture.ModuleSummary, bool) { return h.Modules, true }),
		},
		Analyze: func(ctx context.Context, _ *orchestrator.RunContext) (any, error) {
			scan, err := src.Scan(ctx)
			if err != nil {
				if errors.CodeOf(err) == "" {
					err = errors.New(errors.ScanFailed, "module scan failed", err)
				}
				return nil, err
			}
			health, err := gen.Generate(ctx, scan)
			if err != nil {
				return nil, err
			}
			if m != nil {
				byKind := map[string]int{
					string(architecture.KindCircular):       0,
					string(architecture.KindLayerViolation): 0,
				}
				for _, v := range health.Violations {
					byKind[string(v.Kind)]++
				}
				m.RecordRejectedEdges(len(health.Rejected))
				m.UpdateGraphMetrics(health.Graph.NumNodes(), health.Graph.NumEdges(), len(health.Skipped))
				m.UpdateHealth(health.Score, byKind)
			}
			return health, nil
		},
	}
}

func rankingAnalyzer(an *ranking.Analyzer) orchestrator.Registration {
	return orchestrator.Registration{
		ID:        AnalyzerRanking,
		DependsOn: []string{AnalyzerArchitecture},
		Inputs: []orchestrator.Input{
			orchestrator.Requires(GraphKey),
			orchestrator.Requires(ViolationsKey),
		},
		Provides: []orchestrator.Provider{
			orchestrator.Provide(RankingKey, func(a *ranking.Analysis) (*ranking.Analysis, bool) { return a, true }),
		},
		Analyze: func(ctx context.Context, rc *orchestrator.RunContext) (any, error) {
			g, _ := orchestrator.Lookup(rc, GraphKey)
			violations, _ := orchestrator.Lookup(rc, ViolationsKey)
			return an.Analyze(ctx, g, cycleMembers(violations))
		},
	}
}

func cycleMembers(violations []architecture.Violation) map[string]bool {
	members := make(map[string]bool)
	for _, v := range violations {
		if v.Kind != architecture.KindCircular {
			continue
		}
		for _, id := range v.Modules {
			members[id] = true
		}
	}
	return members
}

func rawActions(rc *orchestrator.RunContext) []plan.RawAction {
	raw, _ := orchestrator.OptionValue[[]plan.RawAction](rc, OptionRawActions)
	return raw
}

func planAnalyzer(b *plan.Builder, m *metrics.Registry) orchestrator.Registration {
	return orchestrator.Registration{
		ID:        AnalyzerPlan,
		DependsOn: []string{AnalyzerArchitecture},
		Inputs: []orchestrator.Input{
			orchestrator.Accepts(HealthKey),
			orchestrator.Accepts(RankingKey),
		},
		Provides: []orchestrator.Provider{
			orchestrator.Provide(PlanKey, func(p *plan.Plan) (*plan.Plan, bool) { return p, true }),
		},
		ShouldRun: func(rc *orchestrator.RunContext) bool {
			return len(rawActions(rc)) > 0
		},
		Analyze: func(ctx context.Context, rc *orchestrator.RunContext) (any, error) {
			health, _ := orchestrator.Lookup(rc, HealthKey)
			an, _ := orchestrator.Lookup(rc, RankingKey)
			p, err := b.Build(ctx, rawActions(rc), plan.Inputs{Health: health, Ranking: an})
			if err != nil {
				return nil, err
			}
			if m != nil {
				byKind := make(map[string]int, len(p.Summary.ByKind))
				for k, n := range p.Summary.ByKind {
					byKind[string(k)] = n
				}
				m.UpdatePlan(byKind)
			}
			return p, nil
		},
	}
}

func recommendationsAnalyzer(opts recommend.Options) orchestrator.Registration {
	return orchestrator.Registration{
		ID:        AnalyzerRecommendations,
		DependsOn: []string{AnalyzerArchitecture, AnalyzerRanking},
		Inputs: []orchestrator.Input{
			orchestrator.Requires(HealthKey),
			orchestrator.Requires(RankingKey),
			orchestrator.Accepts(PlanKey),
		},
		Analyze: func(_ context.Context, rc *orchestrator.RunContext) (any, error) {
			health, _ := orchestrator.Lookup(rc, HealthKey)
			an, _ := orchestrator.Lookup(rc, RankingKey)
			p, _ := orchestrator.Lookup(rc, PlanKey)
			return recommend.Synthesize(recommend.Inputs{Health: health, Ranking: an, Plan: p}, opts), nil
		},
	}
}
