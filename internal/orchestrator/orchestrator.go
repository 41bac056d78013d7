package orchestrator

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"modplan/internal/errors"
	"modplan/internal/metrics"
	"modplan/internal/slogutil"
)

// TracerName is the instrumentation name of orchestrator spans.
const TracerName = "modplan/orchestrator"

// Orchestrator holds a set of analyzer registrations. Instances are
// independent; there is no shared registry.
type Orchestrator struct {
	regs  []Registration
	index map[string]int

	logger  *slog.Logger
	metrics *metrics.Registry
	tracer  trace.Tracer
	strict  bool
	now     func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. Nil discards.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = slogutil.OrDiscard(logger) }
}

// WithMetrics records executions in r.
func WithMetrics(r *metrics.Registry) Option {
	return func(o *Orchestrator) { o.metrics = r }
}

// WithTracer sets the tracer for analyzer spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = t }
}

// WithClock replaces time.Now for run and analyzer timings.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithStrictCycles makes a cyclic dependency declaration fail Run and Order
// with DEPENDENCY_CYCLE instead of dropping the back edge.
func WithStrictCycles(strict bool) Option {
	return func(o *Orchestrator) { o.strict = strict }
}

// New creates an orchestrator.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		index:  make(map[string]int),
		logger: slogutil.NewDiscardLogger(),
		tracer: otel.Tracer(TracerName),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Register adds an analyzer. An empty or duplicate id, or a missing Analyze
// func, is a CONFIGURATION_ERROR and leaves the registry unchanged.
func (o *Orchestrator) Register(reg Registration) error {
	if strings.TrimSpace(reg.ID) == "" {
		return errors.Newf(errors.ConfigurationError, "analyzer registration has an empty id")
	}
	if _, dup := o.index[reg.ID]; dup {
		return errors.Newf(errors.ConfigurationError, "analyzer %q is already registered", reg.ID)
	}
	if reg.Analyze == nil {
		return errors.Newf(errors.ConfigurationError, "analyzer %q has no Analyze func", reg.ID)
	}
	for _, in := range reg.Inputs {
		if in.Key == "" || in.valid == nil {
			return errors.Newf(errors.ConfigurationError, "analyzer %q declares an input without a key; use Requires or Accepts", reg.ID)
		}
	}
	for _, p := range reg.Provides {
		if p.Key == "" || p.extract == nil {
			return errors.Newf(errors.ConfigurationError, "analyzer %q declares a provider without a key; use Provide", reg.ID)
		}
	}

	reg.DependsOn = append([]string(nil), reg.DependsOn...)
	o.index[reg.ID] = len(o.regs)
	o.regs = append(o.regs, reg)
	return nil
}

// MustRegister is Register for static wiring; it panics on error.
func (o *Orchestrator) MustRegister(regs ...Registration) {
	for _, reg := range regs {
		if err := o.Register(reg); err != nil {
			panic(err)
		}
	}
}

// Len returns the number of registered analyzers.
func (o *Orchestrator) Len() int {
	return len(o.regs)
}

// IDs returns analyzer ids in registration order.
func (o *Orchestrator) IDs() []string {
	ids := make([]string, len(o.regs))
	for i, r := range o.regs {
		ids[i] = r.ID
	}
	return ids
}

// schedule is a topological order plus the dependency edges that survived.
type schedule struct {
	order []string
	deps  map[string][]string
}

// Order returns the execution order: a depth-first topological sort that
// visits analyzers and their dependencies in registration order.
func (o *Orchestrator) Order() ([]string, error) {
	s, err := o.schedule()
	if err != nil {
		return nil, err
	}
	return s.order, nil
}

func (o *Orchestrator) schedule() (*schedule, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(o.regs))
	s := &schedule{
		order: make([]string, 0, len(o.regs)),
		deps:  make(map[string][]string, len(o.regs)),
	}

	var visit func(id string, path []string) error
	visit = func(id string, path []string) error {
		state[id] = visiting
		path = append(path, id)
		reg := o.regs[o.index[id]]
		for _, dep := range o.byRegistration(reg.DependsOn) {
			if _, known := o.index[dep]; !known {
				o.logger.Warn("Ignoring unknown analyzer dependency",
					"analyzer", id,
					"dependency", dep,
					"code", errors.UnknownDependency,
				)
				if o.metrics != nil {
					o.metrics.RecordUnknownDependency()
				}
				continue
			}
			switch state[dep] {
			case visiting:
				cycle := strings.Join(path[indexOf(path, dep):], " -> ") + " -> " + dep
				if o.strict {
					return errors.Newf(errors.DependencyCycle, "analyzer dependency cycle: %s", cycle)
				}
				o.logger.Warn("Breaking analyzer dependency cycle",
					"analyzer", id,
					"dependency", dep,
					"cycle", cycle,
					"code", errors.DependencyCycle,
				)
				if o.metrics != nil {
					o.metrics.RecordCycleBroken()
				}
				continue
			case unvisited:
				if err := visit(dep, path); err != nil {
					return err
				}
			}
			s.deps[id] = append(s.deps[id], dep)
		}
		state[id] = done
		s.order = append(s.order, id)
		return nil
	}

	for _, reg := range o.regs {
		if state[reg.ID] == unvisited {
			if err := visit(reg.ID, nil); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

func indexOf(list []string, v string) int {
	for i, x := range list {
		if x == v {
			return i
		}
	}
	return 0
}

// byRegistration orders ids by registration, unknown ids first in their
// declared order.
func (o *Orchestrator) byRegistration(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.SliceStable(out, func(i, j int) bool {
		return o.position(out[i]) < o.position(out[j])
	})
	return out
}

func (o *Orchestrator) position(id string) int {
	if i, ok := o.index[id]; ok {
		return i
	}
	return -1
}

func (o *Orchestrator) registration(id string) Registration {
	return o.regs[o.index[id]]
}

func describe(v any) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(v)
}
