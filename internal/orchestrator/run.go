package orchestrator

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"modplan/internal/errors"
)

// Run is the outcome of one orchestrator run. Results holds exactly one entry
// per registered analyzer.
type Run struct {
	ID        string            `json:"runId"`
	Results   map[string]Result `json:"results"`
	Order     []string          `json:"order"`
	Retried   []string          `json:"retried,omitempty"`
	Passes    int               `json:"passes"`
	StartedAt time.Time         `json:"startedAt"`
	Duration  time.Duration     `json:"-"`
}

// Result returns the result of one analyzer.
func (r *Run) Result(id string) (Result, bool) {
	res, ok := r.Results[id]
	return res, ok
}

// ResultData returns the data of a successful analyzer as a T.
func ResultData[T any](r *Run, id string) (T, bool) {
	res, ok := r.Results[id]
	if !ok || res.Status != StatusSuccess {
		var zero T
		return zero, false
	}
	v, ok := res.Data.(T)
	return v, ok
}

// Failed returns the ids of errored analyzers in execution order.
func (r *Run) Failed() []string {
	var out []string
	for _, id := range r.Order {
		if r.Results[id].Status == StatusError {
			out = append(out, id)
		}
	}
	return out
}

// Counts returns the number of results per status.
func (r *Run) Counts() map[Status]int {
	counts := make(map[Status]int, 3)
	for _, res := range r.Results {
		counts[res.Status]++
	}
	return counts
}

// Run executes every registered analyzer once in topological order, then
// re-invokes the analyzers that were skipped only for a missing input, with
// the enriched options. Dependents of such an analyzer are deferred with it,
// so they never run before their dependency has. The returned error is non-nil only for configuration
// problems; analyzer faults are reported in the results.
func (o *Orchestrator) Run(ctx context.Context, options map[string]any) (*Run, error) {
	sched, err := o.schedule()
	if err != nil {
		return nil, err
	}

	run := &Run{
		ID:        uuid.NewString(),
		Results:   make(map[string]Result, len(sched.order)),
		Order:     sched.order,
		Passes:    1,
		StartedAt: o.now(),
	}

	ctx, span := o.tracer.Start(ctx, "orchestrator.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("modplan.run.id", run.ID),
			attribute.Int("modplan.analyzers", len(sched.order)),
		),
	)
	defer span.End()

	opts := make(map[string]any, len(options))
	for k, v := range options {
		opts[k] = v
	}
	rc := &RunContext{
		runID:   run.ID,
		pass:    1,
		options: opts,
		values:  make(map[string]any),
		results: run.Results,
		waiting: make(map[string]bool),
	}

	o.logger.Debug("Starting analyzer run", "run", run.ID, "order", sched.order)

	var retry []string
	for _, id := range sched.order {
		res, missing := o.execute(ctx, rc, id, sched.deps[id])
		run.Results[id] = res
		if missing {
			retry = append(retry, id)
			rc.waiting[id] = true
		}
	}

	if len(retry) > 0 && ctx.Err() == nil {
		run.Passes = 2
		run.Retried = retry
		rc.pass = 2
		rc.waiting = nil
		rc.enriched = make(map[string]any, len(rc.values))
		for k, v := range rc.values {
			rc.enriched[k] = v
		}
		o.logger.Info("Re-running analyzers with enriched options", "run", run.ID, "analyzers", retry)
		for _, id := range retry {
			res, _ := o.execute(ctx, rc, id, sched.deps[id])
			run.Results[id] = res
		}
	}

	run.Duration = o.now().Sub(run.StartedAt)
	counts := run.Counts()
	span.SetAttributes(
		attribute.Int("modplan.success", counts[StatusSuccess]),
		attribute.Int("modplan.skipped", counts[StatusSkipped]),
		attribute.Int("modplan.error", counts[StatusError]),
	)
	o.logger.Info("Analyzer run finished",
		"run", run.ID,
		"success", counts[StatusSuccess],
		"skipped", counts[StatusSkipped],
		"error", counts[StatusError],
		"duration", run.Duration,
	)
	return run, nil
}

// execute runs one analyzer through the skip checks and the fault boundary.
// missing reports a skip caused only by an absent required input, either its
// own or one a dependency is waiting on.
func (o *Orchestrator) execute(ctx context.Context, rc *RunContext, id string, deps []string) (res Result, missing bool) {
	reg := o.registration(id)
	start := o.now()
	res = Result{ID: id, Pass: rc.pass}

	ctx, span := o.tracer.Start(ctx, "analyzer."+id,
		trace.WithAttributes(
			attribute.String("modplan.analyzer.id", id),
			attribute.Int("modplan.analyzer.pass", rc.pass),
		),
	)
	defer func() {
		res.Duration = o.now().Sub(start)
		o.record(span, res)
		span.End()
	}()

	if ctx.Err() != nil {
		return skipped(res, ReasonCancelled, ""), false
	}

	for _, dep := range deps {
		if r, ok := rc.results[dep]; ok && r.Status == StatusError {
			return skipped(res, fmt.Sprintf("dependency %s failed", dep), errors.UpstreamSkip), false
		}
	}
	for _, dep := range deps {
		if rc.waiting[dep] {
			return skipped(res, "waiting for dependency "+dep, ""), true
		}
	}

	for _, in := range reg.Inputs {
		v, ok := rc.values[in.Key]
		if ok && in.valid(v) {
			continue
		}
		if !in.Optional {
			return skipped(res, "missing input "+in.Key, ""), true
		}
	}

	if reg.ShouldRun != nil {
		var run bool
		if err := o.protect(id, func() error {
			run = reg.ShouldRun(rc)
			return nil
		}); err != nil {
			return failed(res, err), false
		}
		if !run {
			return skipped(res, ReasonDeclined, ""), false
		}
	}

	var data any
	if err := o.protect(id, func() error {
		var err error
		data, err = reg.Analyze(ctx, rc)
		return err
	}); err != nil {
		return failed(res, err), false
	}

	res.Status = StatusSuccess
	res.Data = data
	o.extract(rc, reg, data)
	return res, false
}

// extract stores the typed values reg provides. A faulty extractor loses its
// value but not the analyzer's result.
func (o *Orchestrator) extract(rc *RunContext, reg Registration, data any) {
	for _, p := range reg.Provides {
		var (
			v  any
			ok bool
		)
		if err := o.protect(reg.ID, func() error {
			v, ok = p.extract(data)
			return nil
		}); err != nil {
			o.logger.Warn("Discarding value from faulty extractor", "analyzer", reg.ID, "key", p.Key, "error", err)
			continue
		}
		if !ok {
			o.logger.Debug("Analyzer data did not provide value", "analyzer", reg.ID, "key", p.Key)
			continue
		}
		rc.values[p.Key] = v
	}
}

// protect is the fault boundary: a panic becomes a PLUGIN_FAULT error.
func (o *Orchestrator) protect(id string, fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			o.logger.Debug("Recovered analyzer panic", "analyzer", id, "stack", string(debug.Stack()))
			err = errors.Newf(errors.PluginFault, "panic: %s", describe(p))
		}
	}()
	return fn()
}

func skipped(res Result, reason string, code errors.ErrorCode) Result {
	res.Status = StatusSkipped
	res.Reason = reason
	res.Code = code
	return res
}

func failed(res Result, err error) Result {
	res.Status = StatusError
	res.Reason = errors.Describe(err)
	res.Code = errors.CodeOf(err)
	if res.Code == "" {
		res.Code = errors.PluginFault
	}
	return res
}

func (o *Orchestrator) record(span trace.Span, res Result) {
	span.SetAttributes(attribute.String("modplan.analyzer.status", string(res.Status)))
	if res.Reason != "" {
		span.SetAttributes(attribute.String("modplan.analyzer.reason", res.Reason))
	}
	if res.Status == StatusError {
		span.SetStatus(codes.Error, res.Reason)
		o.logger.Warn("Analyzer failed", "analyzer", res.ID, "reason", res.Reason, "pass", res.Pass)
	} else {
		o.logger.Debug("Analyzer finished",
			"analyzer", res.ID,
			"status", res.Status,
			"reason", res.Reason,
			"duration", res.Duration,
		)
	}
	if o.metrics != nil {
		o.metrics.RecordAnalyzer(res.ID, string(res.Status), res.Duration)
	}
}
