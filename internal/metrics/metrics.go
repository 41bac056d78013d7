// Package metrics holds the Prometheus metrics of one analysis run.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metrics for one orchestrator
type Registry struct {
	// Analyzer Metrics
	AnalyzerRunsTotal    *prometheus.CounterVec
	AnalyzerDuration     *prometheus.HistogramVec
	PluginCyclesBroken   prometheus.Counter
	PluginUnknownDepends prometheus.Counter

	// Graph Metrics
	GraphModules     prometheus.Gauge
	GraphEdges       prometheus.Gauge
	GraphRejected    prometheus.Counter
	ArchViolations   *prometheus.GaugeVec
	ArchHealthScore  prometheus.Gauge
	ScanSkippedFiles prometheus.Gauge
	PlanActionsTotal *prometheus.GaugeVec

	registry *prometheus.Registry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initAnalyzerMetrics()
	r.initGraphMetrics()

	return r
}

func (r *Registry) initAnalyzerMetrics() {
	r.AnalyzerRunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "modplan_analyzer_runs_total",
			Help: "Total number of analyzer executions by final status",
		},
		[]string{"analyzer", "status"}, // success, skipped, error
	)

	r.AnalyzerDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "modplan_analyzer_duration_seconds",
			Help:    "Wall-clock duration of analyzer executions in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"analyzer"},
	)

	r.PluginCyclesBroken = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "modplan_plugin_cycles_broken_total",
			Help: "Analyzer dependency edges dropped to break a declaration cycle",
		},
	)

	r.PluginUnknownDepends = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "modplan_plugin_unknown_dependencies_total",
			Help: "Declared analyzer dependencies that were never registered",
		},
	)
}

func (r *Registry) initGraphMetrics() {
	r.GraphModules = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "modplan_graph_modules",
			Help: "Number of modules in the dependency graph",
		},
	)

	r.GraphEdges = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "modplan_graph_edges",
			Help: "Number of dependency edges in the graph",
		},
	)

	r.GraphRejected = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "modplan_graph_rejected_edges_total",
			Help: "Module dependency edges dropped because an endpoint is not a known module",
		},
	)

	r.ArchViolations = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "modplan_arch_violations",
			Help: "Architecture violations by kind",
		},
		[]string{"kind"}, // circular, layer-violation
	)

	r.ArchHealthScore = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "modplan_arch_health_score",
			Help: "Architecture health score (0-100)",
		},
	)

	r.ScanSkippedFiles = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "modplan_scan_skipped_files",
			Help: "Source files skipped because they could not be read",
		},
	)

	r.PlanActionsTotal = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "modplan_plan_actions",
			Help: "Planned refactoring actions by kind",
		},
		[]string{"kind"}, // create-barrel, move, merge, delete
	)
}

// RecordAnalyzer records one analyzer execution with its duration
func (r *Registry) RecordAnalyzer(analyzer, status string, duration time.Duration) {
	r.AnalyzerRunsTotal.WithLabelValues(analyzer, status).Inc()
	r.AnalyzerDuration.WithLabelValues(analyzer).Observe(duration.Seconds())
}

// RecordCycleBroken counts a dropped analyzer dependency edge
func (r *Registry) RecordCycleBroken() {
	r.PluginCyclesBroken.Inc()
}

// RecordUnknownDependency counts an ignored unknown analyzer dependency
func (r *Registry) RecordUnknownDependency() {
	r.PluginUnknownDepends.Inc()
}

// RecordRejectedEdges counts module edges left out of the graph
func (r *Registry) RecordRejectedEdges(n int) {
	r.GraphRejected.Add(float64(n))
}

// UpdateGraphMetrics updates graph-related metrics
func (r *Registry) UpdateGraphMetrics(modules, edges, skippedFiles int) {
	r.GraphModules.Set(float64(modules))
	r.GraphEdges.Set(float64(edges))
	r.ScanSkippedFiles.Set(float64(skippedFiles))
}

// UpdateHealth sets the health score and per-kind violation counts
func (r *Registry) UpdateHealth(score float64, violationsByKind map[string]int) {
	r.ArchHealthScore.Set(score)
	r.ArchViolations.Reset()
	for kind, n := range violationsByKind {
		r.ArchViolations.WithLabelValues(kind).Set(float64(n))
	}
}

// UpdatePlan sets the per-kind planned action counts
func (r *Registry) UpdatePlan(actionsByKind map[string]int) {
	r.PlanActionsTotal.Reset()
	for kind, n := range actionsByKind {
		r.PlanActionsTotal.WithLabelValues(kind).Set(float64(n))
	}
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile dumps every metric in the text exposition format, for
// node_exporter's textfile collector. The write is atomic.
func (r *Registry) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
