// Package tracing sets up OpenTelemetry tracing for analyzer runs.
package tracing

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"modplan/internal/orchestrator"
	"modplan/internal/slogutil"
	"modplan/internal/version"
)

// ServiceName is reported as service.name on every span.
const ServiceName = "modplan"

// Provider wraps the tracer provider for one process.
type Provider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// Setup returns a provider. When disabled the tracer comes from the global
// provider, which is a no-op unless the embedding program installed one.
// When enabled every finished span is logged at debug level.
func Setup(enabled bool, logger *slog.Logger) (*Provider, error) {
	if !enabled {
		return &Provider{tracer: otel.Tracer(orchestrator.TracerName)}, nil
	}
	return New(NewLogExporter(logger))
}

// New builds an SDK provider exporting synchronously to exp.
func New(exp sdktrace.SpanExporter) (*Provider, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			attribute.String("service.name", ServiceName),
			attribute.String("service.version", version.Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	return &Provider{
		provider: provider,
		tracer:   provider.Tracer(orchestrator.TracerName),
	}, nil
}

// Tracer returns the tracer to hand to orchestrator.WithTracer.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// Enabled reports whether spans are exported.
func (p *Provider) Enabled() bool {
	return p.provider != nil
}

// Shutdown flushes and stops the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.provider != nil {
		return p.provider.Shutdown(ctx)
	}
	return nil
}

// LogExporter writes finished spans to a logger.
type LogExporter struct {
	logger *slog.Logger
}

// NewLogExporter returns an exporter logging to logger. Nil discards.
func NewLogExporter(logger *slog.Logger) *LogExporter {
	return &LogExporter{logger: slogutil.OrDiscard(logger)}
}

// ExportSpans logs each span with its duration, status and attributes.
func (e *LogExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		args := []any{
			"span", s.Name(),
			"trace", s.SpanContext().TraceID().String(),
			"duration", s.EndTime().Sub(s.StartTime()),
			"status", s.Status().Code.String(),
		}
		if d := s.Status().Description; d != "" {
			args = append(args, "description", d)
		}
		for _, kv := range s.Attributes() {
			args = append(args, string(kv.Key), kv.Value.Emit())
		}
		e.logger.DebugContext(ctx, "Span finished", args...)
	}
	return nil
}

// Shutdown implements sdktrace.SpanExporter.
func (e *LogExporter) Shutdown(context.Context) error {
	return nil
}
