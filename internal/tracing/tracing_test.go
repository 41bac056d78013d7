package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"modplan/internal/orchestrator"
)

func TestSetup_Disabled(t *testing.T) {
	p, err := Setup(false, nil)
	if err != nil {
		t.Fatalf("Setup() error: %v", err)
	}
	if p.Enabled() {
		t.Error("disabled provider reports enabled")
	}
	if p.Tracer() == nil {
		t.Fatal("expected a tracer")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error: %v", err)
	}
}

func TestSetup_LogsSpans(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	p, err := Setup(true, logger)
	if err != nil {
		t.Fatalf("Setup() error: %v", err)
	}
	if !p.Enabled() {
		t.Fatal("provider should be enabled")
	}

	o := orchestrator.New(orchestrator.WithTracer(p.Tracer()))
	o.MustRegister(orchestrator.Registration{
		ID: "sample",
		Analyze: func(context.Context, *orchestrator.RunContext) (any, error) {
			return 1, nil
		},
	})
	if _, err := o.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"span=analyzer.sample", "span=orchestrator.run", "modplan.analyzer.status=success"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestNew_WithInMemoryExporter(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	p, err := New(exp)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	_, span := p.Tracer().Start(context.Background(), "unit")
	span.End()

	spans := exp.GetSpans()
	if len(spans) != 1 || spans[0].Name != "unit" {
		t.Fatalf("spans = %+v, want one named unit", spans)
	}
	var service string
	for _, kv := range spans[0].Resource.Attributes() {
		if kv.Key == "service.name" {
			service = kv.Value.AsString()
		}
	}
	if service != ServiceName {
		t.Errorf("service.name = %q, want %q", service, ServiceName)
	}
}
