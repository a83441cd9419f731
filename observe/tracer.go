package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/jonwraymond/mailgate/health"
)

// CheckMeta identifies a check for telemetry purposes.
type CheckMeta struct {
	Name string // Check name as configured, e.g. nfs_mount
}

// SpanName returns the deterministic span name for this check.
// Format: mailgate.check.<name>
func (m CheckMeta) SpanName() string {
	return "mailgate.check." + m.Name
}

// Tracer wraps OpenTelemetry tracing with check-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a check.
	StartSpan(ctx context.Context, meta CheckMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording the check outcome.
	EndSpan(span trace.Span, result health.Result)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// newTracer creates a new Tracer wrapping the given OpenTelemetry tracer.
func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with check metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta CheckMeta) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(
			attribute.String("check.name", meta.Name),
			attribute.Bool("check.passed", false),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpan ends the span and records the failure if the check did not pass.
func (t *tracerImpl) EndSpan(span trace.Span, result health.Result) {
	attrs := []attribute.KeyValue{
		attribute.Bool("check.passed", result.Passed()),
	}
	if result.PerfData != "" {
		attrs = append(attrs, attribute.String("check.perfdata", result.PerfData))
	}

	if result.Passed() {
		span.SetStatus(codes.Ok, "")
	} else {
		attrs = append(attrs,
			attribute.String("check.reason", result.Reason),
			attribute.Bool("check.fatal", result.Fatal),
		)
		span.SetStatus(codes.Error, result.Message)
		if result.Error != nil {
			span.RecordError(result.Error)
		}
	}
	span.SetAttributes(attrs...)
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

// newNoopTracer creates a no-op tracer.
func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta CheckMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, result health.Result) {
	span.End()
}
