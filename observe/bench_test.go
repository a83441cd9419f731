package observe

import (
	"context"
	"io"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jonwraymond/mailgate/health"
)

// BenchmarkLogger_Info measures a single JSON log entry.
func BenchmarkLogger_Info(b *testing.B) {
	logger := NewLoggerWithWriter("info", io.Discard)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info(ctx, "check passed",
			Field{Key: "duration_ms", Value: 12.5},
			Field{Key: "perfdata", Value: "avg=0.012000s max=0.020000s"},
		)
	}
}

// BenchmarkLogger_LevelFiltering measures the cost of a filtered entry.
func BenchmarkLogger_LevelFiltering(b *testing.B) {
	logger := NewLoggerWithWriter("warn", io.Discard)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Debug(ctx, "check passed")
	}
}

// BenchmarkLogger_WithCheck measures scoped logger creation.
func BenchmarkLogger_WithCheck(b *testing.B) {
	logger := NewLoggerWithWriter("info", io.Discard)
	meta := CheckMeta{Name: "nfs_mount"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = logger.WithCheck(meta)
	}
}

// BenchmarkTracer_StartEndSpan measures span lifecycle.
func BenchmarkTracer_StartEndSpan(b *testing.B) {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(tracetest.NewSpanRecorder()))
	tr := &tracerImpl{tracer: tp.Tracer("bench")}
	meta := CheckMeta{Name: "nfs_mount"}
	result := health.Healthy("ok")
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, span := tr.StartSpan(ctx, meta)
		tr.EndSpan(span, result)
	}
}

// BenchmarkMetrics_RecordCheck measures metric recording.
func BenchmarkMetrics_RecordCheck(b *testing.B) {
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	m, err := newMetrics(mp.Meter("bench"))
	if err != nil {
		b.Fatal(err)
	}
	meta := CheckMeta{Name: "nfs_mount"}
	result := health.Healthy("ok")
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.RecordCheck(ctx, meta, result, time.Millisecond)
	}
}

// BenchmarkMiddleware_Wrap measures the full instrumented check path.
func BenchmarkMiddleware_Wrap(b *testing.B) {
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	m, err := newMetrics(mp.Meter("bench"))
	if err != nil {
		b.Fatal(err)
	}
	tp := sdktrace.NewTracerProvider()
	mw := NewMiddleware(&tracerImpl{tracer: tp.Tracer("bench")}, m, NewLoggerWithWriter("info", io.Discard))

	checker := mw.Wrap(health.Confirm())
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = checker.Check(ctx)
	}
}

// BenchmarkConfig_Validate measures configuration validation.
func BenchmarkConfig_Validate(b *testing.B) {
	cfg := validConfig()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cfg.Validate()
	}
}
