package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/mailgate/health"
)

// Metrics records check and verdict metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCheck records one check outcome.
	RecordCheck(ctx context.Context, meta CheckMeta, result health.Result, duration time.Duration)

	// RecordProbe records one mount probe.
	RecordProbe(ctx context.Context, mount string, elapsed time.Duration, err error)

	// RecordVerdict records the verdict of a run and the check that decided it.
	RecordVerdict(ctx context.Context, verdict, check string)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	checkTotal    metric.Int64Counter
	checkFailures metric.Int64Counter
	checkDuration metric.Float64Histogram
	probeDuration metric.Float64Histogram
	probeFailures metric.Int64Counter
	verdictTotal  metric.Int64Counter
}

// NewMetrics creates a Metrics instance with the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	return newMetrics(meter)
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	checkTotal, err := meter.Int64Counter(
		"mailgate.check.total",
		metric.WithDescription("Total number of checks run"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, err
	}

	checkFailures, err := meter.Int64Counter(
		"mailgate.check.failures",
		metric.WithDescription("Total number of failed checks"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, err
	}

	checkDuration, err := meter.Float64Histogram(
		"mailgate.check.duration",
		metric.WithDescription("Check duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	probeDuration, err := meter.Float64Histogram(
		"mailgate.probe.duration",
		metric.WithDescription("Time to enter a watched mount point"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	probeFailures, err := meter.Int64Counter(
		"mailgate.probe.failures",
		metric.WithDescription("Mount probes that failed or timed out"),
		metric.WithUnit("{probe}"),
	)
	if err != nil {
		return nil, err
	}

	verdictTotal, err := meter.Int64Counter(
		"mailgate.verdict.total",
		metric.WithDescription("Verdicts returned to the mail system"),
		metric.WithUnit("{verdict}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		checkTotal:    checkTotal,
		checkFailures: checkFailures,
		checkDuration: checkDuration,
		probeDuration: probeDuration,
		probeFailures: probeFailures,
		verdictTotal:  verdictTotal,
	}, nil
}

// RecordCheck records metrics for one check.
func (m *metricsImpl) RecordCheck(ctx context.Context, meta CheckMeta, result health.Result, duration time.Duration) {
	opt := metric.WithAttributes(attribute.String("check.name", meta.Name))

	m.checkTotal.Add(ctx, 1, opt)
	if !result.Passed() {
		m.checkFailures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("check.name", meta.Name),
			attribute.Bool("check.fatal", result.Fatal),
		))
	}
	m.checkDuration.Record(ctx, duration.Seconds(), opt)
}

// RecordProbe records metrics for one mount probe.
func (m *metricsImpl) RecordProbe(ctx context.Context, mount string, elapsed time.Duration, err error) {
	opt := metric.WithAttributes(attribute.String("mount", mount))
	m.probeDuration.Record(ctx, elapsed.Seconds(), opt)
	if err != nil {
		m.probeFailures.Add(ctx, 1, opt)
	}
}

// RecordVerdict records the verdict of a run.
func (m *metricsImpl) RecordVerdict(ctx context.Context, verdict, check string) {
	m.verdictTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("verdict", verdict),
		attribute.String("check.name", check),
	))
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordCheck(ctx context.Context, meta CheckMeta, result health.Result, duration time.Duration) {
}

func (m *noopMetrics) RecordProbe(ctx context.Context, mount string, elapsed time.Duration, err error) {
}

func (m *noopMetrics) RecordVerdict(ctx context.Context, verdict, check string) {}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics {
	return &noopMetrics{}
}
