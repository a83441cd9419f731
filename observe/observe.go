package observe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"

	"github.com/google/uuid"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/jonwraymond/mailgate/observe/exporters"
)

// Config holds all configuration for the Observer.
type Config struct {
	ServiceName string
	Version     string
	Tracing     TracingConfig
	Metrics     MetricsConfig
	Logging     LoggingConfig
}

// TracingConfig configures the tracing subsystem.
type TracingConfig struct {
	Enabled   bool
	Exporter  string  // otlp|jaeger|stdout|none
	SamplePct float64 // 0.0-1.0
}

// MetricsConfig configures the metrics subsystem.
type MetricsConfig struct {
	Enabled  bool
	Exporter string // otlp|prometheus|stdout|none

	// Textfile, when set, receives the Prometheus text exposition of all
	// metrics at shutdown, for node_exporter's textfile collector.
	Textfile string
}

// LoggingConfig configures the logging subsystem.
type LoggingConfig struct {
	Enabled   bool
	Level     string // debug|info|warn|error
	Format    string // json|text
	Syslog    bool
	SyslogTag string

	// Debug forces debug level and mirrors entries as readable lines on
	// the console writer.
	Debug bool
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return ErrMissingServiceName
	}

	if c.Tracing.Enabled {
		if !slices.Contains(ValidTracingExporters, c.Tracing.Exporter) {
			return fmt.Errorf("%w: %q", ErrInvalidTracingExporter, c.Tracing.Exporter)
		}
		if c.Tracing.SamplePct < MinSamplePct || c.Tracing.SamplePct > MaxSamplePct {
			return fmt.Errorf("%w, got: %f", ErrInvalidSamplePct, c.Tracing.SamplePct)
		}
	}

	if c.Metrics.Enabled {
		if !slices.Contains(ValidMetricsExporters, c.Metrics.Exporter) {
			return fmt.Errorf("%w: %q", ErrInvalidMetricsExporter, c.Metrics.Exporter)
		}
	}

	if c.Logging.Enabled {
		if !slices.Contains(ValidLogLevels, c.Logging.Level) {
			return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
		}
		if !slices.Contains(ValidLogFormats, c.Logging.Format) {
			return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
		}
	}

	return nil
}

// Observer provides access to telemetry primitives.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Shutdown must honor cancellation/deadlines.
// - Errors: Shutdown should be idempotent and return the first error encountered.
type Observer interface {
	// Tracer returns the configured tracer.
	Tracer() trace.Tracer

	// Meter returns the configured meter.
	Meter() metric.Meter

	// Logger returns the configured logger.
	Logger() Logger

	// RunID identifies this invocation in every log entry.
	RunID() string

	// Shutdown flushes and shuts down all telemetry providers.
	Shutdown(ctx context.Context) error
}

// Logger is a minimal structured logging interface.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: logging must be best-effort and must not panic.
type Logger interface {
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	Debug(ctx context.Context, msg string, fields ...Field)
	With(fields ...Field) Logger
	WithCheck(meta CheckMeta) Logger
}

// Field represents a structured log field.
type Field struct {
	Key   string
	Value any
}

// Option customises an Observer.
type Option func(*options)

type options struct {
	logWriter     io.Writer
	consoleWriter io.Writer
	exportWriter  io.Writer
	runID         string
	processors    []sdktrace.SpanProcessor
	readers       []sdkmetric.Reader
	dialSyslog    func(tag string) (logrus.Hook, error)
}

// WithLogWriter sets the structured log destination. Default: standard error.
func WithLogWriter(w io.Writer) Option {
	return func(o *options) { o.logWriter = w }
}

// WithConsoleWriter sets the debug console destination. Default: standard output.
func WithConsoleWriter(w io.Writer) Option {
	return func(o *options) { o.consoleWriter = w }
}

// WithExportWriter sets the destination of stdout exporters. Default: standard error.
func WithExportWriter(w io.Writer) Option {
	return func(o *options) { o.exportWriter = w }
}

// WithRunID sets the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(o *options) { o.runID = id }
}

// WithSpanProcessor adds a span processor when tracing is enabled.
func WithSpanProcessor(p sdktrace.SpanProcessor) Option {
	return func(o *options) { o.processors = append(o.processors, p) }
}

// WithMetricReader adds a metric reader when metrics are enabled.
func WithMetricReader(r sdkmetric.Reader) Option {
	return func(o *options) { o.readers = append(o.readers, r) }
}

// observer is the concrete implementation of Observer.
type observer struct {
	tracer         trace.Tracer
	meter          metric.Meter
	logger         Logger
	runID          string
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	registry       *promclient.Registry
	textfile       string

	shutdownOnce sync.Once
	shutdownErr  error
}

// NewObserver creates a new Observer with the given configuration.
func NewObserver(ctx context.Context, cfg Config, opts ...Option) (Observer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{
		logWriter:     os.Stderr,
		consoleWriter: os.Stdout,
		exportWriter:  os.Stderr,
		dialSyslog:    newSyslogHook,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.runID == "" {
		o.runID = uuid.NewString()
	}

	obs := &observer{runID: o.runID, textfile: cfg.Metrics.Textfile}

	// Logging comes first so later setup problems can be reported.
	if cfg.Logging.Enabled {
		obs.logger = newObserverLogger(ctx, cfg, o)
	} else {
		obs.logger = &noopLogger{}
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if cfg.Tracing.Enabled {
		tp, tracer, err := setupTracing(ctx, cfg, res, o)
		if err != nil {
			return nil, fmt.Errorf("failed to setup tracing: %w", err)
		}
		obs.tracerProvider = tp
		obs.tracer = tracer
	} else {
		obs.tracer = tracenoop.NewTracerProvider().Tracer("noop")
	}

	if cfg.Metrics.Enabled {
		mp, reg, err := setupMetrics(ctx, cfg, res, o)
		if err != nil {
			_ = obs.Shutdown(ctx)
			return nil, fmt.Errorf("failed to setup metrics: %w", err)
		}
		obs.meterProvider = mp
		obs.registry = reg
		obs.meter = mp.Meter(cfg.ServiceName)
	} else {
		obs.meter = noop.NewMeterProvider().Meter("noop")
	}

	return obs, nil
}

func newObserverLogger(ctx context.Context, cfg Config, o options) Logger {
	lc := cfg.Logging
	if lc.Debug {
		lc.Level = "debug"
	}

	l := newLogrus(lc, o.logWriter)
	if lc.Debug {
		l.AddHook(newConsoleHook(o.consoleWriter))
	}

	logger := (&logrusLogger{entry: logrus.NewEntry(l)}).With(Field{Key: "run_id", Value: o.runID})

	if lc.Syslog {
		hook, err := o.dialSyslog(lc.SyslogTag)
		if err != nil {
			logger.Warn(ctx, "syslog unavailable", Field{Key: "error", Value: err.Error()})
		} else {
			l.AddHook(hook)
		}
	}
	return logger
}

func setupTracing(ctx context.Context, cfg Config, res *resource.Resource, o options) (*sdktrace.TracerProvider, trace.Tracer, error) {
	exporter, err := exporters.NewTracingExporter(ctx, cfg.Tracing.Exporter, exporters.Options{Writer: o.exportWriter})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	var sampler sdktrace.Sampler
	if cfg.Tracing.SamplePct >= 1.0 {
		sampler = sdktrace.AlwaysSample()
	} else if cfg.Tracing.SamplePct <= 0 {
		sampler = sdktrace.NeverSample()
	} else {
		sampler = sdktrace.TraceIDRatioBased(cfg.Tracing.SamplePct)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	}
	if exporter != nil {
		// A run lasts milliseconds; export synchronously at span end.
		opts = append(opts, sdktrace.WithSyncer(exporter))
	}
	for _, p := range o.processors {
		opts = append(opts, sdktrace.WithSpanProcessor(p))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)

	return tp, tp.Tracer(cfg.ServiceName), nil
}

func setupMetrics(ctx context.Context, cfg Config, res *resource.Resource, o options) (*sdkmetric.MeterProvider, *promclient.Registry, error) {
	var reg *promclient.Registry
	if cfg.Metrics.Textfile != "" || cfg.Metrics.Exporter == "prometheus" {
		reg = promclient.NewRegistry()
	}

	opts := []sdkmetric.Option{
		sdkmetric.WithResource(res),
	}

	eo := exporters.Options{Writer: o.exportWriter}
	if reg != nil {
		eo.Registerer = reg
	}
	reader, err := exporters.NewMetricsReader(ctx, cfg.Metrics.Exporter, eo)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create metrics reader: %w", err)
	}
	if reader != nil {
		opts = append(opts, sdkmetric.WithReader(reader))
	}

	// The textfile needs a Prometheus reader even when another exporter is chosen.
	if cfg.Metrics.Textfile != "" && cfg.Metrics.Exporter != "prometheus" {
		prom, err := exporters.NewPrometheusReader(reg)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, sdkmetric.WithReader(prom))
	}

	for _, r := range o.readers {
		opts = append(opts, sdkmetric.WithReader(r))
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)

	return mp, reg, nil
}

func (o *observer) Tracer() trace.Tracer {
	return o.tracer
}

func (o *observer) Meter() metric.Meter {
	return o.meter
}

func (o *observer) Logger() Logger {
	return o.logger
}

func (o *observer) RunID() string {
	return o.runID
}

func (o *observer) Shutdown(ctx context.Context) error {
	o.shutdownOnce.Do(func() {
		o.shutdownErr = o.doShutdown(ctx)
	})
	return o.shutdownErr
}

func (o *observer) doShutdown(ctx context.Context) error {
	var errs []error

	if o.textfile != "" && o.registry != nil {
		if err := promclient.WriteToTextfile(o.textfile, o.registry); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", ErrTextfile, err))
		}
	}

	if o.tracerProvider != nil {
		if err := o.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}

	if o.meterProvider != nil {
		if err := o.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
