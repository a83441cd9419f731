package observe

import (
	"context"
	"time"

	"github.com/jonwraymond/mailgate/health"
)

// Middleware wraps checks with observability (tracing, metrics, logging).
//
// Contract:
//   - Concurrency: Wrap() returns a checker as safe as the one it wraps.
//   - Context: Propagates context through tracing spans.
//   - Ownership: Results pass through unchanged apart from a missing Duration.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given observability components.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Metrics returns the middleware's metrics recorder.
func (m *Middleware) Metrics() Metrics {
	return m.metrics
}

// Logger returns the middleware's logger.
func (m *Middleware) Logger() Logger {
	return m.logger
}

// WithLogger returns a copy of the middleware that logs through l.
func (m *Middleware) WithLogger(l Logger) *Middleware {
	if l == nil {
		l = NopLogger()
	}
	cp := *m
	cp.logger = l
	return &cp
}

// Wrap wraps a checker with tracing, metrics, and logging.
//
// Passing checks log "check passed" at debug, failing checks "check failed"
// at warn, and fatal failures "check aborted" at error. Each failure entry
// carries the reason the mail system will see.
func (m *Middleware) Wrap(c health.Checker) health.Checker {
	return &observedChecker{mw: m, next: c}
}

type observedChecker struct {
	mw   *Middleware
	next health.Checker
}

func (c *observedChecker) Name() string {
	return c.next.Name()
}

func (c *observedChecker) Check(ctx context.Context) health.Result {
	meta := CheckMeta{Name: c.next.Name()}

	ctx, span := c.mw.tracer.StartSpan(ctx, meta)
	start := time.Now()

	result := c.next.Check(ctx)

	duration := time.Since(start)
	if result.Duration == 0 {
		result.Duration = duration
	}

	c.mw.tracer.EndSpan(span, result)
	c.mw.metrics.RecordCheck(ctx, meta, result, duration)

	log := c.mw.logger.WithCheck(meta)
	fields := []Field{
		{Key: "duration_ms", Value: float64(duration.Microseconds()) / 1000},
		{Key: "message", Value: result.Message},
	}
	if result.PerfData != "" {
		fields = append(fields, Field{Key: "perfdata", Value: result.PerfData})
	}
	for k, v := range result.Details {
		fields = append(fields, Field{Key: k, Value: v})
	}

	switch {
	case result.Passed():
		log.Debug(ctx, "check passed", fields...)
	default:
		fields = append(fields, Field{Key: "reason", Value: result.ReasonFor(meta.Name)})
		if result.Error != nil {
			fields = append(fields, Field{Key: "error", Value: result.Error.Error()})
		}
		if result.Fatal {
			log.Error(ctx, "check aborted", fields...)
		} else {
			log.Warn(ctx, "check failed", fields...)
		}
	}

	return result
}

// InstrumentProber records each mount probe's latency and outcome.
func (m *Middleware) InstrumentProber(p health.DirProber) health.DirProber {
	return &observedProber{mw: m, next: p}
}

type observedProber struct {
	mw   *Middleware
	next health.DirProber
}

func (p *observedProber) Probe(ctx context.Context, dir string) (time.Duration, error) {
	elapsed, err := p.next.Probe(ctx, dir)
	p.mw.metrics.RecordProbe(ctx, dir, elapsed, err)
	p.mw.logger.Debug(ctx, "mount probed",
		Field{Key: "mount", Value: dir},
		Field{Key: "elapsed_ms", Value: float64(elapsed.Microseconds()) / 1000},
		Field{Key: "ok", Value: err == nil},
	)
	return elapsed, err
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(newTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
