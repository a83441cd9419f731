package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jonwraymond/mailgate/config"
	"github.com/jonwraymond/mailgate/gate"
	"github.com/jonwraymond/mailgate/observe"
)

const serviceName = "mailgate"

// shutdownTimeout bounds telemetry flushing after the verdict is written.
const shutdownTimeout = 5 * time.Second

// runGate performs one policy decision and returns the exit status. The
// verdict line is written to stdout before telemetry is flushed.
func runGate(ctx context.Context, opts *options, stdin io.Reader, stdout, stderr io.Writer) int {
	loaded, envErr := config.LoadEnv(opts.envFiles...)
	cfg, cfgErr := config.Load(opts.configPath)

	obs, obsErr := newObserver(ctx, cfg, opts.debug, stdout, stderr)
	if obs == nil {
		fmt.Fprintf(stderr, "mailgate: %v\n", obsErr)
		v := gate.DeferVerdict(gate.ReasonConfigError)
		_, _ = io.WriteString(stdout, v.Line())
		return v.ExitCode()
	}
	logger := obs.Logger()

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		obsErr = errors.Join(obsErr, err)
		mw = observe.NewMiddleware(nil, nil, logger)
	}

	if opts.stdin {
		req, err := gate.ReadRequest(stdin)
		if err != nil {
			logger.Warn(ctx, "policy request unreadable", observe.Field{Key: "error", Value: err.Error()})
		}
		if fields := req.Fields(); len(fields) > 0 {
			logger = logger.With(fields...)
			mw = mw.WithLogger(logger)
		}
	}

	if len(loaded) > 0 {
		logger.Debug(ctx, "environment loaded", observe.Field{Key: "files", Value: loaded})
	}

	reporter := gate.NewReporter(logger, mw.Metrics())
	switch {
	case envErr != nil:
		reporter.Abort(ctx, gate.ReasonConfigError, envErr)
	case cfgErr != nil:
		reporter.Abort(ctx, gate.ReasonConfigError, cfgErr)
	case obsErr != nil:
		reporter.Abort(ctx, gate.ReasonConfigError, obsErr)
	default:
		logger.Debug(ctx, "configuration loaded",
			observe.Field{Key: "path", Value: cfg.Path},
			observe.Field{Key: "checks", Value: cfg.CheckNames()},
		)
		gate.NewDispatcher(mw).Run(ctx, cfg, reporter)
	}
	verdict := reporter.Finish(ctx)

	if err := reporter.Emit(stdout); err != nil {
		logger.Error(ctx, "verdict not written", observe.Field{Key: "error", Value: err.Error()})
	}

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := obs.Shutdown(sctx); err != nil {
		logger.Warn(ctx, "telemetry shutdown failed", observe.Field{Key: "error", Value: err.Error()})
	}

	return verdict.ExitCode()
}

// newObserver builds the observer for cfg. When the settings cannot be used
// it falls back to default logging without telemetry and returns the setup
// error, which defers the run.
func newObserver(ctx context.Context, cfg *config.Config, debug bool, stdout, stderr io.Writer) (observe.Observer, error) {
	oc := observeConfig(cfg, debug)
	opts := []observe.Option{
		observe.WithLogWriter(stderr),
		observe.WithConsoleWriter(stdout),
		observe.WithExportWriter(stderr),
	}

	obs, err := observe.NewObserver(ctx, oc, opts...)
	if err == nil {
		return obs, nil
	}

	fallback, ferr := observe.NewObserver(ctx, observeConfig(nil, debug), opts...)
	if ferr != nil {
		return nil, fmt.Errorf("mailgate: observer: %w", errors.Join(err, ferr))
	}
	fallback.Logger().Error(ctx, "telemetry unavailable", observe.Field{Key: "error", Value: err.Error()})
	return fallback, err
}

// observeConfig maps the file's logging and telemetry sections. Without a
// usable file, logging falls back to info level JSON.
func observeConfig(cfg *config.Config, debug bool) observe.Config {
	oc := observe.Config{
		ServiceName: serviceName,
		Version:     version,
		Logging: observe.LoggingConfig{
			Enabled:   true,
			Level:     "info",
			Format:    "json",
			SyslogTag: serviceName,
			Debug:     debug,
		},
	}
	if cfg == nil {
		return oc
	}

	oc.Logging.Level = cfg.Logging.Level
	oc.Logging.Format = cfg.Logging.Format
	oc.Logging.Syslog = cfg.Logging.Syslog
	oc.Logging.SyslogTag = cfg.Logging.SyslogTag

	t := cfg.Telemetry
	oc.Tracing = observe.TracingConfig{
		Enabled:   t.Tracing.Enabled,
		Exporter:  t.Tracing.Exporter,
		SamplePct: t.Tracing.SamplePct,
	}
	oc.Metrics = observe.MetricsConfig{
		Enabled:  t.Metrics.Enabled,
		Exporter: t.Metrics.Exporter,
		Textfile: t.Metrics.Textfile,
	}
	return oc
}
