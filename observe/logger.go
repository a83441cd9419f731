package observe

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// LogLevel represents a logging level.
type LogLevel = logrus.Level

// Log levels.
const (
	LevelDebug = logrus.DebugLevel
	LevelInfo  = logrus.InfoLevel
	LevelWarn  = logrus.WarnLevel
	LevelError = logrus.ErrorLevel
)

// ParseLogLevel parses a string log level, defaulting to info.
func ParseLogLevel(s string) LogLevel {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// logrusLogger adapts a logrus entry to Logger.
type logrusLogger struct {
	entry *logrus.Entry
}

// NewLogger creates a JSON logger writing to standard error at the given level.
func NewLogger(level string) Logger {
	return NewLoggerWithWriter(level, os.Stderr)
}

// NewLoggerWithWriter creates a JSON logger with a custom writer.
func NewLoggerWithWriter(level string, w io.Writer) Logger {
	l := newLogrus(LoggingConfig{Level: level, Format: "json"}, w)
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

func newLogrus(cfg LoggingConfig, w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(ParseLogLevel(cfg.Level))
	if cfg.Format == "text" {
		l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{logrus.FieldKeyTime: "timestamp"},
		})
	}
	return l
}

// With returns a logger with fields attached to every entry.
func (l *logrusLogger) With(fields ...Field) Logger {
	return &logrusLogger{entry: l.entry.WithFields(toLogrus(fields))}
}

// WithCheck returns a logger with check context attached.
func (l *logrusLogger) WithCheck(meta CheckMeta) Logger {
	return &logrusLogger{entry: l.entry.WithField("check", meta.Name)}
}

func (l *logrusLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, LevelInfo, msg, fields)
}

func (l *logrusLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, LevelWarn, msg, fields)
}

func (l *logrusLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, LevelError, msg, fields)
}

func (l *logrusLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, LevelDebug, msg, fields)
}

func (l *logrusLogger) log(ctx context.Context, level LogLevel, msg string, fields []Field) {
	if !l.entry.Logger.IsLevelEnabled(level) {
		return
	}

	entry := l.entry.WithContext(ctx).WithFields(toLogrus(fields))
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		entry = entry.WithField("trace_id", sc.TraceID().String())
	}
	entry.Log(level, msg)
}

func toLogrus(fields []Field) logrus.Fields {
	out := make(logrus.Fields, len(fields))
	for _, f := range fields {
		if isRedactedField(f.Key) {
			out[f.Key] = "[REDACTED]"
			continue
		}
		if err, ok := f.Value.(error); ok {
			out[f.Key] = err.Error()
			continue
		}
		out[f.Key] = f.Value
	}
	return out
}

var redacted = func() map[string]bool {
	m := make(map[string]bool, len(RedactedFields))
	for _, k := range RedactedFields {
		m[k] = true
	}
	return m
}()

// isRedactedField returns true if the field should be redacted.
func isRedactedField(key string) bool {
	return redacted[key]
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (l *noopLogger) Info(ctx context.Context, msg string, fields ...Field)  {}
func (l *noopLogger) Warn(ctx context.Context, msg string, fields ...Field)  {}
func (l *noopLogger) Error(ctx context.Context, msg string, fields ...Field) {}
func (l *noopLogger) Debug(ctx context.Context, msg string, fields ...Field) {}
func (l *noopLogger) With(fields ...Field) Logger                            { return l }
func (l *noopLogger) WithCheck(meta CheckMeta) Logger                        { return l }

// NopLogger returns a logger that discards everything.
func NopLogger() Logger {
	return &noopLogger{}
}
