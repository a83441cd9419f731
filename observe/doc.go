// Package observe provides the logging, tracing and metrics used around checks.
//
// Logs are structured (logrus) and go to standard error, optionally mirrored
// to syslog under the mail facility. With debug enabled a readable copy of
// every entry is written to the console. Every entry of one run carries the
// same run_id.
//
// Middleware wraps a health.Checker so that each check gets a span, metrics,
// and a log entry whose reason matches what the mail system is told. Metrics
// can be exported through OpenTelemetry or written at shutdown as a
// Prometheus textfile.
package observe
