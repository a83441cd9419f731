package health

import (
	"context"
	"time"
)

// Status represents the outcome of a health check.
type Status int

const (
	// StatusHealthy indicates the check passed.
	StatusHealthy Status = iota
	// StatusUnhealthy indicates the check failed.
	StatusUnhealthy
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// Result contains the outcome of a health check.
type Result struct {
	// Status is the health status.
	Status Status

	// Message is a human-readable summary for logs.
	Message string

	// Reason is the short text reported to the mail system on failure.
	// When empty the check name is reported.
	Reason string

	// PerfData carries timing annotations, e.g. "avg=0.012000s max=0.020000s".
	PerfData string

	// Details contains arbitrary metadata about the check.
	Details map[string]any

	// Duration is how long the check took.
	Duration time.Duration

	// Timestamp is when the check was performed.
	Timestamp time.Time

	// Error is the error if the check failed.
	Error error

	// Fatal marks failures of the environment rather than of the checked
	// condition, such as an unreadable mount table. They are logged at a
	// higher severity.
	Fatal bool
}

// Healthy creates a healthy result.
func Healthy(message string) Result {
	return Result{
		Status:    StatusHealthy,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Unhealthy creates an unhealthy result.
func Unhealthy(message string, err error) Result {
	return Result{
		Status:    StatusUnhealthy,
		Message:   message,
		Error:     err,
		Timestamp: time.Now(),
	}
}

// Fatal creates an unhealthy result for an environmental failure.
func Fatal(message string, err error) Result {
	r := Unhealthy(message, err)
	r.Fatal = true
	return r
}

// Passed reports whether the check passed.
func (r Result) Passed() bool {
	return r.Status == StatusHealthy
}

// ReasonFor returns the verdict reason for a failed result of the named check.
func (r Result) ReasonFor(name string) string {
	if r.Reason != "" {
		return r.Reason
	}
	return name
}

// WithReason sets the verdict reason on a result.
func (r Result) WithReason(reason string) Result {
	r.Reason = reason
	return r
}

// WithPerfData sets the performance data on a result.
func (r Result) WithPerfData(perf string) Result {
	r.PerfData = perf
	return r
}

// WithDetails adds details to a result.
func (r Result) WithDetails(details map[string]any) Result {
	r.Details = details
	return r
}

// WithDuration sets the duration on a result.
func (r Result) WithDuration(d time.Duration) Result {
	r.Duration = d
	return r
}

// Checker is the interface for health checks.
type Checker interface {
	// Name returns the name of this checker.
	Name() string

	// Check performs the health check and returns the result.
	Check(ctx context.Context) Result
}

// CheckerFunc is an adapter to allow ordinary functions to be used as Checkers.
type CheckerFunc struct {
	name string
	fn   func(context.Context) Result
}

// NewCheckerFunc creates a new CheckerFunc.
func NewCheckerFunc(name string, fn func(context.Context) Result) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

// Name returns the name of this checker.
func (f *CheckerFunc) Name() string {
	return f.name
}

// Check performs the health check.
func (f *CheckerFunc) Check(ctx context.Context) Result {
	return f.fn(ctx)
}

// ConfirmName is the name of the final always-passing check.
const ConfirmName = "confirm"

// Confirm returns the always-passing check that closes a run. Reaching it
// means every configured check before it passed.
func Confirm() Checker {
	return NewCheckerFunc(ConfirmName, func(context.Context) Result {
		return Healthy("all configured checks passed")
	})
}
