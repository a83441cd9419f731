package gate

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/jonwraymond/mailgate/health"
	"github.com/jonwraymond/mailgate/observe"
)

// State is the reporter's position in a run.
type State int

const (
	// Running means no decision has been reached.
	Running State = iota
	// Proceeding means every configured check passed.
	Proceeding
	// Deferred means a check failed or the run was aborted.
	Deferred
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Proceeding:
		return "proceeding"
	case Deferred:
		return "deferred"
	default:
		return "unknown"
	}
}

// Reporter turns a sequence of check results into one verdict.
//
// A reporter starts Running. The first failing result moves it to Deferred,
// and a passing result from the confirm check moves it to Proceeding. Both are
// terminal: later results are ignored. The verdict line is written at most
// once.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Context: ctx is used for logging and metrics only.
type Reporter struct {
	mu      sync.Mutex
	state   State
	verdict Verdict
	emitted bool

	logger  observe.Logger
	metrics observe.Metrics
}

// NewReporter creates a Running reporter. Nil collaborators are replaced by
// no-ops.
func NewReporter(logger observe.Logger, metrics observe.Metrics) *Reporter {
	if logger == nil {
		logger = observe.NopLogger()
	}
	if metrics == nil {
		metrics = observe.NopMetrics()
	}
	return &Reporter{logger: logger, metrics: metrics}
}

// State returns the current state.
func (r *Reporter) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Undertake records the result of the named check and reports whether the run
// should continue.
func (r *Reporter) Undertake(ctx context.Context, name string, result health.Result) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Running {
		return false
	}

	if !result.Passed() {
		r.deferLocked(ctx, name, result.ReasonFor(name), result.Error, result.Fatal)
		return false
	}

	if name == health.ConfirmName {
		r.proceedLocked(ctx)
		return false
	}
	return true
}

// Abort defers the run without a failing check, for errors that prevent any
// check from running.
func (r *Reporter) Abort(ctx context.Context, reason string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Running {
		return
	}
	r.deferLocked(ctx, "", reason, err, true)
}

// Finish ends the run and returns its verdict. A run that never reached the
// confirm check is deferred.
func (r *Reporter) Finish(ctx context.Context) Verdict {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == Running {
		r.deferLocked(ctx, "", "run incomplete", nil, true)
	}
	return r.verdict
}

// Verdict returns the verdict and whether one has been reached.
func (r *Reporter) Verdict() (Verdict, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.verdict, r.state != Running
}

// Emit writes the verdict line to w. It fails with ErrUndecided while running
// and with ErrAlreadyEmitted on a second call.
func (r *Reporter) Emit(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == Running {
		return ErrUndecided
	}
	if r.emitted {
		return ErrAlreadyEmitted
	}
	r.emitted = true

	if _, err := io.WriteString(w, r.verdict.Line()); err != nil {
		return fmt.Errorf("gate: write verdict: %w", err)
	}
	return nil
}

func (r *Reporter) proceedLocked(ctx context.Context) {
	r.state = Proceeding
	r.verdict = ProceedVerdict()
	r.metrics.RecordVerdict(ctx, Proceed.String(), "")
	r.logger.Info(ctx, "delivery proceeding", observe.Field{Key: "verdict", Value: Proceed.String()})
}

func (r *Reporter) deferLocked(ctx context.Context, check, reason string, err error, critical bool) {
	r.state = Deferred
	r.verdict = Verdict{Kind: Defer, Reason: reason, Check: check}
	r.metrics.RecordVerdict(ctx, Defer.String(), check)

	fields := []observe.Field{
		{Key: "verdict", Value: Defer.String()},
		{Key: "reason", Value: reason},
	}
	if check != "" {
		fields = append(fields, observe.Field{Key: "check", Value: check})
	}
	if err != nil {
		fields = append(fields, observe.Field{Key: "error", Value: err.Error()})
	}
	if critical {
		r.logger.Error(ctx, "delivery deferred", fields...)
		return
	}
	r.logger.Warn(ctx, "delivery deferred", fields...)
}
