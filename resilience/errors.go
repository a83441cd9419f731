package resilience

import (
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is returned when an operation misses its deadline.
var ErrTimeout = errors.New("resilience: operation timed out")

// Isolation errors.
var (
	// ErrChildFailed is returned when an isolated child exits with a nonzero status.
	ErrChildFailed = errors.New("resilience: isolated child failed")

	// ErrChildFaulted is returned when an isolated child is terminated by a signal.
	ErrChildFaulted = errors.New("resilience: isolated child terminated abnormally")

	// ErrBusy is returned when a deadline is already armed. Isolated runs are
	// strictly sequential.
	ErrBusy = errors.New("resilience: deadline already armed")
)

// TimeoutError reports an operation that missed its deadline. It matches
// ErrTimeout with errors.Is.
type TimeoutError struct {
	// Target identifies what was being worked on, such as a mount point.
	Target string

	// Timeout is the deadline that expired.
	Timeout time.Duration

	// Isolated is true when the work ran in a child process that was killed.
	Isolated bool
}

func (e *TimeoutError) Error() string {
	if e.Isolated {
		return fmt.Sprintf("resilience: %s: no response within %s (child killed)", e.Target, e.Timeout)
	}
	return fmt.Sprintf("resilience: %s: no response within %s", e.Target, e.Timeout)
}

// Is reports whether target is ErrTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// ChildError reports an isolated child that finished unsuccessfully before its
// deadline. It matches ErrChildFaulted when the child died from a signal and
// ErrChildFailed otherwise.
type ChildError struct {
	Target   string
	ExitCode int    // -1 when the child was signalled
	Signal   string // empty unless the child was signalled
	Stderr   string
	Err      error
}

func (e *ChildError) Error() string {
	msg := fmt.Sprintf("resilience: %s: child exited with status %d", e.Target, e.ExitCode)
	if e.Signal != "" {
		msg = fmt.Sprintf("resilience: %s: child killed by %s", e.Target, e.Signal)
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ChildError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrChildFailed or ErrChildFaulted, matching how
// the child ended.
func (e *ChildError) Is(target error) bool {
	if e.Signal != "" {
		return target == ErrChildFaulted
	}
	return target == ErrChildFailed
}
