package resilience

import (
	"context"
	"errors"
	"time"
)

// TimeoutConfig configures the cooperative timeout wrapper.
type TimeoutConfig struct {
	// Timeout is the maximum duration for the operation.
	// Default: 10 seconds
	Timeout time.Duration
}

// Timeout bounds operations that can safely be abandoned in-process. The
// operation keeps running in its goroutine after the deadline, so work that
// can block inside the kernel belongs in an Isolator instead.
type Timeout struct {
	config TimeoutConfig
}

// NewTimeout creates a new timeout wrapper.
func NewTimeout(config TimeoutConfig) *Timeout {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	return &Timeout{config: config}
}

// Execute runs op with a timeout. A missed deadline returns a *TimeoutError
// naming target.
func (t *Timeout) Execute(ctx context.Context, target string, op func(context.Context) error) error {
	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	done := make(chan error, 1)

	go func() {
		done <- op(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if parent.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &TimeoutError{Target: target, Timeout: t.config.Timeout}
		}
		return ctx.Err()
	}
}

// Config returns the timeout configuration.
func (t *Timeout) Config() TimeoutConfig {
	return t.config
}

// ExecuteWithTimeout is a convenience function to run an operation with timeout.
func ExecuteWithTimeout(ctx context.Context, timeout time.Duration, target string, op func(context.Context) error) error {
	return NewTimeout(TimeoutConfig{Timeout: timeout}).Execute(ctx, target, op)
}
