package resilience

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sys/unix"
)

// IsolatorConfig configures the process-isolated executor.
type IsolatorConfig struct {
	// Timeout is the wall-clock deadline for one child.
	// Default: 5 seconds
	Timeout time.Duration

	// KillGrace is how long the parent waits to reap a child after killing it.
	// A child stuck in uninterruptible I/O is abandoned once it expires.
	// Default: 250 milliseconds
	KillGrace time.Duration
}

// Outcome describes one isolated run.
type Outcome struct {
	Target string
	Pid    int

	// Elapsed is measured by the parent from just before the child is spawned
	// to just after it is reaped (or abandoned).
	Elapsed time.Duration
}

// armed is the single process-wide deadline. Only one isolated run may be in
// flight at a time.
var armed = semaphore.NewWeighted(1)

// Isolator runs work in a child process under a hard deadline.
//
// A goroutine cannot interrupt a system call blocked in the kernel, such as a
// chdir into an NFS mount whose server has gone away. Running the call in a
// child process leaves the parent free to kill the child and move on when the
// deadline fires.
type Isolator struct {
	config IsolatorConfig
}

// NewIsolator creates a new isolated executor.
func NewIsolator(config IsolatorConfig) *Isolator {
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	if config.KillGrace <= 0 {
		config.KillGrace = 250 * time.Millisecond
	}
	return &Isolator{config: config}
}

// Config returns the isolator configuration.
func (i *Isolator) Config() IsolatorConfig {
	return i.config
}

// Run starts cmd in its own process group and waits for it under the deadline.
//
// The child's exit status is the success signal: a zero exit returns a nil
// error, a nonzero exit returns a *ChildError matching ErrChildFailed, and a
// signal death returns a *ChildError matching ErrChildFaulted. When the
// deadline fires first the whole process group is killed and a *TimeoutError
// naming target is returned. Run never waits longer than the timeout plus
// KillGrace.
func (i *Isolator) Run(ctx context.Context, target string, cmd *exec.Cmd) (Outcome, error) {
	if !armed.TryAcquire(1) {
		return Outcome{Target: target}, ErrBusy
	}
	defer armed.Release(1)

	if err := ctx.Err(); err != nil {
		return Outcome{Target: target}, err
	}

	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
	cmd.WaitDelay = i.config.KillGrace

	var stderr bytes.Buffer
	if cmd.Stderr == nil {
		cmd.Stderr = &stderr
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Outcome{Target: target}, fmt.Errorf("resilience: spawn %s: %w", target, err)
	}
	out := Outcome{Target: target, Pid: cmd.Process.Pid}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	timer := time.NewTimer(i.config.Timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		out.Elapsed = time.Since(start)
		if err != nil {
			return out, childError(target, err, stderr.String())
		}
		return out, nil

	case <-timer.C:
		i.kill(cmd, done)
		out.Elapsed = time.Since(start)
		return out, &TimeoutError{Target: target, Timeout: i.config.Timeout, Isolated: true}

	case <-ctx.Done():
		i.kill(cmd, done)
		out.Elapsed = time.Since(start)
		return out, fmt.Errorf("resilience: %s: %w", target, ctx.Err())
	}
}

// kill sends SIGKILL to the child's process group and waits up to KillGrace
// for the reap.
func (i *Isolator) kill(cmd *exec.Cmd, done <-chan error) {
	if err := unix.Kill(-cmd.Process.Pid, unix.SIGKILL); err != nil {
		_ = cmd.Process.Kill()
	}

	grace := time.NewTimer(i.config.KillGrace)
	defer grace.Stop()

	select {
	case <-done:
	case <-grace.C:
	}
}

func childError(target string, err error, stderr string) error {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return fmt.Errorf("resilience: wait %s: %w", target, err)
	}

	ce := &ChildError{
		Target:   target,
		ExitCode: exitErr.ExitCode(),
		Stderr:   strings.TrimSpace(stderr),
		Err:      err,
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		ce.Signal = ws.Signal().String()
	}
	return ce
}
