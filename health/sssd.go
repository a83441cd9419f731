package health

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// SSSDCheckName is the configuration key of the directory-service check.
const SSSDCheckName = "sssd_health"

// OnlineMarker is the line sssctl prints for a domain that is online.
const OnlineMarker = "Online status: Online"

// ParseOnline reports whether sssctl domain-status output declares the
// domain online. The match is a literal substring of the tool's output.
func ParseOnline(output string) bool {
	return strings.Contains(output, OnlineMarker)
}

// CommandOutput is the captured result of an external command.
type CommandOutput struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandRunner runs an external command to completion.
//
// A command that starts and exits nonzero is not an error: the exit code is
// reported in CommandOutput. Errors are reserved for commands that could not
// be started or did not finish.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (CommandOutput, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements CommandRunner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (CommandOutput, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := CommandOutput{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			out.ExitCode = exitErr.ExitCode()
			return out, nil
		}
		if ctx.Err() != nil {
			return out, fmt.Errorf("%s: %w", name, ctx.Err())
		}
		return out, err
	}
	return out, nil
}

// SSSDCheckerConfig configures the directory-service status checker.
type SSSDCheckerConfig struct {
	// Domain is the SSSD domain to query.
	Domain string

	// Tool is the status tool to run.
	// Default: sssctl
	Tool string

	// Timeout bounds the tool's run time.
	// Default: 10 seconds
	Timeout time.Duration

	// LookPath resolves Tool on the search path.
	// Default: exec.LookPath
	LookPath func(file string) (string, error)

	// Runner runs the resolved tool.
	// Default: ExecRunner
	Runner CommandRunner
}

// SSSDChecker asks sssctl whether a directory-service domain is online.
type SSSDChecker struct {
	config SSSDCheckerConfig
}

// NewSSSDChecker creates a new directory-service checker.
func NewSSSDChecker(config SSSDCheckerConfig) *SSSDChecker {
	if config.Tool == "" {
		config.Tool = "sssctl"
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.LookPath == nil {
		config.LookPath = exec.LookPath
	}
	if config.Runner == nil {
		config.Runner = ExecRunner{}
	}
	return &SSSDChecker{config: config}
}

// Name returns the name of this checker.
func (c *SSSDChecker) Name() string {
	return SSSDCheckName
}

// Config returns the checker configuration.
func (c *SSSDChecker) Config() SSSDCheckerConfig {
	return c.config
}

// Check performs the directory-service check.
func (c *SSSDChecker) Check(ctx context.Context) Result {
	start := time.Now()

	if c.config.Domain == "" {
		return Unhealthy("sssd domain not configured", fmt.Errorf("%w: domain is required", ErrMisconfigured))
	}

	path, err := c.config.LookPath(c.config.Tool)
	if err != nil {
		return Unhealthy(fmt.Sprintf("%s not found", c.config.Tool), fmt.Errorf("%w: %w", ErrToolMissing, err)).
			WithDuration(time.Since(start))
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	out, err := c.config.Runner.Run(ctx, path, "domain-status", "-o", c.config.Domain)
	if err != nil {
		return Unhealthy(fmt.Sprintf("%s did not complete", c.config.Tool), err).
			WithDuration(time.Since(start))
	}

	details := map[string]any{
		"domain": c.config.Domain,
		"tool":   path,
	}

	if out.ExitCode != 0 {
		details["exit_code"] = out.ExitCode
		details["stderr"] = strings.TrimSpace(out.Stderr)
		return Unhealthy(
			fmt.Sprintf("%s exited with status %d", c.config.Tool, out.ExitCode),
			fmt.Errorf("%w: exit status %d", ErrToolFailed, out.ExitCode),
		).WithDetails(details).WithDuration(time.Since(start))
	}

	if !ParseOnline(out.Stdout) {
		details["output"] = strings.TrimSpace(out.Stdout)
		return Unhealthy(fmt.Sprintf("sssd domain %s is offline", c.config.Domain), ErrOffline).
			WithDetails(details).
			WithDuration(time.Since(start))
	}

	return Healthy(fmt.Sprintf("sssd domain %s is online", c.config.Domain)).
		WithDetails(details).
		WithDuration(time.Since(start))
}
