package health

import (
	"context"
	"errors"
	"os/exec"
	"reflect"
	"testing"
	"time"
)

type fakeRunner struct {
	out  CommandOutput
	err  error
	name string
	args []string
	ctx  context.Context
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (CommandOutput, error) {
	f.ctx, f.name, f.args = ctx, name, args
	return f.out, f.err
}

func found(file string) (string, error) {
	return "/usr/sbin/" + file, nil
}

func TestParseOnline(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   bool
	}{
		{"online", "Online status: Online\n\nActive servers:\nAD Global Catalog: dc1.example.com\n", true},
		{"offline", "Online status: Offline\n", false},
		{"embedded", "header\nOnline status: Online\n", true},
		{"lowercase", "online status: online\n", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseOnline(tt.output); got != tt.want {
				t.Errorf("ParseOnline(%q) = %v, want %v", tt.output, got, tt.want)
			}
		})
	}
}

func TestNewSSSDChecker_Defaults(t *testing.T) {
	c := NewSSSDChecker(SSSDCheckerConfig{Domain: "example.com"})
	if c.Name() != SSSDCheckName {
		t.Errorf("Name() = %q", c.Name())
	}
	cfg := c.Config()
	if cfg.Tool != "sssctl" {
		t.Errorf("Tool = %q, want sssctl", cfg.Tool)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Timeout)
	}
	if cfg.LookPath == nil || cfg.Runner == nil {
		t.Error("LookPath and Runner should default")
	}
}

func TestSSSDChecker_Check(t *testing.T) {
	tests := []struct {
		name    string
		out     CommandOutput
		wantOK  bool
		wantErr error
	}{
		{"online", CommandOutput{Stdout: "Online status: Online\n"}, true, nil},
		{"offline", CommandOutput{Stdout: "Online status: Offline\n"}, false, ErrOffline},
		{"nonzero exit wins over output", CommandOutput{Stdout: "Online status: Online\n", ExitCode: 1}, false, ErrToolFailed},
		{"unknown domain", CommandOutput{Stderr: "Unknown domain", ExitCode: 1}, false, ErrToolFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{out: tt.out}
			c := NewSSSDChecker(SSSDCheckerConfig{Domain: "example.com", LookPath: found, Runner: runner})

			result := c.Check(context.Background())
			if result.Passed() != tt.wantOK {
				t.Errorf("Passed() = %v, want %v (%+v)", result.Passed(), tt.wantOK, result)
			}
			if tt.wantErr != nil && !errors.Is(result.Error, tt.wantErr) {
				t.Errorf("Error = %v, want %v", result.Error, tt.wantErr)
			}
			if result.Fatal {
				t.Error("tool failures must not be fatal")
			}
		})
	}
}

func TestSSSDChecker_Arguments(t *testing.T) {
	runner := &fakeRunner{out: CommandOutput{Stdout: OnlineMarker}}
	c := NewSSSDChecker(SSSDCheckerConfig{Domain: "corp.example.com", Timeout: 3 * time.Second, LookPath: found, Runner: runner})

	c.Check(context.Background())

	if runner.name != "/usr/sbin/sssctl" {
		t.Errorf("ran %q, want resolved sssctl path", runner.name)
	}
	if want := []string{"domain-status", "-o", "corp.example.com"}; !reflect.DeepEqual(runner.args, want) {
		t.Errorf("args = %v, want %v", runner.args, want)
	}
	deadline, ok := runner.ctx.Deadline()
	if !ok || time.Until(deadline) > 3*time.Second {
		t.Errorf("runner context deadline = %v, %v; want within 3s", deadline, ok)
	}
}

func TestSSSDChecker_MissingDomain(t *testing.T) {
	runner := &fakeRunner{}
	c := NewSSSDChecker(SSSDCheckerConfig{LookPath: found, Runner: runner})

	result := c.Check(context.Background())
	if result.Passed() || !errors.Is(result.Error, ErrMisconfigured) {
		t.Errorf("Check() = %+v, want ErrMisconfigured", result)
	}
	if runner.name != "" {
		t.Error("tool ran without a domain")
	}
}

func TestSSSDChecker_ToolMissing(t *testing.T) {
	c := NewSSSDChecker(SSSDCheckerConfig{
		Domain:   "example.com",
		LookPath: func(string) (string, error) { return "", exec.ErrNotFound },
		Runner:   &fakeRunner{},
	})

	result := c.Check(context.Background())
	if result.Passed() || !errors.Is(result.Error, ErrToolMissing) {
		t.Errorf("Check() = %+v, want ErrToolMissing", result)
	}
	if !errors.Is(result.Error, exec.ErrNotFound) {
		t.Errorf("Error = %v, want wrapped exec.ErrNotFound", result.Error)
	}
}

func TestSSSDChecker_RunnerError(t *testing.T) {
	c := NewSSSDChecker(SSSDCheckerConfig{
		Domain:   "example.com",
		LookPath: found,
		Runner:   &fakeRunner{err: context.DeadlineExceeded},
	})

	result := c.Check(context.Background())
	if result.Passed() || !errors.Is(result.Error, context.DeadlineExceeded) {
		t.Errorf("Check() = %+v", result)
	}
}

func TestExecRunner(t *testing.T) {
	out, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "echo 'Online status: Online'; echo warn >&2; exit 0")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !ParseOnline(out.Stdout) || out.Stderr != "warn\n" || out.ExitCode != 0 {
		t.Errorf("Run() = %+v", out)
	}

	out, err = ExecRunner{}.Run(context.Background(), "sh", "-c", "exit 4")
	if err != nil {
		t.Fatalf("nonzero exit should not be an error: %v", err)
	}
	if out.ExitCode != 4 {
		t.Errorf("ExitCode = %d, want 4", out.ExitCode)
	}
}

func TestExecRunner_Timeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := ExecRunner{}.Run(ctx, "sleep", "30")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() error = %v, want context.DeadlineExceeded", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Run() did not honour the deadline")
	}
}

func TestExecRunner_NotFound(t *testing.T) {
	if _, err := (ExecRunner{}).Run(context.Background(), "/nonexistent/sssctl"); err == nil {
		t.Error("Run() of a missing binary should fail")
	}
}
