package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/moby/sys/reexec"
)

func TestMain(m *testing.M) {
	if reexec.Init() {
		return
	}
	os.Exit(m.Run())
}

const (
	proceedLine     = "action=DUNNO\n\n"
	configErrorLine = "action=432 Service temporarily unavailable - configuration error\n\n"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = execute(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestExecute_NoChecksProceeds(t *testing.T) {
	path := writeFile(t, "config.yaml", "checks: {}\n")

	code, stdout, stderr := runCLI(t, "", "--config", path)
	if code != 0 {
		t.Errorf("exit = %d, want 0", code)
	}
	if stdout != proceedLine {
		t.Errorf("stdout = %q, want %q", stdout, proceedLine)
	}
	if !strings.Contains(stderr, `"msg":"delivery proceeding"`) || !strings.Contains(stderr, `"run_id"`) {
		t.Errorf("stderr = %s", stderr)
	}
}

func TestExecute_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"checks missing", "logging: {level: info}\n"},
		{"checks null", "checks:\n"},
		{"checks not a mapping", "checks: [nfs_mount]\n"},
		{"malformed yaml", "checks: {nfs_mount: [\n"},
		{"invalid log level", "checks: {}\nlogging: {level: loud}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "config.yaml", tt.body)

			code, stdout, stderr := runCLI(t, "", "--config", path)
			if code != 1 {
				t.Errorf("exit = %d, want 1", code)
			}
			if stdout != configErrorLine {
				t.Errorf("stdout = %q", stdout)
			}
			if !strings.Contains(stderr, `"msg":"delivery deferred"`) {
				t.Errorf("stderr = %s", stderr)
			}
			if strings.Contains(stderr, "check passed") || strings.Contains(stderr, "check failed") {
				t.Errorf("no check may run on a configuration error: %s", stderr)
			}
		})
	}
}

func TestExecute_MissingConfigFile(t *testing.T) {
	code, stdout, _ := runCLI(t, "", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	if code != 1 || stdout != configErrorLine {
		t.Errorf("exit = %d, stdout = %q", code, stdout)
	}
}

func TestExecute_MissingUserDefers(t *testing.T) {
	path := writeFile(t, "config.yaml", "checks:\n  user_exists:\n    users: [mailgate-no-such-user-7f3a]\n")

	code, stdout, stderr := runCLI(t, "", "--config", path)
	if code != 1 {
		t.Errorf("exit = %d, want 1", code)
	}
	if stdout != "action=432 Service temporarily unavailable - user_exists\n\n" {
		t.Errorf("stdout = %q", stdout)
	}
	if !strings.Contains(stderr, `"msg":"check failed"`) {
		t.Errorf("stderr = %s", stderr)
	}
}

func mountConfig(t *testing.T, mountExpr string, dir string) string {
	t.Helper()
	table := writeFile(t, "mounts", fmt.Sprintf("/dev/sda1 / ext4 rw 0 0\nnas:/export %s nfs4 rw,hard 0 0\n", dir))
	return writeFile(t, "config.yaml", fmt.Sprintf(
		"checks:\n  nfs_mount:\n    mounts: [%q]\n    timeout: 5s\n    mount_table: %q\n", mountExpr, table))
}

func TestExecute_EnvFileExpandsConfig(t *testing.T) {
	dir := t.TempDir()
	path := mountConfig(t, "${MAILGATE_TEST_MOUNT}", dir)
	envFile := writeFile(t, "mailgate.env", fmt.Sprintf("MAILGATE_TEST_MOUNT=%s\n", dir))
	t.Cleanup(func() { os.Unsetenv("MAILGATE_TEST_MOUNT") })

	code, stdout, stderr := runCLI(t, "", "--config", path, "--env-file", envFile)
	if code != 0 || stdout != proceedLine {
		t.Errorf("exit = %d, stdout = %q, stderr = %s", code, stdout, stderr)
	}
}

func TestExecute_UnsetVariableFailsCheck(t *testing.T) {
	os.Unsetenv("MAILGATE_TEST_MOUNT")
	path := mountConfig(t, "${MAILGATE_TEST_MOUNT}", t.TempDir())

	code, stdout, _ := runCLI(t, "", "--config", path, "--env-file", filepath.Join(t.TempDir(), "absent.env"))
	if code != 1 || stdout != "action=432 Service temporarily unavailable - nfs_mount\n\n" {
		t.Errorf("exit = %d, stdout = %q", code, stdout)
	}
}

func TestExecute_Debug(t *testing.T) {
	dir := t.TempDir()
	path := mountConfig(t, dir, dir)

	code, stdout, _ := runCLI(t, "", "--config", path, "--debug")
	if code != 0 {
		t.Errorf("exit = %d, want 0", code)
	}
	if !strings.HasSuffix(stdout, proceedLine) {
		t.Errorf("stdout must end with the verdict: %q", stdout)
	}
	for _, want := range []string{"DEBUG mount probed", "DEBUG check passed", "check=nfs_mount"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("debug trace missing %q:\n%s", want, stdout)
		}
	}
}

func TestExecute_StdinRequest(t *testing.T) {
	path := writeFile(t, "config.yaml", "checks: {}\n")
	request := "request=smtpd_access_policy\nqueue_id=8045F2AB23\nsender=alice@example.com\n\n"

	code, stdout, stderr := runCLI(t, request, "--config", path, "--stdin")
	if code != 0 || stdout != proceedLine {
		t.Errorf("exit = %d, stdout = %q", code, stdout)
	}
	if !strings.Contains(stderr, `"queue_id":"8045F2AB23"`) {
		t.Errorf("request attributes not logged: %s", stderr)
	}
}

func TestExecute_MalformedStdinKeepsVerdict(t *testing.T) {
	path := writeFile(t, "config.yaml", "checks: {}\n")

	code, stdout, stderr := runCLI(t, "garbage\n\n", "--config", path, "--stdin")
	if code != 0 || stdout != proceedLine {
		t.Errorf("exit = %d, stdout = %q", code, stdout)
	}
	if !strings.Contains(stderr, "policy request unreadable") {
		t.Errorf("stderr = %s", stderr)
	}
}

func TestExecute_TelemetryMisconfigured(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")
	path := writeFile(t, "config.yaml", "checks: {}\ntelemetry:\n  tracing: {enabled: true, exporter: otlp}\n")

	code, stdout, stderr := runCLI(t, "", "--config", path)
	if code != 1 || stdout != configErrorLine {
		t.Errorf("exit = %d, stdout = %q", code, stdout)
	}
	if !strings.Contains(stderr, "telemetry unavailable") {
		t.Errorf("stderr = %s", stderr)
	}
}

func TestExecute_PrometheusTextfile(t *testing.T) {
	textfile := filepath.Join(t.TempDir(), "mailgate.prom")
	path := writeFile(t, "config.yaml", fmt.Sprintf(
		"checks: {}\ntelemetry:\n  metrics: {enabled: true, exporter: prometheus, textfile: %q}\n", textfile))

	code, stdout, _ := runCLI(t, "", "--config", path)
	if code != 0 || stdout != proceedLine {
		t.Fatalf("exit = %d, stdout = %q", code, stdout)
	}

	data, err := os.ReadFile(textfile)
	if err != nil {
		t.Fatalf("textfile not written: %v", err)
	}
	if !strings.Contains(string(data), "mailgate_verdict_total") {
		t.Errorf("textfile = %s", data)
	}
}

func TestExecute_Version(t *testing.T) {
	code, stdout, _ := runCLI(t, "", "version")
	if code != 0 || stdout != "mailgate dev\n" {
		t.Errorf("exit = %d, stdout = %q", code, stdout)
	}
}

func TestExecute_BadFlagDefers(t *testing.T) {
	code, stdout, stderr := runCLI(t, "", "--no-such-flag")
	if code != 1 || stdout != configErrorLine {
		t.Errorf("exit = %d, stdout = %q", code, stdout)
	}
	if !strings.Contains(stderr, "unknown flag") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestObserveConfig(t *testing.T) {
	oc := observeConfig(nil, true)
	if oc.ServiceName != "mailgate" || oc.Logging.Level != "info" || !oc.Logging.Debug || !oc.Logging.Enabled {
		t.Errorf("defaults = %+v", oc)
	}
	if oc.Tracing.Enabled || oc.Metrics.Enabled {
		t.Error("telemetry must be off without a configuration")
	}
}
