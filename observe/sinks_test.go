package observe

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestConsoleHook_Fire(t *testing.T) {
	var buf bytes.Buffer
	hook := newConsoleHook(&buf)

	entry := &logrus.Entry{
		Time:    time.Date(2026, 10, 17, 9, 30, 1, 500_000_000, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "check failed",
		Data: logrus.Fields{
			"run_id": "abc",
			"reason": "user_exists",
			"check":  "user_exists",
		},
	}
	if err := hook.Fire(entry); err != nil {
		t.Fatalf("Fire() error = %v", err)
	}

	want := "09:30:01.500 WARN  check failed check=user_exists reason=user_exists\n"
	if buf.String() != want {
		t.Errorf("console line = %q, want %q", buf.String(), want)
	}
}

func TestConsoleHook_AllLevels(t *testing.T) {
	hook := newConsoleHook(&bytes.Buffer{})
	if len(hook.Levels()) != len(logrus.AllLevels) {
		t.Errorf("Levels() = %v", hook.Levels())
	}
	for _, l := range logrus.AllLevels {
		if hook.colors[l] == nil {
			t.Errorf("no colour for level %v", l)
		}
	}
}

func TestIsTerminal_NonFile(t *testing.T) {
	if isTerminal(&strings.Builder{}) {
		t.Error("a strings.Builder is not a terminal")
	}
}
