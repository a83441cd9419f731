package observe

import (
	"fmt"
	"io"
	"log/syslog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	lsyslog "github.com/sirupsen/logrus/hooks/syslog"
)

// newSyslogHook connects to the local syslog daemon under the mail facility.
func newSyslogHook(tag string) (logrus.Hook, error) {
	if tag == "" {
		tag = "mailgate"
	}
	return lsyslog.NewSyslogHook("", "", syslog.LOG_MAIL|syslog.LOG_INFO, tag)
}

// consoleHook renders entries as short human-readable lines for --debug.
type consoleHook struct {
	mu     sync.Mutex
	w      io.Writer
	colors map[logrus.Level]*color.Color
}

// newConsoleHook creates a console hook writing to w. Colour is used only
// when w is a terminal.
func newConsoleHook(w io.Writer) *consoleHook {
	colors := map[logrus.Level]*color.Color{
		logrus.DebugLevel: color.New(color.FgHiBlack),
		logrus.InfoLevel:  color.New(color.FgGreen),
		logrus.WarnLevel:  color.New(color.FgYellow),
		logrus.ErrorLevel: color.New(color.FgRed, color.Bold),
		logrus.FatalLevel: color.New(color.FgRed, color.Bold),
		logrus.PanicLevel: color.New(color.FgRed, color.Bold),
		logrus.TraceLevel: color.New(color.FgHiBlack),
	}
	tty := isTerminal(w)
	for _, c := range colors {
		if tty {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return &consoleHook{w: w, colors: colors}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (h *consoleHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *consoleHook) Fire(e *logrus.Entry) error {
	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		if k == "run_id" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s %s", e.Time.Format("15:04:05.000"), strings.ToUpper(levelName(e.Level)), e.Message)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Data[k])
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.colors[e.Level].Fprintln(h.w, b.String())
	return err
}

func levelName(l logrus.Level) string {
	if l == logrus.WarnLevel {
		return "warn"
	}
	return l.String()
}
