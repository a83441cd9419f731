package gate

import (
	"strings"
)

// Kind is the decision a run ends with.
type Kind int

const (
	// Proceed lets the mail system continue processing the message.
	Proceed Kind = iota
	// Defer asks the mail system to retry later.
	Defer
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case Proceed:
		return "proceed"
	case Defer:
		return "defer"
	default:
		return "unknown"
	}
}

const (
	proceedLine = "action=DUNNO\n\n"
	deferPrefix = "action=432 Service temporarily unavailable - "
)

// ReasonConfigError is reported when the configuration cannot be used at all.
const ReasonConfigError = "configuration error"

// Verdict is the single answer returned to the mail system.
type Verdict struct {
	Kind Kind

	// Reason is the short text carried by a Defer line.
	Reason string

	// Check names the check that decided the verdict, if any.
	Check string
}

// ProceedVerdict returns a Proceed verdict.
func ProceedVerdict() Verdict {
	return Verdict{Kind: Proceed}
}

// DeferVerdict returns a Defer verdict with the given reason.
func DeferVerdict(reason string) Verdict {
	return Verdict{Kind: Defer, Reason: reason}
}

// Line renders the verdict in the policy delegation protocol, including the
// terminating blank line.
func (v Verdict) Line() string {
	if v.Kind == Proceed {
		return proceedLine
	}
	return deferPrefix + sanitizeReason(v.Reason) + "\n\n"
}

// ExitCode returns the process exit status for the verdict.
func (v Verdict) ExitCode() int {
	if v.Kind == Proceed {
		return 0
	}
	return 1
}

// String returns a compact form for logs.
func (v Verdict) String() string {
	if v.Kind == Proceed {
		return "proceed"
	}
	return "defer: " + sanitizeReason(v.Reason)
}

// sanitizeReason keeps the reason on one line so it cannot end the response
// early or inject attributes.
func sanitizeReason(reason string) string {
	reason = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return ' '
		}
		return r
	}, reason)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "unknown"
	}
	return reason
}
