package gate

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/jonwraymond/mailgate/observe"
)

// MaxRequestAttributes bounds the attributes read from one policy request.
const MaxRequestAttributes = 256

// logAttributes are the request attributes attached to log entries.
var logAttributes = []string{"queue_id", "sender", "recipient", "client_address", "protocol_state"}

// Request is one policy delegation request: the name=value attributes sent by
// the mail system, ended by an empty line.
type Request map[string]string

// Get returns the named attribute, or "" when absent.
func (r Request) Get(name string) string {
	return r[name]
}

// Fields returns the attributes worth logging, in a fixed order.
func (r Request) Fields() []observe.Field {
	var fields []observe.Field
	for _, name := range logAttributes {
		if v, ok := r[name]; ok && v != "" {
			fields = append(fields, observe.Field{Key: name, Value: v})
		}
	}
	return fields
}

// ReadRequest reads one policy request from rd. It stops at the first empty
// line or at end of input. Values may contain '='; a repeated name keeps its
// last value.
func ReadRequest(rd io.Reader) (Request, error) {
	req := make(Request)
	scanner := bufio.NewScanner(rd)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			return req, nil
		}

		name, value, ok := strings.Cut(line, "=")
		if !ok || name == "" {
			return req, fmt.Errorf("%w: %q", ErrMalformedRequest, line)
		}
		if _, seen := req[name]; !seen && len(req) >= MaxRequestAttributes {
			return req, fmt.Errorf("%w: more than %d attributes", ErrRequestTooLarge, MaxRequestAttributes)
		}
		req[name] = value
	}
	if err := scanner.Err(); err != nil {
		return req, fmt.Errorf("gate: read policy request: %w", err)
	}
	return req, nil
}
