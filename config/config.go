package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file read when no --config flag is given.
const DefaultPath = "/etc/mailgate/config.yaml"

// Check names recognised under the checks mapping.
const (
	CheckNFSMount   = "nfs_mount"
	CheckSSSDHealth = "sssd_health"
	CheckUserExists = "user_exists"
)

// KnownChecks lists the recognised check names in dispatch order.
var KnownChecks = []string{CheckNFSMount, CheckSSSDHealth, CheckUserExists}

// Config is the loaded configuration. It is immutable after Load.
type Config struct {
	// Path is the file the configuration was read from.
	Path string

	Logging   LoggingConfig
	Telemetry TelemetryConfig

	checks map[string]*yaml.Node
	order  []string
}

// LoggingConfig configures the structured log sink.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: info
	Level string `yaml:"level"`

	// Format is json or text for the stderr stream.
	// Default: json
	Format string `yaml:"format"`

	// Syslog enables the local syslog sink (facility mail).
	Syslog bool `yaml:"syslog"`

	// SyslogTag is the syslog identifier.
	// Default: mailgate
	SyslogTag string `yaml:"syslog_tag"`
}

// TelemetryConfig configures tracing and metrics export.
type TelemetryConfig struct {
	Tracing TracingConfig `yaml:"tracing"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// TracingConfig configures span export.
type TracingConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Exporter  string  `yaml:"exporter"`   // otlp|jaeger|stdout|none
	SamplePct float64 `yaml:"sample_pct"` // 0.0-1.0, default 1.0
}

// MetricsConfig configures metric export.
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // otlp|prometheus|stdout|none

	// Textfile, when set with the prometheus exporter, is where the final
	// metric snapshot is written for node_exporter's textfile collector.
	Textfile string `yaml:"textfile"`
}

type fileConfig struct {
	Checks    yaml.Node       `yaml:"checks"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

var validLogFormats = map[string]bool{"json": true, "text": true}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.Path = path
	return cfg, nil
}

// Parse parses a configuration document.
func Parse(data []byte) (*Config, error) {
	fc := fileConfig{
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "json",
			SyslogTag: "mailgate",
		},
		Telemetry: TelemetryConfig{
			Tracing: TracingConfig{SamplePct: 1.0},
		},
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if fc.Checks.Kind != yaml.MappingNode {
		return nil, ErrNoChecks
	}

	cfg := &Config{
		Logging:   fc.Logging,
		Telemetry: fc.Telemetry,
		checks:    make(map[string]*yaml.Node, len(fc.Checks.Content)/2),
	}
	for i := 0; i+1 < len(fc.Checks.Content); i += 2 {
		key := fc.Checks.Content[i]
		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: check names must be scalars (line %d)", ErrMalformed, key.Line)
		}
		if _, dup := cfg.checks[key.Value]; !dup {
			cfg.order = append(cfg.order, key.Value)
		}
		cfg.checks[key.Value] = fc.Checks.Content[i+1]
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}
	return nil
}

// Has reports whether the named check is present in the checks mapping.
func (c *Config) Has(name string) bool {
	if c == nil {
		return false
	}
	_, ok := c.checks[name]
	return ok
}

// CheckNames returns every key of the checks mapping in file order.
func (c *Config) CheckNames() []string {
	names := make([]string, len(c.order))
	copy(names, c.order)
	return names
}

// Unknown returns check names that mailgate does not recognise.
func (c *Config) Unknown() []string {
	known := make(map[string]bool, len(KnownChecks))
	for _, name := range KnownChecks {
		known[name] = true
	}
	var unknown []string
	for _, name := range c.order {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// Decode decodes the named check's parameter block into v after expanding
// environment references in its string values. A null block leaves v untouched.
func (c *Config) Decode(name string, v any) error {
	node, ok := c.checks[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCheckNotConfigured, name)
	}
	if isNull(node) {
		return nil
	}

	expanded, err := expandNode(node)
	if err != nil {
		return fmt.Errorf("config: %s: %w", name, err)
	}
	if err := expanded.Decode(v); err != nil {
		return fmt.Errorf("config: %s: %w", name, err)
	}
	return nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == 0 || (n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null")
}

// expandNode returns a deep copy of n with ExpandEnvStrict applied to every
// string scalar.
func expandNode(n *yaml.Node) (*yaml.Node, error) {
	if n == nil {
		return nil, nil
	}
	cp := *n
	switch n.Kind {
	case yaml.ScalarNode:
		if n.ShortTag() == "!!str" {
			v, err := ExpandEnvStrict(n.Value)
			if err != nil {
				return nil, err
			}
			cp.Value = v
		}
	case yaml.AliasNode:
		alias, err := expandNode(n.Alias)
		if err != nil {
			return nil, err
		}
		cp.Alias = alias
	default:
		cp.Content = make([]*yaml.Node, len(n.Content))
		var errs []error
		for i, child := range n.Content {
			expanded, err := expandNode(child)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			cp.Content[i] = expanded
		}
		if len(errs) > 0 {
			return nil, errors.Join(errs...)
		}
	}
	return &cp, nil
}
