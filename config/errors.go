package config

import "errors"

var (
	// ErrUnreadable indicates the configuration file could not be read.
	ErrUnreadable = errors.New("config: file unreadable")

	// ErrMalformed indicates the document is not valid YAML of the expected shape.
	ErrMalformed = errors.New("config: malformed document")

	// ErrNoChecks indicates the top-level checks mapping is missing or null.
	ErrNoChecks = errors.New("config: checks mapping missing")

	// ErrCheckNotConfigured indicates Decode was called for an absent check.
	ErrCheckNotConfigured = errors.New("config: check not configured")

	// ErrInvalidLogLevel indicates an unknown logging level.
	ErrInvalidLogLevel = errors.New("config: invalid log level")

	// ErrInvalidLogFormat indicates an unknown logging format.
	ErrInvalidLogFormat = errors.New("config: invalid log format")

	// ErrMissingEnv indicates ${VAR} references to unset environment variables.
	ErrMissingEnv = errors.New("config: missing environment variables")
)
