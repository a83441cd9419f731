package gate

import "errors"

var (
	// ErrUndecided indicates Emit was called while the reporter was still running.
	ErrUndecided = errors.New("gate: verdict not decided")

	// ErrAlreadyEmitted indicates a second Emit call in the same run.
	ErrAlreadyEmitted = errors.New("gate: verdict already emitted")

	// ErrMalformedRequest indicates a policy request line without a name=value pair.
	ErrMalformedRequest = errors.New("gate: malformed policy request")

	// ErrRequestTooLarge indicates a policy request exceeding MaxRequestAttributes.
	ErrRequestTooLarge = errors.New("gate: policy request too large")

	// ErrUnknownCheck indicates a dispatcher builder lookup for an unregistered name.
	ErrUnknownCheck = errors.New("gate: unknown check")
)
