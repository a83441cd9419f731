package health

import "errors"

var (
	// ErrCheckFailed indicates a health check failed.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrInvalidParams indicates a check's parameter block could not be decoded.
	ErrInvalidParams = errors.New("health: invalid check parameters")

	// ErrNoSamples indicates a timing aggregate was requested over no samples.
	ErrNoSamples = errors.New("health: no timing samples")

	// ErrNoMounts indicates the NFS watch list is empty.
	ErrNoMounts = errors.New("health: no mounts configured")

	// ErrMountMissing indicates a watched path is not a live mount of a tracked type.
	ErrMountMissing = errors.New("health: configured mount not mounted")

	// ErrMisconfigured indicates required check parameters are missing.
	ErrMisconfigured = errors.New("health: check misconfigured")

	// ErrToolMissing indicates an external status tool is not on the search path.
	ErrToolMissing = errors.New("health: status tool not found")

	// ErrToolFailed indicates an external status tool exited nonzero.
	ErrToolFailed = errors.New("health: status tool failed")

	// ErrOffline indicates the directory service reported itself offline.
	ErrOffline = errors.New("health: directory service offline")

	// ErrUserMissing indicates a configured account does not exist.
	ErrUserMissing = errors.New("health: user not found")
)
