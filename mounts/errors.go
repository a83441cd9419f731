package mounts

import "errors"

// ErrEnumeration indicates the mount table could not be opened or read.
// Callers treat it as fatal for the whole invocation.
var ErrEnumeration = errors.New("mounts: mount table unavailable")
