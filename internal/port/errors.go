package port

import "errors"

// Sentinel errors used across ports.
var (
	// ErrRateLimited marks an upstream rejection that is safe to retry
	// with backoff. Everything else fails fast.
	ErrRateLimited = errors.New("rate limited")

	ErrProjectNotFound = errors.New("project not found")
	ErrNotFound        = errors.New("not found")
	ErrAuthFailed      = errors.New("authentication failed")
)
