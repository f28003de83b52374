package models

import "errors"

// Domain-level errors. Every failure in the core resolves to one of
// these, wrapped with call-site detail via fmt.Errorf and %w.

var (
	// ErrInvalidParameter signals malformed compression or endpoint
	// parameters. Reported synchronously to the caller, never clamped.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrTierNotRegistered signals a registry lookup miss. The router
	// recovers by walking down to a less capable tier before failing.
	ErrTierNotRegistered = errors.New("tier not registered")

	// ErrEndpointUnavailable signals a transport failure or timeout.
	// The router recovers once via an alternate endpoint, then falls
	// back to a tagged mock response.
	ErrEndpointUnavailable = errors.New("endpoint unavailable")
)
