package errors

import (
	"errors"
)

// Common error types for the authorization proxy
var (
	// Flow state errors
	ErrNotFound = errors.New("not found")
	ErrExpired  = errors.New("expired")

	// Upstream identity provider errors
	ErrUpstreamNoToken = errors.New("upstream returned no access token")
)

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}
