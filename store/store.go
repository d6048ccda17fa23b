// Package store defines the expiring key-value store that holds in-flight authorization state.
//
// Protocol code only ever sees this interface, so the in-process backend can be swapped for a
// shared one without touching the authorization logic.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned for keys that are absent or whose TTL has elapsed.
// Callers can not tell the two apart.
var ErrNotFound = errors.New("store: key not found")

// Store is a concurrency safe key-value store with per-key expiry.
type Store interface {
	// Put writes value under key. A ttl of zero means the entry never expires.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns the value without consuming it.
	Get(ctx context.Context, key string) ([]byte, error)

	// Take atomically returns and removes the value. Of several concurrent
	// callers for the same key at most one receives the value.
	Take(ctx context.Context, key string) ([]byte, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases background resources.
	Close() error
}
