// Package dailycache provides the keyed day-cache shared by all the daily
// content services. Entries are keyed by calendar day (plus an optional
// client identifier for per-device kinds) rather than by TTL: a new day
// simply produces a new key and old entries are abandoned.
package dailycache

import (
	"context"
	"errors"
)

// ErrMiss is returned by FetchFromCache when no entry exists for the key.
var ErrMiss = errors.New("dailycache: entry not found")

// Cache is the storage contract for daily content entries. Implementations
// must be safe for concurrent use. Concurrent writes to the same key are
// last-write-wins; duplicate recomputation is wasteful but not incorrect.
type Cache[V any] interface {
	// FetchFromCache retrieves the entry for key, or ErrMiss.
	FetchFromCache(ctx context.Context, key Key) (V, error)
	// WriteToCache stores value under key, overwriting unconditionally.
	WriteToCache(ctx context.Context, key Key, value V) error
	// Close releases any underlying client resources.
	Close() error
}
