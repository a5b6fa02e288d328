package dailycache

import (
	"context"
	"sync"
)

// InMemoryCache is a thread-safe, process-local cache implementation. It is
// the default backend and mirrors the semantics of the durable backends:
// entries for past days are simply never read again.
type InMemoryCache[V any] struct {
	mu   sync.RWMutex
	data map[Key]V
}

// NewInMemoryCache creates a new in-memory cache.
func NewInMemoryCache[V any]() *InMemoryCache[V] {
	return &InMemoryCache[V]{
		data: make(map[Key]V),
	}
}

// FetchFromCache retrieves an entry, or ErrMiss.
func (c *InMemoryCache[V]) FetchFromCache(_ context.Context, key Key) (V, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	value, ok := c.data[key]
	if !ok {
		var zero V
		return zero, ErrMiss
	}
	return value, nil
}

// WriteToCache stores an entry, overwriting unconditionally.
func (c *InMemoryCache[V]) WriteToCache(_ context.Context, key Key, value V) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

// Close is a no-op for the in-memory cache.
func (c *InMemoryCache[V]) Close() error {
	return nil
}
