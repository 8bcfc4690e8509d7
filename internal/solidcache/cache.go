// Package solidcache stores encoded buffers of solid (single-color) tiles,
// keyed by a content fingerprint rather than by tile coordinate, so every
// identical ocean or empty tile shares one encoded buffer.
package solidcache

import (
	"context"
	"sync"
)

// Cache maps fingerprints to encoded tile buffers. Implementations are safe
// for concurrent use. Values stored under one fingerprint are content-equal,
// so concurrent Sets for the same key may race freely.
type Cache interface {
	// Get returns the buffer for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key.
	Set(ctx context.Context, key string, data []byte) error
}

// DefaultCapacity bounds the in-process cache when no capacity is configured.
const DefaultCapacity = 4096

// New returns an in-process cache. capacity > 0 bounds it with LRU
// eviction; capacity == 0 keeps every entry for the life of the cache.
func New(capacity int) Cache {
	if capacity > 0 {
		return NewLRU(capacity)
	}
	return NewMap()
}

// Map is an unbounded in-process cache. Entries are never evicted; growth is
// bounded only by the number of distinct solid colors a style produces.
type Map struct {
	mu sync.RWMutex
	m  map[string][]byte
}

// NewMap returns an empty unbounded cache.
func NewMap() *Map {
	return &Map{m: make(map[string][]byte)}
}

func (c *Map) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	v, ok := c.m[key]
	c.mu.RUnlock()
	return v, ok, nil
}

func (c *Map) Set(_ context.Context, key string, data []byte) error {
	c.mu.Lock()
	c.m[key] = data
	c.mu.Unlock()
	return nil
}

// Len returns the number of cached fingerprints.
func (c *Map) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
