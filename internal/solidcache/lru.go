package solidcache

import (
	"context"
	"time"

	"github.com/karlseguin/ccache/v3"
)

// noExpiry is the TTL given to LRU entries; they leave only by eviction.
const noExpiry = 100 * 365 * 24 * time.Hour

// LRU is a bounded in-process cache backed by ccache.
type LRU struct {
	c *ccache.Cache[[]byte]
}

// NewLRU returns a cache holding at most capacity fingerprints.
func NewLRU(capacity int) *LRU {
	prune := uint32(capacity / 10)
	if prune < 1 {
		prune = 1
	}
	return &LRU{
		c: ccache.New(ccache.Configure[[]byte]().MaxSize(int64(capacity)).ItemsToPrune(prune)),
	}
}

func (l *LRU) Get(_ context.Context, key string) ([]byte, bool, error) {
	item := l.c.Get(key)
	if item == nil {
		return nil, false, nil
	}
	return item.Value(), true, nil
}

func (l *LRU) Set(_ context.Context, key string, data []byte) error {
	l.c.Set(key, data, noExpiry)
	return nil
}

// Len returns the number of cached fingerprints.
func (l *LRU) Len() int { return l.c.ItemCount() }

// Close stops the cache's background worker.
func (l *LRU) Close() { l.c.Stop() }
