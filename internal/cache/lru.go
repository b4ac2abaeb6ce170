package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultLRUSize = 1024

type lruEntry struct {
	value     string
	expiresAt time.Time
}

// LRU is a bounded in-process cache.
type LRU struct {
	entries *lru.Cache[string, lruEntry]
	now     func() time.Time
}

// NewLRU creates a cache holding at most size entries.
func NewLRU(size int) (*LRU, error) {
	if size <= 0 {
		size = defaultLRUSize
	}
	entries, err := lru.New[string, lruEntry](size)
	if err != nil {
		return nil, err
	}
	return &LRU{entries: entries, now: time.Now}, nil
}

// WithClock replaces the time source. Tests use it to step past a TTL.
func (c *LRU) WithClock(now func() time.Time) *LRU {
	if now != nil {
		c.now = now
	}
	return c
}

func (c *LRU) Get(_ context.Context, key string) (string, bool, error) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return "", false, nil
	}
	if expired(c.now(), entry.expiresAt) {
		c.entries.Remove(key)
		return "", false, nil
	}
	return entry.value, true, nil
}

func (c *LRU) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.entries.Add(key, lruEntry{value: value, expiresAt: expiry(c.now(), ttl)})
	return nil
}

func (c *LRU) Close() error {
	c.entries.Purge()
	return nil
}

var _ KV = (*LRU)(nil)
