// Package cache provides the key-value cache used for published content.
//
// Three backends share the KV contract: an in-process LRU, a sharded
// BigCache arena for large bodies, and Redis for caches shared between
// processes. Expired entries read as misses on every backend.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quill/internal/shared/logging"
)

// KV is a string cache with per-entry TTL.
type KV interface {
	// Get returns the cached value and whether it was present and fresh.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key for ttl. A non-positive ttl never expires.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Close() error
}

// Backend names a KV implementation.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendBigCache Backend = "bigcache"
	BackendRedis    Backend = "redis"
)

// Config selects and sizes a backend.
type Config struct {
	Backend Backend
	// Size bounds the LRU entry count.
	Size int
	// MaxMiB caps the BigCache arena.
	MaxMiB int
	Redis  RedisConfig
}

// New builds the configured backend.
func New(cfg Config, logger logging.Logger) (KV, error) {
	switch Backend(strings.ToLower(string(cfg.Backend))) {
	case "", BackendMemory:
		return NewLRU(cfg.Size)
	case BackendBigCache:
		return NewBigCache(cfg.MaxMiB, logger)
	case BackendRedis:
		return NewRedis(cfg.Redis, logger)
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", cfg.Backend)
	}
}

func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

func expired(now, expiresAt time.Time) bool {
	return !expiresAt.IsZero() && !now.Before(expiresAt)
}
