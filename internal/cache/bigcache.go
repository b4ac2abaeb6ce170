package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"time"

	"github.com/allegro/bigcache/v3"

	"quill/internal/shared/logging"
)

const (
	defaultBigCacheMiB = 64
	// bigcache evicts on its own LifeWindow; per-entry TTLs are stored as an
	// 8-byte unix-nano prefix and checked on read.
	expiryHeaderLen = 8
	bigCacheWindow  = 24 * time.Hour
)

// BigCache stores entries off the Go heap in sharded byte arenas.
type BigCache struct {
	cache  *bigcache.BigCache
	maxMiB int
	logger logging.Logger
	now    func() time.Time
}

// NewBigCache creates an arena capped at sizeMiB.
func NewBigCache(sizeMiB int, logger logging.Logger) (*BigCache, error) {
	if sizeMiB <= 0 {
		sizeMiB = defaultBigCacheMiB
	}
	cfg := bigcache.DefaultConfig(bigCacheWindow)
	cfg.Shards = 64
	cfg.MaxEntriesInWindow = 10_000
	cfg.MaxEntrySize = 4096
	cfg.HardMaxCacheSize = sizeMiB
	cfg.CleanWindow = 5 * time.Minute
	cfg.Verbose = false
	cache, err := bigcache.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	return &BigCache{cache: cache, maxMiB: sizeMiB, logger: logging.OrNop(logger), now: time.Now}, nil
}

func (c *BigCache) Get(_ context.Context, key string) (string, bool, error) {
	raw, err := c.cache.Get(key)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if len(raw) < expiryHeaderLen {
		c.logger.Warn("bigcache entry %s is truncated, dropping", key)
		_ = c.cache.Delete(key)
		return "", false, nil
	}
	var expiresAt time.Time
	if nanos := int64(binary.BigEndian.Uint64(raw[:expiryHeaderLen])); nanos != 0 {
		expiresAt = time.Unix(0, nanos)
	}
	if expired(c.now(), expiresAt) {
		_ = c.cache.Delete(key)
		return "", false, nil
	}
	return string(raw[expiryHeaderLen:]), true, nil
}

func (c *BigCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	buf := make([]byte, expiryHeaderLen+len(value))
	if at := expiry(c.now(), ttl); !at.IsZero() {
		binary.BigEndian.PutUint64(buf[:expiryHeaderLen], uint64(at.UnixNano()))
	}
	copy(buf[expiryHeaderLen:], value)
	return c.cache.Set(key, buf)
}

func (c *BigCache) Close() error {
	return c.cache.Close()
}

var _ KV = (*BigCache)(nil)
