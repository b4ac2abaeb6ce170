// Package published serves published markdown bodies through a read-through
// cache.
//
// Writes never evict entries: a republished post is served stale until its
// entry expires.
package published

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"

	"quill/internal/assets"
	"quill/internal/cache"
	"quill/internal/resources"
	"quill/internal/shared/logging"
)

const (
	// DefaultTTL is the expiry window of cached bodies.
	DefaultTTL = time.Hour

	traceScope     = "quill.published"
	spanFetch      = "quill.published.fetch"
	attrSlug       = "quill.slug"
	attrCacheState = "quill.cache"
)

// Config tunes a Reader.
type Config struct {
	TTL time.Duration
	// Timeout bounds each underlying fetch. Zero leaves the caller's deadline.
	Timeout time.Duration
	Logger  logging.Logger
	Metrics *Metrics
}

// Reader answers FetchPublishedContent from the cache, fetching on a miss.
type Reader struct {
	cache   cache.KV
	fetcher Fetcher
	ttl     time.Duration
	timeout time.Duration
	logger  logging.Logger
	metrics *Metrics
	group   singleflight.Group
}

// NewReader wires a reader over kv and fetcher.
func NewReader(kv cache.KV, fetcher Fetcher, cfg Config) *Reader {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Reader{
		cache:   kv,
		fetcher: fetcher,
		ttl:     ttl,
		timeout: cfg.Timeout,
		logger:  logging.OrNop(cfg.Logger),
		metrics: cfg.Metrics,
	}
}

// FetchPublishedContent returns the published body of slug. Failures are
// never cached.
func (r *Reader) FetchPublishedContent(ctx context.Context, slug string) (string, error) {
	if err := resources.ValidateSlug(slug); err != nil {
		return "", err
	}
	ctx, span := otel.Tracer(traceScope).Start(ctx, spanFetch)
	span.SetAttributes(attribute.String(attrSlug, slug))
	defer span.End()
	logger := logging.FromContext(ctx, r.logger)

	cacheKey := resources.CacheKey(slug)
	if value, ok, err := r.cache.Get(ctx, cacheKey); err != nil {
		logger.Warn("cache get %s failed, treating as miss: %v", cacheKey, err)
	} else if ok {
		r.metrics.hit()
		span.SetAttributes(attribute.String(attrCacheState, "hit"))
		return value, nil
	}
	r.metrics.miss()
	span.SetAttributes(attribute.String(attrCacheState, "miss"))

	value, err, _ := r.group.Do(cacheKey, func() (any, error) {
		return r.load(ctx, slug, cacheKey)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return value.(string), nil
}

func (r *Reader) load(ctx context.Context, slug, cacheKey string) (string, error) {
	logger := logging.FromContext(ctx, r.logger)
	key := resources.ContentKey(slug)
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	data, err := r.fetcher.Fetch(ctx, key)
	r.metrics.fetched(err)
	if err != nil {
		if errors.Is(err, assets.ErrNotFound) {
			return "", &ContentNotFoundError{Slug: slug, Key: key}
		}
		logger.Error("fetch %s failed: %v", key, err)
		return "", &FetchError{Slug: slug, Key: key, Err: err}
	}

	body := string(data)
	if err := r.cache.Set(ctx, cacheKey, body, r.ttl); err != nil {
		logger.Warn("cache set %s failed: %v", cacheKey, err)
	}
	return body, nil
}
