package config

import (
	"fmt"
	"strings"
)

// ValidationIssue represents a single validation finding.
type ValidationIssue struct {
	ID      string
	Message string
	Hint    string
}

// ValidationReport summarizes configuration problems. It doubles as the
// error returned by Load.
type ValidationReport struct {
	Errors []ValidationIssue
}

// HasErrors reports whether the validation report contains blocking errors.
func (r ValidationReport) HasErrors() bool {
	return len(r.Errors) > 0
}

func (r ValidationReport) Error() string {
	parts := make([]string, 0, len(r.Errors))
	for _, issue := range r.Errors {
		parts = append(parts, issue.Message)
	}
	return "invalid configuration: " + strings.Join(parts, "; ")
}

func (r *ValidationReport) add(id, message, hint string) {
	r.Errors = append(r.Errors, ValidationIssue{ID: id, Message: message, Hint: hint})
}

// Validate checks cfg for values no component can run with.
func Validate(cfg Config) ValidationReport {
	var report ValidationReport

	switch cfg.Store.Backend {
	case StoreBackendMemory:
	case StoreBackendHTTP:
		if cfg.Store.BaseURL == "" {
			report.add("store-base-url", "store.base_url is required for the http backend",
				"Set store.base_url or QUILL_STORE_BASE_URL.")
		}
	default:
		report.add("store-backend", fmt.Sprintf("unknown store.backend %q", cfg.Store.Backend),
			"Use http or memory.")
	}
	if cfg.Store.Timeout < 0 {
		report.add("store-timeout", "store.timeout must not be negative", "")
	}

	switch cfg.Cache.Backend {
	case CacheBackendMemory, CacheBackendBigCache:
	case CacheBackendRedis:
		if strings.TrimSpace(cfg.Cache.Redis.Addr) == "" {
			report.add("cache-redis-addr", "cache.redis.addr is required for the redis backend", "")
		}
	default:
		report.add("cache-backend", fmt.Sprintf("unknown cache.backend %q", cfg.Cache.Backend),
			"Use memory, bigcache or redis.")
	}
	if cfg.Cache.TTL <= 0 {
		report.add("cache-ttl", "cache.ttl must be positive", "A value around 1h matches the publishing cadence.")
	}
	if cfg.Cache.MaxMiB < 0 {
		report.add("cache-max-mib", "cache.max_mib must not be negative", "Leave it unset for the 64 MiB default.")
	}

	if cfg.Sync.UploadConcurrency <= 0 {
		report.add("sync-concurrency", "sync.upload_concurrency must be positive", "")
	}
	if cfg.Tracing.SampleRate < 0 || cfg.Tracing.SampleRate > 1 {
		report.add("tracing-sample-rate", "tracing.sample_rate must be within [0, 1]", "")
	}
	return report
}
