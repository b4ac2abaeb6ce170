package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	StoreBackendHTTP   = "http"
	StoreBackendMemory = "memory"

	CacheBackendMemory   = "memory"
	CacheBackendBigCache = "bigcache"
	CacheBackendRedis    = "redis"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.backend", StoreBackendMemory)
	v.SetDefault("store.timeout", 15*time.Second)
	v.SetDefault("store.max_response_bytes", int64(4<<20))
	v.SetDefault("store.retry.initial_interval", 200*time.Millisecond)
	v.SetDefault("store.retry.max_elapsed", 5*time.Second)
	v.SetDefault("store.breaker.failure_threshold", 5)
	v.SetDefault("store.breaker.timeout", 30*time.Second)

	v.SetDefault("cache.backend", CacheBackendMemory)
	v.SetDefault("cache.ttl", time.Hour)
	v.SetDefault("cache.size", 1024)
	v.SetDefault("cache.max_mib", 64)
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.db", 0)

	v.SetDefault("sync.default_cover_url", "")
	v.SetDefault("sync.upload_concurrency", 4)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.enable_cors", false)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.max_upload_bytes", int64(64<<20))

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.dir", "")

	v.SetDefault("metrics.namespace", "quill")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.otlp_endpoint", "localhost:4318")
	v.SetDefault("tracing.sample_rate", 1.0)
}
