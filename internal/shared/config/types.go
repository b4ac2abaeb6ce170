package config

import "time"

// Config is the complete runtime configuration of quill.
type Config struct {
	Store   StoreConfig   `mapstructure:"store"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// StoreConfig selects and tunes the remote asset store.
type StoreConfig struct {
	Backend          string        `mapstructure:"backend"` // http, memory
	BaseURL          string        `mapstructure:"base_url"`
	APIKey           string        `mapstructure:"api_key"`
	DeliveryURL      string        `mapstructure:"delivery_url"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MaxResponseBytes int64         `mapstructure:"max_response_bytes"`
	Retry            RetryConfig   `mapstructure:"retry"`
	Breaker          BreakerConfig `mapstructure:"breaker"`
}

// RetryConfig shapes the exponential backoff of transient store failures.
type RetryConfig struct {
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxElapsed      time.Duration `mapstructure:"max_elapsed"`
}

// BreakerConfig configures the store transport circuit breaker.
type BreakerConfig struct {
	FailureThreshold int           `mapstructure:"failure_threshold"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// CacheConfig selects the published content cache.
type CacheConfig struct {
	Backend string        `mapstructure:"backend"` // memory, bigcache, redis
	TTL     time.Duration `mapstructure:"ttl"`
	Size    int           `mapstructure:"size"`    // LRU entries
	MaxMiB  int           `mapstructure:"max_mib"` // BigCache arena
	Redis   RedisConfig   `mapstructure:"redis"`
}

// RedisConfig addresses the shared cache.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SyncConfig tunes the resource synchronizer.
type SyncConfig struct {
	DefaultCoverURL   string `mapstructure:"default_cover_url"`
	UploadConcurrency int    `mapstructure:"upload_concurrency"`
}

// ServerConfig configures the HTTP adapter.
type ServerConfig struct {
	Addr       string `mapstructure:"addr"`
	EnableCORS bool   `mapstructure:"enable_cors"`
	Debug      bool   `mapstructure:"debug"`
	// MaxUploadBytes bounds a multipart synchronization request.
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
}

// LogConfig configures the zap base logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Dir    string `mapstructure:"dir"`
}

// MetricsConfig names the Prometheus namespace.
type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

// TracingConfig configures OTLP span export.
type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
}
