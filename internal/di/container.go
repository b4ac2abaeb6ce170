package di

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	backoff "github.com/cenkalti/backoff/v4"

	"quill/internal/assets"
	assetsprom "quill/internal/assets/prometheus"
	"quill/internal/cache"
	"quill/internal/infra/httpclient"
	"quill/internal/observability"
	"quill/internal/published"
	"quill/internal/resources"
	"quill/internal/shared/config"
	quillerrors "quill/internal/shared/errors"
	"quill/internal/shared/logging"
)

const memoryDeliveryURL = "memory://quill"

// Container holds all application dependencies
type Container struct {
	Config       config.Config
	Store        assets.Store
	Synchronizer *resources.Synchronizer
	Reader       *published.Reader
	Cache        cache.KV
	Metrics      *observability.MetricsCollector
	Tracing      *observability.TracerProvider
}

// Cleanup gracefully shuts down all resources
func (c *Container) Cleanup(ctx context.Context) error {
	var errs []error
	if c.Cache != nil {
		errs = append(errs, c.Cache.Close())
	}
	if c.Tracing != nil {
		errs = append(errs, c.Tracing.Shutdown(ctx))
	}
	if c.Metrics != nil {
		errs = append(errs, c.Metrics.Shutdown(ctx))
	}
	logging.Sync()
	return errors.Join(errs...)
}

// BuildContainer builds the dependency injection container with the given configuration
func BuildContainer(cfg config.Config) (*Container, error) {
	logging.Configure(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Dir:    resolveDir(cfg.Log.Dir, ""),
	})
	logger := logging.NewComponentLogger("DI")
	logger.Debug("Building container with store=%s cache=%s", cfg.Store.Backend, cfg.Cache.Backend)

	metrics, err := observability.NewMetricsCollector()
	if err != nil {
		return nil, err
	}
	tracing, err := observability.NewTracerProvider(observability.TracingConfig{
		Enabled:      cfg.Tracing.Enabled,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer provider: %w", err)
	}

	base, fetcher, err := buildStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	storeObserver, err := assetsprom.NewObserver(cfg.Metrics.Namespace, metrics.Registry())
	if err != nil {
		return nil, fmt.Errorf("failed to register store metrics: %w", err)
	}
	store := assets.NewInstrumentedStore(
		assets.NewRetryingStore(
			assets.NewTimeoutStore(base, cfg.Store.Timeout),
			retryPolicy(cfg.Store.Retry),
		).WithLogger(logging.NewComponentLogger("AssetRetry")),
		storeObserver,
	)

	kv, err := cache.New(cache.Config{
		Backend: cache.Backend(cfg.Cache.Backend),
		Size:    cfg.Cache.Size,
		MaxMiB:  cfg.Cache.MaxMiB,
		Redis: cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		},
	}, logging.NewComponentLogger("Cache"))
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	readerMetrics, err := published.NewMetrics(cfg.Metrics.Namespace, metrics.Registry())
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("failed to register reader metrics: %w", err)
	}
	reader := published.NewReader(kv, fetcher, published.Config{
		TTL:     cfg.Cache.TTL,
		Timeout: cfg.Store.Timeout,
		Logger:  logging.NewComponentLogger("Reader"),
		Metrics: readerMetrics,
	})

	synchronizer := resources.NewSynchronizer(store, resources.Config{
		DefaultCoverURL:   cfg.Sync.DefaultCoverURL,
		UploadConcurrency: cfg.Sync.UploadConcurrency,
		Logger:            logging.NewComponentLogger("Synchronizer"),
		Observer:          metrics,
	})

	logger.Info("Container built successfully")

	return &Container{
		Config:       cfg,
		Store:        store,
		Synchronizer: synchronizer,
		Reader:       reader,
		Cache:        kv,
		Metrics:      metrics,
		Tracing:      tracing,
	}, nil
}

func buildStore(cfg config.StoreConfig) (assets.Store, published.Fetcher, error) {
	switch cfg.Backend {
	case config.StoreBackendMemory:
		delivery := cfg.DeliveryURL
		if delivery == "" {
			delivery = memoryDeliveryURL
		}
		mem := assets.NewInMemoryStore(delivery)
		return mem, mem, nil
	case config.StoreBackendHTTP:
		logger := logging.NewComponentLogger("AssetStore")
		client := httpclient.NewWithCircuitBreaker(cfg.Timeout, logger, "asset-store", quillerrors.CircuitBreakerConfig{
			FailureThreshold: cfg.Breaker.FailureThreshold,
			Timeout:          cfg.Breaker.Timeout,
			Logger:           logger,
		})
		store, err := assets.NewHTTPStore(assets.HTTPStoreConfig{
			BaseURL:          cfg.BaseURL,
			APIKey:           cfg.APIKey,
			DeliveryURL:      cfg.DeliveryURL,
			HTTPClient:       client,
			MaxResponseBytes: cfg.MaxResponseBytes,
			Logger:           logger,
		})
		if err != nil {
			return nil, nil, err
		}
		// Same fallback as the store: without a CDN, raw resources are served
		// from the API host.
		delivery := strings.TrimSpace(cfg.DeliveryURL)
		if delivery == "" {
			delivery = cfg.BaseURL
		}
		fetcher := published.NewHTTPFetcher(delivery, client, cfg.MaxResponseBytes, logger)
		return store, fetcher, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func retryPolicy(cfg config.RetryConfig) func() backoff.BackOff {
	if cfg.InitialInterval <= 0 && cfg.MaxElapsed <= 0 {
		return nil
	}
	return func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		if cfg.InitialInterval > 0 {
			b.InitialInterval = cfg.InitialInterval
		}
		if cfg.MaxElapsed > 0 {
			b.MaxElapsedTime = cfg.MaxElapsed
		}
		return b
	}
}

// resolveDir resolves a directory path, handling ~ expansion and environment variables
func resolveDir(configured, defaultPath string) string {
	path := strings.TrimSpace(configured)
	if path == "" {
		path = defaultPath
	}
	if path == "" {
		return path
	}

	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			switch {
			case len(path) == 1:
				path = home
			case path[1] == '/':
				path = filepath.Join(home, path[2:])
			default:
				path = filepath.Join(home, path[1:])
			}
		}
	}

	return os.ExpandEnv(path)
}
