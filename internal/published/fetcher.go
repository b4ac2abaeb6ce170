package published

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"quill/internal/assets"
	"quill/internal/infra/httpclient"
	quillerrors "quill/internal/shared/errors"
	"quill/internal/shared/logging"
)

const defaultMaxBodyBytes = 8 << 20

// Fetcher loads the raw bytes of a stored resource. Implementations return
// an error matching assets.ErrNotFound for missing keys.
type Fetcher interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// HTTPFetcher downloads raw resources from the store's delivery URL.
type HTTPFetcher struct {
	deliveryURL string
	client      *http.Client
	limit       int64
	logger      logging.Logger
}

// NewHTTPFetcher builds a fetcher rooted at deliveryURL. A nil client gets
// the shared default.
func NewHTTPFetcher(deliveryURL string, client *http.Client, maxBodyBytes int64, logger logging.Logger) *HTTPFetcher {
	if client == nil {
		client = httpclient.New(30*time.Second, logger)
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	return &HTTPFetcher{
		deliveryURL: strings.TrimRight(deliveryURL, "/"),
		client:      client,
		limit:       maxBodyBytes,
		logger:      logging.OrNop(logger),
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, key string) ([]byte, error) {
	target := assets.DeliveryURL(f.deliveryURL, assets.KindRaw, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := httpclient.ReadAllWithLimit(resp.Body, f.limit)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", assets.ErrNotFound, key)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		f.logger.Debug("fetch %s returned %d", target, resp.StatusCode)
		return nil, quillerrors.ClassifyStatus(resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

var (
	_ Fetcher = (*HTTPFetcher)(nil)
	_ Fetcher = (*assets.InMemoryStore)(nil)
)
