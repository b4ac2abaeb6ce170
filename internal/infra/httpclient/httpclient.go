package httpclient

import (
	"net/http"
	"time"

	"quill/internal/shared/logging"
)

// New returns an http.Client configured for outbound requests.
//
// The client-level timeout is a backstop only; per-call deadlines come from
// the request context.
func New(timeout time.Duration, logger logging.Logger) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: Transport(logger),
	}
}

// Transport returns an http.Transport clone that honours proxy environment
// variables.
func Transport(logger logging.Logger) *http.Transport {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		logging.OrNop(logger).Warn("default transport is %T, using a bare transport", http.DefaultTransport)
		return &http.Transport{Proxy: http.ProxyFromEnvironment}
	}
	transport := base.Clone()
	transport.Proxy = http.ProxyFromEnvironment
	return transport
}
