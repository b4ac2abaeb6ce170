package assets

import (
	"context"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	quillerrors "quill/internal/shared/errors"
	"quill/internal/shared/logging"
)

// RetryingStore wraps a store and retries the idempotent primitives on
// transient failures. Rename is not retried: a lost response after a
// successful rename would turn the retry into a not-found failure.
type RetryingStore struct {
	delegate     Store
	buildBackoff func() backoff.BackOff
	logger       logging.Logger
}

// NewRetryingStore creates a store that retries upload, list and delete.
func NewRetryingStore(delegate Store, factory func() backoff.BackOff) *RetryingStore {
	if factory == nil {
		factory = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 100 * time.Millisecond
			b.MaxElapsedTime = 3 * time.Second
			return b
		}
	}
	return &RetryingStore{delegate: delegate, buildBackoff: factory, logger: logging.Nop()}
}

// WithLogger reports every scheduled retry to logger.
func (s *RetryingStore) WithLogger(logger logging.Logger) *RetryingStore {
	s.logger = logging.OrNop(logger)
	return s
}

func (s *RetryingStore) Upload(ctx context.Context, req UploadRequest) (Descriptor, error) {
	var out Descriptor
	err := s.retry(ctx, "upload "+req.Key, func() error {
		var err error
		out, err = s.delegate.Upload(ctx, req)
		return err
	})
	return out, err
}

func (s *RetryingStore) ListByPrefix(ctx context.Context, prefix string) ([]Descriptor, error) {
	var out []Descriptor
	err := s.retry(ctx, "list "+prefix, func() error {
		var err error
		out, err = s.delegate.ListByPrefix(ctx, prefix)
		return err
	})
	return out, err
}

func (s *RetryingStore) Delete(ctx context.Context, key string) error {
	return s.retry(ctx, "delete "+key, func() error { return s.delegate.Delete(ctx, key) })
}

func (s *RetryingStore) Rename(ctx context.Context, key, newKey string) (Descriptor, error) {
	return s.delegate.Rename(ctx, key, newKey)
}

// retry stops at the first error that is not classified as transient.
// Degraded errors come from an open circuit breaker; retrying them inside the
// same call only burns the backoff budget.
func (s *RetryingStore) retry(ctx context.Context, op string, fn func() error) error {
	b := backoff.WithContext(s.buildBackoff(), ctx)
	return backoff.RetryNotify(func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if quillerrors.GetErrorType(err) != quillerrors.ErrorTypeTransient {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, wait time.Duration) {
		s.logger.Warn("%s failed with %s error, retrying in %s: %v", op, quillerrors.GetErrorType(err), wait, err)
	})
}

var _ Store = (*RetryingStore)(nil)
