package assets

import (
	"context"
	"time"
)

// TimeoutStore bounds every remote call with its own deadline. A call that
// runs out of time fails with the error type of its operation.
type TimeoutStore struct {
	delegate Store
	timeout  time.Duration
}

// NewTimeoutStore returns delegate unchanged when timeout is not positive.
func NewTimeoutStore(delegate Store, timeout time.Duration) Store {
	if timeout <= 0 {
		return delegate
	}
	return &TimeoutStore{delegate: delegate, timeout: timeout}
}

func (s *TimeoutStore) Upload(ctx context.Context, req UploadRequest) (Descriptor, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	out, err := s.delegate.Upload(ctx, req)
	return out, ensureKind("upload", req.Key, err)
}

func (s *TimeoutStore) ListByPrefix(ctx context.Context, prefix string) ([]Descriptor, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	out, err := s.delegate.ListByPrefix(ctx, prefix)
	return out, ensureKind("list", prefix, err)
}

func (s *TimeoutStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return ensureKind("delete", key, s.delegate.Delete(ctx, key))
}

func (s *TimeoutStore) Rename(ctx context.Context, key, newKey string) (Descriptor, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	out, err := s.delegate.Rename(ctx, key, newKey)
	if err != nil && Operation(err) == "" {
		err = &RenameError{Key: key, NewKey: newKey, Err: err}
	}
	return out, err
}

var _ Store = (*TimeoutStore)(nil)
