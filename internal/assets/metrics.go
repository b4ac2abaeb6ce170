package assets

import (
	"context"
	"time"
)

// Observer captures telemetry for store operations.
type Observer interface {
	RecordUpload(duration time.Duration, sizeBytes int64, err error)
	RecordList(duration time.Duration, count int, err error)
	RecordDelete(duration time.Duration, err error)
	RecordRename(duration time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) RecordUpload(time.Duration, int64, error) {}

func (nopObserver) RecordList(time.Duration, int, error) {}

func (nopObserver) RecordDelete(time.Duration, error) {}

func (nopObserver) RecordRename(time.Duration, error) {}

// InstrumentedStore reports the latency and outcome of every call.
type InstrumentedStore struct {
	delegate Store
	observer Observer
	now      func() time.Time
}

// NewInstrumentedStore wraps delegate; a nil observer records nothing.
func NewInstrumentedStore(delegate Store, observer Observer) *InstrumentedStore {
	if observer == nil {
		observer = nopObserver{}
	}
	return &InstrumentedStore{delegate: delegate, observer: observer, now: time.Now}
}

func (s *InstrumentedStore) Upload(ctx context.Context, req UploadRequest) (Descriptor, error) {
	start := s.now()
	out, err := s.delegate.Upload(ctx, req)
	s.observer.RecordUpload(s.now().Sub(start), int64(len(req.Data)), err)
	return out, err
}

func (s *InstrumentedStore) ListByPrefix(ctx context.Context, prefix string) ([]Descriptor, error) {
	start := s.now()
	out, err := s.delegate.ListByPrefix(ctx, prefix)
	s.observer.RecordList(s.now().Sub(start), len(out), err)
	return out, err
}

func (s *InstrumentedStore) Delete(ctx context.Context, key string) error {
	start := s.now()
	err := s.delegate.Delete(ctx, key)
	s.observer.RecordDelete(s.now().Sub(start), err)
	return err
}

func (s *InstrumentedStore) Rename(ctx context.Context, key, newKey string) (Descriptor, error) {
	start := s.now()
	out, err := s.delegate.Rename(ctx, key, newKey)
	s.observer.RecordRename(s.now().Sub(start), err)
	return out, err
}

var _ Store = (*InstrumentedStore)(nil)
