package assets

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"

	quillerrors "quill/internal/shared/errors"
)

type flakyStore struct {
	*InMemoryStore
	failures int
	err      error
	calls    int
}

func (f *flakyStore) Upload(ctx context.Context, req UploadRequest) (Descriptor, error) {
	f.calls++
	if f.calls <= f.failures {
		return Descriptor{}, &UploadError{Key: req.Key, Err: f.err}
	}
	return f.InMemoryStore.Upload(ctx, req)
}

func (f *flakyStore) Rename(ctx context.Context, key, newKey string) (Descriptor, error) {
	f.calls++
	return Descriptor{}, &RenameError{Key: key, NewKey: newKey, Err: f.err}
}

func fastBackoff() backoff.BackOff {
	return backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), 5)
}

func TestRetryingStoreRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	flaky := &flakyStore{
		InMemoryStore: NewInMemoryStore("https://cdn.test"),
		failures:      2,
		err:           quillerrors.ClassifyStatus(http.StatusServiceUnavailable, "busy"),
	}
	store := NewRetryingStore(flaky, fastBackoff)

	desc, err := store.Upload(context.Background(), UploadRequest{Key: "k", Data: []byte("x")})
	require.NoError(t, err)
	require.Equal(t, "k", desc.Key)
	require.Equal(t, 3, flaky.calls)
}

func TestRetryingStoreStopsOnPermanentFailure(t *testing.T) {
	t.Parallel()

	flaky := &flakyStore{
		InMemoryStore: NewInMemoryStore(""),
		failures:      10,
		err:           quillerrors.ClassifyStatus(http.StatusBadRequest, "bad"),
	}
	store := NewRetryingStore(flaky, fastBackoff)

	_, err := store.Upload(context.Background(), UploadRequest{Key: "k", Data: []byte("x")})
	require.Error(t, err)
	require.Equal(t, 1, flaky.calls)
	require.Equal(t, "upload", Operation(err))
	require.Equal(t, http.StatusBadRequest, quillerrors.StatusCode(err))
}

func TestRetryingStoreDoesNotRetryDegradedFailure(t *testing.T) {
	t.Parallel()

	flaky := &flakyStore{
		InMemoryStore: NewInMemoryStore(""),
		failures:      10,
		err:           quillerrors.NewDegradedError(quillerrors.ClassifyStatus(http.StatusBadGateway, "gateway"), "circuit open"),
	}
	store := NewRetryingStore(flaky, fastBackoff)

	_, err := store.Upload(context.Background(), UploadRequest{Key: "k", Data: []byte("x")})
	require.Error(t, err)
	require.Equal(t, 1, flaky.calls)
	require.Equal(t, quillerrors.ErrorTypeDegraded, quillerrors.GetErrorType(err))
}

func TestRetryingStoreLogsEachRetry(t *testing.T) {
	t.Parallel()

	flaky := &flakyStore{
		InMemoryStore: NewInMemoryStore(""),
		failures:      2,
		err:           quillerrors.ClassifyStatus(http.StatusServiceUnavailable, "busy"),
	}
	logger := &recordingLogger{}
	store := NewRetryingStore(flaky, fastBackoff).WithLogger(logger)

	_, err := store.Upload(context.Background(), UploadRequest{Key: "k", Data: []byte("x")})
	require.NoError(t, err)
	require.Len(t, logger.warnings, 2)
	require.Contains(t, logger.warnings[0], "upload k failed with transient error")
}

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Info(string, ...any)  {}
func (l *recordingLogger) Warn(format string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}
func (l *recordingLogger) Error(string, ...any) {}

func TestRetryingStoreDoesNotRetryRename(t *testing.T) {
	t.Parallel()

	flaky := &flakyStore{
		InMemoryStore: NewInMemoryStore(""),
		err:           quillerrors.ClassifyStatus(http.StatusBadGateway, "gateway"),
	}
	store := NewRetryingStore(flaky, fastBackoff)

	_, err := store.Rename(context.Background(), "a", "b")
	require.Error(t, err)
	require.Equal(t, 1, flaky.calls)
}

func TestRetryingStoreGivesUpWhenContextEnds(t *testing.T) {
	t.Parallel()

	flaky := &flakyStore{
		InMemoryStore: NewInMemoryStore(""),
		failures:      100,
		err:           context.DeadlineExceeded,
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewRetryingStore(flaky, fastBackoff)

	_, err := store.Upload(ctx, UploadRequest{Key: "k", Data: []byte("x")})
	require.Error(t, err)
	require.LessOrEqual(t, flaky.calls, 1)
}
