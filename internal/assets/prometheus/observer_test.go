package prometheus

import (
	"errors"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserverCountsErrorsAndBytes(t *testing.T) {
	reg := promclient.NewRegistry()
	observer, err := NewObserver("test_store", reg)
	require.NoError(t, err)

	observer.RecordUpload(10*time.Millisecond, 128, nil)
	observer.RecordUpload(5*time.Millisecond, 64, errors.New("boom"))
	observer.RecordDelete(time.Millisecond, errors.New("gone"))
	observer.RecordList(time.Millisecond, 3, nil)

	require.Equal(t, float64(128), testutil.ToFloat64(observer.uploadedBytes))
	require.Equal(t, float64(1), testutil.ToFloat64(observer.errors.WithLabelValues("upload")))
	require.Equal(t, float64(1), testutil.ToFloat64(observer.errors.WithLabelValues("delete")))
	require.Equal(t, float64(0), testutil.ToFloat64(observer.errors.WithLabelValues("rename")))
}

func TestObserverReusesRegisteredCollectors(t *testing.T) {
	reg := promclient.NewRegistry()
	first, err := NewObserver("dup", reg)
	require.NoError(t, err)
	second, err := NewObserver("dup", reg)
	require.NoError(t, err)

	first.RecordUpload(time.Millisecond, 10, nil)
	require.Equal(t, float64(10), testutil.ToFloat64(second.uploadedBytes))
}

func TestNilObserverIsSafe(t *testing.T) {
	var observer *Observer
	observer.RecordUpload(time.Millisecond, 1, nil)
	observer.RecordRename(time.Millisecond, errors.New("x"))
}
