package observability

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quill/internal/resources"
)

func TestMetricsCollectorExportsSyncRuns(t *testing.T) {
	t.Parallel()

	collector, err := NewMetricsCollector()
	require.NoError(t, err)
	t.Cleanup(func() { _ = collector.Shutdown(context.Background()) })

	ctx := context.Background()
	collector.RecordSync(ctx, 20*time.Millisecond, nil)
	collector.RecordSync(ctx, 30*time.Millisecond, []resources.Slot{resources.SlotCover})

	server := httptest.NewServer(collector.Handler())
	t.Cleanup(server.Close)
	resp, err := server.Client().Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	require.Contains(t, text, "quill_sync_runs")
	require.Contains(t, text, `outcome="partial"`)
	require.Contains(t, text, `slot="cover"`)
	require.True(t, strings.Contains(text, "go_goroutines"), "runtime collectors are registered")
}

func TestDisabledTracerProviderIsNoop(t *testing.T) {
	t.Parallel()

	tp, err := NewTracerProvider(TracingConfig{})
	require.NoError(t, err)
	require.False(t, tp.Enabled())

	_, span := tp.Tracer().Start(context.Background(), "noop")
	require.False(t, span.SpanContext().IsValid())
	span.End()
	require.NoError(t, tp.Shutdown(context.Background()))
}
