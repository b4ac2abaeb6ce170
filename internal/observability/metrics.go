package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"quill/internal/resources"
)

// MetricsCollector owns the process registry. Store and reader collectors
// register on it directly; synchronization runs are recorded through an
// OpenTelemetry meter exported into the same registry.
type MetricsCollector struct {
	registry *prometheus.Registry
	provider *sdkmetric.MeterProvider

	syncRuns     metric.Int64Counter
	slotFailures metric.Int64Counter
	syncDuration metric.Float64Histogram
}

// NewMetricsCollector creates the registry with Go and process collectors.
func NewMetricsCollector() (*MetricsCollector, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter("quill")

	syncRuns, err := meter.Int64Counter(
		"quill.sync.runs",
		metric.WithDescription("Resource synchronization runs by outcome"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync_runs counter: %w", err)
	}
	slotFailures, err := meter.Int64Counter(
		"quill.sync.slot_failures",
		metric.WithDescription("Synchronization runs with a failed slot, by slot"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create slot_failures counter: %w", err)
	}
	syncDuration, err := meter.Float64Histogram(
		"quill.sync.duration",
		metric.WithDescription("Resource synchronization duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync_duration histogram: %w", err)
	}

	return &MetricsCollector{
		registry:     registry,
		provider:     provider,
		syncRuns:     syncRuns,
		slotFailures: slotFailures,
		syncDuration: syncDuration,
	}, nil
}

// Registry is where the other packages register their collectors.
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordSync implements resources.Observer.
func (m *MetricsCollector) RecordSync(ctx context.Context, duration time.Duration, failed []resources.Slot) {
	outcome := "success"
	if len(failed) > 0 {
		outcome = "partial"
	}
	m.syncRuns.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	m.syncDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("outcome", outcome)))
	for _, slot := range failed {
		m.slotFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("slot", string(slot))))
	}
}

// Shutdown stops the meter provider.
func (m *MetricsCollector) Shutdown(ctx context.Context) error {
	if m.provider != nil {
		return m.provider.Shutdown(ctx)
	}
	return nil
}

var _ resources.Observer = (*MetricsCollector)(nil)
