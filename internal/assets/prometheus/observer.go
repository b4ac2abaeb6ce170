package prometheus

import (
	"errors"
	"fmt"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"

	"quill/internal/assets"
)

const subsystem = "asset_store"

// Observer exports asset store metrics to Prometheus.
type Observer struct {
	duration      *promclient.HistogramVec
	errors        *promclient.CounterVec
	uploadedBytes promclient.Counter
	listed        promclient.Histogram
}

// NewObserver registers upload/list/delete/rename metrics. Re-registering
// under the same namespace reuses the existing collectors.
func NewObserver(namespace string, reg promclient.Registerer) (*Observer, error) {
	if namespace == "" {
		namespace = "quill"
	}
	if reg == nil {
		reg = promclient.DefaultRegisterer
	}
	duration, err := register(reg, promclient.NewHistogramVec(promclient.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "operation_duration_seconds",
		Help:      "Latency for asset store operations.",
		Buckets:   promclient.DefBuckets,
	}, []string{"operation"}))
	if err != nil {
		return nil, err
	}
	opErrors, err := register(reg, promclient.NewCounterVec(promclient.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "operation_errors_total",
		Help:      "Count of asset store failures.",
	}, []string{"operation"}))
	if err != nil {
		return nil, err
	}
	uploaded, err := register(reg, promclient.NewCounter(promclient.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "uploaded_bytes_total",
		Help:      "Cumulative payload size successfully uploaded to the asset store.",
	}))
	if err != nil {
		return nil, err
	}
	listed, err := register(reg, promclient.NewHistogram(promclient.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "listed_resources",
		Help:      "Number of resources returned per prefix listing.",
		Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
	}))
	if err != nil {
		return nil, err
	}
	return &Observer{duration: duration, errors: opErrors, uploadedBytes: uploaded, listed: listed}, nil
}

func register[T promclient.Collector](reg promclient.Registerer, collector T) (T, error) {
	if err := reg.Register(collector); err != nil {
		var are promclient.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return collector, fmt.Errorf("register asset store metric: %w", err)
	}
	return collector, nil
}

// RecordUpload tracks upload duration, size, and failures.
func (o *Observer) RecordUpload(duration time.Duration, sizeBytes int64, err error) {
	if o == nil {
		return
	}
	o.record("upload", duration, err)
	if err == nil {
		o.uploadedBytes.Add(float64(sizeBytes))
	}
}

func (o *Observer) RecordList(duration time.Duration, count int, err error) {
	if o == nil {
		return
	}
	o.record("list", duration, err)
	if err == nil {
		o.listed.Observe(float64(count))
	}
}

func (o *Observer) RecordDelete(duration time.Duration, err error) {
	o.record("delete", duration, err)
}

func (o *Observer) RecordRename(duration time.Duration, err error) {
	o.record("rename", duration, err)
}

func (o *Observer) record(op string, duration time.Duration, err error) {
	if o == nil {
		return
	}
	o.duration.WithLabelValues(op).Observe(duration.Seconds())
	if err != nil {
		o.errors.WithLabelValues(op).Inc()
	}
}

var _ assets.Observer = (*Observer)(nil)
