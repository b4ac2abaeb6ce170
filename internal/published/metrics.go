package published

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts cache outcomes of the reader. A nil *Metrics records
// nothing.
type Metrics struct {
	lookups *prometheus.CounterVec
	fetches *prometheus.CounterVec
}

// NewMetrics registers the reader counters on reg.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "published",
		Name:      "cache_lookups_total",
		Help:      "Published content cache lookups by result.",
	}, []string{"result"})
	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "published",
		Name:      "fetches_total",
		Help:      "Underlying fetches of published content by status.",
	}, []string{"status"})

	for _, collector := range []*prometheus.CounterVec{lookups, fetches} {
		if err := reg.Register(collector); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return nil, err
			}
			existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				return nil, err
			}
			if collector == lookups {
				lookups = existing
			} else {
				fetches = existing
			}
		}
	}
	return &Metrics{lookups: lookups, fetches: fetches}, nil
}

func (m *Metrics) hit() {
	if m != nil {
		m.lookups.WithLabelValues("hit").Inc()
	}
}

func (m *Metrics) miss() {
	if m != nil {
		m.lookups.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) fetched(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.fetches.WithLabelValues(status).Inc()
}
