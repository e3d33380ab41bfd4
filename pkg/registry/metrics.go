package registry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks handle registry activity. A nil *Metrics is a no-op.
type Metrics struct {
	// Entries is the number of live connections.
	Entries prometheus.Gauge

	// Refs is the number of outstanding handles across all entries.
	Refs prometheus.Gauge

	// AcquireTotal counts Acquire calls by result: hit, miss, error.
	AcquireTotal *prometheus.CounterVec

	// ReleaseTotal counts Release calls by result: decref, teardown, unknown.
	ReleaseTotal *prometheus.CounterVec

	// ConnectDuration tracks connection establishment latency.
	ConnectDuration prometheus.Histogram
}

// NewMetrics creates and registers registry metrics on reg.
// Panics if registration fails.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "volbridge_registry_entries",
			Help: "Live volume connections held by the handle registry",
		}),
		Refs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "volbridge_registry_refs",
			Help: "Outstanding handle references across all connections",
		}),
		AcquireTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volbridge_registry_acquire_total",
				Help: "Handle acquisitions by result",
			},
			[]string{"result"}, // "hit", "miss", "error"
		),
		ReleaseTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volbridge_registry_release_total",
				Help: "Handle releases by result",
			},
			[]string{"result"}, // "decref", "teardown", "unknown"
		),
		ConnectDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "volbridge_registry_connect_duration_seconds",
			Help:    "Time spent establishing volume connections",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.Entries,
		m.Refs,
		m.AcquireTotal,
		m.ReleaseTotal,
		m.ConnectDuration,
	)
	return m
}

func (m *Metrics) acquired(result string) {
	if m == nil {
		return
	}
	m.AcquireTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) released(result string) {
	if m == nil {
		return
	}
	m.ReleaseTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) connected(seconds float64) {
	if m == nil {
		return
	}
	m.ConnectDuration.Observe(seconds)
}

func (m *Metrics) set(entries, refs int) {
	if m == nil {
		return
	}
	m.Entries.Set(float64(entries))
	m.Refs.Set(float64(refs))
}
