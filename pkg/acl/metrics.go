package acl

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks codec activity.
//
// A nil *Metrics is a valid no-op, so callers can pass nil when metrics are
// disabled.
type Metrics struct {
	// DecodeTotal counts decode calls by result.
	// Labels: result=[ok, truncated, malformed_length, unsupported_version, unknown_tag, error]
	DecodeTotal *prometheus.CounterVec

	// EncodeTotal counts encode calls by result.
	// Labels: result=[ok, buffer_too_small, unsupported_tag, error]
	EncodeTotal *prometheus.CounterVec

	// Entries tracks the number of entries per successfully coded ACL.
	Entries prometheus.Histogram
}

// NewMetrics creates codec metrics and registers them with reg.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		DecodeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volbridge_acl_decode_total",
				Help: "Total ACL decode operations by result",
			},
			[]string{"result"},
		),
		EncodeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volbridge_acl_encode_total",
				Help: "Total ACL encode operations by result",
			},
			[]string{"result"},
		),
		Entries: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "volbridge_acl_entries",
				Help:    "Number of entries per encoded or decoded ACL",
				Buckets: []float64{1, 3, 5, 8, 16, 32, 64},
			},
		),
	}

	reg.MustRegister(m.DecodeTotal, m.EncodeTotal, m.Entries)
	return m
}

// ObserveDecode records the outcome of a Decode call.
func (m *Metrics) ObserveDecode(entries int, err error) {
	if m == nil {
		return
	}
	m.DecodeTotal.WithLabelValues(ResultLabel(err)).Inc()
	if err == nil {
		m.Entries.Observe(float64(entries))
	}
}

// ObserveEncode records the outcome of an Encode or EncodeTo call.
func (m *Metrics) ObserveEncode(entries int, err error) {
	if m == nil {
		return
	}
	m.EncodeTotal.WithLabelValues(ResultLabel(err)).Inc()
	if err == nil {
		m.Entries.Observe(float64(entries))
	}
}

// ResultLabel maps a codec error to a short metric label.
func ResultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTruncatedFormat):
		return "truncated"
	case errors.Is(err, ErrMalformedLength):
		return "malformed_length"
	case errors.Is(err, ErrUnsupportedVersion):
		return "unsupported_version"
	case errors.Is(err, ErrUnknownTag):
		return "unknown_tag"
	case errors.Is(err, ErrBufferTooSmall):
		return "buffer_too_small"
	case errors.Is(err, ErrUnsupportedTag):
		return "unsupported_tag"
	default:
		return "error"
	}
}
