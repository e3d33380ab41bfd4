// Package metrics bootstraps Prometheus collection for volbridge.
//
// All metrics are optional. Until InitRegistry is called, GetRegistry returns
// nil and the constructors in this package return nil metrics, which the
// instrumented components treat as no-ops.
//
// Usage:
//
//	metrics.InitRegistry()
//	set := metrics.NewSet()
//	reg := registry.New(backends.Connector(), registry.WithMetrics(set.Registry))
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	promRegistry *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry creates the process-wide Prometheus registry with the Go
// runtime and process collectors attached. Later calls are ignored.
func InitRegistry() {
	registryOnce.Do(func() {
		r := prometheus.NewRegistry()
		r.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		promRegistry = r
	})
}

// GetRegistry returns the registry, or nil when metrics are disabled.
func GetRegistry() *prometheus.Registry {
	return promRegistry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	return GetRegistry() != nil
}
