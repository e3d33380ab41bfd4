package metrics

import (
	"errors"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/marmos91/volbridge/internal/logger"
)

// BadgerCacheSource exposes the block and index cache statistics of an open
// badger database. *badger.DB satisfies it.
type BadgerCacheSource interface {
	BlockCacheMetrics() *ristretto.Metrics
	IndexCacheMetrics() *ristretto.Metrics
}

// badgerCollector reads cache statistics at scrape time.
type badgerCollector struct {
	src    BadgerCacheSource
	hits   *prometheus.Desc
	misses *prometheus.Desc
	ratio  *prometheus.Desc
}

func newBadgerCollector(namespace string, src BadgerCacheSource) *badgerCollector {
	labels := prometheus.Labels{"namespace": namespace}
	return &badgerCollector{
		src: src,
		hits: prometheus.NewDesc(
			"volbridge_badger_cache_hits_total",
			"BadgerDB cache hits by cache type",
			[]string{"cache_type"}, labels,
		),
		misses: prometheus.NewDesc(
			"volbridge_badger_cache_misses_total",
			"BadgerDB cache misses by cache type",
			[]string{"cache_type"}, labels,
		),
		ratio: prometheus.NewDesc(
			"volbridge_badger_cache_hit_ratio",
			"BadgerDB cache hit ratio (0.0 to 1.0) by cache type",
			[]string{"cache_type"}, labels,
		),
	}
}

func (c *badgerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.ratio
}

func (c *badgerCollector) Collect(ch chan<- prometheus.Metric) {
	collect := func(cacheType string, m *ristretto.Metrics) {
		// ristretto.Metrics methods accept a nil receiver.
		ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(m.Hits()), cacheType)
		ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(m.Misses()), cacheType)
		ch <- prometheus.MustNewConstMetric(c.ratio, prometheus.GaugeValue, m.Ratio(), cacheType)
	}
	collect("block", c.src.BlockCacheMetrics())
	collect("index", c.src.IndexCacheMetrics())
}

// RegisterBadgerCache exports the cache statistics of src under namespace.
// The returned function removes them again and must be called before the
// database is closed. When metrics are disabled, or namespace is already
// exported, nothing is registered and the returned function is a no-op.
func RegisterBadgerCache(namespace string, src BadgerCacheSource) func() {
	reg := GetRegistry()
	if reg == nil {
		return func() {}
	}
	return registerBadgerCache(reg, namespace, src)
}

func registerBadgerCache(reg prometheus.Registerer, namespace string, src BadgerCacheSource) func() {
	c := newBadgerCollector(namespace, src)
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			logger.Debug("Badger cache metrics already exported", "namespace", namespace)
		} else {
			logger.Warn("Failed to register badger cache metrics", "namespace", namespace, logger.Err(err))
		}
		return func() {}
	}

	var once sync.Once
	return func() {
		once.Do(func() { reg.Unregister(c) })
	}
}
