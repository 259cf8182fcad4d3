package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	cacheHitsTotal        *prometheus.CounterVec
	cacheMissesTotal      *prometheus.CounterVec
	cacheFillsTotal       *prometheus.CounterVec
	cacheInvalidatesTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors for content-store
// cache observability.
func RegisterMetrics() {
	registerOnce.Do(func() {
		cacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vfs_cache_hits_total",
			Help: "Total content-store cache hits.",
		}, []string{"namespace"})

		cacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vfs_cache_misses_total",
			Help: "Total content-store cache misses.",
		}, []string{"namespace"})

		cacheFillsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vfs_cache_fills_total",
			Help: "Total content-store cache fills after a miss.",
		}, []string{"namespace"})

		cacheInvalidatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vfs_cache_invalidations_total",
			Help: "Total content-store cache invalidations on write or delete.",
		}, []string{"namespace"})

		prometheus.MustRegister(
			cacheHitsTotal, cacheMissesTotal, cacheFillsTotal, cacheInvalidatesTotal)
	})
}

// CacheMetrics is a cache observer backed by the Prometheus collectors. It
// satisfies the vfs cache Observer interface.
type CacheMetrics struct {
	namespace string
}

// NewCacheMetrics builds an observer for one namespace.
func NewCacheMetrics(namespace string) *CacheMetrics {
	RegisterMetrics()
	return &CacheMetrics{namespace: namespace}
}

func (m *CacheMetrics) Hit(string)  { cacheHitsTotal.WithLabelValues(m.namespace).Inc() }
func (m *CacheMetrics) Miss(string) { cacheMissesTotal.WithLabelValues(m.namespace).Inc() }
func (m *CacheMetrics) Fill(string) { cacheFillsTotal.WithLabelValues(m.namespace).Inc() }
func (m *CacheMetrics) Invalidate(string) {
	cacheInvalidatesTotal.WithLabelValues(m.namespace).Inc()
}
