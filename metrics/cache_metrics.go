package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type CacheMetricsCollector struct {
	Hits     *prometheus.CounterVec
	Misses   *prometheus.CounterVec
	Requests *prometheus.CounterVec
	HitRatio *prometheus.GaugeVec
	Latency  *prometheus.HistogramVec
}

var (
	globalCollector *CacheMetricsCollector
	collectorOnce   sync.Once
)

func getCollector() *CacheMetricsCollector {
	collectorOnce.Do(func() {
		globalCollector = &CacheMetricsCollector{
			Hits: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "ipsign_cache_hits_total",
					Help: "The total number of cache hits",
				},
				[]string{"domain"},
			),
			Misses: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "ipsign_cache_misses_total",
					Help: "The total number of cache misses",
				},
				[]string{"domain"},
			),
			Requests: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "ipsign_cache_requests_total",
					Help: "The total number of cache requests",
				},
				[]string{"domain"},
			),
			HitRatio: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "ipsign_cache_hit_ratio",
					Help: "Cache hit ratio (hits/total requests)",
				},
				[]string{"domain"},
			),
			Latency: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "ipsign_cache_operation_duration_seconds",
					Help:    "Duration of cache store operations",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"domain", "operation"},
			),
		}
	})
	return globalCollector
}

// CacheMetrics tracks hit/miss counts for a single cache domain.
type CacheMetrics struct {
	domain    string
	hits      int64
	misses    int64
	total     int64
	collector *CacheMetricsCollector
	mu        sync.RWMutex
}

func NewCacheMetrics(domain string) *CacheMetrics {
	return &CacheMetrics{
		domain:    domain,
		collector: getCollector(),
	}
}

func (m *CacheMetrics) RecordHit() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hits++
	m.total++
	m.collector.Hits.WithLabelValues(m.domain).Inc()
	m.collector.Requests.WithLabelValues(m.domain).Inc()
	m.updateHitRatio()
}

func (m *CacheMetrics) RecordMiss() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.misses++
	m.total++
	m.collector.Misses.WithLabelValues(m.domain).Inc()
	m.collector.Requests.WithLabelValues(m.domain).Inc()
	m.updateHitRatio()
}

// updateHitRatio updates the Prometheus hit ratio gauge.
// Must be called while holding the mutex.
func (m *CacheMetrics) updateHitRatio() {
	if m.total > 0 {
		ratio := float64(m.hits) / float64(m.total)
		m.collector.HitRatio.WithLabelValues(m.domain).Set(ratio)
	}
}

// ObserveLatency records how long a store operation took for this domain.
func (m *CacheMetrics) ObserveLatency(operation string, d time.Duration) {
	m.collector.Latency.WithLabelValues(m.domain, operation).Observe(d.Seconds())
}
