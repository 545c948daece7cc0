package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/esquery/internal/querycache"
)

// Query pipeline Prometheus metrics.
var (
	QueryCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "esquery",
			Name:      "query_cache_total",
			Help:      "Translation cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	QueryCacheEvictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "esquery",
			Name:      "query_cache_evictions_total",
			Help:      "Translation cache entries evicted",
		},
		[]string{"reason"}, // "expired" / "overflow"
	)

	QueryCacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "esquery",
			Name:      "query_cache_entries",
			Help:      "Entries currently held by the translation cache",
		},
	)

	QueryRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "esquery",
			Name:      "query_rejections_total",
			Help:      "Requests rejected by a security gate",
		},
		[]string{"reason"},
	)

	TranslateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "esquery",
			Name:      "translate_duration_seconds",
			Help:      "Time spent translating uncached filters",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		},
	)
)

var queryMetricsRegistered bool

// RegisterQueryMetrics registers the query pipeline metrics. Must be called once from main.
func RegisterQueryMetrics() {
	if queryMetricsRegistered {
		return
	}
	prometheus.MustRegister(QueryCacheTotal)
	prometheus.MustRegister(QueryCacheEvictionsTotal)
	prometheus.MustRegister(QueryCacheEntries)
	prometheus.MustRegister(QueryRejectionsTotal)
	prometheus.MustRegister(TranslateDuration)
	queryMetricsRegistered = true
}

// CacheMetrics returns the collectors the translation cache updates.
func CacheMetrics() querycache.Metrics {
	return querycache.Metrics{
		Lookups:   QueryCacheTotal,
		Evictions: QueryCacheEvictionsTotal,
		Entries:   QueryCacheEntries,
	}
}
