package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "insights_query_duration_seconds",
			Help:    "Duration of metric store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"metric", "backend"},
	)

	QueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_query_errors_total",
			Help: "Total number of metric store query errors",
		},
		[]string{"metric", "backend", "error_type"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_cache_hits_total",
			Help: "Total number of result cache hits",
		},
		[]string{"metric"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_cache_misses_total",
			Help: "Total number of result cache misses",
		},
		[]string{"metric"},
	)
)
