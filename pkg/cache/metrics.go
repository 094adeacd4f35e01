package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossarb_cache_hits_total",
		Help: "Total number of cache hits",
	}, []string{"cache"})

	CacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossarb_cache_misses_total",
		Help: "Total number of cache misses",
	}, []string{"cache"})

	CacheSetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossarb_cache_sets_total",
		Help: "Total number of accepted cache writes",
	}, []string{"cache"})

	CacheDroppedSetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossarb_cache_dropped_sets_total",
		Help: "Total number of cache writes rejected by admission",
	}, []string{"cache"})
)
