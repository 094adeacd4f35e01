package venue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PagesFetchedTotal tracks listing pages fetched successfully.
	PagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossarb_venue_pages_fetched_total",
		Help: "Total number of market listing pages fetched",
	}, []string{"venue"})

	// RateLimitedTotal tracks 429 responses.
	RateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossarb_venue_rate_limited_total",
		Help: "Total number of rate-limited listing requests",
	}, []string{"venue"})

	// MarketsNormalizedTotal tracks records turned into markets.
	MarketsNormalizedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossarb_venue_markets_normalized_total",
		Help: "Total number of venue records normalized into markets",
	}, []string{"venue"})

	// RecordsSkippedTotal tracks records filtered out by status.
	RecordsSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossarb_venue_records_skipped_total",
		Help: "Total number of records skipped because they are not open",
	}, []string{"venue"})

	// RecordsMalformedTotal tracks records dropped during normalization.
	RecordsMalformedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossarb_venue_records_malformed_total",
		Help: "Total number of malformed records dropped",
	}, []string{"venue"})

	// FetchDurationSeconds tracks full listing runs.
	FetchDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crossarb_venue_fetch_duration_seconds",
		Help:    "Duration of a full market listing run",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"venue"})

	// OrdersTotal tracks order submissions by result.
	OrdersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossarb_venue_orders_total",
		Help: "Total number of orders submitted by result",
	}, []string{"venue", "result"})

	// OrderLatencySeconds tracks order round trips.
	OrderLatencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crossarb_venue_order_latency_seconds",
		Help:    "Latency of order submissions",
		Buckets: prometheus.DefBuckets,
	}, []string{"venue"})
)
