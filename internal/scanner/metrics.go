package scanner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RefreshesTotal tracks published snapshots.
	RefreshesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossarb_scanner_refreshes_total",
		Help: "Total number of snapshots published",
	})

	// RefreshSkippedTotal tracks refreshes skipped because one was in flight.
	RefreshSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossarb_scanner_refresh_skipped_total",
		Help: "Total number of refreshes skipped while another was running",
	})

	// RefreshAbandonedTotal tracks refreshes dropped because their context ended.
	RefreshAbandonedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossarb_scanner_refresh_abandoned_total",
		Help: "Total number of refreshes dropped without publishing because their context ended",
	})

	// OpportunitiesCurrent tracks opportunities in the current snapshot.
	OpportunitiesCurrent = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crossarb_scanner_opportunities",
		Help: "Number of opportunities in the current snapshot",
	})

	// RefreshDurationSeconds tracks full ingest-and-match cycle latency.
	RefreshDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crossarb_scanner_refresh_duration_seconds",
		Help:    "Duration of an ingest-and-match cycle",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})
)
