package discovery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MarketsIngested tracks the market count of the latest cycle per venue.
	MarketsIngested = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "crossarb_discovery_markets",
		Help: "Number of open markets ingested in the latest cycle",
	}, []string{"venue"})

	// IngestWarningsTotal tracks per-venue warnings by kind (failure, empty).
	IngestWarningsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossarb_discovery_warnings_total",
		Help: "Total number of per-venue ingestion warnings",
	}, []string{"venue", "kind"})

	// IngestDurationSeconds tracks ingestion cycle latency.
	IngestDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crossarb_discovery_ingest_duration_seconds",
		Help:    "Duration of a two-venue ingestion cycle",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})
)
