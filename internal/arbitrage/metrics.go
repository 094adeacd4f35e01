package arbitrage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OpportunitiesDetectedTotal tracks opportunities emitted by matching passes.
	OpportunitiesDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossarb_match_opportunities_detected_total",
		Help: "Total number of cross-venue opportunities emitted by matching passes",
	})

	// PairsComparedTotal tracks the size of the cross join.
	PairsComparedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossarb_match_pairs_compared_total",
		Help: "Total number of market pairs compared",
	})

	// OpportunityProfitPct tracks best-strategy profit percentages.
	OpportunityProfitPct = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crossarb_match_opportunity_profit_pct",
		Help:    "Best-strategy profit percentage of emitted opportunities",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 50},
	})

	// MatchConfidence tracks title similarity of emitted opportunities.
	MatchConfidence = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crossarb_match_confidence",
		Help:    "Title similarity of emitted opportunities",
		Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
	})

	// MatchDurationSeconds tracks matching pass latency.
	MatchDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crossarb_match_duration_seconds",
		Help:    "Duration of a matching pass",
		Buckets: prometheus.DefBuckets,
	})
)
