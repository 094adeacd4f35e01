package execution

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TradesTotal tracks recorded trades by mode and aggregate status.
	TradesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crossarb_execution_trades_total",
			Help: "Total number of hedges executed by aggregate status",
		},
		[]string{"mode", "status"},
	)

	// LegsTotal tracks individual leg outcomes per venue.
	LegsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crossarb_execution_legs_total",
			Help: "Total number of hedge legs by venue and outcome",
		},
		[]string{"venue", "result"},
	)

	// ExpectedProfitUSD tracks expected profit of fully filled hedges.
	ExpectedProfitUSD = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crossarb_execution_expected_profit_usd",
			Help: "Cumulative expected profit of filled hedges",
		},
		[]string{"mode"},
	)

	// ExecutionDurationSeconds tracks the time to settle both legs.
	ExecutionDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crossarb_execution_duration_seconds",
		Help:    "Duration of dual-leg submission",
		Buckets: prometheus.DefBuckets,
	})

	// RecordErrorsTotal tracks trades that could not be appended to the log.
	RecordErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossarb_execution_record_errors_total",
		Help: "Total number of trades that failed to be recorded",
	})
)
