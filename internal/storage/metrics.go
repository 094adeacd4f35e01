package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TradesAppendedTotal tracks trades written to the log by backend and status.
	TradesAppendedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossarb_storage_trades_appended_total",
		Help: "Total number of trades appended to the trade log",
	}, []string{"backend", "status"})

	// StorageErrorsTotal tracks failed storage operations.
	StorageErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossarb_storage_errors_total",
		Help: "Total number of failed trade log operations",
	}, []string{"backend", "operation"})
)
