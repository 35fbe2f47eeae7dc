package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Document store and maintenance Prometheus metrics.
var (
	StoreOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Total document store operations",
		},
		[]string{"driver", "op", "status"},
	)

	StoreOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Document store operation duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"driver", "op"},
	)

	MaintenanceItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "maintenance_items_total",
			Help:      "Documents processed by maintenance operations",
		},
		[]string{"operation", "status"}, // status: ok / error / skipped
	)

	SearchMatchesReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_matches_returned",
			Help:      "Number of matches returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)
)

var registerStore sync.Once

// RegisterStoreMetrics registers store, maintenance and search metrics on the default registry.
// Safe to call more than once and from several goroutines.
func RegisterStoreMetrics() {
	registerStore.Do(func() {
		prometheus.MustRegister(
			StoreOperationsTotal,
			StoreOperationDuration,
			MaintenanceItemsTotal,
			SearchMatchesReturned,
		)
	})
}

// ObserveStore records one store call.
func ObserveStore(driver, op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	StoreOperationsTotal.WithLabelValues(driver, op, status).Inc()
	StoreOperationDuration.WithLabelValues(driver, op).Observe(time.Since(start).Seconds())
}
