package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

type StorageMetrics struct {
	OperationDuration *prometheus.HistogramVec
}

// BusinessMetrics mirror the latest statistics snapshot taken by the batch job.
type BusinessMetrics struct {
	Customers      *prometheus.GaugeVec
	TotalBalance   prometheus.Gauge
	TotalPurchased prometheus.Gauge
	VIPSavings     prometheus.Gauge
	SnapshotRuns   *prometheus.CounterVec
}

var (
	HTTP = HTTPMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "customer_manager_http_requests_total",
				Help: "Total number of HTTP requests received.",
			},
			[]string{"method", "path", "code"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "customer_manager_http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "code"},
		),
	}

	Storage = StorageMetrics{
		OperationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "customer_manager_storage_operation_duration_seconds",
				Help:    "Histogram of customer repository load and save latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"backend", "operation", "status"},
		),
	}

	Business = BusinessMetrics{
		Customers: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "customer_manager_customers",
				Help: "Number of customers in the store by segment.",
			},
			[]string{"segment"},
		),
		TotalBalance: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "customer_manager_total_balance",
				Help: "Sum of all customer balances.",
			},
		),
		TotalPurchased: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "customer_manager_total_purchased",
				Help: "Sum of all purchases recorded since start.",
			},
		),
		VIPSavings: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "customer_manager_vip_savings_total",
				Help: "Sum of all savings granted to VIP customers since start.",
			},
		),
		SnapshotRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "customer_manager_statistics_snapshots_total",
				Help: "Total number of statistics snapshot runs.",
			},
			[]string{"status"},
		),
	}
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

func RecordHTTPRequest(method, path, code string, duration time.Duration) {
	HTTP.RequestsTotal.WithLabelValues(method, path, code).Inc()
	HTTP.RequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

func RecordStorageOperation(backend, operation string, err error, duration time.Duration) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	Storage.OperationDuration.WithLabelValues(backend, operation, status).Observe(duration.Seconds())
}

// Snapshot holds the figures published by RecordSnapshot. Money values are
// passed as float64 because Prometheus gauges are float64.
type Snapshot struct {
	Total          int
	Active         int
	Inactive       int
	VIP            int
	Regular        int
	TotalBalance   float64
	TotalPurchased float64
	VIPSavings     float64
}

func RecordSnapshot(s Snapshot) {
	Business.Customers.WithLabelValues("total").Set(float64(s.Total))
	Business.Customers.WithLabelValues("active").Set(float64(s.Active))
	Business.Customers.WithLabelValues("inactive").Set(float64(s.Inactive))
	Business.Customers.WithLabelValues("vip").Set(float64(s.VIP))
	Business.Customers.WithLabelValues("regular").Set(float64(s.Regular))
	Business.TotalBalance.Set(s.TotalBalance)
	Business.TotalPurchased.Set(s.TotalPurchased)
	Business.VIPSavings.Set(s.VIPSavings)
	Business.SnapshotRuns.WithLabelValues(StatusSuccess).Inc()
}

func RecordSnapshotFailure() {
	Business.SnapshotRuns.WithLabelValues(StatusError).Inc()
}
