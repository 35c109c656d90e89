package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// GatewayMetrics holds all Prometheus metrics for the gateway service.
type GatewayMetrics struct {
	RecordsTotal    *prometheus.CounterVec
	BytesTotal      prometheus.Counter
	PublishFailures prometheus.Counter
	WALActive       prometheus.Gauge
}

// NewGatewayMetrics initializes and registers the gateway metrics.
func NewGatewayMetrics() *GatewayMetrics {
	return &GatewayMetrics{
		RecordsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "memory_machines",
			Subsystem: "gateway",
			Name:      "records_total",
			Help:      "Total number of ingested records by status.",
		}, []string{"status"}), // status: accepted, error_validation, error_size, error_media_type, error_publish
		BytesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "memory_machines",
			Subsystem: "gateway",
			Name:      "bytes_total",
			Help:      "Total number of payload bytes accepted.",
		}),
		PublishFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "memory_machines",
			Subsystem: "gateway",
			Name:      "publish_failures_total",
			Help:      "Total number of broker publish failures reported asynchronously.",
		}),
		WALActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "memory_machines",
			Subsystem: "gateway",
			Name:      "wal_active_gauge",
			Help:      "Indicates if the publish write-ahead log is currently active (1 for active, 0 for inactive).",
		}),
	}
}

// WorkerMetrics holds all Prometheus metrics for the worker service.
type WorkerMetrics struct {
	DeliveriesTotal   *prometheus.CounterVec
	ProcessingSeconds prometheus.Histogram
}

// NewWorkerMetrics initializes and registers the worker metrics.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		DeliveriesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "memory_machines",
			Subsystem: "worker",
			Name:      "deliveries_total",
			Help:      "Total number of queue deliveries by outcome.",
		}, []string{"outcome"}), // outcome: processed, skipped, terminal, retryable
		ProcessingSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "memory_machines",
			Subsystem: "worker",
			Name:      "processing_seconds",
			Help:      "Wall-clock time spent processing a single delivery.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
}
