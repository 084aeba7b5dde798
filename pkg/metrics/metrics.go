// Package metrics provides Prometheus metrics collection for stardust.
//
// All metrics are optional - if the registry is never initialized, the
// constructors return nil and the orchestrator records nothing. This lets
// stardust run with or without metrics collection enabled.
//
// Usage:
//
//	// Initialize global registry (typically in main.go)
//	metrics.InitRegistry()
//
//	// Create the metrics instance for the orchestrator
//	storageMetrics := metrics.NewStorageMetrics()
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// registry is the global Prometheus registry for all stardust metrics.
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry initializes the global Prometheus registry.
//
// Safe to call multiple times; subsequent calls are ignored. If never
// called, GetRegistry returns nil and metrics constructors return no-ops.
func InitRegistry() {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
	})
}

// GetRegistry returns the global Prometheus registry, or nil when metrics
// are disabled.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled reports whether the registry has been initialized.
func IsEnabled() bool {
	return registry != nil
}

// StorageMetrics collects counters and latency histograms for storage
// orchestrator operations.
//
// A nil *StorageMetrics is valid and records nothing, so callers never
// need to branch on whether metrics are enabled.
type StorageMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesStored       prometheus.Gauge
	quotaRejections   prometheus.Counter
	compensations     *prometheus.CounterVec
}

// NewStorageMetrics creates a Prometheus-backed StorageMetrics instance.
//
// Returns nil when metrics are disabled.
func NewStorageMetrics() *StorageMetrics {
	if !IsEnabled() {
		return nil
	}

	reg := GetRegistry()

	return &StorageMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "stardust_storage_operations_total",
				Help: "Total number of storage operations by operation and status",
			},
			[]string{"operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stardust_storage_operation_duration_seconds",
				Help:    "Latency of storage operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		bytesStored: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "stardust_storage_bytes_stored",
				Help: "Bytes currently held in the blob store for live file records",
			},
		),
		quotaRejections: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "stardust_storage_quota_rejections_total",
				Help: "Uploads and updates rejected by group quota admission",
			},
		),
		compensations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "stardust_storage_compensations_total",
				Help: "Compensating actions applied after partial failures",
			},
			[]string{"operation"},
		),
	}
}

// ObserveOperation records one completed operation with its outcome and
// duration.
func (m *StorageMetrics) ObserveOperation(operation, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// AddBytesStored adjusts the stored-bytes gauge; negative deltas record
// released content.
func (m *StorageMetrics) AddBytesStored(n int64) {
	if m == nil {
		return
	}
	m.bytesStored.Add(float64(n))
}

// IncQuotaRejection records a quota admission failure.
func (m *StorageMetrics) IncQuotaRejection() {
	if m == nil {
		return
	}
	m.quotaRejections.Inc()
}

// IncCompensation records a compensating action for the given operation.
func (m *StorageMetrics) IncCompensation(operation string) {
	if m == nil {
		return
	}
	m.compensations.WithLabelValues(operation).Inc()
}
