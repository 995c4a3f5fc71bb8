// Package observability provides Prometheus metrics for the application.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "otodake"

// Metrics holds all application metrics. Each instance carries its own
// registry so construction is repeatable in tests.
type Metrics struct {
	registry *prometheus.Registry

	// Batch metrics
	BatchesCreated   prometheus.Counter
	BatchesCompleted prometheus.Counter
	BatchesFailed    prometheus.Counter
	BatchesInFlight  prometheus.Gauge

	// Item metrics
	ItemsSucceeded prometheus.Counter
	ItemsFailed    *prometheus.CounterVec
	ArtifactBytes  prometheus.Counter
	ItemDuration   prometheus.Histogram

	// Storage metrics
	CleanupBatchesTotal prometheus.Counter
	StoredBatches       prometheus.Gauge

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers all application metrics.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		BatchesCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batches",
			Name:      "created_total",
			Help:      "Total number of batches accepted",
		}),
		BatchesCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batches",
			Name:      "completed_total",
			Help:      "Total number of batches that finished with at least one success",
		}),
		BatchesFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batches",
			Name:      "failed_total",
			Help:      "Total number of batches where every item failed or input was invalid",
		}),
		BatchesInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "batches",
			Name:      "in_flight",
			Help:      "Number of batches currently being processed",
		}),

		ItemsSucceeded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "items",
			Name:      "succeeded_total",
			Help:      "Total number of items that produced an artifact",
		}),
		ItemsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "items",
			Name:      "failed_total",
			Help:      "Total number of failed items by error class",
		}, []string{"class"}),
		ArtifactBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "items",
			Name:      "artifact_bytes_total",
			Help:      "Total artifact bytes produced across all items",
		}),
		ItemDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "items",
			Name:      "duration_seconds",
			Help:      "Histogram of per-item processing duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),

		CleanupBatchesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "cleanup_batches_total",
			Help:      "Total number of expired batches cleaned up",
		}),
		StoredBatches: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "batches_current",
			Help:      "Current number of stored batches",
		}),

		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Histogram of HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Handler returns the Prometheus HTTP handler for this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ItemTimer returns a function to record one item's processing duration.
func (m *Metrics) ItemTimer() func() {
	start := time.Now()

	return func() {
		m.ItemDuration.Observe(time.Since(start).Seconds())
	}
}

// RecordBatchCreated increments the batch counters.
func (m *Metrics) RecordBatchCreated() {
	m.BatchesCreated.Inc()
	m.BatchesInFlight.Inc()
}

// RecordBatchCompleted records a batch that finished with at least one success.
func (m *Metrics) RecordBatchCompleted() {
	m.BatchesCompleted.Inc()
	m.BatchesInFlight.Dec()
}

// RecordBatchFailed records a fully failed batch.
func (m *Metrics) RecordBatchFailed() {
	m.BatchesFailed.Inc()
	m.BatchesInFlight.Dec()
}

// RecordItemSucceeded records a successful item and its artifact size.
func (m *Metrics) RecordItemSucceeded(artifactBytes int) {
	m.ItemsSucceeded.Inc()
	m.ArtifactBytes.Add(float64(artifactBytes))
}

// RecordItemFailed records a failed item by error class.
func (m *Metrics) RecordItemFailed(class string) {
	m.ItemsFailed.WithLabelValues(class).Inc()
}

// RecordCleanup records expired-batch cleanup.
func (m *Metrics) RecordCleanup(batches int) {
	m.CleanupBatchesTotal.Add(float64(batches))
}

// SetStoredBatches sets the number of stored batches.
func (m *Metrics) SetStoredBatches(count int) {
	m.StoredBatches.Set(float64(count))
}

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
