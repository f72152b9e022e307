package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	// Sync feed metrics
	SyncConnections prometheus.Gauge
	SyncEvents      *prometheus.CounterVec

	// AI pipeline metrics
	AIRequests       prometheus.Counter
	AIRequestLatency prometheus.Histogram
	AIErrors         *prometheus.CounterVec

	// Photo battle metrics
	VotesRecorded prometheus.Counter

	// Upload metrics
	UploadsReceived prometheus.Counter
	UploadBytes     prometheus.Counter
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics
func InitMetrics() *Metrics {
	metrics := &Metrics{
		SyncConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "focusnotebook_sync_connections_active",
			Help: "Number of active sync WebSocket connections",
		}),

		SyncEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "focusnotebook_sync_events_total",
			Help: "Total number of sync events by collection and direction",
		}, []string{"collection", "direction"}), // direction: "inbound" or "outbound"

		AIRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "focusnotebook_ai_requests_total",
			Help: "Total number of thought processing requests",
		}),

		AIRequestLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "focusnotebook_ai_request_duration_seconds",
			Help:    "Thought processing latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120}, // up to 2 minutes for slow providers
		}),

		AIErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "focusnotebook_ai_errors_total",
			Help: "Total number of thought processing errors by type",
		}, []string{"error_type"}),

		VotesRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "focusnotebook_photo_votes_total",
			Help: "Total number of photo battle votes recorded",
		}),

		UploadsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Name: "focusnotebook_uploads_total",
			Help: "Total number of files uploaded",
		}),

		UploadBytes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "focusnotebook_upload_bytes_total",
			Help: "Total bytes uploaded",
		}),
	}

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordSyncConnect records a new sync connection
func (m *Metrics) RecordSyncConnect() {
	m.SyncConnections.Inc()
}

// RecordSyncDisconnect records a sync disconnection
func (m *Metrics) RecordSyncDisconnect() {
	m.SyncConnections.Dec()
}

// RecordSyncEvent records a sync event
func (m *Metrics) RecordSyncEvent(collection, direction string) {
	m.SyncEvents.WithLabelValues(collection, direction).Inc()
}

// RecordAIRequest records a thought processing request
func (m *Metrics) RecordAIRequest() {
	m.AIRequests.Inc()
}

// RecordAILatency records thought processing latency
func (m *Metrics) RecordAILatency(seconds float64) {
	m.AIRequestLatency.Observe(seconds)
}

// RecordAIError records a thought processing error
func (m *Metrics) RecordAIError(errorType string) {
	m.AIErrors.WithLabelValues(errorType).Inc()
}

// RecordVote records a photo battle vote
func (m *Metrics) RecordVote() {
	m.VotesRecorded.Inc()
}

// RecordUpload records a completed file upload
func (m *Metrics) RecordUpload(bytes int64) {
	m.UploadsReceived.Inc()
	m.UploadBytes.Add(float64(bytes))
}
