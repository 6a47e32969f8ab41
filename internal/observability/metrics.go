package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "viralpik_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// AssetSubmissions counts submission outcomes (pending, approved, blocked, failed).
	AssetSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "viralpik_asset_submissions_total",
		Help: "Asset submissions by outcome",
	}, []string{"outcome"})

	// DownloadAuthorizations counts download authorization decisions by tier.
	DownloadAuthorizations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "viralpik_download_authorizations_total",
		Help: "Download authorizations by tier and result",
	}, []string{"tier", "result"})

	// UploadBytes observes stored upload sizes by storage backend.
	UploadBytes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "viralpik_upload_bytes",
		Help:    "Size of stored uploads in bytes",
		Buckets: prometheus.ExponentialBuckets(16*1024, 4, 8),
	}, []string{"backend"})

	// EnrichmentJobs counts enrichment worker results.
	EnrichmentJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "viralpik_enrichment_jobs_total",
		Help: "Enrichment jobs processed by result",
	}, []string{"result"})

	// BestEffortCalls counts fire-and-forget calls by operation and result.
	BestEffortCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "viralpik_best_effort_calls_total",
		Help: "Fire-and-forget calls by operation and result",
	}, []string{"operation", "result"})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "viralpik_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketEventsTotal counts WebSocket events by type.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "viralpik_websocket_events_total",
		Help: "Total WebSocket events by type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "viralpik_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
