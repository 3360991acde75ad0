package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Search service Prometheus metrics.
var (
	RemoteRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_requests_total",
			Help:      "Total number of search service calls",
		},
		[]string{"operation", "status"},
	)

	RemoteRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_request_duration_seconds",
			Help:      "Search service call duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"},
	)

	UploadedDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_documents_total",
			Help:      "Documents sent in upload batches by outcome",
		},
		[]string{"index", "status"},
	)

	AgentTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_tokens_total",
			Help:      "Tokens reported in agentic retrieval activity",
		},
		[]string{"agent", "step", "type"},
	)
)

var remoteOnce sync.Once

// RegisterRemoteMetrics registers search service metrics. Safe to call more than once.
func RegisterRemoteMetrics() {
	remoteOnce.Do(func() {
		prometheus.MustRegister(
			RemoteRequestsTotal,
			RemoteRequestDuration,
			UploadedDocumentsTotal,
			AgentTokensTotal,
		)
	})
}
