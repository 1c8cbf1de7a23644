package metrics

import "github.com/prometheus/client_golang/prometheus"

// Engine Prometheus metrics.
var (
	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lexrag",
			Name:      "backend_requests_total",
			Help:      "Total retrieval backend requests",
		},
		[]string{"backend", "status"},
	)

	BackendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lexrag",
			Name:      "backend_request_duration_seconds",
			Help:      "Retrieval backend request duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"backend"},
	)

	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lexrag",
			Name:      "llm_requests_total",
			Help:      "Total language model requests",
		},
		[]string{"provider", "model", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lexrag",
			Name:      "llm_request_duration_seconds",
			Help:      "Language model request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)

	LLMTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lexrag",
			Name:      "llm_tokens_total",
			Help:      "Total language model tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lexrag",
			Name:      "embedding_requests_total",
			Help:      "Total embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lexrag",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	// CacheTotal counts hits and misses per cache component
	// (embedding, classification, provider).
	CacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lexrag",
			Name:      "cache_total",
			Help:      "Cache hits and misses",
		},
		[]string{"cache", "result"},
	)

	GateDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lexrag",
			Name:      "gate_decisions_total",
			Help:      "Corrective gate pass/fail decisions",
		},
		[]string{"decision"},
	)

	PlannerTreeSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "lexrag",
			Name:      "planner_tree_size",
			Help:      "Nodes per decomposition tree",
			Buckets:   []float64{1, 2, 4, 7, 10, 15, 22, 30},
		},
	)
)

// RegisterEngineMetrics registers all engine collectors. Called explicitly
// from the composition root (no init()).
func RegisterEngineMetrics() {
	prometheus.MustRegister(
		BackendRequestsTotal,
		BackendRequestDuration,
		LLMRequestsTotal,
		LLMRequestDuration,
		LLMTokensTotal,
		EmbeddingRequestsTotal,
		EmbeddingRequestDuration,
		CacheTotal,
		GateDecisionsTotal,
		PlannerTreeSize,
	)
}
