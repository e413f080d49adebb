package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline Prometheus metrics.
var (
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rag",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs",
		},
		[]string{"status"}, // "complete" / "failed"
	)

	RunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rag",
			Name:      "run_duration_seconds",
			Help:      "End-to-end run duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"status"},
	)

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rag",
			Name:      "stage_duration_seconds",
			Help:      "Per-stage duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage"}, // "decompose" / "retrieve" / "synthesize" / "review"
	)

	CheckpointTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rag",
			Name:      "checkpoint_total",
			Help:      "Checkpoint store hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rag",
			Name:      "search_requests_total",
			Help:      "Total search provider calls",
		},
		[]string{"provider", "depth", "status"},
	)

	SearchRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rag",
			Name:      "search_retries_total",
			Help:      "Search attempts beyond the first",
		},
	)

	DepthEscalationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rag",
			Name:      "search_depth_escalations_total",
			Help:      "Basic searches escalated to advanced depth",
		},
	)

	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rag",
			Name:      "llm_requests_total",
			Help:      "Total language model requests",
		},
		[]string{"provider", "model", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rag",
			Name:      "llm_request_duration_seconds",
			Help:      "Language model request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)

	LLMTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rag",
			Name:      "llm_tokens_total",
			Help:      "Total language model tokens consumed",
		},
		[]string{"provider", "model", "type"}, // "prompt" / "completion"
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers Prometheus pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(RunsTotal)
	prometheus.MustRegister(RunDuration)
	prometheus.MustRegister(StageDuration)
	prometheus.MustRegister(CheckpointTotal)
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchRetriesTotal)
	prometheus.MustRegister(DepthEscalationsTotal)
	prometheus.MustRegister(LLMRequestsTotal)
	prometheus.MustRegister(LLMRequestDuration)
	prometheus.MustRegister(LLMTokensTotal)
	pipelineMetricsRegistered = true
}
