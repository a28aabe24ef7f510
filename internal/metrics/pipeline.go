package metrics

import "github.com/prometheus/client_golang/prometheus"

// File pipeline and assistant Prometheus metrics.
var (
	FilesParsedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_parsed_total",
			Help:      "Uploaded files parsed, by detected type and outcome",
		},
		[]string{"file_type", "status"}, // status: ok / unsupported / error
	)

	ValidationScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "validation_score",
			Help:      "Quality score of validated files",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		},
	)

	ChunksIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "knowledge_chunks_total",
			Help:      "Chunks processed for the knowledge base",
		},
		[]string{"status"}, // added / failed
	)

	KnowledgeChunks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "knowledge_chunks",
			Help:      "Chunks currently held in the knowledge base",
		},
	)

	CompletionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_requests_total",
			Help:      "Total number of completion requests",
		},
		[]string{"provider", "model", "status"},
	)

	CompletionRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_request_duration_seconds",
			Help:      "Completion request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)

	CompletionTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_tokens_total",
			Help:      "Total completion tokens consumed",
		},
		[]string{"provider", "model", "type"}, // type: prompt / completion
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers file, knowledge and completion metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(FilesParsedTotal)
	prometheus.MustRegister(ValidationScore)
	prometheus.MustRegister(ChunksIngestedTotal)
	prometheus.MustRegister(KnowledgeChunks)
	prometheus.MustRegister(CompletionRequestsTotal)
	prometheus.MustRegister(CompletionRequestDuration)
	prometheus.MustRegister(CompletionTokensTotal)
	pipelineMetricsRegistered = true
}
