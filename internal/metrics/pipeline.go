package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline Prometheus metrics.
var (
	DocumentsIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reguwatch",
			Name:      "documents_ingested_total",
			Help:      "Total number of newly ingested documents",
		},
		[]string{"source"},
	)

	DocumentsDedupedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reguwatch",
			Name:      "documents_deduped_total",
			Help:      "Total number of documents dropped as already seen",
		},
		[]string{"source"},
	)

	SourceErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reguwatch",
			Name:      "source_errors_total",
			Help:      "Total number of source adapter fetch failures",
		},
		[]string{"source"},
	)

	AlertsGeneratedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reguwatch",
			Name:      "alerts_generated_total",
			Help:      "Total number of alerts emitted by the risk engine",
		},
		[]string{"type", "severity"},
	)

	IngestCycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "reguwatch",
			Name:      "ingest_cycle_duration_seconds",
			Help:      "Duration of a full ingestion cycle in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	IndexSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "reguwatch",
			Name:      "index_vectors",
			Help:      "Number of vectors currently held in the index",
		},
	)
)

// Embedding Prometheus metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reguwatch",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reguwatch",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EmbeddingFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "reguwatch",
			Name:      "embedding_fallbacks_total",
			Help:      "Total number of embeddings served by the deterministic hash fallback",
		},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reguwatch",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers pipeline and embedding metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(DocumentsIngestedTotal)
	prometheus.MustRegister(DocumentsDedupedTotal)
	prometheus.MustRegister(SourceErrorsTotal)
	prometheus.MustRegister(AlertsGeneratedTotal)
	prometheus.MustRegister(IngestCycleDuration)
	prometheus.MustRegister(IndexSize)
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(EmbeddingFallbacksTotal)
	prometheus.MustRegister(EmbeddingCacheTotal)
	pipelineMetricsRegistered = true
}
