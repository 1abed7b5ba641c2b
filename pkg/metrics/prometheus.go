// Package metrics provides Prometheus metrics for the radar scoring pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the radar service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Ingestion
	eventsAccepted  prometheus.Counter
	eventsRejected  prometheus.Counter
	eventsDeduped   prometheus.Counter
	ingestBatchSize prometheus.Histogram

	// Pipeline
	momentumRuns        prometheus.Counter
	scoringRuns         prometheus.Counter
	scoringFailures     prometheus.Counter
	lowConfidenceScores prometheus.Counter
	scoringDuration     prometheus.Histogram

	// Context adapters
	adapterCalls    *prometheus.CounterVec
	adapterFailures *prometheus.CounterVec
	breakerState    *prometheus.GaugeVec

	// Recompute queue and workers
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	queueEnqueueError prometheus.Counter
	workerActive      prometheus.Gauge
	recomputeJobs     prometheus.Counter
	recomputeFailures prometheus.Counter

	// Business state
	candidatesTracked  prometheus.Gauge
	insightsGenerated  prometheus.Counter
	insightsSuppressed prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "radar",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.eventsAccepted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "events_accepted_total", Help: "Signal events accepted by ingestion.",
	})
	m.eventsRejected = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "events_rejected_total", Help: "Signal events rejected by per-item validation.",
	})
	m.eventsDeduped = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "events_deduplicated_total", Help: "Signal events skipped as natural-key duplicates.",
	})
	m.ingestBatchSize = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "ingest_batch_size", Help: "Size of ingested event batches.",
		Buckets: []float64{1, 10, 50, 100, 250, 500, 1000},
	})

	m.momentumRuns = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "momentum_runs_total", Help: "Momentum computation runs.",
	})
	m.scoringRuns = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "scoring_runs_total", Help: "Composite scoring runs.",
	})
	m.scoringFailures = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "scoring_failures_total", Help: "Scoring runs that failed to persist.",
	})
	m.lowConfidenceScores = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "low_confidence_scores_total", Help: "Composite scores flagged low confidence.",
	})
	m.scoringDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "scoring_duration_ms", Help: "End-to-end per-candidate pipeline duration in milliseconds.",
		Buckets: m.histogramBuckets,
	})

	m.adapterCalls = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "adapter_calls_total", Help: "Context adapter fetches.",
	}, []string{"adapter"})
	m.adapterFailures = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "adapter_failures_total", Help: "Context adapter fetch failures.",
	}, []string{"adapter"})
	m.breakerState = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "adapter_breaker_state", Help: "Circuit breaker state per adapter (0 closed, 1 half-open, 2 open).",
	}, []string{"adapter"})

	m.queueSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "recompute_queue_size", Help: "Recompute jobs currently queued.",
	})
	m.queueCapacity = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "recompute_queue_capacity", Help: "Recompute queue capacity.",
	})
	m.queueEnqueueError = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "recompute_enqueue_errors_total", Help: "Recompute jobs refused by the queue.",
	})
	m.workerActive = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "workers_active", Help: "Recompute workers running.",
	})
	m.recomputeJobs = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "recompute_jobs_total", Help: "Per-candidate recompute jobs completed.",
	})
	m.recomputeFailures = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "recompute_failures_total", Help: "Per-candidate recompute jobs that failed.",
	})

	m.candidatesTracked = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "candidates_tracked", Help: "Candidates known to the radar.",
	})
	m.insightsGenerated = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "insights_generated_total", Help: "Insights emitted.",
	})
	m.insightsSuppressed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "insights_suppressed_total", Help: "Insights suppressed below the magnitude threshold.",
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_requests_total", Help: "HTTP requests by endpoint, method, and status.",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_request_duration_ms", Help: "HTTP request duration in milliseconds.",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})
}

// GetRegistry returns the registry behind the global manager, for serving
// via promhttp.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers recording through the global manager.

func RecordEventAccepted() { globalManager.eventsAccepted.Inc() }
func RecordEventRejected() { globalManager.eventsRejected.Inc() }
func RecordEventDuplicate() { globalManager.eventsDeduped.Inc() }
func ObserveBatchSize(n int) { globalManager.ingestBatchSize.Observe(float64(n)) }

func RecordMomentumRun() { globalManager.momentumRuns.Inc() }
func RecordScoringRun() { globalManager.scoringRuns.Inc() }
func RecordScoringFailure() { globalManager.scoringFailures.Inc() }
func RecordLowConfidenceScore() { globalManager.lowConfidenceScores.Inc() }
func RecordScoringDuration(ms float64) { globalManager.scoringDuration.Observe(ms) }

func RecordAdapterCall(adapter string) { globalManager.adapterCalls.WithLabelValues(adapter).Inc() }
func RecordAdapterFailure(adapter string) { globalManager.adapterFailures.WithLabelValues(adapter).Inc() }
func UpdateBreakerState(adapter string, state float64) {
	globalManager.breakerState.WithLabelValues(adapter).Set(state)
}

func UpdateQueueSize(n int) { globalManager.queueSize.Set(float64(n)) }
func UpdateQueueCapacity(n int) { globalManager.queueCapacity.Set(float64(n)) }
func RecordQueueEnqueueError() { globalManager.queueEnqueueError.Inc() }
func UpdateWorkerActiveCount(n int) { globalManager.workerActive.Set(float64(n)) }
func RecordRecomputeJob() { globalManager.recomputeJobs.Inc() }
func RecordRecomputeFailure() { globalManager.recomputeFailures.Inc() }

func UpdateCandidatesTracked(n int) { globalManager.candidatesTracked.Set(float64(n)) }
func RecordInsightGenerated() { globalManager.insightsGenerated.Inc() }
func RecordInsightSuppressed() { globalManager.insightsSuppressed.Inc() }

func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}
