package observability

import (
	"time"

	"github.com/IgorSimim/zoopia-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the ZoopIA service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration     *prometheus.HistogramVec
	classifierErrors    prometheus.Counter
	classifierFallbacks *prometheus.CounterVec
	disputeDecisions    *prometheus.CounterVec
	cacheHits           *prometheus.CounterVec
	cacheMisses         *prometheus.CounterVec
	tokensUsed          *prometheus.CounterVec
	requestsTotal       *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zoopia_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		classifierErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "zoopia_classifier_errors_total",
				Help: "Total classifier calls that failed after retries.",
			},
		),
		classifierFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zoopia_classifier_fallbacks_total",
				Help: "Total times a heuristic fallback replaced the classifier.",
			},
			[]string{"operation"},
		),
		disputeDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zoopia_dispute_decisions_total",
				Help: "Total policy decisions by action.",
			},
			[]string{"action"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zoopia_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zoopia_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		tokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zoopia_llm_tokens_total",
				Help: "Total LLM tokens consumed.",
			},
			[]string{"type"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zoopia_requests_total",
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrClassifierError increments the classifier failure counter.
func (m *Metrics) IncrClassifierError() {
	m.classifierErrors.Inc()
}

// IncrClassifierFallback increments the heuristic fallback counter.
func (m *Metrics) IncrClassifierFallback(operation string) {
	m.classifierFallbacks.WithLabelValues(operation).Inc()
}

// IncrDisputeDecision increments the policy decision counter.
func (m *Metrics) IncrDisputeDecision(action string) {
	m.disputeDecisions.WithLabelValues(action).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// RecordTokens records prompt and completion token usage.
func (m *Metrics) RecordTokens(prompt, completion int) {
	m.tokensUsed.WithLabelValues("prompt").Add(float64(prompt))
	m.tokensUsed.WithLabelValues("completion").Add(float64(completion))
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// GetClassifierSnapshot returns a snapshot of classifier-related metrics
// for the GET /v1/metrics/classifier endpoint.
func (m *Metrics) GetClassifierSnapshot() *domain.ClassifierMetrics {
	promptTokens := getCounterValue(m.tokensUsed, "prompt")
	completionTokens := getCounterValue(m.tokensUsed, "completion")
	totalRequests := getCounterValue(m.requestsTotal, "success") +
		getCounterValue(m.requestsTotal, "error")
	errorCount := getCounterValue(m.requestsTotal, "error")

	totalTokens := promptTokens + completionTokens
	avgTokens := float64(0)
	errorRate := float64(0)
	if totalRequests > 0 {
		avgTokens = totalTokens / totalRequests
		errorRate = errorCount / totalRequests
	}

	return &domain.ClassifierMetrics{
		TotalRequests:       int64(totalRequests),
		ErrorRate:           errorRate,
		AvgTokensPerRequest: avgTokens,
		PromptTokens:        int64(promptTokens),
		CompletionTokens:    int64(completionTokens),
		Period:              "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
