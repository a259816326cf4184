package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineMetrics instruments the retrieval and generation pipeline.
// A nil *PipelineMetrics is valid and records nothing, so use cases can
// run without observability wired in.
type PipelineMetrics struct {
	registry *prometheus.Registry
	service  string

	searchTotal     *prometheus.CounterVec
	searchDuration  *prometheus.HistogramVec
	searchResults   prometheus.Histogram
	cacheEvents     *prometheus.CounterVec
	branchFailures  *prometheus.CounterVec
	answersTotal    *prometheus.CounterVec
	answersInFlight prometheus.Gauge
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	searchTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragline",
			Subsystem: "pipeline",
			Name:      "search_total",
			Help:      "Total search requests by strategy.",
		},
		[]string{"service", "strategy"},
	)
	searchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ragline",
			Subsystem: "pipeline",
			Name:      "search_duration_seconds",
			Help:      "Search duration in seconds by strategy.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "strategy"},
	)
	searchResults := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   "ragline",
			Subsystem:   "pipeline",
			Name:        "search_results",
			Help:        "Result count per search response.",
			Buckets:     []float64{0, 1, 2, 5, 10, 20, 50},
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	cacheEvents := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragline",
			Subsystem: "pipeline",
			Name:      "cache_events_total",
			Help:      "Result cache hits and misses.",
		},
		[]string{"service", "event"},
	)
	branchFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragline",
			Subsystem: "pipeline",
			Name:      "retrieval_branch_failures_total",
			Help:      "Degraded retrieval branches by branch name.",
		},
		[]string{"service", "branch"},
	)
	answersTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragline",
			Subsystem: "pipeline",
			Name:      "answers_total",
			Help:      "Completed generation requests by quality level.",
		},
		[]string{"service", "quality"},
	)
	answersInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "ragline",
			Subsystem:   "pipeline",
			Name:        "answers_in_flight",
			Help:        "Generation requests currently in progress.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)

	registry.MustRegister(searchTotal, searchDuration, searchResults, cacheEvents, branchFailures, answersTotal, answersInFlight)

	return &PipelineMetrics{
		registry:        registry,
		service:         service,
		searchTotal:     searchTotal,
		searchDuration:  searchDuration,
		searchResults:   searchResults,
		cacheEvents:     cacheEvents,
		branchFailures:  branchFailures,
		answersTotal:    answersTotal,
		answersInFlight: answersInFlight,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) ObserveSearch(strategy string, duration time.Duration, results int) {
	if m == nil {
		return
	}
	m.searchTotal.WithLabelValues(m.service, strategy).Inc()
	m.searchDuration.WithLabelValues(m.service, strategy).Observe(duration.Seconds())
	m.searchResults.Observe(float64(results))
}

func (m *PipelineMetrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheEvents.WithLabelValues(m.service, "hit").Inc()
}

func (m *PipelineMetrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheEvents.WithLabelValues(m.service, "miss").Inc()
}

func (m *PipelineMetrics) BranchFailure(branch string) {
	if m == nil {
		return
	}
	m.branchFailures.WithLabelValues(m.service, branch).Inc()
}

func (m *PipelineMetrics) StartGeneration() {
	if m == nil {
		return
	}
	m.answersInFlight.Inc()
}

func (m *PipelineMetrics) FinishGeneration(quality string) {
	if m == nil {
		return
	}
	m.answersInFlight.Dec()
	m.answersTotal.WithLabelValues(m.service, quality).Inc()
}
