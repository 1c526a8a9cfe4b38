package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	MetricsNamespace        = "groundsearch"
	MetricsSubsystemSystem  = "system"
	MetricsSubsystemHTTP    = "http"
	MetricsSubsystemSearch  = "search"
	MetricsSubsystemSession = "session"

	MetricsVersionLabel = "version"
)

// Recorder is what the orchestrator and handlers report to. A nil
// *Metrics is a valid Recorder that records nothing.
type Recorder interface {
	ObserveSearch(provider, outcome string, elapsed float64)
	IncrementStaleResults()
	SessionOpened()
	SessionClosed()
	ObserveHTTPRequest(route, method, statusCode string, elapsed float64)
}

// Metrics holds the prometheus collectors of one process
type Metrics struct {
	registry *prometheus.Registry

	startTime prometheus.Gauge
	info      prometheus.Gauge

	searchesTotal  *prometheus.CounterVec
	searchDuration *prometheus.HistogramVec
	staleResults   prometheus.Counter

	sessionsActive prometheus.Gauge
	sessionsTotal  prometheus.Counter

	httpDuration *prometheus.HistogramVec
}

// New creates a registry with process and Go collectors plus the search metrics
func New(version string) *Metrics {
	m := &Metrics{}

	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{
		Namespace: MetricsNamespace,
	}))
	m.registry.MustRegister(collectors.NewGoCollector())

	m.startTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemSystem,
		Name:      "start_timestamp_seconds",
		Help:      "The time the server started.",
	})
	m.startTime.SetToCurrentTime()
	m.registry.MustRegister(m.startTime)

	m.info = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   MetricsNamespace,
		Subsystem:   MetricsSubsystemSystem,
		Name:        "info",
		Help:        "The server version.",
		ConstLabels: prometheus.Labels{MetricsVersionLabel: version},
	})
	m.info.Set(1)
	m.registry.MustRegister(m.info)

	m.searchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemSearch,
		Name:      "requests_total",
		Help:      "Search calls by provider and outcome (success, error kind).",
	}, []string{"provider", "outcome"})
	m.registry.MustRegister(m.searchesTotal)

	m.searchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemSearch,
		Name:      "duration_seconds",
		Help:      "Time spent waiting for the search call.",
		Buckets:   []float64{0.5, 1, 2, 4, 8, 16, 32, 64},
	}, []string{"provider"})
	m.registry.MustRegister(m.searchDuration)

	m.staleResults = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemSearch,
		Name:      "stale_results_total",
		Help:      "Results discarded because a newer search was submitted.",
	})
	m.registry.MustRegister(m.staleResults)

	m.sessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemSession,
		Name:      "active",
		Help:      "Open page sessions.",
	})
	m.registry.MustRegister(m.sessionsActive)

	m.sessionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemSession,
		Name:      "opened_total",
		Help:      "Page sessions opened since start.",
	})
	m.registry.MustRegister(m.sessionsTotal)

	m.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemHTTP,
		Name:      "time_seconds",
		Help:      "Time to execute the http handler.",
	}, []string{"route", "method", "status_code"})
	m.registry.MustRegister(m.httpDuration)

	return m
}

func (m *Metrics) GetRegistry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveSearch(provider, outcome string, elapsed float64) {
	if m == nil {
		return
	}
	m.searchesTotal.With(prometheus.Labels{"provider": provider, "outcome": outcome}).Inc()
	m.searchDuration.With(prometheus.Labels{"provider": provider}).Observe(elapsed)
}

func (m *Metrics) IncrementStaleResults() {
	if m != nil {
		m.staleResults.Inc()
	}
}

func (m *Metrics) SessionOpened() {
	if m != nil {
		m.sessionsActive.Inc()
		m.sessionsTotal.Inc()
	}
}

func (m *Metrics) SessionClosed() {
	if m != nil {
		m.sessionsActive.Dec()
	}
}

func (m *Metrics) ObserveHTTPRequest(route, method, statusCode string, elapsed float64) {
	if m != nil {
		m.httpDuration.With(prometheus.Labels{"route": route, "method": method, "status_code": statusCode}).Observe(elapsed)
	}
}
