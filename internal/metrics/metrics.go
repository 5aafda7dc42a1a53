// Package metrics holds the Prometheus collectors of the jobsearch service.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcomes used as the "outcome" label.
const (
	OutcomeOK          = "ok"
	OutcomeNetwork     = "network_error"
	OutcomeStatus      = "status_error"
	OutcomeDecode      = "decode_error"
	OutcomeCircuitOpen = "circuit_open"
	OutcomeCanceled    = "canceled"
)

type Metrics struct {
	registry *prometheus.Registry

	sourceRequests   *prometheus.CounterVec
	sourceDuration   *prometheus.HistogramVec
	aggregateRecords prometheus.Histogram
	activeSessions   prometheus.Gauge
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sourceRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobsearch_source_requests_total",
			Help: "Provider requests by source and outcome.",
		}, []string{"source", "outcome"}),
		sourceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jobsearch_source_duration_seconds",
			Help:    "Provider request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		aggregateRecords: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "jobsearch_aggregate_records",
			Help:    "Records combined per aggregation run, before dedup.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jobsearch_sessions_active",
			Help: "Search sessions currently held in memory.",
		}),
	}
	m.registry.MustRegister(
		m.sourceRequests,
		m.sourceDuration,
		m.aggregateRecords,
		m.activeSessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveFetch(source, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.sourceRequests.WithLabelValues(source, outcome).Inc()
	m.sourceDuration.WithLabelValues(source).Observe(took.Seconds())
}

func (m *Metrics) ObserveAggregate(records int) {
	if m == nil {
		return
	}
	m.aggregateRecords.Observe(float64(records))
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}
