// Package metrics exposes the Prometheus counters and gauges the pipeline
// and HTTP entrypoints publish on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sentinel"

// Metrics bundles every collector the service registers. A fresh instance
// backed by its own registry is cheap to build, which keeps unit tests free
// of global-registry collisions.
type Metrics struct {
	EventsProcessedTotal   *prometheus.CounterVec
	AlertsSentTotal        *prometheus.CounterVec
	CorrelationsFoundTotal *prometheus.CounterVec
	PipelineTickDuration   prometheus.Histogram
	QueueDepth             prometheus.Gauge
	LastProcessedAt        prometheus.Gauge
	HTTPRequestsTotal      *prometheus.CounterVec
	HTTPRequestDuration    *prometheus.HistogramVec
}

// New registers Metrics against the global default registerer.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers Metrics against reg, letting tests use a fresh
// prometheus.NewRegistry() instead of the process-global default.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsProcessedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_processed_total",
			Help:      "Total events taken off the queue and normalized into the store.",
		}, []string{"source"}),
		AlertsSentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_sent_total",
			Help:      "Total alerts dispatched, by kind (event|correlation) and sink.",
		}, []string{"kind", "sink"}),
		CorrelationsFoundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "correlations_found_total",
			Help:      "Total correlation records produced, by rule name.",
		}, []string{"rule"}),
		PipelineTickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_tick_duration_seconds",
			Help:      "Wall-clock duration of one pipeline poll-process-alert tick.",
			Buckets:   prometheus.DefBuckets,
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Events observed in-flight at the start of the most recent tick.",
		}),
		LastProcessedAt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_processed_at_unix_seconds",
			Help:      "Unix timestamp of the last successfully completed pipeline tick.",
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests served, by method, route, and status.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	reg.MustRegister(
		m.EventsProcessedTotal,
		m.AlertsSentTotal,
		m.CorrelationsFoundTotal,
		m.PipelineTickDuration,
		m.QueueDepth,
		m.LastProcessedAt,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)
	return m
}
