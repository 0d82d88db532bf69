// Package metrics exposes Prometheus collectors for the ingestion pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "news_comb"

// Outcome labels for processed candidates
const (
	OutcomeStored    = "stored"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

// Metrics holds the collectors of one process. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ArticlesProcessed  *prometheus.CounterVec
	ArticlesClassified *prometheus.CounterVec
	SourceErrors       *prometheus.CounterVec
	ProcessingDuration prometheus.Histogram
	CyclesTotal        *prometheus.CounterVec
	CycleDuration      prometheus.Histogram
	LastCycleStored    prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		ArticlesProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_processed_total",
			Help:      "Candidate articles processed, by source and outcome (stored, duplicate, failed)",
		}, []string{"source", "outcome"}),

		ArticlesClassified: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_classified_total",
			Help:      "Articles classified, by assigned topic",
		}, []string{"topic"}),

		SourceErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_errors_total",
			Help:      "Sources whose discovery failed during a cycle",
		}, []string{"source"}),

		ProcessingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "article_processing_duration_seconds",
			Help:      "Time to fetch, classify, encode and store a single candidate",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),

		CyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "update_cycles_total",
			Help:      "Update cycles run, by status (completed, failed)",
		}, []string{"status"}),

		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "update_cycle_duration_seconds",
			Help:      "Duration of a full update cycle",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),

		LastCycleStored: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_cycle_stored_articles",
			Help:      "Articles stored by the most recent update cycle",
		}),
	}
}

// Handler returns the HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordArticle(source, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ArticlesProcessed.WithLabelValues(source, outcome).Inc()
	m.ProcessingDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordClassification(topic string) {
	if m == nil {
		return
	}
	m.ArticlesClassified.WithLabelValues(topic).Inc()
}

func (m *Metrics) RecordSourceError(source string) {
	if m == nil {
		return
	}
	m.SourceErrors.WithLabelValues(source).Inc()
}

func (m *Metrics) RecordCycle(status string, stored int, duration time.Duration) {
	if m == nil {
		return
	}
	m.CyclesTotal.WithLabelValues(status).Inc()
	m.CycleDuration.Observe(duration.Seconds())
	m.LastCycleStored.Set(float64(stored))
}
