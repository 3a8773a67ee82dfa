// Package metrics exposes the engine's Prometheus instruments on a private registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records feature extraction and rule outcomes
type Collector struct {
	registry *prometheus.Registry

	rowsComputed       *prometheus.CounterVec
	flagsRaised        *prometheus.CounterVec
	extractionDuration *prometheus.HistogramVec
	historyErrors      *prometheus.CounterVec
	riskScores         prometheus.Histogram
}

// NewCollector creates a collector with its own registry
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		rowsComputed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "feature_rows_computed_total",
			Help: "Feature rows computed, by path",
		}, []string{"path"}),
		flagsRaised: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "feature_flags_total",
			Help: "Rule flags raised, by flag type",
		}, []string{"type"}),
		extractionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "feature_extraction_duration_seconds",
			Help:    "Time taken to extract features and evaluate rules",
			Buckets: prometheus.DefBuckets,
		}, []string{"path"}),
		historyErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "history_fetch_errors_total",
			Help: "History lookups that failed and fell back to an empty history",
		}, []string{"source"}),
		riskScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "feature_risk_score",
			Help:    "Distribution of classifier risk scores",
			Buckets: []float64{0, 10, 30, 60, 80, 90, 100},
		}),
	}
}

// ObserveExtraction records one extraction call over rows records
func (c *Collector) ObserveExtraction(path string, rows int, duration time.Duration) {
	c.rowsComputed.WithLabelValues(path).Add(float64(rows))
	c.extractionDuration.WithLabelValues(path).Observe(duration.Seconds())
}

// IncFlag counts a raised rule flag
func (c *Collector) IncFlag(flagType string) {
	c.flagsRaised.WithLabelValues(flagType).Inc()
}

// IncHistoryError counts a failed history lookup
func (c *Collector) IncHistoryError(source string) {
	c.historyErrors.WithLabelValues(source).Inc()
}

// ObserveRiskScore records a classifier risk score
func (c *Collector) ObserveRiskScore(score float64) {
	c.riskScores.Observe(score)
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
