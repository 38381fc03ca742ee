// Package metrics holds the Prometheus collectors shared by the HTTP layer
// and the belief services.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPErrors   prometheus.Counter
	HTTPDuration *prometheus.HistogramVec

	SignalsExtracted  *prometheus.CounterVec
	ExtractionSeconds prometheus.Histogram
	ScorerFailures    prometheus.Counter

	HypothesisUpdates *prometheus.CounterVec
	Confidence        *prometheus.GaugeVec
	DriftUncertain    prometheus.Gauge
}

// New builds a fresh registry with process/Go collectors and every
// application collector registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "echoform_http_requests_total",
			Help: "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		HTTPErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "echoform_http_errors_total",
			Help: "HTTP responses with status >= 400.",
		}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "echoform_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		SignalsExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "echoform_signals_extracted_total",
			Help: "Signals emitted by the extractor per axis.",
		}, []string{"axis"}),
		ExtractionSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "echoform_extraction_duration_seconds",
			Help:    "Time spent scoring a reflection against all anchors.",
			Buckets: prometheus.DefBuckets,
		}),
		ScorerFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "echoform_scorer_failures_total",
			Help: "Extraction passes that failed because the similarity scorer errored.",
		}),
		HypothesisUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "echoform_hypothesis_updates_total",
			Help: "Committed hypothesis updates per axis and context.",
		}, []string{"axis", "context"}),
		Confidence: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "echoform_hypothesis_confidence",
			Help: "Most recently committed confidence per axis.",
		}, []string{"axis"}),
		DriftUncertain: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "echoform_drift_uncertain",
			Help: "1 when the two leading hypotheses are too close to call.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPErrors,
		m.HTTPDuration,
		m.SignalsExtracted,
		m.ExtractionSeconds,
		m.ScorerFailures,
		m.HypothesisUpdates,
		m.Confidence,
		m.DriftUncertain,
	)
	return m
}
