package metrics

import (
	"github.com/danielpatrickdp/regioncheck/internal/eval"
	"github.com/danielpatrickdp/regioncheck/internal/validate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Evaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "regioncheck_evaluations_total",
			Help: "Total number of classified points",
		},
		[]string{"verdict", "shape"},
	)

	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "regioncheck_validation_failures_total",
			Help: "Total number of rejected input fields",
		},
		[]string{"field"},
	)

	DomainErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "regioncheck_domain_errors_total",
			Help: "Classifications refused because the region was undefined",
		},
	)

	ClassifyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "regioncheck_classify_duration_seconds",
			Help:    "Time spent inside the classifier",
			Buckets: prometheus.ExponentialBuckets(1e-8, 4, 10),
		},
	)

	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "regioncheck_requests_total",
			Help: "Total number of requests by transport, route and status",
		},
		[]string{"transport", "route", "status"},
	)

	FeedConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "regioncheck_feed_connections",
			Help: "Open live-feed websocket connections",
		},
	)
)

// #region observe

// ObserveRecord counts one evaluation and its classifier latency.
func ObserveRecord(rec eval.Record) {
	verdict := "miss"
	if rec.Hit {
		verdict = "hit"
	}
	Evaluations.WithLabelValues(verdict, string(rec.Shape)).Inc()
	ClassifyDuration.Observe(rec.Duration.Seconds())
}

// ObserveValidation counts every rejected field of a submission.
func ObserveValidation(ve *validate.ValidationError) {
	for _, f := range ve.Fields {
		ValidationFailures.WithLabelValues(f.Field).Inc()
	}
}

// #endregion observe
