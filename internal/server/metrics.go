package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records reconciliation engine activity.
type Metrics struct {
	duplicateChecks *prometheus.CounterVec
	matchRequests   *prometheus.CounterVec
	matchScores     prometheus.Histogram
}

func NewMetrics() *Metrics {
	return &Metrics{
		duplicateChecks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconciler_duplicate_checks_total",
				Help: "Total duplicate checks by decision basis",
			},
			[]string{"basis"},
		),
		matchRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconciler_match_requests_total",
				Help: "Total line-item match requests by acceptance",
			},
			[]string{"accepted"},
		),
		matchScores: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "reconciler_match_best_score",
				Help:    "Distribution of best match scores",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
		),
	}
}

func (m *Metrics) RecordDuplicateCheck(basis string) {
	m.duplicateChecks.WithLabelValues(basis).Inc()
}

func (m *Metrics) RecordMatch(accepted bool, bestScore float64) {
	label := "false"
	if accepted {
		label = "true"
	}
	m.matchRequests.WithLabelValues(label).Inc()
	m.matchScores.Observe(bestScore)
}
