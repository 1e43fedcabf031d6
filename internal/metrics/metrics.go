// Package metrics exposes Prometheus collectors for pipeline runs.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors shared by the pipeline stages.
type Metrics struct {
	Runs            *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	IngestedRecords *prometheus.CounterVec
	FilteredTexts   *prometheus.CounterVec
	ClassifierCalls *prometheus.CounterVec
	ClassifiedPairs *prometheus.CounterVec
	Score           prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentiment_runs_total",
				Help: "Pipeline runs by outcome",
			},
			[]string{"outcome"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sentiment_run_duration_seconds",
				Help:    "Duration of a full pipeline run",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
		),
		IngestedRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentiment_ingested_items_total",
				Help: "Fetched items by source and ingestion outcome",
			},
			[]string{"source", "outcome"},
		),
		FilteredTexts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentiment_filtered_texts_total",
				Help: "Texts surviving the content filter by source",
			},
			[]string{"source"},
		),
		ClassifierCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentiment_classifier_batches_total",
				Help: "Classifier batch submissions by status",
			},
			[]string{"status"},
		),
		ClassifiedPairs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentiment_classified_sentences_total",
				Help: "Classified sentences by class",
			},
			[]string{"sentiment"},
		),
		Score: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sentiment_score",
				Help:    "Normalized score of finished runs",
				Buckets: prometheus.LinearBuckets(10, 10, 10),
			},
		),
	}

	if reg != nil {
		reg.MustRegister(m.Runs, m.RunDuration, m.IngestedRecords, m.FilteredTexts, m.ClassifierCalls, m.ClassifiedPairs, m.Score)
	}
	return m
}

// ObserveRun records one finished run.
func (m *Metrics) ObserveRun(score int, degraded bool, took time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if degraded {
		outcome = "degraded"
	}
	m.Runs.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe(took.Seconds())
	m.Score.Observe(float64(score))
}

// Ingested adds n items of one ingestion outcome.
func (m *Metrics) Ingested(source, outcome string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.IngestedRecords.WithLabelValues(source, outcome).Add(float64(n))
}

// Filtered adds the number of texts kept by the filter.
func (m *Metrics) Filtered(source string, n int) {
	if m == nil {
		return
	}
	m.FilteredTexts.WithLabelValues(source).Add(float64(n))
}

// Batch counts one classifier submission.
func (m *Metrics) Batch(ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "failed"
	}
	m.ClassifierCalls.WithLabelValues(status).Inc()
}

// Classified counts one classified sentence.
func (m *Metrics) Classified(sentiment string) {
	if m == nil {
		return
	}
	m.ClassifiedPairs.WithLabelValues(sentiment).Inc()
}
