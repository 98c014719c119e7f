// Package metrics defines the Prometheus metric collectors used by the
// classifier and exposes them for scraping or textfile export.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Query outcomes used as the "result" label.
const (
	ResultClassified = "classified"
	ResultSkipped    = "skipped"
)

// Metrics holds all Prometheus collectors for the classifier.
type Metrics struct {
	Registry *prometheus.Registry

	QueriesTotal      *prometheus.CounterVec
	CorrectTotal      *prometheus.CounterVec
	TopScore          *prometheus.HistogramVec
	Accuracy          *prometheus.GaugeVec
	IterationDuration *prometheus.HistogramVec
	TitleCacheHits    prometheus.Counter
	TitleCacheMisses  prometheus.Counter
	EventsPublished   *prometheus.CounterVec
}

// New creates all collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "classifier_queries_total",
				Help: "Queries processed by n-gram size and result (classified, skipped).",
			},
			[]string{"ngram_size", "result"},
		),
		CorrectTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "classifier_correct_predictions_total",
				Help: "Queries whose predicted label matched the ground truth.",
			},
			[]string{"ngram_size"},
		),
		TopScore: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "classifier_top_score",
				Help:    "Cosine similarity of the best category per query.",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
			[]string{"ngram_size"},
		),
		Accuracy: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "classifier_accuracy_ratio",
				Help: "Share of processed queries classified correctly in the last run.",
			},
			[]string{"ngram_size"},
		),
		IterationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "classifier_iteration_duration_seconds",
				Help:    "Wall time of one n-gram iteration.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
			[]string{"ngram_size"},
		),
		TitleCacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "classifier_title_cache_hits_total",
				Help: "Title lookups served from the cache.",
			},
		),
		TitleCacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "classifier_title_cache_misses_total",
				Help: "Title lookups that fell through to disk.",
			},
		),
		EventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "classifier_events_published_total",
				Help: "Classification events sent to Kafka by status.",
			},
			[]string{"status"},
		),
	}

	m.Registry.MustRegister(
		m.QueriesTotal,
		m.CorrectTotal,
		m.TopScore,
		m.Accuracy,
		m.IterationDuration,
		m.TitleCacheHits,
		m.TitleCacheMisses,
		m.EventsPublished,
	)

	return m
}

// Label formats an n-gram size as a label value.
func Label(n int) string {
	return strconv.Itoa(n)
}

// Handler returns the Prometheus scrape HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the current metric values in the text exposition
// format, for node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("writing metrics textfile %s: %w", path, err)
	}
	return nil
}
