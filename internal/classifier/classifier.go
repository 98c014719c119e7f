// Package classifier runs the batch pipeline: for every n-gram size it reloads
// the inputs, ranks each query against the category vectors, looks up sample
// titles for the best category and writes the two CSV reports.
package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/internal/events"
	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/internal/loader"
	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/internal/ngram"
	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/internal/ranker"
	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/internal/report"
	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/internal/titles"
	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/ngram-classifier/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/pkg/tracing"
)

// SummaryStore persists the summaries of a finished run.
type SummaryStore interface {
	SaveRun(ctx context.Context, summaries []evaluation.Summary) error
}

// Classifier wires the loader, vectorizer, ranker, title lookup and reports.
type Classifier struct {
	cfg     config.ClassifierConfig
	data    config.DataConfig
	loader  *loader.Loader
	titles  titles.Lookup
	metrics *metrics.Metrics
	events  *events.Batcher
	store   SummaryStore
	runID   string
	logger  *slog.Logger
}

type Option func(*Classifier)

// WithTitles replaces the on-disk title source, e.g. with a cache.
func WithTitles(l titles.Lookup) Option {
	return func(c *Classifier) { c.titles = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Classifier) { c.metrics = m }
}

// WithEvents publishes one event per query through b.
func WithEvents(b *events.Batcher) Option {
	return func(c *Classifier) { c.events = b }
}

func WithStore(s SummaryStore) Option {
	return func(c *Classifier) { c.store = s }
}

// WithRunID tags summaries, events and traces with id.
func WithRunID(id string) Option {
	return func(c *Classifier) { c.runID = id }
}

func New(cfg *config.Config, opts ...Option) *Classifier {
	c := &Classifier{
		cfg:     cfg.Classifier,
		data:    cfg.Data,
		loader:  loader.New(cfg.Data),
		titles:  titles.NewDirSource(cfg.Data.TitlesDir),
		metrics: metrics.New(),
		logger:  logger.WithComponent("classifier"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunAll classifies the queries once per n-gram size in the configured range.
// It stops at the first fatal error; reports of completed sizes stay on disk.
func (c *Classifier) RunAll(ctx context.Context, queriesPath string) ([]evaluation.Summary, error) {
	summaries := make([]evaluation.Summary, 0, c.cfg.MaxNGram-c.cfg.MinNGram+1)
	for n := c.cfg.MinNGram; n <= c.cfg.MaxNGram; n++ {
		summary, err := c.Run(ctx, queriesPath, n)
		if err != nil {
			return summaries, fmt.Errorf("n-gram size %d: %w", n, err)
		}
		summaries = append(summaries, summary)
	}

	if c.cfg.WriteSummary {
		path, err := report.WriteSummary(c.data.OutputDir, summaries)
		if err != nil {
			return summaries, err
		}
		c.logger.Info("accuracy summary written", "path", path)
	}
	if c.store != nil {
		if err := c.store.SaveRun(ctx, summaries); err != nil {
			c.logger.Error("persisting run summaries failed", "error", err)
		}
	}
	return summaries, nil
}

// Run performs one iteration for n-gram size n.
func (c *Classifier) Run(ctx context.Context, queriesPath string, n int) (evaluation.Summary, error) {
	start := time.Now()
	log := logger.WithNGram("classifier", n)
	label := metrics.Label(n)

	ctx, span := tracing.StartSpan(ctx, "ngram_iteration", c.runID)
	span.SetAttr("ngram_size", n)
	defer func() {
		span.End()
		span.Log(log)
	}()

	_, loadSpan := tracing.StartChildSpan(ctx, "load")
	ds, err := c.loader.Load(queriesPath)
	loadSpan.End()
	if err != nil {
		return evaluation.Summary{}, err
	}
	loadSpan.SetAttr("vocabulary", ds.Vocab.Len())
	loadSpan.SetAttr("categories", ds.Categories.Len())
	loadSpan.SetAttr("queries", len(ds.Queries))

	results, err := report.NewResultsWriter(c.data.OutputDir, n)
	if err != nil {
		return evaluation.Summary{}, err
	}
	defer results.Abort()
	labels, err := report.NewLabelsWriter(c.data.OutputDir, n)
	if err != nil {
		return evaluation.Summary{}, err
	}
	defer labels.Abort()

	agg := evaluation.NewAggregator(c.runID, n)
	opts := ngram.Options{Size: n, Normalize: c.cfg.NormalizeFrequencies}

	classifyCtx, classifySpan := tracing.StartChildSpan(ctx, "classify")
	defer classifySpan.End()
	for _, q := range ds.Queries {
		if err := classifyCtx.Err(); err != nil {
			return evaluation.Summary{}, err
		}

		vec := ngram.QueryVector(ds.Vocab, q, opts)
		ranked := ranker.Rank(vec, ds.Categories, c.cfg.TopK)
		top := ranked[0]

		found, err := c.titles.Titles(classifyCtx, top.Category)
		if err != nil {
			if !apperrors.Recoverable(err) {
				return evaluation.Summary{}, err
			}
			log.Warn("skipping query", "query", q, "category", top.Category, "error", err)
			agg.Skip()
			c.metrics.QueriesTotal.WithLabelValues(label, metrics.ResultSkipped).Inc()
			c.track(classifyCtx, events.ClassificationEvent{
				Type:      events.EventSkipped,
				NGramSize: n,
				Query:     q,
				Ranked:    ranked,
				Reason:    err.Error(),
			})
			continue
		}

		truth, ok := ds.GroundTruth[q]
		if !ok {
			return evaluation.Summary{}, apperrors.Newf(apperrors.ErrMissingLabel, "%q", q)
		}
		predicted := report.DisplayName(top.Category)
		correct := agg.Record(truth, predicted, top.Score)

		if err := results.Write(report.Result{Query: q, Ranked: ranked, Titles: titles.First(found, c.cfg.MaxTitles)}); err != nil {
			return evaluation.Summary{}, err
		}
		if err := labels.Write(report.Label{Query: q, True: truth, Predicted: predicted}); err != nil {
			return evaluation.Summary{}, err
		}

		c.metrics.QueriesTotal.WithLabelValues(label, metrics.ResultClassified).Inc()
		c.metrics.TopScore.WithLabelValues(label).Observe(top.Score)
		if correct {
			c.metrics.CorrectTotal.WithLabelValues(label).Inc()
		}
		c.track(classifyCtx, events.ClassificationEvent{
			Type:      events.EventClassified,
			NGramSize: n,
			Query:     q,
			TrueLabel: truth,
			Predicted: predicted,
			Correct:   correct,
			Ranked:    ranked,
		})
	}
	classifySpan.End()

	_, reportSpan := tracing.StartChildSpan(ctx, "report")
	defer reportSpan.End()
	if err := results.Commit(); err != nil {
		return evaluation.Summary{}, err
	}
	if err := labels.Commit(); err != nil {
		return evaluation.Summary{}, err
	}
	if c.events != nil {
		c.events.Flush(ctx)
	}
	reportSpan.SetAttr("rows", results.Rows())
	reportSpan.End()

	summary := agg.Summary()
	c.metrics.Accuracy.WithLabelValues(label).Set(summary.Accuracy)
	c.metrics.IterationDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

	log.Info("iteration complete",
		"queries", summary.TotalQueries,
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"correct", summary.Correct,
		"accuracy", summary.Accuracy,
		"results", results.Path(),
		"labels", labels.Path(),
	)
	return summary, nil
}

func (c *Classifier) track(ctx context.Context, event events.ClassificationEvent) {
	if c.events == nil {
		return
	}
	event.RunID = c.runID
	event.Timestamp = time.Now().UTC()
	c.events.Track(ctx, event)
}
