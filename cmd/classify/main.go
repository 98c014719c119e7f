// Command classify ranks each query in a file against precomputed category
// n-gram vectors, once per n-gram size in the configured range, and writes
// classification_results_<n>.csv and true_vs_predicted_<n>.csv per size.
//
// Usage:
//
//	classify [-config classifier.yaml] [-refresh-titles] <queries-file>
//	classify [-config classifier.yaml] -last-run
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/internal/classifier"
	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/internal/events"
	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/internal/titles"
	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/ngram-classifier/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/ngram-classifier/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/pkg/resilience"
)

const eventBatchSize = 100

func main() {
	os.Exit(apperrors.ExitCode(run(os.Args[1:])))
}

func run(args []string) error {
	fs := flag.NewFlagSet("classify", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to config file (built-in defaults when empty)")
	refreshTitles := fs.Bool("refresh-titles", false, "drop cached title listings before classifying")
	lastRun := fs.Bool("last-run", false, "print the accuracy of the most recent stored run and exit")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: classify [flags] <queries-file>\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return apperrors.New(apperrors.ErrUsage, err.Error())
	}
	if *lastRun && fs.NArg() != 0 {
		return apperrors.New(apperrors.ErrUsage, "-last-run takes no queries file")
	}
	if !*lastRun && fs.NArg() != 1 {
		fs.Usage()
		return apperrors.New(apperrors.ErrUsage, "expected exactly one queries file")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return err
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *lastRun {
		return printLastRun(ctx, cfg, os.Stdout)
	}
	queriesPath := fs.Arg(0)

	runID := uuid.NewString()
	slog.Info("starting classification run",
		"run_id", runID,
		"queries", queriesPath,
		"min_ngram", cfg.Classifier.MinNGram,
		"max_ngram", cfg.Classifier.MaxNGram,
		"normalize", cfg.Classifier.NormalizeFrequencies,
	)

	m := metrics.New()
	checker := health.NewChecker()
	opts := []classifier.Option{classifier.WithMetrics(m), classifier.WithRunID(runID)}

	closers, backendOpts := connectBackends(ctx, cfg, m, checker, *refreshTitles)
	defer func() {
		for _, closeFn := range closers {
			closeFn()
		}
	}()
	opts = append(opts, backendOpts...)

	if cfg.Metrics.Enabled {
		shutdown := m.StartServer(cfg.Metrics.Port, map[string]http.HandlerFunc{
			"/health/ready": checker.ReadyHandler(),
		})
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	summaries, runErr := classifier.New(cfg, opts...).RunAll(ctx, queriesPath)

	if cfg.Metrics.Textfile != "" {
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			slog.Error("writing metrics textfile failed", "path", cfg.Metrics.Textfile, "error", err)
		}
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			slog.Warn("classification interrupted", "completed_sizes", len(summaries))
		} else {
			slog.Error("classification failed", "error", runErr)
		}
		return runErr
	}

	slog.Info("classification run finished", "run_id", runID, "ngram_sizes", len(summaries))
	return nil
}

// connectBackends dials the optional Redis, PostgreSQL and Kafka backends.
// A backend that is disabled or unreachable is reported to the health
// checker and left out; it never fails the run.
func connectBackends(ctx context.Context, cfg *config.Config, m *metrics.Metrics, checker *health.Checker, refreshTitles bool) ([]func(), []classifier.Option) {
	var (
		closers []func()
		opts    []classifier.Option
	)
	policy := resilience.DefaultPolicy

	if cfg.Redis.Enabled {
		client, err := resilience.Connect(ctx, "redis-connect", policy,
			func(ctx context.Context) (*pkgredis.Client, error) {
				return pkgredis.NewClient(ctx, cfg.Redis)
			})
		if err != nil {
			slog.Warn("redis unavailable, title caching disabled", "error", err)
			checker.Disabled("redis")
		} else {
			closers = append(closers, func() { client.Close() })
			cache := titles.NewCache(client, titles.NewDirSource(cfg.Data.TitlesDir), cfg.Redis.CacheTTL).
				WithCounters(m.TitleCacheHits, m.TitleCacheMisses)
			if refreshTitles {
				if err := cache.Invalidate(ctx); err != nil {
					slog.Warn("title cache invalidation failed", "error", err)
				}
			}
			opts = append(opts, classifier.WithTitles(cache))
			checker.RegisterPinger("redis", client)
			slog.Info("title cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	} else {
		checker.Disabled("redis")
	}

	if cfg.Postgres.Enabled {
		db, err := resilience.Connect(ctx, "postgres-connect", policy,
			func(ctx context.Context) (*postgres.Client, error) {
				return postgres.New(ctx, cfg.Postgres)
			})
		if err != nil {
			slog.Warn("postgres unavailable, run summaries will not be stored", "error", err)
			checker.Disabled("postgres")
		} else {
			closers = append(closers, func() { db.Close() })
			store := evaluation.NewStore(db)
			if err := store.EnsureSchema(ctx); err != nil {
				slog.Warn("run store schema unavailable, run summaries will not be stored", "error", err)
			} else {
				opts = append(opts, classifier.WithStore(store))
				slog.Info("run store enabled", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
			}
			checker.RegisterPinger("postgres", db)
		}
	} else {
		checker.Disabled("postgres")
	}

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.Classifications)
		closers = append(closers, func() { producer.Close() })
		batcher := events.NewBatcher(producer, eventBatchSize).WithFlushHook(func(status string, n int) {
			m.EventsPublished.WithLabelValues(status).Add(float64(n))
		})
		opts = append(opts, classifier.WithEvents(batcher))
		// kafka-go dials lazily, so there is nothing to probe before the first batch.
		checker.Register("kafka", func(context.Context) health.ComponentHealth {
			return health.ComponentHealth{Status: health.StatusUp, Message: "producer configured"}
		})
		slog.Info("classification events enabled", "topic", cfg.Kafka.Topics.Classifications)
	} else {
		checker.Disabled("kafka")
	}

	return closers, opts
}

// printLastRun writes the per-size accuracy of the latest stored run to w.
func printLastRun(ctx context.Context, cfg *config.Config, w io.Writer) error {
	if !cfg.Postgres.Enabled {
		return apperrors.New(apperrors.ErrUsage, "-last-run needs postgres.enabled")
	}
	db, err := postgres.New(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer db.Close()

	summaries, err := evaluation.NewStore(db).LatestRun(ctx)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Fprintln(w, "no stored runs")
		return nil
	}
	fmt.Fprintf(w, "run %s (%s)\n", summaries[0].RunID, summaries[0].StartedAt.Format(time.RFC3339))
	for _, s := range summaries {
		fmt.Fprintf(w, "  n=%d  processed=%d  skipped=%d  accuracy=%.4f\n", s.NGramSize, s.Processed, s.Skipped, s.Accuracy)
	}
	return nil
}
