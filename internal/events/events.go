// Package events publishes one event per classified query so downstream
// consumers can audit predictions without parsing the CSV reports.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/internal/ranker"
	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/pkg/kafka"
)

type EventType string

const (
	EventClassified EventType = "query_classified"
	EventSkipped    EventType = "query_skipped"
)

type ClassificationEvent struct {
	Type      EventType       `json:"type"`
	RunID     string          `json:"run_id"`
	NGramSize int             `json:"ngram_size"`
	Query     string          `json:"query"`
	TrueLabel string          `json:"true_label,omitempty"`
	Predicted string          `json:"predicted,omitempty"`
	Correct   bool            `json:"correct"`
	Ranked    []ranker.Scored `json:"ranked"`
	Reason    string          `json:"reason,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Sink receives batches of events. *kafka.Producer satisfies it.
type Sink interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Batcher buffers events and hands them to a Sink when the buffer reaches
// batchSize or on Flush. It is used from a single goroutine.
type Batcher struct {
	sink      Sink
	buffer    []kafka.Event
	batchSize int
	published int
	failed    int
	onFlush   func(status string, n int)
	logger    *slog.Logger
}

func NewBatcher(sink Sink, batchSize int) *Batcher {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Batcher{
		sink:      sink,
		buffer:    make([]kafka.Event, 0, batchSize),
		batchSize: batchSize,
		logger:    slog.Default().With("component", "event-batcher"),
	}
}

// WithFlushHook calls fn after every flush with status "ok" or "error" and
// the batch size.
func (b *Batcher) WithFlushHook(fn func(status string, n int)) *Batcher {
	b.onFlush = fn
	return b
}

// Track buffers an event keyed by its query.
func (b *Batcher) Track(ctx context.Context, event ClassificationEvent) {
	b.buffer = append(b.buffer, kafka.Event{Key: event.Query, Value: event})
	if len(b.buffer) >= b.batchSize {
		b.Flush(ctx)
	}
}

// Flush publishes buffered events. Failed batches are dropped and counted;
// publishing never fails the run.
func (b *Batcher) Flush(ctx context.Context) {
	if len(b.buffer) == 0 {
		return
	}
	batch := b.buffer
	b.buffer = make([]kafka.Event, 0, b.batchSize)

	if err := b.sink.PublishBatch(ctx, batch); err != nil {
		b.failed += len(batch)
		b.logger.Error("batch flush failed",
			"batch_size", len(batch),
			"error", err,
		)
		b.report("error", len(batch))
		return
	}
	b.published += len(batch)
	b.report("ok", len(batch))
	b.logger.Debug("batch flushed", "events", len(batch))
}

// Counts returns how many events were published and dropped.
func (b *Batcher) Counts() (published, failed int) {
	return b.published, b.failed
}

// BufferLen returns the current number of buffered events.
func (b *Batcher) BufferLen() int {
	return len(b.buffer)
}

func (b *Batcher) report(status string, n int) {
	if b.onFlush != nil {
		b.onFlush(status, n)
	}
}
