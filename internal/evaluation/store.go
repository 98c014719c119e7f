package evaluation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/pkg/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS classification_runs (
    id          BIGSERIAL PRIMARY KEY,
    run_id      TEXT NOT NULL,
    ngram_size  INT NOT NULL,
    accuracy    DOUBLE PRECISION NOT NULL,
    data        JSONB NOT NULL,
    captured_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS classification_runs_run_id_idx ON classification_runs (run_id);`

// Store persists accuracy summaries in the classification_runs table.
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

func NewStore(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "evaluation-store"),
	}
}

// EnsureSchema creates the classification_runs table if it is missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating classification_runs: %w", err)
	}
	return nil
}

// SaveRun stores every summary of a run in one transaction.
func (s *Store) SaveRun(ctx context.Context, summaries []Summary) error {
	if len(summaries) == 0 {
		return nil
	}
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		for _, sum := range summaries {
			data, err := json.Marshal(sum)
			if err != nil {
				return fmt.Errorf("marshaling summary: %w", err)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO classification_runs (run_id, ngram_size, accuracy, data, captured_at) VALUES ($1, $2, $3, $4, $5)`,
				sum.RunID, sum.NGramSize, sum.Accuracy, data, sum.StartedAt,
			)
			if err != nil {
				return fmt.Errorf("saving summary for n=%d: %w", sum.NGramSize, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("run summaries saved",
		"run_id", summaries[0].RunID,
		"iterations", len(summaries),
	)
	return nil
}

// LatestRun loads the summaries of the most recent run, ordered by n-gram
// size. Returns nil, nil if no runs exist yet.
func (s *Store) LatestRun(ctx context.Context) ([]Summary, error) {
	var runID string
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT run_id FROM classification_runs ORDER BY captured_at DESC, id DESC LIMIT 1`,
	).Scan(&runID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest run: %w", err)
	}

	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT data FROM classification_runs WHERE run_id = $1 ORDER BY ngram_size`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing run %s: %w", runID, err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning summary row: %w", err)
		}
		var sum Summary
		if err := json.Unmarshal(data, &sum); err != nil {
			s.logger.Warn("skipping corrupt summary", "error", err)
			continue
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}
