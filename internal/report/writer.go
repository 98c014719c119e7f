// Package report writes the per-iteration CSV reports: classification results,
// true-versus-predicted labels and the cross-iteration accuracy summary.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// table is a CSV file written to a temporary path and renamed into place on
// Commit, so an aborted iteration leaves no partial report.
type table struct {
	finalPath string
	tmpPath   string
	f         *os.File
	w         *csv.Writer
	rows      int
}

func createTable(dir, name string, header []string) (*table, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	finalPath := filepath.Join(dir, name)
	tmpPath := finalPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", tmpPath, err)
	}
	t := &table{
		finalPath: finalPath,
		tmpPath:   tmpPath,
		f:         f,
		w:         csv.NewWriter(f),
	}
	if err := t.w.Write(header); err != nil {
		t.Abort()
		return nil, fmt.Errorf("writing header of %s: %w", name, err)
	}
	return t, nil
}

func (t *table) write(record []string) error {
	if err := t.w.Write(record); err != nil {
		return fmt.Errorf("writing row to %s: %w", t.finalPath, err)
	}
	t.rows++
	return nil
}

// Path returns the final location of the report.
func (t *table) Path() string {
	return t.finalPath
}

// Rows returns the number of data rows written so far.
func (t *table) Rows() int {
	return t.rows
}

// Commit flushes the report and moves it to its final path.
func (t *table) Commit() error {
	t.w.Flush()
	if err := t.w.Error(); err != nil {
		t.Abort()
		return fmt.Errorf("flushing %s: %w", t.finalPath, err)
	}
	if err := t.f.Close(); err != nil {
		os.Remove(t.tmpPath)
		return fmt.Errorf("closing %s: %w", t.tmpPath, err)
	}
	if err := os.Rename(t.tmpPath, t.finalPath); err != nil {
		os.Remove(t.tmpPath)
		return fmt.Errorf("renaming %s: %w", t.tmpPath, err)
	}
	return nil
}

// Abort discards the temporary file. It is safe to call after Commit.
func (t *table) Abort() {
	t.f.Close()
	os.Remove(t.tmpPath)
}

// DisplayName returns the last "/"-separated segment of a category name with
// underscores replaced by spaces.
func DisplayName(category string) string {
	if i := strings.LastIndex(category, "/"); i >= 0 {
		category = category[i+1:]
	}
	return strings.ReplaceAll(category, "_", " ")
}

// FormatScore renders a similarity with the shortest exact representation,
// always keeping a decimal point ("0.0", "1.0", "0.816496580927726").
func FormatScore(score float64) string {
	s := strconv.FormatFloat(score, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}
