package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/ngram-classifier/pkg/errors"
)

func TestRunRequiresOneQueriesFile(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no arguments", nil},
		{"two files", []string{"a.txt", "b.txt"}},
		{"unknown flag", []string{"-bogus", "a.txt"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(tt.args)
			if !errors.Is(err, apperrors.ErrUsage) {
				t.Fatalf("expected ErrUsage, got %v", err)
			}
			if apperrors.ExitCode(err) != apperrors.ExitUsage {
				t.Errorf("exit code = %d, want %d", apperrors.ExitCode(err), apperrors.ExitUsage)
			}
		})
	}
}

func TestRunWritesReports(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}
	write("titles/cat1/linear.txt", "<doc id=\"1\" title=\"One\">\n")
	cfgPath := write("classifier.yaml", `
data:
  vocabPath: `+write("vocab.txt", "th\nhe\ner\n")+`
  categoryVectorsPath: `+write("vectors.txt", "cat1 1 1 0\ncat2 0 0 1\n")+`
  groundTruthPath: `+write("truth.txt", "there\tcat1\n")+`
  titlesDir: `+filepath.Join(dir, "titles")+`
  outputDir: `+filepath.Join(dir, "out")+`
classifier:
  minNGram: 2
  maxNGram: 3
logging:
  level: error
`)
	queries := write("queries.txt", "there\n")

	if err := run([]string{"-config", cfgPath, queries}); err != nil {
		t.Fatalf("run error: %v", err)
	}
	for _, name := range []string{
		"classification_results_2.csv", "true_vs_predicted_2.csv",
		"classification_results_3.csv", "true_vs_predicted_3.csv",
	} {
		if _, err := os.Stat(filepath.Join(dir, "out", name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestRunMissingQueriesFileFails(t *testing.T) {
	err := run([]string{filepath.Join(t.TempDir(), "missing.txt")})
	if err == nil {
		t.Fatal("expected an error for a missing queries file")
	}
	if apperrors.ExitCode(err) != apperrors.ExitError {
		t.Errorf("exit code = %d, want %d", apperrors.ExitCode(err), apperrors.ExitError)
	}
}

func TestRunLastRunRequiresPostgres(t *testing.T) {
	err := run([]string{"-last-run"})
	if !errors.Is(err, apperrors.ErrUsage) {
		t.Errorf("expected ErrUsage without postgres, got %v", err)
	}
}

func TestRunLastRunRejectsQueriesFile(t *testing.T) {
	err := run([]string{"-last-run", "queries.txt"})
	if !errors.Is(err, apperrors.ErrUsage) {
		t.Errorf("expected ErrUsage, got %v", err)
	}
}
