package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/internal/ranker"
)

// RankedColumns is the number of category/score column pairs in the results
// report.
const RankedColumns = 3

var (
	resultsHeader = []string{
		"Query", "Top Category 1", "Score 1", "Top Category 2", "Score 2",
		"Top Category 3", "Score 3", "Top Titles",
	}
	labelsHeader  = []string{"Query", "True Label", "Predicted Label", "Correct"}
	summaryHeader = []string{"N-gram Size", "Queries", "Processed", "Skipped", "Correct", "Accuracy", "Avg Top Score"}
)

// ResultsFile returns the results report name for an n-gram size.
func ResultsFile(n int) string {
	return fmt.Sprintf("classification_results_%d.csv", n)
}

// LabelsFile returns the true-versus-predicted report name for an n-gram size.
func LabelsFile(n int) string {
	return fmt.Sprintf("true_vs_predicted_%d.csv", n)
}

// SummaryFile is the cross-iteration accuracy report.
const SummaryFile = "accuracy_summary.csv"

// Result is one row of the classification results report.
type Result struct {
	Query  string
	Ranked []ranker.Scored
	Titles []string
}

// ResultsWriter writes classification_results_<n>.csv.
type ResultsWriter struct {
	*table
}

func NewResultsWriter(dir string, n int) (*ResultsWriter, error) {
	t, err := createTable(dir, ResultsFile(n), resultsHeader)
	if err != nil {
		return nil, err
	}
	return &ResultsWriter{t}, nil
}

// Write adds one row. Ranks beyond len(r.Ranked) are left empty.
func (w *ResultsWriter) Write(r Result) error {
	record := make([]string, 0, len(resultsHeader))
	record = append(record, r.Query)
	for i := 0; i < RankedColumns; i++ {
		if i < len(r.Ranked) {
			record = append(record, DisplayName(r.Ranked[i].Category), FormatScore(r.Ranked[i].Score))
		} else {
			record = append(record, "", "")
		}
	}
	record = append(record, strings.Join(r.Titles, "\n"))
	return w.write(record)
}

// Label is one row of the true-versus-predicted report.
type Label struct {
	Query     string
	True      string
	Predicted string
}

// Correct reports whether the labels match exactly.
func (l Label) Correct() bool {
	return l.True == l.Predicted
}

// LabelsWriter writes true_vs_predicted_<n>.csv.
type LabelsWriter struct {
	*table
}

func NewLabelsWriter(dir string, n int) (*LabelsWriter, error) {
	t, err := createTable(dir, LabelsFile(n), labelsHeader)
	if err != nil {
		return nil, err
	}
	return &LabelsWriter{t}, nil
}

func (w *LabelsWriter) Write(l Label) error {
	correct := "No"
	if l.Correct() {
		correct = "Yes"
	}
	return w.write([]string{l.Query, l.True, l.Predicted, correct})
}

// WriteSummary writes accuracy_summary.csv with one row per iteration.
func WriteSummary(dir string, summaries []evaluation.Summary) (string, error) {
	t, err := createTable(dir, SummaryFile, summaryHeader)
	if err != nil {
		return "", err
	}
	for _, s := range summaries {
		err := t.write([]string{
			strconv.Itoa(s.NGramSize),
			strconv.Itoa(s.TotalQueries),
			strconv.Itoa(s.Processed),
			strconv.Itoa(s.Skipped),
			strconv.Itoa(s.Correct),
			strconv.FormatFloat(s.Accuracy, 'f', 4, 64),
			strconv.FormatFloat(s.AvgTopScore, 'f', 4, 64),
		})
		if err != nil {
			t.Abort()
			return "", err
		}
	}
	if err := t.Commit(); err != nil {
		return "", err
	}
	return t.Path(), nil
}
