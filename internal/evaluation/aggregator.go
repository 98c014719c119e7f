// Package evaluation aggregates true-versus-predicted labels into accuracy
// summaries and persists them to PostgreSQL.
package evaluation

import (
	"sort"
	"time"
)

type Summary struct {
	RunID          string      `json:"run_id"`
	NGramSize      int         `json:"ngram_size"`
	TotalQueries   int         `json:"total_queries"`
	Processed      int         `json:"processed"`
	Skipped        int         `json:"skipped"`
	Correct        int         `json:"correct"`
	Accuracy       float64     `json:"accuracy"`
	AvgTopScore    float64     `json:"avg_top_score"`
	ZeroScoreCount int         `json:"zero_score_count"`
	TopConfusions  []Confusion `json:"top_confusions"`
	StartedAt      time.Time   `json:"started_at"`
	Duration       string      `json:"duration"`
}

// Confusion counts how often a true label was predicted as another label.
type Confusion struct {
	True      string `json:"true"`
	Predicted string `json:"predicted"`
	Count     int    `json:"count"`
}

type confusionKey struct {
	truth, predicted string
}

// Aggregator accumulates the outcome of one n-gram iteration. It is not safe
// for concurrent use.
type Aggregator struct {
	runID      string
	ngramSize  int
	total      int
	processed  int
	skipped    int
	correct    int
	scoreSum   float64
	zeroScores int
	confusions map[confusionKey]int
	startTime  time.Time
}

func NewAggregator(runID string, ngramSize int) *Aggregator {
	return &Aggregator{
		runID:      runID,
		ngramSize:  ngramSize,
		confusions: make(map[confusionKey]int),
		startTime:  time.Now(),
	}
}

// Record adds a processed query and reports whether the prediction was
// correct.
func (a *Aggregator) Record(trueLabel, predicted string, topScore float64) bool {
	a.total++
	a.processed++
	a.scoreSum += topScore
	if topScore == 0 {
		a.zeroScores++
	}
	if trueLabel == predicted {
		a.correct++
		return true
	}
	a.confusions[confusionKey{trueLabel, predicted}]++
	return false
}

// Skip counts a query that produced no report row.
func (a *Aggregator) Skip() {
	a.total++
	a.skipped++
}

func (a *Aggregator) Summary() Summary {
	s := Summary{
		RunID:          a.runID,
		NGramSize:      a.ngramSize,
		TotalQueries:   a.total,
		Processed:      a.processed,
		Skipped:        a.skipped,
		Correct:        a.correct,
		ZeroScoreCount: a.zeroScores,
		TopConfusions:  topConfusions(a.confusions, 10),
		StartedAt:      a.startTime.UTC(),
		Duration:       time.Since(a.startTime).Round(time.Millisecond).String(),
	}
	if a.processed > 0 {
		s.Accuracy = float64(a.correct) / float64(a.processed)
		s.AvgTopScore = a.scoreSum / float64(a.processed)
	}
	return s
}

func topConfusions(counts map[confusionKey]int, n int) []Confusion {
	result := make([]Confusion, 0, len(counts))
	for k, count := range counts {
		result = append(result, Confusion{True: k.truth, Predicted: k.predicted, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		if result[i].True != result[j].True {
			return result[i].True < result[j].True
		}
		return result[i].Predicted < result[j].Predicted
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
