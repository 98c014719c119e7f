package ranker

import (
	"math"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/internal/loader"
)

func TestCosineSimilarityZeroVector(t *testing.T) {
	zero := []float64{0, 0, 0}
	v := []float64{1, 2, 3}
	if got := CosineSimilarity(zero, v); got != 0.0 {
		t.Errorf("CosineSimilarity(zero, v) = %f, want 0", got)
	}
	if got := CosineSimilarity(v, zero); got != 0.0 {
		t.Errorf("CosineSimilarity(v, zero) = %f, want 0", got)
	}
	if got := CosineSimilarity(zero, zero); got != 0.0 {
		t.Errorf("CosineSimilarity(zero, zero) = %f, want 0", got)
	}
}

func TestCosineSimilaritySelf(t *testing.T) {
	for _, v := range [][]float64{{1, 2, 3}, {0, 0, 7}, {-1, 0.5, 2}} {
		if got := CosineSimilarity(v, v); math.Abs(got-1.0) > 1e-12 {
			t.Errorf("CosineSimilarity(%v, %v) = %f, want 1", v, v, got)
		}
	}
}

func TestCosineSimilarityKnownValue(t *testing.T) {
	// dot = 16, |a| = |b| = 5
	got := CosineSimilarity([]float64{3, 4, 0}, []float64{0, 4, 3})
	if math.Abs(got-0.64) > 1e-12 {
		t.Errorf("similarity = %f, want 0.64", got)
	}
}

func TestCosineSimilarityLengthMismatch(t *testing.T) {
	if got := CosineSimilarity([]float64{1, 2}, []float64{1, 2, 3}); got != 0 {
		t.Errorf("similarity = %f, want 0", got)
	}
}

func TestTopK(t *testing.T) {
	scores := []Scored{
		{"A", 0.9}, {"B", 0.95}, {"C", 0.1}, {"D", 0.5},
	}
	got := TopK(scores, 3)
	want := []Scored{{"B", 0.95}, {"A", 0.9}, {"D", 0.5}}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("rank %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestTopKTiesKeepOrder(t *testing.T) {
	scores := []Scored{
		{"first", 0.5}, {"second", 0.5}, {"third", 0.7}, {"fourth", 0.5},
	}
	got := TopK(scores, 3)
	names := []string{got[0].Category, got[1].Category, got[2].Category}
	want := []string{"third", "first", "second"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("ranked = %v, want %v", names, want)
			break
		}
	}
}

func TestTopKFewerThanLimit(t *testing.T) {
	got := TopK([]Scored{{"only", 0.2}}, 3)
	if len(got) != 1 {
		t.Errorf("len = %d, want 1", len(got))
	}
}

func TestRankEndToEnd(t *testing.T) {
	table := loader.NewCategoryTable()
	table.Add("cat1", []float64{1, 1, 0})
	table.Add("cat2", []float64{0, 0, 1})

	got := Rank([]float64{1, 1, 1}, table, DefaultTopK)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Category != "cat1" {
		t.Errorf("top category = %q, want cat1", got[0].Category)
	}
	if math.Abs(got[0].Score-0.816496580927726) > 1e-9 {
		t.Errorf("cat1 score = %f, want ~0.816", got[0].Score)
	}
	if math.Abs(got[1].Score-0.5773502691896258) > 1e-9 {
		t.Errorf("cat2 score = %f, want ~0.577", got[1].Score)
	}
}
