package ranker

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/internal/loader"
)

// DefaultTopK is the number of categories reported per query.
const DefaultTopK = 3

type Scored struct {
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// CosineSimilarity returns dot(v1,v2)/(|v1||v2|). It is 0 when either vector
// has a non-positive self dot product or the lengths differ.
func CosineSimilarity(v1, v2 []float64) float64 {
	if len(v1) != len(v2) {
		return 0
	}
	denA := floats.Dot(v1, v1)
	denB := floats.Dot(v2, v2)
	if denA <= 0 || denB <= 0 {
		return 0
	}
	return floats.Dot(v1, v2) / (math.Sqrt(denA) * math.Sqrt(denB))
}

// Score computes the similarity of query to every category, in table order.
func Score(query []float64, table *loader.CategoryTable) []Scored {
	result := make([]Scored, 0, table.Len())
	for _, name := range table.Names {
		result = append(result, Scored{
			Category: name,
			Score:    CosineSimilarity(table.Vectors[name], query),
		})
	}
	return result
}

// Rank scores query against table and returns the best limit categories,
// highest first. Equal scores keep table order.
func Rank(query []float64, table *loader.CategoryTable, limit int) []Scored {
	return TopK(Score(query, table), limit)
}

// TopK stable-sorts scores descending and truncates to limit. A non-positive
// limit keeps everything.
func TopK(scores []Scored, limit int) []Scored {
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	if limit > 0 && len(scores) > limit {
		scores = scores[:limit]
	}
	return scores
}
