// Package ngram turns query text into character n-gram frequency vectors
// aligned to a fixed vocabulary.
package ngram

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/internal/loader"
)

// Extract lower-cases text and counts every overlapping run of n characters.
// Text shorter than n yields an empty map.
func Extract(text string, n int) map[string]int {
	counts := make(map[string]int)
	if n < 1 {
		return counts
	}
	runes := []rune(strings.ToLower(text))
	for i := 0; i+n <= len(runes); i++ {
		counts[string(runes[i:i+n])]++
	}
	return counts
}

// Total returns the number of n-grams that were counted.
func Total(counts map[string]int) int {
	total := 0
	for _, c := range counts {
		total += c
	}
	return total
}

// Frequencies converts raw counts to float weights.
func Frequencies(counts map[string]int) map[string]float64 {
	tfs := make(map[string]float64, len(counts))
	for term, c := range counts {
		tfs[term] = float64(c)
	}
	return tfs
}

// Normalize divides every weight by total in place and returns tfs.
// A non-positive total leaves the weights unchanged.
func Normalize(tfs map[string]float64, total float64) map[string]float64 {
	if total <= 0 {
		return tfs
	}
	for term, w := range tfs {
		tfs[term] = w / total
	}
	return tfs
}

// Vectorize places each weight at its vocabulary position. Terms outside the
// vocabulary are dropped.
func Vectorize(vocab *loader.Vocabulary, tfs map[string]float64) []float64 {
	vec := make([]float64, vocab.Len())
	for term, w := range tfs {
		if pos, ok := vocab.Index(term); ok {
			vec[pos] = w
		}
	}
	return vec
}

// Options controls how a query is turned into a vector.
type Options struct {
	Size      int
	Normalize bool
}

// QueryVector runs Extract, optional Normalize and Vectorize for one query.
func QueryVector(vocab *loader.Vocabulary, query string, opts Options) []float64 {
	counts := Extract(query, opts.Size)
	tfs := Frequencies(counts)
	if opts.Normalize {
		Normalize(tfs, float64(Total(counts)))
	}
	return Vectorize(vocab, tfs)
}
