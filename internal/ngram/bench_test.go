package ngram

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/internal/loader"
)

var sampleQueries = map[string]string{
	"short":  "the quick brown fox",
	"medium": "where can i find recipes for gluten free chocolate cake with almond flour",
	"long":   strings.Repeat("information retrieval systems combine tokenization and ranking ", 20),
}

// benchVocab builds a vocabulary of every n-gram seen in the sample queries.
func benchVocab(n int) *loader.Vocabulary {
	seen := make(map[string]struct{})
	var terms []string
	for _, q := range sampleQueries {
		for g := range Extract(q, n) {
			if _, ok := seen[g]; !ok {
				seen[g] = struct{}{}
				terms = append(terms, g)
			}
		}
	}
	return loader.NewVocabulary(terms)
}

func BenchmarkExtract(b *testing.B) {
	for name, text := range sampleQueries {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				_ = Extract(text, 3)
			}
		})
	}
}

func BenchmarkQueryVector(b *testing.B) {
	text := sampleQueries["medium"]
	for n := 2; n <= 7; n++ {
		vocab := benchVocab(n)
		b.Run(fmt.Sprintf("n_%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = QueryVector(vocab, text, Options{Size: n})
			}
		})
	}
}
