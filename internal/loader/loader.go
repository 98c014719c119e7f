// Package loader reads the flat-file inputs of a classification run: the
// n-gram vocabulary, the per-category vectors, the query list and the
// ground-truth labels.
package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/ngram-classifier/pkg/errors"
)

const maxLineSize = 16 * 1024 * 1024

// Vocabulary is the ordered set of n-grams that defines the index space of
// every vector.
type Vocabulary struct {
	Terms []string
	index map[string]int
}

// NewVocabulary builds a Vocabulary from terms in order. When a term repeats,
// its first position is the one used for lookups.
func NewVocabulary(terms []string) *Vocabulary {
	idx := make(map[string]int, len(terms))
	for i, t := range terms {
		if _, ok := idx[t]; !ok {
			idx[t] = i
		}
	}
	return &Vocabulary{Terms: terms, index: idx}
}

// Len returns the dimensionality of vectors aligned to this vocabulary.
func (v *Vocabulary) Len() int {
	return len(v.Terms)
}

// Index returns the position of term, or false if it is out of vocabulary.
func (v *Vocabulary) Index(term string) (int, bool) {
	i, ok := v.index[term]
	return i, ok
}

// CategoryTable maps category names to dense vectors, remembering the order
// in which categories were loaded.
type CategoryTable struct {
	Names   []string
	Vectors map[string][]float64
}

// NewCategoryTable returns an empty table.
func NewCategoryTable() *CategoryTable {
	return &CategoryTable{Vectors: make(map[string][]float64)}
}

// Add inserts or replaces a category vector. A replaced category keeps its
// original position.
func (t *CategoryTable) Add(name string, vec []float64) {
	if _, ok := t.Vectors[name]; !ok {
		t.Names = append(t.Names, name)
	}
	t.Vectors[name] = vec
}

// Len returns the number of categories.
func (t *CategoryTable) Len() int {
	return len(t.Names)
}

// Dataset is everything one n-gram iteration needs.
type Dataset struct {
	Vocab       *Vocabulary
	Categories  *CategoryTable
	Queries     []string
	GroundTruth map[string]string
}

// Loader reads a Dataset from the paths in its config.
type Loader struct {
	paths config.DataConfig
}

// New creates a Loader for the given data paths.
func New(paths config.DataConfig) *Loader {
	return &Loader{paths: paths}
}

// Load reads the vocabulary, category vectors, queries and ground truth, and
// checks that every category vector has the vocabulary's dimension.
func (l *Loader) Load(queriesPath string) (*Dataset, error) {
	vocab, err := ReadVocab(l.paths.VocabPath)
	if err != nil {
		return nil, err
	}
	cats, err := ReadCategoryVectors(l.paths.CategoryVectorsPath)
	if err != nil {
		return nil, err
	}
	if err := CheckDimensions(vocab, cats); err != nil {
		return nil, err
	}
	queries, err := ReadQueries(queriesPath)
	if err != nil {
		return nil, err
	}
	truth, err := l.GroundTruth()
	if err != nil {
		return nil, err
	}
	return &Dataset{
		Vocab:       vocab,
		Categories:  cats,
		Queries:     queries,
		GroundTruth: truth,
	}, nil
}

// GroundTruth reads the configured ground-truth file.
func (l *Loader) GroundTruth() (map[string]string, error) {
	return ReadGroundTruth(l.paths.GroundTruthPath)
}

// CheckDimensions verifies that every category vector matches the vocabulary
// size.
func CheckDimensions(vocab *Vocabulary, cats *CategoryTable) error {
	for _, name := range cats.Names {
		if got := len(cats.Vectors[name]); got != vocab.Len() {
			return apperrors.Newf(apperrors.ErrDimensionMismatch,
				"category %q has %d components, vocabulary has %d", name, got, vocab.Len())
		}
	}
	return nil
}

// ReadVocab reads one n-gram per line, preserving file order.
func ReadVocab(path string) (*Vocabulary, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, fmt.Errorf("reading vocabulary: %w", err)
	}
	return NewVocabulary(lines), nil
}

// ReadQueries reads one query per line. Only line endings are removed.
func ReadQueries(path string) ([]string, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, fmt.Errorf("reading queries: %w", err)
	}
	return lines, nil
}

// ReadCategoryVectors parses lines of the form
// "category_name v1 v2 ... vN". Underscores in the name become spaces.
func ReadCategoryVectors(path string) (*CategoryTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading category vectors: %w", err)
	}
	defer f.Close()
	table, err := parseCategoryVectors(f)
	if err != nil {
		return nil, fmt.Errorf("parsing category vectors %s: %w", path, err)
	}
	return table, nil
}

// parseCategoryVectors skips blank lines instead of rejecting the file.
func parseCategoryVectors(r io.Reader) (*CategoryTable, error) {
	table := NewCategoryTable()
	sc := newScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		name := strings.ReplaceAll(fields[0], "_", " ")
		vec := make([]float64, 0, len(fields)-1)
		for _, raw := range fields[1:] {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, apperrors.Newf(apperrors.ErrMalformedInput,
					"line %d: invalid component %q for category %q", lineNo, raw, name)
			}
			vec = append(vec, v)
		}
		table.Add(name, vec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if table.Len() == 0 {
		return nil, apperrors.ErrNoCategories
	}
	return table, nil
}

// ReadGroundTruth parses "query<TAB>category" lines. Surrounding whitespace is
// trimmed, the line is split on its first tab and later duplicates win.
func ReadGroundTruth(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading ground truth: %w", err)
	}
	defer f.Close()
	truth, err := parseGroundTruth(f)
	if err != nil {
		return nil, fmt.Errorf("parsing ground truth %s: %w", path, err)
	}
	return truth, nil
}

func parseGroundTruth(r io.Reader) (map[string]string, error) {
	truth := make(map[string]string)
	sc := newScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		query, category, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, apperrors.Newf(apperrors.ErrMalformedInput,
				"line %d: missing tab separator", lineNo)
		}
		truth[query] = category
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return truth, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := newScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return lines, nil
}

func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return sc
}
