// Package titles looks up sample document titles for a category from its
// on-disk document listing, optionally through a Redis cache.
package titles

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/ngram-classifier/pkg/errors"
)

const (
	// ListingFile is the document listing inside every category directory.
	ListingFile = "linear.txt"

	docMarker   = "<doc id"
	titleOpen   = `title="`
	titleClose  = `">`
	maxLineSize = 16 * 1024 * 1024
)

// Lookup returns the titles listed for a category.
type Lookup interface {
	Titles(ctx context.Context, category string) ([]string, error)
}

// Source is a Lookup that can also resolve a category's directory without
// reading its listing.
type Source interface {
	Lookup
	Dir(category string) (string, error)
}

// DirName maps a category name to its directory name.
func DirName(category string) string {
	return strings.ReplaceAll(category, " ", "_")
}

// DirSource reads titles from <root>/<category_dir>/linear.txt.
type DirSource struct {
	root   string
	logger *slog.Logger
}

// NewDirSource creates a DirSource rooted at root. A relative root is
// resolved against the working directory.
func NewDirSource(root string) *DirSource {
	if root == "" {
		root = "."
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &DirSource{
		root:   root,
		logger: slog.Default().With("component", "title-source"),
	}
}

// Dir returns the category's directory, or ErrTitlesNotFound when it does
// not exist.
func (s *DirSource) Dir(category string) (string, error) {
	dir := filepath.Join(s.root, DirName(category))
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", apperrors.Newf(apperrors.ErrTitlesNotFound, "directory does not exist: %s", dir)
	}
	return dir, nil
}

// Titles returns every title in the category's listing, in file order. A
// missing directory or listing yields ErrTitlesNotFound.
func (s *DirSource) Titles(ctx context.Context, category string) ([]string, error) {
	dir, err := s.Dir(category)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(dir, ListingFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.Newf(apperrors.ErrTitlesNotFound, "listing does not exist: %s", filepath.Join(dir, ListingFile))
		}
		return nil, fmt.Errorf("opening title listing: %w", err)
	}
	defer f.Close()

	titles, err := s.scan(f, category)
	if err != nil {
		return nil, fmt.Errorf("reading titles for %q: %w", category, err)
	}
	return titles, nil
}

// scan collects the titles of "<doc id" lines. A doc line without a title
// attribute is skipped rather than failing the whole lookup.
func (s *DirSource) scan(r io.Reader, category string) ([]string, error) {
	var titles []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if !strings.HasPrefix(line, docMarker) {
			continue
		}
		title, ok := ExtractTitle(line)
		if !ok {
			s.logger.Debug("document line without title", "category", category, "line", lineNo)
			continue
		}
		titles = append(titles, title)
	}
	return titles, sc.Err()
}

// ExtractTitle returns the text between the first `title="` and the next
// `">`. Without a closing marker the rest of the line is returned.
func ExtractTitle(line string) (string, bool) {
	_, rest, ok := strings.Cut(line, titleOpen)
	if !ok {
		return "", false
	}
	title, _, _ := strings.Cut(rest, titleClose)
	return title, true
}

// First returns at most n titles.
func First(titles []string, n int) []string {
	if n >= 0 && len(titles) > n {
		return titles[:n]
	}
	return titles
}
