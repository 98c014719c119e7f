package titles

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/ngram-classifier/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const listing = `<doc id="1" url="https://example.org/?curid=1" title="Anarchism">
Anarchism is a political philosophy.
</doc>
<doc id="2" title="Autism">
<doc id="3" url="x">
not a doc line title="Ignored">
<doc id="4" title="Albedo">
`

func writeListing(t *testing.T, root, dir, content string) {
	t.Helper()
	path := filepath.Join(root, dir)
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(path, ListingFile), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDirName(t *testing.T) {
	if got := DirName("Health and fitness"); got != "Health_and_fitness" {
		t.Errorf("DirName = %q", got)
	}
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		line string
		want string
		ok   bool
	}{
		{`<doc id="1" title="Anarchism">`, "Anarchism", true},
		{`<doc id="1" title="A "quoted" name">`, `A "quoted" name`, true},
		{`<doc id="1" title="Unclosed`, "Unclosed", true},
		{`<doc id="1">`, "", false},
	}
	for _, tt := range tests {
		got, ok := ExtractTitle(tt.line)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ExtractTitle(%q) = %q, %v; want %q, %v", tt.line, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDirSourceTitles(t *testing.T) {
	root := t.TempDir()
	writeListing(t, root, "Social_sciences", listing)

	got, err := NewDirSource(root).Titles(context.Background(), "Social sciences")
	if err != nil {
		t.Fatalf("Titles error: %v", err)
	}
	want := []string{"Anarchism", "Autism", "Albedo"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Titles = %v, want %v", got, want)
	}
}

func TestDirSourceMissingDirectory(t *testing.T) {
	_, err := NewDirSource(t.TempDir()).Titles(context.Background(), "Nowhere land")
	if !errors.Is(err, apperrors.ErrTitlesNotFound) {
		t.Fatalf("expected ErrTitlesNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "Nowhere_land") {
		t.Errorf("error should name the directory: %v", err)
	}
}

func TestDirSourceMissingListing(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "Empty"), 0o755); err != nil {
		t.Fatal(err)
	}
	_, err := NewDirSource(root).Titles(context.Background(), "Empty")
	if !errors.Is(err, apperrors.ErrTitlesNotFound) {
		t.Errorf("expected ErrTitlesNotFound, got %v", err)
	}
}

func TestFirst(t *testing.T) {
	all := []string{"a", "b", "c", "d", "e", "f", "g"}
	if got := First(all, 5); len(got) != 5 || got[4] != "e" {
		t.Errorf("First(7, 5) = %v", got)
	}
	if got := First(all[:2], 5); len(got) != 2 {
		t.Errorf("First(2, 5) = %v", got)
	}
}

type memStore struct {
	mu   sync.Mutex
	data map[string]string
	sets int
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]string)}
}

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	return nil
}

func (m *memStore) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	var n int64
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

type countingSource struct {
	calls  int
	titles map[string][]string
}

func (s *countingSource) Dir(category string) (string, error) {
	if _, ok := s.titles[category]; !ok {
		return "", apperrors.New(apperrors.ErrTitlesNotFound, category)
	}
	return "/titles/" + DirName(category), nil
}

func (s *countingSource) Titles(_ context.Context, category string) ([]string, error) {
	s.calls++
	t, ok := s.titles[category]
	if !ok {
		return nil, apperrors.New(apperrors.ErrTitlesNotFound, category)
	}
	return t, nil
}

type counter struct{ n int }

func (c *counter) Inc() { c.n++ }

func TestCacheHitAfterMiss(t *testing.T) {
	store := newMemStore()
	src := &countingSource{titles: map[string][]string{"Arts": {"Painting", "Opera"}}}
	hits, misses := &counter{}, &counter{}
	c := NewCache(store, src, time.Minute).WithCounters(hits, misses)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := c.Titles(ctx, "Arts")
		if err != nil {
			t.Fatalf("Titles error: %v", err)
		}
		if !reflect.DeepEqual(got, []string{"Painting", "Opera"}) {
			t.Errorf("Titles = %v", got)
		}
	}
	if src.calls != 1 {
		t.Errorf("source calls = %d, want 1", src.calls)
	}
	h, m := c.Stats()
	if h != 2 || m != 1 {
		t.Errorf("Stats = %d hits, %d misses; want 2, 1", h, m)
	}
	if hits.n != 2 || misses.n != 1 {
		t.Errorf("counters = %d/%d, want 2/1", hits.n, misses.n)
	}
}

func TestCacheDoesNotCacheMissingDirectory(t *testing.T) {
	store := newMemStore()
	src := &countingSource{titles: map[string][]string{}}
	c := NewCache(store, src, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := c.Titles(context.Background(), "Ghost")
		if !errors.Is(err, apperrors.ErrTitlesNotFound) {
			t.Fatalf("expected ErrTitlesNotFound, got %v", err)
		}
	}
	if src.calls != 0 {
		t.Errorf("source calls = %d, want 0 for a missing directory", src.calls)
	}
	if store.sets != 0 {
		t.Errorf("store sets = %d, want 0", store.sets)
	}
}

func TestCacheInvalidate(t *testing.T) {
	store := newMemStore()
	src := &countingSource{titles: map[string][]string{"Arts": {"Painting"}}}
	c := NewCache(store, src, time.Minute)
	ctx := context.Background()

	if _, err := c.Titles(ctx, "Arts"); err != nil {
		t.Fatal(err)
	}
	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate error: %v", err)
	}
	if _, err := c.Titles(ctx, "Arts"); err != nil {
		t.Fatal(err)
	}
	if src.calls != 2 {
		t.Errorf("source calls = %d, want 2 after invalidation", src.calls)
	}
}

func TestCacheRechecksDirectoryOnHit(t *testing.T) {
	root := t.TempDir()
	writeListing(t, root, "Arts", `<doc id="1" title="Opera">`+"\n")
	c := NewCache(newMemStore(), NewDirSource(root), time.Minute)
	ctx := context.Background()

	if got, err := c.Titles(ctx, "Arts"); err != nil || !reflect.DeepEqual(got, []string{"Opera"}) {
		t.Fatalf("Titles = %v, %v", got, err)
	}
	if err := os.RemoveAll(filepath.Join(root, "Arts")); err != nil {
		t.Fatal(err)
	}

	got, err := c.Titles(ctx, "Arts")
	if !errors.Is(err, apperrors.ErrTitlesNotFound) {
		t.Fatalf("after removing the directory: titles=%v err=%v, want ErrTitlesNotFound", got, err)
	}
}

func TestCacheKeysAreScopedToTitleRoot(t *testing.T) {
	rootA, rootB := t.TempDir(), t.TempDir()
	writeListing(t, rootA, "Arts", `<doc id="1" title="Opera">`+"\n")
	writeListing(t, rootB, "Arts", `<doc id="2" title="Sculpture">`+"\n")
	store := newMemStore()
	ctx := context.Background()

	a, err := NewCache(store, NewDirSource(rootA), time.Minute).Titles(ctx, "Arts")
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewCache(store, NewDirSource(rootB), time.Minute).Titles(ctx, "Arts")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, []string{"Opera"}) || !reflect.DeepEqual(b, []string{"Sculpture"}) {
		t.Errorf("titles = %v and %v, want each root's own listing", a, b)
	}
	if len(store.data) != 2 {
		t.Errorf("stored keys = %d, want 2", len(store.data))
	}
}
