package search

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/vault"
)

// mockStore implements Store over an in-memory note map.
type mockStore struct {
	notes map[string]*vault.Document
}

func newMockStore() *mockStore {
	return &mockStore{notes: make(map[string]*vault.Document)}
}

func (m *mockStore) put(path string, meta map[string]any, body string) {
	m.notes[path] = &vault.Document{Path: path, Meta: meta, Body: body}
}

func (m *mockStore) ReadNote(path string) (*vault.Document, error) {
	doc, ok := m.notes[path]
	if !ok {
		return nil, fmt.Errorf("note %s: %w", path, vault.ErrNotFound)
	}
	return doc, nil
}

func (m *mockStore) ListMarkdownFiles(dir string) ([]string, error) {
	prefix := ""
	if dir != "" {
		prefix = strings.TrimSuffix(dir, "/") + "/"
	}

	var out []string
	for path := range m.notes {
		if strings.HasPrefix(path, prefix) {
			out = append(out, path)
		}
	}
	if dir != "" && len(out) == 0 {
		return nil, fmt.Errorf("directory %s: %w", dir, vault.ErrNotFound)
	}
	sort.Strings(out)
	return out, nil
}

func TestSearchMatchesBodyAndTitle(t *testing.T) {
	store := newMockStore()
	store.put("Projects/Alpha.md", nil, "# Alpha\n\nNotes about the sync engine.\n")
	store.put("Projects/Beta.md", map[string]any{"title": "Sync Planning"}, "# Beta\n\nNothing relevant.\n")
	store.put("Daily/2026-08-25.md", nil, "# Today\n\nErrands.\n")

	matches, err := Search(store, "sync", Options{})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(matches) != 2 {
		t.Fatalf("Expected 2 matches, got %+v", matches)
	}

	if matches[0].Path != "Projects/Alpha.md" {
		t.Errorf("Expected Alpha first, got %s", matches[0].Path)
	}
	if matches[0].Line != 3 {
		t.Errorf("Expected match on line 3, got %d", matches[0].Line)
	}
	if !strings.Contains(matches[0].Excerpt, "sync engine") {
		t.Errorf("Unexpected excerpt: %q", matches[0].Excerpt)
	}

	if matches[1].Path != "Projects/Beta.md" {
		t.Errorf("Expected Beta second, got %s", matches[1].Path)
	}
	if matches[1].Line != 0 || matches[1].Excerpt != "" {
		t.Errorf("Title-only match should carry no line: %+v", matches[1])
	}
	if matches[1].Title != "Sync Planning" {
		t.Errorf("Unexpected title: %s", matches[1].Title)
	}
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	store := newMockStore()
	store.put("a.md", nil, "tracking the SYNC engine\n")

	matches, err := Search(store, "Sync", Options{})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("Expected 1 match, got %+v", matches)
	}
}

func TestSearchBoundsResults(t *testing.T) {
	store := newMockStore()
	for i := 0; i < 5; i++ {
		store.put(fmt.Sprintf("n%d.md", i), nil, "needle here\n")
	}

	matches, err := Search(store, "needle", Options{MaxResults: 2})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("Expected capped result count 2, got %d", len(matches))
	}
}

func TestSearchScopedToDir(t *testing.T) {
	store := newMockStore()
	store.put("Projects/a.md", nil, "needle\n")
	store.put("Daily/b.md", nil, "needle\n")

	matches, err := Search(store, "needle", Options{Dir: "Projects"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Path != "Projects/a.md" {
		t.Errorf("Expected only the Projects match, got %+v", matches)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	if _, err := Search(newMockStore(), "   ", Options{}); err == nil {
		t.Error("Expected error for empty query")
	}
}

func TestSearchTruncatesLongExcerpts(t *testing.T) {
	store := newMockStore()
	store.put("a.md", nil, "needle "+strings.Repeat("x", 300)+"\n")

	matches, err := Search(store, "needle", Options{})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(matches))
	}
	if !strings.HasSuffix(matches[0].Excerpt, "...") {
		t.Errorf("Expected truncated excerpt, got %q", matches[0].Excerpt)
	}
	if got := len([]rune(matches[0].Excerpt)); got != maxExcerptLen+3 {
		t.Errorf("Expected %d runes, got %d", maxExcerptLen+3, got)
	}
}

// BenchmarkSearchVault measures a full-text scan over a vault of a few
// hundred notes, the cost every search_notes call pays.
func BenchmarkSearchVault(b *testing.B) {
	store := newMockStore()
	filler := strings.Repeat("Nothing relevant on this line.\n", 40)
	for i := 0; i < 300; i++ {
		body := fmt.Sprintf("# Note %d\n\n%s", i, filler)
		if i%10 == 0 {
			body += "The tracker sync landed here.\n"
		}
		store.put(fmt.Sprintf("Projects/note-%03d.md", i), nil, body)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Search(store, "tracker sync", Options{MaxResults: 50}); err != nil {
			b.Fatalf("Search failed: %v", err)
		}
	}
}
