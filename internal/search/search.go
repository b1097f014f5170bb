// Package search provides plain scans over vault notes: substring
// search, wiki/Markdown link tracing, and tree rendering.
//
// Nothing here keeps an index; every call reads the live files through
// the store, so results are always current and losing nothing is ever
// at stake. Link extraction is a line scanner, not a regex.
package search

import (
	"fmt"
	"strings"

	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/vault"
)

// defaultMaxResults bounds a search when the caller does not.
const defaultMaxResults = 20

// maxExcerptLen caps the per-match excerpt length in runes.
const maxExcerptLen = 200

// Store is the read surface search needs. *vault.Store satisfies it.
type Store interface {
	ReadNote(path string) (*vault.Document, error)
	ListMarkdownFiles(dir string) ([]string, error)
}

// Options bound a search.
type Options struct {
	// Dir restricts the scan to one subtree. Empty scans the vault.
	Dir string

	// MaxResults caps the match count. Zero means 20.
	MaxResults int
}

// Match is one note that contains the query.
type Match struct {
	Path string `json:"path"`

	Title string `json:"title"`

	// Line is the 1-based number of the first matching body line, or 0
	// when only the title matched.
	Line int `json:"line"`

	// Excerpt is the trimmed first matching line.
	Excerpt string `json:"excerpt,omitempty"`
}

// Search scans note bodies and titles for a case-insensitive substring.
// Each matching note contributes one match carrying its first matching
// line. Notes are visited in path order; unreadable notes are skipped.
func Search(store Store, query string, opts Options) ([]Match, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil, fmt.Errorf("search query is empty")
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	notes, err := store.ListMarkdownFiles(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes in %q: %w", opts.Dir, err)
	}

	var matches []Match
	for _, rel := range notes {
		doc, err := store.ReadNote(rel)
		if err != nil {
			continue
		}

		title := vault.NoteTitle(doc)
		line, excerpt := firstMatchLine(doc.Body, needle)
		if line == 0 && !strings.Contains(strings.ToLower(title), needle) {
			continue
		}

		matches = append(matches, Match{
			Path:    rel,
			Title:   title,
			Line:    line,
			Excerpt: truncate(excerpt, maxExcerptLen),
		})
		if len(matches) >= maxResults {
			break
		}
	}

	return matches, nil
}

// firstMatchLine finds the first body line containing the lowered
// needle, returning its 1-based number and trimmed text, or 0.
func firstMatchLine(body, needle string) (int, string) {
	for i, line := range strings.Split(body, "\n") {
		if strings.Contains(strings.ToLower(line), needle) {
			return i + 1, strings.TrimSpace(line)
		}
	}
	return 0, ""
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
