package vault

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/frontmatter"
)

// Document is one parsed Markdown note: YAML front matter plus body.
type Document struct {
	// Path is the canonical vault-relative path, slash-separated.
	Path string

	// Meta is the front-matter mapping, nil when the note has none.
	Meta map[string]any

	// Body is everything below the front matter, verbatim.
	Body string

	// Warnings collects non-fatal parse degradations (malformed or
	// unterminated front matter). A warned document is still usable;
	// its whole content is carried in Body.
	Warnings []string
}

// Store reads and writes Markdown documents under one vault root.
//
// Every method takes vault-relative paths and applies the path-safety
// rules before touching the filesystem, so a Store can be handed
// caller-supplied paths directly.
type Store struct {
	root string
}

// Open validates root and returns a Store over it. The root must name
// an existing directory.
func Open(root string) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("vault root cannot be empty: %w", ErrInvalidPath)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve vault root %s: %w", root, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("vault root %s: %w", abs, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to stat vault root %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault root %s: %w", abs, ErrNotDirectory)
	}

	return &Store{root: abs}, nil
}

// Root returns the absolute vault root path.
func (s *Store) Root() string {
	return s.root
}

// Resolve maps a vault-relative path to an absolute filesystem path.
// An empty or "." input resolves to the vault root itself. Containment
// is re-checked on the joined result, so a normalization edge case can
// never hand back a path outside the root.
func (s *Store) Resolve(rel string) (string, error) {
	clean, err := NormalizeRelPath(rel)
	if err != nil {
		return "", err
	}
	if clean == "" {
		return s.root, nil
	}

	abs := filepath.Clean(filepath.Join(s.root, filepath.FromSlash(clean)))
	if abs != s.root && !strings.HasPrefix(abs, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q resolves outside the vault root", ErrInvalidPath, rel)
	}
	return abs, nil
}

// ResolveNote is Resolve for note paths: the input must name a Markdown
// file, with the .md extension appended when missing. Returns the
// absolute path and the canonical vault-relative path.
func (s *Store) ResolveNote(rel string) (string, string, error) {
	clean, err := NormalizeNotePath(rel)
	if err != nil {
		return "", "", err
	}
	abs, err := s.Resolve(clean)
	if err != nil {
		return "", "", err
	}
	return abs, clean, nil
}

// ReadNote reads a note and splits its front matter. Malformed front
// matter degrades to a nil mapping with the whole content in Body and
// the parse problem reported in Warnings, never an error.
func (s *Store) ReadNote(rel string) (*Document, error) {
	abs, clean, err := s.ResolveNote(rel)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("note %s: %w", clean, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read note %s: %w", clean, err)
	}

	doc := &Document{Path: clean}
	meta, body, splitErr := frontmatter.Split(string(data))
	doc.Meta = meta
	doc.Body = body
	if splitErr != nil {
		doc.Warnings = append(doc.Warnings,
			fmt.Sprintf("front matter in %s is unreadable, treating whole file as body: %v", clean, splitErr))
	}
	return doc, nil
}

// WriteNote joins front matter and body and writes the note atomically,
// creating parent directories as needed. Every write stamps the
// front-matter updated field with today's date; a nil meta gains a
// mapping holding just that stamp. The caller's map is not mutated.
// Returns the canonical vault-relative path written.
func (s *Store) WriteNote(rel string, meta map[string]any, body string) (string, error) {
	abs, clean, err := s.ResolveNote(rel)
	if err != nil {
		return "", err
	}

	stamped := make(map[string]any, len(meta)+1)
	for k, v := range meta {
		stamped[k] = v
	}
	stamped["updated"] = time.Now().Format("2006-01-02")

	content, err := frontmatter.Join(stamped, body)
	if err != nil {
		return "", fmt.Errorf("failed to serialize front matter for %s: %w", clean, err)
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", clean, err)
	}
	if err := atomic.WriteFile(abs, strings.NewReader(content)); err != nil {
		return "", fmt.Errorf("failed to write note %s: %w", clean, err)
	}
	return clean, nil
}

// Exists reports whether a vault-relative path names an existing file
// or directory. Unsafe paths report false.
func (s *Store) Exists(rel string) bool {
	abs, err := s.Resolve(rel)
	if err != nil {
		return false
	}
	_, err = os.Stat(abs)
	return err == nil
}

// NoteExists is Exists with note-path resolution, so "Projects/Alpha"
// and "Projects/Alpha.md" ask the same question.
func (s *Store) NoteExists(rel string) bool {
	abs, _, err := s.ResolveNote(rel)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && !info.IsDir()
}

// MTime returns the modification time of a vault-relative path.
func (s *Store) MTime(rel string) (time.Time, error) {
	abs, err := s.Resolve(rel)
	if err != nil {
		return time.Time{}, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, fmt.Errorf("path %s: %w", rel, ErrNotFound)
		}
		return time.Time{}, fmt.Errorf("failed to stat %s: %w", rel, err)
	}
	return info.ModTime(), nil
}

// NoteMTime is MTime with note-path resolution.
func (s *Store) NoteMTime(rel string) (time.Time, error) {
	_, clean, err := s.ResolveNote(rel)
	if err != nil {
		return time.Time{}, err
	}
	return s.MTime(clean)
}

// ListMarkdownFiles walks dir recursively and returns the vault-relative
// slash-separated paths of every Markdown file under it, sorted.
// Dot-directories (.obsidian, .cortex, .git) are not descended into.
// A missing directory maps to ErrNotFound.
func (s *Store) ListMarkdownFiles(dir string) ([]string, error) {
	abs, err := s.Resolve(dir)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory %s: %w", dir, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path %s: %w", dir, ErrNotDirectory)
	}

	var notes []string
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != abs && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(d.Name()), ".md") {
			return nil
		}

		relPath, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		notes = append(notes, filepath.ToSlash(relPath))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", dir, err)
	}

	sort.Strings(notes)
	return notes, nil
}

// Delete removes a note. Only Markdown files can be deleted through the
// store; directories and other files are out of reach.
func (s *Store) Delete(rel string) error {
	abs, clean, err := s.ResolveNote(rel)
	if err != nil {
		return err
	}

	if err := os.Remove(abs); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("note %s: %w", clean, ErrNotFound)
		}
		return fmt.Errorf("failed to delete note %s: %w", clean, err)
	}
	return nil
}
