package vault

import (
	"context"
	"log"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/frontmatter"
	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/mdnote"
	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/tracker"
)

// Entry is the indexed metadata of one note.
type Entry struct {
	// Path is the vault-relative note path.
	Path string

	// Title is the front-matter title, else the first level-1 heading,
	// else the filename stem.
	Title string

	// Updated is the front-matter updated value as display text.
	Updated string

	// MTime is the note's file modification time.
	MTime time.Time

	// Tracker reports whether the note carries a tracker state section.
	Tracker bool
}

// IndexConfig holds configuration for the note index.
type IndexConfig struct {
	// DebounceInterval is how long to wait before re-reading changed
	// notes. This batches rapid editor saves together.
	DebounceInterval time.Duration

	// Logger for index activity.
	Logger *log.Logger
}

// DefaultIndexConfig returns sensible defaults.
func DefaultIndexConfig() *IndexConfig {
	return &IndexConfig{
		DebounceInterval: 250 * time.Millisecond,
		Logger:           log.New(os.Stderr, "[index] ", log.LstdFlags),
	}
}

// Index maintains in-memory metadata for every note in the vault.
//
// The index is advisory: reads and writes always go through the Store,
// so losing the index loses no data. It exists to answer tree and
// stale-scan queries without re-reading the whole vault.
type Index struct {
	store  *Store
	config *IndexConfig

	watcher *Watcher

	entries   map[string]Entry
	entriesMu sync.RWMutex

	changeQueue   map[string]time.Time
	changeQueueMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewIndex creates an Index over the store's vault.
//
// Use Rebuild for a one-shot scan, or Start to keep the index current
// through the vault watcher.
func NewIndex(store *Store, config *IndexConfig) *Index {
	if config == nil {
		config = DefaultIndexConfig()
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[index] ", log.LstdFlags)
	}
	if config.DebounceInterval <= 0 {
		config.DebounceInterval = 250 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Index{
		store:       store,
		config:      config,
		entries:     make(map[string]Entry),
		changeQueue: make(map[string]time.Time),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Rebuild scans the whole vault and replaces the index contents.
func (ix *Index) Rebuild() error {
	notes, err := ix.store.ListMarkdownFiles("")
	if err != nil {
		return err
	}

	fresh := make(map[string]Entry, len(notes))
	for _, rel := range notes {
		entry, err := ix.scanNote(rel)
		if err != nil {
			ix.config.Logger.Printf("Warning: skipping unreadable note %s: %v", rel, err)
			continue
		}
		fresh[rel] = entry
	}

	ix.entriesMu.Lock()
	ix.entries = fresh
	ix.entriesMu.Unlock()

	ix.config.Logger.Printf("Indexed %d notes", len(fresh))
	return nil
}

// Start rebuilds the index and keeps it current through a vault
// watcher. It returns once the background loops are running; use Stop
// to shut them down.
func (ix *Index) Start() error {
	if err := ix.Rebuild(); err != nil {
		return err
	}

	watcher, err := NewWatcher(ix.store)
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return err
	}
	ix.watcher = watcher

	ix.wg.Add(2)
	go ix.consumeEvents()
	go ix.processChangeQueue()

	return nil
}

// Stop shuts down the watcher and background loops.
func (ix *Index) Stop() error {
	ix.cancel()

	var err error
	if ix.watcher != nil {
		err = ix.watcher.Stop()
	}

	ix.wg.Wait()
	return err
}

// Entries returns a snapshot of all indexed notes, sorted by path.
func (ix *Index) Entries() []Entry {
	ix.entriesMu.RLock()
	defer ix.entriesMu.RUnlock()

	out := make([]Entry, 0, len(ix.entries))
	for _, entry := range ix.entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Get looks up one note's entry by vault-relative path.
func (ix *Index) Get(rel string) (Entry, bool) {
	clean, err := NormalizeNotePath(rel)
	if err != nil {
		return Entry{}, false
	}

	ix.entriesMu.RLock()
	defer ix.entriesMu.RUnlock()
	entry, ok := ix.entries[clean]
	return entry, ok
}

// Len returns the number of indexed notes.
func (ix *Index) Len() int {
	ix.entriesMu.RLock()
	defer ix.entriesMu.RUnlock()
	return len(ix.entries)
}

// consumeEvents feeds watcher notifications into the change queue.
func (ix *Index) consumeEvents() {
	defer ix.wg.Done()

	for {
		select {
		case <-ix.ctx.Done():
			return

		case event, ok := <-ix.watcher.Events():
			if !ok {
				return
			}

			switch {
			case event.Type == TypeDir && event.Op == OpCreate:
				// Notes moved in along with the new folder never fire
				// their own events, so list what is already there.
				if notes, err := ix.store.ListMarkdownFiles(event.Path); err == nil {
					for _, rel := range notes {
						ix.queueChange(rel)
					}
				}

			case event.Op == OpDelete:
				ix.remove(event.Path)

			default:
				ix.queueChange(event.Path)
			}

		case err, ok := <-ix.watcher.Errors():
			if !ok {
				return
			}
			ix.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// queueChange adds a note to the change queue with debouncing.
func (ix *Index) queueChange(rel string) {
	ix.changeQueueMu.Lock()
	defer ix.changeQueueMu.Unlock()

	ix.changeQueue[rel] = time.Now()
}

// processChangeQueue re-reads queued notes once they have been quiet
// for the debounce interval.
func (ix *Index) processChangeQueue() {
	defer ix.wg.Done()

	ticker := time.NewTicker(ix.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ix.ctx.Done():
			return

		case <-ticker.C:
			ix.processPendingChanges(time.Now())
		}
	}
}

// processPendingChanges refreshes notes whose last event is older than
// the debounce interval.
func (ix *Index) processPendingChanges(now time.Time) {
	ix.changeQueueMu.Lock()
	defer ix.changeQueueMu.Unlock()

	for rel, queuedAt := range ix.changeQueue {
		if now.Sub(queuedAt) < ix.config.DebounceInterval {
			continue
		}
		ix.refreshNote(rel)
		delete(ix.changeQueue, rel)
	}
}

// refreshNote re-scans one note, removing it from the index when it no
// longer exists.
func (ix *Index) refreshNote(rel string) {
	entry, err := ix.scanNote(rel)
	if err != nil {
		if IsNotFound(err) {
			ix.remove(rel)
			return
		}
		ix.config.Logger.Printf("Warning: failed to refresh note %s: %v", rel, err)
		return
	}

	ix.entriesMu.Lock()
	ix.entries[entry.Path] = entry
	ix.entriesMu.Unlock()
}

// remove drops a note from the index.
func (ix *Index) remove(rel string) {
	clean, err := NormalizeNotePath(rel)
	if err != nil {
		return
	}

	ix.entriesMu.Lock()
	delete(ix.entries, clean)
	ix.entriesMu.Unlock()
}

// scanNote reads one note and derives its index entry.
func (ix *Index) scanNote(rel string) (Entry, error) {
	doc, err := ix.store.ReadNote(rel)
	if err != nil {
		return Entry{}, err
	}

	mtime, err := ix.store.NoteMTime(rel)
	if err != nil {
		return Entry{}, err
	}

	_, hasTracker := mdnote.FindSection(doc.Body, tracker.SectionState)

	return Entry{
		Path:    doc.Path,
		Title:   NoteTitle(doc),
		Updated: frontmatter.Text(doc.Meta["updated"]),
		MTime:   mtime,
		Tracker: hasTracker,
	}, nil
}

// NoteTitle picks a display title: front-matter title, else the first
// level-1 heading, else the filename stem.
func NoteTitle(doc *Document) string {
	if title := strings.TrimSpace(frontmatter.Text(doc.Meta["title"])); title != "" {
		return title
	}

	for _, line := range strings.Split(doc.Body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
		}
	}

	base := path.Base(doc.Path)
	return strings.TrimSuffix(base, path.Ext(base))
}
