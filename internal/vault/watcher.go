package vault

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// EventOp represents the type of file system operation.
type EventOp int

const (
	// OpCreate indicates a new note was created.
	OpCreate EventOp = iota
	// OpModify indicates an existing note was modified.
	OpModify
	// OpDelete indicates a note was deleted or renamed away.
	OpDelete
)

// String returns a human-readable representation of the operation.
func (op EventOp) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// FileType classifies what a vault event refers to.
type FileType int

const (
	// TypeNote indicates a Markdown note.
	TypeNote FileType = iota
	// TypeDir indicates a directory inside the vault.
	TypeDir
)

// String returns a human-readable representation of the file type.
func (ft FileType) String() string {
	switch ft {
	case TypeNote:
		return "note"
	case TypeDir:
		return "dir"
	default:
		return "unknown"
	}
}

// NoteEvent is one vault change notification.
type NoteEvent struct {
	// Path is the vault-relative, slash-separated path that changed.
	Path string
	// Type classifies the changed entry.
	Type FileType
	// Op is the operation that occurred.
	Op EventOp
}

// Watcher watches a vault recursively for Markdown changes.
// It uses fsnotify for cross-platform file system event monitoring;
// since fsnotify watches single directories, the watcher adds every
// non-hidden directory under the root and picks up new directories as
// they appear.
type Watcher struct {
	store   *Store
	watcher *fsnotify.Watcher
	events  chan NoteEvent
	errors  chan error
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewWatcher creates a Watcher over the store's vault.
// The watcher must be started with Start() before it will emit events.
func NewWatcher(store *Store) (*Watcher, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		store:   store,
		watcher: watcher,
		events:  make(chan NoteEvent, 100),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching the vault root and all non-hidden directories
// under it. Returns an error if the directories cannot be watched.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("watcher already running")
	}

	if err := w.addRecursive(w.store.Root()); err != nil {
		return err
	}

	w.running = true
	w.wg.Add(1)
	go w.processEvents()

	return nil
}

// Stop stops watching for file system events and cleans up resources.
// It blocks until the event processing goroutine has exited.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.done)

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	w.wg.Wait()

	close(w.events)
	close(w.errors)

	return nil
}

// Events returns the channel that emits NoteEvent notifications.
// This channel is closed when the watcher is stopped.
func (w *Watcher) Events() <-chan NoteEvent {
	return w.events
}

// Errors returns the channel that emits error notifications.
// This channel is closed when the watcher is stopped.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// IsRunning returns true if the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// addRecursive adds dir and every non-hidden directory below it to the
// underlying fsnotify watcher.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", path, err)
		}
		return nil
	})
}

// processEvents is the main event loop that converts fsnotify events to
// NoteEvent notifications.
func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if noteEvent, ok := w.convertEvent(event); ok {
				select {
				case w.events <- noteEvent:
				case <-w.done:
					return
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

			select {
			case w.errors <- err:
			case <-w.done:
				return
			}
		}
	}
}

// convertEvent converts an fsnotify event to a NoteEvent.
// Returns (NoteEvent, true) if the event should be surfaced,
// or (NoteEvent{}, false) if it should be ignored.
//
// Directory creations are surfaced as TypeDir and transparently added
// to the watch set so notes inside fresh folders keep reporting.
func (w *Watcher) convertEvent(event fsnotify.Event) (NoteEvent, bool) {
	rel, err := filepath.Rel(w.store.Root(), event.Name)
	if err != nil {
		return NoteEvent{}, false
	}
	rel = filepath.ToSlash(rel)

	// Nothing under hidden directories is interesting.
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return NoteEvent{}, false
		}
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				select {
				case w.errors <- err:
				default:
				}
			}
			return NoteEvent{Path: rel, Type: TypeDir, Op: OpCreate}, true
		}
	}

	if !strings.EqualFold(filepath.Ext(event.Name), ".md") {
		return NoteEvent{}, false
	}

	var op EventOp
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreate
	case event.Has(fsnotify.Write):
		op = OpModify
	case event.Has(fsnotify.Remove):
		op = OpDelete
	case event.Has(fsnotify.Rename):
		// Treat rename as delete (the new name will trigger a create)
		op = OpDelete
	default:
		// Ignore chmod and other events
		return NoteEvent{}, false
	}

	return NoteEvent{Path: rel, Type: TypeNote, Op: op}, true
}
