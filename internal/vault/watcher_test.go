package vault

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewWatcher verifies that creating a new Watcher succeeds.
func TestNewWatcher(t *testing.T) {
	w, err := NewWatcher(testStore(t))
	if err != nil {
		t.Fatalf("NewWatcher() failed: %v", err)
	}
	defer w.Stop()

	if w.IsRunning() {
		t.Error("Newly created watcher should not be running")
	}

	if _, err := NewWatcher(nil); err == nil {
		t.Error("NewWatcher(nil) should fail")
	}
}

// TestWatcherStartStop verifies that the watcher can start and stop cleanly.
func TestWatcherStartStop(t *testing.T) {
	w, err := NewWatcher(testStore(t))
	if err != nil {
		t.Fatalf("NewWatcher() failed: %v", err)
	}

	if err := w.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if !w.IsRunning() {
		t.Error("Watcher should be running after Start()")
	}

	if err := w.Start(); err == nil {
		t.Error("Second Start() should fail when watcher is already running")
	}

	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
	if w.IsRunning() {
		t.Error("Watcher should not be running after Stop()")
	}
}

// TestWatcherNoteCreated verifies that creating a note triggers an event.
func TestWatcherNoteCreated(t *testing.T) {
	store := testStore(t)
	w := startedWatcher(t, store)
	defer w.Stop()

	notePath := filepath.Join(store.Root(), "fresh.md")
	if err := os.WriteFile(notePath, []byte("# Fresh"), 0644); err != nil {
		t.Fatalf("Failed to write note: %v", err)
	}

	select {
	case event := <-w.Events():
		if event.Type != TypeNote {
			t.Errorf("Expected TypeNote, got %v", event.Type)
		}
		if event.Op != OpCreate {
			t.Errorf("Expected OpCreate, got %v", event.Op)
		}
		if event.Path != "fresh.md" {
			t.Errorf("Expected vault-relative path fresh.md, got %s", event.Path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for note create event")
	}
}

// TestWatcherNoteModified verifies that modifying a note triggers an event.
func TestWatcherNoteModified(t *testing.T) {
	store := testStore(t)
	notePath := filepath.Join(store.Root(), "existing.md")
	if err := os.WriteFile(notePath, []byte("v1"), 0644); err != nil {
		t.Fatalf("Failed to write note: %v", err)
	}

	w := startedWatcher(t, store)
	defer w.Stop()

	// Give watcher time to stabilize
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(notePath, []byte("v2"), 0644); err != nil {
		t.Fatalf("Failed to update note: %v", err)
	}

	select {
	case event := <-w.Events():
		if event.Op != OpModify && event.Op != OpCreate {
			t.Errorf("Expected a create or modify event, got %v", event.Op)
		}
		if event.Path != "existing.md" {
			t.Errorf("Expected existing.md, got %s", event.Path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for note modify event")
	}
}

// TestWatcherNoteDeleted verifies that deleting a note triggers an event.
func TestWatcherNoteDeleted(t *testing.T) {
	store := testStore(t)
	notePath := filepath.Join(store.Root(), "doomed.md")
	if err := os.WriteFile(notePath, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write note: %v", err)
	}

	w := startedWatcher(t, store)
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)

	if err := os.Remove(notePath); err != nil {
		t.Fatalf("Failed to delete note: %v", err)
	}

	select {
	case event := <-w.Events():
		if event.Op != OpDelete {
			t.Errorf("Expected OpDelete, got %v", event.Op)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for note delete event")
	}
}

// TestWatcherIgnoresNonMarkdown verifies that non-Markdown files are ignored.
func TestWatcherIgnoresNonMarkdown(t *testing.T) {
	store := testStore(t)
	w := startedWatcher(t, store)
	defer w.Stop()

	txtPath := filepath.Join(store.Root(), "readme.txt")
	if err := os.WriteFile(txtPath, []byte("not a note"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	select {
	case event := <-w.Events():
		t.Errorf("Should not receive event for non-Markdown file, got: %+v", event)
	case <-time.After(500 * time.Millisecond):
		// Expected - no event
	}
}

// TestWatcherNewDirectoryPicksUpNotes verifies notes in fresh folders report.
func TestWatcherNewDirectoryPicksUpNotes(t *testing.T) {
	store := testStore(t)
	w := startedWatcher(t, store)
	defer w.Stop()

	subDir := filepath.Join(store.Root(), "Projects")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	// First event: the directory itself.
	select {
	case event := <-w.Events():
		if event.Type != TypeDir || event.Op != OpCreate {
			t.Errorf("Expected directory create event, got %+v", event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for directory create event")
	}

	// The fresh directory is watched, so a note inside it reports too.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(subDir, "inner.md"), []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write note: %v", err)
	}

	select {
	case event := <-w.Events():
		if event.Path != "Projects/inner.md" {
			t.Errorf("Expected Projects/inner.md, got %s", event.Path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for nested note event")
	}
}

// TestWatcherStopClosesChannels verifies that Stop() closes the event channels.
func TestWatcherStopClosesChannels(t *testing.T) {
	w := startedWatcher(t, testStore(t))

	events := w.Events()
	errs := w.Errors()

	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}

	select {
	case _, ok := <-events:
		if ok {
			t.Error("Events channel should be closed after Stop()")
		}
	case <-time.After(1 * time.Second):
		t.Error("Timeout verifying events channel closure")
	}

	select {
	case _, ok := <-errs:
		if ok {
			t.Error("Errors channel should be closed after Stop()")
		}
	case <-time.After(1 * time.Second):
		t.Error("Timeout verifying errors channel closure")
	}
}

// TestEventOpString verifies the String() method for EventOp.
func TestEventOpString(t *testing.T) {
	tests := []struct {
		op       EventOp
		expected string
	}{
		{OpCreate, "create"},
		{OpModify, "modify"},
		{OpDelete, "delete"},
		{EventOp(999), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.op.String(); got != tt.expected {
			t.Errorf("EventOp(%d).String() = %q, want %q", tt.op, got, tt.expected)
		}
	}
}

// TestFileTypeString verifies the String() method for FileType.
func TestFileTypeString(t *testing.T) {
	tests := []struct {
		ft       FileType
		expected string
	}{
		{TypeNote, "note"},
		{TypeDir, "dir"},
		{FileType(999), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.ft.String(); got != tt.expected {
			t.Errorf("FileType(%d).String() = %q, want %q", tt.ft, got, tt.expected)
		}
	}
}

func startedWatcher(t *testing.T, store *Store) *Watcher {
	t.Helper()
	w, err := NewWatcher(store)
	if err != nil {
		t.Fatalf("NewWatcher() failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	return w
}
