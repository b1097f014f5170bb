package session

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/tracker"
)

var syncNow = time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func TestTrackerSyncSkipsWhenUnconfigured(t *testing.T) {
	store := newMockStore()
	store.put("Cortex/Context.md", map[string]any{KeyType: TypeProjectContext}, "# Context\n")
	o := testOrchestrator(store)

	result, err := o.TrackerSync(context.Background(), SyncOptions{})
	if err != nil {
		t.Fatalf("TrackerSync failed: %v", err)
	}

	if !result.Skipped {
		t.Fatal("Expected sync to be skipped")
	}
	if !strings.Contains(result.SkipReason, "no tracker configured") {
		t.Errorf("Unexpected skip reason: %s", result.SkipReason)
	}
	if result.Sync != nil {
		t.Error("Expected no sync result on skip")
	}
	if len(store.writes) != 0 {
		t.Errorf("Expected no writes on skip, got %v", store.writes)
	}
}

func TestTrackerSyncSkipsWhenContextMissing(t *testing.T) {
	o := testOrchestrator(newMockStore())

	result, err := o.TrackerSync(context.Background(), SyncOptions{})
	if err != nil {
		t.Fatalf("TrackerSync failed: %v", err)
	}
	if !result.Skipped {
		t.Error("Expected skip when the context has no tracker to name")
	}
}

func TestTrackerSyncCreatesMissingTracker(t *testing.T) {
	store := newMockStore()
	store.put("Projects/Alpha.md", map[string]any{
		KeyType:        TypeProjectContext,
		KeyTrackerPath: "Projects/Alpha-Tracker.md",
	}, "# Alpha\n")
	o := testOrchestrator(store)

	opts := tracker.DefaultOptions()
	opts.Now = syncNow
	result, err := o.TrackerSync(context.Background(), SyncOptions{
		ContextPath: "Projects/Alpha.md",
		Updates: []tracker.Update{
			{ID: "e1", Title: strPtr("First"), Status: strPtr("open")},
		},
		Tracker: opts,
	})
	if err != nil {
		t.Fatalf("TrackerSync failed: %v", err)
	}

	if result.Skipped {
		t.Fatalf("Unexpected skip: %s", result.SkipReason)
	}
	if result.TrackerExisted {
		t.Error("Expected TrackerExisted to be false")
	}
	if result.TrackerPath != "Projects/Alpha-Tracker.md" {
		t.Errorf("Unexpected tracker path: %s", result.TrackerPath)
	}

	doc, ok := store.notes["Projects/Alpha-Tracker.md"]
	if !ok {
		t.Fatal("Expected tracker note to be created")
	}
	if doc.Meta[KeyType] != "tracker" {
		t.Errorf("Expected tracker type in front matter, got %v", doc.Meta)
	}
	if doc.Meta["project"] != "Projects/Alpha.md" {
		t.Errorf("Expected project backlink in front matter, got %v", doc.Meta)
	}
	if !strings.Contains(doc.Body, "## Tracker State (JSON)") {
		t.Errorf("Missing state section:\n%s", doc.Body)
	}
	if !strings.Contains(doc.Body, `"id": "E1"`) {
		t.Errorf("Missing created record:\n%s", doc.Body)
	}
	if !strings.Contains(doc.Body, "| E1 |") {
		t.Errorf("Missing table row:\n%s", doc.Body)
	}
}

func TestTrackerSyncUpdatesExistingTracker(t *testing.T) {
	store := newMockStore()
	store.put("Projects/Alpha.md", map[string]any{
		KeyTrackerPath: "Projects/Alpha-Tracker.md",
	}, "# Alpha\n")
	store.put("Projects/Alpha-Tracker.md", map[string]any{KeyType: "tracker"},
		"## Tracker State (JSON)\n\n```json\n[{\"id\": \"E1\", \"status\": \"Open\", \"title\": \"First\"}]\n```\n")
	o := testOrchestrator(store)

	opts := tracker.DefaultOptions()
	opts.Now = syncNow
	result, err := o.TrackerSync(context.Background(), SyncOptions{
		ContextPath: "Projects/Alpha.md",
		Updates: []tracker.Update{
			{ID: "E1", Status: strPtr("done")},
		},
		Tracker: opts,
	})
	if err != nil {
		t.Fatalf("TrackerSync failed: %v", err)
	}

	if !result.TrackerExisted {
		t.Error("Expected TrackerExisted to be true")
	}
	if result.Sync == nil || len(result.Sync.UpdatedIDs) != 1 {
		t.Fatalf("Expected one updated id, got %+v", result.Sync)
	}

	body := store.notes["Projects/Alpha-Tracker.md"].Body
	if !strings.Contains(body, `"status": "Done"`) {
		t.Errorf("Status not updated:\n%s", body)
	}
}

func TestTrackerSyncExplicitPathOverridesFrontMatter(t *testing.T) {
	store := newMockStore()
	store.put("Projects/Alpha.md", map[string]any{
		KeyTrackerPath: "Projects/Alpha-Tracker.md",
	}, "# Alpha\n")
	o := testOrchestrator(store)

	opts := tracker.DefaultOptions()
	opts.Now = syncNow
	result, err := o.TrackerSync(context.Background(), SyncOptions{
		ContextPath: "Projects/Alpha.md",
		TrackerPath: "Trackers/Shared",
		Tracker:     opts,
	})
	if err != nil {
		t.Fatalf("TrackerSync failed: %v", err)
	}

	if result.TrackerPath != "Trackers/Shared.md" {
		t.Errorf("Expected explicit path to win, got %s", result.TrackerPath)
	}
	if store.NoteExists("Projects/Alpha-Tracker.md") {
		t.Error("Front-matter tracker should not have been touched")
	}
}

func TestTrackerSyncLogsToSession(t *testing.T) {
	store := newMockStore()
	store.put("Projects/Alpha.md", map[string]any{
		KeyTrackerPath: "Projects/Alpha-Tracker.md",
	}, "# Alpha\n")
	o := testOrchestrator(store)

	opts := tracker.DefaultOptions()
	opts.Now = syncNow
	result, err := o.TrackerSync(context.Background(), SyncOptions{
		ContextPath: "Projects/Alpha.md",
		Updates: []tracker.Update{
			{ID: "e1", Status: strPtr("open")},
		},
		Tracker:      opts,
		LogToSession: true,
	})
	if err != nil {
		t.Fatalf("TrackerSync failed: %v", err)
	}

	if result.SessionLogPath != "Cortex/Sessions/alpha/2026-08-25.md" {
		t.Errorf("Unexpected session log path: %s", result.SessionLogPath)
	}
	logBody := store.notes[result.SessionLogPath].Body
	if !strings.Contains(logBody, "### 14:00 Tracker Sync") {
		t.Errorf("Missing sync block heading:\n%s", logBody)
	}
	if !strings.Contains(logBody, "[[Projects/Alpha-Tracker]]: 1 issues (updated=0 created=1 deleted=0 unresolved=0)") {
		t.Errorf("Missing sync summary line:\n%s", logBody)
	}
}

func TestTrackerSyncUsesConfiguredLogBound(t *testing.T) {
	store := newMockStore()
	store.put("Projects/Alpha.md", map[string]any{
		KeyTrackerPath: "Projects/Alpha-Tracker.md",
	}, "# Alpha\n")

	config := DefaultConfig()
	config.MaxLogEntries = 1
	config.Logger = log.New(&bytes.Buffer{}, "", 0)
	o := New(store, config)

	// MaxLogEntries is left zero so the configured bound applies.
	first := tracker.Options{CreateMissing: true, RenderTable: true, Now: syncNow}
	if _, err := o.TrackerSync(context.Background(), SyncOptions{
		ContextPath: "Projects/Alpha.md",
		Updates:     []tracker.Update{{ID: "e1", Status: strPtr("open")}},
		Tracker:     first,
	}); err != nil {
		t.Fatalf("First sync failed: %v", err)
	}

	second := first
	second.Now = syncNow.Add(time.Hour)
	if _, err := o.TrackerSync(context.Background(), SyncOptions{
		ContextPath: "Projects/Alpha.md",
		Updates:     []tracker.Update{{ID: "e2", Status: strPtr("open")}},
		Tracker:     second,
	}); err != nil {
		t.Fatalf("Second sync failed: %v", err)
	}

	body := store.notes["Projects/Alpha-Tracker.md"].Body
	if !strings.Contains(body, "2026-08-25T15:00:00Z") {
		t.Errorf("Missing newest log entry:\n%s", body)
	}
	if strings.Contains(body, "2026-08-25T14:00:00Z") {
		t.Errorf("Oldest log entry should have been truncated:\n%s", body)
	}
}
