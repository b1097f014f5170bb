package session

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"
	"time"
)

func TestStartWithMissingContext(t *testing.T) {
	o := testOrchestrator(newMockStore())

	result, err := o.Start(context.Background(), StartOptions{})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if result.ContextPath != "Cortex/Context.md" {
		t.Errorf("Expected default context path, got '%s'", result.ContextPath)
	}
	if result.ContextExists {
		t.Error("Expected ContextExists to be false")
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "does not exist") {
		t.Errorf("Expected a missing-context warning, got %v", result.Warnings)
	}
	if len(result.Bootstrap) != 2 {
		t.Fatalf("Expected 2 bootstrap entries, got %d", len(result.Bootstrap))
	}
	for _, doc := range result.Bootstrap {
		if doc.Exists {
			t.Errorf("Expected bootstrap doc %s to be missing", doc.Path)
		}
	}
}

func TestStartLoadsContextAndSummary(t *testing.T) {
	store := newMockStore()
	store.put("Cortex/Identity.md", nil, "You are the project assistant.\n")
	store.put("Projects/Alpha.md", map[string]any{KeyType: TypeProjectContext}, `# Alpha

## Current Priorities

- First priority
- Second priority
- Third priority

## Known Risks/Blockers

- Waiting on review

## Next Actions

- Write the release notes
`)

	config := DefaultConfig()
	config.MaxPriorities = 2
	config.Logger = log.New(&bytes.Buffer{}, "", 0)
	o := New(store, config)

	result, err := o.Start(context.Background(), StartOptions{ContextPath: "Projects/Alpha.md"})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if !result.ContextExists {
		t.Fatal("Expected context to exist")
	}
	if !strings.Contains(result.Context, "# Alpha") {
		t.Error("Expected context body in result")
	}

	if len(result.Summary.Priorities) != 2 {
		t.Errorf("Expected 2 priorities after capping, got %v", result.Summary.Priorities)
	}
	if len(result.Summary.Blockers) != 1 || result.Summary.Blockers[0] != "Waiting on review" {
		t.Errorf("Unexpected blockers: %v", result.Summary.Blockers)
	}
	if len(result.Summary.NextActions) != 1 {
		t.Errorf("Expected 1 next action, got %v", result.Summary.NextActions)
	}

	var identity *BootstrapDoc
	for i := range result.Bootstrap {
		if result.Bootstrap[i].Path == "Cortex/Identity.md" {
			identity = &result.Bootstrap[i]
		}
	}
	if identity == nil || !identity.Exists {
		t.Fatal("Expected Cortex/Identity.md bootstrap doc to load")
	}
	if !strings.Contains(identity.Body, "project assistant") {
		t.Errorf("Unexpected bootstrap body: %s", identity.Body)
	}
}

func TestStartScanRecent(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	store := newMockStore()
	store.put("Projects/Alpha.md", nil, "# Alpha\n")
	store.put("Projects/fresh.md", nil, "# Fresh\n")
	store.put("Projects/older.md", nil, "# Older\n")
	store.put("Projects/ancient.md", nil, "# Ancient\n")
	store.mtimes["Projects/Alpha.md"] = now.Add(-1 * time.Hour)
	store.mtimes["Projects/fresh.md"] = now.Add(-2 * time.Hour)
	store.mtimes["Projects/older.md"] = now.Add(-30 * time.Hour)
	store.mtimes["Projects/ancient.md"] = now.Add(-100 * time.Hour)

	o := testOrchestrator(store)
	result, err := o.Start(context.Background(), StartOptions{
		ContextPath: "Projects/Alpha.md",
		ScanRecent:  true,
		Now:         now,
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if len(result.RecentFiles) != 3 {
		t.Fatalf("Expected 3 recent files within 72h, got %v", result.RecentFiles)
	}
	if result.RecentFiles[0].Path != "Projects/Alpha.md" {
		t.Errorf("Expected newest first, got %s", result.RecentFiles[0].Path)
	}
	if result.RecentFiles[2].Path != "Projects/older.md" {
		t.Errorf("Expected oldest in-window last, got %s", result.RecentFiles[2].Path)
	}
}

func TestStartCancelledContext(t *testing.T) {
	store := newMockStore()
	store.put("Cortex/Context.md", nil, "# Context\n")
	o := testOrchestrator(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := o.Start(ctx, StartOptions{}); err == nil {
		t.Error("Expected error from cancelled context")
	}
}
