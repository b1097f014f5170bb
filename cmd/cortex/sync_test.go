package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/tracker"
)

func TestParseSetFlag(t *testing.T) {
	update, err := parseSetFlag("id=E18,status=done,note=shipped")
	if err != nil {
		t.Fatalf("parseSetFlag failed: %v", err)
	}
	if update.ID != "E18" {
		t.Errorf("Expected id E18, got %q", update.ID)
	}
	if update.Status == nil || *update.Status != "done" {
		t.Errorf("Expected status done, got %v", update.Status)
	}
	if update.Note == nil || *update.Note != "shipped" {
		t.Errorf("Expected note shipped, got %v", update.Note)
	}
	if update.Title != nil {
		t.Errorf("Unset fields should stay nil, got title %q", *update.Title)
	}
}

func TestParseSetFlagTrimsAndLowercasesKeys(t *testing.T) {
	update, err := parseSetFlag(" ID = e1 , Status = wip ")
	if err != nil {
		t.Fatalf("parseSetFlag failed: %v", err)
	}
	if update.ID != "e1" {
		t.Errorf("Expected id e1, got %q", update.ID)
	}
	if update.Status == nil || *update.Status != "wip" {
		t.Errorf("Expected status wip, got %v", update.Status)
	}
}

func TestParseSetFlagKeepsEqualsInValue(t *testing.T) {
	update, err := parseSetFlag("id=E1,note=x=y")
	if err != nil {
		t.Fatalf("parseSetFlag failed: %v", err)
	}
	if update.Note == nil || *update.Note != "x=y" {
		t.Errorf("Value should split at the first equals only, got %v", update.Note)
	}
}

func TestParseSetFlagErrors(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"status", "want key=value pairs"},
		{"id=E1,color=red", `unknown --set field "color"`},
		{"status=done", "has no id"},
	}
	for _, tc := range cases {
		_, err := parseSetFlag(tc.raw)
		if err == nil {
			t.Errorf("parseSetFlag(%q) should fail", tc.raw)
			continue
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Errorf("parseSetFlag(%q) error %q should mention %q", tc.raw, err, tc.want)
		}
	}
}

func TestCollectUpdatesMergesFileAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "updates.json")
	payload := `[{"id": "E1", "status": "done"}, {"id": "E2", "action": "delete"}]`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("Failed to write updates file: %v", err)
	}

	updates, err := collectUpdates(path, []string{"id=E3,title=New one"})
	if err != nil {
		t.Fatalf("collectUpdates failed: %v", err)
	}
	if len(updates) != 3 {
		t.Fatalf("Expected 3 updates, got %d", len(updates))
	}
	if updates[0].ID != "E1" || updates[1].ID != "E2" || updates[2].ID != "E3" {
		t.Errorf("File updates should come before flag updates, got %s %s %s",
			updates[0].ID, updates[1].ID, updates[2].ID)
	}
	if updates[1].Action != "delete" {
		t.Errorf("Expected delete action for E2, got %q", updates[1].Action)
	}
	if updates[2].Title == nil || *updates[2].Title != "New one" {
		t.Errorf("Expected title from --set, got %v", updates[2].Title)
	}
}

func TestCollectUpdatesRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "updates.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("Failed to write updates file: %v", err)
	}
	if _, err := collectUpdates(path, nil); err == nil {
		t.Fatal("Malformed JSON should fail")
	}
}

func TestFormatStatusCountsOrdersByPrecedence(t *testing.T) {
	got := formatStatusCounts(map[string]int{
		tracker.StatusDone:       3,
		tracker.StatusOpen:       1,
		tracker.StatusInProgress: 2,
	})
	want := "Open 1  In Progress 2  Done 3"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}
