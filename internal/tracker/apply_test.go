package tracker

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var applyNow = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

func strptr(s string) *string { return &s }

func TestApplyUpdatesBatchComposition(t *testing.T) {
	state := []Issue{{ID: "E1", Status: StatusOpen}}
	updates := []Update{
		{ID: "E1", Action: "upsert", Status: strptr("Done")},
		{ID: "E1", Status: strptr("Blocked")},
	}

	applied := ApplyUpdates(state, updates, true, applyNow)

	if len(applied.Issues) != 1 {
		t.Fatalf("Expected a single record, got %d", len(applied.Issues))
	}
	if applied.Issues[0].Status != StatusBlocked {
		t.Errorf("Second update must win, got status %q", applied.Issues[0].Status)
	}
	if diff := cmp.Diff([]string{"E1", "E1"}, applied.UpdatedIDs); diff != "" {
		t.Errorf("Both updates must be counted (-want +got):\n%s", diff)
	}
	if len(applied.CreatedIDs) != 0 {
		t.Errorf("Nothing was created, got %v", applied.CreatedIDs)
	}
}

func TestApplyUpdatesCreateDefaults(t *testing.T) {
	applied := ApplyUpdates(nil, []Update{{ID: "e18", Status: strptr("open"), Title: strptr("New issue")}}, true, applyNow)

	if diff := cmp.Diff([]string{"E18"}, applied.CreatedIDs); diff != "" {
		t.Fatalf("CreatedIDs mismatch (-want +got):\n%s", diff)
	}

	rec := applied.Issues[0]
	if rec.ID != "E18" {
		t.Errorf("Expected normalized id E18, got %q", rec.ID)
	}
	if rec.Status != StatusOpen {
		t.Errorf("Expected status Open, got %q", rec.Status)
	}
	if rec.Title != "New issue" {
		t.Errorf("Expected title set, got %q", rec.Title)
	}
	if rec.Created != "2026-08-25" {
		t.Errorf("Expected created date stamped, got %q", rec.Created)
	}
	if rec.Updated != "2026-08-25T12:00:00Z" {
		t.Errorf("Expected updated timestamp stamped, got %q", rec.Updated)
	}
	if rec.Note != "" || rec.Owner != "" || rec.Type != "" || rec.Priority != "" {
		t.Errorf("Absent text fields must default to empty, got %+v", rec)
	}
}

func TestApplyUpdatesCreateMissingDisabled(t *testing.T) {
	applied := ApplyUpdates(nil, []Update{{ID: "E5", Status: strptr("open")}}, false, applyNow)

	if len(applied.Issues) != 0 {
		t.Errorf("Nothing should be created, got %d issues", len(applied.Issues))
	}
	if diff := cmp.Diff([]string{"E5"}, applied.UnresolvedIDs); diff != "" {
		t.Errorf("UnresolvedIDs mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyUpdatesPartialOverwrite(t *testing.T) {
	state := []Issue{{
		ID:      "E1",
		Status:  StatusOpen,
		Title:   "Original title",
		Note:    "Original note",
		Created: "2026-01-01",
		Updated: "2026-01-01T00:00:00Z",
	}}

	applied := ApplyUpdates(state, []Update{{ID: "E1", Note: strptr("  Revised note  ")}}, true, applyNow)

	rec := applied.Issues[0]
	if rec.Note != "Revised note" {
		t.Errorf("Note should be overwritten trimmed, got %q", rec.Note)
	}
	if rec.Title != "Original title" {
		t.Errorf("Absent fields must stay untouched, got %q", rec.Title)
	}
	if rec.Status != StatusOpen {
		t.Errorf("Absent status must stay untouched, got %q", rec.Status)
	}
	if rec.Created != "2026-01-01" {
		t.Errorf("Created is never overwritten, got %q", rec.Created)
	}
	if rec.Updated != "2026-08-25T12:00:00Z" {
		t.Errorf("Updated must refresh on every mutation, got %q", rec.Updated)
	}
}

func TestApplyUpdatesDeleteNonexistent(t *testing.T) {
	applied := ApplyUpdates(nil, []Update{{ID: "E9", Action: "delete"}}, true, applyNow)

	if diff := cmp.Diff([]string{"E9"}, applied.UnresolvedIDs); diff != "" {
		t.Errorf("Deleting a missing id must be unresolved (-want +got):\n%s", diff)
	}
	if len(applied.DeletedIDs) != 0 {
		t.Errorf("Nothing was deleted, got %v", applied.DeletedIDs)
	}
}

func TestApplyUpdatesCreateThenDeleteInOneBatch(t *testing.T) {
	updates := []Update{
		{ID: "E7", Status: strptr("open")},
		{ID: "E7", Action: "delete"},
	}

	applied := ApplyUpdates(nil, updates, true, applyNow)

	if len(applied.Issues) != 0 {
		t.Errorf("Record must be absent from final state, got %+v", applied.Issues)
	}
	if diff := cmp.Diff([]string{"E7"}, applied.CreatedIDs); diff != "" {
		t.Errorf("CreatedIDs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"E7"}, applied.DeletedIDs); diff != "" {
		t.Errorf("DeletedIDs mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyUpdatesUnresolvableID(t *testing.T) {
	applied := ApplyUpdates(nil, []Update{{ID: "   ", Status: strptr("open")}}, true, applyNow)

	if len(applied.UnresolvedIDs) != 1 || applied.UnresolvedIDs[0] != "   " {
		t.Errorf("The raw input must be reported, got %v", applied.UnresolvedIDs)
	}
	if len(applied.Issues) != 0 {
		t.Errorf("Nothing should be created for an empty id, got %d issues", len(applied.Issues))
	}
}

func TestApplyUpdatesDoesNotMutateInput(t *testing.T) {
	state := []Issue{{ID: "E1", Status: StatusOpen, Extra: map[string]any{"custom": "x"}}}

	ApplyUpdates(state, []Update{{ID: "E1", Status: strptr("done")}}, true, applyNow)

	if state[0].Status != StatusOpen {
		t.Errorf("Input list must not be mutated, got %q", state[0].Status)
	}
}

func TestApplyUpdatesPreservesExtra(t *testing.T) {
	state := []Issue{{ID: "E1", Status: StatusOpen, Extra: map[string]any{"sprint": "24"}}}

	applied := ApplyUpdates(state, []Update{{ID: "E1", Status: strptr("done")}}, true, applyNow)

	if applied.Issues[0].Extra["sprint"] != "24" {
		t.Errorf("Passthrough fields must survive updates, got %v", applied.Issues[0].Extra)
	}
}
