package tracker

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeID(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"e18", "E18"},
		{"  E18  ", "E18"},
		{"bug-7", "BUG-7"},
		{"", ""},
		{"   ", ""},
	}

	for _, c := range cases {
		if got := NormalizeID(c.input); got != c.want {
			t.Errorf("NormalizeID(%q) = %q, want %q", c.input, got, c.want)
		}
	}
}

func TestNormalizeDropsEmptyIDs(t *testing.T) {
	raw := []Issue{
		{ID: "E1", Status: "open"},
		{ID: "   ", Status: "open"},
		{ID: "", Status: "done"},
	}

	issues, dups := Normalize(raw)
	if len(issues) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(issues))
	}
	if issues[0].ID != "E1" {
		t.Errorf("Expected E1, got %q", issues[0].ID)
	}
	if len(dups) != 0 {
		t.Errorf("Records without ids are dropped, not duplicates: %v", dups)
	}
}

func TestNormalizeFirstWins(t *testing.T) {
	raw := []Issue{
		{ID: "E1", Title: "first", Status: "open"},
		{ID: "e1", Title: "second", Status: "done"},
		{ID: " E1 ", Title: "third", Status: "blocked"},
		{ID: "E2", Title: "other", Status: "open"},
		{ID: "E2", Title: "again", Status: "open"},
	}

	issues, dups := Normalize(raw)
	if len(issues) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(issues))
	}
	if issues[0].Title != "first" {
		t.Errorf("First occurrence must win, got title %q", issues[0].Title)
	}
	if diff := cmp.Diff([]string{"E1", "E2"}, dups); diff != "" {
		t.Errorf("Duplicate ids mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeUniquenessInvariant(t *testing.T) {
	raw := []Issue{
		{ID: "a", Status: "open"},
		{ID: "A", Status: "open"},
		{ID: "b", Status: "open"},
		{ID: "B", Status: "open"},
		{ID: "c", Status: "open"},
	}

	issues, dups := Normalize(raw)

	seen := map[string]bool{}
	for _, issue := range issues {
		if seen[issue.ID] {
			t.Errorf("Duplicate id %q survived normalization", issue.ID)
		}
		seen[issue.ID] = true
	}
	if diff := cmp.Diff([]string{"A", "B"}, dups); diff != "" {
		t.Errorf("Every repeated id must be reported (-want +got):\n%s", diff)
	}
}

func TestNormalizeCanonicalizesStatus(t *testing.T) {
	issues, _ := Normalize([]Issue{{ID: "E1", Status: "wip"}})
	if issues[0].Status != StatusInProgress {
		t.Errorf("Expected status %q, got %q", StatusInProgress, issues[0].Status)
	}
}
