package tracker

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExportImportJSONLRoundTrip(t *testing.T) {
	issues := []Issue{
		{ID: "E1", Status: StatusOpen, Title: "First"},
		{ID: "E2", Status: StatusDone, Note: "shipped", Extra: map[string]any{"sprint": "24"}},
	}

	var buf strings.Builder
	if err := ExportJSONL(&buf, issues); err != nil {
		t.Fatalf("ExportJSONL failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected one line per issue, got %d", len(lines))
	}

	decoded, dups, warnings, err := ImportJSONL(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("ImportJSONL failed: %v", err)
	}
	if len(dups) != 0 || len(warnings) != 0 {
		t.Errorf("Clean round trip should report nothing, got dups=%v warnings=%v", dups, warnings)
	}
	if diff := cmp.Diff(issues, decoded); diff != "" {
		t.Errorf("Round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestImportJSONLSkipsBadLines(t *testing.T) {
	input := `{"id":"e1","status":"open"}
not json
{"id":"E2","status":"wip"}

{"id":"E1","status":"done"}
`

	issues, dups, warnings, err := ImportJSONL(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ImportJSONL failed: %v", err)
	}

	if len(issues) != 2 {
		t.Fatalf("Expected 2 issues after dedupe, got %d", len(issues))
	}
	// First occurrence of E1 wins; its status normalizes to Open.
	if issues[0].ID != "E1" || issues[0].Status != StatusOpen {
		t.Errorf("Expected first E1 kept as Open, got %+v", issues[0])
	}
	if issues[1].ID != "E2" || issues[1].Status != StatusInProgress {
		t.Errorf("Expected E2 as In Progress, got %+v", issues[1])
	}

	if len(dups) != 1 || dups[0] != "E1" {
		t.Errorf("Expected duplicate report for E1, got %v", dups)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "line 2") {
		t.Errorf("Expected a warning naming line 2, got %v", warnings)
	}
}

func TestExportJSONLEmpty(t *testing.T) {
	var buf strings.Builder
	if err := ExportJSONL(&buf, nil); err != nil {
		t.Fatalf("ExportJSONL failed: %v", err)
	}
	if buf.String() != "" {
		t.Errorf("Empty export should write nothing, got %q", buf.String())
	}
}
