package tracker

import (
	"strings"
	"testing"
)

func TestParseStateJSONSection(t *testing.T) {
	body := "# My Tracker\n\n" +
		"## Tracker State (JSON)\n\n" +
		"```json\n" +
		`[{"id": "e1", "status": "wip", "title": "First"},` + "\n" +
		` {"id": "E2", "status": "done", "title": "Second"}]` + "\n" +
		"```\n"

	res := ParseState(body)
	if res.Source != SourceJSONState {
		t.Fatalf("Expected source json_state, got %q", res.Source)
	}
	if len(res.Issues) != 2 {
		t.Fatalf("Expected 2 issues, got %d", len(res.Issues))
	}
	if res.Issues[0].ID != "E1" {
		t.Errorf("Expected normalized id E1, got %q", res.Issues[0].ID)
	}
	if res.Issues[0].Status != StatusInProgress {
		t.Errorf("Expected normalized status, got %q", res.Issues[0].Status)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", res.Warnings)
	}
}

func TestParseStateMalformedJSONNeverThrows(t *testing.T) {
	body := "## Tracker State (JSON)\n\n```json\n{not valid\n```\n"

	res := ParseState(body)
	if res.Source != SourceTableImport && res.Source != SourceEmpty {
		t.Errorf("Expected degraded source, got %q", res.Source)
	}
	if len(res.Warnings) == 0 {
		t.Error("Degradation must leave a warning")
	}
	if len(res.Issues) != 0 {
		t.Errorf("Expected an empty issue list from a document with no importable tables, got %d", len(res.Issues))
	}
}

func TestParseStateNonListJSONFallsThrough(t *testing.T) {
	body := "## Tracker State (JSON)\n\n```json\n{\"id\": \"E1\"}\n```\n\n" +
		"## Legacy\n\n" +
		"| ID | Status |\n|----|--------|\n| E9 | open |\n"

	res := ParseState(body)
	if res.Source != SourceTableImport {
		t.Fatalf("Expected table_import after non-list JSON, got %q", res.Source)
	}
	if len(res.Warnings) == 0 {
		t.Error("Non-list JSON must be reported as a warning")
	}
	if len(res.Issues) != 1 || res.Issues[0].ID != "E9" {
		t.Errorf("Expected the table row to be imported, got %+v", res.Issues)
	}
}

func TestParseStateTableImport(t *testing.T) {
	body := `# Legacy Tracker

| ID | Status | Summary | Last Updated | Owner |
|----|--------|---------|--------------|-------|
| e1 | wip    | Fix the parser | 2026-08-01 | sam |
|    | open   | No id, skipped | | |
| E2 | qa     | Validate output | 2026-08-10 | |

Notes under the table.
`

	res := ParseState(body)
	if res.Source != SourceTableImport {
		t.Fatalf("Expected table_import, got %q", res.Source)
	}
	if len(res.Issues) != 2 {
		t.Fatalf("Expected 2 imported issues, got %d", len(res.Issues))
	}

	first := res.Issues[0]
	if first.ID != "E1" || first.Status != StatusInProgress {
		t.Errorf("Unexpected first import: %+v", first)
	}
	if first.Title != "Fix the parser" {
		t.Errorf("Summary column should map to title, got %q", first.Title)
	}
	if first.Updated != "2026-08-01" {
		t.Errorf("Last Updated column should map to updated, got %q", first.Updated)
	}
	if first.Owner != "sam" {
		t.Errorf("Owner column should map directly, got %q", first.Owner)
	}
	if res.Issues[1].Status != StatusInValidation {
		t.Errorf("qa should normalize to In Validation, got %q", res.Issues[1].Status)
	}
}

func TestParseStateIgnoresTablesWithoutIDAndStatus(t *testing.T) {
	body := `| Name | Count |
|------|-------|
| a    | 1     |
`

	res := ParseState(body)
	if res.Source != SourceEmpty {
		t.Errorf("Tables without id+status columns must not import, got %q", res.Source)
	}
	if len(res.Issues) != 0 {
		t.Errorf("Expected no issues, got %d", len(res.Issues))
	}
}

func TestParseStateConcatenatesMatchingTables(t *testing.T) {
	body := `## Sprint A

| ID | Status |
|----|--------|
| A1 | open |

## Sprint B

| ID | Status |
|----|--------|
| B1 | done |
`

	res := ParseState(body)
	if len(res.Issues) != 2 {
		t.Fatalf("Expected rows from both tables, got %d", len(res.Issues))
	}
	if res.Issues[0].ID != "A1" || res.Issues[1].ID != "B1" {
		t.Errorf("Rows should keep document order, got %+v", res.Issues)
	}
}

func TestParseStateEmptyDocument(t *testing.T) {
	res := ParseState("")
	if res.Source != SourceEmpty {
		t.Errorf("Expected empty source, got %q", res.Source)
	}
	if len(res.Issues) != 0 {
		t.Errorf("Expected no issues, got %d", len(res.Issues))
	}
	if len(res.Warnings) != 0 {
		t.Errorf("An absent section is not a degradation, got %v", res.Warnings)
	}
}

func TestParseStateReportsDuplicates(t *testing.T) {
	body := "## Tracker State (JSON)\n\n```json\n" +
		`[{"id": "E1", "status": "open"}, {"id": "e1", "status": "done"}]` + "\n" +
		"```\n"

	res := ParseState(body)
	if len(res.Issues) != 1 {
		t.Fatalf("Expected duplicate to be dropped, got %d issues", len(res.Issues))
	}
	if res.Issues[0].Status != StatusOpen {
		t.Errorf("First occurrence must win, got status %q", res.Issues[0].Status)
	}
	if len(res.DuplicateIDs) != 1 || res.DuplicateIDs[0] != "E1" {
		t.Errorf("Expected duplicate_ids [E1], got %v", res.DuplicateIDs)
	}
}

func TestExtractFencedJSONUntagged(t *testing.T) {
	section := `[{"id": "E1", "status": "open"}]`
	if got := extractFencedJSON(section); got != section {
		t.Errorf("Raw section text should pass through when no fence exists, got %q", got)
	}
}

func TestExtractFencedJSONPicksTaggedFence(t *testing.T) {
	section := "prose before\n\n```json\n[1, 2]\n```\n\nprose after"
	if got := extractFencedJSON(section); strings.TrimSpace(got) != "[1, 2]" {
		t.Errorf("Expected fence content, got %q", got)
	}
}
