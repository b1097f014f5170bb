package tracker

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/mdnote"
)

// Section headings recognized inside a tracker document. Matching is
// case-insensitive; rendering always uses this canonical casing.
const (
	SectionState = "Tracker State (JSON)"
	SectionTable = "Tracker Table"
	SectionLog   = "Tracker Sync Log"
)

// Source reports where a parsed tracker state was reconstructed from.
type Source string

const (
	// SourceJSONState means the canonical JSON section was present and
	// parseable. This is the normal case.
	SourceJSONState Source = "json_state"

	// SourceTableImport means the JSON section was absent or unreadable
	// and the state was imported best-effort from Markdown tables.
	SourceTableImport Source = "table_import"

	// SourceEmpty means neither source yielded any records.
	SourceEmpty Source = "empty"
)

// ParseResult is the reconstructed state of one tracker document plus
// everything non-fatal that happened on the way.
type ParseResult struct {
	Issues       []Issue
	Source       Source
	Warnings     []string
	DuplicateIDs []string
}

// StatusCounts tallies the parsed issues per canonical status label.
func (r ParseResult) StatusCounts() map[string]int {
	return statusCounts(r.Issues)
}

func statusCounts(issues []Issue) map[string]int {
	counts := map[string]int{}
	for _, issue := range issues {
		counts[issue.Status]++
	}
	return counts
}

// ParseState reconstructs tracker state from a document body.
//
// The canonical "Tracker State (JSON)" section is the source of truth
// when present and parseable. A missing, non-list, or unreadable JSON
// payload degrades to importing legacy tables, and an import that yields
// nothing degrades to the empty state. Degradation is reported through
// Warnings and never raises.
func ParseState(body string) ParseResult {
	res := ParseResult{Source: SourceEmpty}

	if sectionText, ok := mdnote.Section(body, SectionState); ok {
		payload := extractFencedJSON(sectionText)

		var probe any
		if err := json.Unmarshal([]byte(payload), &probe); err != nil {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("tracker state JSON is unreadable, falling back to table import: %v", err))
		} else if _, isList := probe.([]any); !isList {
			res.Warnings = append(res.Warnings,
				"tracker state JSON is not a list, falling back to table import")
		} else {
			res.Issues, res.DuplicateIDs = Normalize(decodeIssueList(payload))
			res.Source = SourceJSONState
			return res
		}
	}

	imported := importFromTables(body)
	if len(imported) == 0 {
		return res
	}

	res.Issues, res.DuplicateIDs = Normalize(imported)
	res.Source = SourceTableImport
	return res
}

// decodeIssueList parses a JSON array payload element by element.
// Elements that are not objects decode to empty records and get dropped
// later by Normalize for lacking an id.
func decodeIssueList(payload string) []Issue {
	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &elements); err != nil {
		return nil
	}

	issues := make([]Issue, 0, len(elements))
	for _, element := range elements {
		var issue Issue
		if err := json.Unmarshal(element, &issue); err != nil {
			continue
		}
		issues = append(issues, issue)
	}
	return issues
}

// extractFencedJSON pulls the content of a ```json fenced block out of a
// section. When no tagged fence exists the raw section text is returned,
// so untagged legacy payloads still get a parse attempt.
func extractFencedJSON(section string) string {
	lines := strings.Split(section, "\n")
	start := -1

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if start < 0 {
			if strings.HasPrefix(trimmed, "```") &&
				strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(trimmed, "```")), "json") {
				start = i
			}
			continue
		}
		if trimmed == "```" {
			return strings.Join(lines[start+1:i], "\n")
		}
	}

	if start >= 0 {
		// Unterminated fence: take everything after the opener.
		return strings.Join(lines[start+1:], "\n")
	}
	return section
}

// titleAliases and updatedAliases are the header names accepted for those
// columns during legacy table import, checked in order.
var (
	titleAliases   = []string{"title", "summary", "issue", "description", "name"}
	updatedAliases = []string{"updated", "last updated", "last_updated", "date"}
	noteAliases    = []string{"note", "notes"}
)

// importFromTables maps legacy Markdown tables into partial issue
// records. Only tables carrying both an id and a status column
// contribute; rows without a resolvable id are skipped. Rows concatenate
// across all matching tables in document order.
func importFromTables(body string) []Issue {
	var imported []Issue

	for _, table := range mdnote.ParseTables(body) {
		cols := make(map[string]int, len(table.Headers))
		for i, h := range table.Headers {
			cols[strings.ToLower(strings.TrimSpace(h))] = i
		}

		idCol, hasID := cols["id"]
		statusCol, hasStatus := cols["status"]
		if !hasID || !hasStatus {
			continue
		}

		titleCol := firstColumn(cols, titleAliases)
		updatedCol := firstColumn(cols, updatedAliases)
		noteCol := firstColumn(cols, noteAliases)
		typeCol := columnOrMissing(cols, "type")
		priorityCol := columnOrMissing(cols, "priority")
		ownerCol := columnOrMissing(cols, "owner")

		for _, row := range table.Rows {
			id := cell(row, idCol)
			if strings.TrimSpace(id) == "" {
				continue
			}
			imported = append(imported, Issue{
				ID:       id,
				Status:   cell(row, statusCol),
				Title:    cell(row, titleCol),
				Type:     cell(row, typeCol),
				Priority: cell(row, priorityCol),
				Owner:    cell(row, ownerCol),
				Note:     cell(row, noteCol),
				Updated:  cell(row, updatedCol),
			})
		}
	}

	return imported
}

func firstColumn(cols map[string]int, aliases []string) int {
	for _, name := range aliases {
		if idx, ok := cols[name]; ok {
			return idx
		}
	}
	return -1
}

func columnOrMissing(cols map[string]int, name string) int {
	if idx, ok := cols[name]; ok {
		return idx
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
