package tracker

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// tableHeaders is the fixed column set of the rendered tracker table.
var tableHeaders = []string{"ID", "Type", "Status", "Priority", "Updated", "Title", "Note"}

// updatedLayouts are the timestamp shapes accepted when shortening the
// Updated cell to a plain date.
var updatedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// RenderTable renders the issue list as a Markdown table with the fixed
// seven-column header. Rows are sorted by status precedence (active work
// first, Done last, unrecognized statuses at the end) and by id within
// the same bucket. The table is a derived view only; it is never parsed
// back as truth.
func RenderTable(issues []Issue) string {
	var b strings.Builder
	writeRow(&b, tableHeaders)
	divider := make([]string, len(tableHeaders))
	for i := range divider {
		divider[i] = strings.Repeat("-", len(tableHeaders[i])+2)
	}
	writeRow(&b, divider)

	if len(issues) == 0 {
		writeRow(&b, []string{"(none)", "", "", "", "", "", ""})
		return strings.TrimRight(b.String(), "\n")
	}

	sorted := make([]Issue, len(issues))
	copy(sorted, issues)
	sort.SliceStable(sorted, func(x, y int) bool {
		px, py := StatusPrecedence(sorted[x].Status), StatusPrecedence(sorted[y].Status)
		if px != py {
			return px < py
		}
		return sorted[x].ID < sorted[y].ID
	})

	for _, issue := range sorted {
		writeRow(&b, []string{
			sanitizeCell(issue.ID),
			sanitizeCell(issue.Type),
			sanitizeCell(issue.Status),
			sanitizeCell(issue.Priority),
			formatUpdatedCell(issue.Updated),
			sanitizeCell(issue.Title),
			sanitizeCell(issue.Note),
		})
	}

	return strings.TrimRight(b.String(), "\n")
}

// RenderState serializes the issue list as a pretty-printed JSON array
// inside a ```json fence, ready to be upserted into the state section.
func RenderState(issues []Issue) (string, error) {
	if issues == nil {
		issues = []Issue{}
	}
	data, err := json.MarshalIndent(issues, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize tracker state: %w", err)
	}
	return "```json\n" + string(data) + "\n```", nil
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, cell := range cells {
		b.WriteString(" ")
		b.WriteString(cell)
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

// sanitizeCell makes a value safe inside a pipe table: newlines become
// single spaces, literal pipes are escaped, edges are trimmed.
func sanitizeCell(value string) string {
	s := strings.ReplaceAll(value, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.TrimSpace(s)
}

// formatUpdatedCell shortens a stored timestamp to its ISO date when it
// parses as one, keeps the raw text otherwise, and renders empty values
// as empty cells.
func formatUpdatedCell(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	for _, layout := range updatedLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return sanitizeCell(trimmed)
}
