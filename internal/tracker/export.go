package tracker

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ExportJSONL writes the issue list as JSON Lines: one canonical record
// object per line, in list order. The format pipes cleanly into jq and
// other line-oriented tooling.
func ExportJSONL(w io.Writer, issues []Issue) error {
	for _, issue := range issues {
		data, err := json.Marshal(issue)
		if err != nil {
			return fmt.Errorf("failed to marshal issue %s: %w", issue.ID, err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write issue %s: %w", issue.ID, err)
		}
	}
	return nil
}

// ImportJSONL reads issue records line by line and normalizes them.
// Blank lines are skipped; lines that fail to decode are dropped with a
// warning rather than aborting the import. Returns the normalized list,
// duplicate ids, and warnings, in the same shape ParseState reports.
func ImportJSONL(r io.Reader) ([]Issue, []string, []string, error) {
	var (
		raw      []Issue
		warnings []string
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var issue Issue
		if err := json.Unmarshal([]byte(line), &issue); err != nil {
			warnings = append(warnings, fmt.Sprintf("skipped line %d: %v", lineNo, err))
			continue
		}
		raw = append(raw, issue)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, warnings, fmt.Errorf("failed to read import stream: %w", err)
	}

	issues, dups := Normalize(raw)
	return issues, dups, warnings, nil
}
