package mdnote

import "strings"

// Table is one parsed pipe table: the header row plus every data row, in
// document order. Cell values are trimmed.
type Table struct {
	Headers []string
	Rows    [][]string
}

// ParseTables scans a Markdown body for pipe tables. A table starts where
// a line containing "|" is immediately followed by a divider row, and runs
// until the first blank or non-table line. All tables in the document are
// returned in order.
//
// This is a best-effort import mechanism for legacy hand-authored tables;
// rendering is always one-directional from structured state back to text.
func ParseTables(body string) []Table {
	lines := strings.Split(body, "\n")
	var tables []Table

	i := 0
	for i < len(lines)-1 {
		if !strings.Contains(lines[i], "|") || !isDividerRow(lines[i+1]) {
			i++
			continue
		}

		table := Table{Headers: splitRow(lines[i])}
		j := i + 2
		for j < len(lines) {
			line := lines[j]
			if strings.TrimSpace(line) == "" || !strings.Contains(line, "|") {
				break
			}
			table.Rows = append(table.Rows, splitRow(line))
			j++
		}

		tables = append(tables, table)
		i = j
	}

	return tables
}

// isDividerRow matches the header/body separator: a non-empty row made of
// nothing but "|", "-", ":" and whitespace, with at least one dash.
func isDividerRow(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || !strings.Contains(trimmed, "-") {
		return false
	}
	for _, r := range trimmed {
		switch r {
		case '|', '-', ':', ' ', '\t':
		default:
			return false
		}
	}
	return true
}

// splitRow strips one optional outer pipe on each side, splits on "|",
// and trims every cell.
func splitRow(line string) []string {
	s := strings.TrimSpace(line)
	s = strings.TrimPrefix(s, "|")
	s = strings.TrimSuffix(s, "|")

	parts := strings.Split(s, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}
