// Package mdnote models heading-delimited sections and pipe tables inside
// Markdown note bodies.
//
// Sections are the unit of deterministic partial edits: a caller replaces
// exactly one named region without disturbing its siblings, regardless of
// heading level. Parsing is a line scanner, not pattern matching, so the
// worst case stays linear on large documents.
package mdnote

import (
	"strings"
)

// Action reports what UpsertSection did to the document.
type Action string

const (
	// ActionUpdated means an existing section was replaced in place.
	ActionUpdated Action = "updated"

	// ActionInserted means the section was appended to the document.
	ActionInserted Action = "inserted"
)

// SectionSpan describes where a section sits in a document, in line
// coordinates: Start is the heading line, End is the exclusive boundary
// (the next sibling-or-shallower heading, or one past the last line).
type SectionSpan struct {
	Start int
	End   int
	Level int
}

// FindSection locates the first section whose heading text matches,
// case-insensitively and at any heading level 1-6. The span runs from the
// heading line to the next heading whose marker is the same depth or
// shallower.
func FindSection(body, heading string) (SectionSpan, bool) {
	want := strings.TrimSpace(heading)
	lines := strings.Split(body, "\n")

	for i, line := range lines {
		level, text, ok := parseHeading(line)
		if !ok || !strings.EqualFold(text, want) {
			continue
		}

		end := len(lines)
		for j := i + 1; j < len(lines); j++ {
			if nextLevel, _, isHeading := parseHeading(lines[j]); isHeading && nextLevel <= level {
				end = j
				break
			}
		}
		return SectionSpan{Start: i, End: end, Level: level}, true
	}

	return SectionSpan{}, false
}

// Section returns the trimmed text strictly between the heading line and
// the section boundary, and whether the heading was found at all.
func Section(body, heading string) (string, bool) {
	span, ok := FindSection(body, heading)
	if !ok {
		return "", false
	}
	lines := strings.Split(body, "\n")
	return strings.TrimSpace(strings.Join(lines[span.Start+1:span.End], "\n")), true
}

// UpsertSection replaces the named section with a freshly built block, or
// appends the block when the heading is absent. The match is by heading
// text only; the rebuilt heading always uses the caller's level. Runs of
// blank lines are collapsed and the result ends with exactly one newline.
func UpsertSection(body, heading, content string, level int) (string, Action) {
	if level < 1 {
		level = 2
	}
	if level > 6 {
		level = 6
	}

	block := strings.Repeat("#", level) + " " + strings.TrimSpace(heading) + "\n\n" + strings.TrimSpace(content)

	span, found := FindSection(body, heading)
	var joined string
	if found {
		lines := strings.Split(body, "\n")
		var out []string
		out = append(out, lines[:span.Start]...)
		out = append(out, strings.Split(block, "\n")...)
		out = append(out, "")
		out = append(out, lines[span.End:]...)
		joined = strings.Join(out, "\n")
	} else {
		trimmed := strings.TrimRight(body, " \t\n")
		if trimmed == "" {
			joined = block
		} else {
			joined = trimmed + "\n\n" + block
		}
	}

	result := strings.TrimRight(collapseBlankRuns(joined), "\n") + "\n"
	if found {
		return result, ActionUpdated
	}
	return result, ActionInserted
}

// parseHeading reports the marker depth and trimmed text of a Markdown
// heading line, or ok=false for any other line. Markers deeper than six
// are not headings.
func parseHeading(line string) (level int, text string, ok bool) {
	trimmed := strings.TrimRight(line, " \t")
	n := 0
	for n < len(trimmed) && trimmed[n] == '#' {
		n++
	}
	if n < 1 || n > 6 {
		return 0, "", false
	}
	rest := trimmed[n:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return 0, "", false
	}
	return n, strings.TrimSpace(rest), true
}

// collapseBlankRuns rewrites runs of three or more consecutive newlines
// down to two, so at most one blank line separates blocks.
func collapseBlankRuns(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	run := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			run++
			if run <= 2 {
				b.WriteByte('\n')
			}
			continue
		}
		run = 0
		b.WriteByte(s[i])
	}
	return b.String()
}
