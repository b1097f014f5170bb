package tracker

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/mdnote"
)

// Syncer applies update batches to tracker documents.
//
// A sync is a read-modify-write over one document body: parse the current
// state, apply the batch, re-render the canonical JSON section and the
// derived table, and prepend one audit line to the bounded sync log.
// Content outside the three tracker sections is preserved untouched.
//
// The syncer is resilient: malformed state degrades with warnings instead
// of failing, and unapplicable updates are reported, not raised. The only
// errors it returns are ones that would lose data if ignored.
type Syncer interface {
	// Sync applies updates to a tracker document body and returns the
	// rewritten body plus a structured summary of what happened.
	//
	// Example:
	//   body, result, err := syncer.Sync(doc, []tracker.Update{
	//       {ID: "e18", Status: ptr("open"), Title: ptr("New issue")},
	//   }, tracker.DefaultOptions())
	Sync(body string, updates []Update, opts Options) (string, Result, error)
}

// Options control a single sync call. The zero value is not useful;
// start from DefaultOptions.
type Options struct {
	// CreateMissing lets upserts targeting unknown ids create records.
	CreateMissing bool

	// RenderTable re-renders the derived table section after applying.
	RenderTable bool

	// MaxLogEntries bounds the sync log section. Values below 1 are
	// clamped to 1; the log always keeps at least the newest entry.
	MaxLogEntries int

	// Now fixes the timestamp used for created/updated stamps and the
	// audit line. Zero means the wall clock.
	Now time.Time
}

// DefaultOptions mirrors the documented operation defaults.
func DefaultOptions() Options {
	return Options{
		CreateMissing: true,
		RenderTable:   true,
		MaxLogEntries: 20,
	}
}

// Result summarizes one sync: where the prior state came from, what the
// batch did, and the shape of the final state.
type Result struct {
	Source        Source         `json:"parse_source"`
	Warnings      []string       `json:"warnings"`
	DuplicateIDs  []string       `json:"duplicate_ids"`
	IssueCount    int            `json:"issue_count"`
	StatusCounts  map[string]int `json:"status_counts"`
	UpdatedIDs    []string       `json:"updated_ids"`
	CreatedIDs    []string       `json:"created_ids"`
	DeletedIDs    []string       `json:"deleted_ids"`
	UnresolvedIDs []string       `json:"unresolved_ids"`
}

// syncer implements the Syncer interface.
type syncer struct {
	logger *log.Logger
}

// New creates a Syncer. If logger is nil, a default logger writing to
// stderr is used.
func New(logger *log.Logger) Syncer {
	if logger == nil {
		logger = log.New(os.Stderr, "[tracker] ", log.LstdFlags)
	}
	return &syncer{logger: logger}
}

// Sync implements Syncer.Sync.
func (s *syncer) Sync(body string, updates []Update, opts Options) (string, Result, error) {
	if opts.MaxLogEntries < 1 {
		opts.MaxLogEntries = 1
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	parsed := ParseState(body)
	applied := ApplyUpdates(parsed.Issues, updates, opts.CreateMissing, now)

	result := Result{
		Source:        parsed.Source,
		Warnings:      parsed.Warnings,
		DuplicateIDs:  unionSorted(parsed.DuplicateIDs, applied.DuplicateIDs),
		IssueCount:    len(applied.Issues),
		StatusCounts:  statusCounts(applied.Issues),
		UpdatedIDs:    applied.UpdatedIDs,
		CreatedIDs:    applied.CreatedIDs,
		DeletedIDs:    applied.DeletedIDs,
		UnresolvedIDs: applied.UnresolvedIDs,
	}

	stateBlock, err := RenderState(applied.Issues)
	if err != nil {
		return "", Result{}, fmt.Errorf("failed to render tracker state: %w", err)
	}
	body, _ = mdnote.UpsertSection(body, SectionState, stateBlock, 2)

	if opts.RenderTable {
		body, _ = mdnote.UpsertSection(body, SectionTable, RenderTable(applied.Issues), 2)
	}

	logLine := buildLogLine(now, result)
	body, _ = mdnote.UpsertSection(body, SectionLog, prependLogLine(body, logLine, opts.MaxLogEntries), 2)

	s.logger.Printf("Synced %d issues (source=%s): updated=%d created=%d deleted=%d unresolved=%d",
		result.IssueCount, result.Source,
		len(result.UpdatedIDs), len(result.CreatedIDs),
		len(result.DeletedIDs), len(result.UnresolvedIDs))

	return body, result, nil
}

// buildLogLine formats one audit entry: timestamp, then the four id lists
// (or the literal "none"), then duplicates and warnings only when they
// exist.
func buildLogLine(now time.Time, result Result) string {
	var b strings.Builder
	b.WriteString("- ")
	b.WriteString(now.UTC().Format(time.RFC3339))
	b.WriteString(" updated=")
	b.WriteString(idsOrNone(result.UpdatedIDs))
	b.WriteString(" created=")
	b.WriteString(idsOrNone(result.CreatedIDs))
	b.WriteString(" deleted=")
	b.WriteString(idsOrNone(result.DeletedIDs))
	b.WriteString(" unresolved=")
	b.WriteString(idsOrNone(result.UnresolvedIDs))
	if len(result.DuplicateIDs) > 0 {
		b.WriteString(" duplicate_ids=")
		b.WriteString(strings.Join(result.DuplicateIDs, ","))
	}
	if len(result.Warnings) > 0 {
		b.WriteString(" warnings=")
		b.WriteString(strings.Join(result.Warnings, "; "))
	}
	return b.String()
}

func idsOrNone(ids []string) string {
	if len(ids) == 0 {
		return "none"
	}
	return strings.Join(ids, ",")
}

// prependLogLine puts the new entry ahead of the existing sync-log bullet
// lines, newest first, truncated to the bound.
func prependLogLine(body, line string, maxEntries int) string {
	entries := []string{line}

	if existing, ok := mdnote.Section(body, SectionLog); ok {
		for _, existingLine := range strings.Split(existing, "\n") {
			trimmed := strings.TrimSpace(existingLine)
			if strings.HasPrefix(trimmed, "- ") {
				entries = append(entries, trimmed)
			}
		}
	}

	if len(entries) > maxEntries {
		entries = entries[:maxEntries]
	}
	return strings.Join(entries, "\n")
}
