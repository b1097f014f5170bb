package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/mdnote"
	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/tracker"
	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/vault"
)

// CheckpointOptions configure a checkpoint.
type CheckpointOptions struct {
	// ContextPath overrides the active project context resolution.
	ContextPath string

	// Summary is a one-line description recorded in the session log.
	Summary string

	// Bullets to upsert into the context's known sections. An empty
	// slice leaves its section untouched.
	Status      []string
	Priorities  []string
	Blockers    []string
	NextActions []string

	// SyncTracker additionally runs the tracker sync macro with Updates.
	SyncTracker bool
	Updates     []tracker.Update

	// SessionDate overrides the log date (ISO). Empty means today.
	SessionDate string

	// Now fixes the reference time. Zero means the wall clock.
	Now time.Time
}

// StepResult reports one checkpoint step. Steps run in a fixed order
// and stop at the first failure; earlier writes stay committed.
type StepResult struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// CheckpointResult reports what a checkpoint wrote.
type CheckpointResult struct {
	ContextPath     string       `json:"context_path"`
	UpdatedSections []string     `json:"updated_sections"`
	SessionLogPath  string       `json:"session_log_path"`
	DailyNotePath   string       `json:"daily_note_path"`
	PointerAdded    bool         `json:"pointer_added"`
	Completed       bool         `json:"completed"`
	Steps           []StepResult `json:"steps"`
	Tracker         *SyncResult  `json:"tracker,omitempty"`
}

// Checkpoint persists session progress: bullets go into the context's
// known sections, an audit block lands in the per-day per-project
// session log, the daily note gains an idempotent pointer line, and
// optionally a tracker sync runs.
//
// There is no cross-document transaction: a failing step leaves earlier
// writes committed and later steps unexecuted, with each step's outcome
// reported in Steps.
func (o *Orchestrator) Checkpoint(ctx context.Context, opts CheckpointOptions) (*CheckpointResult, error) {
	now := orDefaultNow(opts.Now)
	date := sessionDate(opts.SessionDate, now)

	contextPath, err := o.resolveContextPath(opts.ContextPath)
	if err != nil {
		return nil, err
	}

	result := &CheckpointResult{
		ContextPath:    contextPath,
		SessionLogPath: o.sessionLogPath(contextPath, date),
		DailyNotePath:  o.dailyNotePath(date),
	}

	step := func(name string, run func() error) bool {
		if err := ctx.Err(); err != nil {
			result.Steps = append(result.Steps, StepResult{Name: name, Error: err.Error()})
			return false
		}
		if err := run(); err != nil {
			result.Steps = append(result.Steps, StepResult{Name: name, Error: err.Error()})
			o.logger.Printf("Checkpoint step %s failed: %v", name, err)
			return false
		}
		result.Steps = append(result.Steps, StepResult{Name: name, OK: true})
		return true
	}

	ok := step("context", func() error {
		updated, err := o.upsertContextSections(contextPath, opts)
		result.UpdatedSections = updated
		return err
	})

	if ok {
		ok = step("session_log", func() error {
			block := buildCheckpointBlock(now, opts.Summary, result.UpdatedSections)
			return o.appendToSessionLog(contextPath, date, block)
		})
	}

	if ok {
		ok = step("daily_note", func() error {
			added, err := o.ensureDailyPointer(contextPath, date)
			result.PointerAdded = added
			return err
		})
	}

	if ok && opts.SyncTracker {
		ok = step("tracker", func() error {
			syncResult, err := o.TrackerSync(ctx, SyncOptions{
				ContextPath:  contextPath,
				Updates:      opts.Updates,
				Tracker:      o.defaultTrackerOptions(now),
				LogToSession: true,
				SessionDate:  date,
			})
			result.Tracker = syncResult
			return err
		})
	}

	result.Completed = ok
	o.logger.Printf("Checkpoint: context=%s sections=%d completed=%t",
		contextPath, len(result.UpdatedSections), result.Completed)

	return result, nil
}

// defaultTrackerOptions builds tracker options bound to the configured
// log cap and a fixed reference time.
func (o *Orchestrator) defaultTrackerOptions(now time.Time) tracker.Options {
	trackerOpts := tracker.DefaultOptions()
	trackerOpts.MaxLogEntries = o.config.MaxLogEntries
	trackerOpts.Now = now
	return trackerOpts
}

// upsertContextSections writes the supplied bullets into the context's
// known sections. A missing context note is created on the way and
// marked as a project context so scans can find it.
func (o *Orchestrator) upsertContextSections(contextPath string, opts CheckpointOptions) ([]string, error) {
	doc, exists, _, err := o.loadContext(contextPath)
	if err != nil {
		return nil, err
	}
	if !exists {
		doc.Meta = map[string]any{KeyType: TypeProjectContext}
	}

	sections := []struct {
		heading string
		bullets []string
	}{
		{SectionStatus, opts.Status},
		{SectionPriorities, opts.Priorities},
		{SectionBlockers, opts.Blockers},
		{nextActionHeading(doc.Body), opts.NextActions},
	}

	body := doc.Body
	var updated []string
	for _, section := range sections {
		if len(section.bullets) == 0 {
			continue
		}
		body, _ = mdnote.UpsertSection(body, section.heading, bulletList(section.bullets), 2)
		updated = append(updated, section.heading)
	}

	if len(updated) == 0 {
		return nil, nil
	}

	if _, err := o.store.WriteNote(contextPath, doc.Meta, body); err != nil {
		return updated, err
	}
	return updated, nil
}

// bulletList renders items as a Markdown bullet list.
func bulletList(items []string) string {
	var b strings.Builder
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		b.WriteString("- ")
		b.WriteString(trimmed)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// buildCheckpointBlock formats the fixed-shape audit block appended to
// the session log.
func buildCheckpointBlock(now time.Time, summary string, updatedSections []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s Checkpoint\n\n", now.Format("15:04"))
	if trimmed := strings.TrimSpace(summary); trimmed != "" {
		b.WriteString(trimmed)
		b.WriteString("\n\n")
	}
	if len(updatedSections) > 0 {
		b.WriteString("- Sections updated: " + strings.Join(updatedSections, ", ") + "\n")
	} else {
		b.WriteString("- Sections updated: none\n")
	}
	return b.String()
}

// appendToSessionLog appends a block to the per-day per-project session
// log, creating the note with a title line when absent.
func (o *Orchestrator) appendToSessionLog(contextPath, date, block string) error {
	logPath := o.sessionLogPath(contextPath, date)

	doc, err := o.store.ReadNote(logPath)
	if err != nil {
		if !vault.IsNotFound(err) {
			return err
		}
		doc = &vault.Document{
			Path: logPath,
			Meta: map[string]any{
				KeyType:   "session-log",
				"project": contextPath,
				"date":    date,
			},
			Body: fmt.Sprintf("# Session Log: %s (%s)\n", projectSlug(contextPath), date),
		}
	}

	body := strings.TrimRight(doc.Body, "\n") + "\n\n" + strings.TrimRight(block, "\n") + "\n"
	_, err = o.store.WriteNote(logPath, doc.Meta, body)
	return err
}

// dailyNotePath is the day's note under the daily folder.
func (o *Orchestrator) dailyNotePath(date string) string {
	return o.config.DailyDir + "/" + date + ".md"
}

// ensureDailyPointer makes sure the daily note links to the project's
// session log, appending the pointer line only when no line for that
// log exists yet. Returns whether a line was added.
func (o *Orchestrator) ensureDailyPointer(contextPath, date string) (bool, error) {
	dailyPath := o.dailyNotePath(date)
	logPath := o.sessionLogPath(contextPath, date)
	target := strings.TrimSuffix(logPath, ".md")

	doc, err := o.store.ReadNote(dailyPath)
	if err != nil {
		if !vault.IsNotFound(err) {
			return false, err
		}
		doc = &vault.Document{
			Path: dailyPath,
			Meta: map[string]any{KeyType: TypeDaily},
			Body: fmt.Sprintf("# %s\n", date),
		}
	}

	if strings.Contains(doc.Body, target) {
		return false, nil
	}

	line := fmt.Sprintf("- Session log: [[%s]]", target)
	content := line
	if existing, ok := mdnote.Section(doc.Body, "Sessions"); ok && strings.TrimSpace(existing) != "" {
		content = strings.TrimRight(existing, "\n") + "\n" + line
	}

	body, _ := mdnote.UpsertSection(doc.Body, "Sessions", content, 2)
	if _, err := o.store.WriteNote(dailyPath, doc.Meta, body); err != nil {
		return false, err
	}
	return true, nil
}
