package session

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/tracker"
)

// ResumeOptions configure a session resume.
type ResumeOptions struct {
	// ContextPath overrides the active project context resolution.
	ContextPath string

	// SessionDate names the session log to reload (ISO). Empty picks
	// the project's most recent log.
	SessionDate string
}

// TrackerStatus is the read-only tracker snapshot in a resume payload.
type TrackerStatus struct {
	TrackerPath  string         `json:"tracker_path"`
	Exists       bool           `json:"exists"`
	Source       tracker.Source `json:"parse_source,omitempty"`
	IssueCount   int            `json:"issue_count"`
	StatusCounts map[string]int `json:"status_counts,omitempty"`
	DuplicateIDs []string       `json:"duplicate_ids,omitempty"`
	Warnings     []string       `json:"warnings,omitempty"`
}

// ResumeResult is the session recovery payload.
type ResumeResult struct {
	ContextPath      string         `json:"context_path"`
	ContextExists    bool           `json:"context_exists"`
	Context          string         `json:"context,omitempty"`
	Bootstrap        []BootstrapDoc `json:"bootstrap"`
	Summary          Summary        `json:"summary"`
	Tracker          *TrackerStatus `json:"tracker,omitempty"`
	SessionLogPath   string         `json:"session_log_path,omitempty"`
	SessionLogExists bool           `json:"session_log_exists"`
	SessionLog       string         `json:"session_log,omitempty"`
	Warnings         []string       `json:"warnings,omitempty"`
}

// Resume rebuilds working memory after an interruption: the project
// context and bootstrap documents, a read-only tracker snapshot, and
// the session log to continue in. Nothing is written.
func (o *Orchestrator) Resume(ctx context.Context, opts ResumeOptions) (*ResumeResult, error) {
	contextPath, err := o.resolveContextPath(opts.ContextPath)
	if err != nil {
		return nil, err
	}

	result := &ResumeResult{ContextPath: contextPath}

	doc, exists, warnings, err := o.loadContext(contextPath)
	if err != nil {
		return nil, err
	}
	result.ContextExists = exists
	result.Warnings = warnings
	if exists {
		result.Context = doc.Body
		result.Summary = o.extractSummary(doc.Body)
	}

	result.Bootstrap = o.loadBootstrap()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	trackerPath, err := o.trackerPathFor("", doc.Meta)
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("ignoring unusable tracker path in %s: %v", contextPath, err))
	} else if trackerPath != "" {
		result.Tracker = o.trackerStatus(trackerPath)
	}

	result.SessionLogPath, result.SessionLogExists = o.resumeSessionLog(contextPath, opts.SessionDate)
	if result.SessionLogExists {
		if logDoc, err := o.store.ReadNote(result.SessionLogPath); err == nil {
			result.SessionLog = logDoc.Body
		} else {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("failed to read session log %s: %v", result.SessionLogPath, err))
			result.SessionLogExists = false
		}
	}

	o.logger.Printf("Session resume: context=%s exists=%t log=%s", contextPath, exists, result.SessionLogPath)

	return result, nil
}

// trackerStatus parses a tracker document without writing anything
// back. Read failures degrade into the status warnings.
func (o *Orchestrator) trackerStatus(trackerPath string) *TrackerStatus {
	status := &TrackerStatus{TrackerPath: trackerPath}

	doc, err := o.store.ReadNote(trackerPath)
	if err != nil {
		return status
	}
	status.Exists = true
	status.Warnings = append(status.Warnings, doc.Warnings...)

	parsed := tracker.ParseState(doc.Body)
	status.Source = parsed.Source
	status.IssueCount = len(parsed.Issues)
	status.StatusCounts = parsed.StatusCounts()
	status.DuplicateIDs = parsed.DuplicateIDs
	status.Warnings = append(status.Warnings, parsed.Warnings...)

	return status
}

// TrackerStatus inspects a tracker without writing anything back: the
// explicit path wins, else the resolved context's front matter names
// it. No configured tracker is an error since there is nothing to
// inspect.
func (o *Orchestrator) TrackerStatus(ctx context.Context, contextPath, trackerPath string) (*TrackerStatus, error) {
	resolved, err := o.resolveContextPath(contextPath)
	if err != nil {
		return nil, err
	}

	var meta map[string]any
	if doc, err := o.store.ReadNote(resolved); err == nil {
		meta = doc.Meta
	}

	target, err := o.trackerPathFor(trackerPath, meta)
	if err != nil {
		return nil, err
	}
	if target == "" {
		return nil, fmt.Errorf("no tracker configured for %s", resolved)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return o.trackerStatus(target), nil
}

// resumeSessionLog picks the log note to reload: the named date when
// given, else the project's lexically last log, which is the newest
// because logs are date-named.
func (o *Orchestrator) resumeSessionLog(contextPath, explicitDate string) (string, bool) {
	if trimmed := strings.TrimSpace(explicitDate); trimmed != "" {
		logPath := o.sessionLogPath(contextPath, trimmed)
		return logPath, o.store.NoteExists(logPath)
	}

	dir := path.Join(o.config.SessionLogDir, projectSlug(contextPath))
	notes, err := o.store.ListMarkdownFiles(dir)
	if err != nil || len(notes) == 0 {
		// No logs yet: report where today's would go.
		return o.sessionLogPath(contextPath, time.Now().Format("2006-01-02")), false
	}
	return notes[len(notes)-1], true
}
