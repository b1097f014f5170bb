package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/tracker"
	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/vault"
)

// SyncOptions configure a tracker sync run against the active project.
type SyncOptions struct {
	// ContextPath overrides the active project context resolution.
	ContextPath string

	// TrackerPath overrides the tracker document. Empty falls back to
	// the context's front matter.
	TrackerPath string

	// Updates is the batch to apply. An empty batch still re-renders
	// the document and appends an audit line.
	Updates []tracker.Update

	// Tracker controls the underlying sync. A zero MaxLogEntries falls
	// back to the configured bound; callers normally start from
	// tracker.DefaultOptions.
	Tracker tracker.Options

	// LogToSession appends a short sync block to the session log.
	LogToSession bool

	// SessionDate overrides the log date (ISO). Empty means today.
	SessionDate string
}

// SyncResult reports one tracker sync run.
type SyncResult struct {
	ContextPath    string          `json:"context_path"`
	TrackerPath    string          `json:"tracker_path,omitempty"`
	TrackerExisted bool            `json:"tracker_existed"`
	Skipped        bool            `json:"skipped"`
	SkipReason     string          `json:"skip_reason,omitempty"`
	Sync           *tracker.Result `json:"sync,omitempty"`
	SessionLogPath string          `json:"session_log_path,omitempty"`
	Warnings       []string        `json:"warnings,omitempty"`
}

// TrackerSync resolves the active project's tracker document, applies
// the update batch to it, and writes the rewritten document back.
//
// A project without a configured tracker is a skip, not an error: the
// result carries the reason. A configured tracker that does not exist
// yet is created on the way. Session-log bookkeeping failures degrade
// to warnings because the tracker write has already committed.
func (o *Orchestrator) TrackerSync(ctx context.Context, opts SyncOptions) (*SyncResult, error) {
	now := orDefaultNow(opts.Tracker.Now)

	contextPath, err := o.resolveContextPath(opts.ContextPath)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{ContextPath: contextPath}

	var contextMeta map[string]any
	if contextDoc, err := o.store.ReadNote(contextPath); err == nil {
		contextMeta = contextDoc.Meta
		result.Warnings = append(result.Warnings, contextDoc.Warnings...)
	} else if !vault.IsNotFound(err) {
		return nil, err
	}

	trackerPath, err := o.trackerPathFor(opts.TrackerPath, contextMeta)
	if err != nil {
		return nil, err
	}
	if trackerPath == "" {
		result.Skipped = true
		result.SkipReason = fmt.Sprintf("no tracker configured for %s", contextPath)
		o.logger.Printf("Tracker sync skipped: %s", result.SkipReason)
		return result, nil
	}
	result.TrackerPath = trackerPath

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := o.store.ReadNote(trackerPath)
	if err != nil {
		if !vault.IsNotFound(err) {
			return nil, err
		}
		doc = &vault.Document{
			Path: trackerPath,
			Meta: map[string]any{
				KeyType:   "tracker",
				"project": contextPath,
			},
		}
	} else {
		result.TrackerExisted = true
		result.Warnings = append(result.Warnings, doc.Warnings...)
	}

	trackerOpts := opts.Tracker
	if trackerOpts.MaxLogEntries == 0 {
		trackerOpts.MaxLogEntries = o.config.MaxLogEntries
	}

	body, syncResult, err := o.syncer.Sync(doc.Body, opts.Updates, trackerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to sync tracker %s: %w", trackerPath, err)
	}
	result.Sync = &syncResult

	if _, err := o.store.WriteNote(trackerPath, doc.Meta, body); err != nil {
		return nil, fmt.Errorf("failed to write tracker %s: %w", trackerPath, err)
	}

	if opts.LogToSession {
		date := sessionDate(opts.SessionDate, now)
		result.SessionLogPath = o.sessionLogPath(contextPath, date)
		block := buildSyncBlock(now, trackerPath, syncResult)
		if err := o.appendToSessionLog(contextPath, date, block); err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("failed to update session log %s: %v", result.SessionLogPath, err))
		}
	}

	o.logger.Printf("Tracker sync: %s existed=%t issues=%d updated=%d created=%d",
		trackerPath, result.TrackerExisted, syncResult.IssueCount,
		len(syncResult.UpdatedIDs), len(syncResult.CreatedIDs))

	return result, nil
}

// buildSyncBlock formats the short session-log block recording one
// tracker sync.
func buildSyncBlock(now time.Time, trackerPath string, syncResult tracker.Result) string {
	target := strings.TrimSuffix(trackerPath, ".md")
	return fmt.Sprintf("### %s Tracker Sync\n\n- [[%s]]: %d issues (updated=%d created=%d deleted=%d unresolved=%d)\n",
		now.Format("15:04"), target, syncResult.IssueCount,
		len(syncResult.UpdatedIDs), len(syncResult.CreatedIDs),
		len(syncResult.DeletedIDs), len(syncResult.UnresolvedIDs))
}
