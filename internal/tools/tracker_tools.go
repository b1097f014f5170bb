package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/session"
	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/tracker"
)

// updateArg is the wire form of one tracker update. Absent fields stay
// nil so the apply step can tell "not sent" from "set to empty".
type updateArg struct {
	ID       string  `json:"id"`
	Action   string  `json:"action,omitempty"`
	Status   *string `json:"status,omitempty"`
	Note     *string `json:"note,omitempty"`
	Title    *string `json:"title,omitempty"`
	Type     *string `json:"type,omitempty"`
	Priority *string `json:"priority,omitempty"`
	Owner    *string `json:"owner,omitempty"`
}

func (u updateArg) toUpdate() tracker.Update {
	return tracker.Update{
		ID:       u.ID,
		Action:   u.Action,
		Status:   u.Status,
		Note:     u.Note,
		Title:    u.Title,
		Type:     u.Type,
		Priority: u.Priority,
		Owner:    u.Owner,
	}
}

// updateItemSchema is the JSON schema of one updates[] element, shared
// by tracker_sync and session_checkpoint.
func updateItemSchema() map[string]any {
	str := func(desc string) map[string]any {
		return map[string]any{"type": "string", "description": desc}
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id": str("Issue id; ids compare case-insensitively and canonicalize to upper case"),
			"action": map[string]any{
				"type":        "string",
				"enum":        []string{"upsert", "delete"},
				"description": "upsert (default) or delete",
			},
			"status":   str("Status or synonym: open, wip, qa, blocked, done, ..."),
			"note":     str("Free-text note to set"),
			"title":    str("Title to set"),
			"type":     str("Issue type, e.g. bug or epic"),
			"priority": str("Priority label"),
			"owner":    str("Owner to set"),
		},
		"required": []string{"id"},
	}
}

// parseUpdates converts wire updates, rejecting entries without an id.
func parseUpdates(args []updateArg) ([]tracker.Update, error) {
	updates := make([]tracker.Update, 0, len(args))
	for i, u := range args {
		if strings.TrimSpace(u.ID) == "" {
			return nil, fmt.Errorf("updates[%d] has no id", i)
		}
		updates = append(updates, u.toUpdate())
	}
	return updates, nil
}

// DecodeUpdates parses a JSON array in the tracker_sync wire shape into
// tracker updates. The sync command feeds files and stdin through this.
func DecodeUpdates(data []byte) ([]tracker.Update, error) {
	var args []updateArg
	if err := json.Unmarshal(data, &args); err != nil {
		return nil, fmt.Errorf("invalid updates JSON: %w", err)
	}
	return parseUpdates(args)
}

// TrackerSyncTool applies an ordered update batch to the project
// tracker and rewrites its canonical sections.
type TrackerSyncTool struct {
	orchestrator *session.Orchestrator
}

func (t *TrackerSyncTool) Definition() mcp.Tool {
	return mcp.NewTool("tracker_sync",
		mcp.WithDescription("Apply a batch of issue updates to the project tracker: parse its state, apply the updates in order, and re-render the JSON state section, the status table, and the bounded sync log."),
		mcp.WithString("project_context_path",
			mcp.Description("Context note whose tracker to sync; empty resolves the active project"),
		),
		mcp.WithString("tracker_path",
			mcp.Description("Explicit tracker note, overriding the context front matter"),
		),
		mcp.WithArray("updates",
			mcp.Description("Issue updates, applied in order; later entries see the effect of earlier ones"),
			mcp.Items(updateItemSchema()),
		),
		mcp.WithBoolean("create_missing",
			mcp.Description("Let upserts targeting unknown ids create records (default true)"),
		),
		mcp.WithBoolean("render_table",
			mcp.Description("Re-render the derived status table (default true)"),
		),
		mcp.WithNumber("max_log_entries",
			mcp.Description("Bound on the sync log section; 0 takes the configured default"),
		),
		mcp.WithBoolean("log_to_session",
			mcp.Description("Also append a sync summary line to the project's session log"),
		),
		mcp.WithString("session_date",
			mcp.Description("ISO date for the session log entry; empty means today"),
		),
	)
}

// TrackerSyncResponse is the flat wire shape of one tracker sync,
// shared by the MCP tool and the sync command.
type TrackerSyncResponse struct {
	ContextPath    string         `json:"context_path"`
	TrackerPath    string         `json:"tracker_path,omitempty"`
	TrackerExisted bool           `json:"tracker_existed"`
	Skipped        bool           `json:"skipped,omitempty"`
	SkipReason     string         `json:"skip_reason,omitempty"`
	ParseSource    tracker.Source `json:"parse_source,omitempty"`
	IssueCount     int            `json:"issue_count"`
	StatusCounts   map[string]int `json:"status_counts,omitempty"`
	UpdatedIDs     []string       `json:"updated_ids,omitempty"`
	CreatedIDs     []string       `json:"created_ids,omitempty"`
	DeletedIDs     []string       `json:"deleted_ids,omitempty"`
	UnresolvedIDs  []string       `json:"unresolved_ids,omitempty"`
	DuplicateIDs   []string       `json:"duplicate_ids,omitempty"`
	Warnings       []string       `json:"warnings,omitempty"`
	SessionLogPath string         `json:"session_log_path,omitempty"`
}

// NewTrackerSyncResponse flattens an orchestrator sync result into the
// wire shape, merging orchestration and parse warnings.
func NewTrackerSyncResponse(res *session.SyncResult) TrackerSyncResponse {
	out := TrackerSyncResponse{
		ContextPath:    res.ContextPath,
		TrackerPath:    res.TrackerPath,
		TrackerExisted: res.TrackerExisted,
		Skipped:        res.Skipped,
		SkipReason:     res.SkipReason,
		Warnings:       res.Warnings,
		SessionLogPath: res.SessionLogPath,
	}
	if res.Sync == nil {
		return out
	}

	out.ParseSource = res.Sync.Source
	out.IssueCount = res.Sync.IssueCount
	out.StatusCounts = res.Sync.StatusCounts
	out.UpdatedIDs = res.Sync.UpdatedIDs
	out.CreatedIDs = res.Sync.CreatedIDs
	out.DeletedIDs = res.Sync.DeletedIDs
	out.UnresolvedIDs = res.Sync.UnresolvedIDs
	out.DuplicateIDs = res.Sync.DuplicateIDs
	if len(res.Sync.Warnings) > 0 {
		merged := make([]string, 0, len(out.Warnings)+len(res.Sync.Warnings))
		merged = append(merged, out.Warnings...)
		merged = append(merged, res.Sync.Warnings...)
		out.Warnings = merged
	}
	return out
}

func (t *TrackerSyncTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		ProjectContextPath string      `json:"project_context_path"`
		TrackerPath        string      `json:"tracker_path"`
		Updates            []updateArg `json:"updates"`
		CreateMissing      *bool       `json:"create_missing"`
		RenderTable        *bool       `json:"render_table"`
		MaxLogEntries      int         `json:"max_log_entries"`
		LogToSession       bool        `json:"log_to_session"`
		SessionDate        string      `json:"session_date"`
	}
	if err := req.BindArguments(&args); err != nil {
		return errorResult(err)
	}

	updates, err := parseUpdates(args.Updates)
	if err != nil {
		return errorResult(err)
	}

	trackerOpts := tracker.Options{
		CreateMissing: true,
		RenderTable:   true,
		MaxLogEntries: args.MaxLogEntries,
	}
	if args.CreateMissing != nil {
		trackerOpts.CreateMissing = *args.CreateMissing
	}
	if args.RenderTable != nil {
		trackerOpts.RenderTable = *args.RenderTable
	}

	res, err := t.orchestrator.TrackerSync(ctx, session.SyncOptions{
		ContextPath:  args.ProjectContextPath,
		TrackerPath:  args.TrackerPath,
		Updates:      updates,
		Tracker:      trackerOpts,
		LogToSession: args.LogToSession,
		SessionDate:  args.SessionDate,
	})
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(NewTrackerSyncResponse(res))
}

// TrackerStatusTool reports tracker state without writing anything.
type TrackerStatusTool struct {
	orchestrator *session.Orchestrator
}

func (t *TrackerStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("tracker_status",
		mcp.WithDescription("Parse the project tracker read-only: issue count, status breakdown, duplicate ids, parse warnings, and which section the state was reconstructed from."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("project_context_path",
			mcp.Description("Context note whose tracker to inspect; empty resolves the active project"),
		),
		mcp.WithString("tracker_path",
			mcp.Description("Explicit tracker note, overriding the context front matter"),
		),
	)
}

func (t *TrackerStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	contextPath := req.GetString("project_context_path", "")
	trackerPath := req.GetString("tracker_path", "")

	status, err := t.orchestrator.TrackerStatus(ctx, contextPath, trackerPath)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(status)
}
