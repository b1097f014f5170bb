package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/config"
	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/session"
)

// stringItems is the schema for plain string-array arguments.
func stringItems() map[string]any {
	return map[string]any{"type": "string"}
}

// SessionStartTool boots a working session over the active project.
type SessionStartTool struct {
	orchestrator *session.Orchestrator
}

func (t *SessionStartTool) Definition() mcp.Tool {
	return mcp.NewTool("session_start",
		mcp.WithDescription("Start a working session: resolve the active project context, load it with the bootstrap notes, and extract the bounded summary of priorities, blockers and next actions."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("project_context_path",
			mcp.Description("Context note to start against; empty resolves the active project"),
		),
		mcp.WithBoolean("scan_recent",
			mcp.Description("Also list recently modified notes near the context"),
		),
		mcp.WithNumber("recent_within_hours",
			mcp.Description("Window for the recent scan in hours (default 72)"),
		),
	)
}

func (t *SessionStartTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := session.StartOptions{
		ContextPath: req.GetString("project_context_path", ""),
		ScanRecent:  req.GetBool("scan_recent", false),
	}
	if hours := req.GetInt("recent_within_hours", 0); hours > 0 {
		opts.RecentWithin = time.Duration(hours) * time.Hour
	}

	result, err := t.orchestrator.Start(ctx, opts)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(result)
}

// SessionCheckpointTool records progress mid-session: context sections,
// session log entry, daily note pointer, optional tracker sync.
type SessionCheckpointTool struct {
	orchestrator *session.Orchestrator
}

func (t *SessionCheckpointTool) Definition() mcp.Tool {
	return mcp.NewTool("session_checkpoint",
		mcp.WithDescription("Checkpoint the session: upsert the given bullets into the context's sections, append a timestamped block to the session log, point today's daily note at it, and optionally run a tracker sync. Steps run in order; earlier writes stay committed if a later step fails."),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("One-line summary recorded in the session log"),
		),
		mcp.WithString("project_context_path",
			mcp.Description("Context note to checkpoint; empty resolves the active project"),
		),
		mcp.WithArray("status",
			mcp.Description("Replacement bullets for Current Status; empty leaves the section untouched"),
			mcp.Items(stringItems()),
		),
		mcp.WithArray("priorities",
			mcp.Description("Replacement bullets for Current Priorities"),
			mcp.Items(stringItems()),
		),
		mcp.WithArray("blockers",
			mcp.Description("Replacement bullets for Known Risks/Blockers"),
			mcp.Items(stringItems()),
		),
		mcp.WithArray("next_actions",
			mcp.Description("Replacement bullets for Next 3 Actions (or the note's Next Actions/Next Steps spelling)"),
			mcp.Items(stringItems()),
		),
		mcp.WithBoolean("sync_tracker",
			mcp.Description("Also run a tracker sync with the given updates"),
		),
		mcp.WithArray("updates",
			mcp.Description("Issue updates for the tracker sync step"),
			mcp.Items(updateItemSchema()),
		),
		mcp.WithString("session_date",
			mcp.Description("ISO date for the session log; empty means today"),
		),
	)
}

func (t *SessionCheckpointTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		ProjectContextPath string      `json:"project_context_path"`
		Summary            string      `json:"summary"`
		Status             []string    `json:"status"`
		Priorities         []string    `json:"priorities"`
		Blockers           []string    `json:"blockers"`
		NextActions        []string    `json:"next_actions"`
		SyncTracker        bool        `json:"sync_tracker"`
		Updates            []updateArg `json:"updates"`
		SessionDate        string      `json:"session_date"`
	}
	if err := req.BindArguments(&args); err != nil {
		return errorResult(err)
	}
	if strings.TrimSpace(args.Summary) == "" {
		return errorResult(fmt.Errorf("summary is required"))
	}

	updates, err := parseUpdates(args.Updates)
	if err != nil {
		return errorResult(err)
	}

	result, err := t.orchestrator.Checkpoint(ctx, session.CheckpointOptions{
		ContextPath: args.ProjectContextPath,
		Summary:     args.Summary,
		Status:      args.Status,
		Priorities:  args.Priorities,
		Blockers:    args.Blockers,
		NextActions: args.NextActions,
		SyncTracker: args.SyncTracker,
		Updates:     updates,
		SessionDate: args.SessionDate,
	})
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(result)
}

// SessionResumeTool rebuilds working memory after an interruption.
type SessionResumeTool struct {
	orchestrator *session.Orchestrator
}

func (t *SessionResumeTool) Definition() mcp.Tool {
	return mcp.NewTool("session_resume",
		mcp.WithDescription("Resume an interrupted session: reload the project context and bootstrap notes, take a read-only tracker snapshot, and return the most recent session log. Nothing is written."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("project_context_path",
			mcp.Description("Context note to resume; empty resolves the active project"),
		),
		mcp.WithString("session_date",
			mcp.Description("ISO date of the session log to reload; empty picks the most recent"),
		),
	)
}

func (t *SessionResumeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := t.orchestrator.Resume(ctx, session.ResumeOptions{
		ContextPath: req.GetString("project_context_path", ""),
		SessionDate: req.GetString("session_date", ""),
	})
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(result)
}

// StaleScanTool sweeps the vault for contexts and trackers that have
// gone quiet.
type StaleScanTool struct {
	orchestrator *session.Orchestrator
	config       *config.Config
}

func (t *StaleScanTool) Definition() mcp.Tool {
	return mcp.NewTool("stale_scan",
		mcp.WithDescription("Scan project contexts and their trackers for staleness: contexts without recent updates, stale or missing trackers, duplicate issue ids, and issues parked in In Validation."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("context_after",
			mcp.Description("Age past which a context is stale, e.g. 7d or 36h (default from config)"),
		),
		mcp.WithString("tracker_after",
			mcp.Description("Age past which a tracker is stale (default from config)"),
		),
		mcp.WithString("validation_after",
			mcp.Description("Age past which an In Validation issue is parked (default from config)"),
		),
	)
}

func (t *StaleScanTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := session.StaleScanOptions{
		ContextAfter:    t.config.StaleContextAfter.Duration,
		TrackerAfter:    t.config.StaleTrackerAfter.Duration,
		ValidationAfter: t.config.StaleValidationAfter.Duration,
	}

	overrides := []struct {
		key string
		dst *time.Duration
	}{
		{"context_after", &opts.ContextAfter},
		{"tracker_after", &opts.TrackerAfter},
		{"validation_after", &opts.ValidationAfter},
	}
	for _, o := range overrides {
		raw := strings.TrimSpace(req.GetString(o.key, ""))
		if raw == "" {
			continue
		}
		d, err := config.ParseDuration(raw)
		if err != nil {
			return errorResult(err)
		}
		*o.dst = d.Duration
	}

	result, err := t.orchestrator.StaleScan(ctx, opts)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(result)
}
