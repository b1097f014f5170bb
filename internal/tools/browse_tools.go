package tools

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/config"
	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/search"
	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/session"
	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/vault"
)

// ListNotesTool lists the Markdown notes under a folder.
type ListNotesTool struct {
	store Store
}

func (t *ListNotesTool) Definition() mcp.Tool {
	return mcp.NewTool("list_notes",
		mcp.WithDescription("List the Markdown notes under a vault folder, recursively, sorted by path."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("dir",
			mcp.Description("Vault-relative folder; empty means the whole vault"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of paths to return; 0 means all"),
		),
	)
}

type listNotesResponse struct {
	Dir       string   `json:"dir"`
	Count     int      `json:"count"`
	Notes     []string `json:"notes"`
	Truncated bool     `json:"truncated,omitempty"`
}

func (t *ListNotesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir := req.GetString("dir", "")
	limit := req.GetInt("limit", 0)

	notes, err := t.store.ListMarkdownFiles(dir)
	if err != nil {
		return errorResult(err)
	}

	total := len(notes)
	truncated := false
	if limit > 0 && len(notes) > limit {
		notes = notes[:limit]
		truncated = true
	}

	return jsonResult(listNotesResponse{
		Dir:       dir,
		Count:     total,
		Notes:     notes,
		Truncated: truncated,
	})
}

// VaultTreeTool renders the folder hierarchy as an indented listing.
type VaultTreeTool struct {
	store Store
}

func (t *VaultTreeTool) Definition() mcp.Tool {
	return mcp.NewTool("vault_tree",
		mcp.WithDescription("Render the vault's folder and note hierarchy as an indented text tree."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("dir",
			mcp.Description("Vault-relative folder to start from; empty means the vault root"),
		),
		mcp.WithNumber("depth",
			mcp.Description("Folder depth to descend before eliding with ...; 0 means unlimited"),
		),
	)
}

type vaultTreeResponse struct {
	Dir   string `json:"dir"`
	Depth int    `json:"depth"`
	Tree  string `json:"tree"`
}

func (t *VaultTreeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir := req.GetString("dir", "")
	depth := req.GetInt("depth", 0)

	tree, err := search.Tree(t.store, dir, depth)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(vaultTreeResponse{Dir: dir, Depth: depth, Tree: tree})
}

// DailyNoteTool fetches the daily note for a date, creating it from the
// template when missing.
type DailyNoteTool struct {
	store  Store
	config *config.Config
}

func (t *DailyNoteTool) Definition() mcp.Tool {
	return mcp.NewTool("daily_note",
		mcp.WithDescription("Read the daily note for a date, creating it from the template when it does not exist yet."),
		mcp.WithString("date",
			mcp.Description("ISO date (YYYY-MM-DD); empty means today"),
		),
	)
}

type dailyNoteResponse struct {
	Path    string         `json:"path"`
	Created bool           `json:"created"`
	Meta    map[string]any `json:"meta,omitempty"`
	Body    string         `json:"body"`
}

func (t *DailyNoteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date := req.GetString("date", "")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return errorResult(fmt.Errorf("invalid date %q, want YYYY-MM-DD", date))
	}

	notePath := path.Join(t.config.DailyDir, date+".md")
	doc, err := t.store.ReadNote(notePath)
	if err == nil {
		return jsonResult(dailyNoteResponse{
			Path: doc.Path,
			Meta: doc.Meta,
			Body: doc.Body,
		})
	}
	if !vault.IsNotFound(err) {
		return errorResult(err)
	}

	meta := map[string]any{session.KeyType: session.TypeDaily}
	body := "# " + date + "\n"
	written, err := t.store.WriteNote(notePath, meta, body)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(dailyNoteResponse{
		Path:    written,
		Created: true,
		Meta:    meta,
		Body:    body,
	})
}
