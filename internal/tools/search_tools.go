package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/search"
)

// SearchNotesTool scans note bodies and titles for a substring.
type SearchNotesTool struct {
	store Store
}

func (t *SearchNotesTool) Definition() mcp.Tool {
	return mcp.NewTool("search_notes",
		mcp.WithDescription("Case-insensitive substring search over note titles and bodies. Each match carries the first matching line as an excerpt."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Text to search for"),
		),
		mcp.WithString("dir",
			mcp.Description("Vault-relative folder to scope the search to; empty means the whole vault"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of matching notes to return (default 20)"),
		),
	)
}

type searchResponse struct {
	Query   string         `json:"query"`
	Count   int            `json:"count"`
	Matches []search.Match `json:"matches"`
}

func (t *SearchNotesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return errorResult(err)
	}
	opts := search.Options{
		Dir:        req.GetString("dir", ""),
		MaxResults: req.GetInt("max_results", 0),
	}

	matches, err := search.Search(t.store, query, opts)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(searchResponse{
		Query:   query,
		Count:   len(matches),
		Matches: matches,
	})
}

// BacklinksTool finds the notes linking to a target note.
type BacklinksTool struct {
	store Store
}

func (t *BacklinksTool) Definition() mcp.Tool {
	return mcp.NewTool("backlinks",
		mcp.WithDescription("Find every note that links to the target note via a [[wiki link]] or a Markdown link."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("target",
			mcp.Required(),
			mcp.Description("Vault-relative path of the note being linked to; .md may be omitted"),
		),
	)
}

type backlinksResponse struct {
	Target    string   `json:"target"`
	Count     int      `json:"count"`
	Backlinks []string `json:"backlinks"`
}

func (t *BacklinksTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := req.RequireString("target")
	if err != nil {
		return errorResult(err)
	}

	links, err := search.Backlinks(t.store, target)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(backlinksResponse{
		Target:    target,
		Count:     len(links),
		Backlinks: links,
	})
}

// BrokenLinksTool finds links whose target note does not exist.
type BrokenLinksTool struct {
	store Store
}

func (t *BrokenLinksTool) Definition() mcp.Tool {
	return mcp.NewTool("broken_links",
		mcp.WithDescription("Scan notes for wiki and Markdown links whose target resolves to no existing note. External links and attachments are ignored."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("dir",
			mcp.Description("Vault-relative folder to scan; empty means the whole vault. Targets resolve vault-wide either way."),
		),
	)
}

type brokenLinksResponse struct {
	Dir    string              `json:"dir"`
	Count  int                 `json:"count"`
	Broken []search.BrokenLink `json:"broken"`
}

func (t *BrokenLinksTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir := req.GetString("dir", "")

	broken, err := search.BrokenLinks(t.store, dir)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(brokenLinksResponse{
		Dir:    dir,
		Count:  len(broken),
		Broken: broken,
	})
}
