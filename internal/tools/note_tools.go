package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/mdnote"
	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/vault"
)

// ReadNoteTool reads one note: front matter, body, parse warnings.
type ReadNoteTool struct {
	store Store
}

func (t *ReadNoteTool) Definition() mcp.Tool {
	return mcp.NewTool("read_note",
		mcp.WithDescription("Read a note from the vault: front matter, body and any parse warnings. The .md extension may be omitted."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Vault-relative note path, e.g. Projects/Alpha or Projects/Alpha.md"),
		),
	)
}

type noteResponse struct {
	Path     string         `json:"path"`
	Meta     map[string]any `json:"meta,omitempty"`
	Body     string         `json:"body"`
	Warnings []string       `json:"warnings,omitempty"`
}

func (t *ReadNoteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return errorResult(err)
	}

	doc, err := t.store.ReadNote(path)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(noteResponse{
		Path:     doc.Path,
		Meta:     doc.Meta,
		Body:     doc.Body,
		Warnings: doc.Warnings,
	})
}

// WriteNoteTool writes a note's body. Supplied front-matter keys merge
// over the existing mapping so a body rewrite cannot drop the note's
// type or tracker pointer; the store stamps updated on every write.
type WriteNoteTool struct {
	store Store
}

func (t *WriteNoteTool) Definition() mcp.Tool {
	return mcp.NewTool("write_note",
		mcp.WithDescription("Write a note's full body, creating the note and parent folders if needed. Existing front matter is preserved; keys in meta are merged over it."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Vault-relative note path"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("Complete Markdown body to write; may be empty"),
		),
		mcp.WithObject("meta",
			mcp.Description("Front-matter keys to set, merged over the existing mapping"),
		),
	)
}

type writeResponse struct {
	Path string `json:"path"`
}

func (t *WriteNoteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Path string         `json:"path"`
		Body string         `json:"body"`
		Meta map[string]any `json:"meta"`
	}
	if err := req.BindArguments(&args); err != nil {
		return errorResult(err)
	}
	if strings.TrimSpace(args.Path) == "" {
		return errorResult(fmt.Errorf("path is required"))
	}

	meta := map[string]any{}
	if doc, err := t.store.ReadNote(args.Path); err == nil {
		for k, v := range doc.Meta {
			meta[k] = v
		}
	} else if !vault.IsNotFound(err) {
		return errorResult(err)
	}
	for k, v := range args.Meta {
		meta[k] = v
	}
	if len(meta) == 0 {
		meta = nil
	}

	written, err := t.store.WriteNote(args.Path, meta, args.Body)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(writeResponse{Path: written})
}

// AppendSectionTool appends content to the end of a heading-delimited
// section. A missing section is added at the end of the note, a missing
// note is created around it.
type AppendSectionTool struct {
	store Store
}

func (t *AppendSectionTool) Definition() mcp.Tool {
	return mcp.NewTool("append_section",
		mcp.WithDescription("Append Markdown content to the end of a named section. The section is created at the end of the note when absent, and the note itself is created when missing."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Vault-relative note path"),
		),
		mcp.WithString("heading",
			mcp.Required(),
			mcp.Description("Section heading text, matched case-insensitively"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Markdown lines to append"),
		),
		mcp.WithNumber("level",
			mcp.Description("Heading level to use when the section has to be created (default 2)"),
		),
	)
}

type appendSectionResponse struct {
	Path        string `json:"path"`
	Heading     string `json:"heading"`
	Action      string `json:"action"`
	CreatedNote bool   `json:"created_note,omitempty"`
}

func (t *AppendSectionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return errorResult(err)
	}
	heading, err := req.RequireString("heading")
	if err != nil {
		return errorResult(err)
	}
	content, err := req.RequireString("content")
	if err != nil {
		return errorResult(err)
	}
	if strings.TrimSpace(content) == "" {
		return errorResult(fmt.Errorf("content cannot be empty"))
	}

	var meta map[string]any
	body := ""
	createdNote := false
	doc, err := t.store.ReadNote(path)
	switch {
	case err == nil:
		meta = doc.Meta
		body = doc.Body
	case vault.IsNotFound(err):
		createdNote = true
	default:
		return errorResult(err)
	}

	// An existing section keeps its heading level; the level argument
	// only shapes a freshly created one.
	level := req.GetInt("level", 2)
	combined := strings.TrimSpace(content)
	if span, ok := mdnote.FindSection(body, heading); ok {
		level = span.Level
		if existing, _ := mdnote.Section(body, heading); existing != "" {
			combined = existing + "\n" + combined
		}
	}

	updated, action := mdnote.UpsertSection(body, heading, combined, level)
	written, err := t.store.WriteNote(path, meta, updated)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(appendSectionResponse{
		Path:        written,
		Heading:     heading,
		Action:      string(action),
		CreatedNote: createdNote,
	})
}

// GetSectionTool extracts one section's content without the heading.
type GetSectionTool struct {
	store Store
}

func (t *GetSectionTool) Definition() mcp.Tool {
	return mcp.NewTool("get_section",
		mcp.WithDescription("Read the content of one heading-delimited section. A missing section reports found=false rather than failing."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Vault-relative note path"),
		),
		mcp.WithString("heading",
			mcp.Required(),
			mcp.Description("Section heading text, matched case-insensitively"),
		),
	)
}

type getSectionResponse struct {
	Path    string `json:"path"`
	Heading string `json:"heading"`
	Found   bool   `json:"found"`
	Content string `json:"content,omitempty"`
}

func (t *GetSectionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return errorResult(err)
	}
	heading, err := req.RequireString("heading")
	if err != nil {
		return errorResult(err)
	}

	doc, err := t.store.ReadNote(path)
	if err != nil {
		return errorResult(err)
	}

	content, found := mdnote.Section(doc.Body, heading)
	return jsonResult(getSectionResponse{
		Path:    doc.Path,
		Heading: heading,
		Found:   found,
		Content: content,
	})
}

// DeleteNoteTool removes a note from the vault.
type DeleteNoteTool struct {
	store Store
}

func (t *DeleteNoteTool) Definition() mcp.Tool {
	return mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a note from the vault. Only Markdown notes can be deleted; folders and attachments are out of reach."),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Vault-relative note path"),
		),
	)
}

type deleteResponse struct {
	Path    string `json:"path"`
	Deleted bool   `json:"deleted"`
}

func (t *DeleteNoteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return errorResult(err)
	}
	clean, err := vault.NormalizeNotePath(path)
	if err != nil {
		return errorResult(err)
	}

	if err := t.store.Delete(clean); err != nil {
		return errorResult(err)
	}
	return jsonResult(deleteResponse{Path: clean, Deleted: true})
}
