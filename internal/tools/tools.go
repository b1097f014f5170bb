// Package tools exposes the Cortex vault operations as MCP tools.
//
// Each tool is a small struct pairing a Definition, the mcp.Tool schema
// advertised to clients, with a Handle implementing it over the vault
// store and the session orchestrator. A Registry aggregates the full
// set for registration and wraps every handler with start/finish
// logging keyed by a short request id.
//
// Operation failures become MCP error results so the client sees a
// structured message; parse degradations stay inline warning fields in
// otherwise successful results.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/config"
	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/session"
	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/vault"
)

// Store is the slice of the vault store the tools need. *vault.Store
// satisfies it; tests substitute an in-memory fake.
type Store interface {
	ReadNote(path string) (*vault.Document, error)
	WriteNote(path string, meta map[string]any, body string) (string, error)
	Delete(path string) error
	NoteExists(path string) bool
	NoteMTime(path string) (time.Time, error)
	ListMarkdownFiles(dir string) ([]string, error)
}

// Tool is one MCP tool: its advertised schema plus its handler.
type Tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// Deps are the shared collaborators behind the tool set.
type Deps struct {
	Store        Store
	Orchestrator *session.Orchestrator
	Config       *config.Config

	// Logger receives the per-invocation start/finish lines. Nil means
	// a prefixed stderr logger.
	Logger *log.Logger
}

// Registry holds the complete tool set for registration on a server.
type Registry struct {
	tools  []Tool
	logger *log.Logger
}

// New builds the full Cortex tool set over the given collaborators.
func New(deps Deps) *Registry {
	if deps.Config == nil {
		deps.Config = config.DefaultConfig()
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[tools] ", log.LstdFlags)
	}

	return &Registry{
		logger: logger,
		tools: []Tool{
			&ReadNoteTool{store: deps.Store},
			&WriteNoteTool{store: deps.Store},
			&AppendSectionTool{store: deps.Store},
			&GetSectionTool{store: deps.Store},
			&DeleteNoteTool{store: deps.Store},
			&ListNotesTool{store: deps.Store},
			&VaultTreeTool{store: deps.Store},
			&DailyNoteTool{store: deps.Store, config: deps.Config},
			&SearchNotesTool{store: deps.Store},
			&BacklinksTool{store: deps.Store},
			&BrokenLinksTool{store: deps.Store},
			&TrackerSyncTool{orchestrator: deps.Orchestrator},
			&TrackerStatusTool{orchestrator: deps.Orchestrator},
			&SessionStartTool{orchestrator: deps.Orchestrator},
			&SessionCheckpointTool{orchestrator: deps.Orchestrator},
			&SessionResumeTool{orchestrator: deps.Orchestrator},
			&StaleScanTool{orchestrator: deps.Orchestrator, config: deps.Config},
		},
	}
}

// Tools returns the tool set in registration order.
func (r *Registry) Tools() []Tool {
	return r.tools
}

// Register adds every tool to the server, each handler wrapped with
// invocation logging.
func (r *Registry) Register(srv *server.MCPServer) {
	for _, t := range r.tools {
		def := t.Definition()
		srv.AddTool(def, r.logged(def.Name, t.Handle))
	}
}

// logged wraps a handler with start/finish logging. The request id ties
// the two lines together when invocations interleave in the log.
func (r *Registry) logged(name string, handler server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := requestID()
		r.logger.Printf("[%s] tool %s started", id, name)

		res, err := handler(ctx, req)
		switch {
		case err != nil:
			r.logger.Printf("[%s] tool %s failed: %v", id, name, err)
		case res != nil && res.IsError:
			r.logger.Printf("[%s] tool %s returned an error result", id, name)
		default:
			r.logger.Printf("[%s] tool %s finished", id, name)
		}
		return res, err
	}
}

// requestID returns a short correlation id for one tool invocation.
func requestID() string {
	return uuid.NewString()[:8]
}

// jsonResult encodes a payload as indented JSON text content.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errorResult converts an operation failure into an MCP error result.
// The error is data for the client, not a protocol failure.
func errorResult(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}
