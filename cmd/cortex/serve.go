package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/logging"
	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/tools"
	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/vault"
)

const serverName = "obsidian-ai-cortex"

// serverInstructions is handed to MCP clients on initialize so the
// agent knows how the vault is meant to be driven.
const serverInstructions = `This server exposes an Obsidian vault as working memory.

Start every conversation with session_start to load the active project
context and its priorities. Record progress with session_checkpoint;
after an interruption use session_resume instead of re-reading the
vault by hand. Issue state lives in the project tracker: apply changes
through tracker_sync (never by editing the JSON section directly) and
inspect it with tracker_status. Notes are plain Markdown; read_note,
write_note, append_section and the search tools operate on
vault-relative paths with or without the .md extension.`

var serveCmd = &cobra.Command{
	Use:     "serve",
	GroupID: groupSetup,
	Short:   "Serve the vault to MCP clients over stdio",
	Long: `Run the MCP server on stdin/stdout.

Stdout carries the protocol, so server activity is logged to a rotating
file under .cortex/logs/ instead. A vault watcher keeps an in-memory
note index current while the server runs; the index is advisory and all
writes still go through the store.

Register the server with an MCP client, e.g. in Claude Desktop:

  {"command": "cortex", "args": ["serve", "--vault", "/path/to/vault"]}`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, store := openVault()

		logger, closer := logging.NewServer(cfg, "[cortex] ")
		defer closer.Close()

		index := vault.NewIndex(store, &vault.IndexConfig{
			DebounceInterval: cfg.DebounceInterval.Duration,
			Logger:           logger,
		})
		if err := index.Start(); err != nil {
			// The server works without the index, just slower.
			logger.Printf("Note index disabled: %v", err)
		} else {
			defer index.Stop()
			logger.Printf("Note index ready: %d notes", index.Len())
		}

		registry := tools.New(tools.Deps{
			Store:        store,
			Orchestrator: newOrchestrator(cfg, store, logger),
			Config:       cfg,
			Logger:       logger,
		})

		srv := server.NewMCPServer(serverName, Version,
			server.WithToolCapabilities(true),
			server.WithRecovery(),
			server.WithInstructions(serverInstructions),
		)
		registry.Register(srv)

		logger.Printf("Serving vault %s over stdio", store.Root())
		if err := server.ServeStdio(srv, server.WithErrorLogger(logger)); err != nil {
			logger.Printf("Server stopped: %v", err)
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
