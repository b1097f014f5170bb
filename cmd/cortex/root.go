package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/config"
	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/logging"
	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/session"
	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/vault"
)

// Command group ids for organized help output.
const (
	groupSession = "session"
	groupTracker = "tracker"
	groupSetup   = "setup"
	groupMaint   = "maint"
)

var vaultFlag string

var rootCmd = &cobra.Command{
	Use:   "cortex",
	Short: "cortex - working memory for AI agents over an Obsidian vault",
	Long: `Cortex turns a plain Markdown vault into structured working memory for
AI agents: project context notes, per-day session logs, daily notes and
issue trackers, all kept as ordinary Obsidian documents.

The same operations are available two ways: as MCP tools over stdio
(cortex serve) and as one-shot commands from this CLI. The vault root
comes from --vault, the CORTEX_VAULT environment variable, or the
current directory, in that order.`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: groupSession, Title: "Sessions & Sync:"},
		&cobra.Group{ID: groupTracker, Title: "Tracker:"},
		&cobra.Group{ID: groupSetup, Title: "Setup & Server:"},
		&cobra.Group{ID: groupMaint, Title: "Maintenance:"},
	)

	rootCmd.PersistentFlags().StringVar(&vaultFlag, "vault", "",
		"Vault root (default: $CORTEX_VAULT or the current directory)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openVault loads configuration and opens the vault store, exiting on
// failure the way every command reports fatal problems.
func openVault() (*config.Config, *vault.Store) {
	cfg, err := config.Load(vaultFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	store, err := vault.Open(cfg.VaultRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open vault %s: %v\n", cfg.VaultRoot, err)
		os.Exit(1)
	}
	return cfg, store
}

// newOrchestrator wires a session orchestrator from the loaded
// configuration. A nil logger logs to stderr, which suits CLI mode.
func newOrchestrator(cfg *config.Config, store *vault.Store, logger *log.Logger) *session.Orchestrator {
	if logger == nil {
		logger = logging.NewCLI("[cortex] ")
	}
	return session.New(store, &session.Config{
		NowPath:            cfg.NowPath,
		DefaultContextPath: cfg.DefaultContextPath,
		BootstrapPaths:     cfg.BootstrapPaths,
		SessionLogDir:      cfg.SessionLogDir,
		DailyDir:           cfg.DailyDir,
		ProjectsDir:        cfg.ProjectsDir,
		MaxPriorities:      cfg.MaxPriorities,
		MaxBlockers:        cfg.MaxBlockers,
		MaxNextActions:     cfg.MaxNextActions,
		MaxLogEntries:      cfg.MaxLogEntries,
		Logger:             logger,
	})
}

// printJSON writes an indented JSON rendering of v to stdout.
func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to encode result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
