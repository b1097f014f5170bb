package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/config"
	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/session"
	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/vault"
)

var initCmd = &cobra.Command{
	Use:     "init",
	GroupID: groupSetup,
	Short:   "Initialize a vault for cortex",
	Long: `Set up a vault: write .cortex/config.toml and seed the Cortex system
notes (Now, Context, Identity, Workflow) that the session workflow
expects. Existing notes are never overwritten.

On an interactive terminal the layout is asked for in a short wizard;
when stdin is piped (or with --no-input) the flags and defaults are
taken as-is.`,
	Run: runInit,
}

func init() {
	initCmd.Flags().String("projects-dir", "", "Folder scanned for project context notes (default Projects)")
	initCmd.Flags().String("daily-dir", "", "Folder for daily notes (default Daily)")
	initCmd.Flags().String("sessions-dir", "", "Folder for per-project session logs (default Cortex/Sessions)")
	initCmd.Flags().Bool("no-seed", false, "Skip creating the Cortex system notes")
	initCmd.Flags().Bool("no-input", false, "Never prompt; take flags and defaults")
	initCmd.Flags().Bool("force", false, "Overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) {
	cfg, store := openVault()

	noSeed, _ := cmd.Flags().GetBool("no-seed")
	noInput, _ := cmd.Flags().GetBool("no-input")
	force, _ := cmd.Flags().GetBool("force")

	configPath := config.FilePath(cfg.VaultRoot)
	if _, err := os.Stat(configPath); err == nil && !force {
		fmt.Fprintf(os.Stderr, "Error: %s already exists (use --force to overwrite)\n", configPath)
		os.Exit(1)
	}

	for flag, target := range map[string]*string{
		"projects-dir": &cfg.ProjectsDir,
		"daily-dir":    &cfg.DailyDir,
		"sessions-dir": &cfg.SessionLogDir,
	} {
		if value, _ := cmd.Flags().GetString(flag); value != "" {
			*target = value
		}
	}

	seed := !noSeed
	if term.IsTerminal(int(os.Stdin.Fd())) && !noInput {
		if err := initWizard(cfg, &seed); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if err := cfg.Save(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s Wrote %s\n", render(styleGood, "✓"), configPath)

	if seed {
		seedSystemNotes(cfg, store)
	}

	fmt.Printf("\n%s\n", render(styleHeader, "Vault ready."))
	fmt.Printf("Serve it with: cortex serve --vault %s\n", cfg.VaultRoot)
}

// initWizard collects the vault layout interactively.
func initWizard(cfg *config.Config, seed *bool) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Projects folder").
				Description("Scanned for project context notes").
				Placeholder("Projects").
				Validate(validateVaultDir).
				Value(&cfg.ProjectsDir),
			huh.NewInput().
				Title("Daily notes folder").
				Placeholder("Daily").
				Validate(validateVaultDir).
				Value(&cfg.DailyDir),
			huh.NewInput().
				Title("Session logs folder").
				Description("Per-project, per-day session logs").
				Placeholder("Cortex/Sessions").
				Validate(validateVaultDir).
				Value(&cfg.SessionLogDir),
			huh.NewConfirm().
				Title("Seed the Cortex system notes?").
				Description("Creates Now, Context, Identity and Workflow if missing").
				Value(seed),
		),
	)
	return form.Run()
}

// validateVaultDir rejects folder values that would land outside the
// vault.
func validateVaultDir(value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fmt.Errorf("folder is required")
	}
	if strings.HasPrefix(trimmed, "/") || strings.HasPrefix(trimmed, "\\") ||
		strings.Contains(trimmed, "..") || strings.Contains(trimmed, ":") {
		return fmt.Errorf("folder must be a relative vault path")
	}
	return nil
}

// seedSystemNotes creates the notes the workflow macros read, skipping
// any that already exist.
func seedSystemNotes(cfg *config.Config, store *vault.Store) {
	contextTarget := strings.TrimSuffix(cfg.DefaultContextPath, ".md")

	seeds := []struct {
		path string
		meta map[string]any
		body string
	}{
		{
			path: cfg.NowPath,
			meta: map[string]any{
				"type":                   "now",
				session.KeyActiveContext: cfg.DefaultContextPath,
			},
			body: "# Now\n\nActive project: [[" + contextTarget + "]]\n",
		},
		{
			path: cfg.DefaultContextPath,
			meta: map[string]any{session.KeyType: session.TypeProjectContext},
			body: "# Context\n\n" +
				"## " + session.SectionStatus + "\n\n- \n\n" +
				"## " + session.SectionPriorities + "\n\n- \n\n" +
				"## " + session.SectionBlockers + "\n\n- \n\n" +
				"## " + session.SectionNextActions + "\n\n- \n",
		},
		{
			path: "Cortex/Identity.md",
			meta: map[string]any{"type": "identity"},
			body: "# Identity\n\nWho this agent is and how it should behave in this vault.\n",
		},
		{
			path: "Cortex/Workflow.md",
			meta: map[string]any{"type": "workflow"},
			body: "# Workflow\n\n" +
				"1. session_start loads this vault's working memory.\n" +
				"2. Work, then session_checkpoint with a summary and updated bullets.\n" +
				"3. Keep issue state in the tracker via tracker_sync.\n" +
				"4. After an interruption, session_resume instead of re-reading everything.\n",
		},
	}

	for _, s := range seeds {
		if store.NoteExists(s.path) {
			fmt.Printf("%s %s exists, left untouched\n", render(styleMuted, "•"), s.path)
			continue
		}
		written, err := store.WriteNote(s.path, s.meta, s.body)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to seed %s: %v\n", s.path, err)
			os.Exit(1)
		}
		fmt.Printf("%s Created %s\n", render(styleGood, "✓"), written)
	}
}
