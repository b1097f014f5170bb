package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/config"
	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/session"
	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/tools"
	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/tracker"
)

var sessionCmd = &cobra.Command{
	Use:     "session",
	GroupID: groupSession,
	Short:   "Start, checkpoint and resume work sessions",
	Long: `The session workflow against the vault: start loads the active project
and its bootstrap notes, checkpoint persists progress across the
context, the session log and the daily note, and resume rebuilds
working memory after an interruption.`,
}

var sessionStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Load the active project context and bootstrap notes",
	Run:   runSessionStart,
}

var sessionCheckpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Persist session progress to the context, session log and daily note",
	Run:   runSessionCheckpoint,
}

var sessionResumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Rebuild working memory from the context, session log and tracker",
	Run:   runSessionResume,
}

func init() {
	sessionStartCmd.Flags().String("context", "", "Project context note (default: the active project)")
	sessionStartCmd.Flags().Bool("recent", false, "Also list recently modified notes near the context")
	sessionStartCmd.Flags().String("recent-within", "", "Recent-scan window, e.g. 72h or 3d (default 72h)")
	sessionStartCmd.Flags().Bool("json", false, "Print the full payload as JSON")

	sessionCheckpointCmd.Flags().String("context", "", "Project context note (default: the active project)")
	sessionCheckpointCmd.Flags().String("summary", "", "One-line summary for the session log (required)")
	sessionCheckpointCmd.Flags().StringArray("status", nil, "Replace the Current Status bullets (repeatable)")
	sessionCheckpointCmd.Flags().StringArray("priority", nil, "Replace the Current Priorities bullets (repeatable)")
	sessionCheckpointCmd.Flags().StringArray("blocker", nil, "Replace the Known Risks/Blockers bullets (repeatable)")
	sessionCheckpointCmd.Flags().StringArray("next", nil, "Replace the Next 3 Actions bullets (repeatable)")
	sessionCheckpointCmd.Flags().Bool("sync-tracker", false, "Also run a tracker sync as the final step")
	sessionCheckpointCmd.Flags().StringArray("set", nil, "Tracker update for --sync-tracker, as key=value pairs (repeatable)")
	sessionCheckpointCmd.Flags().String("date", "", "Session log date, YYYY-MM-DD or natural language (default today)")
	sessionCheckpointCmd.Flags().Bool("json", false, "Print the full payload as JSON")

	sessionResumeCmd.Flags().String("context", "", "Project context note (default: the active project)")
	sessionResumeCmd.Flags().String("date", "", "Session log date to reload, YYYY-MM-DD or natural language (default newest)")
	sessionResumeCmd.Flags().Bool("json", false, "Print the full payload as JSON")

	sessionCmd.AddCommand(sessionStartCmd)
	sessionCmd.AddCommand(sessionCheckpointCmd)
	sessionCmd.AddCommand(sessionResumeCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionStart(cmd *cobra.Command, args []string) {
	contextPath, _ := cmd.Flags().GetString("context")
	recent, _ := cmd.Flags().GetBool("recent")
	recentWithin, _ := cmd.Flags().GetString("recent-within")
	jsonOut, _ := cmd.Flags().GetBool("json")

	opts := session.StartOptions{ContextPath: contextPath, ScanRecent: recent}
	if recentWithin != "" {
		window, err := config.ParseDuration(recentWithin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		opts.ScanRecent = true
		opts.RecentWithin = window.Duration
	}

	cfg, store := openVault()
	orchestrator := newOrchestrator(cfg, store, nil)

	res, err := orchestrator.Start(context.Background(), opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if jsonOut {
		printJSON(res)
		return
	}

	fmt.Printf("%s %s\n", render(styleHeader, "Context:"), res.ContextPath)
	if !res.ContextExists {
		fmt.Println(render(styleWarn, "The context note does not exist yet; write_note or cortex init creates it."))
	}

	for _, doc := range res.Bootstrap {
		marker := render(styleGood, "✓")
		if !doc.Exists {
			marker = render(styleMuted, "–")
		}
		fmt.Printf("  %s %s\n", marker, doc.Path)
	}

	printSummary(res.Summary)

	if len(res.RecentFiles) > 0 {
		fmt.Printf("\n%s\n", render(styleHeader, "Recently modified"))
		for _, file := range res.RecentFiles {
			fmt.Printf("  - %s %s\n", file.Path,
				render(styleMuted, file.Modified.Format("(2006-01-02 15:04)")))
		}
	}

	printWarnings(res.Warnings)
}

func runSessionCheckpoint(cmd *cobra.Command, args []string) {
	contextPath, _ := cmd.Flags().GetString("context")
	summary, _ := cmd.Flags().GetString("summary")
	status, _ := cmd.Flags().GetStringArray("status")
	priorities, _ := cmd.Flags().GetStringArray("priority")
	blockers, _ := cmd.Flags().GetStringArray("blocker")
	nextActions, _ := cmd.Flags().GetStringArray("next")
	syncTracker, _ := cmd.Flags().GetBool("sync-tracker")
	sets, _ := cmd.Flags().GetStringArray("set")
	date, _ := cmd.Flags().GetString("date")
	jsonOut, _ := cmd.Flags().GetBool("json")

	if strings.TrimSpace(summary) == "" {
		fmt.Fprintf(os.Stderr, "Error: --summary is required\n")
		os.Exit(1)
	}
	if len(sets) > 0 && !syncTracker {
		fmt.Fprintf(os.Stderr, "Error: --set needs --sync-tracker\n")
		os.Exit(1)
	}

	date, err := parseSessionDate(date, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var updates []tracker.Update
	for _, raw := range sets {
		update, err := parseSetFlag(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		updates = append(updates, update)
	}

	cfg, store := openVault()
	orchestrator := newOrchestrator(cfg, store, nil)

	res, err := orchestrator.Checkpoint(context.Background(), session.CheckpointOptions{
		ContextPath: contextPath,
		Summary:     summary,
		Status:      status,
		Priorities:  priorities,
		Blockers:    blockers,
		NextActions: nextActions,
		SyncTracker: syncTracker,
		Updates:     updates,
		SessionDate: date,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if jsonOut {
		printJSON(res)
		return
	}

	if res.Completed {
		fmt.Println(render(styleGood, "Checkpoint complete."))
	} else {
		fmt.Println(render(styleBad, "Checkpoint incomplete; earlier steps stay committed."))
	}
	for _, step := range res.Steps {
		marker := render(styleGood, "✓")
		if !step.OK {
			marker = render(styleBad, "✗")
		}
		fmt.Printf("  %s %s", marker, step.Name)
		if step.Error != "" {
			fmt.Printf(": %s", step.Error)
		}
		fmt.Println()
	}

	if len(res.UpdatedSections) > 0 {
		fmt.Printf("Context sections updated: %s\n", strings.Join(res.UpdatedSections, ", "))
	}
	fmt.Printf("Session log: %s\n", res.SessionLogPath)
	if res.PointerAdded {
		fmt.Printf("Daily note:  %s (pointer added)\n", res.DailyNotePath)
	}

	if res.Tracker != nil {
		fmt.Println()
		printSyncSummary(tools.NewTrackerSyncResponse(res.Tracker))
	}

	if !res.Completed {
		os.Exit(1)
	}
}

func runSessionResume(cmd *cobra.Command, args []string) {
	contextPath, _ := cmd.Flags().GetString("context")
	date, _ := cmd.Flags().GetString("date")
	jsonOut, _ := cmd.Flags().GetBool("json")

	date, err := parseSessionDate(date, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, store := openVault()
	orchestrator := newOrchestrator(cfg, store, nil)

	res, err := orchestrator.Resume(context.Background(), session.ResumeOptions{
		ContextPath: contextPath,
		SessionDate: date,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if jsonOut {
		printJSON(res)
		return
	}

	fmt.Printf("%s %s\n", render(styleHeader, "Context:"), res.ContextPath)
	if !res.ContextExists {
		fmt.Println(render(styleWarn, "The context note does not exist yet."))
	}
	printSummary(res.Summary)

	fmt.Printf("\n%s %s\n", render(styleHeader, "Session log:"), res.SessionLogPath)
	if res.SessionLogExists {
		fmt.Println(indentBlock(res.SessionLog))
	} else {
		fmt.Println(render(styleMuted, "  No session log for this project yet."))
	}

	if res.Tracker != nil {
		fmt.Printf("\n%s %s\n", render(styleHeader, "Tracker:"), res.Tracker.TrackerPath)
		if res.Tracker.Exists {
			fmt.Printf("  %d issues   %s\n", res.Tracker.IssueCount, formatStatusCounts(res.Tracker.StatusCounts))
		} else {
			fmt.Println(render(styleMuted, "  Configured but not created yet."))
		}
	}

	printWarnings(res.Warnings)
}

// printSummary renders the bounded context summary sections.
func printSummary(s session.Summary) {
	printBullets(session.SectionPriorities, s.Priorities)
	printBullets(session.SectionBlockers, s.Blockers)
	printBullets(session.SectionNextActions, s.NextActions)
}

func printBullets(label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("\n%s\n", render(styleHeader, label))
	for _, item := range items {
		fmt.Printf("  - %s\n", item)
	}
}

func printWarnings(warnings []string) {
	for _, warning := range warnings {
		fmt.Printf("%s %s\n", render(styleWarn, "Warning:"), warning)
	}
}

// indentBlock indents every line two spaces for nested display.
func indentBlock(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = "  " + line
		}
	}
	return strings.Join(lines, "\n")
}
