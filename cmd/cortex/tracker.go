package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/tracker"
)

var trackerCmd = &cobra.Command{
	Use:     "tracker",
	GroupID: groupTracker,
	Short:   "Inspect and export the project tracker",
	Long: `Read-only views over the tracker note. The tracker is parsed the same
way a sync parses it: the JSON state section when present, legacy
Markdown tables otherwise.`,
}

var trackerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracker issues",
	Run:   runTrackerList,
}

var trackerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize tracker health and per-status counts",
	Run:   runTrackerStatus,
}

var trackerExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export tracker issues as JSON lines",
	Long: `Write one JSON object per line for every tracker issue, in display
order. The output round-trips through cortex sync --file after wrapping
the lines in a JSON array.`,
	Run: runTrackerExport,
}

func init() {
	trackerListCmd.Flags().String("context", "", "Project context note (default: the active project)")
	trackerListCmd.Flags().String("tracker", "", "Tracker note, overriding the context front matter")
	trackerListCmd.Flags().String("status", "", "Only issues with this status (synonyms accepted)")
	trackerListCmd.Flags().Bool("json", false, "Print issues as a JSON array")

	trackerStatusCmd.Flags().String("context", "", "Project context note (default: the active project)")
	trackerStatusCmd.Flags().String("tracker", "", "Tracker note, overriding the context front matter")
	trackerStatusCmd.Flags().Bool("json", false, "Print the summary as JSON")

	trackerExportCmd.Flags().String("context", "", "Project context note (default: the active project)")
	trackerExportCmd.Flags().String("tracker", "", "Tracker note, overriding the context front matter")
	trackerExportCmd.Flags().String("out", "", "Write to this file instead of stdout")

	trackerCmd.AddCommand(trackerListCmd)
	trackerCmd.AddCommand(trackerStatusCmd)
	trackerCmd.AddCommand(trackerExportCmd)
	rootCmd.AddCommand(trackerCmd)
}

// loadTrackerIssues resolves the tracker note and parses its state.
func loadTrackerIssues(cmd *cobra.Command) (string, tracker.ParseResult) {
	contextPath, _ := cmd.Flags().GetString("context")
	trackerPath, _ := cmd.Flags().GetString("tracker")

	cfg, store := openVault()
	orchestrator := newOrchestrator(cfg, store, nil)

	status, err := orchestrator.TrackerStatus(context.Background(), contextPath, trackerPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if !status.Exists {
		fmt.Fprintf(os.Stderr, "Error: tracker %s does not exist yet\n", status.TrackerPath)
		os.Exit(1)
	}

	doc, err := store.ReadNote(status.TrackerPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	parsed := tracker.ParseState(doc.Body)
	sortIssuesForDisplay(parsed.Issues)
	return status.TrackerPath, parsed
}

// sortIssuesForDisplay orders issues the way the rendered table does:
// status precedence first, then id.
func sortIssuesForDisplay(issues []tracker.Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		pi, pj := tracker.StatusPrecedence(issues[i].Status), tracker.StatusPrecedence(issues[j].Status)
		if pi != pj {
			return pi < pj
		}
		return issues[i].ID < issues[j].ID
	})
}

func runTrackerList(cmd *cobra.Command, args []string) {
	statusFilter, _ := cmd.Flags().GetString("status")
	jsonOut, _ := cmd.Flags().GetBool("json")

	target, parsed := loadTrackerIssues(cmd)

	issues := parsed.Issues
	if statusFilter != "" {
		want := tracker.NormalizeStatus(statusFilter)
		filtered := issues[:0]
		for _, issue := range issues {
			if issue.Status == want {
				filtered = append(filtered, issue)
			}
		}
		issues = filtered
	}

	if jsonOut {
		printJSON(issues)
		return
	}

	fmt.Printf("%s %s (%d issues, parsed from %s)\n\n",
		render(styleHeader, "Tracker:"), target, len(parsed.Issues), parsed.Source)
	if len(issues) == 0 {
		fmt.Println(render(styleMuted, "No matching issues."))
		return
	}
	printIssueTable(issues)

	for _, warning := range parsed.Warnings {
		fmt.Printf("\n%s %s\n", render(styleWarn, "Warning:"), warning)
	}
}

// printIssueTable renders a column-aligned issue listing.
func printIssueTable(issues []tracker.Issue) {
	headers := []string{"ID", "STATUS", "PRI", "TYPE", "OWNER", "TITLE"}
	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = len(header)
	}

	rows := make([][]string, 0, len(issues))
	for _, issue := range issues {
		row := []string{issue.ID, issue.Status, issue.Priority, issue.Type, issue.Owner, issue.Title}
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
		rows = append(rows, row)
	}

	cells := make([]string, len(headers))
	for i, header := range headers {
		cells[i] = render(styleHeader, fmt.Sprintf("%-*s", widths[i], header))
	}
	fmt.Println(strings.TrimRight(strings.Join(cells, "  "), " "))

	for _, row := range rows {
		for i, cell := range row {
			padded := fmt.Sprintf("%-*s", widths[i], cell)
			if i == 1 {
				// Pad before styling so ANSI codes don't skew the columns.
				padded = render(statusStyle(cell), padded)
			}
			cells[i] = padded
		}
		fmt.Println(strings.TrimRight(strings.Join(cells, "  "), " "))
	}
}

func runTrackerStatus(cmd *cobra.Command, args []string) {
	contextPath, _ := cmd.Flags().GetString("context")
	trackerPath, _ := cmd.Flags().GetString("tracker")
	jsonOut, _ := cmd.Flags().GetBool("json")

	cfg, store := openVault()
	orchestrator := newOrchestrator(cfg, store, nil)

	status, err := orchestrator.TrackerStatus(context.Background(), contextPath, trackerPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if jsonOut {
		printJSON(status)
		return
	}

	fmt.Printf("%s %s\n", render(styleHeader, "Tracker:"), status.TrackerPath)
	if !status.Exists {
		fmt.Println(render(styleMuted, "The tracker note does not exist yet; the first sync creates it."))
		return
	}

	fmt.Printf("Issues:  %d (parsed from %s)\n", status.IssueCount, status.Source)
	if len(status.StatusCounts) > 0 {
		fmt.Printf("Status:  %s\n", formatStatusCounts(status.StatusCounts))
	}
	if len(status.DuplicateIDs) > 0 {
		fmt.Printf("%s %s\n", render(styleBad, "Duplicate ids:"), strings.Join(status.DuplicateIDs, ", "))
	}
	for _, warning := range status.Warnings {
		fmt.Printf("%s %s\n", render(styleWarn, "Warning:"), warning)
	}
}

func runTrackerExport(cmd *cobra.Command, args []string) {
	outPath, _ := cmd.Flags().GetString("out")

	_, parsed := loadTrackerIssues(cmd)

	var b strings.Builder
	if err := tracker.ExportJSONL(&b, parsed.Issues); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if outPath == "" {
		fmt.Print(b.String())
		return
	}
	if err := os.WriteFile(outPath, []byte(b.String()), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Exported %d issues to %s\n", len(parsed.Issues), outPath)
}
