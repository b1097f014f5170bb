package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/session"
	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/tools"
	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/tracker"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: groupSession,
	Short:   "Apply issue updates to the project tracker",
	Long: `Run one tracker sync: parse the tracker's state, apply the updates in
order, and rewrite the JSON state section, the status table, and the
bounded sync log.

Updates come from repeated --set flags, a JSON file, or stdin:

  cortex sync --set "id=E18,status=done,note=shipped"
  cortex sync --set "id=E19,title=New bug,status=open" --set "id=E7,action=delete"
  cortex sync --file updates.json
  cat updates.json | cortex sync --file -

The JSON form is an array of objects with id, action, status, note,
title, type, priority and owner fields. An empty batch still re-renders
the document.`,
	Run: runSync,
}

func init() {
	syncCmd.Flags().String("context", "", "Project context note (default: the active project)")
	syncCmd.Flags().String("tracker", "", "Tracker note, overriding the context front matter")
	syncCmd.Flags().StringArray("set", nil, "One update as comma-separated key=value pairs (repeatable)")
	syncCmd.Flags().String("file", "", "JSON updates file, - for stdin")
	syncCmd.Flags().String("date", "", "Session log date, YYYY-MM-DD or natural language (default today)")
	syncCmd.Flags().Bool("log-session", false, "Also append a sync summary to the session log")
	syncCmd.Flags().Bool("no-create", false, "Do not create records for unknown ids")
	syncCmd.Flags().Bool("json", false, "Print the full result as JSON")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) {
	contextPath, _ := cmd.Flags().GetString("context")
	trackerPath, _ := cmd.Flags().GetString("tracker")
	sets, _ := cmd.Flags().GetStringArray("set")
	file, _ := cmd.Flags().GetString("file")
	date, _ := cmd.Flags().GetString("date")
	logSession, _ := cmd.Flags().GetBool("log-session")
	noCreate, _ := cmd.Flags().GetBool("no-create")
	jsonOut, _ := cmd.Flags().GetBool("json")

	updates, err := collectUpdates(file, sets)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	date, err = parseSessionDate(date, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, store := openVault()
	orchestrator := newOrchestrator(cfg, store, nil)

	trackerOpts := tracker.DefaultOptions()
	trackerOpts.CreateMissing = !noCreate

	res, err := orchestrator.TrackerSync(context.Background(), session.SyncOptions{
		ContextPath:  contextPath,
		TrackerPath:  trackerPath,
		Updates:      updates,
		Tracker:      trackerOpts,
		LogToSession: logSession,
		SessionDate:  date,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	response := tools.NewTrackerSyncResponse(res)
	if jsonOut {
		printJSON(response)
		return
	}
	printSyncSummary(response)
}

// collectUpdates merges the JSON file/stdin batch with the --set
// entries, file first so flags apply on top.
func collectUpdates(file string, sets []string) ([]tracker.Update, error) {
	var updates []tracker.Update

	if file != "" {
		var data []byte
		var err error
		if file == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(file)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read updates: %w", err)
		}
		updates, err = tools.DecodeUpdates(data)
		if err != nil {
			return nil, err
		}
	}

	for _, raw := range sets {
		update, err := parseSetFlag(raw)
		if err != nil {
			return nil, err
		}
		updates = append(updates, update)
	}

	return updates, nil
}

// parseSetFlag turns "id=E18,status=done,note=shipped" into one update.
func parseSetFlag(raw string) (tracker.Update, error) {
	var u tracker.Update
	for _, pair := range strings.Split(raw, ",") {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			return u, fmt.Errorf("malformed --set entry %q: want key=value pairs", pair)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "id":
			u.ID = value
		case "action":
			u.Action = value
		case "status":
			u.Status = strptr(value)
		case "note":
			u.Note = strptr(value)
		case "title":
			u.Title = strptr(value)
		case "type":
			u.Type = strptr(value)
		case "priority":
			u.Priority = strptr(value)
		case "owner":
			u.Owner = strptr(value)
		default:
			return u, fmt.Errorf("unknown --set field %q", key)
		}
	}
	if strings.TrimSpace(u.ID) == "" {
		return u, fmt.Errorf("--set entry %q has no id", raw)
	}
	return u, nil
}

func strptr(s string) *string { return &s }

// printSyncSummary renders the human-readable sync outcome.
func printSyncSummary(res tools.TrackerSyncResponse) {
	if res.Skipped {
		fmt.Printf("%s %s\n", render(styleWarn, "Skipped:"), res.SkipReason)
		return
	}

	state := "created"
	if res.TrackerExisted {
		state = "existed"
	}
	fmt.Printf("%s %s (%s, parsed from %s)\n",
		render(styleHeader, "Tracker:"), res.TrackerPath, state, res.ParseSource)
	fmt.Printf("Issues:  %d   %s\n", res.IssueCount, formatStatusCounts(res.StatusCounts))

	for _, line := range []struct {
		label string
		ids   []string
	}{
		{"Updated", res.UpdatedIDs},
		{"Created", res.CreatedIDs},
		{"Deleted", res.DeletedIDs},
		{"Unresolved", res.UnresolvedIDs},
	} {
		if len(line.ids) == 0 {
			continue
		}
		fmt.Printf("%s: %s\n", line.label, strings.Join(line.ids, ", "))
	}

	if res.SessionLogPath != "" {
		fmt.Printf("Logged to %s\n", res.SessionLogPath)
	}
	for _, warning := range res.Warnings {
		fmt.Printf("%s %s\n", render(styleWarn, "Warning:"), warning)
	}
}

// formatStatusCounts renders per-status tallies in display order.
func formatStatusCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return render(styleMuted, "empty")
	}

	statuses := make([]string, 0, len(counts))
	for status := range counts {
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool {
		pi, pj := tracker.StatusPrecedence(statuses[i]), tracker.StatusPrecedence(statuses[j])
		if pi != pj {
			return pi < pj
		}
		return statuses[i] < statuses[j]
	})

	parts := make([]string, 0, len(statuses))
	for _, status := range statuses {
		parts = append(parts, fmt.Sprintf("%s %d", renderStatus(status), counts[status]))
	}
	return strings.Join(parts, "  ")
}
