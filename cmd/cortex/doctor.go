package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/config"
	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/session"
)

var doctorCmd = &cobra.Command{
	Use:     "doctor",
	GroupID: groupMaint,
	Short:   "Scan every project for stale contexts and tracker drift",
	Long: `Walk all project contexts and report what needs attention: contexts and
trackers nobody has touched, trackers configured but missing, duplicate
record ids, and records parked in validation.

Thresholds take Go durations, day counts, or plain English:

  cortex doctor --context-after 7d
  cortex doctor --tracker-after "last monday"
  cortex doctor --validation-after "yesterday"`,
	Run: runDoctor,
}

func init() {
	doctorCmd.Flags().String("context-after", "", "Context staleness threshold (default 7d)")
	doctorCmd.Flags().String("tracker-after", "", "Tracker staleness threshold (default 3d)")
	doctorCmd.Flags().String("validation-after", "", "Parked-validation threshold (default 14d)")
	doctorCmd.Flags().Bool("json", false, "Print findings as JSON")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) {
	jsonOut, _ := cmd.Flags().GetBool("json")
	now := time.Now()

	cfg, store := openVault()

	opts := session.StaleScanOptions{
		ContextAfter:    cfg.StaleContextAfter.Duration,
		TrackerAfter:    cfg.StaleTrackerAfter.Duration,
		ValidationAfter: cfg.StaleValidationAfter.Duration,
	}
	for _, threshold := range []struct {
		flag string
		dst  *time.Duration
	}{
		{"context-after", &opts.ContextAfter},
		{"tracker-after", &opts.TrackerAfter},
		{"validation-after", &opts.ValidationAfter},
	} {
		raw, _ := cmd.Flags().GetString(threshold.flag)
		if raw == "" {
			continue
		}
		parsed, err := parseThreshold(raw, now)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: --%s: %v\n", threshold.flag, err)
			os.Exit(1)
		}
		*threshold.dst = parsed
	}

	orchestrator := newOrchestrator(cfg, store, nil)

	res, err := orchestrator.StaleScan(context.Background(), opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if jsonOut {
		printJSON(res)
		return
	}

	fmt.Printf("Scanned %d project contexts.\n", len(res.ScannedContexts))
	if len(res.Findings) == 0 {
		fmt.Println(render(styleGood, "No findings. Everything looks current."))
	}
	for _, finding := range res.Findings {
		fmt.Printf("  %s %s", render(findingStyle(finding.Kind), fmt.Sprintf("%-17s", finding.Kind)), finding.Path)
		if finding.IssueID != "" {
			fmt.Printf(" %s", finding.IssueID)
		}
		fmt.Printf("  %s\n", render(styleMuted, finding.Detail))
	}
	printWarnings(res.Warnings)
}

func findingStyle(kind string) lipgloss.Style {
	switch kind {
	case session.FindingMissingTracker, session.FindingDuplicateIDs:
		return styleBad
	default:
		return styleWarn
	}
}

// parseThreshold turns a flag value into a staleness age. Go durations
// and day counts parse directly; anything else goes through the natural
// language date parser and becomes the distance from now.
func parseThreshold(raw string, now time.Time) (time.Duration, error) {
	if parsed, err := config.ParseDuration(raw); err == nil {
		return parsed.Duration, nil
	}

	r, err := parseNatural(raw, now)
	if err != nil {
		return 0, fmt.Errorf("cannot parse %q as a duration or a point in time", raw)
	}
	threshold := now.Sub(r)
	if threshold <= 0 {
		return 0, fmt.Errorf("%q resolves to a future time", raw)
	}
	return threshold, nil
}

// parseSessionDate resolves a --date flag value to an ISO date. Empty
// stays empty (meaning today), literal YYYY-MM-DD passes through, and
// anything else ("yesterday", "last friday") goes through the natural
// language parser.
func parseSessionDate(raw string, now time.Time) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}
	if _, err := time.Parse("2006-01-02", trimmed); err == nil {
		return trimmed, nil
	}

	r, err := parseNatural(trimmed, now)
	if err != nil {
		return "", fmt.Errorf("cannot parse %q as a date", raw)
	}
	return r.Format("2006-01-02"), nil
}

// parseNatural resolves English date expressions against a reference
// time.
func parseNatural(raw string, now time.Time) (time.Time, error) {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	r, err := w.Parse(raw, now)
	if err != nil {
		return time.Time{}, err
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("no date expression in %q", raw)
	}
	return r.Time, nil
}
