package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/frontmatter"
	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/tracker"
	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/vault"
)

// Finding kinds a stale scan can produce.
const (
	// FindingStaleContext marks a project context with no recent writes.
	FindingStaleContext = "stale_context"

	// FindingStaleTracker marks a tracker document with no recent syncs.
	FindingStaleTracker = "stale_tracker"

	// FindingMissingTracker marks a configured tracker path that does
	// not exist.
	FindingMissingTracker = "missing_tracker"

	// FindingDuplicateIDs marks a tracker whose state carries duplicate
	// record ids.
	FindingDuplicateIDs = "duplicate_ids"

	// FindingStaleValidation marks a record parked in validation past
	// the threshold.
	FindingStaleValidation = "stale_validation"
)

// Default staleness thresholds.
const (
	defaultContextAfter    = 7 * 24 * time.Hour
	defaultTrackerAfter    = 3 * 24 * time.Hour
	defaultValidationAfter = 14 * 24 * time.Hour
)

// StaleScanOptions configure a stale scan. Zero durations fall back to
// the defaults.
type StaleScanOptions struct {
	// ContextAfter is the age past which a context counts as stale.
	ContextAfter time.Duration

	// TrackerAfter is the age past which a tracker counts as stale.
	TrackerAfter time.Duration

	// ValidationAfter is the age past which an "In Validation" record
	// counts as parked.
	ValidationAfter time.Duration

	// Now fixes the reference time. Zero means the wall clock.
	Now time.Time
}

// Finding is one attention item from a stale scan.
type Finding struct {
	Kind    string `json:"kind"`
	Context string `json:"context,omitempty"`
	Path    string `json:"path"`
	IssueID string `json:"issue_id,omitempty"`
	Detail  string `json:"detail"`
}

// StaleScanResult reports a full scan over the vault's projects.
type StaleScanResult struct {
	ScannedContexts []string  `json:"scanned_contexts"`
	Findings        []Finding `json:"findings"`
	Warnings        []string  `json:"warnings,omitempty"`
}

// StaleScan walks every project context in the vault and reports what
// needs attention: contexts and trackers nobody has touched, trackers
// configured but missing, duplicate record ids, and records parked in
// validation. The scan reads only; unreadable notes degrade to
// warnings.
func (o *Orchestrator) StaleScan(ctx context.Context, opts StaleScanOptions) (*StaleScanResult, error) {
	now := orDefaultNow(opts.Now)
	contextAfter := orDefaultDuration(opts.ContextAfter, defaultContextAfter)
	trackerAfter := orDefaultDuration(opts.TrackerAfter, defaultTrackerAfter)
	validationAfter := orDefaultDuration(opts.ValidationAfter, defaultValidationAfter)

	result := &StaleScanResult{}

	contexts, warnings := o.discoverContexts()
	result.ScannedContexts = contexts
	result.Warnings = warnings

	for _, contextPath := range contexts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := o.store.ReadNote(contextPath)
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("failed to read context %s: %v", contextPath, err))
			continue
		}

		if ts, ok := o.noteTimestamp(contextPath, doc.Meta); !ok {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("context %s has no usable timestamp", contextPath))
		} else if now.Sub(ts) > contextAfter {
			result.Findings = append(result.Findings, Finding{
				Kind:    FindingStaleContext,
				Context: contextPath,
				Path:    contextPath,
				Detail:  ageDetail(now, ts),
			})
		}

		trackerPath, err := o.trackerPathFor("", doc.Meta)
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("ignoring unusable tracker path in %s: %v", contextPath, err))
			continue
		}
		if trackerPath == "" {
			continue
		}

		o.scanTracker(result, contextPath, trackerPath, now, trackerAfter, validationAfter)
	}

	o.logger.Printf("Stale scan: contexts=%d findings=%d warnings=%d",
		len(result.ScannedContexts), len(result.Findings), len(result.Warnings))

	return result, nil
}

// scanTracker appends the tracker-level findings for one project.
func (o *Orchestrator) scanTracker(result *StaleScanResult, contextPath, trackerPath string, now time.Time, trackerAfter, validationAfter time.Duration) {
	doc, err := o.store.ReadNote(trackerPath)
	if err != nil {
		if vault.IsNotFound(err) {
			result.Findings = append(result.Findings, Finding{
				Kind:    FindingMissingTracker,
				Context: contextPath,
				Path:    trackerPath,
				Detail:  fmt.Sprintf("tracker configured in %s does not exist", contextPath),
			})
		} else {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("failed to read tracker %s: %v", trackerPath, err))
		}
		return
	}

	if ts, ok := o.noteTimestamp(trackerPath, doc.Meta); ok && now.Sub(ts) > trackerAfter {
		result.Findings = append(result.Findings, Finding{
			Kind:    FindingStaleTracker,
			Context: contextPath,
			Path:    trackerPath,
			Detail:  ageDetail(now, ts),
		})
	}

	parsed := tracker.ParseState(doc.Body)
	if len(parsed.DuplicateIDs) > 0 {
		result.Findings = append(result.Findings, Finding{
			Kind:    FindingDuplicateIDs,
			Context: contextPath,
			Path:    trackerPath,
			Detail:  "duplicate ids: " + strings.Join(parsed.DuplicateIDs, ", "),
		})
	}

	for _, issue := range parsed.Issues {
		if issue.Status != tracker.StatusInValidation {
			continue
		}
		ts, ok := parseNoteTimestamp(issue.Updated)
		if !ok {
			continue
		}
		if now.Sub(ts) > validationAfter {
			result.Findings = append(result.Findings, Finding{
				Kind:    FindingStaleValidation,
				Context: contextPath,
				Path:    trackerPath,
				IssueID: issue.ID,
				Detail:  ageDetail(now, ts),
			})
		}
	}
}

// discoverContexts lists the contexts to scan: every note under the
// projects folder whose front matter marks it as a project context,
// plus the default context when it exists.
func (o *Orchestrator) discoverContexts() ([]string, []string) {
	var contexts []string
	var warnings []string
	seen := map[string]bool{}

	notes, err := o.store.ListMarkdownFiles(o.config.ProjectsDir)
	if err != nil {
		if !vault.IsNotFound(err) {
			warnings = append(warnings,
				fmt.Sprintf("failed to list %s: %v", o.config.ProjectsDir, err))
		}
	} else {
		for _, rel := range notes {
			doc, err := o.store.ReadNote(rel)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("failed to read %s: %v", rel, err))
				continue
			}
			if frontmatter.Text(doc.Meta[KeyType]) != TypeProjectContext {
				continue
			}
			if !seen[rel] {
				seen[rel] = true
				contexts = append(contexts, rel)
			}
		}
	}

	if def := o.config.DefaultContextPath; !seen[def] && o.store.NoteExists(def) {
		contexts = append(contexts, def)
	}

	return contexts, warnings
}

// noteTimestamp picks a note's freshness reference: the front-matter
// updated stamp when parseable, else the file's modification time.
func (o *Orchestrator) noteTimestamp(rel string, meta map[string]any) (time.Time, bool) {
	if ts, ok := parseNoteTimestamp(frontmatter.Text(meta["updated"])); ok {
		return ts, true
	}
	if mtime, err := o.store.NoteMTime(rel); err == nil {
		return mtime, true
	}
	return time.Time{}, false
}

// timestampLayouts are the accepted note timestamp formats, richest
// first.
var timestampLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseNoteTimestamp(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// ageDetail formats a staleness explanation for a finding.
func ageDetail(now, ts time.Time) string {
	days := int(now.Sub(ts).Hours() / 24)
	return fmt.Sprintf("not updated for %d days (last %s)", days, ts.Format("2006-01-02"))
}

func orDefaultDuration(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
