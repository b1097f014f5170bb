package session

import (
	"context"
	"fmt"
	"path"
	"sort"
	"time"

	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/vault"
)

// maxRecentFiles caps the recent-activity listing in a start result.
const maxRecentFiles = 20

// StartOptions configure a session start.
type StartOptions struct {
	// ContextPath overrides the active project context resolution.
	ContextPath string

	// ScanRecent lists recently modified notes under the context's
	// folder.
	ScanRecent bool

	// RecentWithin bounds the recent scan. Zero means 72 hours.
	RecentWithin time.Duration

	// Now fixes the reference time. Zero means the wall clock.
	Now time.Time
}

// BootstrapDoc reports one bootstrap document load.
type BootstrapDoc struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
	Body   string `json:"body,omitempty"`
}

// RecentFile is one recently modified note under the project's folder.
type RecentFile struct {
	Path     string    `json:"path"`
	Modified time.Time `json:"modified"`
}

// StartResult is the session bootstrap payload.
type StartResult struct {
	ContextPath   string         `json:"context_path"`
	ContextExists bool           `json:"context_exists"`
	Context       string         `json:"context,omitempty"`
	Bootstrap     []BootstrapDoc `json:"bootstrap"`
	Summary       Summary        `json:"summary"`
	RecentFiles   []RecentFile   `json:"recent_files,omitempty"`
	Warnings      []string       `json:"warnings,omitempty"`
}

// Start resolves the active project context, loads it together with the
// fixed bootstrap documents, and extracts the bounded summary. A
// missing context is reported in the result, not raised, so a fresh
// vault can still start a session.
func (o *Orchestrator) Start(ctx context.Context, opts StartOptions) (*StartResult, error) {
	now := orDefaultNow(opts.Now)

	contextPath, err := o.resolveContextPath(opts.ContextPath)
	if err != nil {
		return nil, err
	}

	result := &StartResult{ContextPath: contextPath}

	doc, exists, warnings, err := o.loadContext(contextPath)
	if err != nil {
		return nil, err
	}
	result.ContextExists = exists
	result.Warnings = warnings
	if exists {
		result.Context = doc.Body
		result.Summary = o.extractSummary(doc.Body)
	}

	result.Bootstrap = o.loadBootstrap()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if opts.ScanRecent && exists {
		within := opts.RecentWithin
		if within <= 0 {
			within = 72 * time.Hour
		}
		recent, err := o.recentFiles(contextPath, within, now)
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("recent-file scan failed: %v", err))
		} else {
			result.RecentFiles = recent
		}
	}

	o.logger.Printf("Session start: context=%s exists=%t priorities=%d blockers=%d",
		contextPath, exists, len(result.Summary.Priorities), len(result.Summary.Blockers))

	return result, nil
}

// loadContext reads a project context note. A missing note degrades to
// an empty document with a warning; every other failure is an error.
func (o *Orchestrator) loadContext(contextPath string) (*vault.Document, bool, []string, error) {
	doc, err := o.store.ReadNote(contextPath)
	if err != nil {
		if vault.IsNotFound(err) {
			warning := fmt.Sprintf("project context %s does not exist", contextPath)
			return &vault.Document{Path: contextPath}, false, []string{warning}, nil
		}
		return nil, false, nil, err
	}
	return doc, true, doc.Warnings, nil
}

// loadBootstrap reads the configured bootstrap documents, reporting
// missing ones instead of failing.
func (o *Orchestrator) loadBootstrap() []BootstrapDoc {
	docs := make([]BootstrapDoc, 0, len(o.config.BootstrapPaths))
	for _, bootstrapPath := range o.config.BootstrapPaths {
		doc, err := o.store.ReadNote(bootstrapPath)
		if err != nil {
			docs = append(docs, BootstrapDoc{Path: bootstrapPath})
			continue
		}
		docs = append(docs, BootstrapDoc{Path: doc.Path, Exists: true, Body: doc.Body})
	}
	return docs
}

// recentFiles lists notes under the context's folder modified within
// the window, newest first, capped.
func (o *Orchestrator) recentFiles(contextPath string, within time.Duration, now time.Time) ([]RecentFile, error) {
	dir := path.Dir(contextPath)
	if dir == "." {
		dir = ""
	}

	notes, err := o.store.ListMarkdownFiles(dir)
	if err != nil {
		return nil, err
	}

	var out []RecentFile
	for _, rel := range notes {
		mtime, err := o.store.NoteMTime(rel)
		if err != nil {
			continue
		}
		if now.Sub(mtime) > within {
			continue
		}
		out = append(out, RecentFile{Path: rel, Modified: mtime})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Modified.After(out[j].Modified) })
	if len(out) > maxRecentFiles {
		out = out[:maxRecentFiles]
	}
	return out, nil
}
