// Package session provides the project workflow orchestrator.
//
// Instead of keeping workflow state in a separate store, this package
// treats the vault itself as the state: the active project is named by a
// pointer note, progress lives in the project's context note, and every
// working session leaves a per-day log note behind. Each operation is a
// fixed composition of primitive note reads and writes plus at most one
// tracker sync.
package session

import (
	"log"
	"os"
	"path"
	"strings"
	"time"

	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/frontmatter"
	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/mdnote"
	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/tracker"
	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/vault"
)

// Front-matter keys the orchestrator interprets.
const (
	// KeyActiveContext on the now pointer note names the active project
	// context path.
	KeyActiveContext = "active_project_context"

	// KeyTrackerPath on a context note names its tracker document.
	KeyTrackerPath = "tracker_path"

	// KeyType marks a note's role; context notes carry TypeProjectContext.
	KeyType = "type"

	// TypeProjectContext is the front-matter type of project context notes.
	TypeProjectContext = "project-context"

	// TypeDaily is the front-matter type of daily notes.
	TypeDaily = "daily"
)

// Section headings recognized inside a project context note.
const (
	SectionStatus      = "Current Status"
	SectionPriorities  = "Current Priorities"
	SectionBlockers    = "Known Risks/Blockers"
	SectionNextActions = "Next 3 Actions"
)

// nextActionHeadings are the accepted spellings of the next-actions
// section, probed in order when reading and reused when upserting.
var nextActionHeadings = []string{SectionNextActions, "Next Actions", "Next Steps"}

// Store is the slice of the vault store the orchestrator needs.
// *vault.Store satisfies it; tests substitute an in-memory fake.
type Store interface {
	ReadNote(path string) (*vault.Document, error)
	WriteNote(path string, meta map[string]any, body string) (string, error)
	NoteExists(path string) bool
	NoteMTime(path string) (time.Time, error)
	ListMarkdownFiles(dir string) ([]string, error)
}

// Config holds the orchestrator's vault layout and summary bounds.
type Config struct {
	// NowPath is the routing pointer note whose front matter names the
	// active project context.
	NowPath string

	// DefaultContextPath is the fallback context when neither an
	// explicit override nor the pointer resolves.
	DefaultContextPath string

	// BootstrapPaths are loaded on every start and resume.
	BootstrapPaths []string

	// SessionLogDir holds per-project, per-day session log notes.
	SessionLogDir string

	// DailyDir holds daily notes.
	DailyDir string

	// ProjectsDir is scanned for project context notes.
	ProjectsDir string

	// MaxPriorities, MaxBlockers and MaxNextActions bound the summary.
	MaxPriorities  int
	MaxBlockers    int
	MaxNextActions int

	// MaxLogEntries bounds tracker sync logs.
	MaxLogEntries int

	// Logger for orchestrator activity.
	Logger *log.Logger
}

// DefaultConfig returns the standard Cortex vault layout.
func DefaultConfig() *Config {
	return &Config{
		NowPath:            "Cortex/Now.md",
		DefaultContextPath: "Cortex/Context.md",
		BootstrapPaths:     []string{"Cortex/Identity.md", "Cortex/Workflow.md"},
		SessionLogDir:      "Cortex/Sessions",
		DailyDir:           "Daily",
		ProjectsDir:        "Projects",
		MaxPriorities:      5,
		MaxBlockers:        5,
		MaxNextActions:     3,
		MaxLogEntries:      20,
	}
}

// Orchestrator runs the session workflow macros over one vault.
type Orchestrator struct {
	store  Store
	syncer tracker.Syncer
	config *Config
	logger *log.Logger
}

// New creates an Orchestrator. A nil config uses DefaultConfig; zero
// bounds inside a supplied config fall back to the defaults so partial
// configs stay usable.
func New(store Store, config *Config) *Orchestrator {
	if config == nil {
		config = DefaultConfig()
	}
	applyConfigDefaults(config)

	logger := config.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[session] ", log.LstdFlags)
	}

	return &Orchestrator{
		store:  store,
		syncer: tracker.New(logger),
		config: config,
		logger: logger,
	}
}

func applyConfigDefaults(config *Config) {
	def := DefaultConfig()
	if config.NowPath == "" {
		config.NowPath = def.NowPath
	}
	if config.DefaultContextPath == "" {
		config.DefaultContextPath = def.DefaultContextPath
	}
	if len(config.BootstrapPaths) == 0 {
		config.BootstrapPaths = def.BootstrapPaths
	}
	if config.SessionLogDir == "" {
		config.SessionLogDir = def.SessionLogDir
	}
	if config.DailyDir == "" {
		config.DailyDir = def.DailyDir
	}
	if config.ProjectsDir == "" {
		config.ProjectsDir = def.ProjectsDir
	}
	if config.MaxPriorities <= 0 {
		config.MaxPriorities = def.MaxPriorities
	}
	if config.MaxBlockers <= 0 {
		config.MaxBlockers = def.MaxBlockers
	}
	if config.MaxNextActions <= 0 {
		config.MaxNextActions = def.MaxNextActions
	}
	if config.MaxLogEntries <= 0 {
		config.MaxLogEntries = def.MaxLogEntries
	}
}

// resolveContextPath resolves the active project context: explicit
// override first, then the now pointer's front matter, then the
// configured fallback. A pointer naming an unsafe path is treated as
// absent rather than failing the whole operation.
func (o *Orchestrator) resolveContextPath(override string) (string, error) {
	if strings.TrimSpace(override) != "" {
		return vault.NormalizeNotePath(override)
	}

	if doc, err := o.store.ReadNote(o.config.NowPath); err == nil {
		pointer := strings.TrimSpace(frontmatter.Text(doc.Meta[KeyActiveContext]))
		if pointer != "" {
			if clean, err := vault.NormalizeNotePath(pointer); err == nil {
				return clean, nil
			}
			o.logger.Printf("Warning: ignoring unsafe context pointer %q in %s", pointer, o.config.NowPath)
		}
	}

	return vault.NormalizeNotePath(o.config.DefaultContextPath)
}

// trackerPathFor resolves a context's tracker document: the explicit
// argument wins, else the context's front matter. Empty means no
// tracker is configured.
func (o *Orchestrator) trackerPathFor(explicit string, contextMeta map[string]any) (string, error) {
	raw := strings.TrimSpace(explicit)
	if raw == "" {
		raw = strings.TrimSpace(frontmatter.Text(contextMeta[KeyTrackerPath]))
	}
	if raw == "" {
		return "", nil
	}
	return vault.NormalizeNotePath(raw)
}

// Summary is the bounded snapshot extracted from a project context.
type Summary struct {
	Priorities  []string `json:"priorities"`
	Blockers    []string `json:"blockers"`
	NextActions []string `json:"next_actions"`
}

// extractSummary pulls the first bounded bullets out of the context's
// known sections.
func (o *Orchestrator) extractSummary(body string) Summary {
	return Summary{
		Priorities:  sectionBullets(body, SectionPriorities, o.config.MaxPriorities),
		Blockers:    sectionBullets(body, SectionBlockers, o.config.MaxBlockers),
		NextActions: sectionBullets(body, nextActionHeading(body), o.config.MaxNextActions),
	}
}

// nextActionHeading picks the next-actions spelling the body already
// uses, defaulting to the canonical one.
func nextActionHeading(body string) string {
	for _, heading := range nextActionHeadings {
		if _, ok := mdnote.Section(body, heading); ok {
			return heading
		}
	}
	return SectionNextActions
}

// sectionBullets returns the first max bullet texts of a section.
// Checkbox markers are stripped so summaries read as plain items.
func sectionBullets(body, heading string, max int) []string {
	content, ok := mdnote.Section(body, heading)
	if !ok {
		return nil
	}

	var out []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "- ") {
			continue
		}
		text := strings.TrimSpace(strings.TrimPrefix(trimmed, "- "))
		text = strings.TrimSpace(strings.TrimPrefix(text, "[ ]"))
		text = strings.TrimSpace(strings.TrimPrefix(text, "[x]"))
		if text == "" {
			continue
		}
		out = append(out, text)
		if len(out) >= max {
			break
		}
	}
	return out
}

// projectSlug derives the per-project log folder name from the context
// path stem: lowercased, spaces to dashes, everything else stripped.
func projectSlug(contextPath string) string {
	base := path.Base(contextPath)
	stem := strings.TrimSuffix(base, path.Ext(base))
	stem = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(stem)), " ", "-")

	var b strings.Builder
	for _, r := range stem {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "project"
	}
	return b.String()
}

// sessionLogPath is the per-project, per-day log note path.
func (o *Orchestrator) sessionLogPath(contextPath, date string) string {
	return path.Join(o.config.SessionLogDir, projectSlug(contextPath), date+".md")
}

// sessionDate picks the log date: an explicit ISO date wins, else the
// reference time's date.
func sessionDate(explicit string, now time.Time) string {
	if trimmed := strings.TrimSpace(explicit); trimmed != "" {
		return trimmed
	}
	return now.Format("2006-01-02")
}

// orDefaultNow substitutes the wall clock for a zero reference time.
func orDefaultNow(now time.Time) time.Time {
	if now.IsZero() {
		return time.Now()
	}
	return now
}
