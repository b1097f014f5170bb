// Package config holds the Cortex runtime configuration: the vault
// layout the orchestrator navigates, summary and log bounds, staleness
// thresholds, and server logging knobs.
//
// Values are resolved in three layers, later layers winning:
// compiled-in defaults, the vault-level TOML file at
// .cortex/config.toml, and CORTEX_* environment variables.
package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Duration wraps time.Duration so TOML and environment values can be
// written as human strings ("36h", "90m") plus a "d" day suffix
// ("7d") that plain time.ParseDuration does not accept.
type Duration struct {
	time.Duration
}

// Days builds a Duration from a whole number of days.
func Days(n int) Duration {
	return Duration{time.Duration(n) * 24 * time.Hour}
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed.Duration
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML encoding.
// Whole multiples of a day render with the "d" suffix to keep the file
// readable.
func (d Duration) MarshalText() ([]byte, error) {
	const day = 24 * time.Hour
	if d.Duration != 0 && d.Duration%day == 0 {
		return []byte(fmt.Sprintf("%dd", d.Duration/day)), nil
	}
	return []byte(d.Duration.String()), nil
}

// ParseDuration parses a config duration: anything time.ParseDuration
// accepts, or an integer with a "d" suffix meaning days.
func ParseDuration(s string) (Duration, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Duration{}, fmt.Errorf("empty duration")
	}
	if days, ok := strings.CutSuffix(trimmed, "d"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(days)); err == nil {
			return Days(n), nil
		}
	}
	parsed, err := time.ParseDuration(trimmed)
	if err != nil {
		return Duration{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return Duration{parsed}, nil
}

// Config is the full Cortex configuration. The zero value is not
// usable; start from DefaultConfig or Load.
type Config struct {
	// VaultRoot is the absolute path of the vault on disk. It is never
	// stored in the config file, which lives inside the vault; it comes
	// from the CLI, the CORTEX_VAULT environment variable, or the
	// working directory.
	VaultRoot string `toml:"-"`

	// Orchestrator vault layout.
	NowPath            string   `toml:"now_path"`
	DefaultContextPath string   `toml:"default_context_path"`
	BootstrapPaths     []string `toml:"bootstrap_paths"`
	SessionLogDir      string   `toml:"session_log_dir"`
	DailyDir           string   `toml:"daily_dir"`
	ProjectsDir        string   `toml:"projects_dir"`

	// Summary bounds for session start and resume.
	MaxPriorities  int `toml:"max_priorities"`
	MaxBlockers    int `toml:"max_blockers"`
	MaxNextActions int `toml:"max_next_actions"`

	// MaxLogEntries bounds the tracker sync log section.
	MaxLogEntries int `toml:"max_log_entries"`

	// Staleness thresholds for stale_scan and doctor.
	StaleContextAfter    Duration `toml:"stale_context_after"`
	StaleTrackerAfter    Duration `toml:"stale_tracker_after"`
	StaleValidationAfter Duration `toml:"stale_validation_after"`

	// Server log rotation. LogDir is vault-relative unless absolute.
	LogDir        string `toml:"log_dir"`
	LogMaxSizeMB  int    `toml:"log_max_size_mb"`
	LogMaxBackups int    `toml:"log_max_backups"`
	LogMaxAgeDays int    `toml:"log_max_age_days"`

	// DebounceInterval is the watcher's coalescing window.
	DebounceInterval Duration `toml:"debounce_interval"`
}

// DefaultConfig returns the standard Cortex vault layout and bounds.
func DefaultConfig() *Config {
	return &Config{
		NowPath:            "Cortex/Now.md",
		DefaultContextPath: "Cortex/Context.md",
		BootstrapPaths:     []string{"Cortex/Identity.md", "Cortex/Workflow.md"},
		SessionLogDir:      "Cortex/Sessions",
		DailyDir:           "Daily",
		ProjectsDir:        "Projects",

		MaxPriorities:  5,
		MaxBlockers:    5,
		MaxNextActions: 3,

		MaxLogEntries: 20,

		StaleContextAfter:    Days(7),
		StaleTrackerAfter:    Days(3),
		StaleValidationAfter: Days(14),

		LogDir:        ".cortex/logs",
		LogMaxSizeMB:  10,
		LogMaxBackups: 3,
		LogMaxAgeDays: 30,

		DebounceInterval: Duration{250 * time.Millisecond},
	}
}

// StateDir is the vault-level directory Cortex keeps its own files in.
const StateDir = ".cortex"

// FilePath returns the config file location inside a vault.
func FilePath(vaultRoot string) string {
	return filepath.Join(vaultRoot, StateDir, "config.toml")
}

// LogFile returns the rotating server log location. A relative LogDir
// is anchored at the vault root.
func (c *Config) LogFile() string {
	dir := c.LogDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(c.VaultRoot, dir)
	}
	return filepath.Join(dir, "cortex.log")
}
