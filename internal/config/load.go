package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/natefinch/atomic"
	"github.com/spf13/viper"
)

// envPrefix is the prefix of all recognized environment variables, so
// the config key "log_dir" is overridden by CORTEX_LOG_DIR.
const envPrefix = "CORTEX"

// Load resolves the effective configuration for a vault.
//
// The vault root is taken from the argument, then CORTEX_VAULT, then
// the working directory, and is made absolute. On top of the defaults,
// .cortex/config.toml inside the vault is applied if present (a missing
// file is not an error), then CORTEX_* environment variables.
func Load(vaultRoot string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	root := strings.TrimSpace(vaultRoot)
	if root == "" {
		root = strings.TrimSpace(v.GetString("vault"))
	}
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve vault root: %w", err)
		}
		root = cwd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve vault root %s: %w", root, err)
	}

	cfg := DefaultConfig()
	cfg.VaultRoot = abs

	path := FilePath(abs)
	if _, err := toml.DecodeFile(path, cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	if err := applyEnv(v, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays CORTEX_* variables onto cfg. Unset and empty
// variables leave the current value alone.
func applyEnv(v *viper.Viper, cfg *Config) error {
	envString(v, "now_path", &cfg.NowPath)
	envString(v, "default_context_path", &cfg.DefaultContextPath)
	envStrings(v, "bootstrap_paths", &cfg.BootstrapPaths)
	envString(v, "session_log_dir", &cfg.SessionLogDir)
	envString(v, "daily_dir", &cfg.DailyDir)
	envString(v, "projects_dir", &cfg.ProjectsDir)
	envString(v, "log_dir", &cfg.LogDir)

	ints := []struct {
		key string
		dst *int
	}{
		{"max_priorities", &cfg.MaxPriorities},
		{"max_blockers", &cfg.MaxBlockers},
		{"max_next_actions", &cfg.MaxNextActions},
		{"max_log_entries", &cfg.MaxLogEntries},
		{"log_max_size_mb", &cfg.LogMaxSizeMB},
		{"log_max_backups", &cfg.LogMaxBackups},
		{"log_max_age_days", &cfg.LogMaxAgeDays},
	}
	for _, e := range ints {
		if err := envInt(v, e.key, e.dst); err != nil {
			return err
		}
	}

	durations := []struct {
		key string
		dst *Duration
	}{
		{"stale_context_after", &cfg.StaleContextAfter},
		{"stale_tracker_after", &cfg.StaleTrackerAfter},
		{"stale_validation_after", &cfg.StaleValidationAfter},
		{"debounce_interval", &cfg.DebounceInterval},
	}
	for _, e := range durations {
		if err := envDuration(v, e.key, e.dst); err != nil {
			return err
		}
	}
	return nil
}

func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(key)
}

func envString(v *viper.Viper, key string, dst *string) {
	if s := strings.TrimSpace(v.GetString(key)); s != "" {
		*dst = s
	}
}

// envStrings reads a comma-separated list.
func envStrings(v *viper.Viper, key string, dst *[]string) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) > 0 {
		*dst = out
	}
}

func envInt(v *viper.Viper, key string, dst *int) error {
	s := strings.TrimSpace(v.GetString(key))
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", envName(key), s, err)
	}
	*dst = n
	return nil
}

func envDuration(v *viper.Viper, key string, dst *Duration) error {
	s := strings.TrimSpace(v.GetString(key))
	if s == "" {
		return nil
	}
	d, err := ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", envName(key), s, err)
	}
	*dst = d
	return nil
}

// Save writes the configuration as TOML at path, creating parent
// directories as needed. cortex init uses it to seed
// .cortex/config.toml.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory for %s: %w", path, err)
	}

	var buf bytes.Buffer
	buf.WriteString("# Cortex configuration. Values set here override the built-in\n")
	buf.WriteString("# defaults; CORTEX_* environment variables override both.\n\n")
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}
