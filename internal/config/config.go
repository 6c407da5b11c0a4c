package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvDataset  = "TERMCAPS_DATASET"
	EnvSnapshot = "TERMCAPS_SNAPSHOT"
	EnvTerminal = "TERMCAPS_TERMINAL"
	EnvLogLevel = "TERMCAPS_LOG_LEVEL"
)

// Config holds application configuration.
type Config struct {
	// Dataset is the path of a YAML capability dataset.
	// Empty means the built-in dataset.
	Dataset string `json:"dataset,omitempty" toml:"dataset"`

	// Snapshot is the path of a SQLite snapshot store written by "compile".
	// When set and Dataset is empty, the newest build in the store is used.
	Snapshot string `json:"snapshot,omitempty" toml:"snapshot"`

	// Terminal overrides the identifier taken from $TERM.
	Terminal string `json:"terminal,omitempty" toml:"terminal"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty" toml:"log_level"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty" toml:"db_max_open_conns"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty" toml:"db_max_idle_conns"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty" toml:"disabled_tools"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "warn",
	}
}

// Load loads configuration from an explicitly given file. There is no
// search path: an empty path yields the defaults, and a named file that
// does not exist is an error.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	cfg, err := loadFileRaw(path)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// loadFileRaw loads configuration from a specific file path without
// applying defaults. Files ending in .toml are TOML, anything else JSON.
func loadFileRaw(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &Config{}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("failed to parse config %s: unknown field %q", path, undecoded[0].String())
		}
		return cfg, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv returns a copy of cfg with environment overrides applied.
// getenv is os.Getenv outside of tests.
func ApplyEnv(cfg *Config, getenv func(string) string) *Config {
	overlay := &Config{
		Dataset:  strings.TrimSpace(getenv(EnvDataset)),
		Snapshot: strings.TrimSpace(getenv(EnvSnapshot)),
		Terminal: strings.TrimSpace(getenv(EnvTerminal)),
		LogLevel: strings.TrimSpace(getenv(EnvLogLevel)),
	}
	return Merge(cfg, overlay)
}

// TerminalIdentifier returns the identifier to resolve: the configured
// Terminal, else $TERM. It may be empty.
func (c *Config) TerminalIdentifier(getenv func(string) string) string {
	if c.Terminal != "" {
		return c.Terminal
	}
	return strings.TrimSpace(getenv("TERM"))
}

// SlogLevel maps LogLevel to a slog.Level. Unknown values mean warn.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	}
	return slog.LevelWarn
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.Dataset = pick(overlay.Dataset, base.Dataset)
	result.Snapshot = pick(overlay.Snapshot, base.Snapshot)
	result.Terminal = pick(overlay.Terminal, base.Terminal)
	result.LogLevel = pick(overlay.LogLevel, base.LogLevel)

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	// Arrays: merge and deduplicate
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

func pick(overlay, base string) string {
	if overlay != "" {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string(nil), a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
