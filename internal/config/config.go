// Package config handles TOML configuration loading with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/sec-view/DataLens/internal/motor"
)

// Config is the top-level configuration for the engine and its CLI front
// door.
type Config struct {
	Engine EngineConfig `toml:"engine"`
	Log    LogConfig    `toml:"log"`
}

// EngineConfig carries the wire-visible limits and defaults (spec.md §6).
type EngineConfig struct {
	DefaultPageSize    int   `toml:"default_page_size"`
	MaxPageSize        int   `toml:"max_page_size"`
	PreviewCharBudget  int   `toml:"preview_char_budget"`
	RawCharBudget      int   `toml:"raw_char_budget"`
	RecordRawCeiling   int64 `toml:"record_raw_ceiling_bytes"`
	DefaultMaxHits     int   `toml:"default_max_hits"`
	MaxConcurrentTasks int   `toml:"max_concurrent_tasks"`
	FolderScanMaxDepth int   `toml:"folder_scan_max_depth"`
	FolderScanMaxNodes int   `toml:"folder_scan_max_nodes"`
	JSONTreeMaxItems   int   `toml:"json_tree_max_items"`
	JSONTreeMaxScanMiB int64 `toml:"json_tree_max_scan_mib"`
	ProgressMaxHz      int   `toml:"progress_max_hz"`
}

// LogConfig is the [log] table. Level is loaded but not applied: the CLI
// sets its log level from the --verbose flag only.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns a Config seeded from motor.DefaultLimits().
func Default() *Config {
	l := motor.DefaultLimits()
	return &Config{
		Engine: EngineConfig{
			DefaultPageSize:    l.DefaultPageSize,
			MaxPageSize:        l.MaxPageSize,
			PreviewCharBudget:  l.PreviewCharBudget,
			RawCharBudget:      l.RawCharBudget,
			RecordRawCeiling:   l.RecordRawCeiling,
			DefaultMaxHits:     l.DefaultMaxHits,
			MaxConcurrentTasks: l.MaxConcurrentTasks,
			FolderScanMaxDepth: l.FolderScanMaxDepth,
			FolderScanMaxNodes: l.FolderScanMaxNodes,
			JSONTreeMaxItems:   l.JSONTreeMaxItems,
			JSONTreeMaxScanMiB: l.JSONTreeMaxScanByte / (1024 * 1024),
			ProgressMaxHz:      l.ProgressMaxHz,
		},
		Log: LogConfig{Level: "info"},
	}
}

// DefaultPath returns the default config file path:
// ${HOME}/.datasets-helper/config.toml (spec.md §6).
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	return filepath.Join(home, ".datasets-helper", "config.toml")
}

// Load reads configuration from path, falling back to Default() for any
// unset fields. A missing file is not an error: it yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// Limits converts the loaded configuration into motor.Limits.
func (c *Config) Limits() motor.Limits {
	e := c.Engine
	return motor.Limits{
		DefaultPageSize:     e.DefaultPageSize,
		MaxPageSize:         e.MaxPageSize,
		PreviewCharBudget:   e.PreviewCharBudget,
		RawCharBudget:       e.RawCharBudget,
		RecordRawCeiling:    e.RecordRawCeiling,
		DefaultMaxHits:      e.DefaultMaxHits,
		MaxConcurrentTasks:  e.MaxConcurrentTasks,
		FolderScanMaxDepth:  e.FolderScanMaxDepth,
		FolderScanMaxNodes:  e.FolderScanMaxNodes,
		JSONTreeMaxItems:    e.JSONTreeMaxItems,
		JSONTreeMaxScanByte: e.JSONTreeMaxScanMiB * 1024 * 1024,
		ProgressMaxHz:       e.ProgressMaxHz,
	}
}
