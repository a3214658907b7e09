// Package config provides configuration loading and management for leadbook.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Config represents the complete leadbook configuration
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

// StorageConfig selects where leads are persisted
type StorageConfig struct {
	// Backend is "file" (workbook in DataDir) or "memory" (in-process key-value store)
	Backend string `yaml:"backend"`
	// DataDir holds leads_database.xlsx and backups/ (default: ~/Documents/WorkPipeline)
	DataDir string `yaml:"data_dir"`
	// ExportDir receives dated export copies and templates (default: ~/Downloads)
	ExportDir string `yaml:"export_dir"`
	// Watch reloads the board when the database file is edited elsewhere
	Watch bool `yaml:"watch"`
	// WatchDebounce is how long to wait for external writes to settle
	WatchDebounce time.Duration `yaml:"watch_debounce"`
}

// LoggingConfig configures slog output
type LoggingConfig struct {
	// Level is debug, info, warn or error
	Level string `yaml:"level"`
	// Format is text or json
	Format string `yaml:"format"`
	// File is where the TUI writes logs (default: <data_dir>/leadbook.log)
	File string `yaml:"file"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Storage: StorageConfig{
			Backend:       BackendFile,
			DataDir:       filepath.Join(home, "Documents", "WorkPipeline"),
			ExportDir:     filepath.Join(home, "Downloads"),
			Watch:         true,
			WatchDebounce: 500 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile, BackendMemory:
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q", BackendFile, BackendMemory, c.Storage.Backend)
	}
	if c.Storage.Backend == BackendFile && c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir is required for the file backend")
	}
	if c.Storage.ExportDir == "" {
		return fmt.Errorf("storage.export_dir is required")
	}
	if c.Storage.WatchDebounce < 0 {
		return fmt.Errorf("storage.watch_debounce must not be negative")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// LogFile returns the configured log file, defaulting into the data folder.
func (c *Config) LogFile() string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	return filepath.Join(c.Storage.DataDir, "leadbook.log")
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values).
// Watch is a plain bool, so a file can only turn it on; use the
// LEADBOOK_WATCH environment variable to turn it off.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Storage.Backend != "" {
		c.Storage.Backend = other.Storage.Backend
	}
	if other.Storage.DataDir != "" {
		c.Storage.DataDir = other.Storage.DataDir
	}
	if other.Storage.ExportDir != "" {
		c.Storage.ExportDir = other.Storage.ExportDir
	}
	if other.Storage.Watch {
		c.Storage.Watch = true
	}
	if other.Storage.WatchDebounce != 0 {
		c.Storage.WatchDebounce = other.Storage.WatchDebounce
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.Format != "" {
		c.Logging.Format = other.Logging.Format
	}
	if other.Logging.File != "" {
		c.Logging.File = other.Logging.File
	}
}
