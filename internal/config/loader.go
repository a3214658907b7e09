package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
)

const (
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/leadbook"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"

	EnvDataDir = "LEADBOOK_DATA_DIR"
	EnvBackend = "LEADBOOK_BACKEND"
	EnvWatch   = "LEADBOOK_WATCH"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger *slog.Logger
	home   func() (string, error)
	getenv func(string) string
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger, home: os.UserHomeDir, getenv: os.Getenv}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/leadbook/config.yaml)
// 3. Explicit config file (path, if non-empty)
// 4. Environment variables
func (l *Loader) Load(path string) (*Config, error) {
	config := DefaultConfig()

	if userConfigPath := l.userConfigPath(); userConfigPath != "" {
		if userConfig, err := LoadFromFile(userConfigPath); err == nil {
			l.logger.Debug("Loaded user config", slog.String("path", userConfigPath))
			config.Merge(userConfig)
		} else if !errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("Failed to load user config", slog.String("path", userConfigPath), slog.String("error", err.Error()))
		}
	}

	if path != "" {
		explicit, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("Loaded config", slog.String("path", path))
		config.Merge(explicit)
	}

	l.applyEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (l *Loader) applyEnv(c *Config) {
	if v := l.getenv(EnvDataDir); v != "" {
		c.Storage.DataDir = v
	}
	if v := l.getenv(EnvBackend); v != "" {
		c.Storage.Backend = v
	}
	if v := l.getenv(EnvWatch); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Storage.Watch = b
		} else {
			l.logger.Warn("Ignoring invalid env value", slog.String("name", EnvWatch), slog.String("value", v))
		}
	}
}

// userConfigPath returns the path to the user config file
func (l *Loader) userConfigPath() string {
	home, err := l.home()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}
