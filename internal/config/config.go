// Package config loads and persists the application configuration from
// ~/.config/noxcmd/config.yaml. A missing file is not an error: the
// defaults apply and the file is only written when the user saves.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"noxcmd/internal/vfs"
)

// Config is the on-disk configuration.
type Config struct {
	Panels struct {
		Left  string `yaml:"left"`  // Start directory of the left pane
		Right string `yaml:"right"` // Start directory of the right pane
	} `yaml:"panels"`
	Display struct {
		ShowHidden bool   `yaml:"show_hidden"` // List dotfiles
		Sort       string `yaml:"sort"`        // name, size, or time
	} `yaml:"display"`
	Confirm struct {
		Delete    bool   `yaml:"delete"`    // Ask before delete
		Quit      bool   `yaml:"quit"`      // Ask before quitting
		Collision string `yaml:"collision"` // Default conflict policy: overwrite, skip, or ask
	} `yaml:"confirm"`
	Theme struct {
		Accent    string `yaml:"accent"`    // Active pane border and highlights
		Selection string `yaml:"selection"` // Marked entries
		Error     string `yaml:"error"`     // Error messages
		Directory string `yaml:"directory"` // Directory entries
		Archive   string `yaml:"archive"`   // Archive entries
	} `yaml:"theme"`
	Log struct {
		File  string `yaml:"file"`  // Empty disables logging
		Level string `yaml:"level"` // debug, info, warn, error
	} `yaml:"log"`
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "noxcmd", "config.yaml"), nil
}

// Load reads the config from the default location.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the config from path. A missing file yields the
// defaults; a malformed or invalid file is an error.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.Panels.Left = "."
	cfg.Panels.Right = "."
	cfg.Display.Sort = "name"
	cfg.Confirm.Delete = true
	cfg.Confirm.Quit = false
	cfg.Confirm.Collision = "ask"
	cfg.Theme.Accent = "39"
	cfg.Theme.Selection = "220"
	cfg.Theme.Error = "196"
	cfg.Theme.Directory = "75"
	cfg.Theme.Archive = "213"
	cfg.Log.Level = "info"
	return cfg
}

// Save writes the config to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate rejects values the rest of the program cannot interpret.
func (c *Config) Validate() error {
	switch c.Display.Sort {
	case "name", "size", "time":
	default:
		return fmt.Errorf("invalid sort mode: %q", c.Display.Sort)
	}
	switch c.Confirm.Collision {
	case "overwrite", "skip", "ask":
	default:
		return fmt.Errorf("invalid collision setting: %q", c.Confirm.Collision)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Log.Level)
	}
	return nil
}

// SortMode maps the configured sort name onto the listing order.
func (c *Config) SortMode() vfs.SortMode {
	switch c.Display.Sort {
	case "size":
		return vfs.SortSize
	case "time":
		return vfs.SortTime
	default:
		return vfs.SortName
	}
}

// StartDir resolves a configured pane start directory, falling back to
// the working directory and then the root when it does not exist.
func StartDir(configured string) string {
	if configured != "" && configured != "." {
		if abs, err := filepath.Abs(configured); err == nil {
			if info, err := os.Stat(abs); err == nil && info.IsDir() {
				return abs
			}
		}
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return string(filepath.Separator)
}
