// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/config.go
// Summary: Host configuration loaded from JSON with environment overrides.
// Usage: cfg, err := config.Load("", logger) reads the default path.
// Notes: A missing file is created with defaults on first load.

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"

	"github.com/framegrace/ptterm/grid"
	"github.com/framegrace/ptterm/pty"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PTTERM"

// Config is the host configuration. Environment names are derived from
// the field names (PTTERM_LOG_LEVEL, PTTERM_PALETTE_BACKGROUND) so only
// prefixed variables apply; a plain TERM or SHELL never overrides the file.
type Config struct {
	Shell      string   `json:"shell" split_words:"true"`
	Args       []string `json:"args,omitempty" ignored:"true"`
	Term       string   `json:"term" split_words:"true"`
	Scrollback int      `json:"scrollback" split_words:"true"`
	Rows       int      `json:"rows" split_words:"true"`
	Cols       int      `json:"cols" split_words:"true"`

	Palette Palette `json:"palette" split_words:"true"`
	Log     Log     `json:"log" split_words:"true"`

	// MetricsAddr enables the Prometheus endpoint when non-empty.
	MetricsAddr string `json:"metrics_addr" split_words:"true"`
}

// Palette holds #rrggbb default colors.
type Palette struct {
	Foreground string `json:"foreground" split_words:"true"`
	Background string `json:"background" split_words:"true"`
}

type Log struct {
	Level       string `json:"level" split_words:"true"`
	Development bool   `json:"development" split_words:"true"`
	// File receives log output; empty means stderr.
	File string `json:"file" split_words:"true"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Shell:      pty.ShellCommand().Path,
		Term:       pty.DefaultTerm,
		Scrollback: grid.DefaultScrollback,
		Rows:       24,
		Cols:       80,
		Palette: Palette{
			Foreground: "#e5e5e5",
			Background: "#000000",
		},
		Log: Log{Level: "info"},
	}
}

// Load reads path (DefaultPath when empty), fills missing keys from
// Default and applies environment overrides. A missing file is written
// with the defaults.
func Load(path string, log *zap.Logger) (Config, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return Config{}, fmt.Errorf("config: resolve path: %w", err)
		}
		path = p
	}

	cfg := Default()
	exists, err := readConfig(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if !exists {
		if err := writeConfig(path, cfg); err != nil {
			log.Warn("config: failed to write defaults", zap.String("path", path), zap.Error(err))
		}
	} else {
		log.Debug("config: loaded", zap.String("path", path))
	}

	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.normalize()
	return cfg, nil
}

// ApplyEnv overlays PTTERM_* environment variables.
func ApplyEnv(cfg *Config) error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}
	return nil
}

// Save writes cfg to path.
func Save(path string, cfg Config) error {
	return writeConfig(path, cfg)
}

func (c *Config) normalize() {
	def := Default()
	if c.Shell == "" {
		c.Shell = def.Shell
	}
	if c.Term == "" {
		c.Term = def.Term
	}
	if c.Rows <= 0 {
		c.Rows = def.Rows
	}
	if c.Cols <= 0 {
		c.Cols = def.Cols
	}
}

// Command is the shell command described by the config.
func (c Config) Command() pty.Command {
	return pty.Command{Path: c.Shell, Args: c.Args, Term: c.Term}
}

// Colors parses the palette defaults. Empty entries yield grid.DefaultColor.
func (c Config) Colors() (fg, bg grid.Color, err error) {
	if fg, err = parseHex(c.Palette.Foreground); err != nil {
		return fg, bg, fmt.Errorf("config: palette foreground: %w", err)
	}
	if bg, err = parseHex(c.Palette.Background); err != nil {
		return fg, bg, fmt.Errorf("config: palette background: %w", err)
	}
	return fg, bg, nil
}

func parseHex(s string) (grid.Color, error) {
	if s == "" {
		return grid.DefaultColor, nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || len(hex) != 6 {
		return grid.DefaultColor, fmt.Errorf("want #rrggbb, got %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return grid.DefaultColor, err
	}
	return grid.RGBColor(uint8(v>>16), uint8(v>>8), uint8(v)), nil
}

// readConfig decodes path over cfg. exists is false when the file is absent.
func readConfig(path string, cfg *Config) (exists bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return true, nil
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return true, err
	}
	return true, nil
}

func writeConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
