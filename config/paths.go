// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/paths.go
// Summary: Path helpers for ptterm configuration.

package config

import (
	"os"
	"path/filepath"
)

const fileName = "ptterm.json"

func configRoot() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "ptterm"), nil
}

// DefaultPath is <UserConfigDir>/ptterm/ptterm.json.
func DefaultPath() (string, error) {
	root, err := configRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, fileName), nil
}
