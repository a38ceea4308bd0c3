// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: pty/procinfo_other.go
// Summary: Process info fallbacks for POSIX systems without /proc.

//go:build !linux && !windows

package pty

import "os"

func foregroundName(_ *os.File, fallback string) string {
	return fallback
}

func processCwd(_ int, fallback string) string {
	return fallback
}
