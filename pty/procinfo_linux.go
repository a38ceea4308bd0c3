// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: pty/procinfo_linux.go
// Summary: Foreground process and working directory lookup through /proc.

package pty

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"
)

// foregroundName resolves the program name of the terminal's foreground
// process group leader.
func foregroundName(ptmx *os.File, fallback string) string {
	raw, err := ptmx.SyscallConn()
	if err != nil {
		return fallback
	}
	pgrp := -1
	ctlErr := raw.Control(func(fd uintptr) {
		pgrp, err = unix.IoctlGetInt(int(fd), unix.TIOCGPGRP)
	})
	if ctlErr != nil || err != nil || pgrp <= 0 {
		return fallback
	}
	data, err := os.ReadFile("/proc/" + strconv.Itoa(pgrp) + "/cmdline")
	if err != nil || len(data) == 0 {
		return fallback
	}
	argv0, _, _ := bytes.Cut(data, []byte{0})
	if len(argv0) == 0 {
		return fallback
	}
	return filepath.Base(string(argv0))
}

func processCwd(pid int, fallback string) string {
	dir, err := os.Readlink("/proc/" + strconv.Itoa(pid) + "/cwd")
	if err != nil {
		return fallback
	}
	return dir
}
