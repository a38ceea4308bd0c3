// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: pty/session_test.go
// Summary: Backend-independent session helpers.

package pty

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// readUntil reads s until want appears or the stream ends.
func readUntil(t *testing.T, s Session, want string) string {
	t.Helper()
	var out bytes.Buffer
	buf := make([]byte, 1024)
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		n, err := s.Read(buf)
		out.Write(buf[:n])
		if strings.Contains(out.String(), want) {
			return out.String()
		}
		if err != nil {
			break
		}
	}
	return out.String()
}

func TestCommandEnviron(t *testing.T) {
	t.Setenv("PTTERM_TEST_VAR", "parent")

	env := Command{Path: "/bin/sh"}.environ()
	assert.Contains(t, env, "TERM="+DefaultTerm)
	assert.Contains(t, env, "PTTERM_TEST_VAR=parent")

	env = Command{Path: "/bin/sh", Term: "vt100", Env: []string{"PTTERM_TEST_VAR=child"}}.environ()
	assert.Contains(t, env, "TERM=vt100")
	// Overrides come after the inherited entry so they win.
	assert.Equal(t, "PTTERM_TEST_VAR=child", env[len(env)-1])
}

func TestExitStatus(t *testing.T) {
	assert.True(t, ExitStatus{}.Success())
	assert.False(t, ExitStatus{Code: 3}.Success())
	assert.False(t, ExitStatus{Code: -1, Signal: "killed"}.Success())
	assert.Equal(t, "exit status 3", ExitStatus{Code: 3}.String())
	assert.Equal(t, "signal: hangup", ExitStatus{Code: -1, Signal: "hangup"}.String())
}

func TestValidateSize(t *testing.T) {
	tests := []struct {
		rows, cols int
		ok         bool
	}{
		{24, 80, true},
		{1, 1, true},
		{0, 80, false},
		{24, 0, false},
		{-1, 80, false},
		{70000, 80, false},
	}
	for _, tt := range tests {
		err := ValidateSize(tt.rows, tt.cols)
		if tt.ok {
			assert.NoError(t, err, "%dx%d", tt.rows, tt.cols)
		} else {
			assert.True(t, errors.Is(err, ErrInvalidDimensions), "%dx%d", tt.rows, tt.cols)
		}
	}
}

func TestRemoteCommandLine(t *testing.T) {
	assert.Equal(t, "", remoteCommandLine(Command{}))
	assert.Equal(t, "top -d 1", remoteCommandLine(Command{Path: "top", Args: []string{"-d", "1"}}))
	assert.Equal(t, `echo 'a b' 'it'\''s'`,
		remoteCommandLine(Command{Path: "echo", Args: []string{"a b", "it's"}}))
	assert.Equal(t, "cd '/tmp/my dir' && exec ls", remoteCommandLine(Command{Path: "ls", Dir: "/tmp/my dir"}))
	assert.Equal(t, "''", shellQuote(""))
}

func TestWithLoggerIgnoresNil(t *testing.T) {
	o := applyOptions([]Option{WithLogger(nil)})
	assert.NotNil(t, o.log)
}
