// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: pty/session.go
// Summary: Session contract shared by the local and remote PTY backends.
// Usage: s, err := pty.Open(pty.Command{Path: "/bin/sh"}, 24, 80)
// Notes: The backend is chosen at build time; SSH sessions are opened explicitly.

package pty

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// DefaultTerm is exported to children when Command.Term is empty.
const DefaultTerm = "xterm-256color"

// Session is a child program attached to a pseudo-terminal.
type Session interface {
	// Read returns child output. io.EOF is only returned at end of stream.
	Read(p []byte) (int, error)
	// Write sends input to the child. It fails with ErrChannelClosed once
	// the child exited or the session was closed.
	Write(p []byte) (int, error)
	Resize(rows, cols int) error
	// Wait blocks until the child exits.
	Wait() ExitStatus
	// ExitStatus reports the exit status if the child already exited.
	ExitStatus() (ExitStatus, bool)
	// Close terminates the child and interrupts blocked reads and writes.
	Close() error
	Pid() int
	// Name is the foreground process name, best effort.
	Name() string
	// Cwd is the child working directory, best effort.
	Cwd() string
}

// Command describes the program started inside the session.
type Command struct {
	Path string
	Args []string
	// Env entries are appended to the parent environment and win over it.
	Env  []string
	Dir  string
	Term string
}

// ShellCommand returns a command for the user's login shell.
func ShellCommand() Command {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	return Command{Path: shell}
}

func (c Command) term() string {
	if c.Term == "" {
		return DefaultTerm
	}
	return c.Term
}

// environ builds the child environment.
func (c Command) environ() []string {
	env := os.Environ()
	env = append(env, "TERM="+c.term())
	return append(env, c.Env...)
}

func (c Command) baseName() string {
	return filepath.Base(c.Path)
}

func (c Command) String() string {
	return fmt.Sprintf("%s %v", c.Path, c.Args)
}

// ExitStatus is how the child terminated. Code is -1 when the child was
// killed by a signal.
type ExitStatus struct {
	Code   int
	Signal string
}

// Success reports a clean zero exit.
func (s ExitStatus) Success() bool {
	return s.Code == 0 && s.Signal == ""
}

func (s ExitStatus) String() string {
	if s.Signal != "" {
		return "signal: " + s.Signal
	}
	return fmt.Sprintf("exit status %d", s.Code)
}

// Option configures a session backend.
type Option func(*options)

type options struct {
	log *zap.Logger
}

// WithLogger routes backend diagnostics to l.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ValidateSize rejects sizes a pseudo-terminal cannot represent.
func ValidateSize(rows, cols int) error {
	if rows <= 0 || cols <= 0 || rows > math.MaxUint16 || cols > math.MaxUint16 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, rows, cols)
	}
	return nil
}
