// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: terminal/options.go
// Summary: Start options for a terminal bridge.

package terminal

import (
	"time"

	"go.uber.org/zap"

	"github.com/framegrace/ptterm/grid"
	"github.com/framegrace/ptterm/metrics"
	"github.com/framegrace/ptterm/pty"
)

const (
	defaultEventBuffer = 64
	inputQueueSize     = 64
	readBufferSize     = 32 * 1024
	maxPendingReplies  = 64 * 1024

	defaultExitDrain = 2 * time.Second
	drainIdle        = 100 * time.Millisecond
	closeWait        = 5 * time.Second
)

// Opener starts the child session. pty.Open is used when nil.
type Opener func(cmd pty.Command, rows, cols int) (pty.Session, error)

// Options configures Start.
type Options struct {
	Command pty.Command
	Rows    int
	Cols    int
	// Scrollback follows grid.New: zero disables it, negative selects
	// grid.DefaultScrollback.
	Scrollback int

	Opener Opener
	// OnExit runs once after the child exited and the session was released.
	OnExit func(pty.ExitStatus)

	Logger  *zap.Logger
	Metrics *metrics.Collector

	// DefaultFG and DefaultBG answer OSC 10/11 queries. Only RGB colors
	// are honoured.
	DefaultFG grid.Color
	DefaultBG grid.Color

	// EventBuffer sizes the Events channel. Events are dropped rather than
	// stalling output when it is full.
	EventBuffer int

	// ExitDrain bounds how long output is still read after the child
	// exited while something else keeps the terminal open.
	ExitDrain time.Duration
}

func (o *Options) applyDefaults() {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Opener == nil {
		log := o.Logger
		o.Opener = func(cmd pty.Command, rows, cols int) (pty.Session, error) {
			return pty.Open(cmd, rows, cols, pty.WithLogger(log))
		}
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = defaultEventBuffer
	}
	if o.ExitDrain <= 0 {
		o.ExitDrain = defaultExitDrain
	}
}
