// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: terminal/reader.go
// Summary: Session read helpers for the output pump.

package terminal

import (
	"errors"
	"io"
	"time"

	"github.com/framegrace/ptterm/pty"
)

// plainReader exposes only Read so cancelreader never switches a session
// descriptor into blocking mode.
type plainReader struct {
	pty.Session
}

func (r plainReader) Read(p []byte) (int, error) { return r.Session.Read(p) }

// readDeadliner is implemented by sessions whose reads can time out.
type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe)
}
