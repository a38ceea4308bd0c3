// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: terminal/fake_test.go
// Summary: In-memory session standing in for a child program.

package terminal

import (
	"bytes"
	"io"
	"sync"

	"github.com/framegrace/ptterm/pty"
)

type fakeSession struct {
	outR *io.PipeReader
	outW *io.PipeWriter

	mu     sync.Mutex
	input  bytes.Buffer
	sizes  [][2]int
	closed bool
	status pty.ExitStatus

	// stall, when set, holds every Write until the child goes away.
	stall chan struct{}

	exited   chan struct{}
	exitOnce sync.Once
}

func newFakeSession() *fakeSession {
	r, w := io.Pipe()
	return &fakeSession{outR: r, outW: w, exited: make(chan struct{})}
}

// print delivers child output; it returns once the bridge read it.
func (f *fakeSession) print(s string) {
	_, _ = f.outW.Write([]byte(s))
}

// exit ends the child with code after closing its output.
func (f *fakeSession) exit(code int) {
	f.finish(pty.ExitStatus{Code: code})
	f.outW.Close()
}

// detach ends the child but leaves its output open, like a background
// process still holding the terminal.
func (f *fakeSession) detach(code int) {
	f.finish(pty.ExitStatus{Code: code})
}

func (f *fakeSession) finish(st pty.ExitStatus) {
	f.exitOnce.Do(func() {
		f.mu.Lock()
		f.status = st
		f.mu.Unlock()
		close(f.exited)
	})
}

func (f *fakeSession) received() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.input.String()
}

func (f *fakeSession) resizes() [][2]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][2]int(nil), f.sizes...)
}

func (f *fakeSession) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeSession) Read(p []byte) (int, error) { return f.outR.Read(p) }

func (f *fakeSession) Write(p []byte) (int, error) {
	if f.stall != nil {
		select {
		case <-f.stall:
		case <-f.exited:
		}
	}
	select {
	case <-f.exited:
		return 0, pty.ErrChannelClosed
	default:
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, pty.ErrChannelClosed
	}
	return f.input.Write(p)
}

func (f *fakeSession) Resize(rows, cols int) error {
	if err := pty.ValidateSize(rows, cols); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sizes = append(f.sizes, [2]int{rows, cols})
	return nil
}

func (f *fakeSession) Wait() pty.ExitStatus {
	<-f.exited
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeSession) ExitStatus() (pty.ExitStatus, bool) {
	select {
	case <-f.exited:
		return f.Wait(), true
	default:
		return pty.ExitStatus{}, false
	}
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.finish(pty.ExitStatus{Code: -1, Signal: "hangup"})
	f.outW.Close()
	return nil
}

func (f *fakeSession) Pid() int     { return 4242 }
func (f *fakeSession) Name() string { return "fake" }
func (f *fakeSession) Cwd() string  { return "/tmp" }
