// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: terminal/terminal_test.go
// Summary: Bridge lifecycle, pumps and host API over a fake session.

package terminal

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framegrace/ptterm/grid"
	"github.com/framegrace/ptterm/metrics"
	"github.com/framegrace/ptterm/pty"
)

const waitTimeout = 5 * time.Second

type fixture struct {
	term  *Terminal
	sess  *fakeSession
	exits atomic.Int32
	last  atomic.Value
}

func startFake(t *testing.T, mutate ...func(*Options)) *fixture {
	t.Helper()
	f := &fixture{sess: newFakeSession()}
	opts := Options{
		Command: pty.Command{Path: "fake"},
		Rows:    5,
		Cols:    20,
		Opener: func(pty.Command, int, int) (pty.Session, error) {
			return f.sess, nil
		},
		OnExit: func(st pty.ExitStatus) {
			f.exits.Add(1)
			f.last.Store(st)
		},
	}
	for _, m := range mutate {
		m(&opts)
	}
	term, err := Start(context.Background(), opts)
	require.NoError(t, err)
	f.term = term
	t.Cleanup(func() {
		term.Close()
		term.Wait()
	})
	return f
}

func (f *fixture) waitRow(t *testing.T, row int, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return f.term.Snapshot(0).Text(row) == want
	}, waitTimeout, 5*time.Millisecond, "row %d never became %q", row, want)
}

func (f *fixture) waitInput(t *testing.T, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return f.sess.received() == want
	}, waitTimeout, 5*time.Millisecond, "input never became %q", want)
}

func waitDone(t *testing.T, term *Terminal) {
	t.Helper()
	select {
	case <-term.Done():
	case <-time.After(waitTimeout):
		t.Fatal("terminal never finished")
	}
}

func TestStartRejectsInvalidSize(t *testing.T) {
	called := false
	_, err := Start(context.Background(), Options{
		Rows: 0, Cols: 80,
		Opener: func(pty.Command, int, int) (pty.Session, error) {
			called = true
			return newFakeSession(), nil
		},
	})
	assert.ErrorIs(t, err, pty.ErrInvalidDimensions)
	assert.False(t, called, "no session may be opened for a bad size")
}

func TestStartPropagatesOpenError(t *testing.T) {
	term, err := Start(context.Background(), Options{
		Rows: 24, Cols: 80,
		Opener: func(cmd pty.Command, _, _ int) (pty.Session, error) {
			return nil, errors.Join(pty.ErrSpawnFailed, errors.New(cmd.Path))
		},
	})
	assert.ErrorIs(t, err, pty.ErrSpawnFailed)
	assert.Nil(t, term)
}

func TestOutputReachesGrid(t *testing.T) {
	f := startFake(t)
	assert.Equal(t, StateRunning, f.term.State())
	_, err := uuid.Parse(f.term.ID())
	assert.NoError(t, err)

	f.sess.print("hello\r\nworld")
	f.waitRow(t, 0, "hello")
	f.waitRow(t, 1, "world")
	assert.Equal(t, "fake", f.term.ProcessName())
	assert.Equal(t, "/tmp", f.term.Cwd())
}

func TestWritesArriveInOrder(t *testing.T) {
	f := startFake(t)
	require.NoError(t, f.term.Write([]byte("ls")))
	require.NoError(t, f.term.WriteString(" -l\r"))
	require.NoError(t, f.term.Write(nil))
	f.waitInput(t, "ls -l\r")
}

func TestDeviceReportsGoToChild(t *testing.T) {
	f := startFake(t)
	f.sess.print("ab\x1b[6n")
	f.waitInput(t, "\x1b[1;3R")
}

func TestResize(t *testing.T) {
	f := startFake(t)
	f.sess.print("x")
	f.waitRow(t, 0, "x")

	require.NoError(t, f.term.Resize(10, 40))
	rows, cols := f.term.Size()
	assert.Equal(t, 10, rows)
	assert.Equal(t, 40, cols)
	assert.Equal(t, [][2]int{{10, 40}}, f.sess.resizes())

	snap := f.term.Snapshot(0)
	assert.Equal(t, 10, snap.Rows)
	assert.Equal(t, 40, snap.Cols)
	assert.Equal(t, "x", snap.Text(0))

	assert.ErrorIs(t, f.term.Resize(0, 40), pty.ErrInvalidDimensions)
	assert.Len(t, f.sess.resizes(), 1, "invalid sizes never reach the session")
}

func TestResizeBetweenSplitSequence(t *testing.T) {
	f := startFake(t)
	f.sess.print("\x1b[3")
	require.NoError(t, f.term.Resize(3, 10))
	f.sess.print("1mX")
	f.waitRow(t, 0, "X")

	snap := f.term.Snapshot(0)
	assert.Equal(t, 3, snap.Rows)
	assert.Equal(t, grid.StandardColor(1), snap.Cell(0, 0).FG)
}

func TestResizeAndWritesKeepOrder(t *testing.T) {
	f := startFake(t)
	require.NoError(t, f.term.WriteString("a"))
	require.NoError(t, f.term.Resize(6, 30))
	require.NoError(t, f.term.WriteString("b"))
	f.waitInput(t, "ab")
	assert.Equal(t, [][2]int{{6, 30}}, f.sess.resizes())
}

func TestChildExit(t *testing.T) {
	f := startFake(t)
	f.sess.print("bye")
	f.sess.exit(3)
	waitDone(t, f.term)

	st := f.term.Wait()
	assert.Equal(t, 3, st.Code)
	assert.Equal(t, StateDone, f.term.State())
	assert.Equal(t, int32(1), f.exits.Load())
	assert.Equal(t, st, f.last.Load())
	assert.Equal(t, "bye", f.term.Snapshot(0).Text(0), "screen survives the child")

	assert.ErrorIs(t, f.term.Write([]byte("x")), ErrClosed)
	assert.ErrorIs(t, f.term.Resize(10, 10), ErrClosed)
	assert.NoError(t, f.term.Close())
	assert.Equal(t, int32(1), f.exits.Load())
}

func TestCloseKillsChild(t *testing.T) {
	f := startFake(t)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.term.Close())
		}()
	}
	wg.Wait()
	waitDone(t, f.term)

	assert.True(t, f.sess.isClosed())
	assert.Equal(t, "hangup", f.term.Wait().Signal)
	assert.Equal(t, int32(1), f.exits.Load())
	assert.ErrorIs(t, f.term.WriteString("x"), ErrClosed)
}

func TestContextCancelCloses(t *testing.T) {
	sess := newFakeSession()
	ctx, cancel := context.WithCancel(context.Background())
	term, err := Start(ctx, Options{
		Rows: 5, Cols: 20,
		Opener: func(pty.Command, int, int) (pty.Session, error) { return sess, nil },
	})
	require.NoError(t, err)
	cancel()
	waitDone(t, term)
	assert.True(t, sess.isClosed())
}

func TestFlushOnEndOfStream(t *testing.T) {
	f := startFake(t)
	f.sess.print("a\xc3")
	f.sess.exit(0)
	waitDone(t, f.term)
	assert.Equal(t, "a�", f.term.Snapshot(0).Text(0))
}

func TestEvents(t *testing.T) {
	f := startFake(t)
	f.sess.print("\x1b]2;build\a\a\x1b]52;c;aGk=\a\x1b[?25l")
	f.sess.exit(0)

	var kinds []EventKind
	var title string
	var clip []byte
	for ev := range f.term.Events() {
		switch ev.Kind {
		case EventOutput:
			continue
		case EventTitle:
			title = ev.Text
		case EventClipboard:
			clip = ev.Data
		}
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []EventKind{EventTitle, EventBell, EventClipboard, EventCursorVisibility, EventModeChange, EventExit}, kinds)
	assert.Equal(t, "build", title)
	assert.Equal(t, []byte("hi"), clip)
	assert.Equal(t, "build", f.term.Title())
}

func TestPaste(t *testing.T) {
	f := startFake(t)
	require.NoError(t, f.term.Paste("plain"))
	f.waitInput(t, "plain")

	f.sess.print("\x1b[?2004h")
	require.Eventually(t, func() bool {
		return f.term.Modes().Has(grid.ModeBracketedPaste)
	}, waitTimeout, 5*time.Millisecond)

	require.NoError(t, f.term.Paste("a\x1b[201~b"))
	f.waitInput(t, "plain\x1b[200~ab\x1b[201~")
}

func TestAppCursorKeys(t *testing.T) {
	f := startFake(t)
	assert.False(t, f.term.AppCursorKeys())
	f.sess.print("\x1b[?1h")
	require.Eventually(t, f.term.AppCursorKeys, waitTimeout, 5*time.Millisecond)
}

func TestScrollbackOption(t *testing.T) {
	f := startFake(t, func(o *Options) {
		o.Rows, o.Cols, o.Scrollback = 2, 10, 0
	})
	f.sess.print("1\r\n2\r\n3")
	f.waitRow(t, 1, "3")
	assert.Equal(t, 0, f.term.Snapshot(0).ScrollbackLen)
}

func TestMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	f := startFake(t, func(o *Options) { o.Metrics = m })
	f.sess.print("abc\x1b[999z")
	f.waitRow(t, 0, "abc")
	require.NoError(t, f.term.Resize(4, 10))
	f.sess.exit(2)
	waitDone(t, f.term)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsStarted))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SessionsActive))
	assert.Equal(t, 9.0, testutil.ToFloat64(m.BytesRead))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Exits.WithLabelValues("2")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Unhandled.WithLabelValues("csi")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resizes))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "draining", StateDraining.String())
	assert.Equal(t, "unknown", State(42).String())
	assert.Equal(t, "clipboard", EventClipboard.String())
}

func TestExitWhileOutputHeldOpen(t *testing.T) {
	f := startFake(t, func(o *Options) { o.ExitDrain = 50 * time.Millisecond })
	f.sess.print("bye")
	f.waitRow(t, 0, "bye")

	f.sess.detach(3)
	waitDone(t, f.term)
	assert.Equal(t, 3, f.term.Wait().Code)
	assert.Equal(t, int32(1), f.exits.Load())
	assert.True(t, f.sess.isClosed(), "the session is released once output stops")
	assert.Equal(t, "bye", f.term.Snapshot(0).Text(0))
}

func TestStalledInputDoesNotBlockOutput(t *testing.T) {
	sess := newFakeSession()
	sess.stall = make(chan struct{})
	term, err := Start(context.Background(), Options{
		Rows: 5, Cols: 20,
		Opener: func(pty.Command, int, int) (pty.Session, error) { return sess, nil },
	})
	require.NoError(t, err)

	require.NoError(t, term.WriteString("stuck"))
	// More device reports than the input queue holds.
	for i := 0; i < 2*inputQueueSize; i++ {
		sess.print("\x1b[6n")
	}
	sess.print("done")
	require.Eventually(t, func() bool {
		return term.Snapshot(0).Text(0) == "done"
	}, waitTimeout, 5*time.Millisecond)

	closed := make(chan struct{})
	go func() {
		term.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(waitTimeout):
		t.Fatal("Close blocked behind a stalled write")
	}
	waitDone(t, term)
}

func TestDeviceReportsKeepOrder(t *testing.T) {
	f := startFake(t)
	f.sess.print("\x1b[5n")
	f.waitInput(t, "\x1b[0n")
	f.sess.print("\x1b[6n")
	f.waitInput(t, "\x1b[0n\x1b[1;1R")
}
