// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: terminal/terminal.go
// Summary: Bridge between a PTY session, the escape interpreter and the grid.
// Usage: t, err := terminal.Start(ctx, terminal.Options{Command: cmd, Rows: 24, Cols: 80})
// Notes: The grid is only touched under mu, by the output pump and by resizes.

package terminal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/muesli/cancelreader"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/framegrace/ptterm/grid"
	"github.com/framegrace/ptterm/metrics"
	"github.com/framegrace/ptterm/parser"
	"github.com/framegrace/ptterm/pty"
)

// ErrClosed is returned by calls made after the terminal finished.
var ErrClosed = errors.New("terminal: closed")

const (
	pasteStart = "\x1b[200~"
	pasteEnd   = "\x1b[201~"
)

// Terminal runs one child program and keeps its screen state.
type Terminal struct {
	id      string
	log     *zap.Logger
	metrics *metrics.Collector
	sess    pty.Session
	reader  cancelreader.CancelReader
	onExit  func(pty.ExitStatus)

	mu      sync.Mutex
	g       *grid.Grid
	p       *parser.Parser
	replies bytes.Buffer

	// Device reports waiting for the input pump. The output pump only
	// appends here so a stalled child stdin never stops output.
	replyMu    sync.Mutex
	pending    []byte
	replyReady chan struct{}

	state     atomic.Int32
	dropped   atomic.Uint64
	childGone atomic.Bool
	exitDrain time.Duration
	events    chan Event
	input     chan request

	group     *errgroup.Group
	stopCtx   func() bool
	quit      chan struct{}
	drained   chan struct{}
	inputDone chan struct{}
	pumpsDone chan struct{}
	done      chan struct{}

	closeOnce sync.Once
	closeErr  error
	exitOnce  sync.Once
	dropOnce  sync.Once
	status    pty.ExitStatus
}

// request is one input pump operation: a write or a resize.
type request struct {
	data   []byte
	resize bool
	rows   int
	cols   int
	reply  chan error
}

// Start opens the session and begins pumping. Cancelling ctx closes the
// terminal.
func Start(ctx context.Context, opts Options) (*Terminal, error) {
	if err := pty.ValidateSize(opts.Rows, opts.Cols); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	id := uuid.NewString()
	t := &Terminal{
		id:         id,
		log:        opts.Logger.With(zap.String("session_id", id)),
		metrics:    opts.Metrics,
		onExit:     opts.OnExit,
		exitDrain:  opts.ExitDrain,
		replyReady: make(chan struct{}, 1),
		events:     make(chan Event, opts.EventBuffer),
		input:      make(chan request, inputQueueSize),
		quit:       make(chan struct{}),
		drained:    make(chan struct{}),
		inputDone:  make(chan struct{}),
		pumpsDone:  make(chan struct{}),
		done:       make(chan struct{}),
	}
	t.state.Store(int32(StateStarting))

	sess, err := opts.Opener(opts.Command, opts.Rows, opts.Cols)
	if err != nil {
		t.log.Warn("open failed", zap.String("cmd", opts.Command.Path), zap.Error(err))
		return nil, err
	}
	t.sess = sess

	g, err := grid.New(opts.Rows, opts.Cols, opts.Scrollback)
	if err != nil {
		sess.Close()
		return nil, fmt.Errorf("%w: %w", pty.ErrInvalidDimensions, err)
	}
	t.g = g
	t.p = parser.New(g, t.parserOptions(opts)...)

	// Session reads are interrupted by closing the session; the reader
	// only makes reads after Cancel fail fast.
	t.reader, _ = cancelreader.NewReader(plainReader{sess})

	t.state.Store(int32(StateRunning))
	t.metrics.SessionStarted()
	t.stopCtx = context.AfterFunc(ctx, func() { t.Close() })
	t.group = new(errgroup.Group)
	t.group.Go(t.outputPump)
	t.group.Go(t.inputPump)
	go t.watchExit()
	go t.supervise()

	t.log.Info("terminal started", zap.Int("pid", sess.Pid()),
		zap.Int("rows", opts.Rows), zap.Int("cols", opts.Cols))
	return t, nil
}

func (t *Terminal) parserOptions(opts Options) []parser.Option {
	return []parser.Option{
		parser.WithLogger(t.log),
		parser.WithResponseWriter(&t.replies),
		parser.WithDefaultColors(opts.DefaultFG, opts.DefaultBG),
		parser.WithTitleHandler(func(s string) { t.emit(Event{Kind: EventTitle, Text: s}) }),
		parser.WithIconHandler(func(s string) { t.emit(Event{Kind: EventIcon, Text: s}) }),
		parser.WithBellHandler(func() { t.emit(Event{Kind: EventBell}) }),
		parser.WithCursorVisibilityHandler(func(v bool) { t.emit(Event{Kind: EventCursorVisibility, On: v}) }),
		parser.WithCursorStyleHandler(func(s int) { t.emit(Event{Kind: EventCursorStyle, Style: s}) }),
		parser.WithClipboardHandler(func(sel string, data []byte) {
			t.emit(Event{Kind: EventClipboard, Text: sel, Data: data})
		}),
		parser.WithWorkingDirHandler(func(dir string) { t.emit(Event{Kind: EventWorkingDir, Text: dir}) }),
		parser.WithModeChangeHandler(func(m grid.Mode, on bool) {
			t.emit(Event{Kind: EventModeChange, Mode: m, On: on})
		}),
		parser.WithUnhandledHandler(func(kind, _ string) { t.metrics.UnhandledSequence(kind) }),
	}
}

// outputPump feeds child output to the parser until end of stream.
func (t *Terminal) outputPump() error {
	defer close(t.drained)
	buf := make([]byte, readBufferSize)
	for {
		n, err := t.reader.Read(buf)
		if n > 0 {
			t.feed(buf[:n])
			if t.childGone.Load() {
				t.extendDrain()
			}
		}
		if err != nil {
			t.logReadEnd(err)
			break
		}
	}

	t.state.Store(int32(StateDraining))
	t.mu.Lock()
	t.p.Flush()
	t.replies.Reset()
	t.mu.Unlock()
	t.emit(Event{Kind: EventOutput})
	return nil
}

func (t *Terminal) logReadEnd(err error) {
	switch {
	case errors.Is(err, os.ErrDeadlineExceeded):
		t.log.Debug("output idle after child exit")
	case errors.Is(err, cancelreader.ErrCanceled), isEOF(err):
	default:
		t.log.Debug("read failed", zap.Error(err))
	}
}

func (t *Terminal) feed(data []byte) {
	t.mu.Lock()
	t.p.Feed(data)
	if t.replies.Len() > 0 {
		t.queueReply(t.replies.Bytes())
		t.replies.Reset()
	}
	t.mu.Unlock()

	t.metrics.Read(len(data))
	t.emit(Event{Kind: EventOutput})
}

// queueReply hands a device report to the input pump without blocking.
func (t *Terminal) queueReply(b []byte) {
	t.replyMu.Lock()
	if len(t.pending)+len(b) > maxPendingReplies {
		t.replyMu.Unlock()
		t.log.Debug("reply backlog full, dropping device report", zap.Int("bytes", len(b)))
		return
	}
	t.pending = append(t.pending, b...)
	t.replyMu.Unlock()
	select {
	case t.replyReady <- struct{}{}:
	default:
	}
}

func (t *Terminal) takeReplies() []byte {
	t.replyMu.Lock()
	defer t.replyMu.Unlock()
	b := t.pending
	t.pending = nil
	return b
}

// watchExit stops reading once the child is gone, even when a background
// process still holds the terminal open. Output already queued is drained
// until it goes idle or exitDrain passes.
func (t *Terminal) watchExit() {
	t.sess.Wait()
	select {
	case <-t.drained:
		return
	default:
	}
	t.childGone.Store(true)
	t.extendDrain()

	timer := time.NewTimer(t.exitDrain)
	defer timer.Stop()
	select {
	case <-t.drained:
	case <-timer.C:
		t.log.Debug("output still open after child exit, closing session")
		t.reader.Cancel()
		if err := t.sess.Close(); err != nil {
			t.log.Debug("session close", zap.Error(err))
		}
	}
}

// extendDrain pushes the read deadline drainIdle into the future on
// sessions that support one.
func (t *Terminal) extendDrain() {
	if d, ok := t.sess.(readDeadliner); ok {
		if err := d.SetReadDeadline(time.Now().Add(drainIdle)); err != nil {
			t.log.Debug("read deadline unavailable", zap.Error(err))
		}
	}
}

// inputPump applies writes and resizes in submission order.
func (t *Terminal) inputPump() error {
	defer func() {
		for {
			select {
			case req := <-t.input:
				if req.reply != nil {
					req.reply <- ErrClosed
				}
			default:
				close(t.inputDone)
				return
			}
		}
	}()
	for {
		select {
		case req := <-t.input:
			t.apply(req)
		case <-t.replyReady:
			// Device reports keep their relative order; host input queued
			// before them may still be ahead.
			if b := t.takeReplies(); len(b) > 0 {
				t.apply(request{data: b})
			}
		case <-t.drained:
			return nil
		case <-t.quit:
			return nil
		}
	}
}

func (t *Terminal) apply(req request) {
	if req.resize {
		req.reply <- t.applyResize(req.rows, req.cols)
		return
	}
	n, err := t.sess.Write(req.data)
	t.metrics.Written(n)
	switch {
	case err == nil:
	case errors.Is(err, pty.ErrChannelClosed):
		t.dropOnce.Do(func() { t.log.Debug("child gone, dropping input") })
	default:
		t.log.Warn("write failed", zap.Error(err))
	}
}

func (t *Terminal) applyResize(rows, cols int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.sess.Resize(rows, cols); err != nil && !errors.Is(err, pty.ErrChannelClosed) {
		return err
	}
	if err := t.g.Resize(rows, cols); err != nil {
		return fmt.Errorf("%w: %w", pty.ErrInvalidDimensions, err)
	}
	t.metrics.Resized()
	t.log.Debug("resized", zap.Int("rows", rows), zap.Int("cols", cols))
	return nil
}

// enqueue hands req to the input pump, giving up once it stopped.
func (t *Terminal) enqueue(req request) error {
	select {
	case <-t.inputDone:
		return ErrClosed
	default:
	}
	select {
	case t.input <- req:
		return nil
	case <-t.inputDone:
		return ErrClosed
	case <-t.quit:
		return ErrClosed
	}
}

// supervise waits for both pumps and the child, then finishes the terminal.
func (t *Terminal) supervise() {
	_ = t.group.Wait()
	close(t.pumpsDone)
	t.stopCtx()

	status := t.sess.Wait()
	if err := t.sess.Close(); err != nil {
		t.log.Debug("session close", zap.Error(err))
	}
	t.reader.Close()

	t.status = status
	t.state.Store(int32(StateDone))
	t.metrics.SessionExited(status.Code)
	t.log.Info("terminal exited", zap.Stringer("status", status),
		zap.Uint64("dropped_events", t.dropped.Load()))
	t.emit(Event{Kind: EventExit, Status: status})
	close(t.events)

	t.exitOnce.Do(func() {
		if t.onExit != nil {
			t.onExit(status)
		}
	})
	close(t.done)
}

// Write queues p for the child.
func (t *Terminal) Write(p []byte) error {
	if t.closed() {
		return ErrClosed
	}
	if len(p) == 0 {
		return nil
	}
	return t.enqueue(request{data: bytes.Clone(p)})
}

func (t *Terminal) WriteString(s string) error {
	return t.Write([]byte(s))
}

// Paste writes text, bracketed when the child enabled bracketed paste. An
// embedded end marker is removed so the paste cannot terminate early.
func (t *Terminal) Paste(text string) error {
	t.mu.Lock()
	bracketed := t.g.Mode(grid.ModeBracketedPaste)
	t.mu.Unlock()
	if !bracketed {
		return t.WriteString(text)
	}
	text = strings.ReplaceAll(text, pasteEnd, "")
	return t.WriteString(pasteStart + text + pasteEnd)
}

// Resize validates the size and waits for the input pump to apply it to
// the session and the grid.
func (t *Terminal) Resize(rows, cols int) error {
	if err := pty.ValidateSize(rows, cols); err != nil {
		return err
	}
	if t.closed() {
		return ErrClosed
	}
	req := request{resize: true, rows: rows, cols: cols, reply: make(chan error, 1)}
	if err := t.enqueue(req); err != nil {
		return err
	}
	select {
	case err := <-req.reply:
		return err
	case <-t.inputDone:
		select {
		case err := <-req.reply:
			return err
		default:
			return ErrClosed
		}
	}
}

// Snapshot copies the visible screen and clears the dirty set.
func (t *Terminal) Snapshot(offset int) grid.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.g.Snapshot(offset)
}

// Size returns the grid dimensions.
func (t *Terminal) Size() (rows, cols int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.g.Size()
}

func (t *Terminal) Title() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.p.Title()
}

func (t *Terminal) Modes() grid.Mode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.g.Modes()
}

// AppCursorKeys reports whether cursor keys should use SS3 sequences.
func (t *Terminal) AppCursorKeys() bool {
	return t.Modes().Has(grid.ModeAppCursor)
}

// Events delivers host notifications. The channel closes after EventExit.
func (t *Terminal) Events() <-chan Event { return t.events }

// Close kills the child and stops both pumps. It is safe to call more than
// once and from any goroutine.
func (t *Terminal) Close() error {
	t.closeOnce.Do(func() {
		close(t.quit)
		t.reader.Cancel()
		t.closeErr = t.sess.Close()
		t.log.Debug("terminal closed")
	})
	// A backend write that ignores Close must not hold the caller.
	timer := time.NewTimer(closeWait)
	defer timer.Stop()
	select {
	case <-t.pumpsDone:
	case <-timer.C:
		t.log.Warn("pumps still busy after close", zap.Duration("waited", closeWait))
	}
	return t.closeErr
}

// Wait blocks until the terminal is done and returns the child status.
func (t *Terminal) Wait() pty.ExitStatus {
	<-t.done
	return t.status
}

// Done is closed once the child exited and OnExit ran.
func (t *Terminal) Done() <-chan struct{} { return t.done }

func (t *Terminal) State() State { return State(t.state.Load()) }

func (t *Terminal) ID() string { return t.id }

// ProcessName is the foreground program of the session, best effort.
func (t *Terminal) ProcessName() string { return t.sess.Name() }

// Cwd is the child's working directory, best effort.
func (t *Terminal) Cwd() string { return t.sess.Cwd() }

func (t *Terminal) closed() bool {
	select {
	case <-t.done:
		return true
	case <-t.quit:
		return true
	default:
		return false
	}
}
