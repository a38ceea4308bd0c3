// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: pty/pty_unix.go
// Summary: POSIX session backed by creack/pty.
// Notes: The child gets its own session with the pty slave as controlling
// terminal; resizes reach its foreground process group as SIGWINCH. The
// master stays non-blocking so Close wakes pending reads and writes.

//go:build !windows

package pty

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	cpty "github.com/creack/pty"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// killGrace is how long Close waits for the process group to honour
// SIGHUP and SIGTERM before sending SIGKILL.
var killGrace = 2 * time.Second

type unixSession struct {
	cmd     *exec.Cmd
	ptmx    *os.File
	command Command
	log     *zap.Logger

	done   chan struct{}
	status ExitStatus

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Open starts cmd on a new pseudo-terminal of the given size.
func Open(cmd Command, rows, cols int, opts ...Option) (Session, error) {
	if err := ValidateSize(rows, cols); err != nil {
		return nil, err
	}
	o := applyOptions(opts)

	path, err := exec.LookPath(cmd.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSpawnFailed, cmd.Path, err)
	}

	opened, tty, err := cpty.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPtyUnavailable, err)
	}
	if err := cpty.Setsize(opened, winsize(rows, cols)); err != nil {
		opened.Close()
		tty.Close()
		return nil, fmt.Errorf("%w: set size: %w", ErrPtyUnavailable, err)
	}
	ptmx, err := pollable(opened)
	opened.Close()
	if err != nil {
		tty.Close()
		return nil, fmt.Errorf("%w: %w", ErrPtyUnavailable, err)
	}

	c := exec.Command(path, cmd.Args...)
	c.Args[0] = cmd.Path
	c.Env = cmd.environ()
	c.Dir = cmd.Dir
	c.Stdin, c.Stdout, c.Stderr = tty, tty, tty
	c.SysProcAttr = &syscall.SysProcAttr{Setsid: true, Setctty: true}
	if err := c.Start(); err != nil {
		ptmx.Close()
		tty.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrSpawnFailed, cmd.Path, err)
	}
	// Only the child keeps the slave open, so the master reads EIO once it
	// and its descendants are gone.
	tty.Close()

	s := &unixSession{
		cmd:     c,
		ptmx:    ptmx,
		command: cmd,
		log:     o.log.With(zap.Int("pid", c.Process.Pid)),
		done:    make(chan struct{}),
	}
	s.log.Debug("pty session started", zap.String("path", path), zap.Int("rows", rows), zap.Int("cols", cols))
	go s.reap()
	return s, nil
}

func winsize(rows, cols int) *cpty.Winsize {
	return &cpty.Winsize{Rows: uint16(rows), Cols: uint16(cols)}
}

// pollable returns a non-blocking duplicate of the master. creack/pty runs
// its ioctls through Fd, which leaves the descriptor in blocking mode where
// Close cannot interrupt a pending Read or Write.
func pollable(f *os.File) (*os.File, error) {
	fd, err := unix.FcntlInt(f.Fd(), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("dup master: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("set non-blocking: %w", err)
	}
	return os.NewFile(uintptr(fd), f.Name()), nil
}

// setsize is cpty.Setsize without touching Fd.
func setsize(f *os.File, rows, cols int) error {
	raw, err := f.SyscallConn()
	if err != nil {
		return err
	}
	ws := &unix.Winsize{Row: uint16(rows), Col: uint16(cols)}
	var ioctlErr error
	if err := raw.Control(func(fd uintptr) {
		ioctlErr = unix.IoctlSetWinsize(int(fd), unix.TIOCSWINSZ, ws)
	}); err != nil {
		return err
	}
	return ioctlErr
}

func (s *unixSession) reap() {
	err := s.cmd.Wait()
	s.status = exitStatusOf(s.cmd.ProcessState)
	if err != nil && s.cmd.ProcessState == nil {
		s.log.Warn("wait failed", zap.Error(err))
	}
	s.log.Debug("child exited", zap.Stringer("status", s.status))
	close(s.done)
}

func exitStatusOf(ps *os.ProcessState) ExitStatus {
	if ps == nil {
		return ExitStatus{Code: -1}
	}
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return ExitStatus{Code: -1, Signal: ws.Signal().String()}
	}
	return ExitStatus{Code: ps.ExitCode()}
}

// hungUp reports the errors a master returns once the slave side is gone
// or the descriptor was closed.
func hungUp(err error) bool {
	return errors.Is(err, syscall.EIO) || errors.Is(err, os.ErrClosed)
}

func (s *unixSession) Read(p []byte) (int, error) {
	n, err := s.ptmx.Read(p)
	if err != nil && hungUp(err) {
		return n, io.EOF
	}
	return n, err
}

func (s *unixSession) Write(p []byte) (int, error) {
	if s.gone() {
		return 0, ErrChannelClosed
	}
	n, err := s.ptmx.Write(p)
	if err != nil && hungUp(err) {
		return n, ErrChannelClosed
	}
	return n, err
}

func (s *unixSession) gone() bool {
	if s.closed.Load() {
		return true
	}
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *unixSession) Resize(rows, cols int) error {
	if err := ValidateSize(rows, cols); err != nil {
		return err
	}
	if s.closed.Load() {
		return ErrChannelClosed
	}
	return setsize(s.ptmx, rows, cols)
}

// SetReadDeadline bounds pending and future reads of child output.
func (s *unixSession) SetReadDeadline(t time.Time) error {
	return s.ptmx.SetReadDeadline(t)
}

func (s *unixSession) Wait() ExitStatus {
	<-s.done
	return s.status
}

func (s *unixSession) ExitStatus() (ExitStatus, bool) {
	select {
	case <-s.done:
		return s.status, true
	default:
		return ExitStatus{}, false
	}
}

// Close hangs up the child's process group and releases the master. A
// group still alive after killGrace is killed.
func (s *unixSession) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		select {
		case <-s.done:
		default:
			pid := s.cmd.Process.Pid
			if err := unix.Kill(-pid, unix.SIGHUP); err != nil && !errors.Is(err, unix.ESRCH) {
				s.log.Debug("hangup failed", zap.Error(err))
			}
			_ = s.cmd.Process.Signal(syscall.SIGTERM)
			go s.escalate(pid, killGrace)
		}
		if err := s.ptmx.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			s.closeErr = err
		}
	})
	return s.closeErr
}

func (s *unixSession) escalate(pid int, grace time.Duration) {
	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-s.done:
		return
	case <-timer.C:
	}
	s.log.Debug("child ignored hangup, killing process group")
	if err := unix.Kill(-pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		s.log.Debug("kill failed", zap.Error(err))
	}
	_ = s.cmd.Process.Kill()
}

func (s *unixSession) Pid() int {
	return s.cmd.Process.Pid
}

func (s *unixSession) Name() string {
	if s.closed.Load() {
		return s.command.baseName()
	}
	return foregroundName(s.ptmx, s.command.baseName())
}

func (s *unixSession) Cwd() string {
	if _, exited := s.ExitStatus(); exited {
		return s.command.Dir
	}
	return processCwd(s.Pid(), s.command.Dir)
}
