// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: pty/pty_windows.go
// Summary: Windows session backed by ConPTY through charmbracelet/x/xpty.
// Notes: The pseudo console is closed once the process exits so the output
// pipe reaches end of stream.

//go:build windows

package pty

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/x/xpty"
	"go.uber.org/zap"
)

type conSession struct {
	cmd     *exec.Cmd
	con     xpty.Pty
	command Command
	log     *zap.Logger

	done   chan struct{}
	status ExitStatus

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Open starts cmd on a new pseudo console of the given size.
func Open(cmd Command, rows, cols int, opts ...Option) (Session, error) {
	if err := ValidateSize(rows, cols); err != nil {
		return nil, err
	}
	o := applyOptions(opts)

	path, err := exec.LookPath(cmd.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSpawnFailed, cmd.Path, err)
	}

	con, err := xpty.NewPty(cols, rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPtyUnavailable, err)
	}

	c := exec.Command(path, cmd.Args...)
	c.Env = cmd.environ()
	c.Dir = cmd.Dir
	if err := con.Start(c); err != nil {
		_ = con.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrSpawnFailed, cmd.Path, err)
	}

	s := &conSession{
		cmd:     c,
		con:     con,
		command: cmd,
		log:     o.log.With(zap.Int("pid", c.Process.Pid)),
		done:    make(chan struct{}),
	}
	s.log.Debug("conpty session started", zap.String("path", path), zap.Int("rows", rows), zap.Int("cols", cols))
	go s.reap()
	return s, nil
}

func (s *conSession) reap() {
	err := xpty.WaitProcess(context.Background(), s.cmd)
	switch {
	case s.cmd.ProcessState != nil:
		s.status = ExitStatus{Code: s.cmd.ProcessState.ExitCode()}
	case err != nil:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			s.status = ExitStatus{Code: exitErr.ExitCode()}
		} else {
			s.status = ExitStatus{Code: -1}
		}
	}
	s.log.Debug("child exited", zap.Stringer("status", s.status))
	close(s.done)
	// ConPTY keeps the output pipe open until the console itself goes away.
	_ = s.con.Close()
}

func (s *conSession) Read(p []byte) (int, error) {
	n, err := s.con.Read(p)
	if err != nil && (errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe)) {
		return n, io.EOF
	}
	return n, err
}

func (s *conSession) Write(p []byte) (int, error) {
	if s.gone() {
		return 0, ErrChannelClosed
	}
	n, err := s.con.Write(p)
	if err != nil && (errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe)) {
		return n, ErrChannelClosed
	}
	return n, err
}

func (s *conSession) gone() bool {
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

func (s *conSession) Resize(rows, cols int) error {
	if err := ValidateSize(rows, cols); err != nil {
		return err
	}
	if s.gone() {
		return ErrChannelClosed
	}
	return s.con.Resize(cols, rows)
}

func (s *conSession) Wait() ExitStatus {
	<-s.done
	return s.status
}

func (s *conSession) ExitStatus() (ExitStatus, bool) {
	select {
	case <-s.done:
		return s.status, true
	default:
		return ExitStatus{}, false
	}
}

func (s *conSession) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		select {
		case <-s.done:
		default:
			if err := s.cmd.Process.Kill(); err != nil {
				s.log.Debug("kill failed", zap.Error(err))
			}
		}
		if err := s.con.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			s.closeErr = err
		}
	})
	return s.closeErr
}

func (s *conSession) Pid() int {
	return s.cmd.Process.Pid
}

// Name has no foreground process notion on Windows.
func (s *conSession) Name() string {
	return s.command.baseName()
}

func (s *conSession) Cwd() string {
	return s.command.Dir
}
