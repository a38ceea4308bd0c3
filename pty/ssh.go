// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: pty/ssh.go
// Summary: Remote session on a pseudo-terminal requested over SSH.
// Usage: s, err := pty.OpenSSH(client, pty.Command{}, 24, 80) runs the login shell.

package pty

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
)

type sshSession struct {
	sess    *ssh.Session
	stdin   io.WriteCloser
	stdout  io.Reader
	command Command
	log     *zap.Logger

	done   chan struct{}
	status ExitStatus

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// OpenSSH runs cmd on the remote side of client. An empty Command.Path
// starts the remote login shell.
func OpenSSH(client *ssh.Client, cmd Command, rows, cols int, opts ...Option) (Session, error) {
	if err := ValidateSize(rows, cols); err != nil {
		return nil, err
	}
	o := applyOptions(opts)

	sess, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("%w: ssh session: %w", ErrPtyUnavailable, err)
	}
	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 38400,
		ssh.TTY_OP_OSPEED: 38400,
	}
	if err := sess.RequestPty(cmd.term(), rows, cols, modes); err != nil {
		sess.Close()
		return nil, fmt.Errorf("%w: %w", ErrPtyUnavailable, err)
	}
	for _, kv := range cmd.Env {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		// Servers commonly refuse env requests; that is not fatal.
		if err := sess.Setenv(k, v); err != nil {
			o.log.Debug("ssh setenv refused", zap.String("key", k), zap.Error(err))
		}
	}
	stdin, err := sess.StdinPipe()
	if err != nil {
		sess.Close()
		return nil, fmt.Errorf("%w: %w", ErrPtyUnavailable, err)
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		sess.Close()
		return nil, fmt.Errorf("%w: %w", ErrPtyUnavailable, err)
	}

	if line := remoteCommandLine(cmd); line == "" {
		err = sess.Shell()
	} else {
		err = sess.Start(line)
	}
	if err != nil {
		sess.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrSpawnFailed, cmd.Path, err)
	}

	s := &sshSession{
		sess:    sess,
		stdin:   stdin,
		stdout:  stdout,
		command: cmd,
		log:     o.log.With(zap.String("remote", client.RemoteAddr().String())),
		done:    make(chan struct{}),
	}
	go s.reap()
	return s, nil
}

// remoteCommandLine renders cmd for the remote shell.
func remoteCommandLine(cmd Command) string {
	if cmd.Path == "" {
		return ""
	}
	words := make([]string, 0, len(cmd.Args)+1)
	words = append(words, shellQuote(cmd.Path))
	for _, a := range cmd.Args {
		words = append(words, shellQuote(a))
	}
	line := strings.Join(words, " ")
	if cmd.Dir != "" {
		line = "cd " + shellQuote(cmd.Dir) + " && exec " + line
	}
	return line
}

func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool {
		return !(r == '/' || r == '.' || r == '-' || r == '_' || r == '=' ||
			('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9'))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func (s *sshSession) reap() {
	err := s.sess.Wait()
	var exitErr *ssh.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		s.status = ExitStatus{Code: exitErr.ExitStatus(), Signal: exitErr.Signal()}
		if exitErr.Signal() != "" {
			s.status.Code = -1
		}
	default:
		// Channel closed without an exit-status message.
		s.status = ExitStatus{Code: -1}
		s.log.Debug("ssh wait", zap.Error(err))
	}
	close(s.done)
}

func (s *sshSession) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

func (s *sshSession) Write(p []byte) (int, error) {
	if s.gone() {
		return 0, ErrChannelClosed
	}
	n, err := s.stdin.Write(p)
	if err != nil && errors.Is(err, io.EOF) {
		return n, ErrChannelClosed
	}
	return n, err
}

func (s *sshSession) gone() bool {
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

func (s *sshSession) Resize(rows, cols int) error {
	if err := ValidateSize(rows, cols); err != nil {
		return err
	}
	if s.gone() {
		return ErrChannelClosed
	}
	return s.sess.WindowChange(rows, cols)
}

func (s *sshSession) Wait() ExitStatus {
	<-s.done
	return s.status
}

func (s *sshSession) ExitStatus() (ExitStatus, bool) {
	select {
	case <-s.done:
		return s.status, true
	default:
		return ExitStatus{}, false
	}
}

func (s *sshSession) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		select {
		case <-s.done:
		default:
			_ = s.sess.Signal(ssh.SIGHUP)
		}
		if err := s.sess.Close(); err != nil && !errors.Is(err, io.EOF) {
			s.closeErr = err
		}
	})
	return s.closeErr
}

// Pid is unknown for remote children.
func (s *sshSession) Pid() int { return 0 }

func (s *sshSession) Name() string {
	if s.command.Path == "" {
		return "ssh"
	}
	return path.Base(s.command.Path)
}

func (s *sshSession) Cwd() string { return s.command.Dir }
