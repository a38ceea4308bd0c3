// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: pty/errors.go
// Summary: Sentinel errors returned by session backends.

package pty

import "errors"

var (
	// ErrSpawnFailed means the child program could not be started.
	ErrSpawnFailed = errors.New("pty: spawn failed")
	// ErrPtyUnavailable means no pseudo-terminal could be allocated.
	ErrPtyUnavailable = errors.New("pty: pseudo-terminal unavailable")
	// ErrChannelClosed is returned by writes once the child is gone or the
	// session was closed.
	ErrChannelClosed = errors.New("pty: channel closed")
	// ErrInvalidDimensions rejects non-positive or oversized window sizes.
	ErrInvalidDimensions = errors.New("pty: invalid dimensions")
)
