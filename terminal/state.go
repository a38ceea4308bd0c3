// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: terminal/state.go
// Summary: Bridge lifecycle states.

package terminal

// State is the lifecycle position of a Terminal.
type State int32

const (
	StateStarting State = iota
	StateRunning
	// StateDraining means the child output reached end of stream and the
	// bridge is shutting down.
	StateDraining
	StateDone
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}
