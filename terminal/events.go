// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: terminal/events.go
// Summary: Notifications delivered to the host on the Events channel.

package terminal

import (
	"github.com/framegrace/ptterm/grid"
	"github.com/framegrace/ptterm/pty"
)

// EventKind identifies an Event.
type EventKind int

const (
	// EventOutput means new output was applied to the grid.
	EventOutput EventKind = iota
	EventTitle
	EventIcon
	EventBell
	EventCursorVisibility
	EventCursorStyle
	EventClipboard
	EventWorkingDir
	EventModeChange
	// EventExit is the last event before the channel closes.
	EventExit
)

var eventNames = [...]string{
	EventOutput:           "output",
	EventTitle:            "title",
	EventIcon:             "icon",
	EventBell:             "bell",
	EventCursorVisibility: "cursor-visibility",
	EventCursorStyle:      "cursor-style",
	EventClipboard:        "clipboard",
	EventWorkingDir:       "cwd",
	EventModeChange:       "mode",
	EventExit:             "exit",
}

func (k EventKind) String() string {
	if k >= 0 && int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "unknown"
}

// Event is a host notification. Only the fields relevant to Kind are set.
type Event struct {
	Kind EventKind
	// Text carries the title, icon name, working directory or clipboard
	// selection.
	Text string
	// Data is the decoded clipboard payload.
	Data []byte
	// On is the cursor visibility or the new mode state.
	On    bool
	Mode  grid.Mode
	Style int
	// Status is set for EventExit.
	Status pty.ExitStatus
}

// emit delivers ev without blocking the output pump.
func (t *Terminal) emit(ev Event) {
	select {
	case t.events <- ev:
	default:
		t.dropped.Add(1)
	}
}
