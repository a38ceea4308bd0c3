// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: grid/modes.go
// Summary: Terminal mode flags tracked by the grid.

package grid

import "strings"

// Mode is a bit set of terminal modes.
type Mode uint32

const (
	ModeOrigin          Mode = 1 << iota // DECOM: cursor addressing relative to the scroll region
	ModeAutoWrap                         // DECAWM
	ModeInsert                           // IRM
	ModeAppKeypad                        // DECKPAM
	ModeAppCursor                        // DECCKM
	ModeBracketedPaste                   // 2004
	ModeAltScreen                        // 47/1047/1049
	ModeCursorVisible                    // DECTCEM
	ModeReverseVideo                     // DECSCNM
	ModeLineFeedNewLine                  // LNM
	ModeMouseX10                         // 9
	ModeMouseNormal                      // 1000
	ModeMouseButton                      // 1002
	ModeMouseAny                         // 1003
	ModeMouseUTF8                        // 1005
	ModeMouseSGR                         // 1006
	ModeMouseURXVT                       // 1015
	ModeFocusReport                      // 1004
	ModeSyncOutput                       // 2026
)

// DefaultModes are the modes active after a reset.
const DefaultModes = ModeAutoWrap | ModeCursorVisible

// ModeMouseTracking is the union of all mouse tracking modes.
const ModeMouseTracking = ModeMouseX10 | ModeMouseNormal | ModeMouseButton | ModeMouseAny

// Has reports whether every flag in want is set.
func (m Mode) Has(want Mode) bool { return m&want == want }

// Any reports whether at least one flag in want is set.
func (m Mode) Any(want Mode) bool { return m&want != 0 }

var modeNames = []struct {
	mode Mode
	name string
}{
	{ModeOrigin, "origin"},
	{ModeAutoWrap, "autowrap"},
	{ModeInsert, "insert"},
	{ModeAppKeypad, "appkeypad"},
	{ModeAppCursor, "appcursor"},
	{ModeBracketedPaste, "bracketedpaste"},
	{ModeAltScreen, "altscreen"},
	{ModeCursorVisible, "cursorvisible"},
	{ModeReverseVideo, "reversevideo"},
	{ModeLineFeedNewLine, "lnm"},
	{ModeMouseX10, "mousex10"},
	{ModeMouseNormal, "mousenormal"},
	{ModeMouseButton, "mousebutton"},
	{ModeMouseAny, "mouseany"},
	{ModeMouseUTF8, "mouseutf8"},
	{ModeMouseSGR, "mousesgr"},
	{ModeMouseURXVT, "mouseurxvt"},
	{ModeFocusReport, "focus"},
	{ModeSyncOutput, "sync"},
}

func (m Mode) String() string {
	if m == 0 {
		return "none"
	}
	var parts []string
	for _, n := range modeNames {
		if m&n.mode != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}
