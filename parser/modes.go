// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: parser/modes.go
// Summary: ANSI (SM/RM) and DEC private (DECSET/DECRST) mode handling.

package parser

import "github.com/framegrace/ptterm/grid"

var ansiModes = map[int]grid.Mode{
	4:  grid.ModeInsert,
	20: grid.ModeLineFeedNewLine,
}

var decModes = map[int]grid.Mode{
	1:    grid.ModeAppCursor,
	5:    grid.ModeReverseVideo,
	6:    grid.ModeOrigin,
	7:    grid.ModeAutoWrap,
	9:    grid.ModeMouseX10,
	25:   grid.ModeCursorVisible,
	1000: grid.ModeMouseNormal,
	1002: grid.ModeMouseButton,
	1003: grid.ModeMouseAny,
	1004: grid.ModeFocusReport,
	1005: grid.ModeMouseUTF8,
	1006: grid.ModeMouseSGR,
	1015: grid.ModeMouseURXVT,
	2004: grid.ModeBracketedPaste,
	2026: grid.ModeSyncOutput,
}

const mouseEncodings = grid.ModeMouseUTF8 | grid.ModeMouseSGR | grid.ModeMouseURXVT

func (p *Parser) setANSIModes(on bool) {
	for _, n := range p.params {
		m, ok := ansiModes[n]
		if !ok {
			p.unhandled("mode", "ANSI mode %d", n)
			continue
		}
		p.setMode(m, on)
	}
}

func (p *Parser) setDECModes(on bool) {
	for _, n := range p.params {
		p.setDECMode(n, on)
	}
}

func (p *Parser) setDECMode(n int, on bool) {
	switch n {
	case 12: // cursor blink
		return
	case 47, 1047:
		p.setMode(grid.ModeAltScreen, on)
		return
	case 1048:
		if on {
			p.saveCursor()
		} else {
			p.restoreCursor()
		}
		return
	case 1049:
		prev := p.g.Modes()
		if on {
			if !prev.Has(grid.ModeAltScreen) {
				p.saveCursor()
				p.g.EnterAltScreen()
			}
		} else if prev.Has(grid.ModeAltScreen) {
			p.g.ExitAltScreen()
			p.restoreCursorState()
		}
		p.notifyModes(prev)
		return
	}

	m, ok := decModes[n]
	if !ok {
		p.unhandled("mode", "DEC mode %d", n)
		return
	}
	prev := p.g.Modes()
	if on {
		// Tracking modes and encodings are each mutually exclusive.
		switch {
		case m&grid.ModeMouseTracking != 0:
			p.g.SetMode(grid.ModeMouseTracking&^m, false)
		case m&mouseEncodings != 0:
			p.g.SetMode(mouseEncodings&^m, false)
		}
	}
	p.g.SetMode(m, on)
	p.notifyModes(prev)
}

func (p *Parser) setMode(m grid.Mode, on bool) {
	prev := p.g.Modes()
	p.g.SetMode(m, on)
	p.notifyModes(prev)
}

// notifyModes reports every mode flag that differs from prev.
func (p *Parser) notifyModes(prev grid.Mode) {
	now := p.g.Modes()
	changed := prev ^ now
	if changed == 0 {
		return
	}
	if changed&grid.ModeCursorVisible != 0 && p.onCursorVisible != nil {
		p.onCursorVisible(now.Has(grid.ModeCursorVisible))
	}
	if p.onModeChange == nil {
		return
	}
	for bit := grid.Mode(1); bit != 0 && bit <= changed; bit <<= 1 {
		if changed&bit != 0 {
			p.onModeChange(bit, now&bit != 0)
		}
	}
}

// DECRQM status values.
const (
	modeNotRecognized  = 0
	modeSet            = 1
	modeReset          = 2
	modePermanentReset = 4
)

func (p *Parser) reportMode(n int, dec bool) {
	status := modeNotRecognized
	var m grid.Mode
	var ok bool
	if dec {
		switch n {
		case 12:
			status = modePermanentReset
		case 47, 1047, 1049:
			m, ok = grid.ModeAltScreen, true
		default:
			m, ok = decModes[n]
		}
	} else {
		m, ok = ansiModes[n]
	}
	if ok {
		status = modeReset
		if p.g.Mode(m) {
			status = modeSet
		}
	}
	if dec {
		p.respond("\x1b[?%d;%d$y", n, status)
	} else {
		p.respond("\x1b[%d;%d$y", n, status)
	}
}
