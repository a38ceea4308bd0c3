// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: parser/csi.go
// Summary: CSI dispatch: cursor movement, editing, scrolling and device reports.

package parser

import "github.com/framegrace/ptterm/grid"

func (p *Parser) dispatchCSI(final byte) {
	switch p.private {
	case 0:
		if len(p.inter) == 0 {
			p.dispatchPlainCSI(final)
			return
		}
		p.dispatchIntermediateCSI(final)
	case '?':
		p.dispatchDECCSI(final)
	case '>':
		if final == 'c' && len(p.inter) == 0 {
			if p.param(0, 0) == 0 {
				p.respond("\x1b[>1;10;0c")
			}
			return
		}
		p.unhandled("csi", "%s", p.describeCSI(final))
	default:
		p.unhandled("csi", "%s", p.describeCSI(final))
	}
}

func (p *Parser) dispatchPlainCSI(final byte) {
	g := p.g
	n := p.param(0, 1)
	switch final {
	case '@': // ICH
		g.InsertChars(n)
	case 'A': // CUU
		g.MoveBy(-n, 0)
	case 'B', 'e': // CUD, VPR
		g.MoveBy(n, 0)
	case 'C', 'a': // CUF, HPR
		g.MoveBy(0, n)
	case 'D': // CUB
		g.MoveBy(0, -n)
	case 'E': // CNL
		g.MoveBy(n, 0)
		g.CarriageReturn()
	case 'F': // CPL
		g.MoveBy(-n, 0)
		g.CarriageReturn()
	case 'G', '`': // CHA, HPA
		g.SetCol(n - 1)
	case 'H', 'f': // CUP, HVP
		g.MoveTo(p.param(0, 1)-1, p.param(1, 1)-1)
	case 'I': // CHT
		g.Tab(n)
	case 'J': // ED
		g.EraseInDisplay(p.param(0, 0))
	case 'K': // EL
		g.EraseInLine(p.param(0, 0))
	case 'L': // IL
		g.InsertLines(n)
	case 'M': // DL
		g.DeleteLines(n)
	case 'P': // DCH
		g.DeleteChars(n)
	case 'S': // SU
		g.ScrollUp(n)
	case 'T': // SD; the five-parameter form is mouse highlight tracking
		if len(p.params) <= 1 {
			g.ScrollDown(n)
		}
	case 'X': // ECH
		g.EraseChars(n)
	case 'Z': // CBT
		g.BackTab(n)
	case 'b': // REP
		if p.lastRune != 0 {
			for i := 0; i < n; i++ {
				g.Put(p.lastRune)
			}
		}
	case 'c': // DA
		if p.param(0, 0) == 0 {
			p.respond("\x1b[?62;22c")
		}
	case 'd': // VPA
		g.SetRow(n - 1)
	case 'g': // TBC
		switch p.param(0, 0) {
		case 0:
			g.ClearTabStop()
		case 3:
			g.ClearAllTabStops()
		}
	case 'h':
		p.setANSIModes(true)
	case 'l':
		p.setANSIModes(false)
	case 'm':
		p.sgr()
	case 'n':
		p.deviceStatus(false)
	case 'q': // DECLL, keyboard LEDs
	case 'r': // DECSTBM
		rows, _ := g.Size()
		g.SetScrollRegion(p.param(0, 1)-1, p.param(1, rows)-1)
	case 's': // SCOSC
		p.saveCursor()
	case 'u': // SCORC
		p.restoreCursor()
	case 't':
		p.windowOp()
	default:
		p.unhandled("csi", "%s", p.describeCSI(final))
	}
}

func (p *Parser) dispatchIntermediateCSI(final byte) {
	switch {
	case len(p.inter) == 1 && p.inter[0] == '!' && final == 'p': // DECSTR
		p.softReset()
	case len(p.inter) == 1 && p.inter[0] == '$' && final == 'p': // DECRQM, ANSI
		p.reportMode(p.param(0, 0), false)
	case len(p.inter) == 1 && p.inter[0] == ' ' && final == 'q': // DECSCUSR
		if p.onCursorStyle != nil {
			p.onCursorStyle(p.param(0, 0))
		}
	default:
		p.unhandled("csi", "%s", p.describeCSI(final))
	}
}

func (p *Parser) dispatchDECCSI(final byte) {
	if len(p.inter) == 1 && p.inter[0] == '$' && final == 'p' {
		p.reportMode(p.param(0, 0), true)
		return
	}
	if len(p.inter) != 0 {
		p.unhandled("csi", "%s", p.describeCSI(final))
		return
	}
	switch final {
	case 'h':
		p.setDECModes(true)
	case 'l':
		p.setDECModes(false)
	case 'J': // DECSED, no protected cells so plain erase
		p.g.EraseInDisplay(p.param(0, 0))
	case 'K': // DECSEL
		p.g.EraseInLine(p.param(0, 0))
	case 'n':
		p.deviceStatus(true)
	default:
		p.unhandled("csi", "%s", p.describeCSI(final))
	}
}

func (p *Parser) deviceStatus(dec bool) {
	req := p.param(0, 0)
	switch {
	case req == 5 && !dec:
		p.respond("\x1b[0n")
	case req == 6:
		row, col := p.reportedCursor()
		if dec {
			p.respond("\x1b[?%d;%dR", row, col)
		} else {
			p.respond("\x1b[%d;%dR", row, col)
		}
	case req == 15 && dec: // printer status: none
		p.respond("\x1b[?13n")
	default:
		p.unhandled("csi", "DSR %d", req)
	}
}

// reportedCursor returns the 1-based cursor position, relative to the scroll
// region in origin mode.
func (p *Parser) reportedCursor() (row, col int) {
	c := p.g.Cursor()
	row = c.Row
	if p.g.Mode(grid.ModeOrigin) {
		top, _ := p.g.ScrollRegion()
		row -= top
	}
	return row + 1, c.Col + 1
}

func (p *Parser) windowOp() {
	switch p.param(0, 0) {
	case 18: // text area size in characters
		rows, cols := p.g.Size()
		p.respond("\x1b[8;%d;%dt", rows, cols)
	case 22, 23: // title stack push/pop
	default:
		p.unhandled("csi", "%s", p.describeCSI('t'))
	}
}
