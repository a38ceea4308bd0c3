// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: render/draw.go
// Summary: Paints grid snapshots onto a tcell screen.
// Usage: r := render.NewRenderer(screen, render.DefaultPalette()); r.Draw(term.Snapshot(0)); screen.Show()

package render

import (
	"github.com/gdamore/tcell/v2"

	"github.com/framegrace/ptterm/grid"
)

// Renderer repaints only dirty rows unless the geometry or screen-wide
// state changed since the previous frame.
type Renderer struct {
	screen  tcell.Screen
	palette Palette

	rows, cols int
	offset     int
	reverse    bool
	valid      bool
}

func NewRenderer(s tcell.Screen, p Palette) *Renderer {
	return &Renderer{screen: s, palette: p}
}

// Palette returns the palette in use for edits; call Invalidate afterwards.
func (r *Renderer) Palette() *Palette { return &r.palette }

// Invalidate forces the next Draw to repaint everything.
func (r *Renderer) Invalidate() { r.valid = false }

// Draw paints snap at the screen origin and positions the cursor. It does
// not call Show.
func (r *Renderer) Draw(snap grid.Snapshot) {
	reverse := snap.Modes.Has(grid.ModeReverseVideo)
	full := !r.valid || snap.Rows != r.rows || snap.Cols != r.cols ||
		snap.Offset != r.offset || reverse != r.reverse
	r.rows, r.cols, r.offset, r.reverse, r.valid = snap.Rows, snap.Cols, snap.Offset, reverse, true

	if full {
		for y := 0; y < snap.Rows; y++ {
			r.drawRow(snap, y)
		}
	} else {
		for _, y := range snap.Dirty {
			r.drawRow(snap, y)
		}
	}

	if snap.CursorVisible {
		r.screen.ShowCursor(snap.Cursor.Col, snap.Cursor.Row)
	} else {
		r.screen.HideCursor()
	}
}

func (r *Renderer) drawRow(snap grid.Snapshot, y int) {
	if y < 0 || y >= len(snap.Lines) {
		return
	}
	for x, c := range snap.Lines[y] {
		if c.Continuation {
			continue
		}
		ch := c.Rune
		if c.Empty() {
			ch = ' '
		}
		r.screen.SetContent(x, y, ch, nil, r.palette.Style(c, r.reverse))
	}
}

// CursorStyle maps a DECSCUSR parameter to the tcell cursor shape.
func CursorStyle(style int) tcell.CursorStyle {
	switch style {
	case 1:
		return tcell.CursorStyleBlinkingBlock
	case 2:
		return tcell.CursorStyleSteadyBlock
	case 3:
		return tcell.CursorStyleBlinkingUnderline
	case 4:
		return tcell.CursorStyleSteadyUnderline
	case 5:
		return tcell.CursorStyleBlinkingBar
	case 6:
		return tcell.CursorStyleSteadyBar
	default:
		return tcell.CursorStyleDefault
	}
}
