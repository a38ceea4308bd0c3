// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: grid/grid.go
// Summary: Screen model of a terminal: cells, cursor, pen, modes and margins.
// Usage: Mutated by the escape interpreter through its primitives; read by
// renderers through Snapshot and the peek accessors.
// Notes: Grid is not safe for concurrent use; the owner serialises access.

package grid

import (
	"errors"
	"strings"

	"github.com/mattn/go-runewidth"
)

// ErrInvalidDimensions is returned for non-positive sizes.
var ErrInvalidDimensions = errors.New("grid: invalid dimensions")

// Cursor is a zero-based screen position.
type Cursor struct {
	Row, Col int
}

type savedCursor struct {
	valid    bool
	pos      Cursor
	pen      Pen
	origin   bool
	autoWrap bool
	wrapNext bool
}

// Grid is a rows×cols matrix of cells plus the terminal state that governs
// how writes land in it.
type Grid struct {
	rows, cols int

	primary   [][]Cell
	alternate [][]Cell
	lines     [][]Cell // active buffer, primary or alternate

	cursor   Cursor
	wrapNext bool
	pen      Pen
	modes    Mode

	top, bottom int // scroll region, inclusive

	tabStops []bool
	saved    [2]savedCursor // indexed by screen: 0 primary, 1 alternate

	scrollback *Scrollback
	dirty      []bool
	dirtyCount int
}

// New creates a grid of the given size. scrollback bounds the number of rows
// kept above the primary screen (zero disables it, negative selects the
// default). Non-positive dimensions return ErrInvalidDimensions.
func New(rows, cols, scrollback int) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrInvalidDimensions
	}
	g := &Grid{
		rows:       rows,
		cols:       cols,
		modes:      DefaultModes,
		bottom:     rows - 1,
		scrollback: NewScrollback(scrollback),
	}
	g.primary = g.newBuffer(rows)
	g.lines = g.primary
	g.dirty = make([]bool, rows)
	g.resetTabStops()
	g.markAll()
	return g, nil
}

func (g *Grid) newRow() []Cell {
	row := make([]Cell, g.cols)
	if !g.pen.BG.IsDefault() {
		fillBlank(row, g.pen)
	}
	return row
}

func (g *Grid) newBuffer(rows int) [][]Cell {
	buf := make([][]Cell, rows)
	for i := range buf {
		buf[i] = g.newRow()
	}
	return buf
}

// recycle turns a row handed back by the scrollback ring into a blank row,
// allocating when its width no longer matches.
func (g *Grid) recycle(row []Cell) []Cell {
	if cap(row) < g.cols {
		return g.newRow()
	}
	row = row[:g.cols]
	fillBlank(row, g.pen)
	return row
}

func fillBlank(row []Cell, p Pen) {
	b := blankCell(p)
	for i := range row {
		row[i] = b
	}
}

func (g *Grid) screen() int {
	if g.modes&ModeAltScreen != 0 {
		return 1
	}
	return 0
}

// Size returns the grid dimensions.
func (g *Grid) Size() (rows, cols int) { return g.rows, g.cols }

// Cursor returns the cursor position.
func (g *Grid) Cursor() Cursor { return g.cursor }

// WrapPending reports whether the cursor sits past the last column waiting for
// the next printable rune to wrap.
func (g *Grid) WrapPending() bool { return g.wrapNext }

// Cell returns the cell at (row, col), or an empty cell when out of range.
func (g *Grid) Cell(row, col int) Cell {
	if row < 0 || row >= g.rows || col < 0 || col >= g.cols {
		return Cell{}
	}
	return g.lines[row][col]
}

// Row returns a copy of a visible row.
func (g *Grid) Row(row int) []Cell {
	if row < 0 || row >= g.rows {
		return nil
	}
	out := make([]Cell, g.cols)
	copy(out, g.lines[row])
	return out
}

// RowText returns the visible text of a row with trailing blanks trimmed.
func (g *Grid) RowText(row int) string {
	if row < 0 || row >= g.rows {
		return ""
	}
	return rowText(g.lines[row])
}

func rowText(row []Cell) string {
	var sb strings.Builder
	for _, c := range row {
		switch {
		case c.Continuation:
		case c.Rune == 0:
			sb.WriteByte(' ')
		default:
			sb.WriteRune(c.Rune)
		}
	}
	return strings.TrimRight(sb.String(), " ")
}

// ScrollbackLen returns the number of rows held in scrollback.
func (g *Grid) ScrollbackLen() int { return g.scrollback.Len() }

// ScrollbackRow returns a copy of scrollback row i, 0 being the oldest.
func (g *Grid) ScrollbackRow(i int) []Cell {
	src := g.scrollback.Row(i)
	if src == nil {
		return nil
	}
	out := make([]Cell, len(src))
	copy(out, src)
	return out
}

// Pen returns the current graphic rendition.
func (g *Grid) Pen() Pen { return g.pen }

// SetPen replaces the current graphic rendition.
func (g *Grid) SetPen(p Pen) { g.pen = p }

// ScrollRegion returns the inclusive top and bottom rows of the scroll region.
func (g *Grid) ScrollRegion() (top, bottom int) { return g.top, g.bottom }

// Put writes r at the cursor with the current pen and advances the cursor.
// Double-width runes occupy two cells; zero-width runes are dropped.
func (g *Grid) Put(r rune) {
	w := runewidth.RuneWidth(r)
	if w == 0 {
		return
	}
	if w > 1 && g.cols < 2 {
		w = 1
	}

	autoWrap := g.modes&ModeAutoWrap != 0
	if g.wrapNext {
		g.wrapNext = false
		if autoWrap {
			g.wrapLine()
		}
	}

	if w == 2 && g.cursor.Col == g.cols-1 {
		if autoWrap {
			g.clearCells(g.cursor.Row, g.cursor.Col, g.cols)
			g.wrapLine()
		} else {
			g.cursor.Col = g.cols - 2
		}
	}

	row := g.lines[g.cursor.Row]
	col := g.cursor.Col
	if g.modes&ModeInsert != 0 {
		g.shiftRight(g.cursor.Row, col, w)
	}

	g.breakWide(row, col)
	if w == 2 {
		g.breakWide(row, col+1)
	}
	row[col] = Cell{Rune: r, FG: g.pen.FG, BG: g.pen.BG, Attr: g.pen.Attr, Wide: w == 2}
	if w == 2 {
		row[col+1] = Cell{FG: g.pen.FG, BG: g.pen.BG, Attr: g.pen.Attr, Continuation: true}
	}
	g.markDirty(g.cursor.Row)

	if col+w >= g.cols {
		g.cursor.Col = g.cols - 1
		g.wrapNext = autoWrap
		return
	}
	g.cursor.Col = col + w
}

// breakWide blanks the partner half of a wide glyph about to lose its other
// half at col.
func (g *Grid) breakWide(row []Cell, col int) {
	c := row[col]
	switch {
	case c.Wide && col+1 < len(row):
		row[col+1] = blankCell(g.pen)
	case c.Continuation && col > 0:
		row[col-1] = blankCell(g.pen)
	}
}

func (g *Grid) wrapLine() {
	g.cursor.Col = 0
	g.LineFeed()
}

// Fill covers the screen with r using the default pen, resets the margins
// and homes the cursor (DECALN).
func (g *Grid) Fill(r rune) {
	for _, row := range g.lines {
		for i := range row {
			row[i] = Cell{Rune: r}
		}
	}
	g.top, g.bottom = 0, g.rows-1
	g.cursor = Cursor{}
	g.wrapNext = false
	g.markAll()
}

// Mode reports whether every flag in m is set.
func (g *Grid) Mode(m Mode) bool { return g.modes.Has(m) }

// Modes returns the full mode set.
func (g *Grid) Modes() Mode { return g.modes }

// SetMode turns the flags in m on or off. ModeAltScreen switches buffers;
// ModeOrigin homes the cursor.
func (g *Grid) SetMode(m Mode, on bool) {
	if m&ModeAltScreen != 0 {
		if on {
			g.EnterAltScreen()
		} else {
			g.ExitAltScreen()
		}
		m &^= ModeAltScreen
	}
	if m == 0 {
		return
	}
	prev := g.modes
	if on {
		g.modes |= m
	} else {
		g.modes &^= m
	}
	changed := prev ^ g.modes
	if changed&ModeOrigin != 0 {
		g.MoveTo(0, 0)
	}
	if changed&ModeReverseVideo != 0 {
		g.markAll()
	}
	if changed&ModeCursorVisible != 0 {
		g.markDirty(g.cursor.Row)
	}
	if changed&ModeAutoWrap != 0 && !on {
		g.wrapNext = false
	}
}

// EnterAltScreen switches to a blank alternate buffer. The primary buffer is
// kept untouched until ExitAltScreen.
func (g *Grid) EnterAltScreen() {
	if g.modes&ModeAltScreen != 0 {
		return
	}
	g.alternate = g.newBuffer(g.rows)
	g.lines = g.alternate
	g.modes |= ModeAltScreen
	g.saved[1] = savedCursor{}
	g.markAll()
}

// ExitAltScreen returns to the primary buffer and discards the alternate one.
func (g *Grid) ExitAltScreen() {
	if g.modes&ModeAltScreen == 0 {
		return
	}
	g.lines = g.primary
	g.alternate = nil
	g.modes &^= ModeAltScreen
	g.clampCursor()
	g.markAll()
}

// SaveCursor stores position, pen and wrap state for the active screen
// (DECSC).
func (g *Grid) SaveCursor() {
	g.saved[g.screen()] = savedCursor{
		valid:    true,
		pos:      g.cursor,
		pen:      g.pen,
		origin:   g.modes&ModeOrigin != 0,
		autoWrap: g.modes&ModeAutoWrap != 0,
		wrapNext: g.wrapNext,
	}
}

// RestoreCursor restores what SaveCursor stored for the active screen, or
// homes the cursor with the default pen when nothing was saved (DECRC).
func (g *Grid) RestoreCursor() {
	s := g.saved[g.screen()]
	old := g.cursor.Row
	if !s.valid {
		g.cursor = Cursor{}
		g.pen = DefaultPen
		g.modes &^= ModeOrigin
		g.wrapNext = false
	} else {
		g.cursor = s.pos
		g.pen = s.pen
		g.setFlag(ModeOrigin, s.origin)
		g.setFlag(ModeAutoWrap, s.autoWrap)
		g.wrapNext = s.wrapNext
	}
	g.clampCursor()
	g.markDirty(old)
	g.markDirty(g.cursor.Row)
}

func (g *Grid) setFlag(m Mode, on bool) {
	if on {
		g.modes |= m
	} else {
		g.modes &^= m
	}
}

// SoftReset restores modes, pen, margins and saved cursors to their defaults
// without touching screen contents (DECSTR).
func (g *Grid) SoftReset() {
	keep := g.modes & (ModeAltScreen | ModeReverseVideo)
	g.modes = DefaultModes | keep
	g.pen = DefaultPen
	g.top, g.bottom = 0, g.rows-1
	g.saved = [2]savedCursor{}
	g.wrapNext = false
	g.markDirty(g.cursor.Row)
}

// Reset returns the grid to its initial state: primary screen cleared,
// default modes, pen, margins and tab stops. Scrollback is kept (RIS).
func (g *Grid) Reset() {
	g.lines = g.primary
	g.alternate = nil
	g.modes = DefaultModes
	g.pen = DefaultPen
	g.top, g.bottom = 0, g.rows-1
	g.saved = [2]savedCursor{}
	g.cursor = Cursor{}
	g.wrapNext = false
	for _, row := range g.primary {
		fillBlank(row, g.pen)
	}
	g.resetTabStops()
	g.markAll()
}

func (g *Grid) clampCursor() {
	g.cursor.Row = clamp(g.cursor.Row, 0, g.rows-1)
	g.cursor.Col = clamp(g.cursor.Col, 0, g.cols-1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
