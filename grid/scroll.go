// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: grid/scroll.go
// Summary: Line feed, index and scroll region primitives.
// Notes: Only the primary screen scrolling from row zero feeds scrollback.

package grid

// LineFeed moves the cursor down one row, scrolling the region when the
// cursor is on its bottom margin.
func (g *Grid) LineFeed() {
	g.wrapNext = false
	switch {
	case g.cursor.Row == g.bottom:
		g.ScrollUp(1)
	case g.cursor.Row < g.rows-1:
		g.cursor.Row++
		g.markDirty(g.cursor.Row - 1)
		g.markDirty(g.cursor.Row)
	}
}

// ReverseIndex moves the cursor up one row, scrolling the region down when
// the cursor is on its top margin (RI).
func (g *Grid) ReverseIndex() {
	g.wrapNext = false
	switch {
	case g.cursor.Row == g.top:
		g.ScrollDown(1)
	case g.cursor.Row > 0:
		g.cursor.Row--
		g.markDirty(g.cursor.Row + 1)
		g.markDirty(g.cursor.Row)
	}
}

// ScrollUp moves the contents of the scroll region up n rows, blank rows
// entering at the bottom.
func (g *Grid) ScrollUp(n int) {
	height := g.bottom - g.top + 1
	n = min(n, height)
	if n <= 0 {
		return
	}
	feed := g.top == 0 && g.modes&ModeAltScreen == 0
	for i := 0; i < n; i++ {
		evicted := g.lines[g.top]
		copy(g.lines[g.top:g.bottom], g.lines[g.top+1:g.bottom+1])
		var fresh []Cell
		if feed {
			fresh = g.scrollback.Push(evicted)
		} else {
			fresh = evicted
		}
		if fresh == nil {
			g.lines[g.bottom] = g.newRow()
		} else {
			g.lines[g.bottom] = g.recycle(fresh)
		}
	}
	g.markRange(g.top, g.bottom)
}

// ScrollDown moves the contents of the scroll region down n rows, blank rows
// entering at the top. Rows pushed off the bottom are discarded.
func (g *Grid) ScrollDown(n int) {
	g.shiftDown(g.top, n)
}

func (g *Grid) shiftDown(from, n int) {
	height := g.bottom - from + 1
	n = min(n, height)
	if n <= 0 {
		return
	}
	for i := 0; i < n; i++ {
		last := g.lines[g.bottom]
		copy(g.lines[from+1:g.bottom+1], g.lines[from:g.bottom])
		g.lines[from] = g.recycle(last)
	}
	g.markRange(from, g.bottom)
}

func (g *Grid) shiftUp(from, n int) {
	height := g.bottom - from + 1
	n = min(n, height)
	if n <= 0 {
		return
	}
	for i := 0; i < n; i++ {
		first := g.lines[from]
		copy(g.lines[from:g.bottom], g.lines[from+1:g.bottom+1])
		g.lines[g.bottom] = g.recycle(first)
	}
	g.markRange(from, g.bottom)
}

// InsertLines inserts n blank rows at the cursor row, pushing the rows below
// it down within the scroll region (IL). Ignored outside the region.
func (g *Grid) InsertLines(n int) {
	if g.cursor.Row < g.top || g.cursor.Row > g.bottom {
		return
	}
	g.shiftDown(g.cursor.Row, n)
	g.cursor.Col = 0
	g.wrapNext = false
}

// DeleteLines removes n rows at the cursor row, pulling the rows below it up
// within the scroll region (DL). Ignored outside the region.
func (g *Grid) DeleteLines(n int) {
	if g.cursor.Row < g.top || g.cursor.Row > g.bottom {
		return
	}
	g.shiftUp(g.cursor.Row, n)
	g.cursor.Col = 0
	g.wrapNext = false
}

// SetScrollRegion sets the inclusive scroll margins and homes the cursor
// (DECSTBM). Invalid regions (top >= bottom) are ignored.
func (g *Grid) SetScrollRegion(top, bottom int) {
	top = clamp(top, 0, g.rows-1)
	bottom = clamp(bottom, 0, g.rows-1)
	if top >= bottom {
		return
	}
	g.top, g.bottom = top, bottom
	g.MoveTo(0, 0)
}

// ResetScrollRegion restores full-screen margins without moving the cursor.
func (g *Grid) ResetScrollRegion() {
	g.top, g.bottom = 0, g.rows-1
}
