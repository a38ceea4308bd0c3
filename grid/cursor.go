// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: grid/cursor.go
// Summary: Cursor movement and tab stop primitives.

package grid

const tabWidth = 8

// MoveTo places the cursor at (row, col). In origin mode row is relative to
// the scroll region and confined to it.
func (g *Grid) MoveTo(row, col int) {
	old := g.cursor.Row
	if g.modes&ModeOrigin != 0 {
		row = clamp(row+g.top, g.top, g.bottom)
	} else {
		row = clamp(row, 0, g.rows-1)
	}
	g.cursor = Cursor{Row: row, Col: clamp(col, 0, g.cols-1)}
	g.wrapNext = false
	g.markDirty(old)
	g.markDirty(row)
}

// MoveBy moves the cursor relative to its position. Vertical moves stop at
// the scroll region margins when the cursor starts inside the region.
func (g *Grid) MoveBy(dRow, dCol int) {
	old := g.cursor.Row
	row := g.cursor.Row + dRow
	switch {
	case dRow < 0:
		lo := 0
		if g.cursor.Row >= g.top {
			lo = g.top
		}
		row = max(row, lo)
	case dRow > 0:
		hi := g.rows - 1
		if g.cursor.Row <= g.bottom {
			hi = g.bottom
		}
		row = min(row, hi)
	}
	g.cursor.Row = row
	g.cursor.Col = clamp(g.cursor.Col+dCol, 0, g.cols-1)
	g.wrapNext = false
	g.markDirty(old)
	g.markDirty(row)
}

// SetCol moves the cursor to an absolute column on the current row.
func (g *Grid) SetCol(col int) {
	g.cursor.Col = clamp(col, 0, g.cols-1)
	g.wrapNext = false
	g.markDirty(g.cursor.Row)
}

// SetRow moves the cursor to a row keeping its column, honouring origin mode.
func (g *Grid) SetRow(row int) {
	g.MoveTo(row, g.cursor.Col)
}

// CarriageReturn moves the cursor to column zero.
func (g *Grid) CarriageReturn() {
	g.cursor.Col = 0
	g.wrapNext = false
}

// Backspace moves the cursor one column left, stopping at column zero.
func (g *Grid) Backspace() {
	if g.wrapNext {
		g.wrapNext = false
		return
	}
	if g.cursor.Col > 0 {
		g.cursor.Col--
	}
}

// Tab advances the cursor to the n-th next tab stop or the last column.
func (g *Grid) Tab(n int) {
	col := g.cursor.Col
	for ; n > 0 && col < g.cols-1; n-- {
		col++
		for col < g.cols-1 && !g.tabStops[col] {
			col++
		}
	}
	g.cursor.Col = col
	g.wrapNext = false
}

// BackTab moves the cursor to the n-th previous tab stop or column zero.
func (g *Grid) BackTab(n int) {
	col := g.cursor.Col
	for ; n > 0 && col > 0; n-- {
		col--
		for col > 0 && !g.tabStops[col] {
			col--
		}
	}
	g.cursor.Col = col
	g.wrapNext = false
}

// SetTabStop sets a tab stop at the cursor column (HTS).
func (g *Grid) SetTabStop() {
	g.tabStops[g.cursor.Col] = true
}

// ClearTabStop removes the tab stop at the cursor column (TBC 0).
func (g *Grid) ClearTabStop() {
	g.tabStops[g.cursor.Col] = false
}

// ClearAllTabStops removes every tab stop (TBC 3).
func (g *Grid) ClearAllTabStops() {
	for i := range g.tabStops {
		g.tabStops[i] = false
	}
}

func (g *Grid) resetTabStops() {
	g.tabStops = make([]bool, g.cols)
	for i := tabWidth; i < g.cols; i += tabWidth {
		g.tabStops[i] = true
	}
}

// resizeTabStops keeps existing stops and extends the default spacing into
// new columns.
func (g *Grid) resizeTabStops(cols int) {
	stops := make([]bool, cols)
	copy(stops, g.tabStops)
	for i := len(g.tabStops); i < cols; i++ {
		stops[i] = i%tabWidth == 0 && i > 0
	}
	g.tabStops = stops
}
