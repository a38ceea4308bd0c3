// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: grid/erase.go
// Summary: Erase and in-line insert/delete primitives.
// Notes: Erased cells take the pen's background. A wide glyph cut in half by
// a range operation loses both halves.

package grid

// clearCells blanks [from, to) on row and repairs wide glyphs straddling the
// range edges.
func (g *Grid) clearCells(row, from, to int) {
	from = clamp(from, 0, g.cols)
	to = clamp(to, 0, g.cols)
	if from >= to {
		return
	}
	line := g.lines[row]
	b := blankCell(g.pen)
	for i := from; i < to; i++ {
		line[i] = b
	}
	g.fixWideEdges(line, from, to)
	g.markDirty(row)
}

func (g *Grid) fixWideEdges(line []Cell, from, to int) {
	if from > 0 && line[from-1].Wide {
		line[from-1] = blankCell(g.pen)
	}
	if to < len(line) && line[to].Continuation {
		line[to] = blankCell(g.pen)
	}
}

// EraseInLine clears part of the cursor row (EL): 0 cursor to end, 1 start
// to cursor, 2 whole row.
func (g *Grid) EraseInLine(mode int) {
	r, c := g.cursor.Row, g.cursor.Col
	switch mode {
	case 0:
		g.clearCells(r, c, g.cols)
	case 1:
		g.clearCells(r, 0, c+1)
	case 2:
		g.clearCells(r, 0, g.cols)
	}
	g.wrapNext = false
}

// EraseInDisplay clears part of the screen (ED): 0 cursor to end, 1 start to
// cursor, 2 whole screen, 3 scrollback only.
func (g *Grid) EraseInDisplay(mode int) {
	r, c := g.cursor.Row, g.cursor.Col
	switch mode {
	case 0:
		g.clearCells(r, c, g.cols)
		for i := r + 1; i < g.rows; i++ {
			g.clearCells(i, 0, g.cols)
		}
	case 1:
		for i := 0; i < r; i++ {
			g.clearCells(i, 0, g.cols)
		}
		g.clearCells(r, 0, c+1)
	case 2:
		for i := 0; i < g.rows; i++ {
			g.clearCells(i, 0, g.cols)
		}
	case 3:
		g.scrollback.Clear()
		return
	default:
		return
	}
	g.wrapNext = false
}

// EraseChars blanks n cells from the cursor without moving it (ECH).
func (g *Grid) EraseChars(n int) {
	if n < 1 {
		n = 1
	}
	g.clearCells(g.cursor.Row, g.cursor.Col, g.cursor.Col+n)
	g.wrapNext = false
}

// InsertChars shifts the rest of the row right by n cells from the cursor,
// dropping cells past the right margin (ICH).
func (g *Grid) InsertChars(n int) {
	if n < 1 {
		n = 1
	}
	g.shiftRight(g.cursor.Row, g.cursor.Col, n)
	g.wrapNext = false
}

func (g *Grid) shiftRight(row, col, n int) {
	line := g.lines[row]
	n = min(n, g.cols-col)
	if n <= 0 {
		return
	}
	// A wide glyph split at the insertion point or pushed across the margin
	// cannot survive.
	if line[col].Continuation && col > 0 {
		line[col-1] = blankCell(g.pen)
		line[col] = blankCell(g.pen)
	}
	if last := g.cols - n - 1; last >= col && line[last].Wide {
		line[last] = blankCell(g.pen)
	}
	copy(line[col+n:], line[col:g.cols-n])
	b := blankCell(g.pen)
	for i := col; i < col+n; i++ {
		line[i] = b
	}
	g.markDirty(row)
}

// DeleteChars removes n cells at the cursor, shifting the rest of the row
// left and blanking the freed cells at the right margin (DCH).
func (g *Grid) DeleteChars(n int) {
	if n < 1 {
		n = 1
	}
	r, col := g.cursor.Row, g.cursor.Col
	line := g.lines[r]
	n = min(n, g.cols-col)
	if line[col].Continuation && col > 0 {
		line[col-1] = blankCell(g.pen)
	}
	if end := col + n; end < g.cols && line[end].Continuation {
		line[end] = blankCell(g.pen)
	}
	copy(line[col:], line[col+n:])
	b := blankCell(g.pen)
	for i := g.cols - n; i < g.cols; i++ {
		line[i] = b
	}
	g.wrapNext = false
	g.markDirty(r)
}
