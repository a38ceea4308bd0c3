// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: grid/resize.go
// Summary: Grid resizing for both screen buffers.
// Notes: Shrinking drops blank rows below the cursor first, then evicts rows
// off the top (into scrollback for the primary screen) so the cursor row stays
// visible.

package grid

// Resize changes the grid to rows×cols. Margins reset to the full grid and
// the cursor is clamped into bounds.
func (g *Grid) Resize(rows, cols int) error {
	if rows <= 0 || cols <= 0 {
		return ErrInvalidDimensions
	}
	if rows == g.rows && cols == g.cols {
		return nil
	}
	alt := g.modes&ModeAltScreen != 0

	if cols != g.cols {
		g.primary = g.resizeWidth(g.primary, cols)
		if g.alternate != nil {
			g.alternate = g.resizeWidth(g.alternate, cols)
		}
		g.resizeTabStops(cols)
		g.cols = cols
	}

	if rows != g.rows {
		primaryCursor := g.cursor.Row
		if alt {
			primaryCursor = g.rows - 1
			if g.saved[0].valid {
				primaryCursor = g.saved[0].pos.Row
			}
		}
		var shift int
		g.primary, shift = g.resizeHeight(g.primary, rows, primaryCursor, true)
		g.saved[0].pos.Row -= shift
		if alt {
			var altShift int
			g.alternate, altShift = g.resizeHeight(g.alternate, rows, g.cursor.Row, false)
			g.cursor.Row -= altShift
			g.saved[1].pos.Row -= altShift
		} else {
			g.cursor.Row -= shift
		}
		g.rows = rows
		g.dirty = make([]bool, rows)
		g.dirtyCount = 0
	}

	if alt {
		g.lines = g.alternate
	} else {
		g.lines = g.primary
	}
	g.top, g.bottom = 0, g.rows-1
	g.wrapNext = false
	g.clampCursor()
	for i := range g.saved {
		g.saved[i].pos.Row = clamp(g.saved[i].pos.Row, 0, g.rows-1)
		g.saved[i].pos.Col = clamp(g.saved[i].pos.Col, 0, g.cols-1)
		g.saved[i].wrapNext = false
	}
	g.markAll()
	return nil
}

func (g *Grid) resizeWidth(buf [][]Cell, cols int) [][]Cell {
	b := blankCell(DefaultPen)
	for i, row := range buf {
		if cols < len(row) {
			row = row[:cols]
			if row[cols-1].Wide {
				row[cols-1] = b
			}
		} else {
			for len(row) < cols {
				row = append(row, b)
			}
		}
		buf[i] = row
	}
	return buf
}

// resizeHeight returns the buffer at the new height and the number of rows
// removed from its top.
func (g *Grid) resizeHeight(buf [][]Cell, rows, cursorRow int, feed bool) ([][]Cell, int) {
	if rows > len(buf) {
		for len(buf) < rows {
			buf = append(buf, make([]Cell, g.cols))
		}
		return buf, 0
	}
	for len(buf) > rows && len(buf)-1 > cursorRow && rowBlank(buf[len(buf)-1]) {
		buf = buf[:len(buf)-1]
	}
	excess := len(buf) - rows
	if excess <= 0 {
		return buf, 0
	}
	if feed {
		for _, row := range buf[:excess] {
			g.scrollback.Push(row)
		}
	}
	out := make([][]Cell, rows)
	copy(out, buf[excess:])
	return out, excess
}

func rowBlank(row []Cell) bool {
	for _, c := range row {
		if !c.Empty() {
			return false
		}
	}
	return true
}
