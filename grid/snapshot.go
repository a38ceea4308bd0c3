// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: grid/snapshot.go
// Summary: Immutable copies of the visible screen for renderers.
// Usage: Grid.Snapshot is the only read that consumes the dirty set.

package grid

import "strings"

// Snapshot is a deep copy of what a terminal displays at one instant.
type Snapshot struct {
	Rows, Cols    int
	Lines         [][]Cell
	Cursor        Cursor
	CursorVisible bool
	Modes         Mode
	// Offset is the number of scrollback rows shown above the live screen.
	Offset        int
	ScrollbackLen int
	// Dirty lists, in ascending order, the view rows that changed since the
	// previous snapshot.
	Dirty []int
}

// Snapshot copies the visible rows, with offset scrollback rows shown at the
// top, and clears the dirty set. offset is clamped to the scrollback length.
func (g *Grid) Snapshot(offset int) Snapshot {
	sbLen := g.scrollback.Len()
	offset = clamp(offset, 0, sbLen)

	s := Snapshot{
		Rows:          g.rows,
		Cols:          g.cols,
		Lines:         make([][]Cell, g.rows),
		Modes:         g.modes,
		Offset:        offset,
		ScrollbackLen: sbLen,
		Cursor:        Cursor{Row: g.cursor.Row + offset, Col: g.cursor.Col},
	}
	s.CursorVisible = g.modes&ModeCursorVisible != 0 && s.Cursor.Row < g.rows

	for i := 0; i < g.rows; i++ {
		v := sbLen - offset + i
		line := make([]Cell, g.cols)
		if v < sbLen {
			copy(line, g.scrollback.Row(v))
			if g.cols > 0 && line[g.cols-1].Wide {
				line[g.cols-1] = Cell{}
			}
		} else {
			copy(line, g.lines[v-sbLen])
		}
		s.Lines[i] = line
	}

	s.Dirty = make([]int, 0, g.dirtyCount)
	for r, d := range g.dirty {
		if d && r+offset < g.rows {
			s.Dirty = append(s.Dirty, r+offset)
		}
	}
	g.clearDirty()
	return s
}

// Cell returns the cell at (row, col) of the snapshot.
func (s Snapshot) Cell(row, col int) Cell {
	if row < 0 || row >= len(s.Lines) || col < 0 || col >= len(s.Lines[row]) {
		return Cell{}
	}
	return s.Lines[row][col]
}

// Text returns the text of one row with trailing blanks trimmed.
func (s Snapshot) Text(row int) string {
	if row < 0 || row >= len(s.Lines) {
		return ""
	}
	return rowText(s.Lines[row])
}

// String renders every row as text, one per line.
func (s Snapshot) String() string {
	var sb strings.Builder
	for i := range s.Lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(s.Text(i))
	}
	return sb.String()
}
