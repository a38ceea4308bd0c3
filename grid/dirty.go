// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: grid/dirty.go
// Summary: Row-level dirty tracking between snapshots.

package grid

func (g *Grid) markDirty(row int) {
	if row < 0 || row >= g.rows || g.dirty[row] {
		return
	}
	g.dirty[row] = true
	g.dirtyCount++
}

func (g *Grid) markRange(from, to int) {
	for r := from; r <= to; r++ {
		g.markDirty(r)
	}
}

func (g *Grid) markAll() {
	g.markRange(0, g.rows-1)
}

// IsDirty reports whether row changed since the last snapshot.
func (g *Grid) IsDirty(row int) bool {
	return row >= 0 && row < g.rows && g.dirty[row]
}

// DirtyRows returns the sorted dirty rows without clearing them.
func (g *Grid) DirtyRows() []int {
	out := make([]int, 0, g.dirtyCount)
	for r, d := range g.dirty {
		if d {
			out = append(out, r)
		}
	}
	return out
}

// MarkAllDirty forces every row to be reported by the next snapshot.
func (g *Grid) MarkAllDirty() { g.markAll() }

func (g *Grid) clearDirty() {
	if g.dirtyCount == 0 {
		return
	}
	for i := range g.dirty {
		g.dirty[i] = false
	}
	g.dirtyCount = 0
}
