// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: grid/scrollback.go
// Summary: Bounded ring of rows evicted off the top of the primary screen.
// Usage: Fed by Grid scroll operations, read through snapshots.
// Notes: Once full, the oldest row is overwritten and its backing array is
// handed back to the grid for reuse.

package grid

// DefaultScrollback is the number of rows kept when no limit is configured.
const DefaultScrollback = 2000

// Scrollback is a fixed-capacity ring of rows. Index 0 is the oldest row.
type Scrollback struct {
	rows  [][]Cell
	head  int // slot of the oldest row once the ring is full
	count int
	limit int
}

// NewScrollback creates a ring holding at most limit rows. A limit of zero
// disables scrollback; a negative limit selects DefaultScrollback.
func NewScrollback(limit int) *Scrollback {
	if limit < 0 {
		limit = DefaultScrollback
	}
	initial := limit
	if initial > 256 {
		initial = 256
	}
	return &Scrollback{
		rows:  make([][]Cell, 0, initial),
		limit: limit,
	}
}

// Push appends row as the newest entry and takes ownership of it. When the
// ring is full the evicted oldest row is returned so the caller can reuse its
// storage; otherwise Push returns nil. With a zero limit row itself is
// returned.
func (s *Scrollback) Push(row []Cell) []Cell {
	if s.limit == 0 {
		return row
	}
	if s.count < s.limit {
		s.rows = append(s.rows, row)
		s.count++
		return nil
	}
	evicted := s.rows[s.head]
	s.rows[s.head] = row
	s.head = (s.head + 1) % s.limit
	return evicted
}

// Len returns the number of stored rows.
func (s *Scrollback) Len() int { return s.count }

// Cap returns the maximum number of rows the ring holds.
func (s *Scrollback) Cap() int { return s.limit }

// Row returns stored row i, 0 being the oldest. The slice must not be
// modified. Out-of-range indexes return nil.
func (s *Scrollback) Row(i int) []Cell {
	if i < 0 || i >= s.count {
		return nil
	}
	if s.count < s.limit {
		return s.rows[i]
	}
	return s.rows[(s.head+i)%s.limit]
}

// Clear drops all rows.
func (s *Scrollback) Clear() {
	for i := range s.rows {
		s.rows[i] = nil
	}
	s.rows = s.rows[:0]
	s.head = 0
	s.count = 0
}
