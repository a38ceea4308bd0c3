// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: parser/harness_test.go
// Summary: Test harness feeding sequences into a parser bound to a fresh grid.
// Usage: h := newHarness(t, 24, 80); h.send("\x1b[5A"); h.assertRow(0, "text").

package parser

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framegrace/ptterm/grid"
)

type harness struct {
	t    *testing.T
	g    *grid.Grid
	p    *Parser
	resp bytes.Buffer
}

func newHarness(t *testing.T, rows, cols int, opts ...Option) *harness {
	t.Helper()
	g, err := grid.New(rows, cols, 100)
	require.NoError(t, err)
	h := &harness{t: t, g: g}
	opts = append([]Option{WithResponseWriter(&h.resp)}, opts...)
	h.p = New(g, opts...)
	return h
}

// send feeds seq in one chunk.
func (h *harness) send(seq string) {
	h.p.Feed([]byte(seq))
}

func (h *harness) cell(row, col int) grid.Cell {
	return h.g.Cell(row, col)
}

func (h *harness) cursor() grid.Cursor {
	return h.g.Cursor()
}

func (h *harness) assertRow(row int, want string) {
	h.t.Helper()
	assert.Equal(h.t, want, h.g.RowText(row), "row %d", row)
}

func (h *harness) assertCursor(row, col int) {
	h.t.Helper()
	assert.Equal(h.t, grid.Cursor{Row: row, Col: col}, h.g.Cursor())
}

// takeResponse returns and clears everything written back to the child.
func (h *harness) takeResponse() string {
	s := h.resp.String()
	h.resp.Reset()
	return s
}
