// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: parser/parser_test.go
// Summary: State machine behaviour: chunking, UTF-8, controls, escapes and strings.

package parser

import (
	"bytes"
	"encoding/base64"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framegrace/ptterm/grid"
)

// chunkCorpus mixes every state: printable text, wide glyphs, SGR, OSC with
// both terminators, DCS, charsets, modes and device queries.
const chunkCorpus = "hello \x1b[1;31mred\x1b[0m\r\n世界 €\x1b]0;title\x07" +
	"\x1b[2;5Hx\x1b[?1049h alt \x1b[?1049l\x1b[38:2::1:2:3mrgb\x1b[38;5;200mp\x1b[6n" +
	"\x1bP1$r\x1b\\\x1b(0lqk\x1b(B\x1b]2;t2\x1b\\ end\x1b[K\x1b[3@ab\x1b[?25l" +
	"\x1b_apc\x1b\\\x1b#8\x1b[4;2r\x1b[?6h\x1b[6n\x1b[?6l\x1b[r\x1b[5;5f\x1b[2X\x1b[c"

type outcome struct {
	snap  grid.Snapshot
	resp  string
	title string
	pen   grid.Pen
	state State
}

func feedChunks(t *testing.T, chunks ...[]byte) outcome {
	t.Helper()
	g, err := grid.New(8, 20, 50)
	require.NoError(t, err)
	var resp bytes.Buffer
	p := New(g, WithResponseWriter(&resp))
	for _, c := range chunks {
		p.Feed(c)
	}
	return outcome{snap: g.Snapshot(0), resp: resp.String(), title: p.Title(), pen: g.Pen(), state: p.State()}
}

func TestSplitFeedEquivalentAtEveryBoundary(t *testing.T) {
	data := []byte(chunkCorpus)
	whole := feedChunks(t, data)
	require.Equal(t, StateGround, whole.state)

	for i := 0; i <= len(data); i++ {
		got := feedChunks(t, data[:i], data[i:])
		require.Equal(t, whole, got, "split at byte %d", i)
	}

	single := make([][]byte, len(data))
	for i := range data {
		single[i] = data[i : i+1]
	}
	assert.Equal(t, whole, feedChunks(t, single...), "byte-at-a-time")
}

func TestUTF8SplitAcrossFeeds(t *testing.T) {
	h := newHarness(t, 2, 10)
	euro := []byte("€")
	h.p.Feed(euro[:1])
	h.p.Feed(euro[1:2])
	h.assertRow(0, "")
	h.p.Feed(euro[2:])
	h.assertRow(0, "€")
}

func TestFlushReplacesDanglingRune(t *testing.T) {
	h := newHarness(t, 2, 10)
	h.p.Feed([]byte("a\xe2\x82"))
	h.assertRow(0, "a")
	h.p.Flush()
	assert.Equal(t, utf8.RuneError, h.cell(0, 1).Rune)
}

func TestFlushDropsUnfinishedSequence(t *testing.T) {
	h := newHarness(t, 2, 10)
	h.send("\x1b[31")
	h.p.Flush()
	assert.Equal(t, StateGround, h.p.State())
	h.send("m")
	h.assertRow(0, "m")
	assert.True(t, h.cell(0, 0).FG.IsDefault())
}

func TestInvalidUTF8BecomesReplacement(t *testing.T) {
	h := newHarness(t, 1, 10)
	h.p.Feed([]byte("a\xffb\xe2(c"))
	assert.Equal(t, "a�b�(c", h.g.RowText(0))
}

func TestC1CodePointsAreIgnored(t *testing.T) {
	h := newHarness(t, 1, 10)
	h.p.Feed([]byte("a\xc2\x85b\xc2\x9bc"))
	h.assertRow(0, "abc")
}

func TestControlCharacters(t *testing.T) {
	var bells int
	h := newHarness(t, 4, 20, WithBellHandler(func() { bells++ }))
	h.send("ab\bc\tX\r\nline2\x07\x0bY")
	h.assertRow(0, "ac      X")
	h.assertRow(1, "line2")
	h.assertRow(2, "     Y")
	assert.Equal(t, 1, bells)
}

func TestLineFeedNewLineMode(t *testing.T) {
	h := newHarness(t, 3, 10)
	h.send("\x1b[20hab\ncd")
	h.assertRow(1, "cd")
	h.send("\x1b[20l\nef")
	h.assertRow(2, "  ef")
}

func TestControlsExecuteInsideCSI(t *testing.T) {
	h := newHarness(t, 3, 10)
	h.send("abc\x1b[\r2Cx")
	h.assertRow(0, "abx")
	h.send("\x1b[1\n;1Hy")
	h.assertRow(0, "ybx")
}

func TestCancelAbortsSequence(t *testing.T) {
	h := newHarness(t, 2, 10)
	h.send("\x1b[31\x18m")
	h.assertRow(0, "m")
	assert.True(t, h.cell(0, 0).FG.IsDefault())
	h.send("\x1b]0;abc\x1adef")
	assert.Equal(t, "", h.p.Title())
	h.assertRow(0, "mdef")
}

func TestUnknownEscapeReturnsToGround(t *testing.T) {
	var seqs []string
	h := newHarness(t, 2, 10, WithUnhandledHandler(func(kind, seq string) {
		seqs = append(seqs, kind+":"+seq)
	}))
	h.send("\x1bQok")
	h.assertRow(0, "ok")
	require.Len(t, seqs, 1)
	assert.Contains(t, seqs[0], "esc:")
}

func TestUnknownCSIFinalIsReported(t *testing.T) {
	var kinds []string
	h := newHarness(t, 2, 10, WithUnhandledHandler(func(kind, seq string) {
		kinds = append(kinds, kind)
		assert.Equal(t, "CSI ?1;2y", seq)
	}))
	h.send("\x1b[?1;2yz")
	h.assertRow(0, "z")
	assert.Equal(t, []string{"csi"}, kinds)
}

func TestNonNumericParameterResetsToDefault(t *testing.T) {
	h := newHarness(t, 5, 10)
	h.send("\x1b[3<;4Hx")
	h.assertCursor(0, 4)
	assert.Equal(t, 'x', h.cell(0, 3).Rune)
}

func TestTooManyParametersAreDropped(t *testing.T) {
	h := newHarness(t, 2, 10)
	seq := "\x1b["
	for i := 0; i < 40; i++ {
		seq += "1;"
	}
	h.send(seq + "31mx")
	assert.Equal(t, grid.AttrBold, h.cell(0, 0).Attr)
	assert.True(t, h.cell(0, 0).FG.IsDefault(), "the 41st parameter is beyond the cap")
}

func TestHugeParameterIsClamped(t *testing.T) {
	h := newHarness(t, 5, 10)
	h.send("\x1b[99999999999999999999Bx")
	h.assertCursor(4, 1)
}

func TestDECSpecialGraphics(t *testing.T) {
	h := newHarness(t, 2, 10)
	h.send("\x1b(0lqqk\x1b(Bq")
	h.assertRow(0, "┌──┐q")

	h.send("\r\n\x1b)0a\x0eq\x0fq")
	h.assertRow(1, "a─q")
}

func TestUKCharset(t *testing.T) {
	h := newHarness(t, 1, 10)
	h.send("\x1b(A#\x1b(B#")
	h.assertRow(0, "£#")
}

func TestSaveRestoreIncludesCharset(t *testing.T) {
	h := newHarness(t, 2, 10)
	h.send("\x1b(0\x1b7\x1b(B\x1b[2;3H\x1b8q")
	h.assertRow(0, "─")
}

func TestDECALN(t *testing.T) {
	h := newHarness(t, 2, 3)
	h.send("\x1b#8")
	h.assertRow(0, "EEE")
	h.assertRow(1, "EEE")
}

func TestOSCTitleTerminators(t *testing.T) {
	var titles, icons []string
	h := newHarness(t, 2, 10,
		WithTitleHandler(func(s string) { titles = append(titles, s) }),
		WithIconHandler(func(s string) { icons = append(icons, s) }),
	)
	h.send("\x1b]0;both\x07")
	h.send("\x1b]2;title only\x1b\\")
	h.send("\x1b]1;icon\x07")
	assert.Equal(t, []string{"both", "title only"}, titles)
	assert.Equal(t, []string{"both", "icon"}, icons)
	assert.Equal(t, "title only", h.p.Title())
	assert.Equal(t, "icon", h.p.IconName())
	h.assertRow(0, "")
}

func TestOSCTerminatedByNewEscape(t *testing.T) {
	h := newHarness(t, 2, 10)
	h.send("\x1b]2;abc\x1b[1mX")
	assert.Equal(t, "abc", h.p.Title())
	assert.Equal(t, grid.AttrBold, h.cell(0, 0).Attr)
}

func TestOSCPayloadIsCapped(t *testing.T) {
	h := newHarness(t, 2, 10)
	long := bytes.Repeat([]byte("a"), MaxStringPayload*2)
	h.send("\x1b]2;" + string(long) + "\x07after")
	assert.Len(t, h.p.Title(), MaxStringPayload-2)
	h.assertRow(0, "after")
}

func TestOSCClipboardLargePayload(t *testing.T) {
	var clips [][]byte
	var unhandled []string
	h := newHarness(t, 2, 10,
		WithClipboardHandler(func(_ string, data []byte) { clips = append(clips, data) }),
		WithUnhandledHandler(func(kind, _ string) { unhandled = append(unhandled, kind) }))

	text := bytes.Repeat([]byte("clipboard "), 1000)
	h.send("\x1b]52;c;" + base64.StdEncoding.EncodeToString(text) + "\x07")
	require.Len(t, clips, 1)
	assert.Equal(t, text, clips[0])
	assert.Empty(t, unhandled)

	huge := bytes.Repeat([]byte("A"), MaxClipboardPayload+8)
	h.send("\x1b]52;c;" + string(huge) + "\x07after")
	assert.Len(t, clips, 1, "an over-long clipboard payload is dropped")
	assert.Equal(t, []string{"osc"}, unhandled)
	h.assertRow(0, "after")
}

func TestOSCWorkingDirectory(t *testing.T) {
	var dirs []string
	h := newHarness(t, 1, 10, WithWorkingDirHandler(func(d string) { dirs = append(dirs, d) }))
	h.send("\x1b]7;file://host/home/user/my%20dir\x07")
	h.send("\x1b]7;/plain/path\x07")
	assert.Equal(t, []string{"/home/user/my dir", "/plain/path"}, dirs)
}

func TestOSCClipboard(t *testing.T) {
	type clip struct {
		sel  string
		data string
	}
	var got []clip
	h := newHarness(t, 1, 10, WithClipboardHandler(func(sel string, data []byte) {
		got = append(got, clip{sel, string(data)})
	}))
	h.send("\x1b]52;c;aGVsbG8=\x07")
	h.send("\x1b]52;;d29ybGQ=\x1b\\")
	h.send("\x1b]52;c;?\x07")
	h.send("\x1b]52;c;!!!\x07")
	assert.Equal(t, []clip{{"c", "hello"}, {"c", "world"}}, got)
}

func TestOSCDefaultColorQueries(t *testing.T) {
	h := newHarness(t, 1, 10, WithDefaultColors(grid.RGBColor(0xff, 0x80, 0x00), grid.RGBColor(0x10, 0x20, 0x30)))
	h.send("\x1b]10;?\x07")
	assert.Equal(t, "\x1b]10;rgb:ffff/8080/0000\x07", h.takeResponse())
	h.send("\x1b]11;?\x1b\\")
	assert.Equal(t, "\x1b]11;rgb:1010/2020/3030\x1b\\", h.takeResponse())

	h.send("\x1b]11;rgb:ff/00/ff\x07\x1b]11;?\x07")
	assert.Equal(t, "\x1b]11;rgb:ffff/0000/ffff\x07", h.takeResponse())
}

func TestParseOSCColor(t *testing.T) {
	tests := []struct {
		in   string
		want grid.Color
		ok   bool
	}{
		{"rgb:ffff/0000/8080", grid.RGBColor(255, 0, 128), true},
		{"rgb:f/0/8", grid.RGBColor(255, 0, 136), true},
		{"#102030", grid.RGBColor(0x10, 0x20, 0x30), true},
		{"rgb:ff/00", grid.Color{}, false},
		{"red", grid.Color{}, false},
		{"rgb:zz/00/00", grid.Color{}, false},
	}
	for _, tt := range tests {
		got, ok := parseOSCColor(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}

func TestDCSAndIgnoredStringsAreConsumed(t *testing.T) {
	h := newHarness(t, 1, 20)
	h.send("a\x1bP1$r0m\x1b\\b\x1bXsos\x1b\\c\x1b^pm\x1b\\d\x1b_apc\x07still\x1b\\e")
	h.assertRow(0, "abcde")
	assert.Equal(t, StateGround, h.p.State())
}

func TestStrayStringTerminatorIgnored(t *testing.T) {
	h := newHarness(t, 1, 10)
	h.send("a\x1b\\b")
	h.assertRow(0, "ab")
}

func TestFullReset(t *testing.T) {
	var visible []bool
	h := newHarness(t, 3, 10, WithCursorVisibilityHandler(func(v bool) { visible = append(visible, v) }))
	h.send("text\x1b[1m\x1b[?25l\x1b(0")
	h.send("\x1bcq")
	h.assertRow(0, "q")
	assert.Equal(t, grid.DefaultPen, h.g.Pen())
	assert.Equal(t, []bool{false, true}, visible)
}

func TestResizeBetweenFeedsInsideSequence(t *testing.T) {
	h := newHarness(t, 10, 20)
	h.send("\x1b[8;3")
	require.NoError(t, h.g.Resize(5, 10))
	h.send("1HX")
	assert.Equal(t, StateGround, h.p.State())
	h.assertCursor(4, 9)
	assert.Equal(t, 'X', h.cell(4, 9).Rune)
}
