// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: parser/parser.go
// Summary: Streaming VT/ANSI escape sequence interpreter driving a grid.
// Usage: Feed child output in arbitrary chunks; call Flush once at end of stream.
// Notes: All state lives in the Parser value, so a sequence or UTF-8 rune may
// be split across Feed calls at any byte.

package parser

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/framegrace/ptterm/grid"
)

// State is the parser's position inside the VT500 state diagram.
type State int

const (
	StateGround State = iota
	StateEscape
	StateEscapeIntermediate
	StateCSIEntry
	StateCSIParam
	StateCSIIntermediate
	StateCSIIgnore
	StateOSCString
	StateDCSString
	StateIgnoreString // SOS, PM and APC
	StateStringEscape // ESC seen inside a string, expecting '\'
)

var stateNames = [...]string{
	"ground", "escape", "escape-intermediate",
	"csi-entry", "csi-param", "csi-intermediate", "csi-ignore",
	"osc", "dcs", "ignore-string", "string-escape",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "state(" + strconv.Itoa(int(s)) + ")"
}

const (
	maxParams        = 32
	maxParamValue    = 65535
	maxIntermediates = 2
	// MaxStringPayload caps OSC payloads; longer payloads are truncated.
	MaxStringPayload = 4096

	// MaxClipboardPayload caps the base64 text of OSC 52. A clipboard
	// payload over the cap is dropped rather than decoded in part.
	MaxClipboardPayload = 1 << 20
)

var clipboardPrefix = []byte("52;")

type stringKind uint8

const (
	stringOSC stringKind = iota
	stringDCS
	stringIgnore
)

// Parser decodes a byte stream and applies it to a grid.Grid.
type Parser struct {
	g     *grid.Grid
	state State
	log   *zap.Logger

	// UTF-8 carry for a rune split across chunks.
	utf8Buf  [utf8.UTFMax]byte
	utf8Len  int
	utf8Need int

	params  []int
	colon   []bool // colon[i]: params[i] was introduced by ':'
	cur     int
	curSet  bool
	curBad  bool
	curSub  bool
	private byte
	inter   []byte

	str          []byte
	strKind      stringKind
	strTermBEL   bool
	strTruncated bool

	charsets      [4]Charset
	gl            int
	savedCharsets [4]Charset
	savedGL       int
	lastRune      rune

	title    string
	iconName string

	defaultFG, defaultBG grid.Color

	resp            io.Writer
	onTitle         func(string)
	onIcon          func(string)
	onBell          func()
	onCursorVisible func(bool)
	onCursorStyle   func(int)
	onClipboard     func(selection string, data []byte)
	onWorkingDir    func(string)
	onModeChange    func(grid.Mode, bool)
	onUnhandled     func(kind, seq string)
}

// New creates a parser bound to g.
func New(g *grid.Grid, opts ...Option) *Parser {
	p := &Parser{
		g:         g,
		log:       zap.NewNop(),
		params:    make([]int, 0, maxParams),
		colon:     make([]bool, 0, maxParams),
		inter:     make([]byte, 0, maxIntermediates),
		str:       make([]byte, 0, 128),
		defaultFG: grid.RGBColor(0xe5, 0xe5, 0xe5),
		defaultBG: grid.RGBColor(0x00, 0x00, 0x00),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the current parser state.
func (p *Parser) State() State { return p.state }

// Title returns the last window title set through OSC 0 or 2.
func (p *Parser) Title() string { return p.title }

// IconName returns the last icon name set through OSC 0 or 1.
func (p *Parser) IconName() string { return p.iconName }

// Feed processes a chunk of child output.
func (p *Parser) Feed(data []byte) {
	for _, b := range data {
		p.step(b)
	}
}

// Flush finishes the stream: a dangling partial rune becomes U+FFFD and an
// unfinished sequence is dropped.
func (p *Parser) Flush() {
	if p.utf8Len > 0 {
		p.utf8Len = 0
		p.print(utf8.RuneError)
	}
	if p.state != StateGround {
		p.log.Debug("parser: dropping unfinished sequence", zap.Stringer("state", p.state))
	}
	p.state = StateGround
	p.str = p.str[:0]
}

func (p *Parser) step(b byte) {
	switch b {
	case 0x18, 0x1a: // CAN, SUB
		p.dropPartialRune()
		p.state = StateGround
		p.str = p.str[:0]
		return
	case 0x1b:
		switch p.state {
		case StateOSCString, StateDCSString, StateIgnoreString:
			p.state = StateStringEscape
			return
		case StateStringEscape:
			p.finishString()
		}
		p.dropPartialRune()
		p.enterEscape()
		return
	}

	switch p.state {
	case StateGround:
		p.ground(b)
	case StateEscape:
		p.escape(b)
	case StateEscapeIntermediate:
		p.escapeIntermediate(b)
	case StateCSIEntry, StateCSIParam, StateCSIIntermediate:
		p.csi(b)
	case StateCSIIgnore:
		p.csiIgnore(b)
	case StateOSCString, StateDCSString, StateIgnoreString:
		p.stringByte(b)
	case StateStringEscape:
		p.finishString()
		if b == '\\' {
			return
		}
		p.state = StateEscape
		p.escape(b)
	}
}

func (p *Parser) dropPartialRune() {
	if p.utf8Len > 0 {
		p.utf8Len = 0
		p.print(utf8.RuneError)
	}
}

func (p *Parser) ground(b byte) {
	if p.utf8Len > 0 {
		if b&0xc0 == 0x80 {
			p.utf8Buf[p.utf8Len] = b
			p.utf8Len++
			if p.utf8Len == p.utf8Need {
				r, _ := utf8.DecodeRune(p.utf8Buf[:p.utf8Len])
				p.utf8Len = 0
				p.print(r)
			}
			return
		}
		// Truncated sequence: the byte starts something new.
		p.utf8Len = 0
		p.print(utf8.RuneError)
	}

	switch {
	case b < 0x20:
		p.execute(b)
	case b == 0x7f:
	case b < 0x80:
		p.print(rune(b))
	case b >= 0xc2 && b <= 0xdf:
		p.startRune(b, 2)
	case b >= 0xe0 && b <= 0xef:
		p.startRune(b, 3)
	case b >= 0xf0 && b <= 0xf4:
		p.startRune(b, 4)
	default:
		p.print(utf8.RuneError)
	}
}

func (p *Parser) startRune(b byte, need int) {
	p.utf8Buf[0] = b
	p.utf8Len = 1
	p.utf8Need = need
}

func (p *Parser) print(r rune) {
	if r >= 0x80 && r <= 0x9f {
		return
	}
	r = p.charsets[p.gl].translate(r)
	p.g.Put(r)
	p.lastRune = r
}

// execute runs a C0 control.
func (p *Parser) execute(b byte) {
	switch b {
	case 0x07:
		if p.onBell != nil {
			p.onBell()
		}
	case 0x08:
		p.g.Backspace()
	case 0x09:
		p.g.Tab(1)
	case 0x0a, 0x0b, 0x0c:
		p.g.LineFeed()
		if p.g.Mode(grid.ModeLineFeedNewLine) {
			p.g.CarriageReturn()
		}
	case 0x0d:
		p.g.CarriageReturn()
	case 0x0e:
		p.gl = 1
	case 0x0f:
		p.gl = 0
	}
}

func (p *Parser) enterEscape() {
	p.state = StateEscape
	p.inter = p.inter[:0]
}

func (p *Parser) escape(b byte) {
	switch {
	case b < 0x20:
		p.execute(b)
		return
	case b <= 0x2f:
		p.inter = append(p.inter[:0], b)
		p.state = StateEscapeIntermediate
		return
	case b == 0x7f:
		return
	}

	p.state = StateGround
	switch b {
	case '[':
		p.enterCSI()
	case ']':
		p.enterString(stringOSC, StateOSCString)
	case 'P':
		p.enterString(stringDCS, StateDCSString)
	case 'X', '^', '_':
		p.enterString(stringIgnore, StateIgnoreString)
	case '\\':
		// Stray string terminator.
	case '7':
		p.saveCursor()
	case '8':
		p.restoreCursor()
	case 'D':
		p.g.LineFeed()
	case 'E':
		p.g.CarriageReturn()
		p.g.LineFeed()
	case 'H':
		p.g.SetTabStop()
	case 'M':
		p.g.ReverseIndex()
	case 'c':
		p.fullReset()
	case '=':
		p.setMode(grid.ModeAppKeypad, true)
	case '>':
		p.setMode(grid.ModeAppKeypad, false)
	default:
		p.unhandled("esc", "ESC %q", rune(b))
	}
}

func (p *Parser) escapeIntermediate(b byte) {
	switch {
	case b < 0x20:
		p.execute(b)
	case b <= 0x2f:
		if len(p.inter) < maxIntermediates {
			p.inter = append(p.inter, b)
		}
	case b == 0x7f:
	default:
		p.state = StateGround
		p.escDispatch(b)
	}
}

func (p *Parser) escDispatch(final byte) {
	switch p.inter[0] {
	case '#':
		if final == '8' {
			p.g.Fill('E')
			return
		}
	case '(', ')', '*', '+':
		if cs, ok := charsetFor(final); ok {
			p.charsets[p.inter[0]-'('] = cs
			return
		}
	case '%', ' ':
		// Encoding and C1 transmission selection: always UTF-8, 7-bit.
		return
	}
	p.unhandled("esc", "ESC %s%q", p.inter, rune(final))
}

func (p *Parser) saveCursor() {
	p.g.SaveCursor()
	p.savedCharsets = p.charsets
	p.savedGL = p.gl
}

func (p *Parser) restoreCursor() {
	prev := p.g.Modes()
	p.restoreCursorState()
	p.notifyModes(prev)
}

func (p *Parser) restoreCursorState() {
	p.g.RestoreCursor()
	p.charsets = p.savedCharsets
	p.gl = p.savedGL
}

func (p *Parser) fullReset() {
	prev := p.g.Modes()
	p.g.Reset()
	p.charsets = [4]Charset{}
	p.savedCharsets = [4]Charset{}
	p.gl, p.savedGL = 0, 0
	p.lastRune = 0
	p.notifyModes(prev)
}

func (p *Parser) softReset() {
	prev := p.g.Modes()
	p.g.SoftReset()
	p.charsets = [4]Charset{}
	p.gl = 0
	p.notifyModes(prev)
}

func (p *Parser) enterCSI() {
	p.state = StateCSIEntry
	p.params = p.params[:0]
	p.colon = p.colon[:0]
	p.cur, p.curSet, p.curBad, p.curSub = 0, false, false, false
	p.private = 0
	p.inter = p.inter[:0]
}

func (p *Parser) csi(b byte) {
	switch {
	case b < 0x20:
		p.execute(b)
	case b == 0x7f:
	case b >= '0' && b <= '9':
		if p.state == StateCSIIntermediate {
			p.state = StateCSIIgnore
			return
		}
		p.state = StateCSIParam
		if p.cur <= maxParamValue {
			p.cur = p.cur*10 + int(b-'0')
		}
		p.curSet = true
	case b == ';' || b == ':':
		if p.state == StateCSIIntermediate {
			p.state = StateCSIIgnore
			return
		}
		p.state = StateCSIParam
		p.pushParam()
		p.curSub = b == ':'
	case b >= '<' && b <= '?':
		switch p.state {
		case StateCSIIntermediate:
			p.state = StateCSIIgnore
		case StateCSIEntry:
			p.private = b
			p.state = StateCSIParam
		default:
			p.curBad = true
		}
	case b <= 0x2f:
		if len(p.inter) >= maxIntermediates {
			p.state = StateCSIIgnore
			return
		}
		p.inter = append(p.inter, b)
		p.state = StateCSIIntermediate
	case b <= 0x7e:
		if p.curSet || p.curBad || p.curSub || len(p.params) > 0 {
			p.pushParam()
		}
		p.state = StateGround
		p.dispatchCSI(b)
	default:
		p.state = StateCSIIgnore
	}
}

func (p *Parser) pushParam() {
	v := min(p.cur, maxParamValue)
	if p.curBad {
		v = 0
	}
	if len(p.params) < maxParams {
		p.params = append(p.params, v)
		p.colon = append(p.colon, p.curSub)
	}
	p.cur, p.curSet, p.curBad, p.curSub = 0, false, false, false
}

func (p *Parser) csiIgnore(b byte) {
	switch {
	case b < 0x20:
		p.execute(b)
	case b >= 0x40 && b <= 0x7e:
		p.state = StateGround
		p.unhandled("csi", "CSI (malformed) %q", rune(b))
	}
}

func (p *Parser) enterString(kind stringKind, state State) {
	p.state = state
	p.strKind = kind
	p.strTermBEL = false
	p.strTruncated = false
	p.str = p.str[:0]
}

func (p *Parser) stringByte(b byte) {
	switch {
	case b == 0x07 && p.strKind == stringOSC:
		p.strTermBEL = true
		p.finishString()
	case b < 0x20:
	case p.strKind == stringOSC:
		if len(p.str) < p.stringLimit() {
			p.str = append(p.str, b)
		} else {
			p.strTruncated = true
		}
	}
}

func (p *Parser) stringLimit() int {
	if bytes.HasPrefix(p.str, clipboardPrefix) {
		return MaxClipboardPayload
	}
	return MaxStringPayload
}

func (p *Parser) finishString() {
	kind := p.strKind
	p.state = StateGround
	if kind == stringOSC {
		p.dispatchOSC(p.str)
	}
	p.str = p.str[:0]
}

// param returns parameter i, or def when it is missing or zero.
func (p *Parser) param(i, def int) int {
	if i >= len(p.params) || p.params[i] == 0 {
		return def
	}
	return p.params[i]
}

func (p *Parser) respond(format string, args ...any) {
	if p.resp == nil {
		return
	}
	if _, err := fmt.Fprintf(p.resp, format, args...); err != nil {
		p.log.Debug("parser: response dropped", zap.Error(err))
	}
}

func (p *Parser) unhandled(kind, format string, args ...any) {
	seq := fmt.Sprintf(format, args...)
	p.log.Debug("parser: unhandled sequence", zap.String("kind", kind), zap.String("seq", seq))
	if p.onUnhandled != nil {
		p.onUnhandled(kind, seq)
	}
}

func (p *Parser) describeCSI(final byte) string {
	var sb strings.Builder
	sb.WriteString("CSI ")
	if p.private != 0 {
		sb.WriteByte(p.private)
	}
	for i, v := range p.params {
		if i > 0 {
			if p.colon[i] {
				sb.WriteByte(':')
			} else {
				sb.WriteByte(';')
			}
		}
		sb.WriteString(strconv.Itoa(v))
	}
	sb.Write(p.inter)
	sb.WriteByte(final)
	return sb.String()
}
