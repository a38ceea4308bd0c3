// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: render/keys.go
// Summary: Encodes host key events as the bytes an xterm would send.

package render

import (
	"strconv"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
)

// cursorKeys maps arrow-style keys to their final byte. In application
// cursor mode they are sent as SS3 sequences.
var cursorKeys = map[tcell.Key]byte{
	tcell.KeyUp:    'A',
	tcell.KeyDown:  'B',
	tcell.KeyRight: 'C',
	tcell.KeyLeft:  'D',
	tcell.KeyHome:  'H',
	tcell.KeyEnd:   'F',
}

// tildeKeys are sent as CSI n ~.
var tildeKeys = map[tcell.Key]int{
	tcell.KeyInsert: 2,
	tcell.KeyDelete: 3,
	tcell.KeyPgUp:   5,
	tcell.KeyPgDn:   6,
	tcell.KeyF5:     15,
	tcell.KeyF6:     17,
	tcell.KeyF7:     18,
	tcell.KeyF8:     19,
	tcell.KeyF9:     20,
	tcell.KeyF10:    21,
	tcell.KeyF11:    23,
	tcell.KeyF12:    24,
}

var ss3Keys = map[tcell.Key]byte{
	tcell.KeyF1: 'P',
	tcell.KeyF2: 'Q',
	tcell.KeyF3: 'R',
	tcell.KeyF4: 'S',
}

// modifierParam is the xterm modifier parameter (1 + shift|alt<<1|ctrl<<2).
func modifierParam(m tcell.ModMask) int {
	n := 0
	if m&tcell.ModShift != 0 {
		n |= 1
	}
	if m&(tcell.ModAlt|tcell.ModMeta) != 0 {
		n |= 2
	}
	if m&tcell.ModCtrl != 0 {
		n |= 4
	}
	if n == 0 {
		return 0
	}
	return n + 1
}

// EncodeKey returns the input bytes for ev, or nil for keys without an
// encoding.
func EncodeKey(ev *tcell.EventKey, appCursor bool) []byte {
	key := ev.Key()
	mods := ev.Modifiers()
	mod := modifierParam(mods)

	if final, ok := cursorKeys[key]; ok {
		switch {
		case mod != 0:
			return []byte("\x1b[1;" + strconv.Itoa(mod) + string(final))
		case appCursor:
			return []byte{0x1b, 'O', final}
		default:
			return []byte{0x1b, '[', final}
		}
	}
	if n, ok := tildeKeys[key]; ok {
		seq := "\x1b[" + strconv.Itoa(n)
		if mod != 0 {
			seq += ";" + strconv.Itoa(mod)
		}
		return []byte(seq + "~")
	}
	if final, ok := ss3Keys[key]; ok {
		if mod != 0 {
			return []byte("\x1b[1;" + strconv.Itoa(mod) + string(final))
		}
		return []byte{0x1b, 'O', final}
	}

	var out []byte
	switch {
	case key == tcell.KeyBacktab:
		return []byte("\x1b[Z")
	case key == tcell.KeyRune:
		out = utf8.AppendRune(nil, ev.Rune())
	case key < 0x20 || key == tcell.KeyDEL:
		// Control keys, Enter, Tab, Esc and both backspaces map to their
		// own code.
		out = []byte{byte(key)}
	default:
		return nil
	}
	if mods&(tcell.ModAlt|tcell.ModMeta) != 0 {
		out = append([]byte{0x1b}, out...)
	}
	return out
}
