// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: parser/charset.go
// Summary: G0-G3 character set designation and translation.

package parser

// Charset is a 94-character set that can be designated into G0-G3.
type Charset uint8

const (
	CharsetASCII Charset = iota
	CharsetDECGraphics
	CharsetUK
)

// decGraphics maps 0x5f-0x7e to the DEC special graphics (line drawing) set.
var decGraphics = [...]rune{
	' ', '◆', '▒', '␉', '␌', '␍', '␊', '°', '±', '␤', '␋', '┘', '┐', '┌', '└', '┼',
	'⎺', '⎻', '─', '⎼', '⎽', '├', '┤', '┴', '┬', '│', '≤', '≥', 'π', '≠', '£', '·',
}

func charsetFor(final byte) (Charset, bool) {
	switch final {
	case 'B':
		return CharsetASCII, true
	case '0':
		return CharsetDECGraphics, true
	case 'A':
		return CharsetUK, true
	}
	return CharsetASCII, false
}

func (c Charset) translate(r rune) rune {
	switch c {
	case CharsetDECGraphics:
		if r >= 0x5f && r <= 0x7e {
			return decGraphics[r-0x5f]
		}
	case CharsetUK:
		if r == '#' {
			return '£'
		}
	}
	return r
}
