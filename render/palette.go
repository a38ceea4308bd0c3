// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: render/palette.go
// Summary: xterm palette used to turn grid colors into tcell colors.

package render

import (
	"github.com/gdamore/tcell/v2"

	"github.com/framegrace/ptterm/grid"
)

const (
	slotDefaultFG = 256
	slotDefaultBG = 257
)

// Palette holds the 256 indexed colors plus the default foreground and
// background in the last two slots.
type Palette [258]tcell.Color

// DefaultPalette returns the standard xterm 256 color palette. The
// defaults are color 7 (#e5e5e5) on color 0 (black).
func DefaultPalette() Palette {
	var p Palette
	ansi := [16][3]int32{
		{0, 0, 0}, {205, 0, 0}, {0, 205, 0}, {205, 205, 0},
		{0, 0, 238}, {205, 0, 205}, {0, 205, 205}, {229, 229, 229},
		{127, 127, 127}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
		{92, 92, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
	}
	for i, c := range ansi {
		p[i] = tcell.NewRGBColor(c[0], c[1], c[2])
	}

	// 6x6x6 color cube
	levels := []int32{0, 95, 135, 175, 215, 255}
	i := 16
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				p[i] = tcell.NewRGBColor(levels[r], levels[g], levels[b])
				i++
			}
		}
	}

	// Grayscale ramp
	for j := 0; j < 24; j++ {
		gray := int32(8 + j*10)
		p[i] = tcell.NewRGBColor(gray, gray, gray)
		i++
	}

	p[slotDefaultFG] = p[7]
	p[slotDefaultBG] = p[0]
	return p
}

// SetDefaults replaces the default colors. Non-RGB colors are resolved
// through the palette first.
func (p *Palette) SetDefaults(fg, bg grid.Color) {
	if !fg.IsDefault() {
		p[slotDefaultFG] = p.resolve(fg, true)
	}
	if !bg.IsDefault() {
		p[slotDefaultBG] = p.resolve(bg, false)
	}
}

// Color maps c; fg selects which default applies to ColorModeDefault.
func (p *Palette) Color(c grid.Color, fg bool) tcell.Color {
	return p.resolve(c, fg)
}

func (p *Palette) resolve(c grid.Color, fg bool) tcell.Color {
	switch c.Mode {
	case grid.ColorModeStandard:
		return p[c.Value&0x0f]
	case grid.ColorMode256:
		return p[c.Value]
	case grid.ColorModeRGB:
		return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
	default:
		if fg {
			return p[slotDefaultFG]
		}
		return p[slotDefaultBG]
	}
}

// Style converts a cell's colors and attributes. reverse is the screen-wide
// reverse video mode.
func (p *Palette) Style(c grid.Cell, reverse bool) tcell.Style {
	fg := p.resolve(c.FG, true)
	bg := p.resolve(c.BG, false)
	if c.Attr&grid.AttrHidden != 0 {
		fg = bg
	}
	st := tcell.StyleDefault.Foreground(fg).Background(bg).
		Bold(c.Attr&grid.AttrBold != 0).
		Dim(c.Attr&grid.AttrDim != 0).
		Italic(c.Attr&grid.AttrItalic != 0).
		Underline(c.Attr&grid.AttrUnderline != 0).
		Blink(c.Attr&grid.AttrBlink != 0).
		StrikeThrough(c.Attr&grid.AttrStrikethrough != 0)
	// Reverse video flips every cell, so an already reversed cell reads
	// normally again.
	return st.Reverse((c.Attr&grid.AttrReverse != 0) != reverse)
}
