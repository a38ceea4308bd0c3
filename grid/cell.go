// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: grid/cell.go
// Summary: Cell, color and attribute value types stored in the grid.
// Usage: Written by the grid primitives, read by render adapters through snapshots.
// Notes: Cells are plain values; a write always replaces the whole cell.

package grid

import (
	"fmt"
	"strings"
)

// Attribute is a bit set of text style flags.
type Attribute uint16

const (
	AttrBold Attribute = 1 << iota
	AttrDim
	AttrItalic
	AttrUnderline
	AttrBlink
	AttrReverse
	AttrHidden
	AttrStrikethrough
)

var attrNames = []struct {
	attr Attribute
	name string
}{
	{AttrBold, "bold"},
	{AttrDim, "dim"},
	{AttrItalic, "italic"},
	{AttrUnderline, "underline"},
	{AttrBlink, "blink"},
	{AttrReverse, "reverse"},
	{AttrHidden, "hidden"},
	{AttrStrikethrough, "strikethrough"},
}

// String returns a human-readable representation of the attribute flags.
func (a Attribute) String() string {
	if a == 0 {
		return "none"
	}
	var parts []string
	for _, n := range attrNames {
		if a&n.attr != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, "|")
}

// ColorMode defines the type of color stored.
type ColorMode uint8

const (
	ColorModeDefault  ColorMode = iota // Default terminal color
	ColorModeStandard                  // The 16 ANSI colors (0-7 normal, 8-15 bright)
	ColorMode256                       // 256-color palette
	ColorModeRGB                       // 24-bit "true" color
)

// Color represents a color in one of the supported modes.
type Color struct {
	Mode    ColorMode
	Value   uint8 // Palette index for Standard and 256 modes
	R, G, B uint8 // Components for RGB mode
}

// DefaultColor is the terminal's default foreground or background.
var DefaultColor = Color{Mode: ColorModeDefault}

// StandardColor returns one of the 16 ANSI colors.
func StandardColor(index uint8) Color {
	return Color{Mode: ColorModeStandard, Value: index & 0x0f}
}

// PaletteColor returns an entry of the 256-color palette.
func PaletteColor(index uint8) Color {
	return Color{Mode: ColorMode256, Value: index}
}

// RGBColor returns a 24-bit color.
func RGBColor(r, g, b uint8) Color {
	return Color{Mode: ColorModeRGB, R: r, G: g, B: b}
}

// IsDefault reports whether c is the terminal default color.
func (c Color) IsDefault() bool { return c.Mode == ColorModeDefault }

func (c Color) String() string {
	switch c.Mode {
	case ColorModeDefault:
		return "default"
	case ColorModeStandard:
		return fmt.Sprintf("ansi#%d", c.Value)
	case ColorMode256:
		return fmt.Sprintf("palette#%d", c.Value)
	case ColorModeRGB:
		return fmt.Sprintf("rgb:%02x/%02x/%02x", c.R, c.G, c.B)
	}
	return "invalid"
}

// Pen is the graphic rendition applied to newly written cells.
type Pen struct {
	FG   Color
	BG   Color
	Attr Attribute
}

// DefaultPen has default colors and no attributes.
var DefaultPen = Pen{}

// Cell represents a single character position on the screen.
type Cell struct {
	Rune rune // 0 means the cell is empty
	FG   Color
	BG   Color
	Attr Attribute
	// Wide marks the first half of a double-width glyph.
	Wide bool
	// Continuation marks the second half of a double-width glyph. It carries
	// no rune of its own.
	Continuation bool
}

// Empty reports whether the cell holds no glyph.
func (c Cell) Empty() bool { return c.Rune == 0 && !c.Continuation }

// blankCell is what erase operations leave behind: no rune, the pen's
// background (background color erase).
func blankCell(p Pen) Cell {
	return Cell{BG: p.BG}
}
