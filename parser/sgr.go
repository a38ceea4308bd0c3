// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: parser/sgr.go
// Summary: SGR (Select Graphic Rendition) - text attributes and colors.
// Notes: Extended colors accept both the ';' and the ':' forms. Values out of
// range are consumed and ignored.

package parser

import "github.com/framegrace/ptterm/grid"

func (p *Parser) sgr() {
	pen := p.g.Pen()
	if len(p.params) == 0 {
		p.g.SetPen(grid.DefaultPen)
		return
	}
	params := p.params
	for i := 0; i < len(params); i++ {
		v := params[i]
		// Sub-parameters introduced by ':' belong to this element.
		end := i + 1
		for end < len(params) && p.colon[end] {
			end++
		}
		sub := params[i+1 : end]

		switch {
		case v == 0:
			pen = grid.DefaultPen
		case v == 1:
			pen.Attr |= grid.AttrBold
		case v == 2:
			pen.Attr |= grid.AttrDim
		case v == 3:
			pen.Attr |= grid.AttrItalic
		case v == 4:
			if len(sub) > 0 && sub[0] == 0 {
				pen.Attr &^= grid.AttrUnderline
			} else {
				pen.Attr |= grid.AttrUnderline
			}
		case v == 5 || v == 6:
			pen.Attr |= grid.AttrBlink
		case v == 7:
			pen.Attr |= grid.AttrReverse
		case v == 8:
			pen.Attr |= grid.AttrHidden
		case v == 9:
			pen.Attr |= grid.AttrStrikethrough
		case v == 21: // doubly underlined
			pen.Attr |= grid.AttrUnderline
		case v == 22:
			pen.Attr &^= grid.AttrBold | grid.AttrDim
		case v == 23:
			pen.Attr &^= grid.AttrItalic
		case v == 24:
			pen.Attr &^= grid.AttrUnderline
		case v == 25:
			pen.Attr &^= grid.AttrBlink
		case v == 27:
			pen.Attr &^= grid.AttrReverse
		case v == 28:
			pen.Attr &^= grid.AttrHidden
		case v == 29:
			pen.Attr &^= grid.AttrStrikethrough
		case v >= 30 && v <= 37:
			pen.FG = grid.StandardColor(uint8(v - 30))
		case v == 39:
			pen.FG = grid.DefaultColor
		case v >= 40 && v <= 47:
			pen.BG = grid.StandardColor(uint8(v - 40))
		case v == 49:
			pen.BG = grid.DefaultColor
		case v >= 90 && v <= 97: // bright foreground
			pen.FG = grid.StandardColor(uint8(v - 90 + 8))
		case v >= 100 && v <= 107: // bright background
			pen.BG = grid.StandardColor(uint8(v - 100 + 8))
		case v == 38 || v == 48 || v == 58:
			var c grid.Color
			var ok bool
			if len(sub) > 0 {
				c, _, ok = extendedColor(sub, true)
			} else {
				var used int
				c, used, ok = extendedColor(params[i+1:], false)
				end = i + 1 + used
			}
			if ok {
				switch v {
				case 38:
					pen.FG = c
				case 48:
					pen.BG = c
				}
				// 58 (underline color) is parsed for its length only.
			}
		}
		i = end - 1
	}
	p.g.SetPen(pen)
}

// extendedColor decodes the arguments following 38/48/58 and reports how many
// of them it consumed.
func extendedColor(args []int, colon bool) (grid.Color, int, bool) {
	if len(args) == 0 {
		return grid.Color{}, 0, false
	}
	switch args[0] {
	case 5:
		if len(args) < 2 {
			return grid.Color{}, len(args), false
		}
		if args[1] > 255 {
			return grid.Color{}, 2, false
		}
		return grid.PaletteColor(uint8(args[1])), 2, true
	case 2:
		rgb := args[1:]
		// The colon form may carry a color space identifier first.
		if colon && len(rgb) >= 4 {
			rgb = rgb[1:]
		}
		if len(rgb) < 3 {
			return grid.Color{}, len(args), false
		}
		used := 4
		if colon {
			used = len(args)
		}
		if rgb[0] > 255 || rgb[1] > 255 || rgb[2] > 255 {
			return grid.Color{}, used, false
		}
		return grid.RGBColor(uint8(rgb[0]), uint8(rgb[1]), uint8(rgb[2])), used, true
	}
	return grid.Color{}, 1, false
}
