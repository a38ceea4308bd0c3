// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: parser/options.go
// Summary: Functional options wiring parser notifications to the embedder.
// Usage: parser.New(g, parser.WithResponseWriter(w), parser.WithTitleHandler(fn)).
// Notes: Handlers run synchronously on the Feed call path; they must not call
// back into the parser.

package parser

import (
	"io"

	"go.uber.org/zap"

	"github.com/framegrace/ptterm/grid"
)

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for unhandled sequences and dropped replies.
func WithLogger(l *zap.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.log = l
		}
	}
}

// WithResponseWriter sets where device reports (DSR, DA, DECRQM, OSC color
// queries) are written. Without one, queries are silently consumed.
func WithResponseWriter(w io.Writer) Option {
	return func(p *Parser) { p.resp = w }
}

// WithTitleHandler is called when the window title changes (OSC 0/2).
func WithTitleHandler(fn func(title string)) Option {
	return func(p *Parser) { p.onTitle = fn }
}

// WithIconHandler is called when the icon name changes (OSC 0/1).
func WithIconHandler(fn func(name string)) Option {
	return func(p *Parser) { p.onIcon = fn }
}

// WithBellHandler is called for every BEL in ground state.
func WithBellHandler(fn func()) Option {
	return func(p *Parser) { p.onBell = fn }
}

// WithCursorVisibilityHandler is called when DECTCEM flips.
func WithCursorVisibilityHandler(fn func(visible bool)) Option {
	return func(p *Parser) { p.onCursorVisible = fn }
}

// WithCursorStyleHandler receives DECSCUSR styles (0-6).
func WithCursorStyleHandler(fn func(style int)) Option {
	return func(p *Parser) { p.onCursorStyle = fn }
}

// WithClipboardHandler receives decoded OSC 52 clipboard writes.
func WithClipboardHandler(fn func(selection string, data []byte)) Option {
	return func(p *Parser) { p.onClipboard = fn }
}

// WithWorkingDirHandler receives the path announced through OSC 7.
func WithWorkingDirHandler(fn func(path string)) Option {
	return func(p *Parser) { p.onWorkingDir = fn }
}

// WithModeChangeHandler is called once per mode flag that changes, whatever
// sequence changed it.
func WithModeChangeHandler(fn func(mode grid.Mode, on bool)) Option {
	return func(p *Parser) { p.onModeChange = fn }
}

// WithUnhandledHandler receives sequences the parser recognised but ignored
// or could not parse, tagged with a kind ("esc", "csi", "osc", "mode").
func WithUnhandledHandler(fn func(kind, seq string)) Option {
	return func(p *Parser) { p.onUnhandled = fn }
}

// WithDefaultColors sets the colors reported for OSC 10/11 queries. Only RGB
// colors are accepted; others leave the built-in defaults.
func WithDefaultColors(fg, bg grid.Color) Option {
	return func(p *Parser) {
		if fg.Mode == grid.ColorModeRGB {
			p.defaultFG = fg
		}
		if bg.Mode == grid.ColorModeRGB {
			p.defaultBG = bg
		}
	}
}
