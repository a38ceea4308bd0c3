// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/devshell/runner.go
// Summary: Runs one terminal session inside a local tcell screen.
// Usage: status, err := devshell.Run(ctx, devshell.Options{Terminal: opts})
// Notes: The loop ends when the child exits or the screen goes away.

package devshell

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/framegrace/ptterm/pty"
	"github.com/framegrace/ptterm/render"
	"github.com/framegrace/ptterm/terminal"
)

// Options configures Run. Terminal.Rows and Terminal.Cols are taken from
// the screen.
type Options struct {
	Terminal terminal.Options
	Palette  *render.Palette
	Logger   *zap.Logger
}

var screenFactory = tcell.NewScreen

// SetScreenFactory overrides the screen factory used by Run. Passing nil restores the default.
func SetScreenFactory(factory func() (tcell.Screen, error)) {
	if factory == nil {
		screenFactory = tcell.NewScreen
		return
	}
	screenFactory = factory
}

// childExited is posted as interrupt data once the terminal finished.
type childExited struct{}

// Run starts the terminal sized to the screen and forwards keys, pastes
// and resizes until the child exits.
func Run(ctx context.Context, opts Options) (pty.ExitStatus, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	palette := render.DefaultPalette()
	if opts.Palette != nil {
		palette = *opts.Palette
	}

	screen, err := screenFactory()
	if err != nil {
		return pty.ExitStatus{}, fmt.Errorf("init screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return pty.ExitStatus{}, fmt.Errorf("screen init: %w", err)
	}
	defer screen.Fini()
	screen.Clear()
	screen.EnablePaste()

	width, height := screen.Size()
	topts := opts.Terminal
	topts.Rows, topts.Cols = height, width
	if topts.Logger == nil {
		topts.Logger = log
	}
	term, err := terminal.Start(ctx, topts)
	if err != nil {
		return pty.ExitStatus{}, err
	}
	defer term.Close()

	renderer := render.NewRenderer(screen, palette)
	draw := func() {
		renderer.Draw(term.Snapshot(0))
		screen.Show()
	}
	draw()

	refreshCh := make(chan struct{}, 1)
	go func() {
		for range refreshCh {
			screen.PostEvent(tcell.NewEventInterrupt(nil))
		}
	}()
	go func() {
		defer close(refreshCh)
		// The channel closes after the child exited even if the exit
		// event itself was dropped.
		defer screen.PostEvent(tcell.NewEventInterrupt(childExited{}))
		for ev := range term.Events() {
			switch ev.Kind {
			case terminal.EventTitle:
				screen.SetTitle(ev.Text)
			case terminal.EventBell:
				_ = screen.Beep()
			case terminal.EventCursorStyle:
				screen.SetCursorStyle(render.CursorStyle(ev.Style))
			case terminal.EventClipboard:
				screen.SetClipboard(ev.Data)
			case terminal.EventExit:
				continue
			}
			// Non-blocking send to coalesce redraws.
			select {
			case refreshCh <- struct{}{}:
			default:
			}
		}
	}()

	var pasteBuffer []rune
	var inPaste bool

	for {
		ev := screen.PollEvent()
		switch tev := ev.(type) {
		case nil:
			// Screen finalized underneath us.
			term.Close()
			return term.Wait(), nil
		case *tcell.EventInterrupt:
			if _, ok := tev.Data().(childExited); ok {
				draw()
				return term.Wait(), nil
			}
			draw()
		case *tcell.EventResize:
			w, h := tev.Size()
			if err := term.Resize(h, w); err != nil {
				log.Debug("resize rejected", zap.Int("rows", h), zap.Int("cols", w), zap.Error(err))
			}
			renderer.Invalidate()
			screen.Clear()
			draw()
		case *tcell.EventPaste:
			if tev.Start() {
				inPaste = true
				pasteBuffer = pasteBuffer[:0]
			} else if tev.End() {
				inPaste = false
				if len(pasteBuffer) > 0 {
					_ = term.Paste(string(pasteBuffer))
				}
				pasteBuffer = pasteBuffer[:0]
			}
		case *tcell.EventKey:
			if inPaste {
				switch tev.Key() {
				case tcell.KeyRune:
					pasteBuffer = append(pasteBuffer, tev.Rune())
				case tcell.KeyEnter, tcell.KeyLF:
					pasteBuffer = append(pasteBuffer, '\r')
				case tcell.KeyTab:
					pasteBuffer = append(pasteBuffer, '\t')
				}
				continue
			}
			if b := render.EncodeKey(tev, term.AppCursorKeys()); b != nil {
				_ = term.Write(b)
			}
		}
	}
}
