// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/ptterm/main.go
// Summary: Host command running a shell inside an embedded terminal.
// Usage: ptterm [-config path] [-dump] [-- command args...]
// Notes: -dump runs headless and prints the final screen to stdout.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	xterm "golang.org/x/term"

	"github.com/framegrace/ptterm/config"
	"github.com/framegrace/ptterm/grid"
	"github.com/framegrace/ptterm/internal/devshell"
	"github.com/framegrace/ptterm/internal/logging"
	"github.com/framegrace/ptterm/metrics"
	"github.com/framegrace/ptterm/pty"
	"github.com/framegrace/ptterm/render"
	"github.com/framegrace/ptterm/terminal"
)

func main() {
	configPath := flag.String("config", "", "config file (default <UserConfigDir>/ptterm/ptterm.json)")
	dump := flag.Bool("dump", false, "run headless and print the final screen")
	rows := flag.Int("rows", 0, "rows for -dump (default: tty height or config)")
	cols := flag.Int("cols", 0, "columns for -dump (default: tty width or config)")
	flag.Parse()

	code, err := run(*configPath, *dump, *rows, *cols, flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "ptterm: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}

func run(configPath string, dump bool, rows, cols int, args []string) (int, error) {
	cfg, err := config.Load(configPath, nil)
	if err != nil {
		return 1, err
	}
	log, err := newLogger(cfg, dump)
	if err != nil {
		return 1, err
	}
	defer log.Sync()

	fg, bg, err := cfg.Colors()
	if err != nil {
		return 1, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var collector *metrics.Collector
	if cfg.MetricsAddr != "" {
		var shutdown func()
		collector, shutdown = serveMetrics(cfg.MetricsAddr, log)
		defer shutdown()
	}

	cmd := cfg.Command()
	if len(args) > 0 {
		cmd.Path, cmd.Args = args[0], args[1:]
	}
	topts := terminal.Options{
		Command:    cmd,
		Scrollback: cfg.Scrollback,
		Logger:     log,
		Metrics:    collector,
		DefaultFG:  fg,
		DefaultBG:  bg,
	}

	if dump {
		topts.Rows, topts.Cols = dumpSize(cfg, rows, cols)
		return runDump(ctx, topts, os.Stdout)
	}

	palette := render.DefaultPalette()
	palette.SetDefaults(fg, bg)
	status, err := devshell.Run(ctx, devshell.Options{Terminal: topts, Palette: &palette, Logger: log})
	if err != nil {
		return 1, err
	}
	return exitCode(status), nil
}

func newLogger(cfg config.Config, dump bool) (*zap.Logger, error) {
	lc := logging.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	}
	switch {
	case cfg.Log.File != "":
		lc.OutputPaths = []string{cfg.Log.File}
	case dump:
		lc.OutputPaths = []string{"stderr"}
	default:
		// stderr belongs to the screen in interactive mode.
		return zap.NewNop(), nil
	}
	return logging.New(lc)
}

func serveMetrics(addr string, log *zap.Logger) (*metrics.Collector, func()) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	c := metrics.New(reg)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics server stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()
	return c, func() { _ = srv.Close() }
}

// dumpSize prefers explicit flags, then the controlling tty, then config.
func dumpSize(cfg config.Config, rows, cols int) (int, int) {
	if rows <= 0 || cols <= 0 {
		if fd := int(os.Stdout.Fd()); xterm.IsTerminal(fd) {
			if w, h, err := xterm.GetSize(fd); err == nil {
				if rows <= 0 {
					rows = h
				}
				if cols <= 0 {
					cols = w
				}
			}
		}
	}
	if rows <= 0 {
		rows = cfg.Rows
	}
	if cols <= 0 {
		cols = cfg.Cols
	}
	return rows, cols
}

// runDump runs the command to completion and writes the final screen.
func runDump(ctx context.Context, opts terminal.Options, out io.Writer) (int, error) {
	term, err := terminal.Start(ctx, opts)
	if err != nil {
		return 1, err
	}
	go func() {
		// Nobody renders; keep the channel drained.
		for range term.Events() {
		}
	}()
	status := term.Wait()
	_, err = io.WriteString(out, screenText(term.Snapshot(0)))
	return exitCode(status), err
}

// screenText renders snap without trailing blank rows.
func screenText(snap grid.Snapshot) string {
	lines := make([]string, snap.Rows)
	last := -1
	for i := range lines {
		lines[i] = snap.Text(i)
		if lines[i] != "" {
			last = i
		}
	}
	if last < 0 {
		return ""
	}
	return strings.Join(lines[:last+1], "\n") + "\n"
}

func exitCode(st pty.ExitStatus) int {
	if st.Code < 0 {
		return 1
	}
	return st.Code
}
