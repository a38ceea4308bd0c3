// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: metrics/metrics.go
// Summary: Prometheus counters for terminal sessions.
// Usage: m := metrics.New(prometheus.NewRegistry()); terminal.Options{Metrics: m}.
// Notes: A nil *Collector is valid and records nothing.

package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ptterm"

// Collector holds the session metrics.
type Collector struct {
	BytesRead       prometheus.Counter
	BytesWritten    prometheus.Counter
	SessionsStarted prometheus.Counter
	SessionsActive  prometheus.Gauge
	Exits           *prometheus.CounterVec
	Unhandled       *prometheus.CounterVec
	Resizes         prometheus.Counter
}

// New registers the collector on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Collector{
		BytesRead: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pty_read_bytes_total",
			Help:      "Bytes read from child programs",
		}),
		BytesWritten: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pty_written_bytes_total",
			Help:      "Bytes written to child programs",
		}),
		SessionsStarted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Terminal sessions started",
		}),
		SessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Terminal sessions currently running",
		}),
		Exits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_exits_total",
			Help:      "Child exits by exit code",
		}, []string{"code"}),
		Unhandled: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unhandled_sequences_total",
			Help:      "Escape sequences ignored by the interpreter",
		}, []string{"kind"}),
		Resizes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resizes_total",
			Help:      "Resizes applied to sessions",
		}),
	}
}

func (c *Collector) SessionStarted() {
	if c == nil {
		return
	}
	c.SessionsStarted.Inc()
	c.SessionsActive.Inc()
}

// SessionExited records the exit and drops the active gauge.
func (c *Collector) SessionExited(code int) {
	if c == nil {
		return
	}
	c.SessionsActive.Dec()
	c.Exits.WithLabelValues(strconv.Itoa(code)).Inc()
}

func (c *Collector) Read(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.BytesRead.Add(float64(n))
}

func (c *Collector) Written(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.BytesWritten.Add(float64(n))
}

func (c *Collector) UnhandledSequence(kind string) {
	if c == nil {
		return
	}
	c.Unhandled.WithLabelValues(kind).Inc()
}

func (c *Collector) Resized() {
	if c == nil {
		return
	}
	c.Resizes.Inc()
}
