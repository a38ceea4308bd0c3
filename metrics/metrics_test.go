// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: metrics/metrics_test.go
// Summary: Collector bookkeeping.

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.SessionStarted()
	c.SessionStarted()
	c.Read(10)
	c.Read(0)
	c.Written(4)
	c.UnhandledSequence("csi")
	c.UnhandledSequence("csi")
	c.UnhandledSequence("osc")
	c.Resized()
	c.SessionExited(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.SessionsStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.SessionsActive))
	assert.Equal(t, 10.0, testutil.ToFloat64(c.BytesRead))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.BytesWritten))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.Unhandled.WithLabelValues("csi")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Unhandled.WithLabelValues("osc")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Exits.WithLabelValues("0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Resizes))

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.SessionStarted()
		c.Read(1)
		c.Written(1)
		c.UnhandledSequence("esc")
		c.Resized()
		c.SessionExited(1)
	})
}

func TestDoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
