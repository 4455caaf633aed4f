// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/relabs-tech/compass_indicator/internal/compass"
)

// DefaultMockPeriod is one full turn of the mock field.
const DefaultMockPeriod = 16 * time.Second

type mockSource struct {
	clk    clock.Clock
	start  time.Time
	period time.Duration
}

// NewMockSource creates a source whose horizontal field turns once per
// period, so every sector comes up in turn.
func NewMockSource(clk clock.Clock, period time.Duration) RawReadingSource {
	if clk == nil {
		clk = clock.New()
	}
	if period <= 0 {
		period = DefaultMockPeriod
	}
	return &mockSource{clk: clk, start: clk.Now(), period: period}
}

func (m *mockSource) ReadRaw() (compass.RawMeasurement, error) {
	turns := float64(m.clk.Since(m.start)) / float64(m.period)
	a := 2 * math.Pi * turns
	return compass.RawMeasurement{
		X: int16(math.Round(450 * math.Cos(a))),
		Y: int16(math.Round(450 * math.Sin(a))),
		Z: -420,
	}, nil
}
