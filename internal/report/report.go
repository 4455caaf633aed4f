// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package report holds the diagnostic outputs fed once per cycle with the
// latest compass.Reading.
package report

import (
	"fmt"

	"github.com/relabs-tech/compass_indicator/internal/compass"
)

// Sink consumes one reading per cycle.
type Sink interface {
	Name() string
	Report(r compass.Reading) error
}

// TextLines formats a reading the way the board prints it on its debug
// channel: raw axes with the bearing, then the magnitude in milligauss.
func TextLines(r compass.Reading) []string {
	return []string{
		fmt.Sprintf("x = %d y = %d z = %d theta %f", r.Raw.X, r.Raw.Y, r.Raw.Z, float64(r.Theta)),
		fmt.Sprintf("Magnetometer Magnitude %f mG", r.MilliGauss),
	}
}
