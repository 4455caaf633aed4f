// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package compass

import "math"

// CalibrationConstants are the per-axis sensitivities of the sensor in
// counts per gauss. The horizontal axes share one gain.
type CalibrationConstants struct {
	XYGain float64 `json:"xy_gain"`
	ZGain  float64 `json:"z_gain"`
}

// DefaultCalibration matches the ±1.3 gauss range of the reference board.
var DefaultCalibration = CalibrationConstants{XYGain: 1100, ZGain: 980}

// Magnitude is a field strength in gauss.
type Magnitude float64

// MilliGauss scales the magnitude for display.
func (m Magnitude) MilliGauss() float64 {
	return float64(m) * 1000.0
}

// EstimateMagnitude normalizes each axis by its gain and returns the
// Euclidean norm of the result.
func EstimateMagnitude(r RawMeasurement, c CalibrationConstants) Magnitude {
	x := float64(r.X) / c.XYGain
	y := float64(r.Y) / c.XYGain
	z := float64(r.Z) / c.ZGain
	return Magnitude(math.Sqrt(x*x + y*y + z*z))
}
