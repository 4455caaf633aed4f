// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package compass turns one raw magnetometer sample into a heading sector
// and a calibrated field magnitude. Everything here is pure: no I/O, no
// shared state, safe to call from any goroutine.
package compass

import "math"

// RawMeasurement is a single unscaled magnetometer sample in sensor counts.
type RawMeasurement struct {
	X int16 `json:"x"`
	Y int16 `json:"y"`
	Z int16 `json:"z"`
}

// Bearing is the angle of the horizontal field component in radians,
// in the range (-π, π].
type Bearing float64

// Degrees converts the bearing to degrees in (-180, 180].
func (b Bearing) Degrees() float64 {
	return float64(b) * 180.0 / math.Pi
}

// ComputeBearing returns atan2(y, x). A reading with no horizontal
// component (x == y == 0) yields 0.
func ComputeBearing(r RawMeasurement) Bearing {
	return Bearing(math.Atan2(float64(r.Y), float64(r.X)))
}
