// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package compass

import "time"

// Reading is everything derived from one raw sample. It is the JSON payload
// published to MQTT and the input of every diagnostic sink.
type Reading struct {
	Raw        RawMeasurement `json:"raw"`
	Theta      Bearing        `json:"theta"`
	Sector     Sector         `json:"sector"`
	SectorName string         `json:"sector_name"`
	HeadingDeg float64        `json:"heading_deg"`
	Magnitude  Magnitude      `json:"magnitude_gauss"`
	MilliGauss float64        `json:"magnitude_mg"`
	Time       time.Time      `json:"time"`
}

// Evaluate runs the bearing/sector path and the magnitude path on the same
// sample. The two paths do not depend on each other.
func Evaluate(r RawMeasurement, o Orientation, c CalibrationConstants, at time.Time) Reading {
	theta := ComputeBearing(r)
	sector := o.Classify(theta)
	mag := EstimateMagnitude(r, c)
	return Reading{
		Raw:        r,
		Theta:      theta,
		Sector:     sector,
		SectorName: sector.String(),
		HeadingDeg: o.Heading(theta),
		Magnitude:  mag,
		MilliGauss: mag.MilliGauss(),
		Time:       at,
	}
}
