// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package compass

import (
	"fmt"
	"math"
	"strings"
)

// Orientation describes how the sensor is mounted relative to the
// indicator array. It owns the sector table and also derives a compass
// heading in degrees from a bearing.
type Orientation struct {
	order [NumSectors]Sector
	table SectorTable
	// heading at bearing 0, and +1/-1 depending on whether the heading
	// grows or shrinks as the bearing grows.
	zero  float64
	sense float64
}

// NewOrientation builds an orientation from the sector of each band in
// ascending bearing order. The order must be a rotation or a mirror image
// of the compass rose: every sector exactly once, each band one step from
// the previous one, always in the same direction.
func NewOrientation(order [NumSectors]Sector) (Orientation, error) {
	var seen [NumSectors]bool
	for _, s := range order {
		if !s.Valid() {
			return Orientation{}, fmt.Errorf("invalid sector %d in order", uint8(s))
		}
		if seen[s] {
			return Orientation{}, fmt.Errorf("sector %s appears twice in order", s)
		}
		seen[s] = true
	}

	step := (int(order[1]) - int(order[0]) + NumSectors) % NumSectors
	if step != 1 && step != NumSectors-1 {
		return Orientation{}, fmt.Errorf("sector order %s is not a rotation of the compass rose", formatOrder(order))
	}
	for i := 1; i < NumSectors-1; i++ {
		if (int(order[i+1])-int(order[i])+NumSectors)%NumSectors != step {
			return Orientation{}, fmt.Errorf("sector order %s is not a rotation of the compass rose", formatOrder(order))
		}
	}

	sense := 1.0
	if step == NumSectors-1 {
		sense = -1.0
	}
	// Band 4 is [-π/8, π/8), centred on bearing 0.
	return Orientation{
		order: order,
		table: NewSectorTable(order),
		zero:  order[4].Degrees(),
		sense: sense,
	}, nil
}

// DefaultOrientation is the reference board mounting.
func DefaultOrientation() Orientation {
	o, err := NewOrientation(ReferenceOrder)
	if err != nil {
		panic(err)
	}
	return o
}

// Order returns the band order the orientation was built from.
func (o Orientation) Order() [NumSectors]Sector {
	return o.order
}

// Table returns the sector table.
func (o Orientation) Table() SectorTable {
	return o.table
}

// Classify returns the sector containing b.
func (o Orientation) Classify(b Bearing) Sector {
	return o.table.Classify(b)
}

// Heading converts a bearing to a compass heading in [0, 360), North = 0,
// East = 90.
func (o Orientation) Heading(b Bearing) float64 {
	h := math.Mod(o.zero+o.sense*b.Degrees(), 360)
	if h < 0 {
		h += 360
	}
	return h
}

func formatOrder(order [NumSectors]Sector) string {
	parts := make([]string, len(order))
	for i, s := range order {
		parts[i] = s.Abbrev()
	}
	return strings.Join(parts, ",")
}
