// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package compass

import (
	"fmt"
	"math"
	"strings"
)

// Sector is one of the eight 45° heading bands. The numeric value is also
// the position of the matching element in the indicator array.
type Sector uint8

const (
	North Sector = iota
	Northeast
	East
	Southeast
	South
	Southwest
	West
	Northwest
)

// NumSectors is the number of heading bands and indicator positions.
const NumSectors = 8

var sectorNames = [NumSectors]string{
	"North", "Northeast", "East", "Southeast", "South", "Southwest", "West", "Northwest",
}

var sectorAbbrevs = [NumSectors]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// Valid reports whether s is one of the eight named sectors.
func (s Sector) Valid() bool {
	return s < NumSectors
}

func (s Sector) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Sector(%d)", uint8(s))
	}
	return sectorNames[s]
}

// Abbrev returns the one- or two-letter compass point, e.g. "NE".
func (s Sector) Abbrev() string {
	if !s.Valid() {
		return "?"
	}
	return sectorAbbrevs[s]
}

// Degrees is the compass heading at the centre of the sector (North = 0).
func (s Sector) Degrees() float64 {
	return float64(s) * 45.0
}

// ParseSector accepts either the abbreviation ("sw") or the full name
// ("Southwest"), case-insensitively.
func ParseSector(v string) (Sector, error) {
	v = strings.TrimSpace(v)
	for i := 0; i < NumSectors; i++ {
		if strings.EqualFold(v, sectorAbbrevs[i]) || strings.EqualFold(v, sectorNames[i]) {
			return Sector(i), nil
		}
	}
	return 0, fmt.Errorf("unknown sector %q", v)
}

// Band is one entry of a SectorTable: bearings strictly below Upper that
// did not match an earlier band belong to Sector.
type Band struct {
	Upper  float64
	Sector Sector
}

// SectorTable maps bearings to sectors. Bands are checked in order with a
// strict less-than against Upper; a bearing at or above the last bound
// belongs to the first band's sector, since +π and -π are the same
// direction. A table must have at least one band.
type SectorTable []Band

// StandardBounds are the band upper bounds, -7π/8 through 7π/8 in steps of π/4.
var StandardBounds = [NumSectors]float64{
	-7 * math.Pi / 8,
	-5 * math.Pi / 8,
	-3 * math.Pi / 8,
	-math.Pi / 8,
	math.Pi / 8,
	3 * math.Pi / 8,
	5 * math.Pi / 8,
	7 * math.Pi / 8,
}

// ReferenceOrder is the sector of each band, in ascending bearing order, for
// the reference board mounting: bearing 0 is South, π/2 East, ±π North.
var ReferenceOrder = [NumSectors]Sector{North, Northwest, West, Southwest, South, Southeast, East, Northeast}

// NewSectorTable pairs StandardBounds with the given sector order.
func NewSectorTable(order [NumSectors]Sector) SectorTable {
	t := make(SectorTable, NumSectors)
	for i, s := range order {
		t[i] = Band{Upper: StandardBounds[i], Sector: s}
	}
	return t
}

// Classify returns the sector containing b.
func (t SectorTable) Classify(b Bearing) Sector {
	for _, band := range t {
		if float64(b) < band.Upper {
			return band.Sector
		}
	}
	return t[0].Sector
}

// ParseSectorOrder parses a comma separated list of eight sectors, e.g.
// "N,NW,W,SW,S,SE,E,NE".
func ParseSectorOrder(v string) ([NumSectors]Sector, error) {
	var order [NumSectors]Sector
	parts := strings.Split(v, ",")
	if len(parts) != NumSectors {
		return order, fmt.Errorf("sector order needs %d entries, got %d", NumSectors, len(parts))
	}
	for i, p := range parts {
		s, err := ParseSector(p)
		if err != nil {
			return order, err
		}
		order[i] = s
	}
	return order, nil
}
