// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package indicator

import (
	"fmt"

	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"github.com/relabs-tech/compass_indicator/internal/compass"
)

// LEDArray is eight active-high LEDs, indexed by compass.Sector.
type LEDArray struct {
	pins [compass.NumSectors]gpio.PinOut
}

// NewLEDArray wraps already resolved pins. pins[i] is the LED of Sector(i).
func NewLEDArray(pins []gpio.PinOut) (*LEDArray, error) {
	if len(pins) != compass.NumSectors {
		return nil, fmt.Errorf("led array: need %d pins, got %d", compass.NumSectors, len(pins))
	}
	a := &LEDArray{}
	for i, p := range pins {
		if p == nil {
			return nil, fmt.Errorf("led array: pin for %s is nil", compass.Sector(i))
		}
		a.pins[i] = p
	}
	return a, nil
}

// OpenLEDArray looks the pins up by name in the periph registry. The
// periph host must already be initialized.
func OpenLEDArray(names []string) (*LEDArray, error) {
	if len(names) != compass.NumSectors {
		return nil, fmt.Errorf("led array: need %d pin names, got %d", compass.NumSectors, len(names))
	}
	pins := make([]gpio.PinOut, len(names))
	for i, name := range names {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("led array: %s pin %q not found", compass.Sector(i), name)
		}
		pins[i] = p
	}
	a, err := NewLEDArray(pins)
	if err != nil {
		return nil, err
	}
	// Start dark.
	if err := a.Off(); err != nil {
		return nil, err
	}
	return a, nil
}

// Show switches every LED off and then the one for s on.
func (a *LEDArray) Show(s compass.Sector) error {
	if !s.Valid() {
		return fmt.Errorf("led array: invalid sector %d", uint8(s))
	}
	err := a.Off()
	if onErr := a.pins[s].Out(gpio.High); onErr != nil {
		err = multierr.Append(err, fmt.Errorf("led array: %s on: %w", s, onErr))
	}
	return err
}

// Off switches every LED off. A failing pin does not stop the others.
func (a *LEDArray) Off() error {
	var err error
	for i, p := range a.pins {
		if offErr := p.Out(gpio.Low); offErr != nil {
			err = multierr.Append(err, fmt.Errorf("led array: %s off: %w", compass.Sector(i), offErr))
		}
	}
	return err
}

// Close leaves the array dark.
func (a *LEDArray) Close() error {
	return a.Off()
}
