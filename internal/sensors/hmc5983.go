// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"periph.io/x/conn/v3/i2c"

	"github.com/relabs-tech/compass_indicator/internal/compass"
)

// I2C register map for HMC5983/HMC5883L.
const (
	hmcRegCRA    = 0x00
	hmcRegCRB    = 0x01
	hmcRegMode   = 0x02
	hmcRegData   = 0x03 // X MSB, X LSB, Z MSB, Z LSB, Y MSB, Y LSB
	hmcRegStatus = 0x09
	hmcRegIDA    = 0x0A

	hmcStatusRDY = 0x01
)

// HMC5983Addr is the default I2C address.
const HMC5983Addr = 0x1E

// Typical LSB/Gauss per gain code (datasheet), XY and Z.
var (
	HMC5983GainXY = [8]float64{1370, 1090, 820, 660, 440, 390, 330, 230}
	HMC5983GainZ  = [8]float64{1330, 980, 660, 600, 400, 355, 295, 205}
)

// hmcSettleTime is waited after configuration before the first read.
const hmcSettleTime = 10 * time.Millisecond

// HMC5983Opts holds initialization options.
//
// ODRHz: output data rate in Hz, one of 1 (1.5), 3, 7 (7.5), 15, 30, 75
// or 220; 0 selects 15 Hz.
// AvgSamples: sample averaging (1, 2, 4, 8).
// GainCode: 0..7 gain selection (CRB).
// Clock times the settle delay; nil uses the wall clock.
type HMC5983Opts struct {
	Addr       uint16
	ODRHz      int
	AvgSamples int
	GainCode   int
	Clock      clock.Clock
}

// HMC5983 is a magnetometer in continuous measurement mode.
//
// NOTE: HMC5983 outputs data in order X,Z,Y.
type HMC5983 struct {
	dev      i2c.Dev
	gainCode int
}

// NewHMC5983 verifies the identity bytes and configures averaging, rate,
// gain and continuous mode.
func NewHMC5983(bus i2c.Bus, opts HMC5983Opts) (*HMC5983, error) {
	addr := opts.Addr
	if addr == 0 {
		addr = HMC5983Addr
	}
	gc := opts.GainCode
	if gc < 0 || gc > 7 {
		gc = 1 // ≈1.3 Gauss
	}
	odr, err := hmcODRBits(opts.ODRHz)
	if err != nil {
		return nil, err
	}
	d := &HMC5983{dev: i2c.Dev{Addr: addr, Bus: bus}, gainCode: gc}

	id := make([]byte, 3)
	if err := d.dev.Tx([]byte{hmcRegIDA}, id); err != nil {
		return nil, fmt.Errorf("hmc5983: read ID: %w", err)
	}
	if string(id) != "H43" {
		return nil, fmt.Errorf("hmc5983: unexpected ID %q (want \"H43\")", id)
	}

	// CRA: averaging (bits 6..5) + ODR (bits 4..2), normal bias.
	cra := byte(0)
	switch opts.AvgSamples {
	case 8:
		cra |= 0b11 << 5
	case 4:
		cra |= 0b10 << 5
	case 2:
		cra |= 0b01 << 5
	}
	cra |= odr << 2
	if err := d.writeReg(hmcRegCRA, cra); err != nil {
		return nil, fmt.Errorf("hmc5983: configure CRA: %w", err)
	}
	if err := d.writeReg(hmcRegCRB, byte(gc)<<5); err != nil {
		return nil, fmt.Errorf("hmc5983: configure CRB: %w", err)
	}
	if err := d.writeReg(hmcRegMode, 0x00); err != nil {
		return nil, fmt.Errorf("hmc5983: configure mode: %w", err)
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	clk.Sleep(hmcSettleTime)
	return d, nil
}

// hmcODRBits maps a rate in Hz to the CRA DO field.
func hmcODRBits(hz int) (byte, error) {
	switch hz {
	case 0, 15:
		return 0b100, nil
	case 1:
		return 0b001, nil
	case 3:
		return 0b010, nil
	case 7:
		return 0b011, nil
	case 30:
		return 0b101, nil
	case 75:
		return 0b110, nil
	case 220:
		return 0b111, nil
	default:
		return 0, fmt.Errorf("hmc5983: unsupported output data rate %d Hz", hz)
	}
}

// Addr returns the I2C address in use.
func (d *HMC5983) Addr() uint16 {
	return d.dev.Addr
}

// Calibration returns the datasheet gains for the configured gain code.
func (d *HMC5983) Calibration() compass.CalibrationConstants {
	return compass.CalibrationConstants{XYGain: HMC5983GainXY[d.gainCode], ZGain: HMC5983GainZ[d.gainCode]}
}

// ReadRaw reads raw counts (X,Z,Y order on the wire).
func (d *HMC5983) ReadRaw() (compass.RawMeasurement, error) {
	status := make([]byte, 1)
	if err := d.dev.Tx([]byte{hmcRegStatus}, status); err != nil {
		return compass.RawMeasurement{}, fmt.Errorf("hmc5983: read status: %w", err)
	}
	if status[0]&hmcStatusRDY == 0 {
		return compass.RawMeasurement{}, fmt.Errorf("hmc5983: %w", ErrNotReady)
	}

	data := make([]byte, 6)
	if err := d.dev.Tx([]byte{hmcRegData}, data); err != nil {
		return compass.RawMeasurement{}, fmt.Errorf("hmc5983: read data: %w", err)
	}
	return compass.RawMeasurement{
		X: int16(data[0])<<8 | int16(data[1]),
		Z: int16(data[2])<<8 | int16(data[3]),
		Y: int16(data[4])<<8 | int16(data[5]),
	}, nil
}

func (d *HMC5983) writeReg(addr byte, val byte) error {
	return d.dev.Tx([]byte{addr, val}, nil)
}
