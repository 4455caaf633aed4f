// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"

	"github.com/relabs-tech/compass_indicator/internal/compass"
)

// LSM303AGR magnetometer register map.
const (
	lsmRegWhoAmI = 0x4F
	lsmRegCfgA   = 0x60
	lsmRegCfgC   = 0x62
	lsmRegStatus = 0x67
	lsmRegOutX   = 0x68 // X LSB, X MSB, Y LSB, Y MSB, Z LSB, Z MSB

	lsmWhoAmI = 0x40

	lsmCfgATempComp = 0x80
	lsmCfgCBDU      = 0x10
	lsmStatusZYXDA  = 0x08
)

// LSM303AGRAddr is the fixed I2C address of the magnetometer die.
const LSM303AGRAddr = 0x1E

// LSM303AGROpts holds initialization options.
//
// ODRHz must be 10, 20, 50 or 100.
type LSM303AGROpts struct {
	Addr  uint16
	ODRHz int
}

// LSM303AGR is the magnetometer half of an LSM303AGR in continuous mode.
// ReadRaw returns unscaled counts.
type LSM303AGR struct {
	dev i2c.Dev
}

// NewLSM303AGR checks WHO_AM_I and starts continuous conversion with
// temperature compensation and block data update.
func NewLSM303AGR(bus i2c.Bus, opts LSM303AGROpts) (*LSM303AGR, error) {
	addr := opts.Addr
	if addr == 0 {
		addr = LSM303AGRAddr
	}
	odr, err := lsmODRBits(opts.ODRHz)
	if err != nil {
		return nil, err
	}

	d := &LSM303AGR{dev: i2c.Dev{Addr: addr, Bus: bus}}

	id := make([]byte, 1)
	if err := d.dev.Tx([]byte{lsmRegWhoAmI}, id); err != nil {
		return nil, fmt.Errorf("lsm303agr: read WHO_AM_I: %w", err)
	}
	if id[0] != lsmWhoAmI {
		return nil, fmt.Errorf("lsm303agr: unexpected WHO_AM_I 0x%02X (want 0x%02X)", id[0], lsmWhoAmI)
	}

	// Mode bits 1..0 = 00 selects continuous conversion.
	if err := d.writeReg(lsmRegCfgA, lsmCfgATempComp|odr<<2); err != nil {
		return nil, fmt.Errorf("lsm303agr: configure CFG_REG_A: %w", err)
	}
	if err := d.writeReg(lsmRegCfgC, lsmCfgCBDU); err != nil {
		return nil, fmt.Errorf("lsm303agr: configure CFG_REG_C: %w", err)
	}
	return d, nil
}

func lsmODRBits(hz int) (byte, error) {
	switch hz {
	case 0, 10:
		return 0b00, nil
	case 20:
		return 0b01, nil
	case 50:
		return 0b10, nil
	case 100:
		return 0b11, nil
	}
	return 0, fmt.Errorf("lsm303agr: unsupported output data rate %d Hz (10, 20, 50, 100)", hz)
}

// Addr returns the I2C address in use.
func (d *LSM303AGR) Addr() uint16 {
	return d.dev.Addr
}

// ReadRaw returns the latest X, Y, Z sample. It fails with ErrNotReady when
// no conversion completed since the previous read.
func (d *LSM303AGR) ReadRaw() (compass.RawMeasurement, error) {
	status := make([]byte, 1)
	if err := d.dev.Tx([]byte{lsmRegStatus}, status); err != nil {
		return compass.RawMeasurement{}, fmt.Errorf("lsm303agr: read status: %w", err)
	}
	if status[0]&lsmStatusZYXDA == 0 {
		return compass.RawMeasurement{}, fmt.Errorf("lsm303agr: %w", ErrNotReady)
	}

	data := make([]byte, 6)
	if err := d.dev.Tx([]byte{lsmRegOutX}, data); err != nil {
		return compass.RawMeasurement{}, fmt.Errorf("lsm303agr: read output: %w", err)
	}
	return compass.RawMeasurement{
		X: int16(uint16(data[0]) | uint16(data[1])<<8),
		Y: int16(uint16(data[2]) | uint16(data[3])<<8),
		Z: int16(uint16(data[4]) | uint16(data[5])<<8),
	}, nil
}

func (d *LSM303AGR) writeReg(addr byte, val byte) error {
	return d.dev.Tx([]byte{addr, val}, nil)
}
