// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"periph.io/x/conn/v3/i2c"

	"github.com/relabs-tech/compass_indicator/internal/config"
)

// ErrUnknownRegister is returned for addresses missing from the register map.
var ErrUnknownRegister = errors.New("register not in map")

// ErrReadOnlyRegister is returned when writing a register that is not RW.
var ErrReadOnlyRegister = errors.New("register is read-only")

// BitField describes a field inside a register.
type BitField struct {
	Bits        string `json:"bits"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Values      string `json:"values,omitempty"`
}

// RegisterInfo describes one register for the debug UI.
type RegisterInfo struct {
	Address     string     `json:"address"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Access      string     `json:"access"` // "R" or "RW"
	Default     string     `json:"default,omitempty"`
	BitFields   []BitField `json:"bit_fields,omitempty"`
}

// RegisterMap returns the register metadata for a sensor driver.
func RegisterMap(driver string) ([]RegisterInfo, error) {
	switch driver {
	case config.DriverLSM303AGR:
		return lsm303agrRegisterMap(), nil
	case config.DriverHMC5983:
		return hmc5983RegisterMap(), nil
	default:
		return nil, fmt.Errorf("%w: no register map for %q", ErrUnknownDriver, driver)
	}
}

// RegisterPort gives byte-level access to the magnetometer registers listed
// in its map. Writes are limited to RW registers.
type RegisterPort struct {
	dev   i2c.Dev
	info  []RegisterInfo
	byReg map[byte]RegisterInfo
}

// NewRegisterPort binds the register map of driver to the device at addr.
func NewRegisterPort(bus i2c.Bus, addr uint16, driver string) (*RegisterPort, error) {
	info, err := RegisterMap(driver)
	if err != nil {
		return nil, err
	}
	byReg := make(map[byte]RegisterInfo, len(info))
	for _, r := range info {
		a, err := strconv.ParseUint(r.Address, 0, 8)
		if err != nil {
			return nil, fmt.Errorf("register map %s: bad address %q: %w", driver, r.Address, err)
		}
		byReg[byte(a)] = r
	}
	return &RegisterPort{dev: i2c.Dev{Addr: addr, Bus: bus}, info: info, byReg: byReg}, nil
}

// Map returns the register metadata in datasheet order.
func (p *RegisterPort) Map() []RegisterInfo {
	return p.info
}

// Read returns the value of one register.
func (p *RegisterPort) Read(addr byte) (byte, error) {
	if _, ok := p.byReg[addr]; !ok {
		return 0, fmt.Errorf("0x%02X: %w", addr, ErrUnknownRegister)
	}
	buf := make([]byte, 1)
	if err := p.dev.Tx([]byte{addr}, buf); err != nil {
		return 0, fmt.Errorf("read 0x%02X: %w", addr, err)
	}
	return buf[0], nil
}

// ReadAll reads every mapped register in ascending address order.
func (p *RegisterPort) ReadAll() (map[byte]byte, error) {
	addrs := make([]int, 0, len(p.byReg))
	for a := range p.byReg {
		addrs = append(addrs, int(a))
	}
	sort.Ints(addrs)

	values := make(map[byte]byte, len(addrs))
	for _, a := range addrs {
		v, err := p.Read(byte(a))
		if err != nil {
			return nil, err
		}
		values[byte(a)] = v
	}
	return values, nil
}

// Write sets a RW register.
func (p *RegisterPort) Write(addr, value byte) error {
	r, ok := p.byReg[addr]
	if !ok {
		return fmt.Errorf("0x%02X: %w", addr, ErrUnknownRegister)
	}
	if r.Access != "RW" {
		return fmt.Errorf("0x%02X %s: %w", addr, r.Name, ErrReadOnlyRegister)
	}
	if err := p.dev.Tx([]byte{addr, value}, nil); err != nil {
		return fmt.Errorf("write 0x%02X: %w", addr, err)
	}
	return nil
}

func lsm303agrRegisterMap() []RegisterInfo {
	return []RegisterInfo{
		// Hard-iron offsets
		{Address: "0x45", Name: "OFFSET_X_REG_L_M", Description: "Hard-iron offset X low byte", Access: "RW", Default: "0x00"},
		{Address: "0x46", Name: "OFFSET_X_REG_H_M", Description: "Hard-iron offset X high byte", Access: "RW", Default: "0x00"},
		{Address: "0x47", Name: "OFFSET_Y_REG_L_M", Description: "Hard-iron offset Y low byte", Access: "RW", Default: "0x00"},
		{Address: "0x48", Name: "OFFSET_Y_REG_H_M", Description: "Hard-iron offset Y high byte", Access: "RW", Default: "0x00"},
		{Address: "0x49", Name: "OFFSET_Z_REG_L_M", Description: "Hard-iron offset Z low byte", Access: "RW", Default: "0x00"},
		{Address: "0x4A", Name: "OFFSET_Z_REG_H_M", Description: "Hard-iron offset Z high byte", Access: "RW", Default: "0x00"},

		{Address: "0x4F", Name: "WHO_AM_I_M", Description: "Device identification (should be 0x40)", Access: "R", Default: "0x40"},

		// Configuration
		{Address: "0x60", Name: "CFG_REG_A_M", Description: "Mode, rate and temperature compensation", Access: "RW", Default: "0x03",
			BitFields: []BitField{
				{Bits: "7", Name: "COMP_TEMP_EN", Description: "Temperature compensation", Values: "0=Disabled, 1=Enabled"},
				{Bits: "6", Name: "REBOOT", Description: "Reboot memory content"},
				{Bits: "5", Name: "SOFT_RST", Description: "Reset configuration and user registers"},
				{Bits: "4", Name: "LP", Description: "Low-power mode", Values: "0=High resolution, 1=Low power"},
				{Bits: "3:2", Name: "ODR", Description: "Output data rate", Values: "0=10Hz, 1=20Hz, 2=50Hz, 3=100Hz"},
				{Bits: "1:0", Name: "MD", Description: "Mode", Values: "0=Continuous, 1=Single, 2/3=Idle"},
			}},
		{Address: "0x61", Name: "CFG_REG_B_M", Description: "Filtering and offset cancellation", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "4", Name: "OFF_CANC_ONE_SHOT", Description: "Offset cancellation in single mode"},
				{Bits: "3", Name: "INT_on_DataOFF", Description: "Interrupt check after hard-iron correction"},
				{Bits: "2", Name: "Set_FREQ", Description: "Set pulse frequency", Values: "0=Every 63 ODR, 1=Power-on only"},
				{Bits: "1", Name: "OFF_CANC", Description: "Offset cancellation"},
				{Bits: "0", Name: "LPF", Description: "Digital low-pass filter", Values: "0=ODR/2, 1=ODR/4"},
			}},
		{Address: "0x62", Name: "CFG_REG_C_M", Description: "Interface and data update", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "6", Name: "INT_MAG_PIN", Description: "Interrupt on INT_MAG_PIN"},
				{Bits: "5", Name: "I2C_DIS", Description: "Disable I2C"},
				{Bits: "4", Name: "BDU", Description: "Block data update", Values: "0=Continuous, 1=Until both bytes read"},
				{Bits: "3", Name: "BLE", Description: "Byte order", Values: "0=LSB at lower address, 1=MSB at lower address"},
				{Bits: "1", Name: "Self_test", Description: "Self-test enable"},
				{Bits: "0", Name: "INT_MAG", Description: "DRDY on INT_MAG pin"},
			}},

		// Interrupt
		{Address: "0x63", Name: "INT_CRTL_REG_M", Description: "Interrupt control", Access: "RW", Default: "0xE0"},
		{Address: "0x64", Name: "INT_SOURCE_REG_M", Description: "Interrupt source", Access: "R"},
		{Address: "0x65", Name: "INT_THS_L_REG_M", Description: "Interrupt threshold low byte", Access: "RW", Default: "0x00"},
		{Address: "0x66", Name: "INT_THS_H_REG_M", Description: "Interrupt threshold high byte", Access: "RW", Default: "0x00"},

		{Address: "0x67", Name: "STATUS_REG_M", Description: "Data status", Access: "R",
			BitFields: []BitField{
				{Bits: "7", Name: "Zyxor", Description: "X, Y, Z axis data overrun"},
				{Bits: "3", Name: "Zyxda", Description: "X, Y, Z axis new data available"},
				{Bits: "2", Name: "zda", Description: "Z axis new data available"},
				{Bits: "1", Name: "yda", Description: "Y axis new data available"},
				{Bits: "0", Name: "xda", Description: "X axis new data available"},
			}},

		// Output (little-endian)
		{Address: "0x68", Name: "OUTX_L_REG_M", Description: "X low byte", Access: "R"},
		{Address: "0x69", Name: "OUTX_H_REG_M", Description: "X high byte", Access: "R"},
		{Address: "0x6A", Name: "OUTY_L_REG_M", Description: "Y low byte", Access: "R"},
		{Address: "0x6B", Name: "OUTY_H_REG_M", Description: "Y high byte", Access: "R"},
		{Address: "0x6C", Name: "OUTZ_L_REG_M", Description: "Z low byte", Access: "R"},
		{Address: "0x6D", Name: "OUTZ_H_REG_M", Description: "Z high byte", Access: "R"},
	}
}

func hmc5983RegisterMap() []RegisterInfo {
	return []RegisterInfo{
		{Address: "0x00", Name: "CRA", Description: "Configuration A: averaging, rate, bias", Access: "RW", Default: "0x10",
			BitFields: []BitField{
				{Bits: "7", Name: "TS", Description: "Temperature sensor", Values: "0=Disabled, 1=Enabled"},
				{Bits: "6:5", Name: "MA", Description: "Samples averaged", Values: "0=1, 1=2, 2=4, 3=8"},
				{Bits: "4:2", Name: "DO", Description: "Output data rate", Values: "0=0.75Hz, 1=1.5Hz, 2=3Hz, 3=7.5Hz, 4=15Hz, 5=30Hz, 6=75Hz, 7=220Hz"},
				{Bits: "1:0", Name: "MS", Description: "Measurement mode", Values: "0=Normal, 1=Positive bias, 2=Negative bias, 3=Temperature only"},
			}},
		{Address: "0x01", Name: "CRB", Description: "Configuration B: gain", Access: "RW", Default: "0x20",
			BitFields: []BitField{
				{Bits: "7:5", Name: "GN", Description: "Gain", Values: "0=±0.88Ga ... 7=±8.1Ga"},
			}},
		{Address: "0x02", Name: "MR", Description: "Mode", Access: "RW", Default: "0x01",
			BitFields: []BitField{
				{Bits: "7", Name: "HS", Description: "High-speed I2C (3400kHz)"},
				{Bits: "5", Name: "LP", Description: "Lowest power mode"},
				{Bits: "2", Name: "SIM", Description: "SPI mode", Values: "0=4-wire, 1=3-wire"},
				{Bits: "1:0", Name: "MD", Description: "Operating mode", Values: "0=Continuous, 1=Single, 2/3=Idle"},
			}},

		// Output (big-endian, X Z Y)
		{Address: "0x03", Name: "DXRA", Description: "X MSB", Access: "R"},
		{Address: "0x04", Name: "DXRB", Description: "X LSB", Access: "R"},
		{Address: "0x05", Name: "DZRA", Description: "Z MSB", Access: "R"},
		{Address: "0x06", Name: "DZRB", Description: "Z LSB", Access: "R"},
		{Address: "0x07", Name: "DYRA", Description: "Y MSB", Access: "R"},
		{Address: "0x08", Name: "DYRB", Description: "Y LSB", Access: "R"},

		{Address: "0x09", Name: "SR", Description: "Status", Access: "R",
			BitFields: []BitField{
				{Bits: "4", Name: "DOW", Description: "Data overwritten"},
				{Bits: "1", Name: "LOCK", Description: "Data output locked"},
				{Bits: "0", Name: "RDY", Description: "Data ready"},
			}},

		{Address: "0x0A", Name: "IRA", Description: "Identification A ('H')", Access: "R", Default: "0x48"},
		{Address: "0x0B", Name: "IRB", Description: "Identification B ('4')", Access: "R", Default: "0x34"},
		{Address: "0x0C", Name: "IRC", Description: "Identification C ('3')", Access: "R", Default: "0x33"},

		{Address: "0x31", Name: "TEMP_H", Description: "Temperature MSB", Access: "R"},
		{Address: "0x32", Name: "TEMP_L", Description: "Temperature LSB", Access: "R"},
	}
}
