// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/i2c"

	"github.com/relabs-tech/compass_indicator/internal/compass"
	"github.com/relabs-tech/compass_indicator/internal/config"
)

// ErrNotReady is returned when the sensor has no new sample.
var ErrNotReady = errors.New("magnetometer data not ready")

// ErrUnknownDriver is returned by Open for an unsupported SENSOR_DRIVER.
var ErrUnknownDriver = errors.New("unknown sensor driver")

// RawReadingSource yields one magnetometer sample per call. A failed call
// returns no measurement at all; callers must not substitute one.
type RawReadingSource interface {
	ReadRaw() (compass.RawMeasurement, error)
}

// Calibrated is implemented by sources whose counts-per-gauss follow from
// their own configuration.
type Calibrated interface {
	Calibration() compass.CalibrationConstants
}

// ResolveCalibration picks the constants used to turn src's counts into
// gauss. Configured gains win when set explicitly; otherwise a Calibrated
// source supplies its own.
func ResolveCalibration(src RawReadingSource, cfg *config.Config, logger *zap.SugaredLogger) compass.CalibrationConstants {
	dev, ok := src.(Calibrated)
	if !ok {
		return cfg.Calibration
	}
	gains := dev.Calibration()
	if !cfg.GainsExplicit {
		return gains
	}
	if gains != cfg.Calibration {
		logger.Warnf("configured gains XY=%.0f Z=%.0f override sensor gains XY=%.0f Z=%.0f LSB/Ga",
			cfg.Calibration.XYGain, cfg.Calibration.ZGain, gains.XYGain, gains.ZGain)
	}
	return cfg.Calibration
}

// Open creates the source selected by cfg.SensorDriver. bus may be nil for
// the mock driver.
func Open(cfg *config.Config, bus i2c.Bus, clk clock.Clock, logger *zap.SugaredLogger) (RawReadingSource, error) {
	switch cfg.SensorDriver {
	case config.DriverLSM303AGR:
		dev, err := NewLSM303AGR(bus, LSM303AGROpts{Addr: cfg.SensorI2CAddr, ODRHz: cfg.SensorODRHz})
		if err != nil {
			return nil, err
		}
		logger.Infof("lsm303agr: magnetometer ready (addr=0x%02X, odr=%dHz)", dev.Addr(), cfg.SensorODRHz)
		return dev, nil
	case config.DriverHMC5983:
		dev, err := NewHMC5983(bus, HMC5983Opts{
			Addr:       cfg.SensorI2CAddr,
			ODRHz:      cfg.SensorODRHz,
			AvgSamples: cfg.HMCAvgSamples,
			GainCode:   cfg.HMCGainCode,
			Clock:      clk,
		})
		if err != nil {
			return nil, err
		}
		gains := dev.Calibration()
		logger.Infof("hmc5983: magnetometer ready (addr=0x%02X, gain code=%d, datasheet XY=%.0f Z=%.0f LSB/Ga)",
			dev.Addr(), cfg.HMCGainCode, gains.XYGain, gains.ZGain)
		return dev, nil
	case config.DriverMock:
		logger.Info("using mock magnetometer source")
		return NewMockSource(clk, DefaultMockPeriod), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.SensorDriver)
	}
}
