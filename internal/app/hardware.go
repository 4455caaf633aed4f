// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"

	"github.com/benbjohnson/clock"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/compass_indicator/internal/compass"
	"github.com/relabs-tech/compass_indicator/internal/config"
	"github.com/relabs-tech/compass_indicator/internal/indicator"
	"github.com/relabs-tech/compass_indicator/internal/report"
	"github.com/relabs-tech/compass_indicator/internal/sensors"
)

// Hardware holds every handle the compass loop uses. It is built once by
// OpenHardware and passed explicitly; nothing here is package state.
type Hardware struct {
	Source    sensors.RawReadingSource
	Indicator indicator.Indicator
	Sinks     []report.Sink
	Clock     clock.Clock

	// Calibration converts Source counts to gauss. Zero gains fall back to
	// the configured constants.
	Calibration compass.CalibrationConstants

	closers []func() error
}

// OpenHardware initializes the board: periph host, I2C bus, magnetometer,
// indicator and the configured diagnostic sinks. Any failure is returned
// after releasing what was already opened.
func OpenHardware(cfg *config.Config, logger *zap.SugaredLogger) (*Hardware, error) {
	hw := &Hardware{Clock: clock.New()}
	if err := hw.open(cfg, logger); err != nil {
		return nil, multierr.Append(err, hw.Close())
	}
	return hw, nil
}

func (hw *Hardware) open(cfg *config.Config, logger *zap.SugaredLogger) error {
	needBus := cfg.SensorDriver != config.DriverMock || cfg.DisplayI2CAddr != 0
	if needBus || cfg.Indicator == config.IndicatorGPIO {
		if _, err := host.Init(); err != nil {
			return fmt.Errorf("periph host init failed: %w", err)
		}
	}

	var bus i2c.Bus
	if needBus {
		bc, err := i2creg.Open(cfg.SensorI2CBus)
		if err != nil {
			return fmt.Errorf("i2c open failed on bus %q: %w", cfg.SensorI2CBus, err)
		}
		hw.closers = append(hw.closers, bc.Close)
		bus = bc
		logger.Infof("i2c bus %s open", bc)
	}

	src, err := sensors.Open(cfg, bus, hw.Clock, logger.Named(cfg.SensorDriver))
	if err != nil {
		return err
	}
	hw.Source = src
	hw.Calibration = sensors.ResolveCalibration(src, cfg, logger)

	switch cfg.Indicator {
	case config.IndicatorGPIO:
		leds, err := indicator.OpenLEDArray(cfg.LEDPins)
		if err != nil {
			return err
		}
		hw.closers = append(hw.closers, leds.Close)
		hw.Indicator = leds
	case config.IndicatorLog:
		hw.Indicator = indicator.NewLog(logger.Named("indicator"))
	default:
		hw.Indicator = indicator.Nop{}
	}

	if cfg.ReportLog {
		hw.Sinks = append(hw.Sinks, report.NewLog(logger.Named("report")))
	}

	if cfg.MQTTBroker != "" {
		client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDCompass)
		if err != nil {
			return err
		}
		hw.closers = append(hw.closers, func() error {
			client.Disconnect(250)
			return nil
		})
		hw.Sinks = append(hw.Sinks, report.NewMQTT(client, cfg.TopicHeading))
		logger.Infof("publishing readings to %s on %s", cfg.TopicHeading, cfg.MQTTBroker)
	}

	if cfg.SerialPort != "" {
		port, err := report.OpenSerialPort(cfg.SerialPort, cfg.SerialBaudRate)
		if err != nil {
			return err
		}
		hw.closers = append(hw.closers, port.Close)
		hw.Sinks = append(hw.Sinks, report.NewSerial(port))
		logger.Infof("NMEA output on %s at %d baud", cfg.SerialPort, cfg.SerialBaudRate)
	}

	if cfg.DisplayI2CAddr != 0 {
		dev, err := report.OpenSSD1306(bus, cfg.DisplayI2CAddr)
		if err != nil {
			return err
		}
		hw.closers = append(hw.closers, dev.Halt)
		hw.Sinks = append(hw.Sinks, report.NewDisplay(dev))
	}

	return nil
}

// Close releases handles in reverse opening order.
func (hw *Hardware) Close() error {
	var err error
	for i := len(hw.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, hw.closers[i]())
	}
	hw.closers = nil
	return err
}

// connectMQTT dials the broker and waits for the connection.
func connectMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", broker, token.Error())
	}
	return client, nil
}
