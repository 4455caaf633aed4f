// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/relabs-tech/compass_indicator/internal/compass"
)

// Sensor drivers.
const (
	DriverLSM303AGR = "lsm303agr"
	DriverHMC5983   = "hmc5983"
	DriverMock      = "mock"
)

// Indicator kinds.
const (
	IndicatorGPIO = "gpio"
	IndicatorLog  = "log"
	IndicatorNone = "none"
)

// Config holds all application configuration values.
type Config struct {
	LogLevel string

	// Sensor
	SensorDriver  string
	SensorI2CBus  string
	SensorI2CAddr uint16
	SensorODRHz   int // 0 selects the driver default
	HMCGainCode   int
	HMCAvgSamples int

	// Calibration and mounting
	Calibration compass.CalibrationConstants
	// GainsExplicit is set when XY_GAIN or Z_GAIN was configured; otherwise
	// a driver that knows its own gain supplies the calibration.
	GainsExplicit bool
	SectorOrder   [compass.NumSectors]compass.Sector

	// Loop
	SampleInterval int // milliseconds
	ReadErrorLimit int // consecutive failures before halting, 0 = never

	// Indicator
	Indicator string
	LEDPins   []string // indexed by compass.Sector

	// Diagnostics
	ReportLog      bool
	SerialPort     string
	SerialBaudRate int
	DisplayI2CAddr uint16

	// MQTT
	MQTTBroker          string
	MQTTClientIDCompass string
	MQTTClientIDConsole string
	MQTTClientIDWeb     string
	TopicHeading        string

	// Web Server
	WebServerPort     int
	RegisterDebugPort int
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported so other packages cannot modify it without locking.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: write lock for initialization, read lock for Get().
//
// Only the binaries use the singleton; the control loop is handed its *Config.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns a configuration for the reference board with the log
// indicator and no network outputs.
func Default() *Config {
	return &Config{
		LogLevel:            "info",
		SensorDriver:        DriverLSM303AGR,
		SensorI2CAddr:       0x1E,
		SensorODRHz:         0,
		HMCGainCode:         1,
		HMCAvgSamples:       1,
		Calibration:         compass.DefaultCalibration,
		SectorOrder:         compass.ReferenceOrder,
		SampleInterval:      1000,
		Indicator:           IndicatorLog,
		ReportLog:           true,
		SerialBaudRate:      4800,
		MQTTClientIDCompass: "compass-producer",
		MQTTClientIDConsole: "compass-console",
		MQTTClientIDWeb:     "compass-web",
		TopicHeading:        "compass/heading",
		WebServerPort:       8080,
		RegisterDebugPort:   8081,
	}
}

// Load reads the configuration file and returns a Config struct. Keys not
// present in the file keep their Default() value.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	case "LOG_LEVEL":
		c.LogLevel = strings.ToLower(value)

	// Sensor
	case "SENSOR_DRIVER":
		c.SensorDriver = strings.ToLower(value)
	case "SENSOR_I2C_BUS":
		c.SensorI2CBus = value
	case "SENSOR_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid SENSOR_I2C_ADDR %q: %w", value, err)
		}
		c.SensorI2CAddr = uint16(addr)
	case "SENSOR_ODR_HZ":
		odr, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SENSOR_ODR_HZ %q: %w", value, err)
		}
		if odr < 0 {
			return fmt.Errorf("SENSOR_ODR_HZ must not be negative, got %d", odr)
		}
		c.SensorODRHz = odr
	case "HMC_GAIN_CODE":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid HMC_GAIN_CODE %q: %w", value, err)
		}
		if val < 0 || val > 7 {
			return fmt.Errorf("HMC_GAIN_CODE must be 0-7, got %d", val)
		}
		c.HMCGainCode = val
	case "HMC_AVG_SAMPLES":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid HMC_AVG_SAMPLES %q: %w", value, err)
		}
		switch val {
		case 1, 2, 4, 8:
		default:
			return fmt.Errorf("HMC_AVG_SAMPLES must be 1, 2, 4 or 8, got %d", val)
		}
		c.HMCAvgSamples = val

	// Calibration and mounting
	case "XY_GAIN":
		gain, err := parseGain(key, value)
		if err != nil {
			return err
		}
		c.Calibration.XYGain = gain
		c.GainsExplicit = true
	case "Z_GAIN":
		gain, err := parseGain(key, value)
		if err != nil {
			return err
		}
		c.Calibration.ZGain = gain
		c.GainsExplicit = true
	case "SECTOR_ORDER":
		order, err := compass.ParseSectorOrder(value)
		if err != nil {
			return fmt.Errorf("invalid SECTOR_ORDER %q: %w", value, err)
		}
		c.SectorOrder = order

	// Loop
	case "SAMPLE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SAMPLE_INTERVAL %q: %w", value, err)
		}
		if interval <= 0 {
			return fmt.Errorf("SAMPLE_INTERVAL must be positive, got %d", interval)
		}
		c.SampleInterval = interval
	case "READ_ERROR_LIMIT":
		limit, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid READ_ERROR_LIMIT %q: %w", value, err)
		}
		if limit < 0 {
			return fmt.Errorf("READ_ERROR_LIMIT must be >= 0, got %d", limit)
		}
		c.ReadErrorLimit = limit

	// Indicator
	case "INDICATOR":
		c.Indicator = strings.ToLower(value)
	case "LED_PINS":
		pins := strings.Split(value, ",")
		for i := range pins {
			pins[i] = strings.TrimSpace(pins[i])
		}
		c.LEDPins = pins

	// Diagnostics
	case "REPORT_LOG":
		on, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid REPORT_LOG %q: %w", value, err)
		}
		c.ReportLog = on
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD_RATE %q: %w", value, err)
		}
		c.SerialBaudRate = rate
	case "DISPLAY_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_I2C_ADDR %q: %w", value, err)
		}
		c.DisplayI2CAddr = uint16(addr)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_COMPASS":
		c.MQTTClientIDCompass = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "TOPIC_HEADING":
		c.TopicHeading = value

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port
	case "REGISTER_DEBUG_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid REGISTER_DEBUG_PORT %q: %w", value, err)
		}
		c.RegisterDebugPort = port

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

func parseGain(key, value string) (float64, error) {
	gain, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if gain <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %g", key, gain)
	}
	return gain, nil
}

// validate checks cross-field rules.
func (c *Config) validate() error {
	switch c.SensorDriver {
	case DriverLSM303AGR, DriverHMC5983, DriverMock:
	default:
		return fmt.Errorf("SENSOR_DRIVER must be %s, %s or %s, got %q",
			DriverLSM303AGR, DriverHMC5983, DriverMock, c.SensorDriver)
	}
	if _, err := compass.NewOrientation(c.SectorOrder); err != nil {
		return fmt.Errorf("SECTOR_ORDER: %w", err)
	}
	switch c.Indicator {
	case IndicatorGPIO:
		if len(c.LEDPins) != compass.NumSectors {
			return fmt.Errorf("LED_PINS needs %d pins for INDICATOR=gpio, got %d", compass.NumSectors, len(c.LEDPins))
		}
	case IndicatorLog, IndicatorNone:
	default:
		return fmt.Errorf("INDICATOR must be gpio, log or none, got %q", c.Indicator)
	}
	if c.MQTTBroker != "" && c.TopicHeading == "" {
		return fmt.Errorf("TOPIC_HEADING is required when MQTT_BROKER is set")
	}
	if c.SerialPort != "" && c.SerialBaudRate <= 0 {
		return fmt.Errorf("SERIAL_BAUD_RATE is required when SERIAL_PORT is set")
	}
	return nil
}

// Orientation builds the sector table for the configured mounting.
func (c *Config) Orientation() (compass.Orientation, error) {
	return compass.NewOrientation(c.SectorOrder)
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
