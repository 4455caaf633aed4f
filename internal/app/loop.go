// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/relabs-tech/compass_indicator/internal/compass"
	"github.com/relabs-tech/compass_indicator/internal/config"
)

// ErrTooManyReadErrors stops Run once READ_ERROR_LIMIT consecutive reads
// have failed.
var ErrTooManyReadErrors = errors.New("too many consecutive sensor read errors")

// Loop is the compass control loop: one sample, one presentation, one
// delay per cycle, on a single goroutine.
type Loop struct {
	hw          *Hardware
	orientation compass.Orientation
	calibration compass.CalibrationConstants
	interval    time.Duration
	errorLimit  int
	logger      *zap.SugaredLogger

	failures int
}

// NewLoop binds the loop to already opened hardware.
func NewLoop(hw *Hardware, cfg *config.Config, logger *zap.SugaredLogger) (*Loop, error) {
	o, err := cfg.Orientation()
	if err != nil {
		return nil, fmt.Errorf("sector order: %w", err)
	}
	cal := hw.Calibration
	if cal.XYGain <= 0 || cal.ZGain <= 0 {
		cal = cfg.Calibration
	}
	return &Loop{
		hw:          hw,
		orientation: o,
		calibration: cal,
		interval:    time.Duration(cfg.SampleInterval) * time.Millisecond,
		errorLimit:  cfg.ReadErrorLimit,
		logger:      logger,
	}, nil
}

// Step reads exactly one measurement and presents it. A failed read
// presents nothing and returns the wrapped error. Indicator and sink
// failures are logged only.
func (l *Loop) Step() (compass.Reading, error) {
	raw, err := l.hw.Source.ReadRaw()
	if err != nil {
		l.failures++
		l.logger.Warnf("read failed (%d in a row): %v", l.failures, err)
		return compass.Reading{}, fmt.Errorf("read magnetometer: %w", err)
	}
	l.failures = 0

	reading := compass.Evaluate(raw, l.orientation, l.calibration, l.hw.Clock.Now())

	if err := l.hw.Indicator.Show(reading.Sector); err != nil {
		l.logger.Warnf("indicator: %v", err)
	}
	for _, sink := range l.hw.Sinks {
		if err := sink.Report(reading); err != nil {
			l.logger.Warnf("%s: %v", sink.Name(), err)
		}
	}
	return reading, nil
}

// Run repeats Step and the sample delay until ctx is done, cycles cycles
// have run (0 means forever) or the read error limit is reached. ctx is
// only checked between cycles; a started delay always completes.
func (l *Loop) Run(ctx context.Context, cycles int) error {
	l.logger.Infof("loop started (interval=%s, cycles=%d)", l.interval, cycles)
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			l.logger.Infof("loop stopped after %d cycles", n-1)
			return nil
		}

		if _, err := l.Step(); err != nil && l.errorLimit > 0 && l.failures >= l.errorLimit {
			return fmt.Errorf("%w (%d): %v", ErrTooManyReadErrors, l.failures, err)
		}

		if cycles > 0 && n >= cycles {
			l.logger.Infof("loop finished %d cycles", n)
			return nil
		}
		l.hw.Clock.Sleep(l.interval)
	}
}
