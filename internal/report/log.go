// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package report

import (
	"go.uber.org/zap"

	"github.com/relabs-tech/compass_indicator/internal/compass"
)

// Log writes TextLines through a zap logger.
type Log struct {
	logger *zap.SugaredLogger
}

// NewLog returns a text sink.
func NewLog(logger *zap.SugaredLogger) *Log {
	return &Log{logger: logger}
}

// Name implements Sink.
func (l *Log) Name() string { return "log" }

// Report implements Sink.
func (l *Log) Report(r compass.Reading) error {
	for _, line := range TextLines(r) {
		l.logger.Info(line)
	}
	l.logger.Debugw("heading", "sector", r.SectorName, "heading_deg", r.HeadingDeg)
	return nil
}
