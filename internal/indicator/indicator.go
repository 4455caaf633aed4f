// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package indicator drives the eight-element heading display.
package indicator

import (
	"strings"

	"go.uber.org/zap"

	"github.com/relabs-tech/compass_indicator/internal/compass"
)

// Indicator lights exactly the element of one sector.
type Indicator interface {
	Show(s compass.Sector) error
}

// Nop discards every sector.
type Nop struct{}

// Show implements Indicator.
func (Nop) Show(compass.Sector) error { return nil }

// Log renders the array as text, e.g. "N [ . . * . . . . . ] NW", for boards
// without LEDs.
type Log struct {
	logger *zap.SugaredLogger
}

// NewLog returns a text indicator writing through logger.
func NewLog(logger *zap.SugaredLogger) *Log {
	return &Log{logger: logger}
}

// Show implements Indicator.
func (l *Log) Show(s compass.Sector) error {
	l.logger.Infof("indicator: N %s NW (%s)", Render(s), s.Abbrev())
	return nil
}

// Render draws the array with the lit element as '*'.
func Render(s compass.Sector) string {
	var b strings.Builder
	b.WriteString("[")
	for i := 0; i < compass.NumSectors; i++ {
		if compass.Sector(i) == s {
			b.WriteString(" *")
		} else {
			b.WriteString(" .")
		}
	}
	b.WriteString(" ]")
	return b.String()
}
