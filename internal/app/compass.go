// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/relabs-tech/compass_indicator/internal/config"
)

// RunCompass opens the hardware described by cfg and runs the compass loop
// until interrupted or cycles cycles have run. Initialization errors are
// returned before the first sample.
func RunCompass(cfg *config.Config, logger *zap.SugaredLogger, cycles int) error {
	hw, err := OpenHardware(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := hw.Close(); err != nil {
			logger.Warnf("hardware close: %v", err)
		}
	}()

	loop, err := NewLoop(hw, cfg, logger.Named("loop"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return loop.Run(ctx, cycles)
}
