// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/relabs-tech/compass_indicator/internal/config"
	"github.com/relabs-tech/compass_indicator/internal/logging"
)

// DefaultConfigPath is where every binary looks for its configuration.
const DefaultConfigPath = "./compass_config.txt"

// Setup loads the global configuration and builds the logger for one
// binary.
func Setup(configPath, name string) (*config.Config, *zap.SugaredLogger, error) {
	if err := config.InitGlobal(configPath); err != nil {
		return nil, nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}
	cfg := config.Get()

	logger, err := logging.NewLogger(name, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
