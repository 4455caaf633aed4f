// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// compass reads the magnetometer once per cycle, lights the indicator LED
// for the heading sector and reports the field magnitude.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/relabs-tech/compass_indicator/internal/app"
)

func main() {
	cliApp := &cli.App{
		Name:  "compass",
		Usage: "8-sector magnetic compass indicator",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   app.DefaultConfigPath,
				Usage:   "Load configuration from `FILE`",
			},
			&cli.IntFlag{
				Name:  "cycles",
				Usage: "stop after `N` cycles (0 runs forever)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := app.Setup(c.String("config"), "compass")
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			logger.Infof("starting compass (sensor=%s, indicator=%s)", cfg.SensorDriver, cfg.Indicator)
			return app.RunCompass(cfg, logger, c.Int("cycles"))
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}
