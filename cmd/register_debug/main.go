// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/relabs-tech/compass_indicator/internal/app"
)

func main() {
	cliApp := &cli.App{
		Name:  "register_debug",
		Usage: "inspect and poke magnetometer registers from a browser",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   app.DefaultConfigPath,
				Usage:   "Load configuration from `FILE`",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := app.Setup(c.String("config"), "register_debug")
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			logger.Infof("starting %s register debug tool (standalone)", cfg.SensorDriver)
			return app.RunRegisterDebug(cfg, logger)
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}
