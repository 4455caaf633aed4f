// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/relabs-tech/compass_indicator/internal/compass"
	"github.com/relabs-tech/compass_indicator/internal/config"
	"github.com/relabs-tech/compass_indicator/internal/indicator"
)

// RunConsoleMQTT prints every reading published on the heading topic until
// interrupted.
func RunConsoleMQTT(cfg *config.Config, logger *zap.SugaredLogger) error {
	if cfg.MQTTBroker == "" {
		return fmt.Errorf("console: MQTT_BROKER is not set")
	}
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	logger.Infof("connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicHeading, 0, consoleHandler(os.Stdout, logger))
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("console: subscribe %s: %w", cfg.TopicHeading, token.Error())
	}
	logger.Infof("subscribed to %s", cfg.TopicHeading)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	return nil
}

func consoleHandler(w io.Writer, logger *zap.SugaredLogger) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		var r compass.Reading
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			logger.Warnf("reading unmarshal error: %v", err)
			return
		}
		fmt.Fprintln(w, formatReading(r))
	}
}

// formatReading renders one console line.
func formatReading(r compass.Reading) string {
	return fmt.Sprintf(
		"[HDG] %-2s %5.1f°  %s  |B|=%7.1f mG  x=%6d y=%6d z=%6d",
		r.Sector.Abbrev(), r.HeadingDeg, indicator.Render(r.Sector), r.MilliGauss, r.Raw.X, r.Raw.Y, r.Raw.Z,
	)
}
