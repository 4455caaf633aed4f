// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package report

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/compass_indicator/internal/compass"
)

// publishTimeout bounds how long a cycle waits for the broker.
const publishTimeout = 500 * time.Millisecond

// MQTT publishes each reading as retained JSON on one topic.
type MQTT struct {
	client mqtt.Client
	topic  string
}

// NewMQTT returns a publisher on an already connected client.
func NewMQTT(client mqtt.Client, topic string) *MQTT {
	return &MQTT{client: client, topic: topic}
}

// Name implements Sink.
func (m *MQTT) Name() string { return "mqtt" }

// Report implements Sink.
func (m *MQTT) Report(r compass.Reading) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("mqtt: json marshal: %w", err)
	}
	token := m.client.Publish(m.topic, 0, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("mqtt: publish to %s timed out", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: publish to %s: %w", m.topic, err)
	}
	return nil
}
