package app

import (
	"bytes"
	"encoding/json"
	"testing"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"go.viam.com/test"

	"github.com/relabs-tech/compass_indicator/internal/compass"
)

// mqttMessage lets fakes implement only the methods a handler calls.
type mqttMessage = mqtt.Message

func TestFormatReading(t *testing.T) {
	line := formatReading(readingFor(compass.RawMeasurement{X: 0, Y: -1100, Z: 0}))
	test.That(t, line, test.ShouldStartWith, "[HDG] W  270.0°")
	test.That(t, line, test.ShouldContainSubstring, "[ . . . . . . * . ]")
	test.That(t, line, test.ShouldContainSubstring, "|B|= 1000.0 mG")
	test.That(t, line, test.ShouldContainSubstring, "y= -1100")
}

func TestConsoleHandler(t *testing.T) {
	var out bytes.Buffer
	core, logs := observer.New(zapcore.WarnLevel)
	handle := consoleHandler(&out, zap.New(core).Sugar())

	handle(nil, fakeMessage{payload: []byte("{")})
	test.That(t, out.Len(), test.ShouldEqual, 0)
	test.That(t, logs.Len(), test.ShouldEqual, 1)

	payload, err := json.Marshal(readingFor(compass.RawMeasurement{X: 1100, Y: 0, Z: 0}))
	test.That(t, err, test.ShouldBeNil)
	handle(nil, fakeMessage{payload: payload})
	test.That(t, out.String(), test.ShouldStartWith, "[HDG] S  180.0°")
}
