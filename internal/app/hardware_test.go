package app

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.viam.com/test"

	"github.com/relabs-tech/compass_indicator/internal/config"
	"github.com/relabs-tech/compass_indicator/internal/indicator"
)

func TestOpenHardwareMock(t *testing.T) {
	cfg := config.Default()
	cfg.SensorDriver = config.DriverMock

	hw, err := OpenHardware(cfg, zap.NewNop().Sugar())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hw.Source, test.ShouldNotBeNil)
	test.That(t, hw.Indicator, test.ShouldHaveSameTypeAs, &indicator.Log{})
	test.That(t, hw.Sinks, test.ShouldHaveLength, 1)
	test.That(t, hw.Sinks[0].Name(), test.ShouldEqual, "log")

	_, err = hw.Source.ReadRaw()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hw.Close(), test.ShouldBeNil)
}

func TestOpenHardwareQuiet(t *testing.T) {
	cfg := config.Default()
	cfg.SensorDriver = config.DriverMock
	cfg.Indicator = config.IndicatorNone
	cfg.ReportLog = false

	hw, err := OpenHardware(cfg, zap.NewNop().Sugar())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hw.Indicator, test.ShouldResemble, indicator.Nop{})
	test.That(t, hw.Sinks, test.ShouldBeEmpty)
}

func TestHardwareCloseOrder(t *testing.T) {
	var order []string
	errBus := errors.New("bus busy")
	errPort := errors.New("port gone")

	hw := &Hardware{closers: []func() error{
		func() error { order = append(order, "bus"); return errBus },
		func() error { order = append(order, "leds"); return nil },
		func() error { order = append(order, "serial"); return errPort },
	}}

	err := hw.Close()
	test.That(t, order, test.ShouldResemble, []string{"serial", "leds", "bus"})
	test.That(t, errors.Is(err, errBus), test.ShouldBeTrue)
	test.That(t, errors.Is(err, errPort), test.ShouldBeTrue)

	test.That(t, hw.Close(), test.ShouldBeNil)
}
