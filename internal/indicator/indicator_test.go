package indicator

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.viam.com/test"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/relabs-tech/compass_indicator/internal/compass"
)

var errPin = errors.New("pin stuck")

type stuckPin struct {
	*gpiotest.Pin
}

func (stuckPin) Out(gpio.Level) error { return errPin }

func newPins() ([]*gpiotest.Pin, []gpio.PinOut) {
	names := []string{"LD3", "LD5", "LD7", "LD9", "LD10", "LD8", "LD6", "LD4"}
	fakes := make([]*gpiotest.Pin, len(names))
	outs := make([]gpio.PinOut, len(names))
	for i, n := range names {
		fakes[i] = &gpiotest.Pin{N: n, Num: i}
		outs[i] = fakes[i]
	}
	return fakes, outs
}

func TestLEDArrayShow(t *testing.T) {
	fakes, outs := newPins()
	a, err := NewLEDArray(outs)
	test.That(t, err, test.ShouldBeNil)

	for s := compass.Sector(0); s < compass.NumSectors; s++ {
		test.That(t, a.Show(s), test.ShouldBeNil)
		for i, p := range fakes {
			test.That(t, p.L, test.ShouldEqual, gpio.Level(i == int(s)))
		}
	}

	test.That(t, a.Show(compass.Sector(8)), test.ShouldNotBeNil)

	test.That(t, a.Close(), test.ShouldBeNil)
	for _, p := range fakes {
		test.That(t, p.L, test.ShouldEqual, gpio.Low)
	}
}

func TestLEDArrayStuckPin(t *testing.T) {
	fakes, outs := newPins()
	outs[2] = stuckPin{fakes[2]}
	a, err := NewLEDArray(outs)
	test.That(t, err, test.ShouldBeNil)

	err = a.Show(compass.South)
	test.That(t, errors.Is(err, errPin), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "East off")
	// The rest of the array still follows the sector.
	test.That(t, fakes[compass.South].L, test.ShouldEqual, gpio.High)
	test.That(t, fakes[compass.North].L, test.ShouldEqual, gpio.Low)
}

func TestNewLEDArrayErrors(t *testing.T) {
	_, outs := newPins()
	_, err := NewLEDArray(outs[:7])
	test.That(t, err, test.ShouldNotBeNil)

	outs[3] = nil
	_, err = NewLEDArray(outs)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = OpenLEDArray([]string{"A", "B"})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLogIndicator(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ind := NewLog(zap.New(core).Sugar())
	test.That(t, ind.Show(compass.East), test.ShouldBeNil)
	test.That(t, logs.Len(), test.ShouldEqual, 1)
	test.That(t, logs.All()[0].Message, test.ShouldEqual, "indicator: N [ . . * . . . . . ] NW (E)")

	test.That(t, Nop{}.Show(compass.North), test.ShouldBeNil)
}

func TestRender(t *testing.T) {
	test.That(t, Render(compass.North), test.ShouldEqual, "[ * . . . . . . . ]")
	test.That(t, Render(compass.Northwest), test.ShouldEqual, "[ . . . . . . . * ]")
}
