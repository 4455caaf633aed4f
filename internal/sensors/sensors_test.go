package sensors

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"go.viam.com/test"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"

	"github.com/relabs-tech/compass_indicator/internal/compass"
	"github.com/relabs-tech/compass_indicator/internal/config"
)

var errBus = errors.New("bus nack")

// failingBus rejects every transaction.
type failingBus struct{}

func (failingBus) String() string                    { return "failing" }
func (failingBus) Tx(addr uint16, w, r []byte) error { return errBus }
func (failingBus) SetSpeed(f physic.Frequency) error { return nil }

func lsmInitOps() []i2ctest.IO {
	return []i2ctest.IO{
		{Addr: 0x1E, W: []byte{lsmRegWhoAmI}, R: []byte{lsmWhoAmI}},
		{Addr: 0x1E, W: []byte{lsmRegCfgA, 0x80}},
		{Addr: 0x1E, W: []byte{lsmRegCfgC, 0x10}},
	}
}

func TestLSM303AGRRead(t *testing.T) {
	ops := append(lsmInitOps(),
		i2ctest.IO{Addr: 0x1E, W: []byte{lsmRegStatus}, R: []byte{0x0F}},
		// x = 1100, y = -1100, z = 980
		i2ctest.IO{Addr: 0x1E, W: []byte{lsmRegOutX}, R: []byte{0x4C, 0x04, 0xB4, 0xFB, 0xD4, 0x03}},
		i2ctest.IO{Addr: 0x1E, W: []byte{lsmRegStatus}, R: []byte{0x00}},
	)
	bus := &i2ctest.Playback{Ops: ops, DontPanic: true}

	dev, err := NewLSM303AGR(bus, LSM303AGROpts{ODRHz: 10})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dev.Addr(), test.ShouldEqual, uint16(LSM303AGRAddr))

	raw, err := dev.ReadRaw()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, raw, test.ShouldResemble, compass.RawMeasurement{X: 1100, Y: -1100, Z: 980})

	_, err = dev.ReadRaw()
	test.That(t, errors.Is(err, ErrNotReady), test.ShouldBeTrue)

	test.That(t, bus.Close(), test.ShouldBeNil)
}

func TestLSM303AGRInitErrors(t *testing.T) {
	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: 0x1E, W: []byte{lsmRegWhoAmI}, R: []byte{0x33}},
	}, DontPanic: true}
	_, err := NewLSM303AGR(bus, LSM303AGROpts{})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unexpected WHO_AM_I 0x33")

	_, err = NewLSM303AGR(failingBus{}, LSM303AGROpts{})
	test.That(t, errors.Is(err, errBus), test.ShouldBeTrue)

	_, err = NewLSM303AGR(failingBus{}, LSM303AGROpts{ODRHz: 15})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unsupported output data rate")
}

func TestLSM303AGRODR(t *testing.T) {
	ops := lsmInitOps()
	ops[1].W = []byte{lsmRegCfgA, 0x80 | 0b11<<2}
	bus := &i2ctest.Playback{Ops: ops, DontPanic: true}
	_, err := NewLSM303AGR(bus, LSM303AGROpts{ODRHz: 100})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, bus.Close(), test.ShouldBeNil)
}

func TestHMC5983Read(t *testing.T) {
	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: 0x1E, W: []byte{hmcRegIDA}, R: []byte("H43")},
		{Addr: 0x1E, W: []byte{hmcRegCRA, 0b11<<5 | 0b100<<2}},
		{Addr: 0x1E, W: []byte{hmcRegCRB, 2 << 5}},
		{Addr: 0x1E, W: []byte{hmcRegMode, 0x00}},
		{Addr: 0x1E, W: []byte{hmcRegStatus}, R: []byte{hmcStatusRDY}},
		// X=0x0102, Z=0xFF00 (-256), Y=0x0304
		{Addr: 0x1E, W: []byte{hmcRegData}, R: []byte{0x01, 0x02, 0xFF, 0x00, 0x03, 0x04}},
	}, DontPanic: true}

	dev, err := NewHMC5983(bus, HMC5983Opts{ODRHz: 15, AvgSamples: 8, GainCode: 2})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dev.Calibration(), test.ShouldResemble, compass.CalibrationConstants{XYGain: 820, ZGain: 660})

	raw, err := dev.ReadRaw()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, raw, test.ShouldResemble, compass.RawMeasurement{X: 0x0102, Y: 0x0304, Z: -256})
	test.That(t, bus.Close(), test.ShouldBeNil)
}

func TestHMC5983BadID(t *testing.T) {
	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: 0x1E, W: []byte{hmcRegIDA}, R: []byte("XYZ")},
	}, DontPanic: true}
	_, err := NewHMC5983(bus, HMC5983Opts{})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unexpected ID")
}

func TestHMC5983ReadError(t *testing.T) {
	d := &HMC5983{dev: i2c.Dev{Addr: 0x1E, Bus: failingBus{}}, gainCode: 1}
	_, err := d.ReadRaw()
	test.That(t, errors.Is(err, errBus), test.ShouldBeTrue)
}

func TestMockSourceTurns(t *testing.T) {
	clk := clock.NewMock()
	src := NewMockSource(clk, 8*time.Second)
	o := compass.DefaultOrientation()

	seen := map[compass.Sector]bool{}
	for i := 0; i < 8; i++ {
		raw, err := src.ReadRaw()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, raw.Z, test.ShouldEqual, int16(-420))
		seen[o.Classify(compass.ComputeBearing(raw))] = true
		clk.Add(time.Second)
	}
	test.That(t, seen, test.ShouldHaveLength, compass.NumSectors)
}

func TestOpen(t *testing.T) {
	logger := zap.NewNop().Sugar()

	cfg := config.Default()
	cfg.SensorDriver = config.DriverMock
	src, err := Open(cfg, nil, clock.NewMock(), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, src, test.ShouldNotBeNil)

	cfg.SensorDriver = config.DriverLSM303AGR
	bus := &i2ctest.Playback{Ops: lsmInitOps(), DontPanic: true}
	src, err = Open(cfg, bus, clock.NewMock(), logger)
	test.That(t, err, test.ShouldBeNil)
	_, ok := src.(*LSM303AGR)
	test.That(t, ok, test.ShouldBeTrue)

	cfg.SensorDriver = config.DriverHMC5983
	_, err = Open(cfg, failingBus{}, clock.NewMock(), logger)
	test.That(t, errors.Is(err, errBus), test.ShouldBeTrue)

	cfg.SensorDriver = "qmc5883"
	_, err = Open(cfg, nil, clock.NewMock(), logger)
	test.That(t, errors.Is(err, ErrUnknownDriver), test.ShouldBeTrue)
}

func TestRegisterMap(t *testing.T) {
	for _, driver := range []string{config.DriverLSM303AGR, config.DriverHMC5983} {
		regs, err := RegisterMap(driver)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, len(regs), test.ShouldBeGreaterThan, 0)
	}
	_, err := RegisterMap(config.DriverMock)
	test.That(t, errors.Is(err, ErrUnknownDriver), test.ShouldBeTrue)
}

func TestRegisterPort(t *testing.T) {
	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: 0x1E, W: []byte{lsmRegWhoAmI}, R: []byte{lsmWhoAmI}},
		{Addr: 0x1E, W: []byte{lsmRegCfgA, 0x8C}},
	}, DontPanic: true}

	port, err := NewRegisterPort(bus, 0x1E, config.DriverLSM303AGR)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, port.Map()[0].Name, test.ShouldEqual, "OFFSET_X_REG_L_M")

	v, err := port.Read(lsmRegWhoAmI)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v, test.ShouldEqual, byte(lsmWhoAmI))

	test.That(t, port.Write(lsmRegCfgA, 0x8C), test.ShouldBeNil)
	test.That(t, bus.Close(), test.ShouldBeNil)

	err = port.Write(lsmRegStatus, 0x00)
	test.That(t, errors.Is(err, ErrReadOnlyRegister), test.ShouldBeTrue)

	_, err = port.Read(0x00)
	test.That(t, errors.Is(err, ErrUnknownRegister), test.ShouldBeTrue)
}

func TestRegisterPortReadAll(t *testing.T) {
	port, err := NewRegisterPort(failingBus{}, 0x1E, config.DriverHMC5983)
	test.That(t, err, test.ShouldBeNil)
	_, err = port.ReadAll()
	test.That(t, errors.Is(err, errBus), test.ShouldBeTrue)

	var ops []i2ctest.IO
	for _, r := range hmc5983RegisterMap() {
		var a byte
		_, err := fmt.Sscanf(r.Address, "0x%X", &a)
		test.That(t, err, test.ShouldBeNil)
		ops = append(ops, i2ctest.IO{Addr: 0x1E, W: []byte{a}, R: []byte{a + 1}})
	}
	bus := &i2ctest.Playback{Ops: ops, DontPanic: true}
	port, err = NewRegisterPort(bus, 0x1E, config.DriverHMC5983)
	test.That(t, err, test.ShouldBeNil)

	values, err := port.ReadAll()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, values, test.ShouldHaveLength, len(ops))
	test.That(t, values[hmcRegIDA], test.ShouldEqual, byte(hmcRegIDA+1))
}

func hmcInitOps(cra, crb byte) []i2ctest.IO {
	return []i2ctest.IO{
		{Addr: 0x1E, W: []byte{hmcRegIDA}, R: []byte("H43")},
		{Addr: 0x1E, W: []byte{hmcRegCRA, cra}},
		{Addr: 0x1E, W: []byte{hmcRegCRB, crb}},
		{Addr: 0x1E, W: []byte{hmcRegMode, 0x00}},
	}
}

// settle runs open on its own goroutine, advancing mock until it returns.
func settle(t *testing.T, mock *clock.Mock, open func() error) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- open() }()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case err := <-done:
			return err
		case <-deadline:
			t.Fatal("sensor init did not return")
			return nil
		default:
			mock.Add(hmcSettleTime)
		}
	}
}

func TestHMC5983ODR(t *testing.T) {
	for hz, want := range map[int]byte{0: 0b100, 1: 0b001, 3: 0b010, 7: 0b011, 15: 0b100, 30: 0b101, 75: 0b110, 220: 0b111} {
		bits, err := hmcODRBits(hz)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, bits, test.ShouldEqual, want)
	}

	// 10 Hz is an LSM303AGR rate only; the device is never touched.
	_, err := NewHMC5983(failingBus{}, HMC5983Opts{ODRHz: 10})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unsupported output data rate 10 Hz")
	test.That(t, errors.Is(err, errBus), test.ShouldBeFalse)
}

func TestHMC5983SettlesOnInjectedClock(t *testing.T) {
	bus := &i2ctest.Playback{Ops: hmcInitOps(0b100<<2, 1<<5), DontPanic: true}
	mock := clock.NewMock()

	done := make(chan error, 1)
	go func() {
		_, err := NewHMC5983(bus, HMC5983Opts{GainCode: 1, Clock: mock})
		done <- err
	}()

	// Longer than the settle time on the wall clock; only the mock may release it.
	select {
	case err := <-done:
		t.Fatalf("init returned before the mock clock advanced: %v", err)
	case <-time.After(5 * hmcSettleTime):
	}

	test.That(t, settle(t, mock, func() error { return <-done }), test.ShouldBeNil)
	test.That(t, bus.Close(), test.ShouldBeNil)
}

func TestOpenHMC5983UsesGainCodeCalibration(t *testing.T) {
	ops := append(hmcInitOps(0b100<<2, 5<<5),
		i2ctest.IO{Addr: 0x1E, W: []byte{hmcRegStatus}, R: []byte{hmcStatusRDY}},
		// X=390, Z=0, Y=0: one gauss at gain code 5
		i2ctest.IO{Addr: 0x1E, W: []byte{hmcRegData}, R: []byte{0x01, 0x86, 0x00, 0x00, 0x00, 0x00}},
	)
	bus := &i2ctest.Playback{Ops: ops, DontPanic: true}

	cfg := config.Default()
	cfg.SensorDriver = config.DriverHMC5983
	cfg.HMCGainCode = 5

	mock := clock.NewMock()
	var src RawReadingSource
	err := settle(t, mock, func() error {
		var err error
		src, err = Open(cfg, bus, mock, zap.NewNop().Sugar())
		return err
	})
	test.That(t, err, test.ShouldBeNil)

	cal := ResolveCalibration(src, cfg, zap.NewNop().Sugar())
	test.That(t, cal, test.ShouldResemble, compass.CalibrationConstants{XYGain: 390, ZGain: 355})

	raw, err := src.ReadRaw()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, raw, test.ShouldResemble, compass.RawMeasurement{X: 390})
	test.That(t, compass.EstimateMagnitude(raw, cal).MilliGauss(), test.ShouldAlmostEqual, 1000.0)
	test.That(t, bus.Close(), test.ShouldBeNil)
}

func TestResolveCalibration(t *testing.T) {
	hmc := &HMC5983{gainCode: 5}

	core, logs := observer.New(zapcore.WarnLevel)
	logger := zap.New(core).Sugar()

	cfg := config.Default()
	test.That(t, ResolveCalibration(hmc, cfg, logger), test.ShouldResemble, compass.CalibrationConstants{XYGain: 390, ZGain: 355})
	test.That(t, ResolveCalibration(NewMockSource(clock.NewMock(), DefaultMockPeriod), cfg, logger),
		test.ShouldResemble, compass.DefaultCalibration)
	test.That(t, logs.Len(), test.ShouldEqual, 0)

	// Explicit gains win; a mismatch with the device is reported.
	cfg.GainsExplicit = true
	test.That(t, ResolveCalibration(hmc, cfg, logger), test.ShouldResemble, compass.DefaultCalibration)
	test.That(t, logs.FilterMessageSnippet("override sensor gains").Len(), test.ShouldEqual, 1)

	cfg.Calibration = compass.CalibrationConstants{XYGain: 390, ZGain: 355}
	test.That(t, ResolveCalibration(hmc, cfg, logger), test.ShouldResemble, cfg.Calibration)
	test.That(t, logs.Len(), test.ShouldEqual, 1)
}
