package app

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"github.com/relabs-tech/compass_indicator/internal/config"
)

func TestSetup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compass_config.txt")
	body := "SENSOR_DRIVER=mock\nLOG_LEVEL=warn\n"
	test.That(t, os.WriteFile(path, []byte(body), 0o600), test.ShouldBeNil)

	cfg, logger, err := Setup(path, "compass")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg, test.ShouldEqual, config.Get())
	test.That(t, cfg.SensorDriver, test.ShouldEqual, config.DriverMock)
	test.That(t, logger.Desugar().Core().Enabled(-1), test.ShouldBeFalse)
}
