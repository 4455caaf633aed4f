// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package report

import (
	"fmt"
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/compass_indicator/internal/compass"
)

// Drawer is the part of a display device the sink needs. *ssd1306.Dev
// satisfies it.
type Drawer interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// Display shows the latest reading on a 128x64 monochrome OLED.
type Display struct {
	dev Drawer
}

// NewDisplay returns a sink drawing on dev.
func NewDisplay(dev Drawer) *Display {
	return &Display{dev: dev}
}

// OpenSSD1306 initializes an SSD1306 at addr on bus.
func OpenSSD1306(bus i2c.Bus, addr uint16) (*ssd1306.Dev, error) {
	dev, err := ssd1306.NewI2C(fixedAddrBus{Bus: bus, addr: addr}, &ssd1306.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("display: ssd1306 at 0x%02X: %w", addr, err)
	}
	return dev, nil
}

// fixedAddrBus sends every transaction to addr. The driver itself always
// talks to 0x3C; boards strapped to 0x3D need the rewrite.
type fixedAddrBus struct {
	i2c.Bus
	addr uint16
}

func (b fixedAddrBus) Tx(_ uint16, w, r []byte) error {
	return b.Bus.Tx(b.addr, w, r)
}

// Name implements Sink.
func (d *Display) Name() string { return "display" }

// Report implements Sink.
func (d *Display) Report(r compass.Reading) error {
	img := RenderPage(r)
	if err := d.dev.Draw(d.dev.Bounds(), img, image.Point{}); err != nil {
		return fmt.Errorf("display: draw: %w", err)
	}
	return nil
}

// RenderPage lays out sector, heading, magnitude and raw axes in four
// lines of 7x13 text.
func RenderPage(r compass.Reading) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	lines := []string{
		fmt.Sprintf("%-2s %s", r.Sector.Abbrev(), indicatorBar(r.Sector)),
		fmt.Sprintf("Hdg: %5.1f", r.HeadingDeg),
		fmt.Sprintf("B: %6.1f mG", r.MilliGauss),
		fmt.Sprintf("%d %d %d", r.Raw.X, r.Raw.Y, r.Raw.Z),
	}
	for i, line := range lines {
		drawer.Dot = fixed.P(0, 13*(i+1))
		drawer.DrawString(line)
	}
	return img
}

// indicatorBar mirrors the LED array: one character per sector, N first.
func indicatorBar(s compass.Sector) string {
	b := []byte("........")
	if s.Valid() {
		b[s] = '#'
	}
	return string(b)
}
