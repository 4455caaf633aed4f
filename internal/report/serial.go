// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package report

import (
	"fmt"
	"io"
	"math"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/compass_indicator/internal/compass"
)

// Serial writes an NMEA 0183 HDM sentence followed by the text lines to a
// UART. Chart plotters pick up the sentence and ignore the rest.
type Serial struct {
	w io.Writer
}

// NewSerial returns a sink writing to w.
func NewSerial(w io.Writer) *Serial {
	return &Serial{w: w}
}

// OpenSerialPort opens the port 8N1.
func OpenSerialPort(port string, baud int) (io.ReadWriteCloser, error) {
	opts := serial.OpenOptions{
		PortName:              port,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	rwc, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", port, err)
	}
	return rwc, nil
}

// HDMSentence encodes a magnetic heading, e.g. "$HCHDM,093.8,M*2B".
func HDMSentence(headingDeg float64) string {
	h := math.Mod(math.Round(headingDeg*10)/10, 360)
	if h < 0 {
		h += 360
	}
	body := fmt.Sprintf("HCHDM,%05.1f,M", h)
	return "$" + body + "*" + nmea.Checksum(body)
}

// Name implements Sink.
func (s *Serial) Name() string { return "serial" }

// Report implements Sink.
func (s *Serial) Report(r compass.Reading) error {
	if _, err := io.WriteString(s.w, HDMSentence(r.HeadingDeg)+"\r\n"); err != nil {
		return fmt.Errorf("serial: write HDM: %w", err)
	}
	for _, line := range TextLines(r) {
		if _, err := io.WriteString(s.w, line+"\r\n"); err != nil {
			return fmt.Errorf("serial: write text: %w", err)
		}
	}
	return nil
}
