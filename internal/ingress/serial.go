package ingress

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.bug.st/serial"
)

// MIDI DIN electrical framing.
const (
	MIDIBaud     = 31250
	MIDIDataBits = 8
)

const serialReadTimeout = 100 * time.Millisecond

// MIDIMode is 31250 baud, 8 data bits, no parity, 2 stop bits.
func MIDIMode() *serial.Mode {
	return &serial.Mode{
		BaudRate: MIDIBaud,
		DataBits: MIDIDataBits,
		Parity:   serial.NoParity,
		StopBits: serial.TwoStopBits,
	}
}

// Serial is a receive-only UART carrying MIDI.
type Serial struct {
	name string
	port serial.Port
	log  *slog.Logger
}

// OpenSerial opens the named device with MIDI framing.
func OpenSerial(name string, log *slog.Logger) (*Serial, error) {
	if log == nil {
		log = slog.Default()
	}
	p, err := serial.Open(name, MIDIMode())
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", name, err)
	}
	if err := p.SetReadTimeout(serialReadTimeout); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("serial: %s: set read timeout: %w", name, err)
	}
	if err := p.ResetInputBuffer(); err != nil {
		log.Warn("serial: reset input buffer failed", "device", name, "err", err)
	}
	log.Info("serial: port opened", "device", name, "baud", MIDIBaud)
	return &Serial{name: name, port: p, log: log}, nil
}

// Run feeds q until ctx is cancelled.
func (s *Serial) Run(ctx context.Context, q Queue) error {
	return Pump(ctx, s.port, q, s.log.With("device", s.name))
}

// Close closes the underlying serial port.
func (s *Serial) Close() {
	s.log.Info("serial: closing port", "device", s.name)
	_ = s.port.Close()
}

// Ports lists serial devices present on the host.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
