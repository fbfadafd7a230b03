package pin

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

func init() {
	Register("periph", openPeriph)
}

type periphProvider struct{}

func openPeriph() (Provider, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph: host init: %w", err)
	}
	return periphProvider{}, nil
}

// Pin looks the name up in the periph registry ("GPIO17", "P1_11", ...).
func (periphProvider) Pin(name string) (Pin, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("%w: periph %q", ErrUnknownPin, name)
	}
	return &periphPin{p: p}, nil
}

func (periphProvider) Close() error { return nil }

type periphPin struct {
	p gpio.PinIO
}

func (pp *periphPin) String() string { return pp.p.Name() }

func (pp *periphPin) SetDirection(d Direction) error {
	switch d {
	case Input:
		return pp.p.In(gpio.Float, gpio.NoEdge)
	case InputPullUp:
		return pp.p.In(gpio.PullUp, gpio.NoEdge)
	case Output:
		return pp.p.Out(gpio.Low)
	}
	return fmt.Errorf("periph: %s: unsupported %s", pp.p.Name(), d)
}

func (pp *periphPin) Read() Level {
	return Level(pp.p.Read() == gpio.High)
}

func (pp *periphPin) Write(l Level) error {
	return pp.p.Out(gpio.Level(l))
}
