package pin

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stianeikeland/go-rpio/v4"
)

func init() {
	Register("rpio", openRpio)
}

type rpioProvider struct{}

func openRpio() (Provider, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("rpio: open: %w", err)
	}
	return rpioProvider{}, nil
}

// Pin accepts BCM numbers, bare ("17") or prefixed ("GPIO17", "BCM17").
func (rpioProvider) Pin(name string) (Pin, error) {
	n, err := bcmNumber(name)
	if err != nil {
		return nil, err
	}
	return &rpioPin{name: name, p: rpio.Pin(n)}, nil
}

func (rpioProvider) Close() error { return rpio.Close() }

func bcmNumber(name string) (uint8, error) {
	s := strings.ToUpper(strings.TrimSpace(name))
	s = strings.TrimPrefix(s, "GPIO")
	s = strings.TrimPrefix(s, "BCM")
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil || n > 53 {
		return 0, fmt.Errorf("%w: rpio %q", ErrUnknownPin, name)
	}
	return uint8(n), nil
}

type rpioPin struct {
	name string
	p    rpio.Pin
}

func (rp *rpioPin) String() string { return rp.name }

func (rp *rpioPin) SetDirection(d Direction) error {
	switch d {
	case Input:
		rp.p.Input()
		rp.p.PullOff()
	case InputPullUp:
		rp.p.Input()
		rp.p.PullUp()
	case Output:
		rp.p.Output()
		rp.p.Low()
	default:
		return fmt.Errorf("rpio: %s: unsupported %s", rp.name, d)
	}
	return nil
}

func (rp *rpioPin) Read() Level {
	return Level(rp.p.Read() == rpio.High)
}

func (rp *rpioPin) Write(l Level) error {
	if l {
		rp.p.High()
	} else {
		rp.p.Low()
	}
	return nil
}
