// Package board turns the pin names in a config into configured pins.
package board

import (
	"fmt"

	"github.com/chase3718/midi-footswitch/internal/config"
	"github.com/chase3718/midi-footswitch/internal/midiparse"
	"github.com/chase3718/midi-footswitch/internal/pin"
)

// Board is the resolved hardware for one config.
type Board struct {
	switches   []pin.Pin
	indicators []pin.Pin
	channel    [4]pin.Pin
}

// Open resolves and configures every pin: switches and channel selector as
// pulled-up inputs, indicators as outputs driven low.
func Open(cfg config.Config, p pin.Provider) (*Board, error) {
	b := &Board{
		switches:   make([]pin.Pin, len(cfg.Footswitches)),
		indicators: make([]pin.Pin, len(cfg.Footswitches)),
	}
	for i, fs := range cfg.Footswitches {
		sw, err := open(p, fs.SwitchPin, pin.InputPullUp)
		if err != nil {
			return nil, fmt.Errorf("board: footswitch %d switch: %w", i, err)
		}
		b.switches[i] = sw

		if !fs.Indicator {
			continue
		}
		led, err := open(p, fs.IndicatorPin, pin.Output)
		if err != nil {
			return nil, fmt.Errorf("board: footswitch %d indicator: %w", i, err)
		}
		b.indicators[i] = led
	}
	for i, name := range cfg.ChannelPins {
		cp, err := open(p, name, pin.InputPullUp)
		if err != nil {
			return nil, fmt.Errorf("board: channel pin %d: %w", i, err)
		}
		b.channel[i] = cp
	}
	return b, nil
}

func open(p pin.Provider, name string, d pin.Direction) (pin.Pin, error) {
	pp, err := p.Pin(name)
	if err != nil {
		return nil, err
	}
	if err := pp.SetDirection(d); err != nil {
		return nil, fmt.Errorf("%s: set %s: %w", name, d, err)
	}
	return pp, nil
}

// Switches returns switch pins by slot.
func (b *Board) Switches() []pin.Pin { return b.switches }

// Indicators returns indicator pins by slot; nil where a slot has none.
func (b *Board) Indicators() []pin.Pin { return b.indicators }

// ReadChannel samples the selector. Pin i contributes bit i when it reads
// High, so an unjumpered board selects channel 16 and all jumpers fitted
// select channel 1.
func (b *Board) ReadChannel() midiparse.Channel {
	var bits uint8
	for i, p := range b.channel {
		if p.Read() == pin.High {
			bits |= 1 << i
		}
	}
	return midiparse.ChannelFromBits(bits)
}
