// Package midiparse reassembles a raw MIDI byte stream into Control Change
// events for one configured channel.
package midiparse

import (
	"fmt"
	"log/slog"

	"gitlab.com/gomidi/midi/v2"
)

const (
	StatusControlChange = 0xB0
	StatusCodeMask      = 0xF0
	ChannelMask         = 0x0F
	StatusBit           = 0x80
)

// State is the parser position within a CC message.
type State int

const (
	AwaitingStatus State = iota
	AwaitingNumber
	AwaitingValue
)

func (s State) String() string {
	switch s {
	case AwaitingStatus:
		return "AwaitingStatus"
	case AwaitingNumber:
		return "AwaitingNumber"
	case AwaitingValue:
		return "AwaitingValue"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Event is one complete Control Change on the configured channel.
type Event struct {
	Channel Channel
	Number  uint8
	Value   uint8
}

// Message renders the event as a gomidi message.
func (e Event) Message() midi.Message {
	return midi.ControlChange(e.Channel.Wire(), e.Number, e.Value)
}

func (e Event) String() string { return e.Message().String() }

// Handler receives completed CC events.
type Handler interface {
	OnMidi(number, value uint8)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(number, value uint8)

func (f HandlerFunc) OnMidi(number, value uint8) { f(number, value) }

// Parser is a three-state machine fed one byte at a time. Any byte that does
// not fit the current state sends it back to AwaitingStatus, so a corrupted
// or truncated message costs at most that message.
type Parser struct {
	ch      Channel
	h       Handler
	log     *slog.Logger
	state   State
	pending uint8
}

// NewParser listens on ch and hands every complete CC to h.
func NewParser(ch Channel, h Handler, log *slog.Logger) *Parser {
	if log == nil {
		log = slog.Default()
	}
	return &Parser{ch: ch, h: h, log: log}
}

// Feed consumes one byte. It reports the event and true when b completed a CC.
func (p *Parser) Feed(b byte) (Event, bool) {
	switch p.state {
	case AwaitingStatus:
		if b&StatusCodeMask == StatusControlChange && b&ChannelMask == p.ch.Wire() {
			p.state = AwaitingNumber
		}

	case AwaitingNumber:
		if b&StatusBit == 0 {
			p.pending = b
			p.state = AwaitingValue
		} else {
			p.log.Debug("midi: status byte where cc number expected", "byte", b)
			p.state = AwaitingStatus
		}

	case AwaitingValue:
		p.state = AwaitingStatus
		if b&StatusBit != 0 {
			p.log.Debug("midi: status byte where cc value expected", "byte", b, "cc", p.pending)
			return Event{}, false
		}
		ev := Event{Channel: p.ch, Number: p.pending, Value: b}
		p.log.Debug("midi: control change", "msg", ev.String())
		if p.h != nil {
			p.h.OnMidi(ev.Number, ev.Value)
		}
		return ev, true
	}
	return Event{}, false
}

// State returns the current machine state.
func (p *Parser) State() State { return p.state }

// Channel returns the channel the parser accepts.
func (p *Parser) Channel() Channel { return p.ch }

// Reset drops any partial message.
func (p *Parser) Reset() {
	p.state = AwaitingStatus
	p.pending = 0
}
