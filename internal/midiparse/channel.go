package midiparse

import "fmt"

// Channel is a MIDI channel as users count them, 1..16.
type Channel uint8

// NewChannel validates n.
func NewChannel(n int) (Channel, error) {
	if n < 1 || n > 16 {
		return 0, fmt.Errorf("midiparse: channel %d out of range 1..16", n)
	}
	return Channel(n), nil
}

// ChannelFromBits maps the 4-bit selector reading to a channel: 0 is channel 1.
func ChannelFromBits(bits uint8) Channel {
	return Channel(bits&0x0F) + 1
}

// Wire is the channel nibble carried in status bytes (0..15).
func (c Channel) Wire() uint8 { return uint8(c) - 1 }

func (c Channel) String() string { return fmt.Sprintf("ch%d", uint8(c)) }
