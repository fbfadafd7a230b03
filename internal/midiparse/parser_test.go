package midiparse

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"
)

type cc struct{ number, value uint8 }

type recorder struct{ got []cc }

func (r *recorder) OnMidi(number, value uint8) { r.got = append(r.got, cc{number, value}) }

func newTestParser(t *testing.T, ch int) (*Parser, *recorder) {
	t.Helper()
	c, err := NewChannel(ch)
	require.NoError(t, err)
	rec := &recorder{}
	return NewParser(c, rec, slog.New(slog.DiscardHandler)), rec
}

func feed(p *Parser, bs ...byte) {
	for _, b := range bs {
		p.Feed(b)
	}
}

func TestChannel(t *testing.T) {
	for _, n := range []int{0, 17, -3} {
		_, err := NewChannel(n)
		assert.Error(t, err, n)
	}
	c, err := NewChannel(10)
	require.NoError(t, err)
	assert.Equal(t, uint8(9), c.Wire())
	assert.Equal(t, "ch10", c.String())

	assert.Equal(t, Channel(1), ChannelFromBits(0))
	assert.Equal(t, Channel(16), ChannelFromBits(0x0F))
	assert.Equal(t, Channel(6), ChannelFromBits(5))
}

func TestParsesControlChange(t *testing.T) {
	p, rec := newTestParser(t, 1)

	feed(p, 0xB0, 102, 0)
	assert.Equal(t, []cc{{102, 0}}, rec.got)
	assert.Equal(t, AwaitingStatus, p.State())
}

func TestGomidiBytesRoundTrip(t *testing.T) {
	p, rec := newTestParser(t, 5)

	msg := midi.ControlChange(4, 105, 127)
	var ev Event
	var done bool
	for _, b := range msg.Bytes() {
		ev, done = p.Feed(b)
	}
	require.True(t, done)
	assert.Equal(t, Event{Channel: 5, Number: 105, Value: 127}, ev)
	assert.Equal(t, []cc{{105, 127}}, rec.got)

	var ch, num, val uint8
	require.True(t, ev.Message().GetControlChange(&ch, &num, &val))
	assert.Equal(t, [3]uint8{4, 105, 127}, [3]uint8{ch, num, val})
}

func TestStateTransitions(t *testing.T) {
	p, _ := newTestParser(t, 3)

	tests := []struct {
		b    byte
		want State
	}{
		{0x90, AwaitingStatus}, // note on, ignored
		{0x40, AwaitingStatus}, // stray data byte
		{0xB0, AwaitingStatus}, // cc on channel 1, wrong channel
		{0xB2, AwaitingNumber},
		{0x0A, AwaitingValue},
		{0x40, AwaitingStatus},
		{0xB2, AwaitingNumber},
		{0xF8, AwaitingStatus}, // realtime byte has the status bit
	}
	for i, tt := range tests {
		p.Feed(tt.b)
		assert.Equal(t, tt.want, p.State(), "step %d byte %#x", i, tt.b)
	}
}

func TestIgnoresOtherChannelsAndMessages(t *testing.T) {
	p, rec := newTestParser(t, 2)

	feed(p, 0xB0, 10, 20)  // channel 1
	feed(p, 0xB2, 10, 20)  // channel 3
	feed(p, 0x91, 60, 100) // note on channel 2
	feed(p, 0xC1, 5)       // program change channel 2
	assert.Empty(t, rec.got)

	feed(p, 0xB1, 10, 20)
	assert.Equal(t, []cc{{10, 20}}, rec.got)
}

func TestResyncAfterInvalidNumber(t *testing.T) {
	p, rec := newTestParser(t, 1)

	feed(p, 0xB0, 200, 50)
	assert.Empty(t, rec.got)
	assert.Equal(t, AwaitingStatus, p.State())

	feed(p, 0xB0, 10, 64)
	assert.Equal(t, []cc{{10, 64}}, rec.got)
}

func TestInvalidValueDiscardsWithoutDispatch(t *testing.T) {
	p, rec := newTestParser(t, 1)

	feed(p, 0xB0, 10, 0xB0)
	assert.Empty(t, rec.got)
	assert.Equal(t, AwaitingStatus, p.State(), "status byte in value position is consumed, not reused")

	feed(p, 11, 12) // running status is not supported
	assert.Empty(t, rec.got)

	feed(p, 0xB0, 11, 12)
	assert.Equal(t, []cc{{11, 12}}, rec.got)
}

func TestReset(t *testing.T) {
	p, rec := newTestParser(t, 1)
	feed(p, 0xB0, 7)
	require.Equal(t, AwaitingValue, p.State())

	p.Reset()
	feed(p, 100)
	assert.Empty(t, rec.got)
	assert.Equal(t, AwaitingStatus, p.State())
}

func TestHandlerFunc(t *testing.T) {
	var got []cc
	h := HandlerFunc(func(n, v uint8) { got = append(got, cc{n, v}) })
	p := NewParser(1, h, slog.New(slog.DiscardHandler))
	feed(p, 0xB0, 1, 2)
	assert.Equal(t, []cc{{1, 2}}, got)
	assert.Equal(t, Channel(1), p.Channel())
}
