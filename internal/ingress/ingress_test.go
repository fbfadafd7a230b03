package ingress

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"github.com/chase3718/midi-footswitch/internal/ringbuf"
)

var quiet = slog.New(slog.DiscardHandler)

func TestPumpCopiesUntilEOF(t *testing.T) {
	q, err := ringbuf.New(8)
	require.NoError(t, err)

	src := []byte{0xB0, 102, 0, 0xB0, 105, 127}
	require.NoError(t, Pump(context.Background(), bytes.NewReader(src), q, quiet))

	var got []byte
	for q.Available() > 0 {
		b, _ := q.Pop()
		got = append(got, b)
	}
	assert.Equal(t, src, got)
}

func TestPumpDropsWhenFull(t *testing.T) {
	q, err := ringbuf.New(4)
	require.NoError(t, err)

	require.NoError(t, Pump(context.Background(), bytes.NewReader([]byte{1, 2, 3, 4, 5, 6}), q, quiet))
	assert.Equal(t, 4, q.Available())
	assert.Equal(t, uint64(2), q.Dropped())
	b, _ := q.Pop()
	assert.Equal(t, byte(1), b, "oldest bytes are kept")
}

// flakyReader fails every read and counts attempts.
type flakyReader struct {
	mu    sync.Mutex
	reads int
}

func (f *flakyReader) Read([]byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	return 0, errors.New("framing error")
}

func TestPumpRetriesUntilCancelled(t *testing.T) {
	q, err := ringbuf.New(4)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 3*retryBackoff/2)
	defer cancel()

	r := &flakyReader{}
	err = Pump(ctx, r, q, quiet)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	r.mu.Lock()
	defer r.mu.Unlock()
	assert.GreaterOrEqual(t, r.reads, 2)
}

func TestPumpStopsOnCancelledContext(t *testing.T) {
	q, err := ringbuf.New(4)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	assert.ErrorIs(t, Pump(ctx, bytes.NewReader([]byte{1}), q, quiet), context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 0, q.Available())
}

func TestMIDIMode(t *testing.T) {
	m := MIDIMode()
	assert.Equal(t, 31250, m.BaudRate)
	assert.Equal(t, 8, m.DataBits)
	assert.Equal(t, serial.NoParity, m.Parity)
	assert.Equal(t, serial.TwoStopBits, m.StopBits)
}

func TestPickInput(t *testing.T) {
	inputs := filterInputs([]string{"Midi Through Port-0", "UM-ONE:UM-ONE MIDI 1 20:0", "Launchkey MK3"})
	assert.Equal(t, []string{"UM-ONE:UM-ONE MIDI 1 20:0", "Launchkey MK3"}, inputs)

	name, ok := pickInput(inputs, "um-one")
	assert.True(t, ok)
	assert.Equal(t, "UM-ONE:UM-ONE MIDI 1 20:0", name)

	_, ok = pickInput(inputs, "")
	assert.False(t, ok, "ambiguous without a pattern")

	name, ok = pickInput(inputs[:1], "")
	assert.True(t, ok)
	assert.Equal(t, inputs[0], name)

	_, ok = pickInput(inputs, "nope")
	assert.False(t, ok)
}

func TestWatcherPushSerializesBytes(t *testing.T) {
	q, err := ringbuf.New(4)
	require.NoError(t, err)
	w := &Watcher{q: q, log: quiet}

	w.push([]byte{0xB0, 10, 20})
	w.push([]byte{0xB0, 11})
	assert.Equal(t, 4, q.Available())
	assert.Equal(t, uint64(1), q.Dropped())
}
