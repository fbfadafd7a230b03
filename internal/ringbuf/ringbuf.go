// Package ringbuf is a fixed-size single-producer/single-consumer byte queue.
//
// The producer (the serial receive path) calls Push and nothing else that
// mutates. The consumer (the control loop) calls Pop. head is written only by
// the producer, tail only by the consumer; count is shared and updated with
// atomic adds, so neither side can observe a half-written counter. A slot is
// written before count is incremented and read before count is decremented,
// which orders the slot access against the other side.
package ringbuf

import (
	"fmt"
	"sync/atomic"
)

// Buffer holds up to Cap bytes. The zero value is not usable; call New.
type Buffer struct {
	data []byte
	mask uint32

	head    atomic.Uint32 // last written slot, producer only
	tail    atomic.Uint32 // last read slot, consumer only
	count   atomic.Uint32
	dropped atomic.Uint64
}

// New returns an empty buffer. size must be a power of two and at least 2.
func New(size int) (*Buffer, error) {
	if size < 2 || size&(size-1) != 0 || size > 1<<16 {
		return nil, fmt.Errorf("ringbuf: size %d is not a power of two in 2..65536", size)
	}
	return &Buffer{
		data: make([]byte, size),
		mask: uint32(size - 1),
	}, nil
}

// Push appends b. When the buffer is full b is dropped, the buffer is left
// unchanged and Push reports false. It never blocks.
func (r *Buffer) Push(b byte) bool {
	if int(r.count.Load()) == len(r.data) {
		r.dropped.Add(1)
		return false
	}
	h := (r.head.Load() + 1) & r.mask
	r.data[h] = b
	r.head.Store(h)
	r.count.Add(1)
	return true
}

// Pop removes the oldest byte. ok is false when the buffer is empty.
func (r *Buffer) Pop() (b byte, ok bool) {
	if r.count.Load() == 0 {
		return 0, false
	}
	t := (r.tail.Load() + 1) & r.mask
	b = r.data[t]
	r.tail.Store(t)
	r.count.Add(^uint32(0))
	return b, true
}

// Available is the number of queued bytes.
func (r *Buffer) Available() int { return int(r.count.Load()) }

// Cap is the fixed capacity.
func (r *Buffer) Cap() int { return len(r.data) }

// Dropped counts bytes refused because the buffer was full.
func (r *Buffer) Dropped() uint64 { return r.dropped.Load() }
