// Package ingress is the receive side of the MIDI link. Each source runs in
// its own goroutine and is the only producer for the queue it feeds; the
// control loop is the only consumer.
package ingress

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"
)

// Queue is the producer end of the receive ring.
type Queue interface {
	Push(b byte) bool
}

const (
	readChunk    = 64
	retryBackoff = 250 * time.Millisecond
)

// Pump copies bytes from r into q until ctx is done or r reports io.EOF.
// Bytes that do not fit are dropped by q. Other read errors are logged and
// retried after a short back-off. r should return periodically (a read
// timeout) so cancellation is noticed.
func Pump(ctx context.Context, r io.Reader, q Queue, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	buf := make([]byte, readChunk)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			if !q.Push(b) {
				log.Debug("ingress: rx buffer full, byte dropped", "byte", b)
			}
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			log.Info("ingress: source closed")
			return nil
		}
		log.Warn("ingress: read error", "err", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryBackoff):
		}
	}
}
