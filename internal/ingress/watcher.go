package ingress

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// ExcludedPatterns are virtual/system ports that are never auto-connected.
var ExcludedPatterns = []string{"Midi Through", "Through Port", "Dummy"}

const rescanInterval = 1000 * time.Millisecond

// Watcher follows a host MIDI input port (USB interface, virtual port) and
// pushes its raw bytes into a Queue, as an alternative to the UART. It
// reconnects when the device is unplugged and comes back.
type Watcher struct {
	pattern string
	q       Queue
	log     *slog.Logger

	mu           sync.Mutex
	drv          *rtmididrv.Driver
	inPort       drivers.In
	stopFn       func()
	connected    bool
	selectedName string
	lastRescanAt time.Time

	// pushMu keeps the listener callbacks a single producer even across
	// a reconnect.
	pushMu sync.Mutex
}

// NewWatcher creates a watcher for the first input whose name contains
// pattern (case-insensitive). Call Close when done.
func NewWatcher(pattern string, q Queue, log *slog.Logger) (*Watcher, error) {
	if log == nil {
		log = slog.Default()
	}
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	return &Watcher{pattern: pattern, q: q, log: log, drv: drv}, nil
}

// Close shuts down the active connection and the driver.
func (w *Watcher) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closeConn()
	w.drv.Close()
}

// Connected reports the current device, if any.
func (w *Watcher) Connected() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selectedName, w.connected
}

// Tick rescans at most once per rescanInterval: it drops a vanished device
// and connects to a matching one.
func (w *Watcher) Tick() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	if !w.lastRescanAt.IsZero() && now.Sub(w.lastRescanAt) < rescanInterval {
		return
	}
	w.lastRescanAt = now

	inputs := w.listInputs()

	if w.connected {
		for _, n := range inputs {
			if n == w.selectedName {
				return
			}
		}
		w.log.Warn("midi-in: device disappeared", "device", w.selectedName)
		w.closeConn()
		w.lastRescanAt = time.Time{}
		return
	}

	cand, ok := pickInput(inputs, w.pattern)
	if !ok {
		return
	}
	if err := w.openByName(cand); err != nil {
		w.log.Error("midi-in: connect failed", "device", cand, "err", err)
	}
}

func (w *Watcher) listInputs() []string {
	ins, err := w.drv.Ins()
	if err != nil {
		w.log.Error("midi-in: list inputs failed", "err", err)
		return nil
	}
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.String())
	}
	return filterInputs(names)
}

func filterInputs(names []string) []string {
	var out []string
	for _, name := range names {
		excluded := false
		for _, pat := range ExcludedPatterns {
			if containsCI(name, pat) {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, name)
		}
	}
	return out
}

// pickInput returns the first input matching pattern. An empty pattern
// accepts a lone input.
func pickInput(inputs []string, pattern string) (string, bool) {
	if pattern == "" {
		if len(inputs) == 1 {
			return inputs[0], true
		}
		return "", false
	}
	for _, name := range inputs {
		if containsCI(name, pattern) {
			return name, true
		}
	}
	return "", false
}

func (w *Watcher) closeConn() {
	if w.stopFn != nil {
		w.stopFn()
		w.stopFn = nil
	}
	if w.inPort != nil {
		_ = w.inPort.Close()
		w.inPort = nil
	}
	w.connected = false
	w.selectedName = ""
}

func (w *Watcher) openByName(name string) error {
	ins, err := w.drv.Ins()
	if err != nil {
		return err
	}
	var found drivers.In
	for _, in := range ins {
		if in.String() == name {
			found = in
			break
		}
	}
	if found == nil {
		return fmt.Errorf("input %q not found", name)
	}
	if err := found.Open(); err != nil {
		return fmt.Errorf("open %q: %w", name, err)
	}

	stop, err := midi.ListenTo(found, func(msg midi.Message, _ int32) {
		w.push(msg.Bytes())
	}, midi.HandleError(func(listenErr error) {
		w.log.Warn("midi-in: listener error", "device", name, "err", listenErr)
		// closeConn stops the listener, so it must not run on the
		// listener's own goroutine.
		go func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			if w.connected && w.selectedName == name {
				w.closeConn()
				w.lastRescanAt = time.Time{}
			}
		}()
	}))
	if err != nil {
		_ = found.Close()
		return fmt.Errorf("listen %q: %w", name, err)
	}

	w.inPort = found
	w.stopFn = stop
	w.connected = true
	w.selectedName = name
	w.log.Info("midi-in: connected", "device", name)
	return nil
}

func (w *Watcher) push(raw []byte) {
	w.pushMu.Lock()
	defer w.pushMu.Unlock()
	for _, b := range raw {
		if !w.q.Push(b) {
			w.log.Debug("midi-in: rx buffer full, byte dropped", "byte", b)
		}
	}
}

func containsCI(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
