// Package control is the scheduling shell: boot, then poll every footswitch
// and drain MIDI input, forever.
package control

import (
	"context"
	"log/slog"
	"time"

	"github.com/chase3718/midi-footswitch/internal/config"
	"github.com/chase3718/midi-footswitch/internal/midiparse"
	"github.com/chase3718/midi-footswitch/internal/switches"
)

// Rx is the consumer end of the receive ring.
type Rx interface {
	Pop() (byte, bool)
	Available() int
	Dropped() uint64
}

// Output is the indicator driver as the boot sequence uses it.
type Output interface {
	Set(slot int, on bool)
}

// Loop owns the single cooperative execution context. Nothing it calls runs
// concurrently with anything else it calls; only the Rx producer runs beside it.
type Loop struct {
	cfg     config.Config
	engine  *switches.Engine
	out     Output
	rx      Rx
	parser  *midiparse.Parser
	sleeper switches.Sleeper
	idle    time.Duration
	log     *slog.Logger

	passes  uint64
	dropped uint64
}

// Options tune a Loop.
type Options struct {
	// Sleeper runs the startup delay; nil means time.Sleep.
	Sleeper switches.Sleeper
	// Idle paces Run when the receive ring is empty. Zero spins, as the
	// firmware does.
	Idle time.Duration
	Log  *slog.Logger
}

func New(cfg config.Config, engine *switches.Engine, out Output, rx Rx, parser *midiparse.Parser, opts Options) *Loop {
	if opts.Sleeper == nil {
		opts.Sleeper = switches.SleepFunc(time.Sleep)
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	return &Loop{
		cfg:     cfg,
		engine:  engine,
		out:     out,
		rx:      rx,
		parser:  parser,
		sleeper: opts.Sleeper,
		idle:    opts.Idle,
		log:     opts.Log,
	}
}

// Boot lets the inputs settle, seeds latching state from the switches,
// brings every indicator in line with its state, then lights the default slot.
func (l *Loop) Boot() {
	l.sleeper.Sleep(l.cfg.StartupDelay())
	l.engine.Init()
	for slot, st := range l.engine.States() {
		l.out.Set(slot, st.On)
	}
	if l.cfg.DefaultOn != config.NoDefault {
		l.out.Set(l.cfg.DefaultOn, true)
	}
	l.log.Info("control: boot complete",
		"footswitches", l.engine.Len(),
		"channel", l.parser.Channel().String(),
		"default_on", l.cfg.DefaultOn,
	)
}

// Pass polls every footswitch in slot order, then handles at most one
// queued MIDI byte.
func (l *Loop) Pass() {
	for slot := 0; slot < l.engine.Len(); slot++ {
		l.engine.Poll(slot)
	}
	if b, ok := l.rx.Pop(); ok {
		l.parser.Feed(b)
	}
	if d := l.rx.Dropped(); d != l.dropped {
		l.log.Debug("control: rx overflow", "dropped_total", d, "new", d-l.dropped)
		l.dropped = d
	}
	l.passes++
}

// Run calls Pass until ctx is done. Cancellation is only observed between
// passes; a debounce or hold-off wait in progress always completes. Queued
// MIDI bytes are never held back by the idle pacing.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("control: running", "idle", l.idle)

	var tick <-chan time.Time
	if l.idle > 0 {
		ticker := time.NewTicker(l.idle)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			l.log.Info("control: stopped", "passes", l.passes)
			return ctx.Err()
		default:
		}
		l.Pass()

		if tick == nil || l.rx.Available() > 0 {
			continue
		}
		select {
		case <-ctx.Done():
		case <-tick:
		}
	}
}

// Passes is the number of completed passes.
func (l *Loop) Passes() uint64 { return l.passes }
