// Package switches samples, debounces and arbitrates the physical footswitches.
package switches

import (
	"log/slog"
	"time"

	"github.com/chase3718/midi-footswitch/internal/config"
	"github.com/chase3718/midi-footswitch/internal/pin"
)

// Sink receives confirmed switch decisions.
type Sink interface {
	OnSwitch(slot int, on bool)
}

// Sleeper suspends the caller for d. Every wait runs to completion.
type Sleeper interface {
	Sleep(d time.Duration)
}

// SleepFunc adapts a function to Sleeper.
type SleepFunc func(time.Duration)

func (f SleepFunc) Sleep(d time.Duration) { f(d) }

// Options tune the engine. Zero durations fall back to the config defaults.
type Options struct {
	Debounce     time.Duration
	LatchHoldoff time.Duration
	Sleeper      Sleeper
	Log          *slog.Logger
}

// Engine owns the footswitch state. Switches are active low: a pressed
// switch pulls its pulled-up input to ground.
type Engine struct {
	cfg   []config.Footswitch
	pins  []pin.Pin
	sink  Sink
	state states

	debounce time.Duration
	holdoff  time.Duration
	sleeper  Sleeper
	log      *slog.Logger
}

// New builds an engine over pins, indexed by slot.
func New(cfg []config.Footswitch, pins []pin.Pin, sink Sink, opts Options) *Engine {
	if opts.Debounce == 0 {
		opts.Debounce = config.DefaultDebounceMS * time.Millisecond
	}
	if opts.LatchHoldoff == 0 {
		opts.LatchHoldoff = config.DefaultLatchHoldoffMS * time.Millisecond
	}
	if opts.Sleeper == nil {
		opts.Sleeper = SleepFunc(time.Sleep)
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	return &Engine{
		cfg:      cfg,
		pins:     pins,
		sink:     sink,
		state:    newStates(len(cfg)),
		debounce: opts.Debounce,
		holdoff:  opts.LatchHoldoff,
		sleeper:  opts.Sleeper,
		log:      opts.Log,
	}
}

// Len is the number of footswitch slots.
func (e *Engine) Len() int { return len(e.cfg) }

// State returns the stored state of slot.
func (e *Engine) State(slot int) State { return e.state[slot] }

// States returns a copy of every slot's stored state.
func (e *Engine) States() []State { return e.state.snapshot() }

// Init seeds latching slots from their current switch position. Momentary
// slots start off.
func (e *Engine) Init() {
	for slot, fs := range e.cfg {
		if fs.Momentary {
			e.state[slot].On = false
			continue
		}
		e.state[slot].On = e.IsSwitchOn(slot)
		e.log.Debug("switches: initial latch state", "slot", slot, "name", fs.Name, "on", e.state[slot].On)
	}
}

// IsSwitchOn samples every switch once and reports whether slot is pressed.
// If two or more momentary switches are down at the same instant the reading
// is ambiguous and every slot reads as released.
func (e *Engine) IsSwitchOn(slot int) bool {
	down := make([]bool, len(e.pins))
	for i, p := range e.pins {
		down[i] = p.Read() == pin.Low
	}
	held := 0
	for i, fs := range e.cfg {
		if fs.Momentary && down[i] {
			held++
			if held > 1 {
				return false
			}
		}
	}
	return down[slot]
}

// Poll runs one debounce step for slot. It may block for the debounce window
// and, after a latching toggle, for the latch hold-off.
func (e *Engine) Poll(slot int) {
	if e.cfg[slot].Momentary {
		e.pollMomentary(slot)
		return
	}
	e.pollLatching(slot)
}

// pollMomentary reports a confirmed change and then stores the negated
// reading as the baseline. Because momentary slots start off, the sink only
// ever sees on=true from here, and a switch that stays held re-triggers on
// every pass.
func (e *Engine) pollMomentary(slot int) {
	st := &e.state[slot]
	if e.IsSwitchOn(slot) == st.On {
		return
	}
	e.sleeper.Sleep(e.debounce)
	on := e.IsSwitchOn(slot)
	if on == st.On {
		e.log.Debug("switches: bounce rejected", "slot", slot)
		return
	}
	st.On = on
	e.sink.OnSwitch(slot, st.On)
	st.On = !on
}

func (e *Engine) pollLatching(slot int) {
	if !e.IsSwitchOn(slot) {
		return
	}
	e.sleeper.Sleep(e.debounce)
	if !e.IsSwitchOn(slot) {
		// A released contact after the window does not veto the toggle.
		e.log.Debug("switches: latch released during debounce", "slot", slot)
	}
	on := e.state.toggle(slot)
	e.sink.OnSwitch(slot, on)
	e.sleeper.Sleep(e.holdoff)
}
