// Package dispatch joins the two input paths, debounced switches and MIDI
// Control Change, onto the indicator outputs.
package dispatch

import (
	"log/slog"

	"github.com/chase3718/midi-footswitch/internal/config"
)

// Output is the indicator driver seen from the dispatcher.
type Output interface {
	Set(slot int, on bool)
}

// Dispatcher maps events to indicator commands. It keeps no state of its own,
// so the result of an event does not depend on which path delivered it.
type Dispatcher struct {
	cfg []config.Footswitch
	out Output
	log *slog.Logger
}

func New(cfg []config.Footswitch, out Output, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{cfg: cfg, out: out, log: log}
}

// OnMidi applies a CC to every footswitch bound to number. Momentary
// footswitches are only ever triggered on; latching ones follow on_value.
func (d *Dispatcher) OnMidi(number, value uint8) {
	matched := 0
	for slot, fs := range d.cfg {
		if fs.CC != number {
			continue
		}
		matched++
		on := fs.Momentary || value == fs.OnValue
		d.log.Info("dispatch: midi", "cc", number, "value", value, "slot", slot, "name", fs.Name, "on", on)
		d.out.Set(slot, on)
	}
	if matched == 0 {
		d.log.Debug("dispatch: unmapped cc", "cc", number, "value", value)
	}
}

// OnSwitch forwards a debounced switch decision.
func (d *Dispatcher) OnSwitch(slot int, on bool) {
	name := ""
	if slot >= 0 && slot < len(d.cfg) {
		name = d.cfg[slot].Name
	}
	d.log.Info("dispatch: switch", "slot", slot, "name", name, "on", on)
	d.out.Set(slot, on)
}
