// Package indicator drives the footswitch LEDs.
package indicator

import (
	"log/slog"
	"sync"

	"github.com/chase3718/midi-footswitch/internal/config"
	"github.com/chase3718/midi-footswitch/internal/pin"
)

// Driver applies on/off decisions to indicator pins. Among momentary
// footswitches at most one indicator is lit at a time; latching indicators are
// independent.
type Driver struct {
	cfg  []config.Footswitch
	pins []pin.Pin // nil where the slot has no indicator
	log  *slog.Logger

	mu  sync.Mutex
	lit []bool
}

// New builds a driver. pins is indexed by slot and may hold nil for slots
// without an indicator.
func New(cfg []config.Footswitch, pins []pin.Pin, log *slog.Logger) *Driver {
	if log == nil {
		log = slog.Default()
	}
	return &Driver{
		cfg:  cfg,
		pins: pins,
		log:  log,
		lit:  make([]bool, len(cfg)),
	}
}

// Set turns slot's indicator on or off. Turning a momentary slot on first
// clears every momentary indicator.
func (d *Driver) Set(slot int, on bool) {
	if slot < 0 || slot >= len(d.cfg) {
		d.log.Warn("indicator: slot out of range", "slot", slot)
		return
	}
	fs := d.cfg[slot]
	if !fs.Indicator || d.pins[slot] == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if fs.Momentary {
		for i, other := range d.cfg {
			if other.Momentary {
				d.write(i, false)
			}
		}
	}
	d.write(slot, on)
	d.log.Debug("indicator: set", "slot", slot, "name", fs.Name, "on", on)
}

// Lit reports the last level written to slot's indicator.
func (d *Driver) Lit(slot int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if slot < 0 || slot >= len(d.lit) {
		return false
	}
	return d.lit[slot]
}

func (d *Driver) write(slot int, on bool) {
	p := d.pins[slot]
	if p == nil {
		return
	}
	if err := p.Write(pin.Level(on)); err != nil {
		d.log.Warn("indicator: write failed", "slot", slot, "pin", p.String(), "err", err)
		return
	}
	d.lit[slot] = on
}
