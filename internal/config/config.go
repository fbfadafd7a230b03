// Package config holds the static board description: which footswitches
// exist, how each one maps to MIDI, and which pins it is wired to.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// -------------------- Tunables --------------------

const (
	DefaultDebounceMS     = 40
	DefaultLatchHoldoffMS = 700
	DefaultStartupDelayMS = 50
	DefaultRxBufferSize   = 32

	MaxFootswitches = 16
	MaxRxBufferSize = 4096

	// NoDefault disables the boot-time default indicator.
	NoDefault = -1
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Footswitch is the per-slot configuration. It is never mutated after Load.
type Footswitch struct {
	Name      string `json:"name"`
	Momentary bool   `json:"momentary"`

	CC       uint8 `json:"cc"`
	OnValue  uint8 `json:"on_value"`
	OffValue uint8 `json:"off_value"`

	Indicator bool `json:"indicator"`

	SwitchPin    string `json:"switch_pin"`
	IndicatorPin string `json:"indicator_pin,omitempty"`
}

// Config is the whole board: footswitch table, channel selector pins and timing.
type Config struct {
	Footswitches []Footswitch `json:"footswitches"`
	ChannelPins  [4]string    `json:"channel_pins"`
	DefaultOn    int          `json:"default_on"`

	DebounceMS     int `json:"debounce_ms"`
	LatchHoldoffMS int `json:"latch_holdoff_ms"`
	StartupDelayMS int `json:"startup_delay_ms"`
	RxBufferSize   int `json:"rx_buffer_size"`
}

// Default returns the reference board: three momentary channel switches and
// one latching effect switch, all with an indicator, CC 102-105.
func Default() Config {
	fs := func(name string, momentary bool, cc uint8, sw, led string) Footswitch {
		return Footswitch{
			Name:         name,
			Momentary:    momentary,
			CC:           cc,
			OnValue:      0,
			OffValue:     127,
			Indicator:    true,
			SwitchPin:    sw,
			IndicatorPin: led,
		}
	}
	return Config{
		Footswitches: []Footswitch{
			fs("ch1", true, 102, "GPIO17", "GPIO5"),
			fs("ch2", true, 103, "GPIO27", "GPIO6"),
			fs("ch3", true, 104, "GPIO22", "GPIO13"),
			fs("boost", false, 105, "GPIO23", "GPIO19"),
		},
		ChannelPins:    [4]string{"GPIO12", "GPIO16", "GPIO20", "GPIO21"},
		DefaultOn:      0,
		DebounceMS:     DefaultDebounceMS,
		LatchHoldoffMS: DefaultLatchHoldoffMS,
		StartupDelayMS: DefaultStartupDelayMS,
		RxBufferSize:   DefaultRxBufferSize,
	}
}

// Load reads a JSON board file. Fields left out of the file keep the values
// from Default; a footswitch list in the file replaces the default list.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a JSON board description.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	cfg.Footswitches = nil
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if cfg.Footswitches == nil {
		cfg.Footswitches = Default().Footswitches
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and pin assignments.
func (c Config) Validate() error {
	n := len(c.Footswitches)
	if n == 0 || n > MaxFootswitches {
		return fmt.Errorf("%w: %d footswitches, want 1..%d", ErrInvalid, n, MaxFootswitches)
	}
	for i, fs := range c.Footswitches {
		if fs.CC > 127 || fs.OnValue > 127 || fs.OffValue > 127 {
			return fmt.Errorf("%w: footswitch %d: cc/on/off must be 0..127", ErrInvalid, i)
		}
		if fs.SwitchPin == "" {
			return fmt.Errorf("%w: footswitch %d: switch_pin missing", ErrInvalid, i)
		}
		if fs.Indicator && fs.IndicatorPin == "" {
			return fmt.Errorf("%w: footswitch %d: indicator_pin missing", ErrInvalid, i)
		}
	}
	for i, p := range c.ChannelPins {
		if p == "" {
			return fmt.Errorf("%w: channel pin %d missing", ErrInvalid, i)
		}
	}
	if c.DefaultOn != NoDefault && (c.DefaultOn < 0 || c.DefaultOn >= n) {
		return fmt.Errorf("%w: default_on %d out of range", ErrInvalid, c.DefaultOn)
	}
	if c.DebounceMS < 0 || c.LatchHoldoffMS < 0 || c.StartupDelayMS < 0 {
		return fmt.Errorf("%w: negative delay", ErrInvalid)
	}
	size := c.RxBufferSize
	if size < 2 || size > MaxRxBufferSize || size&(size-1) != 0 {
		return fmt.Errorf("%w: rx_buffer_size %d must be a power of two in 2..%d", ErrInvalid, size, MaxRxBufferSize)
	}
	return nil
}

func (c Config) Debounce() time.Duration     { return ms(c.DebounceMS) }
func (c Config) LatchHoldoff() time.Duration { return ms(c.LatchHoldoffMS) }
func (c Config) StartupDelay() time.Duration { return ms(c.StartupDelayMS) }

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }
