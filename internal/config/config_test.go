package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	require.Len(t, cfg.Footswitches, 4)
	for i, fs := range cfg.Footswitches {
		assert.Equal(t, uint8(102+i), fs.CC)
		assert.Equal(t, i < 3, fs.Momentary, "slot %d", i)
		assert.Equal(t, uint8(0), fs.OnValue)
		assert.Equal(t, uint8(127), fs.OffValue)
	}
	assert.Equal(t, 40*time.Millisecond, cfg.Debounce())
	assert.Equal(t, 700*time.Millisecond, cfg.LatchHoldoff())
	assert.Equal(t, 50*time.Millisecond, cfg.StartupDelay())
}

func TestParseKeepsDefaultsForMissingFields(t *testing.T) {
	cfg, err := Parse([]byte(`{
		"footswitches": [
			{"name": "a", "momentary": true, "cc": 20, "switch_pin": "P1", "indicator": true, "indicator_pin": "L1"}
		],
		"default_on": -1
	}`))
	require.NoError(t, err)

	require.Len(t, cfg.Footswitches, 1)
	assert.Equal(t, uint8(20), cfg.Footswitches[0].CC)
	assert.Equal(t, NoDefault, cfg.DefaultOn)
	assert.Equal(t, DefaultDebounceMS, cfg.DebounceMS)
	assert.Equal(t, DefaultRxBufferSize, cfg.RxBufferSize)
	assert.Equal(t, Default().ChannelPins, cfg.ChannelPins)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no footswitches", func(c *Config) { c.Footswitches = nil }},
		{"cc out of range", func(c *Config) { c.Footswitches[1].CC = 128 }},
		{"on value out of range", func(c *Config) { c.Footswitches[1].OnValue = 200 }},
		{"missing switch pin", func(c *Config) { c.Footswitches[0].SwitchPin = "" }},
		{"missing indicator pin", func(c *Config) { c.Footswitches[2].IndicatorPin = "" }},
		{"missing channel pin", func(c *Config) { c.ChannelPins[3] = "" }},
		{"default out of range", func(c *Config) { c.DefaultOn = 4 }},
		{"negative debounce", func(c *Config) { c.DebounceMS = -1 }},
		{"buffer not power of two", func(c *Config) { c.RxBufferSize = 48 }},
		{"buffer too large", func(c *Config) { c.RxBufferSize = 8192 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestIndicatorPinOptionalWithoutIndicator(t *testing.T) {
	cfg := Default()
	cfg.Footswitches[3].Indicator = false
	cfg.Footswitches[3].IndicatorPin = ""
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"footswitches": [
			{"name": "solo", "momentary": false, "cc": 64, "on_value": 127, "off_value": 0, "switch_pin": "GPIO4"}
		],
		"debounce_ms": 25,
		"rx_buffer_size": 64
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 25*time.Millisecond, cfg.Debounce())
	assert.Equal(t, 64, cfg.RxBufferSize)
	assert.Equal(t, uint8(127), cfg.Footswitches[0].OnValue)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = Parse([]byte(`{not json`))
	assert.Error(t, err)
}

func TestParseWithoutFootswitchesKeepsDefaultBoard(t *testing.T) {
	cfg, err := Parse([]byte(`{"default_on": 3}`))
	require.NoError(t, err)
	assert.Equal(t, Default().Footswitches, cfg.Footswitches)
	assert.Equal(t, 3, cfg.DefaultOn)
}
