// Package pin is the digital I/O capability the controller core is built on.
// Backends wrap a GPIO library; the core only sees Pin.
package pin

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Level is a logic level on a pin.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l {
		return "High"
	}
	return "Low"
}

// Direction is the electrical mode of a pin.
type Direction int

const (
	Input Direction = iota
	InputPullUp
	Output
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "Input"
	case InputPullUp:
		return "InputPullUp"
	case Output:
		return "Output"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Pin is one logical digital pin.
type Pin interface {
	SetDirection(d Direction) error
	Read() Level
	Write(l Level) error
	String() string
}

// Provider resolves pin names to pins for one backend.
type Provider interface {
	Pin(name string) (Pin, error)
	Close() error
}

var (
	ErrUnknownPin     = errors.New("pin: unknown pin")
	ErrUnknownBackend = errors.New("pin: unknown backend")
)

// -------------------- Backend registry --------------------

var (
	mu       sync.Mutex
	backends = map[string]func() (Provider, error){}
)

// Register makes a backend available to Open. Backends register from init.
func Register(name string, open func() (Provider, error)) {
	mu.Lock()
	defer mu.Unlock()
	backends[name] = open
}

// Open initialises the named backend.
func Open(name string) (Provider, error) {
	mu.Lock()
	open, ok := backends[name]
	mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %v)", ErrUnknownBackend, name, Backends())
	}
	return open()
}

// Backends lists registered backend names.
func Backends() []string {
	mu.Lock()
	defer mu.Unlock()
	names := make([]string, 0, len(backends))
	for n := range backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
