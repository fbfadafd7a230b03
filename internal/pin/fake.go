package pin

import (
	"fmt"
	"log/slog"
	"sync"
)

func init() {
	Register("sim", func() (Provider, error) { return NewSim(nil), nil })
}

// Fake is an in-memory pin. Inputs read whatever Set last stored; outputs
// record every write. A pulled-up input with nothing driving it reads High.
type Fake struct {
	name string
	log  *slog.Logger

	mu     sync.Mutex
	dir    Direction
	level  Level
	writes []Level
}

// NewFake returns a fake input pin reading High.
func NewFake(name string) *Fake {
	return &Fake{name: name, dir: Input, level: High}
}

func (f *Fake) String() string { return f.name }

func (f *Fake) SetDirection(d Direction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dir = d
	if d == Output {
		f.level = Low
	}
	return nil
}

func (f *Fake) Read() Level {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.level
}

func (f *Fake) Write(l Level) error {
	f.mu.Lock()
	if f.dir != Output {
		f.mu.Unlock()
		return fmt.Errorf("pin %s: write while %s", f.name, f.dir)
	}
	changed := f.level != l
	f.level = l
	f.writes = append(f.writes, l)
	f.mu.Unlock()

	if f.log != nil && changed {
		f.log.Info("sim: pin", "pin", f.name, "level", l)
	}
	return nil
}

// Set drives an input from outside, like a switch contact would.
func (f *Fake) Set(l Level) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.level = l
}

// Press and Release model an active-low switch.
func (f *Fake) Press()   { f.Set(Low) }
func (f *Fake) Release() { f.Set(High) }

func (f *Fake) Direction() Direction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dir
}

// Writes returns a copy of every level written so far.
func (f *Fake) Writes() []Level {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Level(nil), f.writes...)
}

// Sim is a Provider handing out Fake pins by name, creating them on first use.
type Sim struct {
	log *slog.Logger

	mu   sync.Mutex
	pins map[string]*Fake
}

// NewSim returns a simulated board. Output changes are logged through log
// when it is non-nil.
func NewSim(log *slog.Logger) *Sim {
	if log == nil {
		log = slog.Default()
	}
	return &Sim{log: log, pins: map[string]*Fake{}}
}

func (s *Sim) Pin(name string) (Pin, error) {
	return s.Fake(name), nil
}

// Fake returns the named pin with its concrete type.
func (s *Sim) Fake(name string) *Fake {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pins[name]
	if !ok {
		p = NewFake(name)
		p.log = s.log
		s.pins[name] = p
	}
	return p
}

func (s *Sim) Close() error { return nil }
