package switches

// State is the stored logical state of one footswitch slot.
type State struct {
	On bool
}

// states is the per-slot collection owned by the Engine.
type states []State

func newStates(n int) states { return make(states, n) }

func (s states) toggle(slot int) bool {
	s[slot].On = !s[slot].On
	return s[slot].On
}

// snapshot copies the collection so callers cannot mutate engine state.
func (s states) snapshot() []State {
	return append([]State(nil), s...)
}
