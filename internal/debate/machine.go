package debate

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Observer receives every accepted event together with the snapshot that
// resulted from it. Observers are invoked in event order, one at a time.
type Observer func(seq int, ev Event, snapshot State)

// Machine is the single writer of debate state. All transitions are
// serialized through Apply; readers get immutable snapshots and never see
// a partially updated state.
type Machine struct {
	mu        sync.Mutex
	state     State
	seq       int
	observers []Observer
}

// NewMachine creates a machine in the idle state.
func NewMachine() *Machine {
	return &Machine{state: NewState()}
}

// Subscribe registers an observer for all subsequently accepted events.
func (m *Machine) Subscribe(obs Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, obs)
}

// Apply runs the event through the reducer. On acceptance the new snapshot
// is published to all observers before Apply returns; on rejection the
// state is unchanged and the ErrInvalidTransition is returned to the caller.
func (m *Machine) Apply(ev Event) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := Reduce(m.state, ev)
	if err != nil {
		log.Debug().Str("event", ev.Kind()).Str("status", string(m.state.Status)).Err(err).Msg("event rejected")
		return m.state.clone(), err
	}

	m.state = next
	m.seq++
	log.Debug().Int("seq", m.seq).Str("event", ev.Kind()).Str("status", string(next.Status)).Msg("event applied")

	for _, obs := range m.observers {
		obs(m.seq, ev, next.clone())
	}
	return next.clone(), nil
}

// Snapshot returns a copy of the current state.
func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}
