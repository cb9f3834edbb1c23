// Package lifecycle guards components that must be initialized exactly once and torn
// down exactly once: storage backends, the HTTP server and viewer sessions.
package lifecycle

import (
	"errors"
	"fmt"
	"sync"
)

// State is a lifecycle phase.
type State int

const (
	Idle State = iota
	Initializing
	Ready
	TornDown
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case TornDown:
		return "torn_down"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrInvalidTransition is returned when a transition is not allowed from the current state.
var ErrInvalidTransition = errors.New("invalid lifecycle transition")

// Machine is a mutex-guarded lifecycle state. The zero value is Idle.
type Machine struct {
	mu    sync.Mutex
	state State
	err   error
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Err returns the error passed to the last failed Complete, if any.
func (m *Machine) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Begin moves Idle to Initializing. Any other state is rejected, so a component can
// never be instantiated twice.
func (m *Machine) Begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Idle {
		return fmt.Errorf("%w: begin from %s", ErrInvalidTransition, m.state)
	}
	m.state = Initializing
	m.err = nil
	return nil
}

// Complete ends initialization: Ready on success, back to Idle on failure so the
// caller may retry.
func (m *Machine) Complete(initErr error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Initializing {
		return fmt.Errorf("%w: complete from %s", ErrInvalidTransition, m.state)
	}
	if initErr != nil {
		m.state = Idle
		m.err = initErr
		return nil
	}
	m.state = Ready
	return nil
}

// Teardown moves to TornDown and reports whether this call performed the transition.
// It is accepted from Ready and from Initializing, so a component can be torn down
// while its init is still running. From Idle or TornDown it is a no-op returning false.
func (m *Machine) Teardown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Ready && m.state != Initializing {
		return false
	}
	m.state = TornDown
	return true
}

// Ready reports whether the machine is in the Ready state.
func (m *Machine) Ready() bool {
	return m.State() == Ready
}

// Run executes init between Begin and Complete, returning init's error.
func (m *Machine) Run(init func() error) error {
	if err := m.Begin(); err != nil {
		return err
	}
	err := init()
	if cerr := m.Complete(err); cerr != nil {
		return cerr
	}
	return err
}
