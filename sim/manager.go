package sim

import (
	"errors"
	"sync"
	"sync/atomic"
)

var (
	// ErrRunning is returned by Add while the fleet is running.
	ErrRunning = errors.New("sim: cannot add simulator while running")
	// ErrAlreadyRunning is returned by StartAll on a running manager.
	ErrAlreadyRunning = errors.New("sim: already running")
)

const (
	stateStopped int32 = iota
	stateRunning
)

// Manager owns a fleet of simulators and runs each in its own goroutine.
// Start/stop transitions are guarded by a compare-and-swap so concurrent
// callers race safely: exactly one performs the side effects, the loser
// observes the no-op path.
type Manager struct {
	state atomic.Int32

	mu   sync.Mutex
	sims []Simulator

	wg sync.WaitGroup
}

// NewManager creates an empty, stopped manager.
func NewManager() *Manager {
	return &Manager{}
}

// Add hands ownership of s to the manager. The fleet is fixed while
// running; Add fails with ErrRunning until StopAll completes.
func (m *Manager) Add(s Simulator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Load() == stateRunning {
		return ErrRunning
	}
	m.sims = append(m.sims, s)
	return nil
}

// Count returns the number of owned simulators.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sims)
}

// Running reports whether the fleet is currently running.
func (m *Manager) Running() bool {
	return m.state.Load() == stateRunning
}

// StartAll spawns one goroutine per simulator and returns immediately.
// If the manager is already running it returns ErrAlreadyRunning and has
// no effect.
func (m *Manager) StartAll() error {
	if !m.state.CompareAndSwap(stateStopped, stateRunning) {
		return ErrAlreadyRunning
	}
	m.mu.Lock()
	sims := append([]Simulator(nil), m.sims...)
	m.mu.Unlock()
	for _, s := range sims {
		m.wg.Add(1)
		go func(s Simulator) {
			defer m.wg.Done()
			s.Run()
		}(s)
	}
	return nil
}

// StopAll signals every simulator to stop and blocks until all of their
// run loops have returned. Calling StopAll on a stopped manager is a no-op.
func (m *Manager) StopAll() {
	if !m.state.CompareAndSwap(stateRunning, stateStopped) {
		return
	}
	m.mu.Lock()
	sims := append([]Simulator(nil), m.sims...)
	m.mu.Unlock()
	for _, s := range sims {
		s.RequestStop()
	}
	m.wg.Wait()
}
