package sim

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// mockSimulator blocks in Run until RequestStop is called.
type mockSimulator struct {
	running  int32
	stopped  int32
	stop     chan struct{}
	stopOnce sync.Once
}

func newMockSimulator() *mockSimulator {
	return &mockSimulator{stop: make(chan struct{})}
}

func (m *mockSimulator) Run() {
	atomic.StoreInt32(&m.running, 1)
	<-m.stop
	atomic.StoreInt32(&m.stopped, 1)
}

func (m *mockSimulator) RequestStop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestStartStopAll(t *testing.T) {
	m := NewManager()
	sims := []*mockSimulator{newMockSimulator(), newMockSimulator()}
	for _, s := range sims {
		if err := m.Add(s); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if err := m.StartAll(); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, "both simulators running", func() bool {
		return atomic.LoadInt32(&sims[0].running) == 1 && atomic.LoadInt32(&sims[1].running) == 1
	})
	if !m.Running() {
		t.Fatalf("manager should report running")
	}

	m.StopAll()
	for i, s := range sims {
		if atomic.LoadInt32(&s.stopped) != 1 {
			t.Fatalf("simulator %d not joined after StopAll", i)
		}
	}
	if m.Running() {
		t.Fatalf("manager should report stopped")
	}
}

func TestAddWhileRunningRejected(t *testing.T) {
	m := NewManager()
	if err := m.Add(newMockSimulator()); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := m.StartAll(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.StopAll()

	if err := m.Add(newMockSimulator()); err != ErrRunning {
		t.Fatalf("expected ErrRunning, got %v", err)
	}
	if m.Count() != 1 {
		t.Fatalf("expected count unchanged at 1, got %d", m.Count())
	}
}

func TestStartAllTwice(t *testing.T) {
	m := NewManager()
	if err := m.Add(newMockSimulator()); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := m.StartAll(); err != nil {
		t.Fatalf("first start: %v", err)
	}
	defer m.StopAll()
	if err := m.StartAll(); err != ErrAlreadyRunning {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestStopAllIdempotent(t *testing.T) {
	m := NewManager()
	m.StopAll() // never started

	if err := m.Add(newMockSimulator()); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := m.StartAll(); err != nil {
		t.Fatalf("start: %v", err)
	}
	m.StopAll()
	m.StopAll()
}

func TestConcurrentStartRace(t *testing.T) {
	m := NewManager()
	if err := m.Add(newMockSimulator()); err != nil {
		t.Fatalf("add: %v", err)
	}
	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.StartAll(); err == nil {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	defer m.StopAll()
	if atomic.LoadInt32(&wins) != 1 {
		t.Fatalf("expected exactly one StartAll winner, got %d", wins)
	}
}
