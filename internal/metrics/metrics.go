package metrics

import "sync/atomic"

// Metrics captures shared operational stats for the running fleet.
type Metrics struct {
	readings int64
	faults   int64
	flushes  int64
	reloads  int64
}

// Snapshot provides a consistent view of the current metrics.
type Snapshot struct {
	Readings int64 `json:"readings"`
	Faults   int64 `json:"faults"`
	Flushes  int64 `json:"flushes"`
	Reloads  int64 `json:"reloads"`
}

// New creates a zeroed Metrics instance.
func New() *Metrics {
	return &Metrics{}
}

// RecordReading increments the reading counter, and the fault counter when
// the reading carried the fault marker.
func (m *Metrics) RecordReading(fault bool) {
	atomic.AddInt64(&m.readings, 1)
	if fault {
		atomic.AddInt64(&m.faults, 1)
	}
}

// RecordFlush counts one stats flush to the store.
func (m *Metrics) RecordFlush() { atomic.AddInt64(&m.flushes, 1) }

// RecordReload counts one config reload cycle.
func (m *Metrics) RecordReload() { atomic.AddInt64(&m.reloads, 1) }

// Snapshot returns a read-only view of metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Readings: atomic.LoadInt64(&m.readings),
		Faults:   atomic.LoadInt64(&m.faults),
		Flushes:  atomic.LoadInt64(&m.flushes),
		Reloads:  atomic.LoadInt64(&m.reloads),
	}
}
