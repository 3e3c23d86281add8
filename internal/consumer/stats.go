package consumer

import (
	"context"
	"sync"
	"time"

	"sensorbus/eventbus"
	"sensorbus/internal/store"
	"sensorbus/sensor"
)

// DeviceAggregate is the running rollup for one device.
type DeviceAggregate struct {
	DeviceID string  `json:"device_id"`
	Kind     string  `json:"kind"`
	Readings int64   `json:"readings"`
	Faults   int64   `json:"faults"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Avg      float64 `json:"avg"`

	sum float64
}

// StatsCollector aggregates readings per device and keeps a bounded ring of
// recent values per kind for charting. It subscribes to the bus and is
// flushed to the store on an interval by the app.
type StatsCollector struct {
	mu      sync.Mutex
	devices map[string]*DeviceAggregate
	recent  map[sensor.Kind][]float64
	keep    int
}

// NewStatsCollector creates the collector and subscribes it to the bus.
// keep bounds the per-kind recent-value ring.
func NewStatsCollector(bus *eventbus.Bus, keep int) *StatsCollector {
	if keep <= 0 {
		keep = 120
	}
	c := &StatsCollector{
		devices: make(map[string]*DeviceAggregate),
		recent:  make(map[sensor.Kind][]float64),
		keep:    keep,
	}
	bus.Subscribe(c.OnEvent)
	return c
}

// OnEvent runs on the bus dispatch goroutine.
func (c *StatsCollector) OnEvent(event eventbus.Event) {
	reading, ok := event.(sensor.Reading)
	if !ok {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	agg := c.devices[reading.DeviceID]
	if agg == nil {
		agg = &DeviceAggregate{DeviceID: reading.DeviceID, Kind: string(reading.Kind)}
		c.devices[reading.DeviceID] = agg
	}
	agg.Readings++
	if reading.IsFault() {
		agg.Faults++
	} else {
		if agg.Readings-agg.Faults == 1 || reading.Value < agg.Min {
			agg.Min = reading.Value
		}
		if reading.Value > agg.Max {
			agg.Max = reading.Value
		}
		agg.sum += reading.Value
		agg.Avg = agg.sum / float64(agg.Readings-agg.Faults)
	}

	ring := append(c.recent[reading.Kind], reading.Value)
	if len(ring) > c.keep {
		ring = ring[len(ring)-c.keep:]
	}
	c.recent[reading.Kind] = ring
}

// Snapshot returns a copy of the current aggregates.
func (c *StatsCollector) Snapshot() []DeviceAggregate {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]DeviceAggregate, 0, len(c.devices))
	for _, agg := range c.devices {
		out = append(out, *agg)
	}
	return out
}

// Recent returns a copy of the recent values for one kind, oldest first.
func (c *StatsCollector) Recent(kind sensor.Kind) []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]float64(nil), c.recent[kind]...)
}

// Flush writes the current aggregates for runID to the store.
func (c *StatsCollector) Flush(ctx context.Context, st *store.Store, runID string) error {
	now := time.Now().UTC()
	for _, agg := range c.Snapshot() {
		row := store.DeviceStats{
			RunID:     runID,
			DeviceID:  agg.DeviceID,
			Kind:      agg.Kind,
			Readings:  agg.Readings,
			Faults:    agg.Faults,
			MinValue:  agg.Min,
			MaxValue:  agg.Max,
			AvgValue:  agg.Avg,
			UpdatedAt: now,
		}
		if err := st.UpsertDeviceStats(ctx, row); err != nil {
			return err
		}
	}
	return nil
}
