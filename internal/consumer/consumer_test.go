package consumer

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"sensorbus/eventbus"
	"sensorbus/internal/metrics"
	"sensorbus/internal/store"
	"sensorbus/sensor"
)

func reading(device string, kind sensor.Kind, value float64, seq uint64) sensor.Reading {
	return sensor.Reading{DeviceID: device, Kind: kind, Value: value, Timestamp: time.Now(), Seq: seq}
}

func TestStatsCollectorAggregates(t *testing.T) {
	c := NewStatsCollector(eventbus.New(), 10)
	c.OnEvent(reading("co_1", sensor.KindCO, 60, 1))
	c.OnEvent(reading("co_1", sensor.KindCO, 80, 2))
	c.OnEvent(reading("co_1", sensor.KindCO, sensor.FaultValue, 3))
	c.OnEvent(reading("co_1", sensor.KindCO, 100, 4))

	snap := c.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected 1 device, got %d", len(snap))
	}
	agg := snap[0]
	if agg.Readings != 4 || agg.Faults != 1 {
		t.Fatalf("unexpected counts: %+v", agg)
	}
	if agg.Min != 60 || agg.Max != 100 {
		t.Fatalf("unexpected min/max: %+v", agg)
	}
	if math.Abs(agg.Avg-80) > 1e-9 {
		t.Fatalf("expected avg 80, got %f", agg.Avg)
	}
}

func TestStatsCollectorFaultOnlyDevice(t *testing.T) {
	c := NewStatsCollector(eventbus.New(), 10)
	c.OnEvent(reading("pressure_0", sensor.KindPressure, sensor.FaultValue, 1))

	agg := c.Snapshot()[0]
	if agg.Readings != 1 || agg.Faults != 1 {
		t.Fatalf("unexpected counts: %+v", agg)
	}
	if agg.Min != 0 || agg.Max != 0 || agg.Avg != 0 {
		t.Fatalf("fault-only device should carry zero stats: %+v", agg)
	}
}

func TestRecentRingBounded(t *testing.T) {
	c := NewStatsCollector(eventbus.New(), 5)
	for i := 0; i < 12; i++ {
		c.OnEvent(reading("temperature_2", sensor.KindTemperature, float64(i), uint64(i+1)))
	}
	recent := c.Recent(sensor.KindTemperature)
	if len(recent) != 5 {
		t.Fatalf("expected ring bounded at 5, got %d", len(recent))
	}
	for i, v := range recent {
		if v != float64(7+i) {
			t.Fatalf("expected oldest-first tail values, got %v", recent)
		}
	}
	if got := c.Recent(sensor.KindCO); len(got) != 0 {
		t.Fatalf("expected empty ring for unseen kind, got %v", got)
	}
}

func TestNonReadingEventsIgnored(t *testing.T) {
	m := metrics.New()
	c := NewStatsCollector(eventbus.New(), 10)
	lc := NewLogConsumer(eventbus.New(), m)

	c.OnEvent("not a reading")
	lc.OnEvent(42)

	if len(c.Snapshot()) != 0 {
		t.Fatalf("collector must ignore non-reading events")
	}
	if snap := m.Snapshot(); snap.Readings != 0 {
		t.Fatalf("metrics must not count non-reading events: %+v", snap)
	}
}

func TestLogConsumerCountsReadings(t *testing.T) {
	m := metrics.New()
	lc := NewLogConsumer(eventbus.New(), m)
	lc.OnEvent(reading("co_1", sensor.KindCO, 75, 1))
	lc.OnEvent(reading("co_1", sensor.KindCO, sensor.FaultValue, 2))

	snap := m.Snapshot()
	if snap.Readings != 2 || snap.Faults != 1 {
		t.Fatalf("unexpected metrics: %+v", snap)
	}
}

func TestFlushPersistsAggregates(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "flush.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	c := NewStatsCollector(eventbus.New(), 10)
	c.OnEvent(reading("co_1", sensor.KindCO, 60, 1))
	c.OnEvent(reading("temperature_0", sensor.KindTemperature, 20, 1))

	ctx := context.Background()
	if err := c.Flush(ctx, st, "run-flush"); err != nil {
		t.Fatalf("flush: %v", err)
	}
	rows, err := st.ListDeviceStats(ctx, "run-flush")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 persisted aggregates, got %d", len(rows))
	}
}
