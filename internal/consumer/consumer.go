// Package consumer holds the bus subscribers: one logs notable readings,
// one aggregates per-device statistics.
package consumer

import (
	"log"

	"sensorbus/eventbus"
	"sensorbus/internal/metrics"
	"sensorbus/sensor"
)

// LogConsumer logs CO readings in full and fault readings for every kind.
// Non-reading events are ignored.
type LogConsumer struct {
	metrics *metrics.Metrics
}

// NewLogConsumer creates the consumer and subscribes it to the bus.
func NewLogConsumer(bus *eventbus.Bus, m *metrics.Metrics) *LogConsumer {
	c := &LogConsumer{metrics: m}
	bus.Subscribe(c.OnEvent)
	return c
}

// OnEvent runs on the bus dispatch goroutine.
func (c *LogConsumer) OnEvent(event eventbus.Event) {
	reading, ok := event.(sensor.Reading)
	if !ok {
		return
	}
	if c.metrics != nil {
		c.metrics.RecordReading(reading.IsFault())
	}
	if reading.Kind == sensor.KindCO {
		log.Printf("reading device=%s kind=%s value=%.2f ts=%s", reading.DeviceID, reading.Kind, reading.Value, reading.Timestamp.Format("2006-01-02 15:04:05"))
	}
	if reading.IsFault() {
		log.Printf("sensor fault device=%s kind=%s ts=%s", reading.DeviceID, reading.Kind, reading.Timestamp.Format("2006-01-02 15:04:05"))
	}
}
