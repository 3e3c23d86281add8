// Package sim contains the sensor simulators and the manager that runs one
// goroutine per simulator.
package sim

import (
	"sync"
	"time"

	"sensorbus/eventbus"
	"sensorbus/sensor"
)

// Simulator is the producer capability the manager coordinates. Run blocks
// until RequestStop is called; RequestStop is non-blocking, idempotent, and
// safe to call from any goroutine, including before Run has started.
type Simulator interface {
	Run()
	RequestStop()
}

// SensorSimulator publishes readings from one simulated device at a fixed
// interval. Kind and interval are plain configuration; there is one shape
// for all sensor families.
type SensorSimulator struct {
	bus      *eventbus.Bus
	device   *sensor.Device
	interval time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

// NewSensorSimulator builds a simulator for the given kind. The caller
// supplies the bus the readings are published to and a seeded generator
// owned by this simulator. Unknown kinds are a construction error.
func NewSensorSimulator(bus *eventbus.Bus, kind sensor.Kind, interval time.Duration, rng *sensor.RNG) (*SensorSimulator, error) {
	device, err := sensor.NewDevice(kind, rng)
	if err != nil {
		return nil, err
	}
	return &SensorSimulator{
		bus:      bus,
		device:   device,
		interval: interval,
		stop:     make(chan struct{}),
	}, nil
}

// DeviceID returns the simulated device's identifier.
func (s *SensorSimulator) DeviceID() string { return s.device.ID() }

// Run generates and publishes one reading per interval until stopped. Each
// published reading is an independent copy; the live device state never
// leaves the simulator. Returns promptly after RequestStop, at most one
// interval later.
func (s *SensorSimulator) Run() {
	for {
		select {
		case <-s.stop:
			return
		default:
		}
		s.bus.Publish(s.device.Next())
		select {
		case <-s.stop:
			return
		case <-time.After(s.interval):
		}
	}
}

// RequestStop signals Run to exit. Safe to call repeatedly and before Run.
func (s *SensorSimulator) RequestStop() {
	s.stopOnce.Do(func() { close(s.stop) })
}
