// Package sensor defines sensor reading events and their value generation.
package sensor

import (
	"errors"
	"fmt"
	"time"
)

// Kind identifies the sensor family a reading comes from.
type Kind string

const (
	KindCO          Kind = "co"
	KindTemperature Kind = "temperature"
	KindPressure    Kind = "pressure"
)

// ErrUnknownKind is returned when a sensor kind has no profile.
var ErrUnknownKind = errors.New("unknown sensor kind")

// FaultValue marks a faulty reading. Roughly one reading in a hundred
// comes back as a fault.
const FaultValue = 0.0

const faultOdds = 100

// profile holds the per-kind value range: base plus a uniform span.
type profile struct {
	base float64
	span int
}

var profiles = map[Kind]profile{
	KindCO:          {base: 50.0, span: 100},   // ppm
	KindTemperature: {base: 15.0, span: 15},    // degrees Celsius
	KindPressure:    {base: 1013.25, span: 20}, // hPa
}

// ParseKind validates a configured kind string.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := profiles[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Reading is a single measurement event. Readings are values; each copy
// handed to the bus is owned exclusively by its receiver.
type Reading struct {
	DeviceID  string
	Kind      Kind
	Value     float64
	Timestamp time.Time
	Seq       uint64
}

// IsFault reports whether the reading carries the fault marker value.
func (r Reading) IsFault() bool {
	return r.Value == FaultValue
}

// Device generates readings for one simulated physical sensor. It is a
// live prototype: Next mutates it and returns an independent snapshot.
// Device is not safe for concurrent use; each simulator owns one.
type Device struct {
	id      string
	kind    Kind
	profile profile
	rng     *RNG
	seq     uint64
}

// NewDevice creates a device of the given kind with its own generator.
func NewDevice(kind Kind, rng *RNG) (*Device, error) {
	p, ok := profiles[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	d := &Device{kind: kind, profile: p, rng: rng}
	d.id = fmt.Sprintf("%s_%d", kind, rng.Uniform(10))
	return d, nil
}

// ID returns the device identifier.
func (d *Device) ID() string { return d.id }

// Kind returns the device's sensor kind.
func (d *Device) Kind() Kind { return d.kind }

// Next produces a fresh reading with the current timestamp and the next
// sequence number.
func (d *Device) Next() Reading {
	d.seq++
	value := FaultValue
	if !d.rng.OneIn(faultOdds) {
		value = d.profile.base + float64(d.rng.Uniform(d.profile.span))
	}
	return Reading{
		DeviceID:  d.id,
		Kind:      d.kind,
		Value:     value,
		Timestamp: time.Now(),
		Seq:       d.seq,
	}
}
