package sensor

import "github.com/calvinmclean/smartaqua"

// Reading is a sensor value that may be invalid because of a sensor fault. The value of an invalid
// Reading is not accessible without supplying a fallback, so it can't end up in arithmetic by accident
type Reading struct {
	value float64
	valid bool
}

// Invalid marks a faulted sensor
var Invalid = Reading{}

// NewReading returns a valid Reading
func NewReading(v float64) Reading {
	return Reading{value: v, valid: true}
}

// Value returns the value and whether it is valid
func (r Reading) Value() (float64, bool) {
	return r.value, r.valid
}

// Valid is true unless the sensor faulted
func (r Reading) Valid() bool {
	return r.valid
}

// Or returns the value, or fallback if the Reading is invalid
func (r Reading) Or(fallback float64) float64 {
	if !r.valid {
		return fallback
	}
	return r.value
}

// Readings is everything acquired during one tick
type Readings struct {
	Temperature  Reading
	WaterQuality Reading
	WaterLevel   smartaqua.WaterLevel
}
