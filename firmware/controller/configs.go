package controller

import (
	"time"

	"github.com/calvinmclean/smartaqua/firmware/feeding"
	"github.com/calvinmclean/smartaqua/firmware/sensor"
)

// Config has the timing for the control loop and its components. It is not changed at runtime
type Config struct {
	// Title is shown on the first row of the display
	Title string
	// FeedInterval is the time between feedings in Automatic mode
	FeedInterval time.Duration
	// DiagnosticInterval limits how often a report is written to the diagnostic channel
	DiagnosticInterval time.Duration

	Sensor  sensor.Config
	Feeding feeding.Config
}

// DefaultConfig is the configuration for the SmartAqua kit: a 2 hour feed interval and a 360° servo
func DefaultConfig() Config {
	return Config{
		Title:              "* SmartAqua *",
		FeedInterval:       120 * time.Minute,
		DiagnosticInterval: 5 * time.Second,
		Sensor: sensor.Config{
			SettleDelay:         5 * time.Millisecond,
			FallbackTemperature: -1,
		},
		Feeding: feeding.Config{
			IdleAngle:     90,
			DispenseAngle: 180,
			Hold:          1 * time.Second,
		},
	}
}

// Hardware is the set of devices the loop reads and drives. Buttons are active low
type Hardware struct {
	Probe      sensor.TemperatureProbe
	TDS        sensor.AnalogSensor
	Level      sensor.DigitalInput
	ModeButton sensor.DigitalInput
	FeedButton sensor.DigitalInput
	Servo      feeding.Servo
}
