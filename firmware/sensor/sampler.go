package sensor

import (
	"math"
	"time"

	"github.com/calvinmclean/smartaqua"
)

// ProbeID is the ROM address of a 1-Wire temperature probe
type ProbeID []uint8

// TemperatureProbe is a 1-Wire thermometer bus
type TemperatureProbe interface {
	Scan() ([]ProbeID, error)
	// Convert starts a temperature conversion on every probe
	Convert()
	Read(ProbeID) (float64, error)
}

// AnalogSensor returns a 12-bit sample
type AnalogSensor interface {
	ReadRaw() int
}

// DigitalInput is a single pin. machine.Pin implements it
type DigitalInput interface {
	Get() bool
}

// Diagnostics receives fault messages
type Diagnostics interface {
	WriteLine(text string)
}

// Config has the acquisition timing and fallbacks
type Config struct {
	// SettleDelay is the wait between requesting a conversion and reading it back
	SettleDelay time.Duration
	// FallbackTemperature is used for TDS compensation when the temperature probe faulted
	FallbackTemperature float64
}

// Sampler reads each sensor once per call. A fault in one sensor does not stop the others from being read
type Sampler struct {
	cfg Config

	probe TemperatureProbe
	tds   AnalogSensor
	level DigitalInput
	diag  Diagnostics

	// probes is the result of the last successful scan. It is cleared after a failed read so the next
	// call scans again
	probes []ProbeID

	sleep func(time.Duration)
}

// NewSampler creates a Sampler. A nil probe is treated the same as a probe that is not connected
func NewSampler(cfg Config, probe TemperatureProbe, tds AnalogSensor, level DigitalInput, diag Diagnostics) *Sampler {
	return &Sampler{
		cfg:   cfg,
		probe: probe,
		tds:   tds,
		level: level,
		diag:  diag,
		sleep: time.Sleep,
	}
}

// ReadTemperature returns the temperature in Celsius from the first probe on the bus
func (s *Sampler) ReadTemperature() Reading {
	if s.probe == nil {
		s.fault(smartaqua.SensorTemperature, "probe not configured")
		return Invalid
	}

	if len(s.probes) == 0 {
		probes, err := s.probe.Scan()
		if err != nil {
			s.fault(smartaqua.SensorTemperature, "scan failed: "+err.Error())
			return Invalid
		}
		s.probes = probes
	}

	if len(s.probes) == 0 {
		s.fault(smartaqua.SensorTemperature, "probe not found")
		return Invalid
	}

	s.probe.Convert()
	s.sleep(s.cfg.SettleDelay)

	t, err := s.probe.Read(s.probes[0])
	if err != nil {
		s.probes = nil
		s.fault(smartaqua.SensorTemperature, "read failed: "+err.Error())
		return Invalid
	}

	return NewReading(t)
}

// ReadWaterQuality returns the TDS estimate in ppm. A non-positive sample means the probe is disconnected. An
// estimate that is not a finite number is also a fault
func (s *Sampler) ReadWaterQuality(temperature Reading) Reading {
	raw := s.tds.ReadRaw()
	if raw <= 0 {
		s.fault(smartaqua.SensorTDS, "no signal")
		return Invalid
	}

	tds := EstimateTDS(raw, temperature.Or(s.cfg.FallbackTemperature))
	if math.IsNaN(tds) || math.IsInf(tds, 0) {
		s.fault(smartaqua.SensorTDS, "out of range")
		return Invalid
	}

	return NewReading(tds)
}

// ReadWaterLevel reads the float switch. High means the tank is full enough
func (s *Sampler) ReadWaterLevel() smartaqua.WaterLevel {
	if s.level.Get() {
		return smartaqua.LevelEnough
	}
	return smartaqua.LevelShortage
}

func (s *Sampler) fault(sensor, msg string) {
	if s.diag == nil {
		return
	}
	s.diag.WriteLine(smartaqua.FormatFault(sensor, msg))
}
