//go:build tinygo

package device

import (
	"machine"

	"github.com/calvinmclean/smartaqua/firmware/sensor"

	"tinygo.org/x/drivers/ds18b20"
	"tinygo.org/x/drivers/onewire"
)

// Thermometer is a 1-Wire bus of DS18B20 probes
type Thermometer struct {
	bus onewire.Device
	ds  ds18b20.Device
}

var _ sensor.TemperatureProbe = Thermometer{}

// NewThermometer sets up the 1-Wire bus on pin
func NewThermometer(pin machine.Pin) Thermometer {
	bus := onewire.New(pin)
	bus.Configure(onewire.Config{})

	ds := ds18b20.New(bus)
	ds.Configure()

	return Thermometer{bus: bus, ds: ds}
}

// Scan returns the ROM address of every device on the bus
func (t Thermometer) Scan() ([]sensor.ProbeID, error) {
	roms, err := t.bus.Search(onewire.SEARCH_ROM)
	if err != nil {
		return nil, err
	}

	probes := make([]sensor.ProbeID, 0, len(roms))
	for _, rom := range roms {
		probes = append(probes, sensor.ProbeID(rom))
	}
	return probes, nil
}

// Convert starts a conversion on every probe with a single skip-ROM request
func (t Thermometer) Convert() {
	t.ds.RequestTemperature(nil)
}

// Read returns the converted temperature in Celsius
func (t Thermometer) Read(id sensor.ProbeID) (float64, error) {
	milli, err := t.ds.ReadTemperature(id)
	if err != nil {
		return 0, err
	}
	return float64(milli) / 1000, nil
}
