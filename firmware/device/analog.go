//go:build tinygo

package device

import (
	"machine"

	"github.com/calvinmclean/smartaqua/firmware/sensor"
)

// AnalogInput reads an ADC pin as a 12-bit sample
type AnalogInput struct {
	adc machine.ADC
}

var _ sensor.AnalogSensor = AnalogInput{}

// NewAnalogInput configures pin for analog input. machine.InitADC must be called first
func NewAnalogInput(pin machine.Pin) AnalogInput {
	adc := machine.ADC{Pin: pin}
	adc.Configure(machine.ADCConfig{})
	return AnalogInput{adc: adc}
}

// ReadRaw scales the 16-bit value from machine.ADC down to the 12 bits the TDS calibration expects
func (a AnalogInput) ReadRaw() int {
	return int(a.adc.Get() >> 4)
}
