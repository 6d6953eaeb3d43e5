//go:build tinygo

package device

import (
	"machine"

	"tinygo.org/x/drivers/servo"
)

// PinConfig has the pins for every sensor, button, and the servo
type PinConfig struct {
	// ProbePin is the 1-Wire data pin for the DS18B20 water temperature probe
	ProbePin machine.Pin
	// TDSPin is an ADC-capable pin for the analog TDS probe
	TDSPin machine.Pin
	// LevelPin reads the float switch. It is pulled up
	LevelPin   machine.Pin
	ModeButton machine.Pin
	FeedButton machine.Pin

	ServoPin machine.Pin
	ServoPWM servo.PWM
}

// DisplayConfig has device-level values for setting up the SSD1306 OLED
type DisplayConfig struct {
	I2C     *machine.I2C
	SDA     machine.Pin
	SCL     machine.Pin
	Address uint16
	Width   int16
	Height  int16
}
