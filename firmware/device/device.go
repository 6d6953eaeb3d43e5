//go:build tinygo

package device

import (
	"errors"
	"machine"

	"github.com/calvinmclean/smartaqua/firmware/controller"

	"tinygo.org/x/drivers/servo"
)

// Device owns the aquarium kit's hardware and hands it to the control loop
type Device struct {
	hardware controller.Hardware
	display  *Display
	console  Console
}

// New configures every pin and peripheral
func New(pins PinConfig, displayCfg DisplayConfig) (Device, error) {
	machine.InitADC()

	for _, p := range []machine.Pin{pins.LevelPin, pins.ModeButton, pins.FeedButton} {
		p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	}

	myServo, err := servo.New(pins.ServoPWM, pins.ServoPin)
	if err != nil {
		return Device{}, errors.New("error creating servo: " + err.Error())
	}

	display, err := NewDisplay(displayCfg)
	if err != nil {
		return Device{}, errors.New("error creating display: " + err.Error())
	}

	thermometer := NewThermometer(pins.ProbePin)
	probes, err := thermometer.Scan()
	if err != nil {
		println("error scanning temperature probes:", err.Error())
	}
	println("Found DS devices:", len(probes))

	return Device{
		hardware: controller.Hardware{
			Probe:      thermometer,
			TDS:        NewAnalogInput(pins.TDSPin),
			Level:      pins.LevelPin,
			ModeButton: pins.ModeButton,
			FeedButton: pins.FeedButton,
			Servo:      myServo,
		},
		display: display,
		console: NewConsole(),
	}, nil
}

// Hardware returns the sensors, buttons, and servo
func (d Device) Hardware() controller.Hardware {
	return d.hardware
}

// Display returns the OLED status sink
func (d Device) Display() *Display {
	return d.display
}

// Console returns the USB serial console
func (d Device) Console() Console {
	return d.console
}
