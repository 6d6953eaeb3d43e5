//go:build tinygo

package main

import (
	"machine"
	"time"

	"github.com/calvinmclean/smartaqua/firmware/controller"
	"github.com/calvinmclean/smartaqua/firmware/device"
)

func main() {
	pins := device.PinConfig{
		ProbePin:   machine.GP15,
		TDSPin:     machine.ADC0,
		LevelPin:   machine.GP14,
		ModeButton: machine.GP13,
		FeedButton: machine.GP12,
		ServoPin:   machine.GP22,
		ServoPWM:   machine.PWM3,
	}

	displayCfg := device.DisplayConfig{
		I2C:     machine.I2C0,
		SDA:     machine.GP4,
		SCL:     machine.GP5,
		Address: 0x3C,
		Width:   128,
		Height:  64,
	}

	d, err := device.New(pins, displayCfg)
	if err != nil {
		panic(err)
	}

	console := d.Console()
	loop := controller.New(controller.DefaultConfig(), d.Hardware(), d.Display(), console, time.Now())
	loop.AttachSerial(console)

	loop.Run(time.Now)
}
