//go:build tinygo

package device

import (
	"errors"
	"image/color"
	"machine"

	"github.com/calvinmclean/smartaqua/firmware/controller"

	"tinygo.org/x/drivers/ssd1306"
	"tinygo.org/x/tinyfont"
)

// lineHeight fits 8 rows of TomThumb on a 64px tall display
const lineHeight = 8

var white = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// Display renders status rows on an SSD1306 OLED
type Display struct {
	dev *ssd1306.Device
}

var _ controller.StatusSink = &Display{}

// NewDisplay sets up the I2C bus and the display
func NewDisplay(cfg DisplayConfig) (*Display, error) {
	err := cfg.I2C.Configure(machine.I2CConfig{
		SDA:       cfg.SDA,
		SCL:       cfg.SCL,
		Frequency: 400 * machine.KHz,
	})
	if err != nil {
		return nil, errors.New("error configuring i2c: " + err.Error())
	}

	dev := ssd1306.NewI2C(cfg.I2C)
	dev.Configure(ssd1306.Config{
		Address: cfg.Address,
		Width:   cfg.Width,
		Height:  cfg.Height,
	})
	dev.ClearDisplay()

	return &Display{dev: dev}, nil
}

// SetLine draws text on row, starting at 1. Text is drawn on its baseline so each row ends at row*lineHeight
func (d *Display) SetLine(row int, text string) {
	tinyfont.WriteLine(d.dev, &tinyfont.TomThumb, 0, int16(row*lineHeight)-1, text, white)
}

// Clear empties the buffer. The display keeps the previous frame until Flush
func (d *Display) Clear() {
	d.dev.ClearBuffer()
}

// Flush sends the buffer to the display
func (d *Display) Flush() {
	err := d.dev.Display()
	if err != nil {
		println("error updating display:", err.Error())
	}
}
