//go:build tinygo

package device

import (
	"machine"

	"github.com/calvinmclean/smartaqua/firmware/commands"
	"github.com/calvinmclean/smartaqua/firmware/controller"
)

// Console is the USB serial port. It carries diagnostic lines out and serial commands in
type Console struct {
	serial machine.Serialer
}

var (
	_ controller.DiagnosticSink = Console{}
	_ commands.ByteReader       = Console{}
)

// NewConsole uses machine.Serial, which is the USB CDC port on boards that have one
func NewConsole() Console {
	return Console{serial: machine.Serial}
}

// WriteLine writes text terminated by CRLF
func (c Console) WriteLine(text string) {
	_, err := c.serial.Write([]byte(text + "\r\n"))
	if err != nil {
		println("error writing serial:", err.Error())
	}
}

// ReadByte returns an error if nothing is buffered, so it never blocks the loop
func (c Console) ReadByte() (byte, error) {
	return c.serial.ReadByte()
}
