package monitor

import (
	"errors"
	"fmt"
	"strings"

	"go.bug.st/serial"
)

// SerialPortNone can be selected to run without a device, reading lines only from the input
const SerialPortNone = "None"

// ErrNoUSBSerial is returned when no USB serial port is found
var ErrNoUSBSerial = errors.New("no USB serial ports found")

// GetSerialPorts lists serial ports that look like a USB CDC device, which is how the firmware shows up
func GetSerialPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("error listing serial ports: %w", err)
	}

	var usb []string
	for _, p := range ports {
		if strings.Contains(p, "usbmodem") || strings.Contains(p, "ttyACM") || strings.HasPrefix(p, "COM") {
			usb = append(usb, p)
		}
	}

	if len(usb) == 0 {
		return nil, ErrNoUSBSerial
	}
	return usb, nil
}

// OpenSerial opens port at the given baud rate. An empty port picks the first USB serial port
func OpenSerial(port string, baudRate int) (serial.Port, error) {
	if port == "" {
		ports, err := GetSerialPorts()
		if err != nil {
			return nil, err
		}
		port = ports[0]
	}

	p, err := serial.Open(port, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("error opening serial port %q: %w", port, err)
	}
	return p, nil
}
