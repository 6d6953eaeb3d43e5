package controller

import "github.com/calvinmclean/smartaqua"

// ModeController toggles the OperatingMode. There is no debounce: the button is sampled once per tick and
// every tick it reads pressed is another toggle
type ModeController struct {
	mode smartaqua.OperatingMode
}

// NewModeController starts in Automatic mode
func NewModeController() *ModeController {
	return &ModeController{mode: smartaqua.ModeAutomatic}
}

// OnTick flips the mode if pressed and returns the current mode
func (m *ModeController) OnTick(pressed bool) smartaqua.OperatingMode {
	if pressed {
		m.mode = m.mode.Toggle()
	}
	return m.mode
}

// Mode returns the current mode
func (m *ModeController) Mode() smartaqua.OperatingMode {
	return m.mode
}
