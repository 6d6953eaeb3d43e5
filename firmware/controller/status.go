package controller

import (
	"math"
	"strconv"

	"github.com/calvinmclean/smartaqua"
	"github.com/calvinmclean/smartaqua/firmware/feeding"
	"github.com/calvinmclean/smartaqua/firmware/sensor"
)

// StatusSink is a fixed-layout text display. Rows start at 1
type StatusSink interface {
	SetLine(row int, text string)
	Clear()
	Flush()
}

// DiagnosticSink is the text channel for reports, feed events, and faults
type DiagnosticSink interface {
	WriteLine(text string)
}

// Display rows
const (
	rowTitle = iota + 1
	rowStep
	rowMode
	rowTemperature
	rowTDS
	rowLevel
	rowMotor
	rowTimer
)

// render draws the full status. The timer row is only drawn in Automatic mode
func (l *Loop) render() {
	if l.status == nil {
		return
	}

	mode := l.mode.Mode()

	l.status.Clear()
	l.status.SetLine(rowTitle, l.cfg.Title)
	l.status.SetLine(rowStep, l.step.String())
	l.status.SetLine(rowMode, "mode: "+mode.String())
	l.status.SetLine(rowTemperature, "temp: "+displayValue(l.readings.Temperature))
	l.status.SetLine(rowTDS, "tds: "+displayValue(l.readings.WaterQuality))
	l.status.SetLine(rowLevel, "level: "+l.readings.WaterLevel.String())
	l.status.SetLine(rowMotor, "motor: "+l.dispenser.State().String())
	if mode == smartaqua.ModeAutomatic {
		l.status.SetLine(rowTimer, "timer: "+l.countdown())
	}
	l.status.Flush()
}

// Report returns the condensed status written to the diagnostic channel
func (l *Loop) Report() smartaqua.Report {
	r := smartaqua.Report{
		Mode:  l.mode.Mode(),
		Level: l.readings.WaterLevel,
	}
	r.Temperature, r.TemperatureValid = l.readings.Temperature.Value()
	r.TDS, r.TDSValid = l.readings.WaterQuality.Value()
	if r.Mode == smartaqua.ModeAutomatic {
		r.Countdown = l.countdown()
	}
	return r
}

// report writes the Report if DiagnosticInterval has passed since the last one
func (l *Loop) report() {
	if l.now.Sub(l.lastReport) < l.cfg.DiagnosticInterval {
		return
	}
	l.lastReport = l.now
	l.writeDiagnostic(smartaqua.FormatReport(l.Report()))
}

func (l *Loop) writeDiagnostic(line string) {
	if l.diag == nil {
		return
	}
	l.diag.WriteLine(line)
}

func (l *Loop) countdown() string {
	return feeding.FormatCountdown(feeding.SecondsUntilNextFeed(l.now, l.lastFeeding, l.cfg.FeedInterval))
}

// displayValue formats a reading as a whole number padded to 3 characters, or "--" if it is invalid or not a
// finite number
func displayValue(r sensor.Reading) string {
	v, ok := r.Value()
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return " --"
	}

	s := strconv.Itoa(int(v))
	for len(s) < 3 {
		s = " " + s
	}
	return s
}
