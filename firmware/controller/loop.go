package controller

import (
	"context"
	"time"

	"github.com/calvinmclean/smartaqua"
	"github.com/calvinmclean/smartaqua/firmware/commands"
	"github.com/calvinmclean/smartaqua/firmware/feeding"
	"github.com/calvinmclean/smartaqua/firmware/sensor"
)

// Loop is the control loop. It owns all of the device's state and is only ever used from one goroutine
type Loop struct {
	cfg Config

	sampler    *sensor.Sampler
	dispenser  *feeding.Dispenser
	mode       *ModeController
	modeButton sensor.DigitalInput
	feedButton sensor.DigitalInput

	status StatusSink
	diag   DiagnosticSink
	serial commands.ByteReader

	step     smartaqua.Step
	readings sensor.Readings

	// now is read once at the start of each tick and used for every comparison in that tick
	now         time.Time
	startTime   time.Time
	lastFeeding time.Time
	lastReport  time.Time

	pendingFeed   bool
	pendingToggle bool

	verbose bool
}

var _ commands.Controller = &Loop{}

// New creates the Loop in Automatic mode and parks the servo. The feed timer starts counting from start.
// hw.Servo is required; any of the inputs can be nil if they are not connected
func New(cfg Config, hw Hardware, status StatusSink, diag DiagnosticSink, start time.Time) *Loop {
	l := &Loop{
		cfg:         cfg,
		sampler:     sensor.NewSampler(cfg.Sensor, hw.Probe, hw.TDS, hw.Level, diag),
		dispenser:   feeding.NewDispenser(hw.Servo, cfg.Feeding),
		mode:        NewModeController(),
		modeButton:  hw.ModeButton,
		feedButton:  hw.FeedButton,
		status:      status,
		diag:        diag,
		step:        smartaqua.StepIdle,
		now:         start,
		startTime:   start,
		lastFeeding: start,
	}

	l.dispenser.OnPhase = l.setStep
	l.dispenser.Log = l.logError
	l.dispenser.Park()

	return l
}

// AttachSerial enables serial commands. Commands waiting in r are run at the start of each tick
func (l *Loop) AttachSerial(r commands.ByteReader) {
	l.serial = r
}

// Run ticks forever
func (l *Loop) Run(clock func() time.Time) {
	for {
		l.Tick(clock())
	}
}

// RunContext ticks until ctx is done
func (l *Loop) RunContext(ctx context.Context, clock func() time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		l.Tick(clock())
	}
}

// Tick runs one pass of the loop: read the mode button, read the sensors, feed if requested or if the
// timer elapsed in Automatic mode, then update the display and the diagnostic channel
func (l *Loop) Tick(now time.Time) {
	l.now = now

	if l.serial != nil {
		commands.Poll(l, l.serial)
	}

	l.setStep(smartaqua.StepSensingMode)
	toggle := pressed(l.modeButton) || l.pendingToggle
	l.pendingToggle = false
	mode := l.mode.OnTick(toggle)
	if toggle {
		l.log("mode: " + mode.String())
	}

	l.setStep(smartaqua.StepSensingTemperature)
	l.readings.Temperature = l.sampler.ReadTemperature()

	l.setStep(smartaqua.StepSensingTDS)
	l.readings.WaterQuality = l.sampler.ReadWaterQuality(l.readings.Temperature)

	l.setStep(smartaqua.StepSensingLevel)
	l.readings.WaterLevel = l.sampler.ReadWaterLevel()

	serialFeed := l.pendingFeed
	l.pendingFeed = false

	switch {
	case pressed(l.feedButton):
		l.feed(smartaqua.FeedSourceButton)
	case serialFeed:
		l.feed(smartaqua.FeedSourceSerial)
	case mode == smartaqua.ModeAutomatic && feeding.ShouldAutoFeed(now, l.lastFeeding, l.cfg.FeedInterval):
		l.feed(smartaqua.FeedSourceTimer)
	}

	l.render()
	l.report()
}

// feed records the feeding time and then runs the dispenser, so the timer restarts from when the feeding
// was triggered rather than when the servo stopped
func (l *Loop) feed(source smartaqua.FeedSource) {
	l.setStep(smartaqua.StepFeeding)
	l.writeDiagnostic(smartaqua.FormatFeed(source))

	l.lastFeeding = l.now
	l.dispenser.Dispense()
}

func (l *Loop) setStep(s smartaqua.Step) {
	l.step = s
	l.render()
}

// Mode returns the current OperatingMode
func (l *Loop) Mode() smartaqua.OperatingMode {
	return l.mode.Mode()
}

// LastFeeding returns when the last feeding was triggered
func (l *Loop) LastFeeding() time.Time {
	return l.lastFeeding
}

// Readings returns the values acquired in the last tick
func (l *Loop) Readings() sensor.Readings {
	return l.readings
}

// RequestFeed feeds on the next tick
func (l *Loop) RequestFeed() {
	l.pendingFeed = true
}

// RequestModeToggle toggles the mode on the next tick
func (l *Loop) RequestModeToggle() {
	l.pendingToggle = true
}

// ResetTimer restarts the feed timer from the current tick without feeding
func (l *Loop) ResetTimer() {
	l.lastFeeding = l.now
	l.log("timer reset")
}

// Debug writes a report right away. It does not move the rate limit watermark
func (l *Loop) Debug() {
	l.writeDiagnostic(smartaqua.FormatReport(l.Report()))
}

// Verbose enables logging of mode changes and timer resets
func (l *Loop) Verbose() {
	l.verbose = true
	println(l.ts(), "Set Verbose Mode")
}

func (l *Loop) log(msg string) {
	if !l.verbose {
		return
	}
	println(l.ts(), msg)
}

func (l *Loop) logError(msg string) {
	println(l.ts(), msg)
}

// ts returns the uptime timestamp for logging
func (l *Loop) ts() string {
	return "[" + l.now.Sub(l.startTime).String() + "]"
}

// pressed reads an active low button. A missing button is never pressed
func pressed(button sensor.DigitalInput) bool {
	if button == nil {
		return false
	}
	return !button.Get()
}
