package feeding

import (
	"time"

	"github.com/calvinmclean/smartaqua"
)

// Servo positions a continuous-rotation servo. servo.Servo from tinygo.org/x/drivers implements it
type Servo interface {
	SetAngle(angle int) error
}

// Config has the servo positions and timing for one dispense
type Config struct {
	IdleAngle     int
	DispenseAngle int
	// Hold is how long the servo turns before it is stopped again
	Hold time.Duration
}

// Dispenser releases food by running the servo for a fixed time. It blocks for the whole Hold duration
type Dispenser struct {
	servo Servo
	cfg   Config

	state smartaqua.ActuatorState

	// OnPhase is called after the state changes and before the servo moves, so the display can show
	// the new phase while the servo runs
	OnPhase func(smartaqua.Step)

	// Log receives servo errors. They are not otherwise handled since the servo gives no feedback
	Log func(msg string)

	sleep func(time.Duration)
}

// NewDispenser creates a Dispenser in the Idle state
func NewDispenser(servo Servo, cfg Config) *Dispenser {
	return &Dispenser{
		servo: servo,
		cfg:   cfg,
		state: smartaqua.ActuatorIdle,
		sleep: time.Sleep,
	}
}

// State returns the current actuator state
func (d *Dispenser) State() smartaqua.ActuatorState {
	return d.state
}

// Park stops the servo without dispensing. It is used at startup to check the servo responds
func (d *Dispenser) Park() {
	d.state = smartaqua.ActuatorIdle
	d.setAngle(d.cfg.IdleAngle)
}

// Dispense turns the servo for the configured Hold and then stops it. It always ends Idle
func (d *Dispenser) Dispense() {
	d.state = smartaqua.ActuatorDispensing
	d.phase(smartaqua.StepActuatorOn)
	d.setAngle(d.cfg.DispenseAngle)

	d.sleep(d.cfg.Hold)

	d.state = smartaqua.ActuatorIdle
	d.phase(smartaqua.StepActuatorOff)
	d.setAngle(d.cfg.IdleAngle)
}

func (d *Dispenser) phase(s smartaqua.Step) {
	if d.OnPhase != nil {
		d.OnPhase(s)
	}
}

func (d *Dispenser) setAngle(angle int) {
	err := d.servo.SetAngle(angle)
	if err != nil && d.Log != nil {
		d.Log("error setting servo angle: " + err.Error())
	}
}
