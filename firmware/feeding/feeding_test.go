package feeding

import (
	"errors"
	"testing"
	"time"

	"github.com/calvinmclean/smartaqua"
)

func TestShouldAutoFeed(t *testing.T) {
	t0 := time.Unix(1_700_000_000, 0)
	interval := 7200 * time.Second

	tests := []struct {
		name     string
		elapsed  time.Duration
		expected bool
	}{
		{"JustFed", 0, false},
		{"OneSecondEarly", 7199 * time.Second, false},
		{"Boundary", 7200 * time.Second, true},
		{"Overdue", 9000 * time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ShouldAutoFeed(t0.Add(tt.elapsed), t0, interval)
			if out != tt.expected {
				t.Errorf("expected=%v, got=%v", tt.expected, out)
			}
		})
	}
}

func TestSecondsUntilNextFeed(t *testing.T) {
	t0 := time.Unix(1_700_000_000, 0)
	interval := 7200 * time.Second

	tests := []struct {
		name     string
		elapsed  time.Duration
		expected int
	}{
		{"JustFed", 0, 7200},
		{"OneSecondLeft", 7199 * time.Second, 1},
		{"PartialSecond", 7199*time.Second + 500*time.Millisecond, 0},
		{"Boundary", 7200 * time.Second, 0},
		{"Overdue", 8000 * time.Second, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := SecondsUntilNextFeed(t0.Add(tt.elapsed), t0, interval)
			if out != tt.expected {
				t.Errorf("expected=%d, got=%d", tt.expected, out)
			}
		})
	}
}

func TestFormatCountdown(t *testing.T) {
	tests := []struct {
		seconds  int
		expected string
	}{
		{0, "00:00:00"},
		{-5, "00:00:00"},
		{1, "00:00:01"},
		{59, "00:00:59"},
		{61, "00:01:01"},
		{7199, "01:59:59"},
		{7200, "02:00:00"},
		{360000, "100:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			out := FormatCountdown(tt.seconds)
			if out != tt.expected {
				t.Errorf("expected=%q, got=%q", tt.expected, out)
			}
		})
	}
}

type fakeServo struct {
	angles []int
	err    error
}

func (s *fakeServo) SetAngle(angle int) error {
	s.angles = append(s.angles, angle)
	return s.err
}

func newTestDispenser(servo Servo) (*Dispenser, *[]time.Duration) {
	d := NewDispenser(servo, Config{IdleAngle: 90, DispenseAngle: 180, Hold: time.Second})
	var sleeps []time.Duration
	d.sleep = func(dur time.Duration) {
		sleeps = append(sleeps, dur)
	}
	return d, &sleeps
}

func TestDispense(t *testing.T) {
	servo := &fakeServo{}
	d, sleeps := newTestDispenser(servo)

	var phases []smartaqua.Step
	var states []smartaqua.ActuatorState
	d.OnPhase = func(s smartaqua.Step) {
		phases = append(phases, s)
		states = append(states, d.State())
	}

	d.Dispense()

	if len(servo.angles) != 2 || servo.angles[0] != 180 || servo.angles[1] != 90 {
		t.Errorf("expected angles [180 90], got %v", servo.angles)
	}
	if len(*sleeps) != 1 || (*sleeps)[0] != time.Second {
		t.Errorf("expected one 1s hold, got %v", *sleeps)
	}
	if len(phases) != 2 || phases[0] != smartaqua.StepActuatorOn || phases[1] != smartaqua.StepActuatorOff {
		t.Errorf("unexpected phases: %v", phases)
	}
	if states[0] != smartaqua.ActuatorDispensing || states[1] != smartaqua.ActuatorIdle {
		t.Errorf("unexpected states during phases: %v", states)
	}
	if d.State() != smartaqua.ActuatorIdle {
		t.Errorf("expected idle after dispense, got %s", d.State())
	}
}

func TestDispenseEndsIdleRegardlessOfStart(t *testing.T) {
	d, _ := newTestDispenser(&fakeServo{})
	d.state = smartaqua.ActuatorDispensing

	d.Dispense()
	if d.State() != smartaqua.ActuatorIdle {
		t.Errorf("expected idle, got %s", d.State())
	}
}

func TestDispenseServoError(t *testing.T) {
	servo := &fakeServo{err: errors.New("invalid angle")}
	d, _ := newTestDispenser(servo)

	var logs []string
	d.Log = func(msg string) {
		logs = append(logs, msg)
	}

	d.Dispense()
	if len(logs) != 2 {
		t.Errorf("expected 2 logged errors, got %v", logs)
	}
	if d.State() != smartaqua.ActuatorIdle {
		t.Errorf("expected idle, got %s", d.State())
	}
}

func TestPark(t *testing.T) {
	servo := &fakeServo{}
	d, sleeps := newTestDispenser(servo)

	d.Park()
	if len(servo.angles) != 1 || servo.angles[0] != 90 {
		t.Errorf("expected angles [90], got %v", servo.angles)
	}
	if len(*sleeps) != 0 {
		t.Errorf("expected no hold, got %v", *sleeps)
	}
}
