package controller

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/calvinmclean/smartaqua"
	"github.com/calvinmclean/smartaqua/firmware/sensor"
)

type fakeProbe struct {
	temp float64
}

func (p *fakeProbe) Scan() ([]sensor.ProbeID, error) {
	return []sensor.ProbeID{{0x28}}, nil
}

func (p *fakeProbe) Convert() {}

func (p *fakeProbe) Read(sensor.ProbeID) (float64, error) {
	return p.temp, nil
}

type fakeAnalog struct {
	raw int
}

func (a *fakeAnalog) ReadRaw() int {
	return a.raw
}

// fakeButton is active low like the real buttons
type fakeButton struct {
	pressed bool
}

func (b *fakeButton) Get() bool {
	return !b.pressed
}

type fakeLevel struct {
	high bool
}

func (l *fakeLevel) Get() bool {
	return l.high
}

type fakeServo struct {
	angles []int
}

func (s *fakeServo) SetAngle(angle int) error {
	s.angles = append(s.angles, angle)
	return nil
}

type fakeDisplay struct {
	lines  map[int]string
	frames []map[int]string
}

func (d *fakeDisplay) SetLine(row int, text string) {
	d.lines[row] = text
}

func (d *fakeDisplay) Clear() {
	d.lines = map[int]string{}
}

func (d *fakeDisplay) Flush() {
	d.frames = append(d.frames, d.lines)
}

func (d *fakeDisplay) last() map[int]string {
	return d.frames[len(d.frames)-1]
}

type fakeDiagnostics struct {
	lines []string
}

func (d *fakeDiagnostics) WriteLine(text string) {
	d.lines = append(d.lines, text)
}

func (d *fakeDiagnostics) count(prefix string) int {
	var n int
	for _, l := range d.lines {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}
	return n
}

type testRig struct {
	loop       *Loop
	probe      *fakeProbe
	tds        *fakeAnalog
	level      *fakeLevel
	modeButton *fakeButton
	feedButton *fakeButton
	servo      *fakeServo
	display    *fakeDisplay
	diag       *fakeDiagnostics
}

var t0 = time.Unix(1_700_000_000, 0)

func newTestRig() *testRig {
	cfg := DefaultConfig()
	// zero delays keep the tests from sleeping
	cfg.Sensor.SettleDelay = 0
	cfg.Feeding.Hold = 0

	r := &testRig{
		probe:      &fakeProbe{temp: 24.5},
		tds:        &fakeAnalog{raw: 2048},
		level:      &fakeLevel{high: true},
		modeButton: &fakeButton{},
		feedButton: &fakeButton{},
		servo:      &fakeServo{},
		display:    &fakeDisplay{},
		diag:       &fakeDiagnostics{},
	}
	r.loop = New(cfg, Hardware{
		Probe:      r.probe,
		TDS:        r.tds,
		Level:      r.level,
		ModeButton: r.modeButton,
		FeedButton: r.feedButton,
		Servo:      r.servo,
	}, r.display, r.diag, t0)

	return r
}

// feedings counts completed dispenses. The first angle is the park at startup
func (r *testRig) feedings() int {
	return (len(r.servo.angles) - 1) / 2
}

func TestNewParksServo(t *testing.T) {
	r := newTestRig()
	if len(r.servo.angles) != 1 || r.servo.angles[0] != 90 {
		t.Errorf("expected servo parked at 90, got %v", r.servo.angles)
	}
	if r.loop.Mode() != smartaqua.ModeAutomatic {
		t.Errorf("expected automatic mode, got %s", r.loop.Mode())
	}
	if !r.loop.LastFeeding().Equal(t0) {
		t.Errorf("expected last feeding at start, got %v", r.loop.LastFeeding())
	}
}

func TestModeToggle(t *testing.T) {
	for n := 1; n <= 4; n++ {
		r := newTestRig()
		r.modeButton.pressed = true
		for i := range n {
			r.loop.Tick(t0.Add(time.Duration(i) * time.Second))
		}

		expected := smartaqua.ModeAutomatic
		if n%2 == 1 {
			expected = smartaqua.ModeManual
		}
		if r.loop.Mode() != expected {
			t.Errorf("after %d pressed ticks expected=%s, got=%s", n, expected, r.loop.Mode())
		}
	}
}

func TestAutomaticFeeding(t *testing.T) {
	r := newTestRig()

	r.loop.Tick(t0.Add(7199 * time.Second))
	if r.feedings() != 0 {
		t.Fatalf("expected no feeding before the interval, got %d", r.feedings())
	}
	if r.display.last()[rowTimer] != "timer: 00:00:01" {
		t.Errorf("expected countdown 00:00:01, got %q", r.display.last()[rowTimer])
	}
	if r.loop.Report().Countdown != "00:00:01" {
		t.Errorf("expected report countdown 00:00:01, got %q", r.loop.Report().Countdown)
	}

	now := t0.Add(7200 * time.Second)
	r.loop.Tick(now)
	if r.feedings() != 1 {
		t.Fatalf("expected one feeding at the interval, got %d", r.feedings())
	}
	if !r.loop.LastFeeding().Equal(now) {
		t.Errorf("expected last feeding %v, got %v", now, r.loop.LastFeeding())
	}
	if r.diag.count("feed source=timer") != 1 {
		t.Errorf("expected timer feed event, got %v", r.diag.lines)
	}
	if r.display.last()[rowTimer] != "timer: 02:00:00" {
		t.Errorf("expected countdown restarted, got %q", r.display.last()[rowTimer])
	}

	// no second feeding right after
	r.loop.Tick(now.Add(time.Second))
	if r.feedings() != 1 {
		t.Errorf("expected one feeding, got %d", r.feedings())
	}
}

func TestManualModeSuppressesTimer(t *testing.T) {
	r := newTestRig()

	r.modeButton.pressed = true
	r.loop.Tick(t0.Add(time.Second))
	r.modeButton.pressed = false
	if r.loop.Mode() != smartaqua.ModeManual {
		t.Fatalf("expected manual mode, got %s", r.loop.Mode())
	}

	r.loop.Tick(t0.Add(3 * time.Hour))
	if r.feedings() != 0 {
		t.Errorf("expected no feeding in manual mode, got %d", r.feedings())
	}
	if _, ok := r.display.last()[rowTimer]; ok {
		t.Error("expected no timer row in manual mode")
	}
	if r.loop.Report().Countdown != "" {
		t.Errorf("expected no countdown in manual mode, got %q", r.loop.Report().Countdown)
	}
}

func TestFeedButton(t *testing.T) {
	for _, mode := range []smartaqua.OperatingMode{smartaqua.ModeAutomatic, smartaqua.ModeManual} {
		t.Run(mode.String(), func(t *testing.T) {
			r := newTestRig()
			if mode == smartaqua.ModeManual {
				r.modeButton.pressed = true
				r.loop.Tick(t0)
				r.modeButton.pressed = false
			}

			now := t0.Add(10 * time.Second)
			r.feedButton.pressed = true
			r.loop.Tick(now)

			if r.feedings() != 1 {
				t.Errorf("expected one feeding, got %d", r.feedings())
			}
			if !r.loop.LastFeeding().Equal(now) {
				t.Errorf("expected last feeding %v, got %v", now, r.loop.LastFeeding())
			}
			if r.diag.count("feed source=button") != 1 {
				t.Errorf("expected button feed event, got %v", r.diag.lines)
			}
		})
	}
}

func TestFeedButtonWithElapsedTimerFeedsOnce(t *testing.T) {
	r := newTestRig()
	r.feedButton.pressed = true
	r.loop.Tick(t0.Add(3 * time.Hour))

	if r.feedings() != 1 {
		t.Errorf("expected one feeding, got %d", r.feedings())
	}
	if r.diag.count("feed source=timer") != 0 {
		t.Error("expected the button to take precedence over the timer")
	}
}

func TestStepSequenceDuringFeeding(t *testing.T) {
	r := newTestRig()
	r.feedButton.pressed = true
	r.loop.Tick(t0.Add(time.Second))

	var steps []string
	for _, f := range r.display.frames {
		steps = append(steps, f[rowStep])
	}

	expected := []string{"step 1", "step 2", "step 3", "step 4", "step 5", "step 5-1", "step 5-2", "step 5-2"}
	if strings.Join(steps, ",") != strings.Join(expected, ",") {
		t.Errorf("expected=%v, got=%v", expected, steps)
	}

	var motor []string
	for _, f := range r.display.frames {
		motor = append(motor, f[rowMotor])
	}
	if motor[5] != "motor: on" || motor[6] != "motor: off" {
		t.Errorf("unexpected motor states: %v", motor)
	}
}

func TestStatusRows(t *testing.T) {
	r := newTestRig()
	r.tds.raw = 0
	r.level.high = false
	r.loop.Tick(t0.Add(time.Second))

	expected := map[int]string{
		rowTitle:       "* SmartAqua *",
		rowStep:        "step 4",
		rowMode:        "mode: automatic",
		rowTemperature: "temp:  24",
		rowTDS:         "tds:  --",
		rowLevel:       "level: shortage",
		rowMotor:       "motor: off",
		rowTimer:       "timer: 01:59:59",
	}

	last := r.display.last()
	for row, text := range expected {
		if last[row] != text {
			t.Errorf("row %d: expected=%q, got=%q", row, text, last[row])
		}
	}
}

func TestTDSFault(t *testing.T) {
	r := newTestRig()
	r.tds.raw = 0
	r.loop.Tick(t0.Add(time.Second))

	if r.loop.Readings().WaterQuality.Valid() {
		t.Error("expected invalid water quality")
	}
	if r.diag.count("fault sensor=tds") != 1 {
		t.Errorf("expected tds fault, got %v", r.diag.lines)
	}
	if !strings.Contains(r.diag.lines[len(r.diag.lines)-1], "tds=-") {
		t.Errorf("expected invalid tds in report, got %v", r.diag.lines)
	}

	// faults are not sticky
	r.tds.raw = 2048
	r.loop.Tick(t0.Add(10 * time.Second))
	if !r.loop.Readings().WaterQuality.Valid() {
		t.Error("expected water quality to recover")
	}
}

func TestDiagnosticRateLimit(t *testing.T) {
	r := newTestRig()

	for _, s := range []int{1, 2, 5, 6, 7, 11, 12} {
		r.loop.Tick(t0.Add(time.Duration(s) * time.Second))
	}

	// reports at 1, 6, 11
	if n := r.diag.count("status "); n != 3 {
		t.Errorf("expected 3 reports, got %d: %v", n, r.diag.lines)
	}

	line, err := smartaqua.ParseLine(r.diag.lines[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line.Report.Temperature != 24.5 || line.Report.Level != smartaqua.LevelEnough {
		t.Errorf("unexpected report: %+v", line.Report)
	}
}

func TestSerialCommands(t *testing.T) {
	r := newTestRig()
	serial := &bytes.Buffer{}
	r.loop.AttachSerial(serial)

	serial.WriteString("M\n")
	r.loop.Tick(t0.Add(time.Second))
	if r.loop.Mode() != smartaqua.ModeManual {
		t.Errorf("expected manual mode, got %s", r.loop.Mode())
	}

	serial.WriteString("F\n")
	r.loop.Tick(t0.Add(2 * time.Second))
	if r.feedings() != 1 {
		t.Errorf("expected one feeding, got %d", r.feedings())
	}
	if r.diag.count("feed source=serial") != 1 {
		t.Errorf("expected serial feed event, got %v", r.diag.lines)
	}

	// request is consumed
	r.loop.Tick(t0.Add(3 * time.Second))
	if r.feedings() != 1 {
		t.Errorf("expected one feeding, got %d", r.feedings())
	}

	before := len(r.diag.lines)
	serial.WriteString("D")
	r.loop.Tick(t0.Add(4 * time.Second))
	if r.diag.count("status ") < 2 || len(r.diag.lines) == before {
		t.Errorf("expected debug report, got %v", r.diag.lines)
	}
}

func TestResetTimer(t *testing.T) {
	r := newTestRig()
	serial := &bytes.Buffer{}
	r.loop.AttachSerial(serial)

	r.loop.Tick(t0.Add(time.Hour))
	serial.WriteString("R")
	r.loop.Tick(t0.Add(2*time.Hour - time.Second))

	if !r.loop.LastFeeding().Equal(t0.Add(2*time.Hour - time.Second)) {
		t.Errorf("expected timer reset, got %v", r.loop.LastFeeding())
	}

	r.loop.Tick(t0.Add(2 * time.Hour))
	if r.feedings() != 0 {
		t.Errorf("expected no feeding after reset, got %d", r.feedings())
	}
}

func TestDisplayValue(t *testing.T) {
	tests := []struct {
		name     string
		in       sensor.Reading
		expected string
	}{
		{"Whole", sensor.NewReading(24), " 24"},
		{"Truncated", sensor.NewReading(438.95), "438"},
		{"Wide", sensor.NewReading(1314.5), "1314"},
		{"Invalid", sensor.Invalid, " --"},
		{"NaN", sensor.NewReading(math.NaN()), " --"},
		{"Inf", sensor.NewReading(math.Inf(1)), " --"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := displayValue(tt.in)
			if out != tt.expected {
				t.Errorf("expected=%q, got=%q", tt.expected, out)
			}
		})
	}
}
