package smartaqua

// OperatingMode decides whether the feeder runs on its timer or only on request
type OperatingMode int

const (
	ModeAutomatic OperatingMode = iota
	ModeManual
)

func (m OperatingMode) String() string {
	switch m {
	case ModeManual:
		return "manual"
	default:
		fallthrough
	case ModeAutomatic:
		return "automatic"
	}
}

// Toggle flips between Automatic and Manual
func (m OperatingMode) Toggle() OperatingMode {
	if m == ModeAutomatic {
		return ModeManual
	}
	return ModeAutomatic
}

// WaterLevel is the reading of the float switch. There is no unknown level
type WaterLevel int

const (
	LevelShortage WaterLevel = iota
	LevelEnough
)

func (l WaterLevel) String() string {
	if l == LevelEnough {
		return "enough"
	}
	return "shortage"
}

// ActuatorState is the state of the feeder servo
type ActuatorState int

const (
	ActuatorIdle ActuatorState = iota
	ActuatorDispensing
)

func (s ActuatorState) String() string {
	if s == ActuatorDispensing {
		return "on"
	}
	return "off"
}

// Step tags the phase of the tick that the loop is currently in. It is only shown on the display
type Step int

const (
	StepIdle Step = iota
	StepSensingMode
	StepSensingTemperature
	StepSensingTDS
	StepSensingLevel
	StepFeeding
	StepActuatorOn
	StepActuatorOff
)

func (s Step) String() string {
	switch s {
	case StepSensingMode:
		return "step 1"
	case StepSensingTemperature:
		return "step 2"
	case StepSensingTDS:
		return "step 3"
	case StepSensingLevel:
		return "step 4"
	case StepFeeding:
		return "step 5"
	case StepActuatorOn:
		return "step 5-1"
	case StepActuatorOff:
		return "step 5-2"
	default:
		return "step 0"
	}
}

// FeedSource is what caused a feeding
type FeedSource int

const (
	FeedSourceUnknown FeedSource = iota
	FeedSourceButton
	FeedSourceSerial
	FeedSourceTimer
)

func (f FeedSource) String() string {
	switch f {
	case FeedSourceButton:
		return "button"
	case FeedSourceSerial:
		return "serial"
	case FeedSourceTimer:
		return "timer"
	default:
		return "unknown"
	}
}
