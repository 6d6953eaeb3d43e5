package smartaqua

import (
	"errors"
	"strconv"
	"strings"
)

// Diagnostic lines start with one of these words
const (
	prefixStatus = "status"
	prefixFeed   = "feed"
	prefixFault  = "fault"

	invalidValue = "-"
)

// Sensors that can report a fault
const (
	SensorTemperature = "temperature"
	SensorTDS         = "tds"
)

// ErrUnknownLine is returned by ParseLine for text that is not a diagnostic line, like a help listing
var ErrUnknownLine = errors.New("unknown line")

// Report is the condensed status written to the diagnostic channel
type Report struct {
	Mode             OperatingMode
	Temperature      float64
	TemperatureValid bool
	TDS              float64
	TDSValid         bool
	Level            WaterLevel
	// Countdown is only set in Automatic mode
	Countdown string
}

// LineKind identifies the type of a diagnostic line
type LineKind int

const (
	LineStatus LineKind = iota + 1
	LineFeed
	LineFault
)

// Line is a parsed diagnostic line. Only the fields for its Kind are set
type Line struct {
	Kind    LineKind
	Report  Report
	Source  FeedSource
	Sensor  string
	Message string
}

// FormatReport renders a status line like "status mode=automatic temp=24.0625 tds=438.95 level=enough timer=01:59:58".
// Values use the shortest form that parses back to the same float64
func FormatReport(r Report) string {
	s := prefixStatus + " mode=" + r.Mode.String()
	s += " temp=" + formatValue(r.Temperature, r.TemperatureValid)
	s += " tds=" + formatValue(r.TDS, r.TDSValid)
	s += " level=" + r.Level.String()
	if r.Countdown != "" {
		s += " timer=" + r.Countdown
	}
	return s
}

// FormatFeed renders a feed event line
func FormatFeed(source FeedSource) string {
	return prefixFeed + " source=" + source.String()
}

// FormatFault renders a sensor fault line. The message is always last so it can contain spaces
func FormatFault(sensor, msg string) string {
	return prefixFault + " sensor=" + sensor + " msg=" + msg
}

func formatValue(v float64, valid bool) string {
	if !valid {
		return invalidValue
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseLine parses a line written by FormatReport, FormatFeed, or FormatFault
func ParseLine(s string) (Line, error) {
	s = strings.TrimSpace(s)
	prefix, rest, _ := strings.Cut(s, " ")

	switch prefix {
	case prefixStatus:
		r, err := parseReport(parseFields(rest))
		if err != nil {
			return Line{}, err
		}
		return Line{Kind: LineStatus, Report: r}, nil
	case prefixFeed:
		source, err := parseFeedSource(parseFields(rest)["source"])
		if err != nil {
			return Line{}, err
		}
		return Line{Kind: LineFeed, Source: source}, nil
	case prefixFault:
		var msg string
		if i := strings.Index(rest, "msg="); i >= 0 {
			msg = rest[i+len("msg="):]
			rest = rest[:i]
		}
		sensor := parseFields(rest)["sensor"]
		if sensor == "" {
			return Line{}, errors.New("fault line missing sensor: " + s)
		}
		return Line{Kind: LineFault, Sensor: sensor, Message: msg}, nil
	default:
		return Line{}, ErrUnknownLine
	}
}

func parseReport(fields map[string]string) (Report, error) {
	var r Report
	switch fields["mode"] {
	case "automatic":
		r.Mode = ModeAutomatic
	case "manual":
		r.Mode = ModeManual
	default:
		return Report{}, errors.New("invalid mode: " + fields["mode"])
	}

	switch fields["level"] {
	case "enough":
		r.Level = LevelEnough
	case "shortage":
		r.Level = LevelShortage
	default:
		return Report{}, errors.New("invalid level: " + fields["level"])
	}

	var err error
	r.Temperature, r.TemperatureValid, err = parseValue(fields["temp"])
	if err != nil {
		return Report{}, errors.New("invalid temp: " + err.Error())
	}
	r.TDS, r.TDSValid, err = parseValue(fields["tds"])
	if err != nil {
		return Report{}, errors.New("invalid tds: " + err.Error())
	}

	r.Countdown = fields["timer"]
	return r, nil
}

func parseValue(s string) (float64, bool, error) {
	if s == invalidValue {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

func parseFeedSource(s string) (FeedSource, error) {
	switch s {
	case "button":
		return FeedSourceButton, nil
	case "serial":
		return FeedSourceSerial, nil
	case "timer":
		return FeedSourceTimer, nil
	default:
		return FeedSourceUnknown, errors.New("invalid feed source: " + s)
	}
}

func parseFields(s string) map[string]string {
	fields := map[string]string{}
	for _, f := range strings.Fields(s) {
		k, v, ok := strings.Cut(f, "=")
		if !ok {
			continue
		}
		fields[k] = v
	}
	return fields
}
