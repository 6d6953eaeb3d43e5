package monitor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/calvinmclean/smartaqua"

	log "github.com/sirupsen/logrus"
)

// commandAliases lets the input use words instead of the firmware's single-byte flags
var commandAliases = map[string]string{
	"feed":    "F",
	"mode":    "M",
	"reset":   "R",
	"status":  "D",
	"verbose": "V",
	"help":    "H",
}

// Monitor bridges the device's serial console. Lines from the device are echoed and dispatched to the
// Sink, and input lines are forwarded to the device as commands
type Monitor struct {
	port io.ReadWriteCloser
	sink Sink
	now  func() time.Time

	closeOnce sync.Once
	closers   []io.Closer
}

// New creates a Monitor on an already opened port. A nil port runs without a device
func New(port io.ReadWriteCloser, sinks ...Sink) *Monitor {
	var sink Sink = noopSink{}
	if len(sinks) > 0 {
		sink = multiSink(sinks)
	}

	return &Monitor{
		port: port,
		sink: sink,
		now:  time.Now,
	}
}

// NewFromConfig opens the serial port and every sink enabled in cfg
func NewFromConfig(cfg Config) (*Monitor, error) {
	var port io.ReadWriteCloser
	if cfg.SerialPort != SerialPortNone {
		p, err := OpenSerial(cfg.SerialPort, cfg.BaudRate)
		if err != nil {
			return nil, err
		}
		port = p
	}

	var sinks []Sink
	var closers []io.Closer

	if cfg.MetricsAddr != "" {
		metrics := NewMetrics()
		server, err := metrics.Serve(cfg.MetricsAddr)
		if err != nil {
			closeAll(port, closers)
			return nil, err
		}
		sinks = append(sinks, metrics)
		closers = append(closers, server)
	}

	if cfg.HistoryPath != "" {
		history, err := OpenHistory(cfg.HistoryPath)
		if err != nil {
			closeAll(port, closers)
			return nil, err
		}
		sinks = append(sinks, history)
		closers = append(closers, history)
	}

	if cfg.MQTT.Broker != "" {
		publisher, err := NewMQTTPublisher(cfg.MQTT)
		if err != nil {
			closeAll(port, closers)
			return nil, err
		}
		sinks = append(sinks, publisher)
		closers = append(closers, publisher)
	}

	m := New(port, sinks...)
	m.closers = closers
	return m, nil
}

// Run forwards input to the device and reads its output until ctx is done or the port fails. Without a
// port, input lines are handled as device output and Run returns when input ends. When ctx is done, input
// is closed if it is an io.Closer so the forwarding goroutine stops; otherwise it stays blocked until input
// ends. The port reader stops when Close is called
func (m *Monitor) Run(ctx context.Context, input io.Reader, output io.Writer) error {
	errc := make(chan error, 2)

	if input != nil {
		go func() {
			// with a device attached, running out of input leaves the monitor reading the port
			err := m.forward(input)
			if err != nil || m.port == nil {
				errc <- err
			}
		}()
	}

	if m.port != nil {
		go func() {
			errc <- m.read(output)
		}()
	}

	select {
	case <-ctx.Done():
		if c, ok := input.(io.Closer); ok {
			c.Close()
		}
		return nil
	case err := <-errc:
		return err
	}
}

// Send writes a single command to the device
func (m *Monitor) Send(command string) error {
	if m.port == nil {
		return errors.New("no serial port")
	}

	command = strings.TrimSpace(command)
	if flag, ok := commandAliases[strings.ToLower(command)]; ok {
		command = flag
	}

	_, err := io.WriteString(m.port, command+"\n")
	if err != nil {
		return fmt.Errorf("error writing serial: %w", err)
	}
	return nil
}

// HandleLine parses a line from the device and sends it to the Sink. Lines that are not diagnostics, like
// the help listing, are ignored
func (m *Monitor) HandleLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	parsed, err := smartaqua.ParseLine(line)
	if errors.Is(err, smartaqua.ErrUnknownLine) {
		log.WithField("line", line).Debug("ignoring line")
		return
	}
	if err != nil {
		log.WithError(err).WithField("line", line).Warn("invalid diagnostic line")
		return
	}

	now := m.now()
	switch parsed.Kind {
	case smartaqua.LineStatus:
		r := parsed.Report
		log.WithFields(log.Fields{
			"mode":  r.Mode.String(),
			"temp":  r.Temperature,
			"tds":   r.TDS,
			"level": r.Level.String(),
			"timer": r.Countdown,
		}).Info("status")
		err = m.sink.Report(now, r)
	case smartaqua.LineFeed:
		log.WithField("source", parsed.Source.String()).Info("feeding")
		err = m.sink.Feed(now, parsed.Source)
	case smartaqua.LineFault:
		log.WithFields(log.Fields{
			"sensor": parsed.Sensor,
			"msg":    parsed.Message,
		}).Warn("sensor fault")
		err = m.sink.Fault(now, parsed.Sensor, parsed.Message)
	}

	if err != nil {
		log.WithError(err).Error("error handling line")
	}
}

// Close closes the serial port and every sink
func (m *Monitor) Close() error {
	var err error
	m.closeOnce.Do(func() {
		err = closeAll(m.port, m.closers)
	})
	return err
}

func (m *Monitor) forward(input io.Reader) error {
	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		if m.port == nil {
			m.HandleLine(line)
			continue
		}

		err := m.Send(line)
		if err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (m *Monitor) read(output io.Writer) error {
	scanner := bufio.NewScanner(m.port)
	for scanner.Scan() {
		line := scanner.Text()
		if output != nil {
			fmt.Fprintln(output, strings.TrimRight(line, "\r"))
		}
		m.HandleLine(line)
	}

	err := scanner.Err()
	if err != nil {
		return fmt.Errorf("error reading serial: %w", err)
	}
	return io.EOF
}

func closeAll(port io.Closer, closers []io.Closer) error {
	var errs []error
	if port != nil {
		errs = append(errs, port.Close())
	}
	for _, c := range closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
