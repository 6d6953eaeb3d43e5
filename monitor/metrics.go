package monitor

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/calvinmclean/smartaqua"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const metricsNamespace = "smartaqua"

// Metrics exports the latest report and event counts as Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	temperature prometheus.Gauge
	tds         prometheus.Gauge
	level       prometheus.Gauge
	mode        prometheus.Gauge
	countdown   prometheus.Gauge
	valid       *prometheus.GaugeVec
	lastReport  prometheus.Gauge

	feedings *prometheus.CounterVec
	faults   *prometheus.CounterVec
}

var _ Sink = &Metrics{}

// NewMetrics creates Metrics on a new registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "temperature_celsius",
			Help:      "Last valid water temperature.",
		}),
		tds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "tds_ppm",
			Help:      "Last valid total dissolved solids estimate.",
		}),
		level: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "water_level_enough",
			Help:      "1 when the water level is enough, 0 on shortage.",
		}),
		mode: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "mode_automatic",
			Help:      "1 in automatic mode, 0 in manual mode.",
		}),
		countdown: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "feed_countdown_seconds",
			Help:      "Seconds until the next automatic feeding. 0 in manual mode.",
		}),
		valid: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "sensor_valid",
			Help:      "1 when the sensor's last reading was valid.",
		}, []string{"sensor"}),
		lastReport: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_report_timestamp_seconds",
			Help:      "Unix time of the last status report.",
		}),
		feedings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "feedings_total",
			Help:      "Feedings by trigger source.",
		}, []string{"source"}),
		faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sensor_faults_total",
			Help:      "Sensor faults by sensor.",
		}, []string{"sensor"}),
	}

	m.registry.MustRegister(
		m.temperature,
		m.tds,
		m.level,
		m.mode,
		m.countdown,
		m.valid,
		m.lastReport,
		m.feedings,
		m.faults,
	)

	return m
}

// Report implements Sink. Invalid readings leave the value gauges at their last valid value and only
// clear sensor_valid
func (m *Metrics) Report(now time.Time, r smartaqua.Report) error {
	if r.TemperatureValid {
		m.temperature.Set(r.Temperature)
	}
	m.valid.WithLabelValues(smartaqua.SensorTemperature).Set(boolToFloat(r.TemperatureValid))

	if r.TDSValid {
		m.tds.Set(r.TDS)
	}
	m.valid.WithLabelValues(smartaqua.SensorTDS).Set(boolToFloat(r.TDSValid))

	m.level.Set(boolToFloat(r.Level == smartaqua.LevelEnough))
	m.mode.Set(boolToFloat(r.Mode == smartaqua.ModeAutomatic))

	// Manual mode has no countdown
	var countdown time.Duration
	if r.Countdown != "" {
		var err error
		countdown, err = ParseCountdown(r.Countdown)
		if err != nil {
			return err
		}
	}
	m.countdown.Set(countdown.Seconds())

	m.lastReport.Set(float64(now.Unix()))
	return nil
}

// Feed implements Sink
func (m *Metrics) Feed(_ time.Time, source smartaqua.FeedSource) error {
	m.feedings.WithLabelValues(source.String()).Inc()
	return nil
}

// Fault implements Sink
func (m *Metrics) Fault(_ time.Time, sensor, _ string) error {
	m.faults.WithLabelValues(sensor).Inc()
	return nil
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts an HTTP server for /metrics on addr. Close the returned server to stop it
func (m *Metrics) Serve(addr string) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("error listening on %q: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		err := server.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server stopped")
		}
	}()

	log.WithField("addr", ln.Addr().String()).Info("serving metrics")
	return server, nil
}

// ParseCountdown parses the HH:MM:SS countdown from a report. Hours may exceed 23
func ParseCountdown(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid countdown %q", s)
	}

	var total int
	for i, unit := range []int{3600, 60, 1} {
		n, err := strconv.Atoi(parts[i])
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid countdown %q", s)
		}
		total += n * unit
	}

	return time.Duration(total) * time.Second, nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
