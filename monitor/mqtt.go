package monitor

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/calvinmclean/smartaqua"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

const (
	topicStatus = "status"
	topicFeed   = "feed"
	topicFault  = "fault"

	mqttQoS            = 1
	mqttPublishTimeout = 5 * time.Second
)

// publisher is the part of mqtt.Client used by MQTTPublisher
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTPublisher publishes diagnostic events as JSON to <prefix>/status, <prefix>/feed, and <prefix>/fault.
// Status messages are retained so new subscribers see the latest report
type MQTTPublisher struct {
	client publisher
	prefix string

	disconnect func()
}

var _ Sink = &MQTTPublisher{}

// StatusMessage is the payload published for a status report
type StatusMessage struct {
	Time        time.Time `json:"time"`
	Mode        string    `json:"mode"`
	Temperature *float64  `json:"temperature"`
	TDS         *float64  `json:"tds"`
	Level       string    `json:"level"`
	Countdown   string    `json:"countdown,omitempty"`
}

// FeedMessage is the payload published for a feeding
type FeedMessage struct {
	Time   time.Time `json:"time"`
	Source string    `json:"source"`
}

// FaultMessage is the payload published for a sensor fault
type FaultMessage struct {
	Time    time.Time `json:"time"`
	Sensor  string    `json:"sensor"`
	Message string    `json:"message"`
}

// NewMQTTPublisher connects to the broker in cfg
func NewMQTTPublisher(cfg MQTTConfig) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("lost MQTT connection")
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		return nil, fmt.Errorf("timed out connecting to MQTT broker %q", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("error connecting to MQTT broker %q: %w", cfg.Broker, err)
	}

	log.WithField("broker", cfg.Broker).Info("connected to MQTT broker")

	p := newMQTTPublisher(client, cfg.TopicPrefix)
	p.disconnect = func() { client.Disconnect(250) }
	return p, nil
}

func newMQTTPublisher(client publisher, prefix string) *MQTTPublisher {
	return &MQTTPublisher{
		client: client,
		prefix: prefix,
	}
}

// Report implements Sink
func (p *MQTTPublisher) Report(now time.Time, r smartaqua.Report) error {
	msg := StatusMessage{
		Time:      now,
		Mode:      r.Mode.String(),
		Level:     r.Level.String(),
		Countdown: r.Countdown,
	}
	if r.TemperatureValid {
		msg.Temperature = &r.Temperature
	}
	if r.TDSValid {
		msg.TDS = &r.TDS
	}

	return p.publish(topicStatus, true, msg)
}

// Feed implements Sink
func (p *MQTTPublisher) Feed(now time.Time, source smartaqua.FeedSource) error {
	return p.publish(topicFeed, false, FeedMessage{
		Time:   now,
		Source: source.String(),
	})
}

// Fault implements Sink
func (p *MQTTPublisher) Fault(now time.Time, sensor, msg string) error {
	return p.publish(topicFault, false, FaultMessage{
		Time:    now,
		Sensor:  sensor,
		Message: msg,
	})
}

// Close disconnects from the broker
func (p *MQTTPublisher) Close() error {
	if p.disconnect != nil {
		p.disconnect()
	}
	return nil
}

func (p *MQTTPublisher) topic(name string) string {
	if p.prefix == "" {
		return name
	}
	return p.prefix + "/" + name
}

func (p *MQTTPublisher) publish(name string, retained bool, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("error encoding %s message: %w", name, err)
	}

	topic := p.topic(name)
	token := p.client.Publish(topic, mqttQoS, retained, payload)
	if !token.WaitTimeout(mqttPublishTimeout) {
		return errors.New("timed out publishing to " + topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("error publishing to %q: %w", topic, err)
	}
	return nil
}
