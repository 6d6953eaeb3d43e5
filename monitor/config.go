package monitor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the monitor's configuration. It is loaded from a TOML file and then overridden by AQUAMON_*
// environment variables
type Config struct {
	SerialPort string `toml:"serial_port"`
	BaudRate   int    `toml:"baud_rate"`

	// MetricsAddr is where /metrics is served. Empty disables it
	MetricsAddr string `toml:"metrics_addr"`
	// HistoryPath is the bbolt file for stored events. Empty disables history
	HistoryPath string `toml:"history_path"`

	MQTT MQTTConfig `toml:"mqtt"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// MQTTConfig configures publishing to a broker. An empty Broker disables it
type MQTTConfig struct {
	Broker         string        `toml:"broker"`
	ClientID       string        `toml:"client_id"`
	Username       string        `toml:"username"`
	Password       string        `toml:"password"`
	TopicPrefix    string        `toml:"topic_prefix"`
	ConnectTimeout time.Duration `toml:"connect_timeout"`
}

// DefaultConfig returns the values used for anything not set in the file or environment
func DefaultConfig() Config {
	return Config{
		BaudRate:  115200,
		LogLevel:  "info",
		LogFormat: "text",
		MQTT: MQTTConfig{
			ClientID:       "aquamon",
			TopicPrefix:    "smartaqua",
			ConnectTimeout: 5 * time.Second,
		},
	}
}

// LoadConfig reads path on top of DefaultConfig and then applies the environment. A missing file is not
// an error so the monitor can run from the environment alone
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		_, err := toml.DecodeFile(path, &cfg)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("error loading config %q: %w", path, err)
		}
	}

	err := cfg.applyEnv(os.LookupEnv)
	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"AQUAMON_SERIAL_PORT":  &c.SerialPort,
		"AQUAMON_METRICS_ADDR": &c.MetricsAddr,
		"AQUAMON_HISTORY_PATH": &c.HistoryPath,
		"AQUAMON_MQTT_BROKER":  &c.MQTT.Broker,
		"AQUAMON_MQTT_USER":    &c.MQTT.Username,
		"AQUAMON_MQTT_PASS":    &c.MQTT.Password,
		"AQUAMON_LOG_LEVEL":    &c.LogLevel,
		"AQUAMON_LOG_FORMAT":   &c.LogFormat,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	if v, ok := lookup("AQUAMON_BAUD_RATE"); ok {
		baud, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid AQUAMON_BAUD_RATE %q: %w", v, err)
		}
		c.BaudRate = baud
	}

	return nil
}
