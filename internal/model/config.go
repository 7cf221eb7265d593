// Package model defines the configuration structures used to initialize the UART bridge.
// It covers the serial port parameters and the MQTT broker connection settings.
package model

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied for fields left empty in the configuration file.
const (
	DefaultDevice          = "/dev/ttyUSB0"
	DefaultBaudrate        = 115200
	DefaultAnswerTimeoutMs = 2000
	DefaultPollRate        = 1000

	DefaultBrokerURL        = "tcp://127.0.0.1:1883"
	DefaultClientID         = "uart_bridge"
	DefaultConnectTimeoutMs = 5000
	DefaultKeepAliveS       = 30
)

// Config represents the root structure loaded from configs/config.yml.
type Config struct {
	Serial SerialConfig `yaml:"serial"`
	Broker BrokerConfig `yaml:"broker"`
}

// SerialConfig defines the serial port and the bridge behavior bound to it.
type SerialConfig struct {
	Device          string `yaml:"device"`            // device path (e.g. /dev/ttyUSB0)
	Baudrate        int    `yaml:"baudrate"`          // port speed (e.g. 115200)
	PublishTopic    string `yaml:"publish_topic"`     // topic for lines read from the port
	ServiceTopic    string `yaml:"service_topic"`     // topic accepting write requests
	AnswerTimeoutMs int    `yaml:"answer_timeout_ms"` // how long a request waits for a reply line
	PollRate        *int   `yaml:"poll_rate"`         // poll ticks per second; pointer so an explicit 0 is rejected instead of defaulted
}

// BrokerConfig defines how the bridge connects to the MQTT broker.
type BrokerConfig struct {
	URL              string `yaml:"url"`
	ClientID         string `yaml:"client_id"`
	Username         string `yaml:"username"`
	Password         string `yaml:"password"`
	QoS              int    `yaml:"qos"`
	ConnectTimeoutMs int    `yaml:"connect_timeout_ms"`
	KeepAliveS       int    `yaml:"keepalive_s"`
}

// Load reads the YAML configuration at path, applies defaults and validates it.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills empty fields with their defaults. Topic names left empty
// are derived from the device path (<device>_in and <device>_service).
func (c *Config) ApplyDefaults() {
	if c.Serial.Device == "" {
		c.Serial.Device = DefaultDevice
	}
	if c.Serial.Baudrate == 0 {
		c.Serial.Baudrate = DefaultBaudrate
	}
	if c.Serial.PublishTopic == "" {
		c.Serial.PublishTopic = c.Serial.Device + "_in"
	}
	if c.Serial.ServiceTopic == "" {
		c.Serial.ServiceTopic = c.Serial.Device + "_service"
	}
	if c.Serial.AnswerTimeoutMs == 0 {
		c.Serial.AnswerTimeoutMs = DefaultAnswerTimeoutMs
	}
	if c.Serial.PollRate == nil {
		rate := DefaultPollRate
		c.Serial.PollRate = &rate
	}

	if c.Broker.URL == "" {
		c.Broker.URL = DefaultBrokerURL
	}
	if c.Broker.ClientID == "" {
		c.Broker.ClientID = DefaultClientID
	}
	if c.Broker.ConnectTimeoutMs == 0 {
		c.Broker.ConnectTimeoutMs = DefaultConnectTimeoutMs
	}
	if c.Broker.KeepAliveS == 0 {
		c.Broker.KeepAliveS = DefaultKeepAliveS
	}
}

// Validate rejects configurations that cannot produce a working bridge.
// It must pass before the serial port is opened or any timer is derived.
func (c *Config) Validate() error {
	if c.Serial.Device == "" {
		return fmt.Errorf("serial: device must not be empty")
	}
	if c.Serial.Baudrate <= 0 {
		return fmt.Errorf("serial: baudrate %d must be positive", c.Serial.Baudrate)
	}
	if c.Serial.PollRate == nil || *c.Serial.PollRate <= 0 {
		return fmt.Errorf("serial: poll_rate must be positive")
	}
	if c.Serial.AnswerTimeoutMs < 0 {
		return fmt.Errorf("serial: answer_timeout_ms %d must not be negative", c.Serial.AnswerTimeoutMs)
	}
	if c.Broker.QoS < 0 || c.Broker.QoS > 2 {
		return fmt.Errorf("broker: qos %d must be 0, 1 or 2", c.Broker.QoS)
	}
	return nil
}

// PollPeriod returns the poller tick interval derived from the poll rate.
func (s SerialConfig) PollPeriod() time.Duration {
	return time.Second / time.Duration(*s.PollRate)
}

// AnswerTimeout returns the request reply window as a duration.
func (s SerialConfig) AnswerTimeout() time.Duration {
	return time.Duration(s.AnswerTimeoutMs) * time.Millisecond
}
