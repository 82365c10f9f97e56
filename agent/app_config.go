package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig represents the agent configuration
type AppConfig struct {
	Web       WebConfig       `yaml:"web"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	Logging   LoggingConfig   `yaml:"logging"`
	Collector CollectorConfig `yaml:"collector"`
}

// WebConfig holds the HTTP API settings
type WebConfig struct {
	Port int `yaml:"port"`
}

// RabbitMQConfig holds broker settings. The agent talks to RabbitMQ through
// its MQTT plugin, so Port is the MQTT listener (1883 by default).
type RabbitMQConfig struct {
	Host        string `yaml:"host" json:"host"`
	Port        int    `yaml:"port" json:"port"`
	VHost       string `yaml:"vhost" json:"vhost"`
	Username    string `yaml:"username" json:"username"`
	Password    string `yaml:"password" json:"-"`
	RoutingKey  string `yaml:"routing_key" json:"routing_key"`
	UseTLS      bool   `yaml:"use_tls" json:"use_tls"`
	QoS         byte   `yaml:"qos" json:"qos"`
	AutoConnect bool   `yaml:"auto_connect" json:"auto_connect"`
}

// LoggingConfig holds agent log settings
type LoggingConfig struct {
	MaxEntries int `yaml:"max_entries"`
}

// Collector event sources
const (
	SourceSimulated = "simulated"
	SourceFile      = "file"
)

// CollectorConfig holds system journal collection settings
type CollectorConfig struct {
	Source           string        `yaml:"source"`
	EventsDir        string        `yaml:"events_dir"`
	LogTypes         []string      `yaml:"log_types"`
	HoursBack        int           `yaml:"hours_back"`
	EventsPerJournal int           `yaml:"events_per_journal"`
	Interval         time.Duration `yaml:"interval"`
}

// DefaultConfig returns the settings used when no config file exists
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Web: WebConfig{Port: 5000},
		RabbitMQ: RabbitMQConfig{
			Host:       "localhost",
			Port:       1883,
			VHost:      "/",
			Username:   "guest",
			Password:   "guest",
			RoutingKey: "system.logs",
			QoS:        1,
		},
		Logging: LoggingConfig{MaxEntries: 1000},
		Collector: CollectorConfig{
			Source:           SourceSimulated,
			LogTypes:         []string{"System", "Application", "Security"},
			HoursBack:        1,
			EventsPerJournal: 15,
			Interval:         100 * time.Millisecond,
		},
	}
}

// LoadConfig loads configuration from a YAML file on top of the defaults.
// A missing file is not an error.
func LoadConfig(filename string) (*AppConfig, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate checks if the configuration is valid
func (c *AppConfig) Validate() error {
	if c.Web.Port <= 0 || c.Web.Port > 65535 {
		return fmt.Errorf("web port %d out of range", c.Web.Port)
	}
	if err := c.RabbitMQ.Validate(); err != nil {
		return err
	}
	if c.Logging.MaxEntries <= 0 {
		return fmt.Errorf("logging max_entries must be positive")
	}
	return c.Collector.Validate()
}

// Validate checks the collector settings
func (c *CollectorConfig) Validate() error {
	switch c.Source {
	case SourceSimulated:
		if c.EventsPerJournal <= 0 {
			return fmt.Errorf("collector events_per_journal must be positive")
		}
	case SourceFile:
		if c.EventsDir == "" {
			return fmt.Errorf("collector events_dir is required for the file source")
		}
	default:
		return fmt.Errorf("unknown collector source %q (want %s or %s)", c.Source, SourceSimulated, SourceFile)
	}
	if len(c.LogTypes) == 0 {
		return fmt.Errorf("collector log_types must not be empty")
	}
	if c.HoursBack <= 0 {
		return fmt.Errorf("collector hours_back must be positive")
	}
	if c.Interval < 0 {
		return fmt.Errorf("collector interval must not be negative")
	}
	return nil
}

// NewEventSource builds the configured event source
func (c *CollectorConfig) NewEventSource() EventSource {
	if c.Source == SourceFile {
		return NewFileSource(c.EventsDir)
	}
	return NewSimulatedSource(c.EventsPerJournal, time.Now().UnixNano())
}

// Validate checks the broker settings
func (r *RabbitMQConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("RabbitMQ host is required")
	}
	if r.Port <= 0 || r.Port > 65535 {
		return fmt.Errorf("RabbitMQ port %d out of range", r.Port)
	}
	if r.RoutingKey == "" {
		return fmt.Errorf("RabbitMQ routing key is required")
	}
	if r.QoS > 2 {
		return fmt.Errorf("RabbitMQ qos must be 0, 1 or 2")
	}
	return nil
}
