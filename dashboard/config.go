package main

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Notification styles
const (
	NotifyBanner = "banner"
	NotifyModal  = "modal"
)

// Config holds the dashboard configuration
type Config struct {
	AgentURL       string        `yaml:"agent_url"`
	Locale         string        `yaml:"locale"`
	Language       string        `yaml:"language"`
	Notifications  string        `yaml:"notifications"`
	ClockInterval  time.Duration `yaml:"clock_interval"`
	StatusInterval time.Duration `yaml:"status_interval"`
	LogFile        string        `yaml:"log_file"`
}

// DefaultConfig returns the dashboard defaults
func DefaultConfig() *Config {
	return &Config{
		AgentURL:       "http://localhost:5000",
		Locale:         "ru_RU",
		Language:       "ru",
		Notifications:  NotifyBanner,
		ClockInterval:  time.Second,
		StatusInterval: 10 * time.Second,
		LogFile:        "dashboard.log",
	}
}

// LoadConfig reads filename on top of the defaults. A missing file is not an error.
func LoadConfig(filename string) (*Config, error) {
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

	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	u, err := url.Parse(c.AgentURL)
	if err != nil {
		return fmt.Errorf("invalid agent_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("agent_url must be an http(s) URL, got %q", c.AgentURL)
	}

	if c.Notifications != NotifyBanner && c.Notifications != NotifyModal {
		return fmt.Errorf("notifications must be %q or %q, got %q", NotifyBanner, NotifyModal, c.Notifications)
	}

	if _, ok := catalogs[c.Language]; !ok {
		return fmt.Errorf("unsupported language %q", c.Language)
	}

	if c.ClockInterval <= 0 {
		return fmt.Errorf("clock_interval must be > 0")
	}
	if c.StatusInterval <= 0 {
		return fmt.Errorf("status_interval must be > 0")
	}
	return nil
}
