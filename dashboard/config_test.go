package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig err=%v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if cfg.ClockInterval != time.Second || cfg.StatusInterval != 10*time.Second {
		t.Fatalf("unexpected intervals %v %v", cfg.ClockInterval, cfg.StatusInterval)
	}
	if cfg.Notifications != NotifyBanner || cfg.Locale != "ru_RU" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.yaml")
	body := "agent_url: http://agent:5000\nnotifications: modal\nlanguage: en\nstatus_interval: 30s\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig err=%v", err)
	}
	if cfg.AgentURL != "http://agent:5000" || cfg.Notifications != NotifyModal || cfg.Language != "en" {
		t.Fatalf("file not applied: %+v", cfg)
	}
	if cfg.StatusInterval != 30*time.Second || cfg.ClockInterval != time.Second {
		t.Fatalf("unexpected intervals %v %v", cfg.StatusInterval, cfg.ClockInterval)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{name: "bad scheme", mutate: func(c *Config) { c.AgentURL = "ftp://agent" }, want: "agent_url"},
		{name: "no host", mutate: func(c *Config) { c.AgentURL = "http://" }, want: "agent_url"},
		{name: "notification style", mutate: func(c *Config) { c.Notifications = "toast" }, want: "notifications"},
		{name: "language", mutate: func(c *Config) { c.Language = "de" }, want: "language"},
		{name: "clock interval", mutate: func(c *Config) { c.ClockInterval = 0 }, want: "clock_interval"},
		{name: "status interval", mutate: func(c *Config) { c.StatusInterval = -time.Second }, want: "status_interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err=%v, want mention of %q", err, tt.want)
			}
		})
	}
}
