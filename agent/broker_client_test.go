package main

import (
	"net"
	"strings"
	"testing"
)

func TestBrokerUsername(t *testing.T) {
	tests := []struct {
		vhost string
		want  string
	}{
		{vhost: "", want: "guest"},
		{vhost: "/", want: "guest"},
		{vhost: "/win_logs", want: "win_logs:guest"},
		{vhost: "logs", want: "logs:guest"},
	}
	for _, tt := range tests {
		got := brokerUsername(RabbitMQConfig{VHost: tt.vhost, Username: "guest"})
		if got != tt.want {
			t.Errorf("vhost %q: got %q want %q", tt.vhost, got, tt.want)
		}
	}
}

func TestRoutingKeyTopic(t *testing.T) {
	if got := routingKeyTopic("system.logs"); got != "system/logs" {
		t.Fatalf("got %q", got)
	}
}

func TestNewClientOptions(t *testing.T) {
	settings := DefaultConfig().RabbitMQ
	settings.VHost = "/win_logs"
	settings.UseTLS = true

	opts := newClientOptions(settings)
	if len(opts.Servers) != 1 || opts.Servers[0].String() != "ssl://localhost:1883" {
		t.Fatalf("unexpected servers %v", opts.Servers)
	}
	if opts.Username != "win_logs:guest" || opts.Password != "guest" {
		t.Fatalf("unexpected credentials %q/%q", opts.Username, opts.Password)
	}
	if opts.AutoReconnect {
		t.Fatalf("auto reconnect must be off")
	}
	if !strings.HasPrefix(opts.ClientID, "logagent_") {
		t.Fatalf("unexpected client id %q", opts.ClientID)
	}
}

func TestPublishWithoutConnection(t *testing.T) {
	bc := NewBrokerClient()
	if bc.IsConnected() {
		t.Fatalf("new client reports connected")
	}
	if err := bc.PublishLog(map[string]any{"id": 1}); err == nil {
		t.Fatalf("expected error publishing while disconnected")
	}
	bc.Disconnect()
}

func TestConnectRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	settings := DefaultConfig().RabbitMQ
	settings.Host = "127.0.0.1"
	settings.Port = port

	bc := NewBrokerClient()
	if err := bc.Connect(settings); err == nil {
		t.Fatalf("expected connect error on closed port")
	}
	if bc.IsConnected() {
		t.Fatalf("client reports connected after failure")
	}
}

func TestConnectRejectsInvalidSettings(t *testing.T) {
	bc := NewBrokerClient()
	if err := bc.Connect(RabbitMQConfig{Port: 1883, RoutingKey: "x"}); err == nil {
		t.Fatalf("expected validation error")
	}
}
