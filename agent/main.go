package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
)

const Version = "v1.0.0"

func main() {
	var (
		configFile = pflag.StringP("config", "c", "config.yaml", "Configuration file")
		webPort    = pflag.IntP("port", "p", 0, "API port (overrides web.port)")
		connect    = pflag.Bool("connect", false, "Connect to RabbitMQ on startup")
		version    = pflag.BoolP("version", "v", false, "Print version and exit")
	)

	pflag.Parse()

	if *version {
		fmt.Printf("logagent %s\n", Version)
		os.Exit(0)
	}

	appConfig, err := LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *webPort != 0 {
		appConfig.Web.Port = *webPort
	}
	if *connect {
		appConfig.RabbitMQ.AutoConnect = true
	}
	if err := appConfig.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Agent log lines go to stderr and to the in-memory ring served by the API
	logRing := NewLogRing(appConfig.Logging.MaxEntries)
	log.SetOutput(io.MultiWriter(os.Stderr, logRing))

	log.Printf("logagent %s - log collection agent", Version)
	log.Printf("RabbitMQ: %s:%d vhost %s, routing key %s",
		appConfig.RabbitMQ.Host, appConfig.RabbitMQ.Port, appConfig.RabbitMQ.VHost, appConfig.RabbitMQ.RoutingKey)

	broker := NewBrokerClient()
	defer broker.Disconnect()

	if appConfig.RabbitMQ.AutoConnect {
		if err := broker.Connect(appConfig.RabbitMQ); err != nil {
			log.Printf("MQTT: Initial connection failed: %v (connect from the dashboard)", err)
		}
	}

	collector := NewLogCollector(appConfig.Collector.NewEventSource(), appConfig.Collector.Interval)
	defer collector.Stop()

	webServer := NewWebServer(appConfig, broker, logRing, collector)
	go func() {
		if err := webServer.Start(); err != nil {
			log.Fatalf("Web server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	log.Printf("Received signal %v, shutting down...", sig)
}
