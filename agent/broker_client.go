package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	brokerConnectTimeout = 5 * time.Second
	brokerPublishTimeout = 5 * time.Second
)

// Broker is what the web server needs from the broker connection
type Broker interface {
	Connect(settings RabbitMQConfig) error
	Disconnect()
	IsConnected() bool
	PublishLog(record map[string]any) error
}

// BrokerClient publishes agent log records to RabbitMQ through the MQTT plugin
type BrokerClient struct {
	mu       sync.RWMutex
	client   mqtt.Client
	settings RabbitMQConfig
}

// NewBrokerClient creates a disconnected broker client
func NewBrokerClient() *BrokerClient {
	return &BrokerClient{}
}

// generateClientID creates a random MQTT client ID
func generateClientID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "logagent_" + hex.EncodeToString(bytes)
}

func brokerURL(settings RabbitMQConfig) string {
	scheme := "tcp"
	if settings.UseTLS {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, settings.Host, settings.Port)
}

// brokerUsername prefixes the vhost the way the RabbitMQ MQTT plugin expects
func brokerUsername(settings RabbitMQConfig) string {
	if settings.VHost == "" || settings.VHost == "/" {
		return settings.Username
	}
	return strings.TrimPrefix(settings.VHost, "/") + ":" + settings.Username
}

// routingKeyTopic maps an AMQP routing key to the MQTT topic the plugin routes it from
func routingKeyTopic(routingKey string) string {
	return strings.ReplaceAll(routingKey, ".", "/")
}

func newClientOptions(settings RabbitMQConfig) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL(settings))
	opts.SetClientID(generateClientID())

	if username := brokerUsername(settings); username != "" {
		opts.SetUsername(username)
	}
	if settings.Password != "" {
		opts.SetPassword(settings.Password)
	}

	// Reconnects are user-driven from the dashboard
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectTimeout(brokerConnectTimeout)

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Println("MQTT: Connected to broker")
	})
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Printf("MQTT: ERROR connection lost: %v", err)
	})

	return opts
}

// Connect replaces any existing connection with a new one using settings
func (bc *BrokerClient) Connect(settings RabbitMQConfig) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	bc.Disconnect()

	client := mqtt.NewClient(newClientOptions(settings))
	log.Printf("MQTT: Connecting to RabbitMQ: %s vhost %s", brokerURL(settings), settings.VHost)

	token := client.Connect()
	if !token.WaitTimeout(brokerConnectTimeout + time.Second) {
		client.Disconnect(0)
		return fmt.Errorf("connection to %s timed out", brokerURL(settings))
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect to %s: %w", brokerURL(settings), err)
	}

	bc.mu.Lock()
	previous := bc.client
	bc.client = client
	bc.settings = settings
	bc.mu.Unlock()

	// A concurrent Connect may have won the race before us
	if previous != nil && previous.IsConnected() {
		previous.Disconnect(250)
	}

	log.Printf("MQTT: Successfully connected to %s", brokerURL(settings))
	return nil
}

// Disconnect closes the connection. Calling it while disconnected is a no-op.
func (bc *BrokerClient) Disconnect() {
	bc.mu.Lock()
	client := bc.client
	bc.client = nil
	bc.mu.Unlock()

	if client != nil && client.IsConnected() {
		client.Disconnect(250)
		log.Println("MQTT: Disconnected from broker")
	}
}

// IsConnected returns true if the MQTT client is connected
func (bc *BrokerClient) IsConnected() bool {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.client != nil && bc.client.IsConnected()
}

// PublishLog publishes one log record to the routing-key topic
func (bc *BrokerClient) PublishLog(record map[string]any) error {
	bc.mu.RLock()
	client := bc.client
	settings := bc.settings
	bc.mu.RUnlock()

	if client == nil || !client.IsConnected() {
		return fmt.Errorf("MQTT not connected")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal log record: %w", err)
	}

	topic := routingKeyTopic(settings.RoutingKey)
	token := client.Publish(topic, settings.QoS, false, data)
	if !token.WaitTimeout(brokerPublishTimeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}
