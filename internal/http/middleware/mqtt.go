package middleware

import (
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

const publishTimeout = 5 * time.Second

// CommandTopic is the topic a paired device subscribes to for updates.
func CommandTopic(deviceID string) string {
	return fmt.Sprintf("tv/%s/commands", deviceID)
}

// MQTT connection handler
var connectHandler mqtt.OnConnectHandler = func(client mqtt.Client) {
	log.Info().Msg("connected to mqtt broker")
}

// MQTT connection lost handler
var connectLostHandler mqtt.ConnectionLostHandler = func(client mqtt.Client, err error) {
	log.Warn().Err(err).Msg("mqtt connection lost")
}

// MQTTPublisher pushes commands to screens over a single server-side client.
// Devices subscribe to their own command topic directly on the broker.
type MQTTPublisher struct {
	mu     sync.Mutex
	client mqtt.Client
}

// CreateMQTTClient connects to the broker and returns a publisher.
func CreateMQTTClient(brokerURL, clientName string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientName)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	log.Info().Str("broker", brokerURL).Msg("mqtt client initialized")
	return NewMQTTPublisher(client), nil
}

func NewMQTTPublisher(client mqtt.Client) *MQTTPublisher {
	return &MQTTPublisher{client: client}
}

// Publish sends a message to a specific TV screen via MQTT
func (p *MQTTPublisher) Publish(deviceID string, message []byte) error {
	p.mu.Lock()
	client := p.client
	p.mu.Unlock()
	if client == nil || !client.IsConnectionOpen() {
		return fmt.Errorf("mqtt client not connected")
	}

	token := client.Publish(CommandTopic(deviceID), 1, false, message)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timed out sending message to TV device %s", deviceID)
	}
	if token.Error() != nil {
		return fmt.Errorf("failed to send message to TV device %s: %w", deviceID, token.Error())
	}

	log.Debug().Str("device_id", deviceID).Msg("message sent to tv device")
	return nil
}

// Close disconnects the server client.
func (p *MQTTPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		p.client.Disconnect(250)
		p.client = nil
		log.Info().Msg("mqtt client disconnected")
	}
}
