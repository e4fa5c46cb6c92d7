// Package publish sends barometer readings to an MQTT broker.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/mklimuk/barometer/environment"
)

// Message is the JSON document published for every reading.
type Message struct {
	Device      string    `json:"device"`
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature_c"`
	Pressure    float64   `json:"pressure_pa"`
}

type Config struct {
	Topic   string
	QoS     byte
	Retain  bool
	Timeout time.Duration
}

type Option func(*Config)

func WithQoS(qos byte) Option {
	return func(c *Config) {
		c.QoS = qos
	}
}

func WithRetain(retain bool) Option {
	return func(c *Config) {
		c.Retain = retain
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

type Publisher struct {
	client mqtt.Client
	config Config
}

func NewPublisher(client mqtt.Client, topic string, opts ...Option) *Publisher {
	config := Config{
		Topic:   topic,
		QoS:     1,
		Timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &Publisher{client: client, config: config}
}

// Connect dials the broker and returns a publisher on topic.
func Connect(broker, clientID, topic string, opts ...Option) (*Publisher, error) {
	copts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			slog.Warn("mqtt connection lost", "broker", broker, "error", err)
		}).
		SetOnConnectHandler(func(_ mqtt.Client) {
			slog.Debug("mqtt connected", "broker", broker)
		})
	client := mqtt.NewClient(copts)
	p := NewPublisher(client, topic, opts...)
	token := client.Connect()
	if err := p.wait(context.Background(), token); err != nil {
		return nil, fmt.Errorf("mqtt: could not connect to %s: %w", broker, err)
	}
	return p, nil
}

func (p *Publisher) Topic() string {
	return p.config.Topic
}

// Publish sends one reading and waits for the broker to acknowledge it.
func (p *Publisher) Publish(ctx context.Context, device string, r environment.Reading, at time.Time) error {
	payload, err := json.Marshal(Message{
		Device:      device,
		Timestamp:   at.UTC(),
		Temperature: r.Temperature,
		Pressure:    r.Pressure,
	})
	if err != nil {
		return fmt.Errorf("mqtt: could not encode reading: %w", err)
	}
	token := p.client.Publish(p.config.Topic, p.config.QoS, p.config.Retain, payload)
	if err := p.wait(ctx, token); err != nil {
		return fmt.Errorf("mqtt: failed to publish to %s: %w", p.config.Topic, err)
	}
	return nil
}

func (p *Publisher) wait(ctx context.Context, token mqtt.Token) error {
	timer := time.NewTimer(p.config.Timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return fmt.Errorf("timed out after %v", p.config.Timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
