package mqtt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"spawnbot/pkg/logx"
)

// ClientConfig describes the broker connection.
type ClientConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	// Topic is the base topic; "<Topic>/status" carries the retained
	// online/offline marker.
	Topic string
}

// ClientPublisher publishes to a real broker through paho.
type ClientPublisher struct {
	client paho.Client
	status string
}

// Dial connects to the broker. paho keeps reconnecting in the background
// after a successful first connect.
func Dial(cfg ClientConfig, log logx.Logger) (*ClientPublisher, error) {
	if strings.TrimSpace(cfg.Broker) == "" {
		return nil, errors.New("mqtt: broker required")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "spawnbot"
	}
	status := TopicFor(cfg.Topic, "status")
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(status, "offline", 1, true).
		SetOnConnectHandler(func(c paho.Client) {
			c.Publish(status, 1, true, "online")
			log.Info("mqtt connected", logx.String("broker", cfg.Broker))
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warn("mqtt connection lost", logx.Err(err))
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		client.Disconnect(0)
		return nil, errors.New("mqtt: connection timeout")
	}
	if err := token.Error(); err != nil {
		client.Disconnect(0)
		return nil, fmt.Errorf("mqtt: connect to broker: %w", err)
	}
	return &ClientPublisher{client: client, status: status}, nil
}

func (p *ClientPublisher) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return errors.New("mqtt: publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: publish: %w", err)
	}
	return nil
}

// IsConnected reports the live connection state for health output.
func (p *ClientPublisher) IsConnected() bool { return p.client.IsConnectionOpen() }

// Close marks the bot offline and disconnects.
func (p *ClientPublisher) Close() error {
	if p.client.IsConnectionOpen() {
		p.client.Publish(p.status, 1, true, "offline").WaitTimeout(time.Second)
	}
	p.client.Disconnect(1000)
	return nil
}
