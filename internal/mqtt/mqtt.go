// Package mqtt forwards tracker events from the event bus to an MQTT
// broker. The broker link is optional; publish failures are logged and the
// event is dropped.
package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"spawnbot/internal/eventbus"
	"spawnbot/pkg/logx"
)

const DefaultTopic = "spawnbot/events"

// Publisher publishes raw payloads. ClientPublisher is the broker-backed
// implementation.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	Close() error
}

// Payload is the JSON body of one forwarded event.
type Payload struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
}

func FormatPayload(e eventbus.Event) ([]byte, error) {
	return json.Marshal(Payload{
		Type:      e.Type,
		Timestamp: e.Time.UTC().Format(time.RFC3339),
		Data:      e.Data,
	})
}

// TopicFor maps "spawn.reset" under base "spawnbot/events" to
// "spawnbot/events/reset".
func TopicFor(base, eventType string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		base = DefaultTopic
	}
	suffix := strings.TrimPrefix(eventType, "spawn.")
	suffix = strings.ReplaceAll(suffix, ".", "/")
	if suffix == "" {
		return base
	}
	return base + "/" + suffix
}

// Bridge drains an event subscription into a Publisher.
type Bridge struct {
	pub   Publisher
	topic string
	qos   byte
	log   logx.Logger
}

func NewBridge(pub Publisher, topic string, qos byte, log logx.Logger) *Bridge {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Bridge{pub: pub, topic: topic, qos: qos, log: log.With(logx.String("comp", "mqtt"))}
}

// Run forwards events until ctx is done or the channel closes.
func (b *Bridge) Run(ctx context.Context, events <-chan eventbus.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			b.forward(e)
		}
	}
}

func (b *Bridge) forward(e eventbus.Event) {
	payload, err := FormatPayload(e)
	if err != nil {
		b.log.Warn("event not encodable", logx.String("type", e.Type), logx.Err(err))
		return
	}
	topic := TopicFor(b.topic, e.Type)
	if err := b.pub.Publish(topic, b.qos, false, payload); err != nil {
		b.log.Warn("mqtt publish failed", logx.String("topic", topic), logx.Err(err))
		return
	}
	b.log.Debug("event published", logx.String("topic", topic))
}
