package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"spawnbot/internal/eventbus"
	"spawnbot/pkg/logx"
)

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakePublisher struct {
	mu     sync.Mutex
	msgs   []published
	err    error
	closed bool
}

func (f *fakePublisher) Publish(topic string, qos byte, _ bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{topic: topic, qos: qos, payload: payload})
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

func (f *fakePublisher) snapshot() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.msgs...)
}

func TestTopicFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		base, typ, want string
	}{
		{"spawnbot/events", "spawn.reset", "spawnbot/events/reset"},
		{"spawnbot/events/", "spawn.notified", "spawnbot/events/notified"},
		{"", "spawn.cleared", "spawnbot/events/cleared"},
		{"guild/bosses", "status", "guild/bosses/status"},
		{"x", "a.b", "x/a/b"},
	}
	for _, tt := range tests {
		if got := TopicFor(tt.base, tt.typ); got != tt.want {
			t.Errorf("TopicFor(%q, %q) = %q, want %q", tt.base, tt.typ, got, tt.want)
		}
	}
}

func TestFormatPayload(t *testing.T) {
	t.Parallel()
	e := eventbus.Event{
		Type: "spawn.reset",
		Time: time.Date(2026, 3, 1, 12, 30, 0, 0, time.FixedZone("PHT", 8*3600)),
		Data: map[string]string{"entity_id": "venatus"},
	}
	b, err := FormatPayload(e)
	if err != nil {
		t.Fatalf("FormatPayload: %v", err)
	}
	var got struct {
		Type      string            `json:"type"`
		Timestamp string            `json:"timestamp"`
		Data      map[string]string `json:"data"`
	}
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Type != "spawn.reset" || got.Timestamp != "2026-03-01T04:30:00Z" || got.Data["entity_id"] != "venatus" {
		t.Fatalf("payload = %+v", got)
	}
}

func TestBridgeForwardsUntilClosed(t *testing.T) {
	t.Parallel()
	pub := &fakePublisher{}
	bus := eventbus.New()
	ch, unsubscribe := bus.Subscribe(8)
	br := NewBridge(pub, "spawnbot/events", 1, logx.Nop())

	done := make(chan error, 1)
	go func() { done <- br.Run(context.Background(), ch) }()

	bus.Publish(eventbus.Event{Type: "spawn.reset"})
	bus.Publish(eventbus.Event{Type: "spawn.notified"})

	deadline := time.Now().Add(2 * time.Second)
	for len(pub.snapshot()) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	unsubscribe()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}

	msgs := pub.snapshot()
	if len(msgs) != 2 {
		t.Fatalf("published %d messages, want 2", len(msgs))
	}
	if msgs[0].topic != "spawnbot/events/reset" || msgs[1].topic != "spawnbot/events/notified" {
		t.Fatalf("topics = %q, %q", msgs[0].topic, msgs[1].topic)
	}
	if msgs[0].qos != 1 {
		t.Fatalf("qos = %d, want 1", msgs[0].qos)
	}
}

func TestBridgeSurvivesPublishErrors(t *testing.T) {
	t.Parallel()
	pub := &fakePublisher{err: errors.New("broker down")}
	ch := make(chan eventbus.Event, 2)
	ch <- eventbus.Event{Type: "spawn.reset"}
	ch <- eventbus.Event{Type: "spawn.cleared"}
	close(ch)

	if err := NewBridge(pub, "", 0, logx.Nop()).Run(context.Background(), ch); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n := len(pub.snapshot()); n != 0 {
		t.Fatalf("published %d messages, want 0", n)
	}
}

func TestBridgeStopsOnCancel(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewBridge(&fakePublisher{}, "", 0, logx.Nop()).Run(ctx, make(chan eventbus.Event)); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
