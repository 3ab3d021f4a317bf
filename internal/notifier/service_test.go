package notifier

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"spawnbot/internal/tracker"
	kit "spawnbot/internal/transport"
	"spawnbot/pkg/logx"
)

type flakySender struct {
	mu       sync.Mutex
	failures int // fail this many calls first
	calls    int
	texts    []string
	to       []kit.ChatTarget
}

func (f *flakySender) SendText(_ context.Context, to kit.ChatTarget, text string, _ *kit.SendOptions) (kit.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return kit.MessageRef{}, errors.New("telegram: 502")
	}
	f.texts = append(f.texts, text)
	f.to = append(f.to, to)
	return kit.MessageRef{ChatID: to.ChatID, MessageID: f.calls}, nil
}

func (f *flakySender) EditText(context.Context, kit.MessageRef, string, *kit.SendOptions) error {
	return nil
}

func (f *flakySender) AnswerCallback(context.Context, string, string) error { return nil }

func testConfig() Config {
	return Config{
		Target:        kit.ChatTarget{ChatID: -100, ThreadID: 3},
		RatePerSec:    1000,
		RetryMax:      2,
		RetryBase:     time.Millisecond,
		RetryMaxDelay: 2 * time.Millisecond,
		SendTimeout:   time.Second,
	}
}

func testAlert() tracker.Alert {
	manila := time.FixedZone("PHT", 8*3600)
	return tracker.Alert{
		Entity: tracker.EntityDefinition{
			ID: "livera", Name: "Livera", Location: "Protector's Ruins",
			Kind: tracker.KindVariable, IntervalHours: 24,
		},
		OccurrenceAt: time.Date(2024, 1, 16, 12, 0, 0, 0, manila),
		Remaining:    5*time.Minute + 59*time.Second,
	}
}

func TestSendRetriesUntilDelivered(t *testing.T) {
	fs := &flakySender{failures: 2}
	s := New(testConfig(), fs, logx.Nop())

	if err := s.Send(context.Background(), testAlert()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if fs.calls != 3 {
		t.Fatalf("calls = %d, want 3", fs.calls)
	}
	if fs.to[0] != (kit.ChatTarget{ChatID: -100, ThreadID: 3}) {
		t.Fatalf("target = %+v", fs.to[0])
	}
	h := s.History()
	if len(h) != 1 || h[0].EntityID != "livera" || h[0].Attempts != 3 {
		t.Fatalf("history = %+v", h)
	}
}

func TestSendGivesUp(t *testing.T) {
	fs := &flakySender{failures: 10}
	s := New(testConfig(), fs, logx.Nop())

	err := s.Send(context.Background(), testAlert())
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("err = %v", err)
	}
	if fs.calls != 3 {
		t.Fatalf("calls = %d, want 1 + RetryMax", fs.calls)
	}
	if len(s.History()) != 0 {
		t.Fatalf("failed alert should not be in history")
	}
}

func TestSendWithoutTarget(t *testing.T) {
	cfg := testConfig()
	cfg.Target = kit.ChatTarget{}
	s := New(cfg, &flakySender{}, logx.Nop())
	if err := s.Send(context.Background(), testAlert()); !errors.Is(err, ErrNoTarget) {
		t.Fatalf("err = %v", err)
	}
}

func TestSendHonoursCancellation(t *testing.T) {
	cfg := testConfig()
	cfg.RetryBase = time.Hour
	cfg.RetryMaxDelay = time.Hour
	s := New(cfg, &flakySender{failures: 10}, logx.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.Send(ctx, testAlert())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
}

func TestRenderAlert(t *testing.T) {
	msg := RenderAlert(testAlert())
	for _, want := range []string{
		"<b>Livera spawning soon!</b>",
		"Protector&#39;s Ruins",
		"<b>5 minutes</b>",
		"<code>2024-01-16 12:00 PM PHT</code>",
	} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("alert missing %q:\n%s", want, msg.Text)
		}
	}
	if msg.Opt.ParseMode != "HTML" {
		t.Fatalf("parse mode = %q", msg.Opt.ParseMode)
	}
}

func TestRetryDelayBounds(t *testing.T) {
	cfg := Config{RetryBase: 100 * time.Millisecond, RetryMaxDelay: time.Second}
	for attempt := 1; attempt <= 8; attempt++ {
		d := retryDelay(cfg, attempt)
		if d <= 0 || d > time.Second {
			t.Fatalf("attempt %d: delay %v out of bounds", attempt, d)
		}
	}
	if d := retryDelay(cfg, 1); d < 70*time.Millisecond || d > 130*time.Millisecond {
		t.Fatalf("first delay %v outside jitter range", d)
	}
}
