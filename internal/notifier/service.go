package notifier

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"spawnbot/internal/tracker"
	kit "spawnbot/internal/transport"
	"spawnbot/pkg/logx"
	"spawnbot/pkg/tgui"
)

var ErrNoTarget = errors.New("notifier: no target chat configured")

const historySize = 32

// Service implements tracker.Sink. It is safe for concurrent use.
type Service struct {
	mu      sync.Mutex
	log     logx.Logger
	sender  kit.Sender
	cfg     Config
	limiter *rate.Limiter

	hmu     sync.Mutex
	history []HistoryItem
}

func New(cfg Config, sender kit.Sender, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{sender: sender, log: log}
	s.applyLocked(cfg)
	return s
}

// Apply swaps the delivery settings; in-flight sends finish with the old ones.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.applyLocked(cfg)
	s.mu.Unlock()
}

func (s *Service) applyLocked(cfg Config) {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = 10 * time.Second
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	s.cfg = cfg
	s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
}

func (s *Service) Target() kit.ChatTarget {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Target
}

// Send delivers one spawn alert, retrying with jittered exponential backoff.
func (s *Service) Send(ctx context.Context, a tracker.Alert) error {
	attempts, err := s.deliver(ctx, RenderAlert(a))
	if err != nil {
		return fmt.Errorf("alert %s: %w", a.Entity.ID, err)
	}
	s.appendHistory(HistoryItem{At: time.Now(), EntityID: a.Entity.ID, Attempts: attempts})
	return nil
}

// Announce sends a free-form message to the alert chat with the same rate
// limit and retry policy.
func (s *Service) Announce(ctx context.Context, msg tgui.Message) error {
	_, err := s.deliver(ctx, msg)
	return err
}

func (s *Service) deliver(ctx context.Context, msg tgui.Message) (int, error) {
	s.mu.Lock()
	cfg := s.cfg
	lim := s.limiter
	s.mu.Unlock()

	if cfg.Target.ChatID == 0 {
		return 0, ErrNoTarget
	}

	maxAttempts := 1 + cfg.RetryMax
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := lim.Wait(ctx); err != nil {
			return attempt - 1, errors.Join(lastErr, err)
		}

		callCtx, cancel := context.WithTimeout(ctx, cfg.SendTimeout)
		_, err := msg.Send(callCtx, s.sender, cfg.Target)
		cancel()
		if err == nil {
			return attempt, nil
		}
		lastErr = err
		s.log.Debug("alert send failed", logx.Err(err), logx.Int("attempt", attempt), logx.Int("max", maxAttempts))

		if attempt == maxAttempts {
			break
		}
		t := time.NewTimer(retryDelay(cfg, attempt))
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return attempt, errors.Join(lastErr, ctx.Err())
		}
	}
	return maxAttempts, lastErr
}

// retryDelay is the wait before attempt+1: base doubled per attempt, capped,
// with 0.7..1.3 jitter.
func retryDelay(cfg Config, attempt int) time.Duration {
	d := cfg.RetryBase
	for i := 1; i < attempt && d < cfg.RetryMaxDelay; i++ {
		d *= 2
	}
	d = time.Duration(float64(min(d, cfg.RetryMaxDelay)) * (0.7 + rand.Float64()*0.6))
	return min(max(d, 0), cfg.RetryMaxDelay)
}

func (s *Service) appendHistory(it HistoryItem) {
	s.hmu.Lock()
	s.history = append(s.history, it)
	if n := len(s.history); n > historySize {
		s.history = append(s.history[:0:0], s.history[n-historySize:]...)
	}
	s.hmu.Unlock()
}

// History returns the most recent delivered alerts, oldest first.
func (s *Service) History() []HistoryItem {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	return append([]HistoryItem(nil), s.history...)
}
