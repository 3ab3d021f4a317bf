package notifier

import (
	"time"

	kit "spawnbot/internal/transport"
)

// Config controls alert delivery.
type Config struct {
	Target        kit.ChatTarget
	RatePerSec    int
	RetryMax      int
	RetryBase     time.Duration
	RetryMaxDelay time.Duration
	SendTimeout   time.Duration
}

// HistoryItem is one delivered alert, kept for /healthz.
type HistoryItem struct {
	At       time.Time `json:"at"`
	EntityID string    `json:"entity_id"`
	Attempts int       `json:"attempts"`
}
