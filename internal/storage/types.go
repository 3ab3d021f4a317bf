package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrDisabled = errors.New("storage disabled")
	ErrClosed   = errors.New("storage closed")
)

// SchemaVersion is written into every file snapshot.
const SchemaVersion = 1

// Config configures storage. An empty or "none" Driver disables storage.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// StateRecord is the persisted state of one entity. Nil instants are absent.
type StateRecord struct {
	LastResetAt      *time.Time `json:"last_reset_at,omitempty"`
	NextOccurrenceAt *time.Time `json:"next_occurrence_at,omitempty"`
	FiredFor         *time.Time `json:"fired_for,omitempty"`
	ReportedBy       string     `json:"reported_by,omitempty"`
}

// AuditEntry records one operator action, such as a reset report or a clear.
type AuditEntry struct {
	At       time.Time `json:"at"`
	ActorID  int64     `json:"actor_id,omitempty"`
	Actor    string    `json:"actor,omitempty"`
	ChatID   int64     `json:"chat_id,omitempty"`
	Action   string    `json:"action"`
	EntityID string    `json:"entity_id,omitempty"`
	Detail   string    `json:"detail,omitempty"`
}

// Store is the persistence API used by the tracker and command layer.
type Store interface {
	// LoadStates returns an empty map when nothing has been saved yet.
	LoadStates(ctx context.Context) (map[string]StateRecord, error)
	// SaveStates replaces the whole stored state with states.
	SaveStates(ctx context.Context, states map[string]StateRecord) error
	AppendAudit(ctx context.Context, e AuditEntry) error
	Close() error
}

func timePtr(t time.Time) *time.Time { return &t }
