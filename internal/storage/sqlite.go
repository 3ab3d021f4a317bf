package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"spawnbot/pkg/logx"
)

//go:embed migrations.sql
var migrationsSQL string

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for sqlite driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer keeps SQLITE_BUSY away
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	for _, pragma := range []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", busy.Milliseconds()),
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			log.Debug("sqlite pragma failed", logx.String("pragma", pragma), logx.Err(err))
		}
	}

	st := &sqliteStore{db: db, log: log}
	if _, err := db.ExecContext(context.Background(), migrationsSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}
	return st, nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) LoadStates(ctx context.Context) (map[string]StateRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entity_id, last_reset_at, next_occurrence_at, fired_for, reported_by FROM entity_state`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]StateRecord{}
	for rows.Next() {
		var (
			id                 string
			reset, next, fired sql.NullString
			reportedBy         sql.NullString
		)
		if err := rows.Scan(&id, &reset, &next, &fired, &reportedBy); err != nil {
			return nil, err
		}
		rec := StateRecord{ReportedBy: reportedBy.String}
		if rec.LastResetAt, err = parseInstant(reset); err != nil {
			return nil, fmt.Errorf("entity %s last_reset_at: %w", id, err)
		}
		if rec.NextOccurrenceAt, err = parseInstant(next); err != nil {
			return nil, fmt.Errorf("entity %s next_occurrence_at: %w", id, err)
		}
		if rec.FiredFor, err = parseInstant(fired); err != nil {
			return nil, fmt.Errorf("entity %s fired_for: %w", id, err)
		}
		out[id] = rec
	}
	return out, rows.Err()
}

func (s *sqliteStore) SaveStates(ctx context.Context, states map[string]StateRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entity_state`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entity_state(entity_id, last_reset_at, next_occurrence_at, fired_for, reported_by, updated_at)
		 VALUES(?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().Format(time.RFC3339Nano)
	for id, rec := range states {
		if _, err := stmt.ExecContext(ctx, id,
			formatInstant(rec.LastResetAt), formatInstant(rec.NextOccurrenceAt), formatInstant(rec.FiredFor),
			nullStr(rec.ReportedBy), now,
		); err != nil {
			return fmt.Errorf("save %s: %w", id, err)
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) AppendAudit(ctx context.Context, e AuditEntry) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit(at, actor_id, actor, chat_id, action, entity_id, detail) VALUES(?,?,?,?,?,?,?)`,
		e.At.Format(time.RFC3339Nano), e.ActorID, nullStr(e.Actor), e.ChatID, e.Action, nullStr(e.EntityID), nullStr(e.Detail),
	)
	return err
}

func formatInstant(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

func parseInstant(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		return nil, err
	}
	return timePtr(t), nil
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
