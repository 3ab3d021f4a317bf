package tracker

import (
	"context"
	"fmt"

	"spawnbot/internal/metrics"
	"spawnbot/internal/storage"
	"spawnbot/pkg/logx"
)

// Snapshot copies the current state into storage records. Entities with
// nothing to remember are omitted.
func (t *Tracker) Snapshot() map[string]storage.StateRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]storage.StateRecord, len(t.states))
	for _, def := range t.catalog.All() {
		st := t.states[def.ID]
		if st.LastResetAt.IsZero() && st.FiredFor.IsZero() {
			continue
		}
		out[def.ID] = toRecord(def, st)
	}
	return out
}

// markDirty flags unsaved changes and asks the persister for a save. It
// never blocks.
func (t *Tracker) markDirty() {
	t.dirty.Store(true)
	t.RequestSave()
}

// RequestSave queues a save. Requests coalesce while one is pending.
func (t *Tracker) RequestSave() {
	if t.store == nil {
		return
	}
	select {
	case t.saveReq <- struct{}{}:
	default:
	}
}

// Autosave requests a save when there are unsaved or previously failed
// changes. It is the periodic safety net.
func (t *Tracker) Autosave() {
	if t.dirty.Load() {
		t.RequestSave()
	}
}

// Dirty reports whether changes are waiting to be saved.
func (t *Tracker) Dirty() bool { return t.dirty.Load() }

// RunPersister saves state whenever requested, until ctx is done; then
// it flushes once more. Failures are logged and left dirty for the next
// request.
func (t *Tracker) RunPersister(ctx context.Context) error {
	if t.store == nil {
		<-ctx.Done()
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			if t.dirty.Load() {
				fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.saveTimeout)
				_ = t.SaveNow(fctx)
				cancel()
			}
			return nil
		case <-t.saveReq:
			sctx, cancel := context.WithTimeout(ctx, t.saveTimeout)
			_ = t.SaveNow(sctx)
			cancel()
		}
	}
}

// SaveNow writes a snapshot synchronously.
func (t *Tracker) SaveNow(ctx context.Context) error {
	if t.store == nil {
		return nil
	}
	t.dirty.Store(false)
	snap := t.Snapshot()
	if err := t.store.SaveStates(ctx, snap); err != nil {
		t.dirty.Store(true)
		metrics.Saves.WithLabelValues("error").Inc()
		err = fmt.Errorf("%w: save: %w", ErrPersistenceUnavailable, err)
		t.log.Warn("state save failed", logx.Err(err))
		return err
	}
	metrics.Saves.WithLabelValues("ok").Inc()
	t.log.Debug("state saved", logx.Int("entities", len(snap)))
	return nil
}
