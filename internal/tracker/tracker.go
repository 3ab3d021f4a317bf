package tracker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"spawnbot/internal/eventbus"
	"spawnbot/internal/metrics"
	"spawnbot/internal/storage"
	"spawnbot/pkg/logx"
)

const DefaultLeadWindow = 10 * time.Minute

// Gateway loads and saves entity state. storage.Store satisfies it.
type Gateway interface {
	LoadStates(ctx context.Context) (map[string]storage.StateRecord, error)
	SaveStates(ctx context.Context, states map[string]storage.StateRecord) error
}

type Options struct {
	Clock Clock
	Sink  Sink
	// Store may be nil; state then lives only in memory.
	Store Gateway
	// Events may be nil.
	Events     eventbus.Publisher
	Log        logx.Logger
	LeadWindow time.Duration
	// SaveTimeout bounds one SaveStates call. Defaults to 10s.
	SaveTimeout time.Duration
}

// Tracker owns entity state and serializes resets, queries and ticks.
type Tracker struct {
	catalog *Catalog
	clock   Clock
	sink    Sink
	store   Gateway
	events  eventbus.Publisher
	log     logx.Logger

	lead        atomic.Int64
	saveTimeout time.Duration

	mu     sync.Mutex
	states map[string]*EntityState

	ticking atomic.Bool
	dirty   atomic.Bool
	saveReq chan struct{}
}

func New(catalog *Catalog, opts Options) *Tracker {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Log.IsZero() {
		opts.Log = logx.Nop()
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = 10 * time.Second
	}
	t := &Tracker{
		catalog:     catalog,
		clock:       opts.Clock,
		sink:        opts.Sink,
		store:       opts.Store,
		events:      opts.Events,
		log:         opts.Log.With(logx.String("comp", "tracker")),
		saveTimeout: opts.SaveTimeout,
		states:      make(map[string]*EntityState, catalog.Len()),
		saveReq:     make(chan struct{}, 1),
	}
	for _, d := range catalog.All() {
		t.states[d.ID] = &EntityState{}
	}
	t.SetLeadWindow(opts.LeadWindow)
	return t
}

func (t *Tracker) Catalog() *Catalog { return t.catalog }

func (t *Tracker) Now() time.Time { return t.clock.Now() }

func (t *Tracker) Location() *time.Location { return t.clock.Now().Location() }

// SetLeadWindow changes how far ahead alerts fire. Non-positive values
// restore the default.
func (t *Tracker) SetLeadWindow(d time.Duration) {
	if d <= 0 {
		d = DefaultLeadWindow
	}
	t.lead.Store(int64(d))
}

func (t *Tracker) LeadWindow() time.Duration { return time.Duration(t.lead.Load()) }

// SetSink swaps the alert sink. Used when the notifier is rebuilt on reload.
func (t *Tracker) SetSink(s Sink) {
	t.mu.Lock()
	t.sink = s
	t.mu.Unlock()
}

func (t *Tracker) lookup(id string) (EntityDefinition, error) {
	def, ok := t.catalog.Lookup(id)
	if !ok {
		return EntityDefinition{}, &EntityError{ID: normalizeID(id), Err: ErrUnknownEntity}
	}
	return def, nil
}

// Load restores persisted state. Records for ids missing from the catalog
// are dropped.
func (t *Tracker) Load(ctx context.Context) error {
	if t.store == nil {
		return nil
	}
	recs, err := t.store.LoadStates(ctx)
	if err != nil {
		return fmt.Errorf("%w: load: %v", ErrPersistenceUnavailable, err)
	}
	loc := t.Location()

	t.mu.Lock()
	defer t.mu.Unlock()
	restored := 0
	for id, rec := range recs {
		def, ok := t.catalog.Lookup(id)
		if !ok {
			t.log.Warn("dropping state for unknown entity", logx.String("entity", id))
			continue
		}
		st := fromRecord(def, rec, loc)
		if rec.NextOccurrenceAt != nil && !st.LastResetAt.IsZero() {
			if want := VariableOccurrence(st.LastResetAt, def.IntervalHours); !want.Equal(*rec.NextOccurrenceAt) {
				t.log.Warn("stored next occurrence disagrees with reset; recomputed",
					logx.String("entity", def.ID),
					logx.Time("stored", *rec.NextOccurrenceAt),
					logx.Time("recomputed", want),
				)
			}
		}
		t.states[def.ID] = st
		restored++
	}
	t.updateGaugeLocked()
	t.log.Info("state restored", logx.Int("entities", restored), logx.Int("stored", len(recs)))
	return nil
}

// ResetResult describes an accepted reset report.
type ResetResult struct {
	Entity  EntityDefinition
	ResetAt time.Time
	NextAt  time.Time
}

// ReportReset records a reset for a variable-interval entity. A nil at
// means now. Any earlier alert marker is cleared.
func (t *Tracker) ReportReset(ctx context.Context, id string, at *time.Time, reporter string) (ResetResult, error) {
	def, err := t.lookup(id)
	if err != nil {
		return ResetResult{}, err
	}
	if def.Kind != KindVariable {
		return ResetResult{}, &EntityError{ID: def.ID, Kind: def.Kind, Err: ErrWrongKind}
	}

	source := "manual"
	resetAt := t.clock.Now()
	if at == nil {
		source = "now"
	} else {
		resetAt = at.In(resetAt.Location())
	}

	t.mu.Lock()
	st := t.states[def.ID]
	st.LastResetAt = resetAt
	st.FiredFor = time.Time{}
	st.ReportedBy = reporter
	t.updateGaugeLocked()
	t.mu.Unlock()

	res := ResetResult{Entity: def, ResetAt: resetAt, NextAt: VariableOccurrence(resetAt, def.IntervalHours)}
	metrics.Resets.WithLabelValues(source).Inc()
	t.log.Info("reset reported",
		logx.String("entity", def.ID),
		logx.Time("reset_at", resetAt),
		logx.Time("next_at", res.NextAt),
		logx.String("by", reporter),
	)
	t.publish(EventReset, EventData{EntityID: def.ID, Name: def.Name, Location: def.Location, At: res.NextAt, By: reporter})
	t.markDirty()
	return res, nil
}

// Condition is the user-facing state of an entity.
type Condition int

const (
	// ConditionUnknown means a variable entity was never reset.
	ConditionUnknown Condition = iota
	// ConditionAlive means the occurrence instant has been reached.
	ConditionAlive
	// ConditionDead means the entity is waiting for its next occurrence.
	ConditionDead
)

func (c Condition) String() string {
	switch c {
	case ConditionAlive:
		return "alive"
	case ConditionDead:
		return "dead"
	default:
		return "unknown"
	}
}

type Status struct {
	Entity      EntityDefinition
	Condition   Condition
	LastResetAt time.Time
	ReportedBy  string
	NextAt      time.Time
	Remaining   time.Duration
	Notified    bool
}

// Status reports one entity.
func (t *Tracker) Status(id string) (Status, error) {
	def, err := t.lookup(id)
	if err != nil {
		return Status{}, err
	}
	now := t.clock.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statusLocked(def, now), nil
}

// StatusAll reports every entity, sorted by id.
func (t *Tracker) StatusAll() []Status {
	now := t.clock.Now()
	defs := t.catalog.All()
	out := make([]Status, 0, len(defs))
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, def := range defs {
		out = append(out, t.statusLocked(def, now))
	}
	return out
}

func (t *Tracker) statusLocked(def EntityDefinition, now time.Time) Status {
	st := t.states[def.ID]
	s := Status{Entity: def, LastResetAt: st.LastResetAt, ReportedBy: st.ReportedBy}
	next, ok := nextOccurrence(def, st, now)
	if !ok {
		return s
	}
	s.NextAt = next
	s.Remaining = next.Sub(now)
	s.Notified = !st.FiredFor.IsZero() && st.FiredFor.Equal(next)
	if s.Remaining <= 0 {
		s.Condition = ConditionAlive
	} else {
		s.Condition = ConditionDead
	}
	return s
}

// SlotTime pairs a weekly slot with its next instant.
type SlotTime struct {
	Slot Slot
	Next time.Time
}

type ScheduleInfo struct {
	Entity    EntityDefinition
	Slots     []SlotTime
	NextAt    time.Time
	Remaining time.Duration
}

// Schedule describes a fixed-schedule entity's weekly calendar.
func (t *Tracker) Schedule(id string) (ScheduleInfo, error) {
	def, err := t.lookup(id)
	if err != nil {
		return ScheduleInfo{}, err
	}
	if def.Kind != KindFixed {
		return ScheduleInfo{}, &EntityError{ID: def.ID, Kind: def.Kind, Err: ErrWrongKind}
	}
	now := t.clock.Now()
	info := ScheduleInfo{Entity: def, NextAt: NextFixedOccurrence(def.Slots, now)}
	info.Remaining = info.NextAt.Sub(now)
	for i, next := range NextSlotOccurrences(def.Slots, now) {
		info.Slots = append(info.Slots, SlotTime{Slot: def.Slots[i], Next: next})
	}
	return info, nil
}

// Lookup returns an entity definition or an ErrUnknownEntity error.
func (t *Tracker) Lookup(id string) (EntityDefinition, error) { return t.lookup(id) }

// ClearAll forgets every reset and alert marker. It returns how many
// entities had a known reset.
func (t *Tracker) ClearAll(ctx context.Context) int {
	t.mu.Lock()
	cleared := 0
	for _, st := range t.states {
		if !st.LastResetAt.IsZero() {
			cleared++
		}
		*st = EntityState{}
	}
	t.updateGaugeLocked()
	t.mu.Unlock()

	t.log.Info("all state cleared", logx.Int("had_reset", cleared))
	t.publish(EventCleared, EventData{})
	t.markDirty()
	return cleared
}

func (t *Tracker) updateGaugeLocked() {
	n := 0
	for _, st := range t.states {
		if !st.LastResetAt.IsZero() {
			n++
		}
	}
	metrics.TrackedKnown.Set(float64(n))
}

func (t *Tracker) publish(typ string, data EventData) {
	if t.events == nil {
		return
	}
	t.events.Publish(eventbus.Event{Type: typ, Time: t.clock.Now(), Data: data})
}
