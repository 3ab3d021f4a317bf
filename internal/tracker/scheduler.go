package tracker

import (
	"context"
	"fmt"
	"time"

	"spawnbot/internal/metrics"
	"spawnbot/pkg/logx"
)

// Alert is one advance notification.
type Alert struct {
	Entity       EntityDefinition
	OccurrenceAt time.Time
	Remaining    time.Duration
}

// Minutes is the floor of the remaining time, as shown to users.
func (a Alert) Minutes() string { return FormatMinutes(a.Remaining) }

// Sink delivers alerts. A nil error means delivery was confirmed.
type Sink interface {
	Send(ctx context.Context, a Alert) error
}

// TickReport lists the entity ids touched by one tick.
type TickReport struct {
	Fired   []string
	Rearmed []string
	Failed  []string
}

func (r TickReport) Changed() bool { return len(r.Fired) > 0 || len(r.Rearmed) > 0 }

// shouldFire is the armed-to-fired transition: the occurrence is strictly
// ahead of now, no more than lead away, and not already alerted.
func shouldFire(occ, now time.Time, lead time.Duration, firedFor time.Time) bool {
	return now.Before(occ) && !occ.After(now.Add(lead)) && !firedFor.Equal(occ)
}

type pendingAlert struct {
	def EntityDefinition
	occ time.Time
}

// Tick runs one evaluation pass: re-arm markers whose occurrence has
// passed, then alert every entity whose occurrence entered the lead
// window. A marker is only committed after the sink confirms delivery, so a
// failed send is retried on the next tick. Overlapping calls return an
// empty report.
func (t *Tracker) Tick(ctx context.Context) TickReport {
	var rep TickReport
	if !t.ticking.CompareAndSwap(false, true) {
		t.log.Debug("tick skipped; previous tick still running")
		return rep
	}
	defer t.ticking.Store(false)

	start := time.Now()
	defer func() {
		metrics.Ticks.Inc()
		metrics.TickDuration.Observe(time.Since(start).Seconds())
	}()

	now := t.clock.Now()
	lead := t.LeadWindow()

	t.mu.Lock()
	sink := t.sink
	for _, def := range t.catalog.All() {
		st := t.states[def.ID]
		if !st.FiredFor.IsZero() && st.FiredFor.Before(now) {
			st.FiredFor = time.Time{}
			rep.Rearmed = append(rep.Rearmed, def.ID)
		}
	}
	var due []pendingAlert
	for _, def := range t.catalog.All() {
		st := t.states[def.ID]
		occ, ok := nextOccurrence(def, st, now)
		if ok && shouldFire(occ, now, lead, st.FiredFor) {
			due = append(due, pendingAlert{def: def, occ: occ})
		}
	}
	t.mu.Unlock()

	for _, id := range rep.Rearmed {
		t.publish(EventRearmed, EventData{EntityID: id})
	}

	for _, p := range due {
		a := Alert{Entity: p.def, OccurrenceAt: p.occ, Remaining: p.occ.Sub(now)}
		if err := t.deliver(ctx, sink, a); err != nil {
			rep.Failed = append(rep.Failed, p.def.ID)
			metrics.Alerts.WithLabelValues("failed").Inc()
			t.log.Warn("spawn alert not delivered; will retry",
				logx.String("entity", p.def.ID),
				logx.Time("occurrence", p.occ),
				logx.Err(err),
			)
			continue
		}

		t.mu.Lock()
		st := t.states[p.def.ID]
		cur, ok := nextOccurrence(p.def, st, now)
		committed := ok && cur.Equal(p.occ)
		if committed {
			st.FiredFor = p.occ
		}
		t.mu.Unlock()

		if !committed {
			metrics.Alerts.WithLabelValues("discarded").Inc()
			t.log.Info("entity changed during alert delivery; marker not committed", logx.String("entity", p.def.ID))
			continue
		}
		metrics.Alerts.WithLabelValues("sent").Inc()
		rep.Fired = append(rep.Fired, p.def.ID)
		t.log.Info("spawn alert sent",
			logx.String("entity", p.def.ID),
			logx.Time("occurrence", p.occ),
			logx.String("remaining", a.Minutes()),
		)
		t.publish(EventNotified, EventData{EntityID: p.def.ID, Name: p.def.Name, Location: p.def.Location, At: p.occ})
	}

	if rep.Changed() {
		t.markDirty()
	}
	return rep
}

func (t *Tracker) deliver(ctx context.Context, sink Sink, a Alert) (err error) {
	if sink == nil {
		return fmt.Errorf("%w: no sink configured", ErrDeliveryFailed)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: sink panic: %v", ErrDeliveryFailed, r)
		}
	}()
	if err := sink.Send(ctx, a); err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	return nil
}
