package tracker

import (
	"time"

	"spawnbot/internal/storage"
)

// EntityState is the mutable part of one entity. For fixed-schedule
// entities only FiredFor is used.
type EntityState struct {
	// LastResetAt is zero until the first reset report.
	LastResetAt time.Time
	// FiredFor is the occurrence instant an alert was delivered for; zero
	// when armed.
	FiredFor   time.Time
	ReportedBy string
}

// nextOccurrence derives the current occurrence of an entity. ok is false
// for a variable entity that has never been reset.
func nextOccurrence(def EntityDefinition, st *EntityState, now time.Time) (time.Time, bool) {
	switch def.Kind {
	case KindFixed:
		return NextFixedOccurrence(def.Slots, now), true
	case KindVariable:
		if st == nil || st.LastResetAt.IsZero() {
			return time.Time{}, false
		}
		return VariableOccurrence(st.LastResetAt, def.IntervalHours), true
	}
	return time.Time{}, false
}

func toRecord(def EntityDefinition, st *EntityState) storage.StateRecord {
	var rec storage.StateRecord
	if !st.LastResetAt.IsZero() {
		reset := st.LastResetAt
		next := VariableOccurrence(reset, def.IntervalHours)
		rec.LastResetAt, rec.NextOccurrenceAt = &reset, &next
	}
	if !st.FiredFor.IsZero() {
		fired := st.FiredFor
		rec.FiredFor = &fired
	}
	rec.ReportedBy = st.ReportedBy
	return rec
}

// fromRecord rebuilds state in loc. The stored next occurrence is ignored;
// it is always derived from the reset instant.
func fromRecord(def EntityDefinition, rec storage.StateRecord, loc *time.Location) *EntityState {
	st := &EntityState{}
	if rec.FiredFor != nil {
		st.FiredFor = rec.FiredFor.In(loc)
	}
	if def.Kind == KindVariable {
		if rec.LastResetAt != nil {
			st.LastResetAt = rec.LastResetAt.In(loc)
		}
		st.ReportedBy = rec.ReportedBy
	}
	return st
}
