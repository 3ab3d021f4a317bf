package tracker

import "time"

// NextFixedOccurrence returns the earliest slot instant at or after now, in
// now's location. A slot falling exactly on now is returned as now. slots
// must be non-empty; the catalog guarantees that.
func NextFixedOccurrence(slots []Slot, now time.Time) time.Time {
	var best time.Time
	y, m, d := now.Date()
	today := now.Weekday()
	for i, s := range slots {
		offset := (int(s.Weekday) - int(today) + 7) % 7
		cand := time.Date(y, m, d+offset, s.Hour, s.Minute, 0, 0, now.Location())
		if cand.Before(now) {
			cand = cand.AddDate(0, 0, 7)
		}
		if i == 0 || cand.Before(best) {
			best = cand
		}
	}
	return best
}

// NextSlotOccurrences returns the next instant of every slot, in slot order.
func NextSlotOccurrences(slots []Slot, now time.Time) []time.Time {
	out := make([]time.Time, len(slots))
	for i, s := range slots {
		out[i] = NextFixedOccurrence([]Slot{s}, now)
	}
	return out
}

// VariableOccurrence is the respawn instant after a reset.
func VariableOccurrence(resetAt time.Time, intervalHours int) time.Time {
	return resetAt.Add(time.Duration(intervalHours) * time.Hour)
}
