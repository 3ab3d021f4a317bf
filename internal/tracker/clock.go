package tracker

import "time"

// Clock supplies the current instant in the calendar timezone.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock and converts it to Location.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}
