package tracker

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// AcceptedTimeFormats lists the manual time forms in match order.
var AcceptedTimeFormats = []string{
	"YYYY-MM-DD HH:MM",
	"MM/DD/YYYY HH:MM",
	"MM/DD HH:MM",
	"HH:MM",
	"HH:MM:SS",
}

const (
	monthDayLookahead = 30 * 24 * time.Hour
	clockLookahead    = 12 * time.Hour
)

var (
	reISO      = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})\s+(\d{1,2}):(\d{2})$`)
	reUS       = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})\s+(\d{1,2}):(\d{2})$`)
	reMonthDay = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})\s+(\d{1,2}):(\d{2})$`)
	reClock    = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?$`)
)

// ParseError reports manual time input that no accepted form could turn
// into a valid instant.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse time %q: %s", e.Input, e.Reason)
}

// Formats returns the accepted forms, for rendering a hint to the user.
func (e *ParseError) Formats() []string { return AcceptedTimeFormats }

// ParseManualTime turns partial user input into an instant in now's
// location. The first form whose shape matches decides the result; a
// matching shape with out-of-range fields is an error.
//
// "MM/DD HH:MM" lands in now's year unless that is more than 30 days ahead,
// then the previous year. A bare clock time lands today unless that is more
// than 12 hours in the future, then yesterday.
func ParseManualTime(text string, now time.Time) (time.Time, error) {
	in := strings.TrimSpace(text)
	loc := now.Location()
	fail := func(reason string) (time.Time, error) {
		return time.Time{}, &ParseError{Input: text, Reason: reason}
	}

	if m := reISO.FindStringSubmatch(in); m != nil {
		t, ok := buildTime(atoi(m[1]), atoi(m[2]), atoi(m[3]), atoi(m[4]), atoi(m[5]), 0, loc)
		if !ok {
			return fail("date or time out of range")
		}
		return t, nil
	}

	if m := reUS.FindStringSubmatch(in); m != nil {
		t, ok := buildTime(atoi(m[3]), atoi(m[1]), atoi(m[2]), atoi(m[4]), atoi(m[5]), 0, loc)
		if !ok {
			return fail("date or time out of range")
		}
		return t, nil
	}

	if m := reMonthDay.FindStringSubmatch(in); m != nil {
		month, day, hh, mm := atoi(m[1]), atoi(m[2]), atoi(m[3]), atoi(m[4])
		t, ok := buildTime(now.Year(), month, day, hh, mm, 0, loc)
		if !ok {
			return fail("date or time out of range")
		}
		if t.Sub(now) > monthDayLookahead {
			if t, ok = buildTime(now.Year()-1, month, day, hh, mm, 0, loc); !ok {
				return fail("date does not exist in the previous year")
			}
		}
		return t, nil
	}

	if m := reClock.FindStringSubmatch(in); m != nil {
		sec := 0
		if m[3] != "" {
			sec = atoi(m[3])
		}
		y, mo, d := now.Date()
		t, ok := buildTime(y, int(mo), d, atoi(m[1]), atoi(m[2]), sec, loc)
		if !ok {
			return fail("time out of range")
		}
		if t.After(now) && t.Sub(now) > clockLookahead {
			t = t.AddDate(0, 0, -1)
		}
		return t, nil
	}

	if looksLikeDateOnly(in) {
		return fail("a time of day is required")
	}
	return fail("unrecognized format")
}

// buildTime constructs a time, rejecting fields time.Date would normalize.
func buildTime(year, month, day, hour, minute, sec int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || hour > 23 || minute > 59 || sec > 59 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, hour, minute, sec, 0, loc)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

var reDateOnly = regexp.MustCompile(`^(\d{4}-\d{1,2}-\d{1,2}|\d{1,2}/\d{1,2}(/\d{4})?)$`)

func looksLikeDateOnly(s string) bool { return reDateOnly.MatchString(s) }

// atoi is only called on regexp digit groups.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
