package tracker

import (
	"errors"
	"testing"
	"time"
)

func TestParseManualTime(t *testing.T) {
	afternoon := at(2024, 1, 15, 14, 31)
	early := at(2024, 1, 15, 2, 0)

	cases := []struct {
		name string
		in   string
		now  time.Time
		want time.Time
	}{
		{"iso", "2024-01-15 14:30", afternoon, at(2024, 1, 15, 14, 30)},
		{"iso single digits", "2024-1-5 9:05", afternoon, at(2024, 1, 5, 9, 5)},
		{"us", "01/20/2024 08:05", afternoon, at(2024, 1, 20, 8, 5)},
		{"month day near future keeps year", "02/01 10:00", afternoon, at(2024, 2, 1, 10, 0)},
		{"month day far ahead is last year", "12/31 23:00", afternoon, at(2023, 12, 31, 23, 0)},
		{"clock just passed", "14:30", afternoon, at(2024, 1, 15, 14, 30)},
		{"clock far ahead is yesterday", "14:30", early, at(2024, 1, 14, 14, 30)},
		{"clock slightly ahead stays today", "03:30", early, at(2024, 1, 15, 3, 30)},
		{"clock with seconds", "14:30:15", afternoon, time.Date(2024, 1, 15, 14, 30, 15, 0, pht)},
		{"surrounding spaces", "  14:30 ", afternoon, at(2024, 1, 15, 14, 30)},

		// input exactly at the lookahead limit is not shifted
		{"clock exactly 12h ahead stays today", "14:00", early, at(2024, 1, 15, 14, 0)},
		{"clock 12h1m ahead is yesterday", "14:01", early, at(2024, 1, 14, 14, 1)},
		{"month day exactly 30 days ahead keeps year", "02/14 14:31", afternoon, at(2024, 2, 14, 14, 31)},
		{"month day 30 days 1m ahead is last year", "02/14 14:32", afternoon, at(2023, 2, 14, 14, 32)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseManualTime(tc.in, tc.now)
			if err != nil {
				t.Fatalf("ParseManualTime(%q): %v", tc.in, err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("ParseManualTime(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseManualTimeErrors(t *testing.T) {
	now := at(2024, 1, 15, 14, 31)
	for _, in := range []string{
		"13/40 99:99",
		"2024-02-30 10:00",
		"2024-13-01 10:00",
		"02/29/2023 10:00",
		"25:00",
		"14:60",
		"14:30:61",
		"2024-01-15",
		"01/15",
		"2024-01-15T14:30:00+08:00",
		"noon",
		"",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseManualTime(in, now)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("ParseManualTime(%q) err = %v, want *ParseError", in, err)
			}
			if pe.Input != in || len(pe.Formats()) == 0 {
				t.Fatalf("unexpected error details: %+v", pe)
			}
		})
	}
}

func TestParseManualTimeDateOnlyReason(t *testing.T) {
	_, err := ParseManualTime("2024-01-15", at(2024, 1, 15, 14, 31))
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Reason != "a time of day is required" {
		t.Fatalf("err = %v", err)
	}
}
