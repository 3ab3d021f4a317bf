package tracker

import (
	"testing"
	"time"
)

func TestFormatRemaining(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{-time.Minute, "0m 0s"},
		{45 * time.Second, "0m 45s"},
		{4*time.Minute + 5*time.Second, "4m 5s"},
		{3*time.Hour + 4*time.Minute + 59*time.Second, "3h 4m"},
		{50*time.Hour + 7*time.Minute, "2d 2h 7m"},
	}
	for _, tc := range cases {
		if got := FormatRemaining(tc.in); got != tc.want {
			t.Errorf("FormatRemaining(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatMinutes(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{5 * time.Minute, "5 minutes"},
		{5*time.Minute + 59*time.Second, "5 minutes"},
		{time.Minute + time.Second, "1 minute"},
		{30 * time.Second, "0 minutes"},
	}
	for _, tc := range cases {
		if got := FormatMinutes(tc.in); got != tc.want {
			t.Errorf("FormatMinutes(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("lady dalia"); got != "Lady Dalia" {
		t.Fatalf("DisplayName = %q", got)
	}
	if got := DisplayName("venatus"); got != "Venatus" {
		t.Fatalf("DisplayName = %q", got)
	}
}

func TestFormatZone(t *testing.T) {
	manila, err := time.LoadLocation("Asia/Manila")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	got := FormatZone(time.Date(2024, 1, 15, 14, 30, 0, 0, manila), LayoutDateTime)
	if got != "2024-01-15 02:30 PM PHT" {
		t.Fatalf("FormatZone = %q", got)
	}
}
