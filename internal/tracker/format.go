package tracker

import (
	"fmt"
	"strings"
	"time"
)

// Layouts used in user-facing text.
const (
	LayoutDateTime = "2006-01-02 03:04 PM"
	LayoutClock    = "03:04 PM"
	LayoutFull     = "2006-01-02 03:04:05 PM"
)

// DisplayName capitalizes every word of an id: "lady dalia" -> "Lady Dalia".
func DisplayName(id string) string {
	words := strings.Fields(id)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// FormatRemaining renders a countdown: "2d 3h 4m", "3h 4m" or "4m 5s".
// Negative durations render as "0m 0s".
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	days := total / 86400
	hours := total % 86400 / 3600
	minutes := total % 3600 / 60
	seconds := total % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
}

// FormatMinutes renders whole minutes, rounded down: "5 minutes", "1 minute".
func FormatMinutes(d time.Duration) string {
	m := int(d / time.Minute)
	if m < 0 {
		m = 0
	}
	if m == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}

// FormatZone renders an instant for users, with the zone abbreviation.
func FormatZone(t time.Time, layout string) string {
	return t.Format(layout) + " " + zoneName(t)
}

// zoneName prefers PHT for Manila, whose tzdata abbreviation is "PST".
func zoneName(t time.Time) string {
	if t.Location().String() == "Asia/Manila" {
		return "PHT"
	}
	name, _ := t.Zone()
	return name
}
