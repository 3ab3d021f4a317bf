package commands

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"spawnbot/internal/tracker"
	"spawnbot/pkg/tgui"
)

// formatExamples pairs each accepted manual time form with an example.
var formatExamples = map[string]string{
	"YYYY-MM-DD HH:MM": "2024-01-15 14:30",
	"MM/DD/YYYY HH:MM": "01/15/2024 14:30",
	"MM/DD HH:MM":      "01/15 14:30",
	"HH:MM":            "14:30",
	"HH:MM:SS":         "14:30:05",
}

func stamp(t time.Time) string { return tracker.FormatZone(t, tracker.LayoutDateTime) }

func hours(n int) string {
	if n == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", n)
}

func header(b *tgui.Builder, def tracker.EntityDefinition) *tgui.Builder {
	return b.RawLine(tgui.B(def.Name)).
		RawLine("📍 " + tgui.B("Location:") + " " + tgui.Esc(def.Location))
}

func renderReset(res tracker.ResetResult) tgui.Message {
	return tgui.New().
		RawLine("✅ "+tgui.B(res.Entity.Name)+" defeated at "+tgui.Code(stamp(res.ResetAt))+"!").
		RawLine("📍 "+tgui.B("Location:")+" "+tgui.Esc(res.Entity.Location)).
		RawLine("⏰ Respawns at "+tgui.Code(stamp(res.NextAt))).
		Line("⏳ In "+hours(res.Entity.IntervalHours)).
		Build()
}

func renderStatus(st tracker.Status) tgui.Message {
	def := st.Entity
	b := header(tgui.New(), def)

	if def.Kind == tracker.KindFixed {
		switch st.Condition {
		case tracker.ConditionAlive:
			b.RawLine("Status: ✅ " + tgui.B("ALIVE"))
		default:
			b.RawLine("Status: ❌ " + tgui.B("DEAD")).
				Line("Next spawn: " + stamp(st.NextAt)).
				Line("Time left: " + tracker.FormatRemaining(st.Remaining))
		}
		b.RawLine(tgui.B("Spawn schedule:"))
		for _, s := range def.Slots {
			b.Line(slotLine(s))
		}
		return b.Build()
	}

	switch st.Condition {
	case tracker.ConditionUnknown:
		b.Line("Status: ❓ Not killed yet")
	case tracker.ConditionAlive:
		b.RawLine("Status: ✅ " + tgui.B("ALIVE")).
			Line("Killed at: " + stamp(st.LastResetAt)).
			Line("Respawn timer: " + hours(def.IntervalHours))
	case tracker.ConditionDead:
		b.RawLine("Status: ❌ " + tgui.B("DEAD")).
			Line("Killed at: " + stamp(st.LastResetAt)).
			Line("Respawns: " + stamp(st.NextAt)).
			Line("Time left: " + tracker.FormatRemaining(st.Remaining)).
			Line("Respawn timer: " + hours(def.IntervalHours))
	}
	if st.ReportedBy != "" && st.Condition != tracker.ConditionUnknown {
		b.Line("Reported by: " + st.ReportedBy)
	}
	return b.Build()
}

func slotLine(s tracker.Slot) string {
	return fmt.Sprintf("• %s at %02d:%02d", s.Weekday, s.Hour, s.Minute)
}

// renderStatusAll lists upcoming spawns soonest first, then bosses that are
// up, then the ones nobody reported.
func renderStatusAll(all []tracker.Status, now time.Time) tgui.Message {
	var dead, alive, unknown []tracker.Status
	for _, st := range all {
		switch st.Condition {
		case tracker.ConditionDead:
			dead = append(dead, st)
		case tracker.ConditionAlive:
			alive = append(alive, st)
		default:
			unknown = append(unknown, st)
		}
	}
	sort.SliceStable(dead, func(i, j int) bool { return dead[i].NextAt.Before(dead[j].NextAt) })

	b := tgui.New().Title("📊", "BOSS STATUS").Line(stamp(now))
	if len(dead) > 0 {
		b.Blank().RawLine(tgui.B("Respawning"))
		for _, st := range dead {
			b.Line(fmt.Sprintf("❌ %s - %s (%s)", st.Entity.Name, tracker.FormatRemaining(st.Remaining),
				tracker.FormatZone(st.NextAt, tracker.LayoutClock)))
		}
	}
	if len(alive) > 0 {
		b.Blank().RawLine(tgui.B("Alive"))
		for _, st := range alive {
			b.Line("✅ " + st.Entity.Name)
		}
	}
	if len(unknown) > 0 {
		names := make([]string, 0, len(unknown))
		for _, st := range unknown {
			names = append(names, st.Entity.Name)
		}
		b.Blank().RawLine(tgui.B("Not killed yet")).Line("❓ " + strings.Join(names, ", "))
	}
	return b.Build()
}

func renderSchedule(info tracker.ScheduleInfo) tgui.Message {
	b := tgui.New().RawLine(tgui.B(info.Entity.Name+" Schedule")).
		RawLine("📍 " + tgui.B("Location:") + " " + tgui.Esc(info.Entity.Location)).
		RawLine(tgui.B("Spawn times:"))
	for _, s := range info.Slots {
		b.Line(slotLine(s.Slot))
	}
	return b.Blank().
		RawLine(tgui.B("Next spawn:") + " " + tgui.Esc(stamp(info.NextAt))).
		RawLine(tgui.B("Time left:") + " " + tgui.Esc(tracker.FormatRemaining(info.Remaining))).
		Build()
}

func renderLocation(def tracker.EntityDefinition) tgui.Message {
	respawn := "Fixed schedule"
	if def.Kind == tracker.KindVariable {
		respawn = hours(def.IntervalHours)
	}
	return header(tgui.New(), def).
		RawLine("⏰ " + tgui.B("Respawn:") + " " + tgui.Esc(respawn)).
		Build()
}

func renderBosses(cat *tracker.Catalog) tgui.Message {
	var tbl strings.Builder
	fmt.Fprintf(&tbl, "%-18s %-12s %s\n", "BOSS NAME", "TYPE", "LOCATION")
	tbl.WriteString(strings.Repeat("─", 51) + "\n")
	for _, d := range cat.All() {
		typ := "FIXED-TIME"
		if d.Kind == tracker.KindVariable {
			typ = fmt.Sprintf("%dH", d.IntervalHours)
		}
		fmt.Fprintf(&tbl, "%-18s %-12s %s\n", tgui.TruncRunes(d.Name, 18), typ, tgui.TruncRunes(d.Location, 25))
	}
	return tgui.New().
		Title("", "AVAILABLE BOSSES").
		Pre(tbl.String()).
		RawLine(tgui.B("Legend:")).
		Line("• H = Hours respawn timer").
		Line("• FIXED-TIME = Spawns at specific times").
		Build()
}

func renderTime(now time.Time) tgui.Message {
	return tgui.New().
		RawLine("⏰ " + tgui.B("Current time:") + " " + tgui.Esc(tracker.FormatZone(now, tracker.LayoutFull))).
		Build()
}

func renderKillTimeUsage(id string) tgui.Message {
	arg := "<boss>"
	if id != "" {
		arg = id
	}
	b := tgui.New().RawLine("Send " + tgui.Code("/killtime "+arg+" <time>") + " with one of:")
	return formatList(b).Build()
}

func formatList(b *tgui.Builder) *tgui.Builder {
	for _, f := range tracker.AcceptedTimeFormats {
		b.RawLine("• " + tgui.Code(f) + " (e.g. " + tgui.Esc(formatExamples[f]) + ")")
	}
	return b
}

func renderClearConfirm() tgui.Message {
	kb := tgui.NewInline().Row(
		tgui.Btn("🗑 Yes, clear", data(actClear, "yes")),
		tgui.Btn("Cancel", data(actClear, "no")),
	)
	return tgui.New().
		Title("⚠️", "Clear all boss timers?").
		Line("Every reported kill will be forgotten.").
		Inline(kb).
		Build()
}

func renderCleared(n int) tgui.Message {
	return tgui.Text(fmt.Sprintf("🗑 Cleared all timers (%d bosses had a reported kill).", n))
}

// renderError turns tracker errors into user-facing replies. Anything
// unexpected renders generically.
func renderError(id string, err error) tgui.Message {
	var pe *tracker.ParseError
	var ee *tracker.EntityError
	switch {
	case errors.As(err, &pe):
		b := tgui.New().Line("❌ Invalid time " + pe.Input + ": " + pe.Reason).RawLine(tgui.B("Valid formats:"))
		return formatList(b).Build()
	case errors.Is(err, tracker.ErrUnknownEntity):
		return tgui.New().
			RawLine("❌ Unknown boss " + tgui.Code(strings.TrimSpace(id)) + ".").
			RawLine("Use " + tgui.Code("/bosses") + " to see every boss.").
			Build()
	case errors.As(err, &ee) && errors.Is(err, tracker.ErrWrongKind):
		if ee.Kind == tracker.KindFixed {
			return tgui.New().
				RawLine("ℹ️ " + tgui.B(tracker.DisplayName(ee.ID)) + " is a fixed-time boss and doesn't use the kill command.").
				RawLine("Use " + tgui.Code("/schedule "+ee.ID) + " to see its spawn times.").
				Build()
		}
		return tgui.New().RawLine("❌ " + tgui.Code(ee.ID) + " is not a fixed-time boss.").Build()
	default:
		return tgui.Text("❌ Something went wrong, please try again.")
	}
}

// StartupMessage is posted to the alert chat once the bot is online.
func StartupMessage(cat *tracker.Catalog, now time.Time) tgui.Message {
	return tgui.New().
		Line("🤖 Boss tracker bot is now online and ready!").
		Line(fmt.Sprintf("Tracking %d bosses. Clock: %s", cat.Len(), tracker.FormatZone(now, tracker.LayoutDateTime))).
		Build()
}
