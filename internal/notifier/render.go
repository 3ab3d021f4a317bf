package notifier

import (
	"spawnbot/internal/tracker"
	"spawnbot/pkg/tgui"
)

// RenderAlert formats the advance notice for one occurrence.
func RenderAlert(a tracker.Alert) tgui.Message {
	return tgui.New().
		Title("⚠️", a.Entity.Name+" spawning soon!").
		RawLine("📍 "+tgui.B("Location:")+" "+tgui.Esc(a.Entity.Location)).
		RawLine("⏰ Spawns in "+tgui.B(a.Minutes())).
		RawLine("🕐 "+tgui.B("Spawn time:")+" "+tgui.Code(tracker.FormatZone(a.OccurrenceAt, tracker.LayoutDateTime))).
		Build()
}
