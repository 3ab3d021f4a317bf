package commands

import (
	"context"
	"strconv"
	"strings"

	"spawnbot/internal/tracker"
	"spawnbot/internal/transport/telegram/router"
	"spawnbot/pkg/tgui"
)

// Callback actions. Data is "spawn:<action>[:<payload>]".
const (
	actMenu     = "menu"
	actPick     = "pick" // payload "<action>:<page>"
	actKill     = "kill"
	actKillTime = "killtime"
	actStatus   = "status"
	actSchedule = "schedule"
	actLocation = "location"
	actBosses   = "bosses"
	actTime     = "time"
	actClear    = "clear" // payload "yes" or "no"
)

func data(action, payload string) string { return tgui.Data(Namespace, action, payload) }

func pickData(action string, page int) string {
	return data(actPick, action+":"+strconv.Itoa(page))
}

func renderMenu() tgui.Message {
	kb := tgui.NewInline().
		Row(tgui.Btn("⚔️ Quick Kill", pickData(actKill, 0)), tgui.Btn("⏱ Kill With Time", pickData(actKillTime, 0))).
		Row(tgui.Btn("📊 Check Status", pickData(actStatus, 0)), tgui.Btn("📅 View Schedule", pickData(actSchedule, 0))).
		Row(tgui.Btn("📍 Get Location", pickData(actLocation, 0)), tgui.Btn("📋 All Bosses", data(actBosses, ""))).
		Row(tgui.Btn("⏰ Current Time", data(actTime, "")))
	return tgui.New().
		Title("🤖", "BOSS TRACKER MENU").
		Line("Choose an action below:").
		Inline(kb).
		Build()
}

var pickPrompts = map[string]string{
	actKill:     "Select a boss to report kill:",
	actKillTime: "Select a boss to report kill with time:",
	actStatus:   "Select a boss to check status:",
	actSchedule: "Select a fixed-time boss to view schedule:",
	actLocation: "Select a boss to get location:",
}

// pickable lists the entities an action applies to.
func pickable(cat *tracker.Catalog, action string) []tracker.EntityDefinition {
	switch action {
	case actKill, actKillTime:
		return cat.OfKind(tracker.KindVariable)
	case actSchedule:
		return cat.OfKind(tracker.KindFixed)
	default:
		return cat.All()
	}
}

func renderPicker(cat *tracker.Catalog, action string, page, size int) tgui.Message {
	p := tgui.Paginate(pickable(cat, action), page, size)

	btns := make([]tgui.Button, 0, len(p.Items))
	for _, d := range p.Items {
		btns = append(btns, tgui.Btn(tgui.TruncRunes(d.Name, 24), data(action, d.ID)))
	}
	kb := tgui.NewInline().Grid(3, btns)

	var nav []tgui.Button
	if p.HasPrev {
		nav = append(nav, tgui.Btn("◀️ Prev", pickData(action, p.Index-1)))
	}
	if p.HasNext {
		nav = append(nav, tgui.Btn("Next ▶️", pickData(action, p.Index+1)))
	}
	kb.Row(nav...)
	kb.Row(tgui.Btn("⬅️ Back", data(actMenu, "")))

	b := tgui.New().Line(pickPrompts[action])
	if p.Pages > 1 {
		b.RawLine(tgui.I(p.Label()))
	}
	return b.Inline(kb).Build()
}

func (h *Handlers) cbMenu(ctx context.Context, req *router.Request, _ string) error {
	return req.Respond(ctx, renderMenu())
}

func (h *Handlers) cbPick(ctx context.Context, req *router.Request, payload string) error {
	action, rawPage, _ := strings.Cut(payload, ":")
	if _, ok := pickPrompts[action]; !ok {
		return req.Respond(ctx, renderMenu())
	}
	page, _ := strconv.Atoi(rawPage)
	return req.Respond(ctx, renderPicker(h.tr.Catalog(), action, page, h.pageSize))
}

// Entity callbacks post a new message so the menu stays usable.

func (h *Handlers) cbKill(ctx context.Context, req *router.Request, id string) error {
	return req.Reply(ctx, h.kill(ctx, req, id))
}

func (h *Handlers) cbKillTime(ctx context.Context, req *router.Request, id string) error {
	return req.Reply(ctx, renderKillTimeUsage(id))
}

func (h *Handlers) cbStatus(ctx context.Context, req *router.Request, id string) error {
	return req.Reply(ctx, h.status(id))
}

func (h *Handlers) cbSchedule(ctx context.Context, req *router.Request, id string) error {
	return req.Reply(ctx, h.schedule(id))
}

func (h *Handlers) cbLocation(ctx context.Context, req *router.Request, id string) error {
	return req.Reply(ctx, h.location(id))
}

func (h *Handlers) cbBosses(ctx context.Context, req *router.Request, _ string) error {
	return req.Reply(ctx, renderBosses(h.tr.Catalog()))
}

func (h *Handlers) cbTime(ctx context.Context, req *router.Request, _ string) error {
	return req.Reply(ctx, renderTime(h.tr.Now()))
}

func (h *Handlers) cbClear(ctx context.Context, req *router.Request, answer string) error {
	if answer != "yes" {
		return req.Respond(ctx, tgui.Text("Clear cancelled."))
	}
	return req.Respond(ctx, h.clear(ctx, req))
}
