// Package commands implements the chat commands and inline menu of the
// spawn tracker on top of the router.
package commands

import (
	"context"
	"time"

	"spawnbot/internal/storage"
	"spawnbot/internal/tracker"
	"spawnbot/internal/transport/telegram/router"
	"spawnbot/pkg/logx"
)

// Namespace prefixes every callback this package registers.
const Namespace = "spawn"

// AuditLog records user actions. storage.Store satisfies it.
type AuditLog interface {
	AppendAudit(ctx context.Context, e storage.AuditEntry) error
}

type Options struct {
	// Audit may be nil.
	Audit AuditLog
	Log   logx.Logger
	// PageSize is the number of entities per picker page.
	PageSize int
}

type Handlers struct {
	tr       *tracker.Tracker
	audit    AuditLog
	log      logx.Logger
	pageSize int
}

func New(tr *tracker.Tracker, opts Options) *Handlers {
	if opts.Log.IsZero() {
		opts.Log = logx.Nop()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 12
	}
	return &Handlers{
		tr:       tr,
		audit:    opts.Audit,
		log:      opts.Log.With(logx.String("comp", "commands")),
		pageSize: opts.PageSize,
	}
}

func (h *Handlers) Commands() []router.Command {
	return []router.Command{
		{Name: "kill", Aliases: []string{"k"}, Description: "Report a boss kill at the current time", Usage: "/kill <boss>", Handle: h.cmdKill},
		{Name: "killtime", Aliases: []string{"kt"}, Description: "Report a boss kill at a given time", Usage: "/killtime <boss> <time>", Handle: h.cmdKillTime},
		{Name: "status", Aliases: []string{"s"}, Description: "Show one boss or every boss", Usage: "/status [boss]", Handle: h.cmdStatus},
		{Name: "bosses", Aliases: []string{"list"}, Description: "List all tracked bosses", Usage: "/bosses", Handle: h.cmdBosses},
		{Name: "schedule", Aliases: []string{"sched"}, Description: "Weekly spawn times of a fixed-time boss", Usage: "/schedule <boss>", Handle: h.cmdSchedule},
		{Name: "location", Aliases: []string{"loc"}, Description: "Where a boss spawns", Usage: "/location <boss>", Handle: h.cmdLocation},
		{Name: "time", Description: "Current time in the tracker timezone", Usage: "/time", Handle: h.cmdTime},
		{Name: "menu", Description: "Interactive boss menu", Usage: "/menu", Handle: h.cmdMenu},
		{Name: "clear", Description: "Forget every reported kill", Usage: "/clear", Handle: h.cmdClear},
	}
}

func (h *Handlers) Callbacks() []router.CallbackRoute {
	route := func(action string, fn router.CallbackHandlerFunc) router.CallbackRoute {
		return router.CallbackRoute{Namespace: Namespace, Action: action, Handle: fn}
	}
	return []router.CallbackRoute{
		route(actMenu, h.cbMenu),
		route(actPick, h.cbPick),
		route(actKill, h.cbKill),
		route(actKillTime, h.cbKillTime),
		route(actStatus, h.cbStatus),
		route(actSchedule, h.cbSchedule),
		route(actLocation, h.cbLocation),
		route(actBosses, h.cbBosses),
		route(actTime, h.cbTime),
		route(actClear, h.cbClear),
	}
}

// record appends an audit entry; failures are logged only.
func (h *Handlers) record(ctx context.Context, req *router.Request, action, entityID, detail string) {
	if h.audit == nil {
		return
	}
	e := storage.AuditEntry{
		At:       time.Now(),
		ActorID:  req.FromID,
		Actor:    req.Reporter,
		ChatID:   req.Chat.ChatID,
		Action:   action,
		EntityID: entityID,
		Detail:   detail,
	}
	if err := h.audit.AppendAudit(ctx, e); err != nil {
		req.Logger.Warn("audit append failed", logx.String("action", action), logx.Err(err))
	}
}
