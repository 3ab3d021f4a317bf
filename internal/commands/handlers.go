package commands

import (
	"context"
	"errors"
	"strings"
	"time"

	"spawnbot/internal/tracker"
	"spawnbot/internal/transport/telegram/router"
	"spawnbot/pkg/logx"
	"spawnbot/pkg/tgui"
)

func usage(u string) tgui.Message {
	return tgui.New().RawLine("Usage: " + tgui.Code(u)).Build()
}

// entityArg is the boss id named by the whole argument list. Tokens are
// used rather than ArgText so quoted ids lose their quotes.
func entityArg(req *router.Request) string {
	return strings.Join(req.Args, " ")
}

// splitEntityArgs takes the longest leading run of tokens that names a boss
// and leaves at least one token for the rest. An unknown id falls back to the
// first token so the error names it.
func (h *Handlers) splitEntityArgs(args []string) (string, []string) {
	for n := len(args) - 1; n > 1; n-- {
		if id := strings.Join(args[:n], " "); h.known(id) {
			return id, args[n:]
		}
	}
	return args[0], args[1:]
}

func (h *Handlers) known(id string) bool {
	_, err := h.tr.Lookup(id)
	return err == nil
}

func (h *Handlers) cmdKill(ctx context.Context, req *router.Request) error {
	if len(req.Args) == 0 {
		return req.Reply(ctx, usage("/kill <boss>"))
	}
	return req.Reply(ctx, h.kill(ctx, req, entityArg(req)))
}

func (h *Handlers) kill(ctx context.Context, req *router.Request, id string) tgui.Message {
	res, err := h.tr.ReportReset(ctx, id, nil, req.Reporter)
	if err != nil {
		return renderError(id, err)
	}
	h.record(ctx, req, "kill", res.Entity.ID, res.ResetAt.Format(time.RFC3339))
	return renderReset(res)
}

// cmdKillTime takes the boss id first and the time as the rest:
// "/killtime venatus 2024-01-15 14:30".
func (h *Handlers) cmdKillTime(ctx context.Context, req *router.Request) error {
	if len(req.Args) < 2 {
		return req.Reply(ctx, renderKillTimeUsage(""))
	}
	id, rest := h.splitEntityArgs(req.Args)
	text := strings.Join(rest, " ")

	at, err := tracker.ParseManualTime(text, h.tr.Now())
	if err != nil {
		var pe *tracker.ParseError
		if errors.As(err, &pe) {
			req.Logger.Debug("manual time rejected", logx.String("input", text), logx.Err(err))
		}
		return req.Reply(ctx, renderError(id, err))
	}
	res, err := h.tr.ReportReset(ctx, id, &at, req.Reporter)
	if err != nil {
		return req.Reply(ctx, renderError(id, err))
	}
	h.record(ctx, req, "killtime", res.Entity.ID, text)
	return req.Reply(ctx, renderReset(res))
}

func (h *Handlers) cmdStatus(ctx context.Context, req *router.Request) error {
	if len(req.Args) == 0 {
		return req.Reply(ctx, renderStatusAll(h.tr.StatusAll(), h.tr.Now()))
	}
	return req.Reply(ctx, h.status(entityArg(req)))
}

func (h *Handlers) status(id string) tgui.Message {
	st, err := h.tr.Status(id)
	if err != nil {
		return renderError(id, err)
	}
	return renderStatus(st)
}

func (h *Handlers) cmdBosses(ctx context.Context, req *router.Request) error {
	return req.Reply(ctx, renderBosses(h.tr.Catalog()))
}

func (h *Handlers) cmdSchedule(ctx context.Context, req *router.Request) error {
	if len(req.Args) == 0 {
		return req.Reply(ctx, usage("/schedule <boss>"))
	}
	return req.Reply(ctx, h.schedule(entityArg(req)))
}

func (h *Handlers) schedule(id string) tgui.Message {
	info, err := h.tr.Schedule(id)
	if err != nil {
		return renderError(id, err)
	}
	return renderSchedule(info)
}

func (h *Handlers) cmdLocation(ctx context.Context, req *router.Request) error {
	if len(req.Args) == 0 {
		return req.Reply(ctx, usage("/location <boss>"))
	}
	return req.Reply(ctx, h.location(entityArg(req)))
}

func (h *Handlers) location(id string) tgui.Message {
	def, err := h.tr.Lookup(id)
	if err != nil {
		return renderError(id, err)
	}
	return renderLocation(def)
}

func (h *Handlers) cmdTime(ctx context.Context, req *router.Request) error {
	return req.Reply(ctx, renderTime(h.tr.Now()))
}

func (h *Handlers) cmdMenu(ctx context.Context, req *router.Request) error {
	return req.Reply(ctx, renderMenu())
}

// cmdClear asks for confirmation; "/clear confirm" skips it.
func (h *Handlers) cmdClear(ctx context.Context, req *router.Request) error {
	if strings.EqualFold(req.ArgText, "confirm") {
		return req.Reply(ctx, h.clear(ctx, req))
	}
	return req.Reply(ctx, renderClearConfirm())
}

func (h *Handlers) clear(ctx context.Context, req *router.Request) tgui.Message {
	n := h.tr.ClearAll(ctx)
	h.record(ctx, req, "clear", "", "")
	return renderCleared(n)
}
