package router

import (
	"context"
	"time"

	kit "spawnbot/internal/transport"
	"spawnbot/pkg/logx"
	"spawnbot/pkg/tgui"
)

type HandlerFunc func(ctx context.Context, req *Request) error

type CallbackHandlerFunc func(ctx context.Context, req *Request, payload string) error

type Command struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
	// Hidden commands are routed but left out of help and the menu.
	Hidden  bool
	Timeout time.Duration // per-command override
	Handle  HandlerFunc
}

// CallbackRoute handles inline button data "namespace:action[:payload]".
type CallbackRoute struct {
	Namespace string
	Action    string
	Timeout   time.Duration
	Handle    CallbackHandlerFunc
}

type Request struct {
	Update   kit.Update
	Chat     kit.ChatTarget
	FromID   int64
	Reporter string
	Command  string
	// Args are the whitespace/quote separated tokens after the command word;
	// ArgText is the same input as one trimmed string.
	Args    []string
	ArgText string
	Payload string
	// Ref points at the message carrying the pressed button (callbacks only).
	Ref   kit.MessageRef
	ReqID string

	Sender kit.Sender
	Logger logx.Logger
}

func (r *Request) IsCallback() bool { return r.Update.Kind == kit.UpdateCallback }

// Reply sends msg to the request's chat.
func (r *Request) Reply(ctx context.Context, msg tgui.Message) error {
	_, err := msg.Send(ctx, r.Sender, r.Chat)
	return err
}

// Respond edits the button message in place for callbacks and sends a new
// message otherwise.
func (r *Request) Respond(ctx context.Context, msg tgui.Message) error {
	if r.IsCallback() && r.Ref.MessageID != 0 {
		return msg.Edit(ctx, r.Sender, r.Ref)
	}
	return r.Reply(ctx, msg)
}
