package tgui

import (
	"context"
	"strings"

	tele "gopkg.in/telebot.v4"

	kit "spawnbot/internal/transport"
)

// Message is a rendered reply: HTML text plus send options.
type Message struct {
	Text string
	Opt  *kit.SendOptions
}

// Text builds a Message from plain text, escaping it.
func Text(s string) Message {
	return New().Line(s).Build()
}

func (m Message) IsZero() bool { return m.Text == "" }

func (m Message) options() *kit.SendOptions {
	if m.Opt == nil {
		return &kit.SendOptions{ParseMode: tele.ModeHTML, DisablePreview: true}
	}
	return m.Opt
}

func (m Message) Send(ctx context.Context, s kit.Sender, to kit.ChatTarget) (kit.MessageRef, error) {
	return s.SendText(ctx, to, m.Text, m.options())
}

// Edit replaces the message at ref in place.
func (m Message) Edit(ctx context.Context, s kit.Sender, ref kit.MessageRef) error {
	return s.EditText(ctx, ref, m.Text, m.options())
}

// Builder assembles an HTML message line by line. Line and KV escape their
// input; RawLine does not.
type Builder struct {
	rm    *tele.ReplyMarkup
	lines []string
}

func New() *Builder { return &Builder{} }

// Inline attaches an inline keyboard; nil removes it.
func (b *Builder) Inline(kb *Inline) *Builder {
	b.rm = nil
	if kb != nil {
		b.rm = kb.Markup()
	}
	return b
}

// Title adds a bold title, optionally prefixed by an emoji.
func (b *Builder) Title(emoji, title string) *Builder {
	t := strings.TrimSpace(title)
	if t == "" {
		return b
	}
	line := B(t).String()
	if e := strings.TrimSpace(emoji); e != "" {
		line = e + " " + line
	}
	b.lines = append(b.lines, line)
	return b
}

func (b *Builder) Line(s string) *Builder {
	b.lines = append(b.lines, Esc(s).String())
	return b
}

func (b *Builder) RawLine(s H) *Builder {
	b.lines = append(b.lines, s.String())
	return b
}

func (b *Builder) Blank() *Builder {
	b.lines = append(b.lines, "")
	return b
}

// KV adds a "• key: value" row with a bold key.
func (b *Builder) KV(key, value string) *Builder {
	key = strings.TrimSpace(key)
	if key == "" {
		return b
	}
	b.lines = append(b.lines, "• "+B(key).String()+": "+Esc(strings.TrimSpace(value)).String())
	return b
}

func (b *Builder) Pre(code string) *Builder {
	code = strings.TrimRight(code, "\n")
	if code != "" {
		b.lines = append(b.lines, Pre(code).String())
	}
	return b
}

func (b *Builder) Build() Message {
	opt := &kit.SendOptions{ParseMode: tele.ModeHTML, DisablePreview: true}
	if b.rm != nil {
		opt.ReplyMarkupAdapter = b.rm
	}
	return Message{Text: strings.Trim(strings.Join(b.lines, "\n"), "\n"), Opt: opt}
}
