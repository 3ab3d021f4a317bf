package router

import (
	"strings"

	"spawnbot/pkg/tgui"
)

// helpMessage renders the command list, or details for args[0].
func (m *CommandManager) helpMessage(args []string) tgui.Message {
	if len(args) > 0 {
		word := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(args[0]), "/"))
		c, ok := m.lookup(word)
		if !ok {
			return tgui.New().
				Title("❓", "Unknown command").
				RawLine("Type "+tgui.Code("/help")+" to see every command.").
				Build()
		}
		return commandHelp(c)
	}

	m.mu.RLock()
	ordered := append([]*Command(nil), m.ordered...)
	m.mu.RUnlock()

	b := tgui.New().Title("📚", "Commands").Blank()
	for _, c := range ordered {
		if c.Hidden {
			continue
		}
		line := "• " + tgui.Code("/"+c.Name)
		if d := strings.TrimSpace(c.Description); d != "" {
			line += " - " + tgui.Esc(d)
		}
		b.RawLine(line)
	}
	return b.Blank().RawLine("Type " + tgui.Code("/help <command>") + " for details.").Build()
}

func commandHelp(c *Command) tgui.Message {
	b := tgui.New().Title("📚", "/"+c.Name)
	if d := strings.TrimSpace(c.Description); d != "" {
		b.Line(d)
	}
	if u := strings.TrimSpace(c.Usage); u != "" {
		b.Blank().RawLine(tgui.B("Usage")).RawLine(tgui.Code(u))
	}
	if len(c.Aliases) > 0 {
		parts := make([]tgui.H, 0, len(c.Aliases))
		for _, a := range c.Aliases {
			parts = append(parts, tgui.Code("/"+a))
		}
		b.Blank().RawLine(tgui.B("Aliases") + " " + tgui.JoinH(", ", parts...))
	}
	return b.Build()
}
