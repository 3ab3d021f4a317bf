package adapter

import (
	"strings"
	"testing"
	"unicode/utf8"

	kit "spawnbot/internal/transport"
)

func TestSplitTelegramTextShort(t *testing.T) {
	got := splitTelegramText("hello", 10, "")
	if len(got) != 1 || got[0] != "hello" {
		t.Fatalf("got %q", got)
	}
}

func TestSplitTelegramTextPrefersNewlines(t *testing.T) {
	line := strings.Repeat("x", 30)
	text := strings.Join([]string{line, line, line, line}, "\n")

	got := splitTelegramText(text, 70, "")
	if len(got) != 2 {
		t.Fatalf("chunks = %d (%q)", len(got), got)
	}
	for _, c := range got {
		if utf8.RuneCountInString(c) > 70 {
			t.Fatalf("chunk too long: %d", utf8.RuneCountInString(c))
		}
		if strings.HasPrefix(c, "\n") || strings.HasSuffix(c, "\n") {
			t.Fatalf("chunk has edge newline: %q", c)
		}
	}
	if got[0] != line+"\n"+line {
		t.Fatalf("first chunk = %q", got[0])
	}
}

func TestSplitTelegramTextAvoidsOpenTag(t *testing.T) {
	text := strings.Repeat("a", 18) + "<b>bold</b>" + strings.Repeat("c", 20)
	got := splitTelegramText(text, 20, "HTML")
	if got[0] != strings.Repeat("a", 18) {
		t.Fatalf("first chunk = %q", got[0])
	}
	if !strings.HasPrefix(got[1], "<b>") {
		t.Fatalf("second chunk = %q", got[1])
	}
}

func TestMenuCommandsLimits(t *testing.T) {
	cmds := []kit.BotCommand{
		{Command: "/kill", Description: "Report a kill"},
		{Command: " "},
		{Command: "status", Description: strings.Repeat("d", 300)},
		{Command: "time"},
	}
	got := menuCommands(cmds)
	if len(got) != 3 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].Text != "kill" {
		t.Fatalf("prefix not trimmed: %q", got[0].Text)
	}
	if len(got[1].Description) != 256 {
		t.Fatalf("description len = %d", len(got[1].Description))
	}
	if got[2].Description != "time" {
		t.Fatalf("empty description should fall back to name, got %q", got[2].Description)
	}
}
