package logx

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestZeroLoggerIsNoop(t *testing.T) {
	var l Logger
	if !l.IsZero() {
		t.Fatalf("zero logger should report IsZero")
	}
	l.Info("ignored", String("k", "v"))
	if l.With(Int("n", 1)).IsZero() {
		t.Fatalf("logger with fields should not be zero")
	}
}

func TestFieldsAreWrittenInOrder(t *testing.T) {
	var buf bytes.Buffer
	l := FromZerolog(zerolog.New(&buf)).With(String("comp", "tracker"))
	l.Warn("send failed", String("entity", "venatus"), Err(errors.New("boom")), String("entity", "viorent"))

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("unmarshal: %v (%s)", err, buf.String())
	}
	if m["comp"] != "tracker" || m["message"] != "send failed" {
		t.Fatalf("unexpected line: %v", m)
	}
	if !strings.Contains(buf.String(), `"entity":"viorent"`) {
		t.Fatalf("later field should be present: %s", buf.String())
	}
	if _, ok := m["caller"]; !ok {
		t.Fatalf("caller missing: %v", m)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"loud":    zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in, zerolog.InfoLevel); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFormatTelegramLine(t *testing.T) {
	line := []byte(`{"level":"warn","time":"x","message":"persist failed","comp":"storage","err":"disk full"}` + "\n")
	got := formatTelegramLine(line)
	want := "[WARN] persist failed\n- comp=storage\n- err=disk full"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	if got := formatTelegramLine([]byte("plain text\n")); got != "plain text" {
		t.Fatalf("non-json line: %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdefghijklmnop", 12); got != "abcdefghi..." {
		t.Fatalf("truncate: %q", got)
	}
	if got := truncate("short", 12); got != "short" {
		t.Fatalf("truncate short: %q", got)
	}
}
