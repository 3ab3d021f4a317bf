package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

// run executes the root command with args against a config path that does
// not exist, so defaults apply.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.json")}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestBossesListsCatalog(t *testing.T) {
	out, err := run(t, "bosses")
	if err != nil {
		t.Fatalf("bosses: %v", err)
	}
	for _, want := range []string{"ID", "venatus", "10h", "Corrupted Basin", "clemantis", "fixed"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestNextFixedAndVariable(t *testing.T) {
	out, err := run(t, "next", "clemantis", "-n", "1")
	if err != nil {
		t.Fatalf("next clemantis: %v", err)
	}
	if strings.Count(out, "(in ") != 1 {
		t.Fatalf("expected one slot line:\n%s", out)
	}

	if _, err := run(t, "next", "venatus", "--reset", ""); err == nil {
		t.Fatal("variable entity without --reset should fail")
	}
	out, err = run(t, "next", "Venatus", "--reset", "2026-01-02 08:00")
	if err != nil {
		t.Fatalf("next venatus: %v", err)
	}
	if !strings.Contains(out, "respawns 2026-01-02 06:00 PM") {
		t.Fatalf("unexpected respawn line:\n%s", out)
	}

	if _, err := run(t, "next", "nobody"); err == nil {
		t.Fatal("unknown entity should fail")
	}
}

func TestParseTime(t *testing.T) {
	out, err := run(t, "parse-time", "2026-03-04", "05:06")
	if err != nil {
		t.Fatalf("parse-time: %v", err)
	}
	if !strings.Contains(out, "parsed: 2026-03-04T05:06:00+08:00") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if _, err := run(t, "parse-time", "tomorrow"); err == nil {
		t.Fatal("expected parse error")
	}
}
