package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"spawnbot/pkg/logx"
)

func openTestStores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	out := map[string]Store{}
	for _, driver := range []string{"file", "sqlite"} {
		st, err := Open(Config{Driver: driver, Path: filepath.Join(dir, driver, "spawnbot.db")}, logx.Nop())
		if err != nil {
			t.Fatalf("open %s: %v", driver, err)
		}
		t.Cleanup(func() { _ = st.Close() })
		out[driver] = st
	}
	return out
}

func TestOpenDisabled(t *testing.T) {
	st, err := Open(Config{Driver: "none"}, logx.Nop())
	if err != nil || st != nil {
		t.Fatalf("Open(none) = %v, %v", st, err)
	}
	if _, err := Open(Config{Driver: "redis"}, logx.Nop()); err == nil {
		t.Fatalf("unknown driver should fail")
	}
	if _, err := Open(Config{Driver: "file"}, logx.Nop()); err == nil {
		t.Fatalf("file driver without path should fail")
	}
}

func TestLoadEmpty(t *testing.T) {
	for name, st := range openTestStores(t) {
		t.Run(name, func(t *testing.T) {
			got, err := st.LoadStates(context.Background())
			if err != nil {
				t.Fatalf("LoadStates: %v", err)
			}
			if len(got) != 0 {
				t.Fatalf("expected empty map, got %v", got)
			}
		})
	}
}

func TestStatesRoundTrip(t *testing.T) {
	loc := time.FixedZone("PHT", 8*3600)
	reset := time.Date(2024, 1, 15, 14, 30, 12, 345000000, loc)
	next := reset.Add(24 * time.Hour)

	want := map[string]StateRecord{
		"venatus":   {LastResetAt: &reset, NextOccurrenceAt: &next, FiredFor: &next, ReportedBy: "maria"},
		"clemantis": {},
	}

	for name, st := range openTestStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := st.SaveStates(ctx, want); err != nil {
				t.Fatalf("SaveStates: %v", err)
			}
			got, err := st.LoadStates(ctx)
			if err != nil {
				t.Fatalf("LoadStates: %v", err)
			}
			if len(got) != len(want) {
				t.Fatalf("len = %d, want %d", len(got), len(want))
			}
			v := got["venatus"]
			if v.LastResetAt == nil || !v.LastResetAt.Equal(reset) {
				t.Fatalf("last_reset_at = %v, want %v", v.LastResetAt, reset)
			}
			if v.NextOccurrenceAt == nil || !v.NextOccurrenceAt.Equal(next) {
				t.Fatalf("next_occurrence_at = %v", v.NextOccurrenceAt)
			}
			if v.FiredFor == nil || !v.FiredFor.Equal(next) || v.ReportedBy != "maria" {
				t.Fatalf("unexpected record %+v", v)
			}
			if c := got["clemantis"]; c.LastResetAt != nil || c.FiredFor != nil {
				t.Fatalf("empty record came back non-empty: %+v", c)
			}

			// a second save replaces the first
			if err := st.SaveStates(ctx, map[string]StateRecord{"viorent": {}}); err != nil {
				t.Fatalf("SaveStates: %v", err)
			}
			got, _ = st.LoadStates(ctx)
			if _, ok := got["venatus"]; ok || len(got) != 1 {
				t.Fatalf("save did not replace state: %v", got)
			}
		})
	}
}

func TestAppendAudit(t *testing.T) {
	for name, st := range openTestStores(t) {
		t.Run(name, func(t *testing.T) {
			err := st.AppendAudit(context.Background(), AuditEntry{Action: "reset", EntityID: "venatus", Actor: "maria"})
			if err != nil {
				t.Fatalf("AppendAudit: %v", err)
			}
		})
	}
}

func TestFileSnapshotIsAtomic(t *testing.T) {
	dir := t.TempDir()
	st, err := Open(Config{Driver: "file", Path: filepath.Join(dir, "state.json")}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	if err := st.SaveStates(context.Background(), map[string]StateRecord{"ego": {}}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "state.state.json.tmp")); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "state.state.json"), []byte(`{"version":99}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := st.LoadStates(context.Background()); err == nil {
		t.Fatalf("newer snapshot version should be rejected")
	}
}
