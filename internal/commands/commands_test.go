package commands

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	"spawnbot/internal/storage"
	"spawnbot/internal/tracker"
	kit "spawnbot/internal/transport"
	"spawnbot/internal/transport/telegram/router"
	"spawnbot/pkg/logx"
	"spawnbot/pkg/tgui"
)

var pht = time.FixedZone("PHT", 8*3600)

// t0 is Monday 2024-01-15 12:00 PHT.
var t0 = time.Date(2024, 1, 15, 12, 0, 0, 0, pht)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type captureSender struct {
	mu    sync.Mutex
	texts []string
	edits []string
}

func (c *captureSender) SendText(_ context.Context, to kit.ChatTarget, text string, _ *kit.SendOptions) (kit.MessageRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts = append(c.texts, text)
	return kit.MessageRef{ChatID: to.ChatID, MessageID: len(c.texts)}, nil
}

func (c *captureSender) EditText(_ context.Context, _ kit.MessageRef, text string, _ *kit.SendOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.edits = append(c.edits, text)
	return nil
}

func (c *captureSender) AnswerCallback(context.Context, string, string) error { return nil }

func (c *captureSender) last(t *testing.T) string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.texts) == 0 {
		t.Fatalf("nothing sent")
	}
	return c.texts[len(c.texts)-1]
}

type memAudit struct {
	mu      sync.Mutex
	entries []storage.AuditEntry
}

func (a *memAudit) AppendAudit(_ context.Context, e storage.AuditEntry) error {
	a.mu.Lock()
	a.entries = append(a.entries, e)
	a.mu.Unlock()
	return nil
}

func testCatalog(t *testing.T) *tracker.Catalog {
	t.Helper()
	c, err := tracker.NewCatalog([]tracker.EntityDefinition{
		{ID: "venatus", Location: "Corrupted Basin", Kind: tracker.KindVariable, IntervalHours: 10},
		{ID: "livera", Location: "Protector's Ruins", Kind: tracker.KindVariable, IntervalHours: 24},
		{ID: "clemantis", Location: "Corrupted Basin", Kind: tracker.KindFixed, Slots: []tracker.Slot{
			{Weekday: time.Monday, Hour: 11, Minute: 30},
			{Weekday: time.Thursday, Hour: 19, Minute: 0},
		}},
	})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return c
}

type fixture struct {
	h      *Handlers
	tr     *tracker.Tracker
	sender *captureSender
	audit  *memAudit
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tr := tracker.New(testCatalog(t), tracker.Options{Clock: fixedClock{now: t0}})
	audit := &memAudit{}
	return &fixture{
		h:      New(tr, Options{Audit: audit, PageSize: 2}),
		tr:     tr,
		sender: &captureSender{},
		audit:  audit,
	}
}

func (f *fixture) request(args ...string) *router.Request {
	return &router.Request{
		Update:   kit.Update{Kind: kit.UpdateMessage},
		Chat:     kit.ChatTarget{ChatID: 42},
		FromID:   7,
		Reporter: "Ana",
		Args:     args,
		ArgText:  strings.Join(args, " "),
		Sender:   f.sender,
		Logger:   logx.Nop(),
	}
}

func TestKillRecordsResetAndAudit(t *testing.T) {
	f := newFixture(t)
	if err := f.h.cmdKill(context.Background(), f.request("Venatus")); err != nil {
		t.Fatalf("cmdKill: %v", err)
	}
	got := f.sender.last(t)
	for _, want := range []string{
		"<b>Venatus</b> defeated at <code>2024-01-15 12:00 PM PHT</code>",
		"Respawns at <code>2024-01-15 10:00 PM PHT</code>",
		"In 10 hours",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("reply missing %q:\n%s", want, got)
		}
	}

	st, _ := f.tr.Status("venatus")
	if st.Condition != tracker.ConditionDead || st.ReportedBy != "Ana" {
		t.Fatalf("status = %+v", st)
	}
	if len(f.audit.entries) != 1 || f.audit.entries[0].Action != "kill" || f.audit.entries[0].EntityID != "venatus" {
		t.Fatalf("audit = %+v", f.audit.entries)
	}
}

func TestKillRejectsFixedAndUnknown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_ = f.h.cmdKill(ctx, f.request("clemantis"))
	if got := f.sender.last(t); !strings.Contains(got, "fixed-time boss") || !strings.Contains(got, "/schedule clemantis") {
		t.Fatalf("fixed reply = %s", got)
	}

	_ = f.h.cmdKill(ctx, f.request("nobody"))
	if got := f.sender.last(t); !strings.Contains(got, "Unknown boss <code>nobody</code>") {
		t.Fatalf("unknown reply = %s", got)
	}
	if len(f.audit.entries) != 0 {
		t.Fatalf("rejected kills must not be audited")
	}
}

func TestKillTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.h.cmdKillTime(ctx, f.request("livera", "2024-01-15", "09:15")); err != nil {
		t.Fatalf("cmdKillTime: %v", err)
	}
	st, _ := f.tr.Status("livera")
	if want := time.Date(2024, 1, 15, 9, 15, 0, 0, pht); !st.LastResetAt.Equal(want) {
		t.Fatalf("reset at %v, want %v", st.LastResetAt, want)
	}
	if f.audit.entries[0].Detail != "2024-01-15 09:15" {
		t.Fatalf("audit detail = %q", f.audit.entries[0].Detail)
	}

	_ = f.h.cmdKillTime(ctx, f.request("livera", "13/40", "99:99"))
	got := f.sender.last(t)
	if !strings.Contains(got, "Invalid time") || !strings.Contains(got, "<code>YYYY-MM-DD HH:MM</code>") {
		t.Fatalf("parse error reply = %s", got)
	}

	_ = f.h.cmdKillTime(ctx, f.request("livera"))
	if got := f.sender.last(t); !strings.Contains(got, "/killtime &lt;boss&gt; &lt;time&gt;") {
		t.Fatalf("usage reply = %s", got)
	}

	// the tokenizer strips quotes from Args; ArgText keeps them
	req := f.request("livera", "2024-01-15", "10:45")
	req.ArgText = `"livera" 2024-01-15 10:45`
	if err := f.h.cmdKillTime(ctx, req); err != nil {
		t.Fatalf("quoted cmdKillTime: %v", err)
	}
	st, _ = f.tr.Status("livera")
	if want := time.Date(2024, 1, 15, 10, 45, 0, 0, pht); !st.LastResetAt.Equal(want) {
		t.Fatalf("quoted id: reset at %v, want %v (reply %s)", st.LastResetAt, want, f.sender.last(t))
	}
}

func TestKillTimeMultiWordID(t *testing.T) {
	cat, err := tracker.NewCatalog([]tracker.EntityDefinition{
		{ID: "lady dalia", Location: "Twilight Hill", Kind: tracker.KindVariable, IntervalHours: 18},
	})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	tr := tracker.New(cat, tracker.Options{Clock: fixedClock{now: t0}})
	f := &fixture{h: New(tr, Options{}), tr: tr, sender: &captureSender{}}

	if err := f.h.cmdKillTime(context.Background(), f.request("lady", "dalia", "2024-01-15", "08:00")); err != nil {
		t.Fatalf("cmdKillTime: %v", err)
	}
	st, _ := tr.Status("lady dalia")
	if want := time.Date(2024, 1, 15, 8, 0, 0, 0, pht); !st.LastResetAt.Equal(want) {
		t.Fatalf("reset at %v, want %v (reply %s)", st.LastResetAt, want, f.sender.last(t))
	}
}

func TestQuotedEntityID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.request("venatus")
	req.ArgText = `"venatus"`
	if err := f.h.cmdKill(ctx, req); err != nil {
		t.Fatalf("cmdKill: %v", err)
	}
	if got := f.sender.last(t); !strings.Contains(got, "<b>Venatus</b> defeated") {
		t.Fatalf("quoted kill = %s", got)
	}

	req = f.request("venatus")
	req.ArgText = `'venatus'`
	_ = f.h.cmdStatus(ctx, req)
	if got := f.sender.last(t); !strings.Contains(got, "DEAD") {
		t.Fatalf("quoted status = %s", got)
	}
}

func TestStatusRendering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_ = f.h.cmdStatus(ctx, f.request("venatus"))
	if got := f.sender.last(t); !strings.Contains(got, "Not killed yet") {
		t.Fatalf("unknown status = %s", got)
	}

	_ = f.h.cmdStatus(ctx, f.request("clemantis"))
	got := f.sender.last(t)
	for _, want := range []string{"DEAD", "Time left: 3d 7h 0m", "• Monday at 11:30", "• Thursday at 19:00"} {
		if !strings.Contains(got, want) {
			t.Errorf("fixed status missing %q:\n%s", want, got)
		}
	}

	_, _ = f.tr.ReportReset(ctx, "venatus", nil, "Ana")
	_ = f.h.cmdStatus(ctx, f.request())
	got = f.sender.last(t)
	if !strings.Contains(got, "❌ Venatus - 10h 0m") || !strings.Contains(got, "Not killed yet") || !strings.Contains(got, "Livera") {
		t.Fatalf("status list = %s", got)
	}
	if strings.Index(got, "Venatus") > strings.Index(got, "Clemantis") {
		t.Fatalf("venatus spawns first and should be listed first:\n%s", got)
	}
}

func TestScheduleAndLocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_ = f.h.cmdSchedule(ctx, f.request("clemantis"))
	if got := f.sender.last(t); !strings.Contains(got, "2024-01-18 07:00 PM PHT") {
		t.Fatalf("schedule = %s", got)
	}
	_ = f.h.cmdSchedule(ctx, f.request("venatus"))
	if got := f.sender.last(t); !strings.Contains(got, "is not a fixed-time boss") {
		t.Fatalf("schedule on variable = %s", got)
	}

	_ = f.h.cmdLocation(ctx, f.request("livera"))
	if got := f.sender.last(t); !strings.Contains(got, "Protector&#39;s Ruins") || !strings.Contains(got, "24 hours") {
		t.Fatalf("location = %s", got)
	}
	_ = f.h.cmdLocation(ctx, f.request("clemantis"))
	if got := f.sender.last(t); !strings.Contains(got, "Fixed schedule") {
		t.Fatalf("fixed location = %s", got)
	}
}

func TestBossesAndTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_ = f.h.cmdBosses(ctx, f.request())
	got := f.sender.last(t)
	if !strings.Contains(got, "FIXED-TIME") || !strings.Contains(got, "10H") || !strings.Contains(got, "<pre>") {
		t.Fatalf("bosses = %s", got)
	}

	_ = f.h.cmdTime(ctx, f.request())
	if got := f.sender.last(t); !strings.Contains(got, "2024-01-15 12:00:00 PM PHT") {
		t.Fatalf("time = %s", got)
	}
}

func TestStartupMessage(t *testing.T) {
	msg := StartupMessage(tracker.DefaultCatalog(), t0)
	if !strings.Contains(msg.Text, "Tracking 31 bosses") || !strings.Contains(msg.Text, "2024-01-15 12:00 PM PHT") {
		t.Fatalf("startup = %s", msg.Text)
	}
}

func TestClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _ = f.tr.ReportReset(ctx, "venatus", nil, "Ana")

	_ = f.h.cmdClear(ctx, f.request())
	if got := f.sender.last(t); !strings.Contains(got, "Clear all boss timers?") {
		t.Fatalf("confirm = %s", got)
	}
	if st, _ := f.tr.Status("venatus"); st.Condition != tracker.ConditionDead {
		t.Fatalf("state cleared before confirmation")
	}

	req := f.request()
	req.Update.Kind = kit.UpdateCallback
	req.Ref = kit.MessageRef{ChatID: 42, MessageID: 5}
	if err := f.h.cbClear(ctx, req, "yes"); err != nil {
		t.Fatalf("cbClear: %v", err)
	}
	if len(f.sender.edits) != 1 || !strings.Contains(f.sender.edits[0], "1 bosses had a reported kill") {
		t.Fatalf("edits = %q", f.sender.edits)
	}
	if st, _ := f.tr.Status("venatus"); st.Condition != tracker.ConditionUnknown {
		t.Fatalf("state not cleared")
	}
}

func TestPickerPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.request()
	req.Update.Kind = kit.UpdateCallback
	req.Ref = kit.MessageRef{ChatID: 42, MessageID: 5}
	if err := f.h.cbPick(ctx, req, "status:1"); err != nil {
		t.Fatalf("cbPick: %v", err)
	}
	got := f.sender.edits[0]
	if !strings.Contains(got, "Select a boss to check status:") || !strings.Contains(got, "Page 2/2") {
		t.Fatalf("picker = %s", got)
	}

	// kill pickers only offer variable-interval entities
	msg := renderPicker(f.tr.Catalog(), actKill, 0, 10)
	for _, row := range markup(t, msg).InlineKeyboard {
		for _, btn := range row {
			if strings.Contains(btn.Data, "clemantis") {
				t.Fatalf("fixed boss offered for kill: %q", btn.Data)
			}
		}
	}
}

func TestCallbackDataFitsDefaultCatalog(t *testing.T) {
	cat := tracker.DefaultCatalog()
	for action := range pickPrompts {
		for page := 0; page < 4; page++ {
			msg := renderPicker(cat, action, page, 12)
			for _, row := range markup(t, msg).InlineKeyboard {
				for _, btn := range row {
					if len(btn.Data) > tgui.MaxCallbackDataLen {
						t.Fatalf("callback data too long: %q", btn.Data)
					}
				}
			}
		}
	}
}

func markup(t *testing.T, msg tgui.Message) *tele.ReplyMarkup {
	t.Helper()
	rm, ok := msg.Opt.ReplyMarkupAdapter.(*tele.ReplyMarkup)
	if !ok {
		t.Fatalf("message has no inline keyboard")
	}
	return rm
}
