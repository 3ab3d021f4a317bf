package tgui

import (
	"strings"
	"testing"
)

func TestDataRoundTrip(t *testing.T) {
	d := Data("spawn", "kill", "lady dalia")
	if d != "spawn:kill:lady dalia" {
		t.Fatalf("Data = %q", d)
	}
	ns, action, payload, ok := ParseData(d)
	if !ok || ns != "spawn" || action != "kill" || payload != "lady dalia" {
		t.Fatalf("ParseData = %q %q %q %v", ns, action, payload, ok)
	}

	if _, _, payload, ok := ParseData("spawn:menu"); !ok || payload != "" {
		t.Fatalf("payload-less data: %q %v", payload, ok)
	}
	for _, bad := range []string{"", "spawn", ":kill", "spawn:"} {
		if _, _, _, ok := ParseData(bad); ok {
			t.Errorf("ParseData(%q) should fail", bad)
		}
	}
}

func TestDataCheckedTooLong(t *testing.T) {
	if _, err := DataChecked("spawn", "kill", strings.Repeat("x", 60)); err != ErrCallbackDataTooLong {
		t.Fatalf("err = %v", err)
	}
}

func TestBuilderEscapes(t *testing.T) {
	msg := New().Title("⚔️", "A & B").Line("<tag>").KV("Next", "1 < 2").Build()
	want := "⚔️ <b>A &amp; B</b>\n&lt;tag&gt;\n• <b>Next</b>: 1 &lt; 2"
	if msg.Text != want {
		t.Fatalf("text = %q\nwant %q", msg.Text, want)
	}
	if msg.Opt.ParseMode != "HTML" || !msg.Opt.DisablePreview || msg.Opt.ReplyMarkupAdapter != nil {
		t.Fatalf("opts = %+v", msg.Opt)
	}
}

func TestInlineGrid(t *testing.T) {
	kb := NewInline().Grid(3, []Button{Btn("a", "x:a"), Btn("b", "x:b"), Btn("c", "x:c"), Btn("d", "x:d")})
	if kb.Rows() != 2 {
		t.Fatalf("rows = %d", kb.Rows())
	}
	if got := len(kb.Markup().InlineKeyboard[1]); got != 1 {
		t.Fatalf("second row = %d buttons", got)
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	p := Paginate(items, 1, 2)
	if len(p.Items) != 2 || p.Items[0] != 3 || !p.HasPrev || !p.HasNext || p.Pages != 3 {
		t.Fatalf("page = %+v", p)
	}
	last := Paginate(items, 9, 2)
	if last.Index != 2 || len(last.Items) != 1 || last.HasNext {
		t.Fatalf("clamped page = %+v", last)
	}
	if got := Paginate([]int(nil), 0, 2).Label(); got != "Page 1/1" {
		t.Fatalf("label = %q", got)
	}
}

func TestTruncRunes(t *testing.T) {
	if got := TruncRunes("héllo wörld", 5); got != "héll…" {
		t.Fatalf("got %q", got)
	}
	if got := TruncRunes("short", 10); got != "short" {
		t.Fatalf("got %q", got)
	}
}
