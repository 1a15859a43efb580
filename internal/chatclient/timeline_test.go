package chatclient

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"

	types "github.com/yungbote/rentalchat-backend/internal/domain"
)

func msg(id int64, sender uuid.UUID, body string, at time.Time) Message {
	return Message{ID: id, SenderID: sender, Body: body, CreatedAt: at}
}

func bodies(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Body)
	}
	return out
}

func TestTimelineMergeIsOrderedAndIdempotent(t *testing.T) {
	me, them := uuid.New(), uuid.New()
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	tl := NewTimeline()

	// Newest page first, then an older page, then a duplicate stream echo.
	if n := tl.Merge(msg(4, them, "d", at), msg(5, me, "e", at)); n != 2 {
		t.Fatalf("added=%d want 2", n)
	}
	if n := tl.Merge(msg(1, me, "a", at), msg(2, them, "b", at), msg(3, me, "c", at)); n != 3 {
		t.Fatalf("added=%d want 3", n)
	}
	if n := tl.Merge(msg(5, me, "e", at), msg(0, me, "no id", at)); n != 0 {
		t.Fatalf("added=%d want 0", n)
	}

	if diff := cmp.Diff([]string{"a", "b", "c", "d", "e"}, bodies(tl.Entries())); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if got := tl.OldestID(); got == nil || *got != 1 {
		t.Fatalf("oldest=%v want 1", got)
	}
}

func TestTimelinePendingReconciliation(t *testing.T) {
	me, them := uuid.New(), uuid.New()
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	tl := NewTimeline()
	tl.Merge(msg(1, them, "hi", at))

	first := tl.AddPending(me, "is it free?", at)
	second := tl.AddPending(me, "also parking?", at)
	failed := tl.AddPending(me, "lost", at)

	entries := tl.Entries()
	if diff := cmp.Diff([]string{"hi", "is it free?", "also parking?", "lost"}, bodies(entries)); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if !entries[1].Pending || entries[0].Pending {
		t.Fatalf("pending flags wrong: %+v", entries)
	}

	// Stream echo arrives before the post response for the first message.
	tl.Merge(msg(2, me, "is it free?", at))
	tl.Confirm(first, msg(2, me, "is it free?", at))
	tl.Confirm(second, msg(3, me, "also parking?", at))
	if !tl.Discard(failed) {
		t.Fatalf("discard should remove the failed entry")
	}
	if tl.Discard(failed) {
		t.Fatalf("second discard should be a no-op")
	}

	want := []Entry{
		{Message: msg(1, them, "hi", at)},
		{Message: msg(2, me, "is it free?", at)},
		{Message: msg(3, me, "also parking?", at)},
	}
	if diff := cmp.Diff(want, tl.Entries(), cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if tl.Len() != 3 {
		t.Fatalf("len=%d want 3", tl.Len())
	}
}

func TestRenderLabelsAndDaySeparators(t *testing.T) {
	me, them := uuid.New(), uuid.New()
	day1 := time.Date(2024, 3, 1, 23, 50, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 2, 0, 5, 0, 0, time.UTC)
	entries := []Entry{
		{Message: msg(1, me, "hello", day1)},
		{Message: msg(2, types.SystemSenderID, "We'll be right with you.", day1)},
		{Message: msg(3, them, "morning!", day2)},
		{Message: Message{SenderID: me, Body: "great", CreatedAt: day2}, Pending: true, LocalID: "local-1"},
	}

	var buf bytes.Buffer
	if err := Render(&buf, entries, RenderOptions{Me: me, CounterpartyName: "Dana", Location: time.UTC}); err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "--- Fri, 01 Mar 2024 ---\n" +
		"[23:50] You: hello\n" +
		"[23:50] Auto-reply: We'll be right with you.\n" +
		"--- Sat, 02 Mar 2024 ---\n" +
		"[00:05] Dana: morning!\n" +
		"[00:05] You: great (sending...)\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("render mismatch (-want +got):\n%s", diff)
	}

	if got := Label(them, RenderOptions{Me: me}); got != "Them" {
		t.Fatalf("label=%q want Them", got)
	}
}

func TestRendererOnlySeparatesOnDayChange(t *testing.T) {
	me := uuid.New()
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	r := NewRenderer(RenderOptions{Me: me, Location: time.UTC})

	var buf bytes.Buffer
	if err := r.Write(&buf, Entry{Message: msg(1, me, "one", at)}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := r.Write(&buf, Entry{Message: msg(2, me, "two", at.Add(time.Minute))}); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "--- Fri, 01 Mar 2024 ---\n[10:00] You: one\n[10:01] You: two\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}
