package chatclient

import (
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one line of the local timeline. Pending entries were sent by this
// client and have no server id yet.
type Entry struct {
	Message
	LocalID string
	Pending bool
}

// Timeline is the client view of one thread: server messages keyed by id in
// id order, followed by optimistic entries still waiting for their echo.
// History pages, post responses and stream events can arrive in any order and
// any number of times; merging is idempotent.
type Timeline struct {
	mu        sync.Mutex
	byID      map[int64]Message
	ids       []int64
	pending   []Entry
	nextLocal int
}

func NewTimeline() *Timeline {
	return &Timeline{byID: make(map[int64]Message)}
}

// Merge inserts server messages and reports how many were new. A new message
// from the same sender with the same body as a pending entry replaces it.
func (t *Timeline) Merge(msgs ...Message) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	added := 0
	for _, m := range msgs {
		if m.ID <= 0 {
			continue
		}
		if _, ok := t.byID[m.ID]; ok {
			continue
		}
		t.byID[m.ID] = m
		pos, _ := slices.BinarySearch(t.ids, m.ID)
		t.ids = slices.Insert(t.ids, pos, m.ID)
		t.dropPendingLocked(func(e Entry) bool { return e.SenderID == m.SenderID && e.Body == m.Body })
		added++
	}
	return added
}

// AddPending records an optimistic message and returns its local id.
func (t *Timeline) AddPending(senderID uuid.UUID, body string, at time.Time) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextLocal++
	id := "local-" + strconv.Itoa(t.nextLocal)
	t.pending = append(t.pending, Entry{
		Message: Message{SenderID: senderID, Body: body, CreatedAt: at},
		LocalID: id,
		Pending: true,
	})
	return id
}

// Confirm swaps a pending entry for the stored message. It is a no-op for the
// pending side when the stream echo already replaced it.
func (t *Timeline) Confirm(localID string, msg Message) {
	t.mu.Lock()
	t.dropPendingLocked(func(e Entry) bool { return e.LocalID == localID })
	t.mu.Unlock()
	t.Merge(msg)
}

// Discard removes a pending entry whose send failed.
func (t *Timeline) Discard(localID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dropPendingLocked(func(e Entry) bool { return e.LocalID == localID })
}

func (t *Timeline) dropPendingLocked(match func(Entry) bool) bool {
	for i, e := range t.pending {
		if match(e) {
			t.pending = slices.Delete(t.pending, i, i+1)
			return true
		}
	}
	return false
}

func (t *Timeline) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, 0, len(t.ids)+len(t.pending))
	for _, id := range t.ids {
		out = append(out, Entry{Message: t.byID[id]})
	}
	return append(out, t.pending...)
}

// OldestID is the cursor for loading the next older page.
func (t *Timeline) OldestID() *int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.ids) == 0 {
		return nil
	}
	id := t.ids[0]
	return &id
}

func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ids) + len(t.pending)
}
