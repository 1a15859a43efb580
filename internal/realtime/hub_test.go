package realtime

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/rentalchat-backend/internal/platform/logger"
)

func recvMessage(t *testing.T, ch <-chan SSEMessage, timeout time.Duration) SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for SSE message")
	}
	return SSEMessage{}
}

func TestSSEHubOrderingAndReconnect(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	channel := ThreadChannel(uuid.New())

	clientA := hub.NewSSEClient(uuid.New())
	hub.AddChannel(clientA, channel)

	for i := 1; i <= 3; i++ {
		hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventNewMessage, Data: map[string]any{"seq": i}})
	}
	for i := 1; i <= 3; i++ {
		got := recvMessage(t, clientA.Outbound, time.Second)
		if seq := got.Data.(map[string]any)["seq"]; seq != i {
			t.Fatalf("message %d: got seq %v", i, seq)
		}
	}

	hub.CloseClient(clientA)
	select {
	case _, ok := <-clientA.Outbound:
		if ok {
			t.Fatalf("clientA outbound should be closed after disconnect")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for clientA channel close")
	}
	if n := hub.Subscribers(channel); n != 0 {
		t.Fatalf("expected no subscribers after close, got %d", n)
	}

	clientB := hub.NewSSEClient(uuid.New())
	hub.AddChannel(clientB, channel)
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventNewMessage})
	if got := recvMessage(t, clientB.Outbound, time.Second); got.Event != SSEEventNewMessage {
		t.Fatalf("reconnect event: got %s", got.Event)
	}
}

func TestSSEHubChannelsAreIsolated(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	a, b := ThreadChannel(uuid.New()), ThreadChannel(uuid.New())
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, a)

	hub.Broadcast(SSEMessage{Channel: b, Event: SSEEventNewMessage})
	select {
	case msg := <-client.Outbound:
		t.Fatalf("unexpected delivery from other channel: %+v", msg)
	default:
	}
}

func TestSSEHubBroadcastDropsWhenBufferFull(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	channel := ThreadChannel(uuid.New())
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, channel)

	done := make(chan struct{})
	go func() {
		for i := 0; i < clientBuffer+5; i++ {
			hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventNewMessage})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Broadcast blocked on a full client buffer")
	}
	if got := len(client.Outbound); got != clientBuffer {
		t.Fatalf("expected %d buffered messages, got %d", clientBuffer, got)
	}
}

func TestSSEHubServeHTTPWritesEvents(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	channel := ThreadChannel(uuid.New())
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, channel)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeHTTP(w, r, client)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventNewMessage, Data: map[string]any{"id": 7}})

	sc := bufio.NewScanner(resp.Body)
	var sawEvent bool
	for sc.Scan() {
		line := sc.Text()
		if line == "event: new-message" {
			sawEvent = true
			continue
		}
		if sawEvent && strings.HasPrefix(line, "data: ") {
			if !strings.Contains(line, `"id":7`) {
				t.Fatalf("unexpected data line %q", line)
			}
			return
		}
	}
	t.Fatalf("stream ended without event: %v", sc.Err())
}
