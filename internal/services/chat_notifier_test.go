package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/rentalchat-backend/internal/domain"
	"github.com/yungbote/rentalchat-backend/internal/platform/logger"
	"github.com/yungbote/rentalchat-backend/internal/realtime"
)

type blockingEmitter struct{ release chan struct{} }

func (e *blockingEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) error {
	<-e.release
	return nil
}

func TestChatNotifierPublishIsBounded(t *testing.T) {
	em := &blockingEmitter{release: make(chan struct{})}
	defer close(em.release)
	n := NewChatNotifier(em, 50*time.Millisecond)

	start := time.Now()
	err := n.MessageCreated(context.Background(), uuid.New(), &types.ChatMessage{ID: 1})
	if err == nil {
		t.Fatalf("expected timeout error from blocked emitter")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("publish not bounded: took %s", elapsed)
	}
}

func TestChatNotifierDeliversThroughHub(t *testing.T) {
	hub := realtime.NewSSEHub(logger.Nop())
	threadID := uuid.New()
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, realtime.ThreadChannel(threadID))

	n := NewChatNotifier(&HubEmitter{Hub: hub}, time.Second)
	msg := &types.ChatMessage{ID: 42, ThreadID: threadID, Body: "hello"}
	if err := n.MessageCreated(context.Background(), threadID, msg); err != nil {
		t.Fatalf("MessageCreated: %v", err)
	}
	select {
	case got := <-client.Outbound:
		if got.Event != realtime.SSEEventNewMessage {
			t.Fatalf("unexpected event %q", got.Event)
		}
		if m, ok := got.Data.(*types.ChatMessage); !ok || m.ID != 42 {
			t.Fatalf("unexpected payload %#v", got.Data)
		}
	case <-time.After(time.Second):
		t.Fatalf("no delivery")
	}
}

func TestChatNotifierIgnoresCancelledCaller(t *testing.T) {
	hub := realtime.NewSSEHub(logger.Nop())
	threadID := uuid.New()
	n := NewChatNotifier(&HubEmitter{Hub: hub}, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := n.MessageCreated(ctx, threadID, &types.ChatMessage{ID: 1}); err != nil {
		t.Fatalf("cancelled request context should not abort publish: %v", err)
	}
}
