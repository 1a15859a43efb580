package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/rentalchat-backend/internal/domain"
	"github.com/yungbote/rentalchat-backend/internal/realtime"
)

// ChatNotifier is the delivery gateway for thread events. Delivery is best
// effort: callers log the error and move on.
type ChatNotifier interface {
	MessageCreated(ctx context.Context, threadID uuid.UUID, msg *types.ChatMessage) error
}

type chatNotifier struct {
	emit    SSEEmitter
	timeout time.Duration
}

func NewChatNotifier(emit SSEEmitter, timeout time.Duration) ChatNotifier {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &chatNotifier{emit: emit, timeout: timeout}
}

func (n *chatNotifier) MessageCreated(ctx context.Context, threadID uuid.UUID, msg *types.ChatMessage) error {
	if n == nil || n.emit == nil {
		return fmt.Errorf("chat notifier not configured")
	}
	if threadID == uuid.Nil || msg == nil {
		return fmt.Errorf("missing thread_id or message")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- n.emit.Emit(ctx, realtime.SSEMessage{
			Channel: realtime.ThreadChannel(threadID),
			Event:   realtime.SSEEventNewMessage,
			Data:    msg,
		})
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("publish new-message: %w", ctx.Err())
	}
}
