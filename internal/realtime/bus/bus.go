package bus

import (
	"context"

	"github.com/yungbote/rentalchat-backend/internal/realtime"
)

// Bus carries SSE messages between API instances so every instance's hub
// sees every thread event.
type Bus interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error
	Close() error
}
