package realtime

import (
	"fmt"

	"github.com/google/uuid"
)

type SSEEvent string

const (
	SSEEventNewMessage SSEEvent = "new-message"
)

// SSEMessage is the unit the hub fans out and the bus carries between
// instances.
type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}

// ThreadChannel is the subscription key for one chat thread.
func ThreadChannel(threadID uuid.UUID) string {
	return fmt.Sprintf("thread:%s", threadID)
}
