package chatclient

import (
	"time"

	"github.com/google/uuid"
)

// Message mirrors the server's single message shape.
type Message struct {
	ID        int64     `json:"id"`
	ThreadID  uuid.UUID `json:"thread_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type Counterparty struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role,omitempty"`
}

type ThreadSummary struct {
	ThreadID     uuid.UUID    `json:"thread_id"`
	Role         string       `json:"role"`
	Counterparty Counterparty `json:"counterparty"`
	LastMessage  *Message     `json:"last_message"`
	CreatedAt    time.Time    `json:"created_at"`
	ActivityAt   time.Time    `json:"activity_at"`
}

type Page struct {
	Messages     []Message `json:"messages"`
	NextBeforeID *int64    `json:"next_before_id"`
}

type PostResult struct {
	Message   Message
	AutoReply *Message
}
