package chat

import (
	"time"

	"github.com/google/uuid"
)

// SystemSenderID marks auto-generated messages. It can never collide with a
// real account id, which are random (v4) uuids.
var SystemSenderID = uuid.Max

// ChatMessage is immutable once stored. ID is assigned by the store and is
// strictly increasing, so ordering by id is ordering by creation.
type ChatMessage struct {
	ID       int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ThreadID uuid.UUID `gorm:"type:uuid;not null;index:idx_chat_message_thread_id,priority:1" json:"thread_id"`
	SenderID uuid.UUID `gorm:"type:uuid;not null;index" json:"sender_id"`
	Body     string    `gorm:"column:body;type:text;not null" json:"body"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (ChatMessage) TableName() string { return "chat_message" }

func (m *ChatMessage) IsAutoReply() bool {
	return m != nil && m.SenderID == SystemSenderID
}
