package chat

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ChatThread is a conversation between exactly two accounts. PairKey is the
// sorted pair of participant ids; its unique index makes creation idempotent
// across concurrent callers.
type ChatThread struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PairKey string    `gorm:"column:pair_key;type:varchar(80);not null;uniqueIndex:idx_chat_thread_pair_key" json:"-"`

	LastMessageAt *time.Time `gorm:"column:last_message_at;index" json:"last_message_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ChatThread) TableName() string { return "chat_thread" }

// ActivityAt is the last message time, or creation time for an empty thread.
func (t *ChatThread) ActivityAt() time.Time {
	if t == nil {
		return time.Time{}
	}
	if t.LastMessageAt != nil && !t.LastMessageAt.IsZero() {
		return *t.LastMessageAt
	}
	return t.CreatedAt
}

// PairKey is independent of argument order.
func PairKey(a, b uuid.UUID) string {
	ids := []string{a.String(), b.String()}
	sort.Strings(ids)
	return strings.Join(ids, ":")
}
