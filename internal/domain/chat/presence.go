package chat

import (
	"time"

	"github.com/google/uuid"
)

// PresenceRecord holds one row per (user, normalized role).
type PresenceRecord struct {
	UserID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Role       string    `gorm:"type:varchar(20);primaryKey" json:"role"`
	LastSeenAt time.Time `gorm:"column:last_seen_at;not null" json:"last_seen_at"`
}

func (PresenceRecord) TableName() string { return "presence_record" }
