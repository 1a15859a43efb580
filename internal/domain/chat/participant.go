package chat

import (
	"time"

	"github.com/google/uuid"
)

type ParticipantRole string

const (
	// ParticipantInitiator is the account that opened the inquiry (the tenant).
	ParticipantInitiator ParticipantRole = "initiator"
	// ParticipantCounterparty is the account being contacted (the owner).
	ParticipantCounterparty ParticipantRole = "counterparty"
)

type ChatParticipant struct {
	ThreadID  uuid.UUID       `gorm:"type:uuid;primaryKey" json:"thread_id"`
	UserID    uuid.UUID       `gorm:"type:uuid;primaryKey;index" json:"user_id"`
	Role      ParticipantRole `gorm:"column:role;type:varchar(20);not null" json:"role"`
	CreatedAt time.Time       `gorm:"not null" json:"created_at"`
}

func (ChatParticipant) TableName() string { return "chat_participant" }
