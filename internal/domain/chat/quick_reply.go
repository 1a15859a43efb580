package chat

import (
	"time"

	"gorm.io/datatypes"
)

// QuickReplyTemplate feeds composer shortcuts on the client. It is not used
// by auto-reply matching.
type QuickReplyTemplate struct {
	ID       int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Message  string         `gorm:"column:message;type:text;not null" json:"message"`
	Category string         `gorm:"column:category;type:varchar(64);not null;default:'general';index" json:"category"`
	Position int            `gorm:"column:position;not null;default:0" json:"-"`
	Active   bool           `gorm:"column:active;not null" json:"-"`
	Metadata datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"-"`
}

func (QuickReplyTemplate) TableName() string { return "quick_reply_template" }
