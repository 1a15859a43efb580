package user

import (
	"time"

	"github.com/google/uuid"
)

// Account is the read-only directory entry for a marketplace user. Rows are
// written by the auth service; chat only reads display names and emails.
type Account struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DisplayName string    `gorm:"column:display_name;not null;default:''" json:"display_name"`
	Role        Role      `gorm:"column:role;type:varchar(20);not null;index" json:"role"`
	Email       string    `gorm:"column:email;not null;default:''" json:"-"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Account) TableName() string { return "account" }
