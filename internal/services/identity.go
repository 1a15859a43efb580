package services

import (
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/rentalchat-backend/internal/domain"
)

// Identity is the caller as resolved once by the auth middleware.
type Identity struct {
	UserID uuid.UUID
	Role   types.Role
}

func (i Identity) Authenticated() bool { return i.UserID != uuid.Nil }

// Clock returns the current time. Services store UTC timestamps from it.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }
