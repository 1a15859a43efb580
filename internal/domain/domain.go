package domain

import (
	"github.com/yungbote/rentalchat-backend/internal/domain/chat"
	"github.com/yungbote/rentalchat-backend/internal/domain/user"
)

type ChatThread = chat.ChatThread
type ChatParticipant = chat.ChatParticipant
type ChatMessage = chat.ChatMessage
type AutoReplyRule = chat.AutoReplyRule
type QuickReplyTemplate = chat.QuickReplyTemplate
type PresenceRecord = chat.PresenceRecord

type ParticipantRole = chat.ParticipantRole
type MatchKind = chat.MatchKind

const (
	ParticipantInitiator    = chat.ParticipantInitiator
	ParticipantCounterparty = chat.ParticipantCounterparty

	MatchExact      = chat.MatchExact
	MatchStartsWith = chat.MatchStartsWith
	MatchContains   = chat.MatchContains
)

var SystemSenderID = chat.SystemSenderID

var PairKey = chat.PairKey

type Account = user.Account
type Role = user.Role

const (
	RoleTenant  = user.RoleTenant
	RoleOwner   = user.RoleOwner
	RoleUnknown = user.RoleUnknown
)

var NormalizeRole = user.NormalizeRole

// Models lists every table migrated at startup.
func Models() []any {
	return []any{
		&Account{},
		&ChatThread{},
		&ChatParticipant{},
		&ChatMessage{},
		&AutoReplyRule{},
		&QuickReplyTemplate{},
		&PresenceRecord{},
	}
}
