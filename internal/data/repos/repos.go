package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/rentalchat-backend/internal/data/repos/chat"
	"github.com/yungbote/rentalchat-backend/internal/data/repos/user"
	"github.com/yungbote/rentalchat-backend/internal/platform/logger"
)

type AccountRepo = user.AccountRepo

type ThreadRepo = chat.ThreadRepo
type ParticipantRepo = chat.ParticipantRepo
type MessageRepo = chat.MessageRepo
type AutoReplyRuleRepo = chat.AutoReplyRuleRepo
type QuickReplyRepo = chat.QuickReplyRepo
type PresenceRepo = chat.PresenceRepo

type ThreadSummaryRow = chat.ThreadSummaryRow

func NewAccountRepo(db *gorm.DB, baseLog *logger.Logger) AccountRepo {
	return user.NewAccountRepo(db, baseLog)
}

func NewThreadRepo(db *gorm.DB, baseLog *logger.Logger) ThreadRepo {
	return chat.NewThreadRepo(db, baseLog)
}
func NewParticipantRepo(db *gorm.DB, baseLog *logger.Logger) ParticipantRepo {
	return chat.NewParticipantRepo(db, baseLog)
}
func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
	return chat.NewMessageRepo(db, baseLog)
}
func NewAutoReplyRuleRepo(db *gorm.DB, baseLog *logger.Logger) AutoReplyRuleRepo {
	return chat.NewAutoReplyRuleRepo(db, baseLog)
}
func NewQuickReplyRepo(db *gorm.DB, baseLog *logger.Logger) QuickReplyRepo {
	return chat.NewQuickReplyRepo(db, baseLog)
}
func NewPresenceRepo(db *gorm.DB, baseLog *logger.Logger) PresenceRepo {
	return chat.NewPresenceRepo(db, baseLog)
}
