package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/rentalchat-backend/internal/data/repos"
	"github.com/yungbote/rentalchat-backend/internal/platform/logger"
)

type Repos struct {
	Account       repos.AccountRepo
	Thread        repos.ThreadRepo
	Participant   repos.ParticipantRepo
	Message       repos.MessageRepo
	AutoReplyRule repos.AutoReplyRuleRepo
	QuickReply    repos.QuickReplyRepo
	Presence      repos.PresenceRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Account:       repos.NewAccountRepo(db, log),
		Thread:        repos.NewThreadRepo(db, log),
		Participant:   repos.NewParticipantRepo(db, log),
		Message:       repos.NewMessageRepo(db, log),
		AutoReplyRule: repos.NewAutoReplyRuleRepo(db, log),
		QuickReply:    repos.NewQuickReplyRepo(db, log),
		Presence:      repos.NewPresenceRepo(db, log),
	}
}
