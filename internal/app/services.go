package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/rentalchat-backend/internal/observability"
	"github.com/yungbote/rentalchat-backend/internal/platform/logger"
	"github.com/yungbote/rentalchat-backend/internal/realtime"
	"github.com/yungbote/rentalchat-backend/internal/services"
)

type Services struct {
	Auth       services.AuthService
	Chat       services.ChatService
	Presence   services.PresenceService
	QuickReply services.QuickReplyService
	Seed       services.SeedService
	Notifier   services.ChatNotifier
	Owners     services.OwnerNotifier
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients, hub *realtime.SSEHub, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	// With Redis every instance's forwarder feeds its local hub; without it
	// the hub is written directly.
	var emitter services.SSEEmitter = &services.HubEmitter{Hub: hub}
	if c.SSEBus != nil {
		emitter = &services.RedisEmitter{Bus: c.SSEBus}
	}
	notifier := services.NewChatNotifier(emitter, cfg.PublishTimeout)

	var owners services.OwnerNotifier
	if c.SendGrid != nil {
		owners = services.NewEmailOwnerNotifier(log, r.Account, c.SendGrid, cfg.AppURL, cfg.EmailTimeout)
	}

	presence := services.NewPresenceService(log, r.Presence, nil)
	chat := services.NewChatService(services.ChatServiceDeps{
		DB:           db,
		Log:          log,
		Threads:      r.Thread,
		Participants: r.Participant,
		Messages:     r.Message,
		Rules:        r.AutoReplyRule,
		Accounts:     r.Account,
		Presence:     presence,
		Notifier:     notifier,
		Owners:       owners,
		Metrics:      metrics,
	}, services.ChatServiceConfig{
		ActivityWindow: cfg.ActivityWindow,
		AutoReplyDelay: cfg.AutoReplyDelay,
		PresenceGate:   cfg.PresenceGate,
	})

	return Services{
		Auth:       services.NewAuthService(log, cfg.JWTSecretKey, nil),
		Chat:       chat,
		Presence:   presence,
		QuickReply: services.NewQuickReplyService(log, r.QuickReply),
		Seed:       services.NewSeedService(db, log, r.AutoReplyRule, r.QuickReply),
		Notifier:   notifier,
		Owners:     owners,
	}
}
