package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/rentalchat-backend/internal/http"
	httpH "github.com/yungbote/rentalchat-backend/internal/http/handlers"
	httpMW "github.com/yungbote/rentalchat-backend/internal/http/middleware"
	"github.com/yungbote/rentalchat-backend/internal/observability"
	"github.com/yungbote/rentalchat-backend/internal/platform/logger"
	"github.com/yungbote/rentalchat-backend/internal/realtime"
)

type Middleware struct {
	Auth        *httpMW.AuthMiddleware
	PostLimiter *httpMW.RateLimiter
}

type Handlers struct {
	Health   *httpH.HealthHandler
	Chat     *httpH.ChatHandler
	Presence *httpH.PresenceHandler
	Realtime *httpH.RealtimeHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, services Services, sseHub *realtime.SSEHub, metrics *observability.Metrics) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(db),
		Chat:     httpH.NewChatHandler(services.Chat, services.QuickReply),
		Presence: httpH.NewPresenceHandler(services.Presence),
		Realtime: httpH.NewRealtimeHandler(log, sseHub, services.Chat, metrics),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth:        httpMW.NewAuthMiddleware(log, services.Auth),
		PostLimiter: httpMW.NewRateLimiter(cfg.PostRatePerSecond, cfg.PostRateBurst),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *http.Server {
	return http.NewServer(http.RouterConfig{
		Log:             log,
		Metrics:         metrics,
		AuthMiddleware:  middleware.Auth,
		PostLimiter:     middleware.PostLimiter,
		CORSOrigins:     cfg.CORSOrigins,
		ChatHandler:     handlers.Chat,
		PresenceHandler: handlers.Presence,
		RealtimeHandler: handlers.Realtime,
		HealthHandler:   handlers.Health,
	})
}
