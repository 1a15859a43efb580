package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/rentalchat-backend/internal/http/handlers"
	httpMW "github.com/yungbote/rentalchat-backend/internal/http/middleware"
	"github.com/yungbote/rentalchat-backend/internal/observability"
	"github.com/yungbote/rentalchat-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	AuthMiddleware *httpMW.AuthMiddleware
	PostLimiter    *httpMW.RateLimiter
	CORSOrigins    []string

	ChatHandler     *httpH.ChatHandler
	PresenceHandler *httpH.PresenceHandler
	RealtimeHandler *httpH.RealtimeHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("rentalchat-backend"))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	chat := r.Group("/api/chat")
	if cfg.AuthMiddleware != nil {
		chat.Use(cfg.AuthMiddleware.RequireAuth())
	}

	if cfg.ChatHandler != nil {
		chat.GET("/threads", cfg.ChatHandler.ListThreads)
		chat.POST("/threads", cfg.ChatHandler.CreateThread)
		chat.GET("/threads/:id/messages", cfg.ChatHandler.ListMessages)
		if cfg.PostLimiter != nil {
			chat.POST("/threads/:id/messages", cfg.PostLimiter.Middleware(), cfg.ChatHandler.PostMessage)
		} else {
			chat.POST("/threads/:id/messages", cfg.ChatHandler.PostMessage)
		}
		chat.GET("/quick-replies", cfg.ChatHandler.ListQuickReplies)
	}

	if cfg.PresenceHandler != nil {
		chat.POST("/presence", cfg.PresenceHandler.Touch)
	}

	// Realtime (SSE)
	if cfg.RealtimeHandler != nil {
		chat.GET("/threads/:id/stream", cfg.RealtimeHandler.ThreadStream)
	}

	return r
}
