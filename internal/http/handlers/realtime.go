package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/rentalchat-backend/internal/http/response"
	"github.com/yungbote/rentalchat-backend/internal/observability"
	"github.com/yungbote/rentalchat-backend/internal/platform/apierr"
	"github.com/yungbote/rentalchat-backend/internal/platform/dbctx"
	"github.com/yungbote/rentalchat-backend/internal/platform/logger"
	"github.com/yungbote/rentalchat-backend/internal/realtime"
	"github.com/yungbote/rentalchat-backend/internal/services"
)

type RealtimeHandler struct {
	log     *logger.Logger
	hub     *realtime.SSEHub
	chat    services.ChatService
	metrics *observability.Metrics
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub, chat services.ChatService, metrics *observability.Metrics) *RealtimeHandler {
	return &RealtimeHandler{
		log:     log.With("handler", "RealtimeHandler"),
		hub:     hub,
		chat:    chat,
		metrics: metrics,
	}
}

// GET /api/chat/threads/:id/stream
//
// One stream per open thread view. Each connection only ever receives the
// thread's channel; access is checked once before subscribing.
func (h *RealtimeHandler) ThreadStream(c *gin.Context) {
	threadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, apierr.InvalidInput("invalid thread id"))
		return
	}
	caller := services.IdentityFromContext(c.Request.Context())
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if _, err := h.chat.Authorize(dbc, caller, threadID); err != nil {
		response.RespondAPIError(c, err)
		return
	}

	client := h.hub.NewSSEClient(caller.UserID)
	channel := realtime.ThreadChannel(threadID)
	h.hub.AddChannel(client, channel)
	h.metrics.SSEClientConnected()
	h.log.Debug("SSE stream open", "thread_id", threadID, "user_id", caller.UserID, "client_id", client.ID)

	h.hub.ServeHTTP(c.Writer, c.Request, client)

	h.hub.CloseClient(client)
	h.metrics.SSEClientDisconnected()
	h.log.Debug("SSE stream closed", "thread_id", threadID, "client_id", client.ID)
}
