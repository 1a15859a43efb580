package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/rentalchat-backend/internal/http/response"
	"github.com/yungbote/rentalchat-backend/internal/platform/dbctx"
	"github.com/yungbote/rentalchat-backend/internal/services"
)

type PresenceHandler struct {
	presence services.PresenceService
}

func NewPresenceHandler(presence services.PresenceService) *PresenceHandler {
	return &PresenceHandler{presence: presence}
}

// POST /api/chat/presence
//
// The body is ignored; identity and role both come from the token.
func (h *PresenceHandler) Touch(c *gin.Context) {
	caller := services.IdentityFromContext(c.Request.Context())
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.presence.Touch(dbc, caller.UserID, string(caller.Role)); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
