package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/rentalchat-backend/internal/http/response"
	"github.com/yungbote/rentalchat-backend/internal/platform/apierr"
	"github.com/yungbote/rentalchat-backend/internal/platform/dbctx"
	"github.com/yungbote/rentalchat-backend/internal/services"
)

type ChatHandler struct {
	chat   services.ChatService
	quicks services.QuickReplyService
}

func NewChatHandler(chat services.ChatService, quicks services.QuickReplyService) *ChatHandler {
	return &ChatHandler{chat: chat, quicks: quicks}
}

type createThreadReq struct {
	InitiatorID    *uuid.UUID `json:"initiator_id"`
	CounterpartyID uuid.UUID  `json:"counterparty_id"`
}

// POST /api/chat/threads
func (h *ChatHandler) CreateThread(c *gin.Context) {
	var req createThreadReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, apierr.InvalidInput("invalid request body"))
		return
	}
	initiator := uuid.Nil
	if req.InitiatorID != nil {
		initiator = *req.InitiatorID
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	caller := services.IdentityFromContext(c.Request.Context())
	thread, created, err := h.chat.FindOrCreateThread(dbc, caller, initiator, req.CounterpartyID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	status := "exists"
	code := http.StatusOK
	if created {
		status = "created"
		code = http.StatusCreated
	}
	c.JSON(code, gin.H{"status": status, "thread_id": thread.ID})
}

// GET /api/chat/threads
func (h *ChatHandler) ListThreads(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	threads, err := h.chat.ListThreads(dbc, services.IdentityFromContext(c.Request.Context()))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"threads": threads})
}

// GET /api/chat/threads/:id/messages?before_id=
func (h *ChatHandler) ListMessages(c *gin.Context) {
	threadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, apierr.InvalidInput("invalid thread id"))
		return
	}
	var before *int64
	if v := strings.TrimSpace(c.Query("before_id")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			response.RespondAPIError(c, apierr.InvalidInput("before_id must be an integer"))
			return
		}
		before = &n
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	page, err := h.chat.FetchPage(dbc, services.IdentityFromContext(c.Request.Context()), threadID, before)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, page)
}

// Older clients send the text as "content" or "message".
type postMessageReq struct {
	Body    string `json:"body"`
	Content string `json:"content"`
	Message string `json:"message"`
}

func (r postMessageReq) text() string {
	for _, v := range []string{r.Body, r.Content, r.Message} {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// POST /api/chat/threads/:id/messages
func (h *ChatHandler) PostMessage(c *gin.Context) {
	threadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, apierr.InvalidInput("invalid thread id"))
		return
	}
	var req postMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, apierr.InvalidInput("invalid request body"))
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	res, err := h.chat.PostMessage(dbc, services.IdentityFromContext(c.Request.Context()), threadID, req.text())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	// auto_reply is false rather than null so clients can branch on truthiness.
	var autoReply any = false
	if res.AutoReply != nil {
		autoReply = res.AutoReply
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "message": res.Message, "auto_reply": autoReply})
}

// GET /api/chat/quick-replies?category=
func (h *ChatHandler) ListQuickReplies(c *gin.Context) {
	if h.quicks == nil {
		response.RespondAPIError(c, apierr.Server(errors.New("quick replies unavailable")))
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	templates, err := h.quicks.List(dbc, c.Query("category"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"templates": templates})
}
