package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/rentalchat-backend/internal/data/repos"
	"github.com/yungbote/rentalchat-backend/internal/data/repos/testutil"
	types "github.com/yungbote/rentalchat-backend/internal/domain"
	"github.com/yungbote/rentalchat-backend/internal/http/middleware"
	"github.com/yungbote/rentalchat-backend/internal/http/response"
	"github.com/yungbote/rentalchat-backend/internal/platform/dbctx"
	"github.com/yungbote/rentalchat-backend/internal/realtime"
	"github.com/yungbote/rentalchat-backend/internal/services"
)

type harness struct {
	db     *gorm.DB
	router *gin.Engine
	hub    *realtime.SSEHub
	auth   services.AuthService
	tenant *types.Account
	owner  *types.Account
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)
	hub := realtime.NewSSEHub(log)

	presence := services.NewPresenceService(log, repos.NewPresenceRepo(db, log), nil)
	rules := repos.NewAutoReplyRuleRepo(db, log)
	quicks := repos.NewQuickReplyRepo(db, log)
	chat := services.NewChatService(services.ChatServiceDeps{
		DB:           db,
		Log:          log,
		Threads:      repos.NewThreadRepo(db, log),
		Participants: repos.NewParticipantRepo(db, log),
		Messages:     repos.NewMessageRepo(db, log),
		Rules:        rules,
		Accounts:     repos.NewAccountRepo(db, log),
		Presence:     presence,
		Notifier:     services.NewChatNotifier(&services.HubEmitter{Hub: hub}, time.Second),
	}, services.ChatServiceConfig{AutoReplyDelay: 0})

	seed := services.NewSeedService(db, log, rules, quicks)
	require.NoError(t, seed.Apply(dbctx.Context{Ctx: context.Background()}, &services.SeedFile{
		AutoReplyRules: []services.SeedRule{
			{Trigger: "hello", Match: "contains", Response: "Hi! The owner will reply soon."},
		},
		QuickReplies: []services.SeedQuickReply{
			{Message: "Is the unit still available?", Category: "general"},
			{Message: "Can I book a viewing?", Category: "viewing"},
		},
	}))

	auth := services.NewAuthService(log, "handler-secret", nil)
	am := middleware.NewAuthMiddleware(log, auth)
	ch := NewChatHandler(chat, services.NewQuickReplyService(log, quicks))
	ph := NewPresenceHandler(presence)
	rh := NewRealtimeHandler(log, hub, chat, nil)

	r := gin.New()
	api := r.Group("/api/chat", am.RequireAuth())
	api.GET("/threads", ch.ListThreads)
	api.POST("/threads", ch.CreateThread)
	api.GET("/threads/:id/messages", ch.ListMessages)
	api.POST("/threads/:id/messages", ch.PostMessage)
	api.GET("/threads/:id/stream", rh.ThreadStream)
	api.GET("/quick-replies", ch.ListQuickReplies)
	api.POST("/presence", ph.Touch)

	ctx := context.Background()
	return &harness{
		db:     db,
		router: r,
		hub:    hub,
		auth:   auth,
		tenant: testutil.SeedAccount(t, ctx, db, "tenant-"+uuid.NewString()[:8], types.RoleTenant),
		owner:  testutil.SeedAccount(t, ctx, db, "owner-"+uuid.NewString()[:8], types.RoleOwner),
	}
}

func (h *harness) token(t *testing.T, a *types.Account) string {
	t.Helper()
	tok, err := h.auth.IssueToken(a.ID, string(a.Role), time.Hour)
	require.NoError(t, err)
	return tok
}

func (h *harness) do(t *testing.T, method, path string, as *types.Account, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+h.token(t, as))
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) openThread(t *testing.T) uuid.UUID {
	t.Helper()
	rec := h.do(t, http.MethodPost, "/api/chat/threads", h.tenant, gin.H{"counterparty_id": h.owner.ID})
	require.Contains(t, []int{http.StatusCreated, http.StatusOK}, rec.Code, rec.Body.String())
	var out struct {
		ThreadID uuid.UUID `json:"thread_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.ThreadID
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.APIError {
	t.Helper()
	var env response.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env.Error
}

func TestCreateThreadStatuses(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/chat/threads", h.tenant, gin.H{"counterparty_id": h.owner.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	var first map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	require.Equal(t, "created", first["status"])

	// The owner opening the same pair gets the existing thread.
	rec = h.do(t, http.MethodPost, "/api/chat/threads", h.owner, gin.H{"counterparty_id": h.tenant.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	var second map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	require.Equal(t, "exists", second["status"])
	require.Equal(t, first["thread_id"], second["thread_id"])

	rec = h.do(t, http.MethodPost, "/api/chat/threads", h.tenant, gin.H{"counterparty_id": h.tenant.ID})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_input", decodeError(t, rec).Code)

	rec = h.do(t, http.MethodPost, "/api/chat/threads", nil, gin.H{"counterparty_id": h.owner.ID})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPostMessageWithAutoReply(t *testing.T) {
	h := newHarness(t)
	threadID := h.openThread(t)
	path := "/api/chat/threads/" + threadID.String() + "/messages"

	rec := h.do(t, http.MethodPost, path, h.tenant, gin.H{"content": "hello there"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		OK        bool               `json:"ok"`
		Message   types.ChatMessage  `json:"message"`
		AutoReply *types.ChatMessage `json:"auto_reply"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.True(t, out.OK)
	require.Equal(t, "hello there", out.Message.Body)
	require.NotNil(t, out.AutoReply)
	require.Equal(t, "Hi! The owner will reply soon.", out.AutoReply.Body)
	require.Equal(t, types.SystemSenderID, out.AutoReply.SenderID)

	// The owner answers, so the next tenant message gets no auto-reply.
	rec = h.do(t, http.MethodPost, path, h.owner, gin.H{"body": "sure, ask away"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = h.do(t, http.MethodPost, path, h.tenant, gin.H{"message": "hello again"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.JSONEq(t, "false", string(raw["auto_reply"]))

	rec = h.do(t, http.MethodGet, path, h.tenant, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Messages     []types.ChatMessage `json:"messages"`
		NextBeforeID *int64              `json:"next_before_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Messages, 4)
	require.NotNil(t, page.NextBeforeID)
	require.Equal(t, page.Messages[0].ID, *page.NextBeforeID)
	for i := 1; i < len(page.Messages); i++ {
		require.Less(t, page.Messages[i-1].ID, page.Messages[i].ID)
	}
}

func TestOwnerOpenedThreadOwnerPostGetsNoAutoReply(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodPost, "/api/chat/threads", h.owner, gin.H{"counterparty_id": h.tenant.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var opened struct {
		ThreadID uuid.UUID `json:"thread_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opened))

	rec = h.do(t, http.MethodPost, "/api/chat/threads/"+opened.ThreadID.String()+"/messages", h.owner, gin.H{"body": "hello, still looking?"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.JSONEq(t, "false", string(raw["auto_reply"]))

	otherOwner := testutil.SeedAccount(t, context.Background(), h.db, "other-owner", types.RoleOwner)
	rec = h.do(t, http.MethodPost, "/api/chat/threads", h.owner, gin.H{"counterparty_id": otherOwner.ID})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_input", decodeError(t, rec).Code)
}

func TestPostMessageRejections(t *testing.T) {
	h := newHarness(t)
	threadID := h.openThread(t)
	path := "/api/chat/threads/" + threadID.String() + "/messages"

	rec := h.do(t, http.MethodPost, path, h.tenant, gin.H{"body": "   "})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_input", decodeError(t, rec).Code)

	stranger := testutil.SeedAccount(t, context.Background(), h.db, "stranger-"+uuid.NewString()[:8], types.RoleTenant)
	rec = h.do(t, http.MethodPost, path, stranger, gin.H{"body": "let me in"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "not_participant", decodeError(t, rec).Code)

	rec = h.do(t, http.MethodPost, "/api/chat/threads/"+uuid.NewString()+"/messages", h.tenant, gin.H{"body": "hi"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "thread_not_found", decodeError(t, rec).Code)

	rec = h.do(t, http.MethodGet, path+"?before_id=abc", h.tenant, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = h.do(t, http.MethodGet, path+"?before_id=0", h.tenant, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = h.do(t, http.MethodGet, "/api/chat/threads/not-a-uuid/messages", h.tenant, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListThreadsAndQuickReplies(t *testing.T) {
	h := newHarness(t)
	threadID := h.openThread(t)
	rec := h.do(t, http.MethodPost, "/api/chat/threads/"+threadID.String()+"/messages", h.tenant, gin.H{"body": "is parking included?"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/chat/threads", h.owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Threads []services.ThreadSummary `json:"threads"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Threads, 1)
	require.Equal(t, threadID, list.Threads[0].ThreadID)
	require.Equal(t, h.tenant.ID, list.Threads[0].Counterparty.ID)
	require.Equal(t, h.tenant.DisplayName, list.Threads[0].Counterparty.DisplayName)
	require.NotNil(t, list.Threads[0].LastMessage)

	rec = h.do(t, http.MethodGet, "/api/chat/quick-replies", h.tenant, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var qr struct {
		Templates []services.QuickReply `json:"templates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &qr))
	require.Len(t, qr.Templates, 2)

	rec = h.do(t, http.MethodGet, "/api/chat/quick-replies?category=viewing", h.tenant, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &qr))
	require.Len(t, qr.Templates, 1)
	require.Equal(t, "Can I book a viewing?", qr.Templates[0].Message)
}

func TestPresenceTouch(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/chat/presence", h.owner, gin.H{})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(t, http.MethodPost, "/api/chat/presence", h.owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var n int64
	require.NoError(t, h.db.Model(&types.PresenceRecord{}).Where("user_id = ?", h.owner.ID).Count(&n).Error)
	require.EqualValues(t, 1, n)

	// A role in the body cannot override the token's role.
	rec = h.do(t, http.MethodPost, "/api/chat/presence", h.owner, gin.H{"role": "tenant"})
	require.Equal(t, http.StatusOK, rec.Code)
	var roles []string
	require.NoError(t, h.db.Model(&types.PresenceRecord{}).Where("user_id = ?", h.owner.ID).Pluck("role", &roles).Error)
	require.Equal(t, []string{"owner"}, roles)

	janitor := testutil.SeedAccount(t, context.Background(), h.db, "janitor", types.RoleUnknown)
	rec = h.do(t, http.MethodPost, "/api/chat/presence", janitor, gin.H{"role": "owner"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_input", decodeError(t, rec).Code)
}

func TestThreadStreamDeliversNewMessages(t *testing.T) {
	h := newHarness(t)
	threadID := h.openThread(t)
	srv := httptest.NewServer(h.router)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		srv.URL+"/api/chat/threads/"+threadID.String()+"/stream?token="+h.token(t, h.owner), nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, ": connected\n", line)

	require.Eventually(t, func() bool {
		return h.hub.Subscribers(realtime.ThreadChannel(threadID)) == 1
	}, 2*time.Second, 10*time.Millisecond)

	rec := h.do(t, http.MethodPost, "/api/chat/threads/"+threadID.String()+"/messages", h.tenant, gin.H{"body": "hello owner"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var bodies []string
	var event string
	for len(bodies) < 2 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			require.Equal(t, string(realtime.SSEEventNewMessage), event)
			var env struct {
				Channel string            `json:"channel"`
				Data    types.ChatMessage `json:"data"`
			}
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &env))
			require.Equal(t, realtime.ThreadChannel(threadID), env.Channel)
			bodies = append(bodies, env.Data.Body)
		}
	}
	require.Equal(t, []string{"hello owner", "Hi! The owner will reply soon."}, bodies)
}

func TestThreadStreamRejectsStrangers(t *testing.T) {
	h := newHarness(t)
	threadID := h.openThread(t)
	stranger := testutil.SeedAccount(t, context.Background(), h.db, "stranger-"+uuid.NewString()[:8], types.RoleTenant)

	rec := h.do(t, http.MethodGet, "/api/chat/threads/"+threadID.String()+"/stream", stranger, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, 0, h.hub.Subscribers(realtime.ThreadChannel(threadID)))
}
