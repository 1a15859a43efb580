package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/rentalchat-backend/internal/data/repos"
	types "github.com/yungbote/rentalchat-backend/internal/domain"
	"github.com/yungbote/rentalchat-backend/internal/modules/chat/autoreply"
	"github.com/yungbote/rentalchat-backend/internal/observability"
	"github.com/yungbote/rentalchat-backend/internal/platform/apierr"
	"github.com/yungbote/rentalchat-backend/internal/platform/dbctx"
	"github.com/yungbote/rentalchat-backend/internal/platform/httpx"
	"github.com/yungbote/rentalchat-backend/internal/platform/logger"
)

const (
	DefaultPageSize       = 30
	DefaultActivityWindow = 5 * time.Minute
	DefaultAutoReplyDelay = time.Second
)

type ChatService interface {
	// FindOrCreateThread returns the single thread for the unordered pair,
	// creating it with both participants when absent.
	FindOrCreateThread(dbc dbctx.Context, caller Identity, initiatorID, counterpartyID uuid.UUID) (*types.ChatThread, bool, error)
	ListThreads(dbc dbctx.Context, caller Identity) ([]ThreadSummary, error)
	FetchPage(dbc dbctx.Context, caller Identity, threadID uuid.UUID, beforeID *int64) (*MessagePage, error)
	// PostMessage stores the caller's message, then runs the auto-reply path.
	// Only validation and the first write can fail the call.
	PostMessage(dbc dbctx.Context, caller Identity, threadID uuid.UUID, body string) (*PostResult, error)
	// Append is the message log write. senderID must be a participant or
	// the system sender.
	Append(dbc dbctx.Context, threadID, senderID uuid.UUID, body string) (*types.ChatMessage, error)
	Authorize(dbc dbctx.Context, caller Identity, threadID uuid.UUID) (*types.ChatParticipant, error)
}

type ChatServiceConfig struct {
	ActivityWindow time.Duration
	AutoReplyDelay time.Duration
	// PresenceGate also treats a recent owner presence ping as activity.
	PresenceGate bool
	PageSize     int
}

type ChatServiceDeps struct {
	DB           *gorm.DB
	Log          *logger.Logger
	Threads      repos.ThreadRepo
	Participants repos.ParticipantRepo
	Messages     repos.MessageRepo
	Rules        repos.AutoReplyRuleRepo
	Accounts     repos.AccountRepo
	Presence     PresenceService
	Notifier     ChatNotifier
	Owners       OwnerNotifier
	Metrics      *observability.Metrics

	Clock Clock
	Sleep func(ctx context.Context, d time.Duration) error
}

type ThreadCounterparty struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role,omitempty"`
}

type ThreadSummary struct {
	ThreadID     uuid.UUID          `json:"thread_id"`
	Role         string             `json:"role"`
	Counterparty ThreadCounterparty `json:"counterparty"`
	LastMessage  *types.ChatMessage `json:"last_message"`
	CreatedAt    time.Time          `json:"created_at"`
	ActivityAt   time.Time          `json:"activity_at"`
}

type MessagePage struct {
	Messages     []*types.ChatMessage `json:"messages"`
	NextBeforeID *int64               `json:"next_before_id"`
}

type PostResult struct {
	Message   *types.ChatMessage
	AutoReply *types.ChatMessage
}

type chatService struct {
	db           *gorm.DB
	log          *logger.Logger
	threads      repos.ThreadRepo
	participants repos.ParticipantRepo
	messages     repos.MessageRepo
	rules        repos.AutoReplyRuleRepo
	accounts     repos.AccountRepo
	presence     PresenceService
	notify       ChatNotifier
	owners       OwnerNotifier
	metrics      *observability.Metrics
	cfg          ChatServiceConfig
	now          Clock
	sleep        func(ctx context.Context, d time.Duration) error
}

func NewChatService(deps ChatServiceDeps, cfg ChatServiceConfig) ChatService {
	if cfg.ActivityWindow <= 0 {
		cfg.ActivityWindow = DefaultActivityWindow
	}
	if cfg.AutoReplyDelay < 0 {
		cfg.AutoReplyDelay = 0
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	now := deps.Clock
	if now == nil {
		now = systemClock
	}
	sleep := deps.Sleep
	if sleep == nil {
		sleep = httpx.SleepContext
	}
	return &chatService{
		db:           deps.DB,
		log:          deps.Log.With("service", "ChatService"),
		threads:      deps.Threads,
		participants: deps.Participants,
		messages:     deps.Messages,
		rules:        deps.Rules,
		accounts:     deps.Accounts,
		presence:     deps.Presence,
		notify:       deps.Notifier,
		owners:       deps.Owners,
		metrics:      deps.Metrics,
		cfg:          cfg,
		now:          now,
		sleep:        sleep,
	}
}

var errThreadRaced = errors.New("thread created concurrently")

func (s *chatService) FindOrCreateThread(dbc dbctx.Context, caller Identity, initiatorID, counterpartyID uuid.UUID) (*types.ChatThread, bool, error) {
	if !caller.Authenticated() {
		return nil, false, apierr.Unauthorized("login required")
	}
	if initiatorID == uuid.Nil {
		initiatorID = caller.UserID
	}
	if counterpartyID == uuid.Nil {
		return nil, false, apierr.InvalidInput("counterparty_id required")
	}
	if initiatorID == counterpartyID {
		return nil, false, apierr.InvalidInput("cannot start a conversation with yourself")
	}
	if caller.UserID != initiatorID && caller.UserID != counterpartyID {
		return nil, false, apierr.Forbidden("caller is not part of this conversation")
	}

	ctx, span := observability.Tracer().Start(ctxOf(dbc), "chat.FindOrCreateThread")
	defer span.End()
	dbc.Ctx = ctx

	initiatorID, counterpartyID, err := s.orientPair(dbc, caller, initiatorID, counterpartyID)
	if err != nil {
		return nil, false, err
	}

	pairKey := types.PairKey(initiatorID, counterpartyID)
	existing, err := s.threads.GetByPairKey(dbc, pairKey)
	if err != nil {
		return nil, false, apierr.Server(fmt.Errorf("lookup thread: %w", err))
	}
	if existing != nil {
		return existing, false, nil
	}

	now := s.now()
	thread := &types.ChatThread{
		ID:        uuid.New(),
		PairKey:   pairKey,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		created, err := s.threads.InsertIfAbsent(inner, thread)
		if err != nil {
			return err
		}
		if !created {
			return errThreadRaced
		}
		return s.participants.Create(inner, []*types.ChatParticipant{
			{ThreadID: thread.ID, UserID: initiatorID, Role: types.ParticipantInitiator, CreatedAt: now},
			{ThreadID: thread.ID, UserID: counterpartyID, Role: types.ParticipantCounterparty, CreatedAt: now},
		})
	})
	if errors.Is(err, errThreadRaced) {
		winner, lookupErr := s.threads.GetByPairKey(dbctx.Context{Ctx: ctx}, pairKey)
		if lookupErr != nil {
			return nil, false, apierr.Server(fmt.Errorf("load concurrently created thread: %w", lookupErr))
		}
		if winner == nil {
			return nil, false, apierr.Server(fmt.Errorf("thread %s reported as concurrently created but not found", pairKey))
		}
		return winner, false, nil
	}
	if err != nil {
		return nil, false, apierr.Server(fmt.Errorf("create thread: %w", err))
	}

	s.metrics.IncThreadCreated()
	s.log.Info("chat thread created", "thread_id", thread.ID, "initiator_user_id", initiatorID, "owner_id", counterpartyID)
	if s.owners != nil {
		go s.owners.ThreadCreated(context.WithoutCancel(ctx), thread, initiatorID, counterpartyID)
	}
	return thread, true, nil
}

// orientPair stores the tenant as initiator and the owner as counterparty,
// whichever side opened the conversation. Roles come from the account
// directory, falling back to the token role for the caller. Pairs whose roles
// are both known and equal are rejected.
func (s *chatService) orientPair(dbc dbctx.Context, caller Identity, initiatorID, counterpartyID uuid.UUID) (uuid.UUID, uuid.UUID, error) {
	roles := map[uuid.UUID]types.Role{caller.UserID: caller.Role}
	if s.accounts != nil {
		accts, err := s.accounts.GetByIDs(dbc, []uuid.UUID{initiatorID, counterpartyID})
		if err != nil {
			return uuid.Nil, uuid.Nil, apierr.Server(fmt.Errorf("load accounts: %w", err))
		}
		for _, a := range accts {
			if a != nil && a.Role.Valid() {
				roles[a.ID] = a.Role
			}
		}
	}
	ri, rc := roles[initiatorID], roles[counterpartyID]
	if ri.Valid() && ri == rc {
		return uuid.Nil, uuid.Nil, apierr.InvalidInput("a conversation needs one tenant and one owner")
	}
	if ri == types.RoleOwner || rc == types.RoleTenant {
		return counterpartyID, initiatorID, nil
	}
	return initiatorID, counterpartyID, nil
}

func (s *chatService) ListThreads(dbc dbctx.Context, caller Identity) ([]ThreadSummary, error) {
	if !caller.Authenticated() {
		return nil, apierr.Unauthorized("login required")
	}
	rows, err := s.threads.ListSummariesForUser(dbc, caller.UserID, 0)
	if err != nil {
		return nil, apierr.Server(fmt.Errorf("list threads: %w", err))
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ThreadID)
	}
	latest, err := s.messages.LatestByThreads(dbc, ids)
	if err != nil {
		return nil, apierr.Server(fmt.Errorf("load last messages: %w", err))
	}

	out := make([]ThreadSummary, 0, len(rows))
	for _, r := range rows {
		activity := r.ThreadCreatedAt
		if r.LastMessageAt != nil {
			activity = *r.LastMessageAt
		}
		out = append(out, ThreadSummary{
			ThreadID: r.ThreadID,
			Role:     string(r.CallerRole),
			Counterparty: ThreadCounterparty{
				ID:          r.CounterpartyID,
				DisplayName: r.CounterpartyName,
				Role:        r.CounterpartyRole,
			},
			LastMessage: latest[r.ThreadID],
			CreatedAt:   r.ThreadCreatedAt,
			ActivityAt:  activity,
		})
	}
	return out, nil
}

func (s *chatService) Authorize(dbc dbctx.Context, caller Identity, threadID uuid.UUID) (*types.ChatParticipant, error) {
	if !caller.Authenticated() {
		return nil, apierr.Unauthorized("login required")
	}
	if threadID == uuid.Nil {
		return nil, apierr.InvalidInput("thread_id required")
	}
	thread, err := s.threads.GetByID(dbc, threadID)
	if err != nil {
		return nil, apierr.Server(fmt.Errorf("load thread: %w", err))
	}
	if thread == nil {
		return nil, apierr.ThreadNotFound()
	}
	p, err := s.participants.Get(dbc, threadID, caller.UserID)
	if err != nil {
		return nil, apierr.Server(fmt.Errorf("load participant: %w", err))
	}
	if p == nil {
		return nil, apierr.NotParticipant()
	}
	return p, nil
}

func (s *chatService) FetchPage(dbc dbctx.Context, caller Identity, threadID uuid.UUID, beforeID *int64) (*MessagePage, error) {
	if beforeID != nil && *beforeID <= 0 {
		return nil, apierr.InvalidInput("before_id must be positive")
	}
	if _, err := s.Authorize(dbc, caller, threadID); err != nil {
		return nil, err
	}
	msgs, err := s.messages.FetchPage(dbc, threadID, beforeID, s.cfg.PageSize)
	if err != nil {
		return nil, apierr.Server(fmt.Errorf("fetch messages: %w", err))
	}
	page := &MessagePage{Messages: msgs}
	if len(msgs) > 0 {
		next := msgs[0].ID
		page.NextBeforeID = &next
	}
	return page, nil
}

func (s *chatService) Append(dbc dbctx.Context, threadID, senderID uuid.UUID, body string) (*types.ChatMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apierr.InvalidInput("message body required")
	}
	if threadID == uuid.Nil {
		return nil, apierr.InvalidInput("thread_id required")
	}
	if senderID == uuid.Nil {
		return nil, apierr.Unauthorized("login required")
	}
	ctx := ctxOf(dbc)

	var msg *types.ChatMessage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		thread, err := s.threads.GetByID(inner, threadID)
		if err != nil {
			return err
		}
		if thread == nil {
			return apierr.ThreadNotFound()
		}
		if senderID != types.SystemSenderID {
			p, err := s.participants.Get(inner, threadID, senderID)
			if err != nil {
				return err
			}
			if p == nil {
				return apierr.NotParticipant()
			}
		}
		msg = &types.ChatMessage{
			ThreadID:  threadID,
			SenderID:  senderID,
			Body:      body,
			CreatedAt: s.now(),
		}
		if err := s.messages.Create(inner, msg); err != nil {
			return err
		}
		return s.threads.TouchLastMessage(inner, threadID, msg.CreatedAt)
	})
	if err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) {
			return nil, ae
		}
		return nil, apierr.Server(fmt.Errorf("append message: %w", err))
	}
	return msg, nil
}

func (s *chatService) PostMessage(dbc dbctx.Context, caller Identity, threadID uuid.UUID, body string) (*PostResult, error) {
	if !caller.Authenticated() {
		return nil, apierr.Unauthorized("login required")
	}
	ctx, span := observability.Tracer().Start(ctxOf(dbc), "chat.PostMessage")
	defer span.End()
	span.SetAttributes(attribute.String("chat.thread_id", threadID.String()))

	msg, err := s.Append(dbctx.Context{Ctx: ctx}, threadID, caller.UserID, body)
	if err != nil {
		return nil, err
	}
	s.metrics.IncMessage(messageOrigin(msg))
	s.log.Debug("chat message stored", "thread_id", threadID, "message_id", msg.ID, "sender_id", caller.UserID)

	// Everything past this point is best effort; the stored message stands.
	bg := context.WithoutCancel(ctx)
	s.touchPresence(bg, caller)
	s.publish(bg, threadID, msg)

	reply := s.autoReply(bg, caller, msg)
	if reply != nil {
		s.publish(bg, threadID, reply)
	}
	span.SetAttributes(attribute.Bool("chat.auto_reply", reply != nil))
	return &PostResult{Message: msg, AutoReply: reply}, nil
}

func (s *chatService) touchPresence(ctx context.Context, caller Identity) {
	if s.presence == nil || caller.Role == types.RoleUnknown {
		return
	}
	if err := s.presence.Touch(dbctx.Context{Ctx: ctx}, caller.UserID, string(caller.Role)); err != nil {
		s.log.Warn("implicit presence touch failed", "user_id", caller.UserID, "error", err)
	}
}

func (s *chatService) publish(ctx context.Context, threadID uuid.UUID, msg *types.ChatMessage) {
	if s.notify == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.metrics.IncPublishFailure("new-message")
			s.log.Error("chat publish panicked", "thread_id", threadID, "message_id", msg.ID, "panic", r)
		}
	}()
	if err := s.notify.MessageCreated(ctx, threadID, msg); err != nil {
		s.metrics.IncPublishFailure("new-message")
		s.log.Warn("chat publish failed", "thread_id", threadID, "message_id", msg.ID, "error", err)
	}
}

// autoReply returns the stored reply, or nil when gating suppresses it or any
// step fails.
func (s *chatService) autoReply(ctx context.Context, caller Identity, trigger *types.ChatMessage) (reply *types.ChatMessage) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.ObserveAutoReply(observability.AutoReplyFailed)
			s.log.Error("auto-reply panicked", "thread_id", trigger.ThreadID, "panic", r)
			reply = nil
		}
	}()
	if caller.Role != types.RoleTenant {
		return nil
	}
	dbc := dbctx.Context{Ctx: ctx}

	parts, err := s.participants.ListByThread(dbc, trigger.ThreadID)
	if err != nil {
		s.autoReplyFailed(trigger, "load participants", err)
		return nil
	}
	// The owner is the other participant of the pair.
	var owner *types.ChatParticipant
	for _, p := range parts {
		if p.UserID != trigger.SenderID && (owner == nil || p.Role == types.ParticipantCounterparty) {
			owner = p
		}
	}
	if owner == nil {
		s.metrics.ObserveAutoReply(observability.AutoReplyNoOwner)
		return nil
	}

	active, err := s.ownerActive(dbc, trigger, owner.UserID)
	if err != nil {
		s.autoReplyFailed(trigger, "owner activity check", err)
		return nil
	}
	if active {
		s.metrics.ObserveAutoReply(observability.AutoReplySuppressed)
		s.log.Debug("auto-reply suppressed; owner active", "thread_id", trigger.ThreadID)
		return nil
	}

	rules, err := s.rules.ListActive(dbc)
	if err != nil {
		s.autoReplyFailed(trigger, "load rules", err)
		return nil
	}
	res := autoreply.Match(trigger.Body, rules)

	if err := s.sleep(ctx, s.cfg.AutoReplyDelay); err != nil {
		s.autoReplyFailed(trigger, "reply delay", err)
		return nil
	}
	reply, err = s.Append(dbc, trigger.ThreadID, types.SystemSenderID, res.Response)
	if err != nil {
		s.autoReplyFailed(trigger, "append reply", err)
		return nil
	}
	outcome := observability.AutoReplySent
	if res.Fallback {
		outcome = observability.AutoReplyFallback
	}
	s.metrics.ObserveAutoReply(outcome)
	s.metrics.IncMessage(messageOrigin(reply))
	return reply
}

// ownerActive reports whether the owner sent a genuine message within the
// activity window before the trigger. Auto-replies carry the system sender
// id and never count.
func (s *chatService) ownerActive(dbc dbctx.Context, trigger *types.ChatMessage, ownerID uuid.UUID) (bool, error) {
	cutoff := trigger.CreatedAt.Add(-s.cfg.ActivityWindow)
	last, err := s.messages.LatestBySender(dbc, trigger.ThreadID, ownerID)
	if err != nil {
		return false, err
	}
	if last != nil && last.CreatedAt.After(cutoff) {
		return true, nil
	}
	if !s.cfg.PresenceGate || s.presence == nil {
		return false, nil
	}
	seen, err := s.presence.LastSeen(dbc, ownerID, string(types.RoleOwner))
	if err != nil {
		return false, err
	}
	return seen != nil && seen.After(cutoff), nil
}

func (s *chatService) autoReplyFailed(trigger *types.ChatMessage, step string, err error) {
	s.metrics.ObserveAutoReply(observability.AutoReplyFailed)
	s.log.Warn("auto-reply skipped", "thread_id", trigger.ThreadID, "step", step, "error", err)
}

func messageOrigin(m *types.ChatMessage) string {
	if m.IsAutoReply() {
		return "auto_reply"
	}
	return "human"
}

func ctxOf(dbc dbctx.Context) context.Context {
	if dbc.Ctx == nil {
		return context.Background()
	}
	return dbc.Ctx
}
