package chat

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/rentalchat-backend/internal/domain"
	"github.com/yungbote/rentalchat-backend/internal/platform/dbctx"
	"github.com/yungbote/rentalchat-backend/internal/platform/logger"
)

const DefaultPageSize = 30

type MessageRepo interface {
	Create(dbc dbctx.Context, msg *types.ChatMessage) error
	FetchPage(dbc dbctx.Context, threadID uuid.UUID, beforeID *int64, limit int) ([]*types.ChatMessage, error)
	LatestBySender(dbc dbctx.Context, threadID, senderID uuid.UUID) (*types.ChatMessage, error)
	LatestByThreads(dbc dbctx.Context, threadIDs []uuid.UUID) (map[uuid.UUID]*types.ChatMessage, error)
	CountByThread(dbc dbctx.Context, threadID uuid.UUID) (int64, error)
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, log *logger.Logger) MessageRepo {
	return &messageRepo{db: db, log: log.With("repo", "MessageRepo")}
}

// Create inserts msg; the store assigns msg.ID.
func (r *messageRepo) Create(dbc dbctx.Context, msg *types.ChatMessage) error {
	if msg == nil {
		return fmt.Errorf("missing message")
	}
	if msg.ThreadID == uuid.Nil || msg.SenderID == uuid.Nil {
		return fmt.Errorf("missing thread_id or sender_id")
	}
	if msg.ID != 0 {
		return fmt.Errorf("message id is store-assigned")
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	return dbc.Or(r.db).Create(msg).Error
}

// FetchPage returns up to limit messages with id < *beforeID (all ids when
// beforeID is nil), newest page first, sorted ascending by id.
func (r *messageRepo) FetchPage(dbc dbctx.Context, threadID uuid.UUID, beforeID *int64, limit int) ([]*types.ChatMessage, error) {
	if threadID == uuid.Nil {
		return nil, fmt.Errorf("missing thread_id")
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	q := dbc.Or(r.db).Where("thread_id = ?", threadID)
	if beforeID != nil {
		q = q.Where("id < ?", *beforeID)
	}
	var out []*types.ChatMessage
	if err := q.Order("id DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// LatestBySender returns nil, nil when the sender has no message in the thread.
func (r *messageRepo) LatestBySender(dbc dbctx.Context, threadID, senderID uuid.UUID) (*types.ChatMessage, error) {
	if threadID == uuid.Nil || senderID == uuid.Nil {
		return nil, fmt.Errorf("missing thread_id or sender_id")
	}
	var out types.ChatMessage
	err := dbc.Or(r.db).
		Where("thread_id = ? AND sender_id = ?", threadID, senderID).
		Order("id DESC").
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *messageRepo) LatestByThreads(dbc dbctx.Context, threadIDs []uuid.UUID) (map[uuid.UUID]*types.ChatMessage, error) {
	out := map[uuid.UUID]*types.ChatMessage{}
	if len(threadIDs) == 0 {
		return out, nil
	}
	txx := dbc.Or(r.db)
	latest := txx.Session(&gorm.Session{NewDB: true}).
		Model(&types.ChatMessage{}).
		Select("MAX(id)").
		Where("thread_id IN ?", threadIDs).
		Group("thread_id")
	var rows []*types.ChatMessage
	if err := txx.Where("id IN (?)", latest).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, m := range rows {
		out[m.ThreadID] = m
	}
	return out, nil
}

func (r *messageRepo) CountByThread(dbc dbctx.Context, threadID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.Or(r.db).
		Model(&types.ChatMessage{}).
		Where("thread_id = ?", threadID).
		Count(&n).Error
	return n, err
}
