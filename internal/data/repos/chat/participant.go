package chat

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/rentalchat-backend/internal/domain"
	"github.com/yungbote/rentalchat-backend/internal/platform/dbctx"
	"github.com/yungbote/rentalchat-backend/internal/platform/logger"
)

type ParticipantRepo interface {
	Create(dbc dbctx.Context, rows []*types.ChatParticipant) error
	Get(dbc dbctx.Context, threadID, userID uuid.UUID) (*types.ChatParticipant, error)
	ListByThread(dbc dbctx.Context, threadID uuid.UUID) ([]*types.ChatParticipant, error)
	CountByThread(dbc dbctx.Context, threadID uuid.UUID) (int64, error)
}

type participantRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewParticipantRepo(db *gorm.DB, log *logger.Logger) ParticipantRepo {
	return &participantRepo{db: db, log: log.With("repo", "ParticipantRepo")}
}

func (r *participantRepo) Create(dbc dbctx.Context, rows []*types.ChatParticipant) error {
	if len(rows) == 0 {
		return nil
	}
	return dbc.Or(r.db).Create(&rows).Error
}

// Get returns nil, nil when the user is not a participant of the thread.
func (r *participantRepo) Get(dbc dbctx.Context, threadID, userID uuid.UUID) (*types.ChatParticipant, error) {
	if threadID == uuid.Nil || userID == uuid.Nil {
		return nil, fmt.Errorf("missing thread_id or user_id")
	}
	var out types.ChatParticipant
	err := dbc.Or(r.db).
		Where("thread_id = ? AND user_id = ?", threadID, userID).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *participantRepo) ListByThread(dbc dbctx.Context, threadID uuid.UUID) ([]*types.ChatParticipant, error) {
	if threadID == uuid.Nil {
		return nil, fmt.Errorf("missing thread_id")
	}
	var out []*types.ChatParticipant
	if err := dbc.Or(r.db).
		Where("thread_id = ?", threadID).
		Order("created_at ASC, user_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *participantRepo) CountByThread(dbc dbctx.Context, threadID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.Or(r.db).
		Model(&types.ChatParticipant{}).
		Where("thread_id = ?", threadID).
		Count(&n).Error
	return n, err
}
