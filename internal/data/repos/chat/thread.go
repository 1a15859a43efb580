package chat

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/rentalchat-backend/internal/domain"
	"github.com/yungbote/rentalchat-backend/internal/platform/dbctx"
	"github.com/yungbote/rentalchat-backend/internal/platform/logger"
)

// ThreadSummaryRow is one row of the thread list: the caller's thread joined
// with the other participant's directory entry.
type ThreadSummaryRow struct {
	ThreadID             uuid.UUID
	ThreadCreatedAt      time.Time
	LastMessageAt        *time.Time
	CallerRole           types.ParticipantRole
	CounterpartyID       uuid.UUID
	CounterpartyName     string
	CounterpartyRole     string
	CounterpartyPartRole types.ParticipantRole
}

type ThreadRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ChatThread, error)
	GetByPairKey(dbc dbctx.Context, pairKey string) (*types.ChatThread, error)
	InsertIfAbsent(dbc dbctx.Context, thread *types.ChatThread) (bool, error)
	TouchLastMessage(dbc dbctx.Context, id uuid.UUID, at time.Time) error
	ListSummariesForUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]ThreadSummaryRow, error)
}

type threadRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewThreadRepo(db *gorm.DB, log *logger.Logger) ThreadRepo {
	return &threadRepo{db: db, log: log.With("repo", "ThreadRepo")}
}

// GetByID returns nil, nil when the thread does not exist.
func (r *threadRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ChatThread, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	txx := dbc.Or(r.db)
	var out types.ChatThread
	err := txx.Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *threadRepo) GetByPairKey(dbc dbctx.Context, pairKey string) (*types.ChatThread, error) {
	if pairKey == "" {
		return nil, fmt.Errorf("missing pair_key")
	}
	txx := dbc.Or(r.db)
	var out types.ChatThread
	err := txx.Where("pair_key = ?", pairKey).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// InsertIfAbsent inserts the thread unless another row already holds its pair
// key. It reports whether this call created the row.
func (r *threadRepo) InsertIfAbsent(dbc dbctx.Context, thread *types.ChatThread) (bool, error) {
	if thread == nil || thread.PairKey == "" {
		return false, fmt.Errorf("missing thread pair_key")
	}
	if thread.ID == uuid.Nil {
		thread.ID = uuid.New()
	}
	now := time.Now().UTC()
	if thread.CreatedAt.IsZero() {
		thread.CreatedAt = now
	}
	if thread.UpdatedAt.IsZero() {
		thread.UpdatedAt = thread.CreatedAt
	}
	res := dbc.Or(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pair_key"}},
			DoNothing: true,
		}).
		Create(thread)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *threadRepo) TouchLastMessage(dbc dbctx.Context, id uuid.UUID, at time.Time) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	return dbc.Or(r.db).
		Model(&types.ChatThread{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_message_at": at,
			"updated_at":      at,
		}).Error
}

func (r *threadRepo) ListSummariesForUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]ThreadSummaryRow, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	type row struct {
		ThreadID             uuid.UUID
		ThreadCreatedAt      time.Time
		LastMessageAt        *time.Time
		CallerRole           string
		CounterpartyID       uuid.UUID
		CounterpartyName     *string
		CounterpartyRole     *string
		CounterpartyPartRole string
	}
	var rows []row
	err := dbc.Or(r.db).
		Table("chat_participant AS me").
		Select(`t.id AS thread_id,
			t.created_at AS thread_created_at,
			t.last_message_at AS last_message_at,
			me.role AS caller_role,
			other.user_id AS counterparty_id,
			a.display_name AS counterparty_name,
			a.role AS counterparty_role,
			other.role AS counterparty_part_role`).
		Joins("JOIN chat_thread AS t ON t.id = me.thread_id").
		Joins("JOIN chat_participant AS other ON other.thread_id = me.thread_id AND other.user_id <> me.user_id").
		Joins("LEFT JOIN account AS a ON a.id = other.user_id").
		Where("me.user_id = ?", userID).
		Order("COALESCE(t.last_message_at, t.created_at) DESC").
		Order("t.id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]ThreadSummaryRow, 0, len(rows))
	for _, rr := range rows {
		s := ThreadSummaryRow{
			ThreadID:             rr.ThreadID,
			ThreadCreatedAt:      rr.ThreadCreatedAt,
			LastMessageAt:        rr.LastMessageAt,
			CallerRole:           types.ParticipantRole(rr.CallerRole),
			CounterpartyID:       rr.CounterpartyID,
			CounterpartyPartRole: types.ParticipantRole(rr.CounterpartyPartRole),
		}
		if rr.CounterpartyName != nil {
			s.CounterpartyName = *rr.CounterpartyName
		}
		if rr.CounterpartyRole != nil {
			s.CounterpartyRole = *rr.CounterpartyRole
		}
		out = append(out, s)
	}
	return out, nil
}
