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

type PresenceRepo interface {
	Upsert(dbc dbctx.Context, userID uuid.UUID, role string, at time.Time) error
	Get(dbc dbctx.Context, userID uuid.UUID, role string) (*types.PresenceRecord, error)
}

type presenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPresenceRepo(db *gorm.DB, log *logger.Logger) PresenceRepo {
	return &presenceRepo{db: db, log: log.With("repo", "PresenceRepo")}
}

// Upsert writes last_seen_at for (user, role); the last write wins.
func (r *presenceRepo) Upsert(dbc dbctx.Context, userID uuid.UUID, role string, at time.Time) error {
	if userID == uuid.Nil || role == "" {
		return fmt.Errorf("missing user_id or role")
	}
	row := &types.PresenceRecord{UserID: userID, Role: role, LastSeenAt: at.UTC()}
	return dbc.Or(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "role"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_seen_at"}),
		}).
		Create(row).Error
}

func (r *presenceRepo) Get(dbc dbctx.Context, userID uuid.UUID, role string) (*types.PresenceRecord, error) {
	if userID == uuid.Nil || role == "" {
		return nil, nil
	}
	var row types.PresenceRecord
	err := dbc.Or(r.db).
		Where("user_id = ? AND role = ?", userID, role).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
