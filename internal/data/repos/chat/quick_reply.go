package chat

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/rentalchat-backend/internal/domain"
	"github.com/yungbote/rentalchat-backend/internal/platform/dbctx"
	"github.com/yungbote/rentalchat-backend/internal/platform/logger"
)

type QuickReplyRepo interface {
	ListActive(dbc dbctx.Context, category string) ([]*types.QuickReplyTemplate, error)
	ReplaceAll(dbc dbctx.Context, rows []*types.QuickReplyTemplate) error
}

type quickReplyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuickReplyRepo(db *gorm.DB, log *logger.Logger) QuickReplyRepo {
	return &quickReplyRepo{db: db, log: log.With("repo", "QuickReplyRepo")}
}

func (r *quickReplyRepo) ListActive(dbc dbctx.Context, category string) ([]*types.QuickReplyTemplate, error) {
	q := dbc.Or(r.db).Where("active = ?", true)
	if c := strings.TrimSpace(category); c != "" {
		q = q.Where("category = ?", c)
	}
	var out []*types.QuickReplyTemplate
	if err := q.Order("position ASC").Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *quickReplyRepo) ReplaceAll(dbc dbctx.Context, rows []*types.QuickReplyTemplate) error {
	if dbc.Tx == nil {
		return fmt.Errorf("ReplaceAll requires dbc.Tx")
	}
	txx := dbc.Or(r.db)
	if err := txx.Where("1 = 1").Delete(&types.QuickReplyTemplate{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i, row := range rows {
		if row == nil {
			continue
		}
		if row.Category == "" {
			row.Category = "general"
		}
		if row.Position == 0 {
			row.Position = i + 1
		}
		row.CreatedAt = now
		row.UpdatedAt = now
	}
	return txx.Create(&rows).Error
}
