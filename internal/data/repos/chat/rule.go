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

type AutoReplyRuleRepo interface {
	Create(dbc dbctx.Context, rows []*types.AutoReplyRule) error
	ListActive(dbc dbctx.Context) ([]*types.AutoReplyRule, error)
	ReplaceAll(dbc dbctx.Context, rows []*types.AutoReplyRule) error
}

type autoReplyRuleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAutoReplyRuleRepo(db *gorm.DB, log *logger.Logger) AutoReplyRuleRepo {
	return &autoReplyRuleRepo{db: db, log: log.With("repo", "AutoReplyRuleRepo")}
}

func (r *autoReplyRuleRepo) Create(dbc dbctx.Context, rows []*types.AutoReplyRule) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row == nil {
			continue
		}
		row.Trigger = strings.TrimSpace(row.Trigger)
		if !row.MatchKind.Valid() {
			return fmt.Errorf("invalid match kind %q for trigger %q", row.MatchKind, row.Trigger)
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		row.UpdatedAt = now
	}
	return dbc.Or(r.db).Create(&rows).Error
}

// ListActive returns active rules in configured order: priority, then
// insertion order.
func (r *autoReplyRuleRepo) ListActive(dbc dbctx.Context) ([]*types.AutoReplyRule, error) {
	var out []*types.AutoReplyRule
	if err := dbc.Or(r.db).
		Where("active = ?", true).
		Order("priority ASC").
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ReplaceAll swaps the rule table contents. Callers pass a transaction so
// readers never observe an empty rule set.
func (r *autoReplyRuleRepo) ReplaceAll(dbc dbctx.Context, rows []*types.AutoReplyRule) error {
	if dbc.Tx == nil {
		return fmt.Errorf("ReplaceAll requires dbc.Tx")
	}
	if err := dbc.Or(r.db).Where("1 = 1").Delete(&types.AutoReplyRule{}).Error; err != nil {
		return err
	}
	return r.Create(dbc, rows)
}
