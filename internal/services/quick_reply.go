package services

import (
	"fmt"

	"github.com/yungbote/rentalchat-backend/internal/data/repos"
	"github.com/yungbote/rentalchat-backend/internal/platform/apierr"
	"github.com/yungbote/rentalchat-backend/internal/platform/dbctx"
	"github.com/yungbote/rentalchat-backend/internal/platform/logger"
)

// QuickReply is the composer shortcut shape served to clients.
type QuickReply struct {
	ID       int64  `json:"id"`
	Message  string `json:"message"`
	Category string `json:"category"`
}

type QuickReplyService interface {
	List(dbc dbctx.Context, category string) ([]QuickReply, error)
}

type quickReplyService struct {
	log  *logger.Logger
	repo repos.QuickReplyRepo
}

func NewQuickReplyService(log *logger.Logger, repo repos.QuickReplyRepo) QuickReplyService {
	return &quickReplyService{log: log.With("service", "QuickReplyService"), repo: repo}
}

func (s *quickReplyService) List(dbc dbctx.Context, category string) ([]QuickReply, error) {
	rows, err := s.repo.ListActive(dbc, category)
	if err != nil {
		return nil, apierr.Server(fmt.Errorf("list quick replies: %w", err))
	}
	out := make([]QuickReply, 0, len(rows))
	for _, r := range rows {
		out = append(out, QuickReply{ID: r.ID, Message: r.Message, Category: r.Category})
	}
	return out, nil
}
