package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/rentalchat-backend/internal/data/repos"
	types "github.com/yungbote/rentalchat-backend/internal/domain"
	"github.com/yungbote/rentalchat-backend/internal/platform/apierr"
	"github.com/yungbote/rentalchat-backend/internal/platform/dbctx"
	"github.com/yungbote/rentalchat-backend/internal/platform/logger"
)

type PresenceService interface {
	// Touch records activity for (user, normalized role).
	Touch(dbc dbctx.Context, userID uuid.UUID, role string) error
	LastSeen(dbc dbctx.Context, userID uuid.UUID, role string) (*time.Time, error)
}

type presenceService struct {
	log  *logger.Logger
	repo repos.PresenceRepo
	now  Clock
}

func NewPresenceService(log *logger.Logger, repo repos.PresenceRepo, clock Clock) PresenceService {
	if clock == nil {
		clock = systemClock
	}
	return &presenceService{
		log:  log.With("service", "PresenceService"),
		repo: repo,
		now:  clock,
	}
}

func (s *presenceService) Touch(dbc dbctx.Context, userID uuid.UUID, role string) error {
	if userID == uuid.Nil {
		return apierr.Unauthorized("login required")
	}
	norm := types.NormalizeRole(role)
	if norm == types.RoleUnknown {
		return apierr.InvalidInput(fmt.Sprintf("unknown role %q", role))
	}
	if err := s.repo.Upsert(dbc, userID, string(norm), s.now()); err != nil {
		return apierr.Server(fmt.Errorf("touch presence: %w", err))
	}
	return nil
}

func (s *presenceService) LastSeen(dbc dbctx.Context, userID uuid.UUID, role string) (*time.Time, error) {
	norm := types.NormalizeRole(role)
	if userID == uuid.Nil || norm == types.RoleUnknown {
		return nil, nil
	}
	rec, err := s.repo.Get(dbc, userID, string(norm))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	t := rec.LastSeenAt
	return &t, nil
}
