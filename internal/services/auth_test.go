package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/rentalchat-backend/internal/domain"
	"github.com/yungbote/rentalchat-backend/internal/platform/logger"
)

func TestAuthServiceRoundTrip(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	as := NewAuthService(logger.Nop(), "secret", func() time.Time { return now })
	userID := uuid.New()

	token, err := as.IssueToken(userID, "Landlord", time.Hour)
	require.NoError(t, err)

	ctx, err := as.SetContextFromToken(context.Background(), token)
	require.NoError(t, err)
	id := IdentityFromContext(ctx)
	require.Equal(t, userID, id.UserID)
	require.Equal(t, types.RoleOwner, id.Role)
}

func TestAuthServiceRejects(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	as := NewAuthService(logger.Nop(), "secret", clock)
	userID := uuid.New()

	token, err := as.IssueToken(userID, "tenant", time.Minute)
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later := NewAuthService(logger.Nop(), "secret", func() time.Time { return now.Add(2 * time.Minute) })
		_, err := later.SetContextFromToken(context.Background(), token)
		require.Error(t, err)
	})
	t.Run("wrong secret", func(t *testing.T) {
		other := NewAuthService(logger.Nop(), "other", clock)
		_, err := other.SetContextFromToken(context.Background(), token)
		require.Error(t, err)
	})
	t.Run("empty", func(t *testing.T) {
		_, err := as.SetContextFromToken(context.Background(), "")
		require.Error(t, err)
	})
	t.Run("nil user", func(t *testing.T) {
		_, err := as.IssueToken(uuid.Nil, "tenant", time.Minute)
		require.Error(t, err)
	})
}

func TestIdentityFromContextWithoutRequestData(t *testing.T) {
	id := IdentityFromContext(context.Background())
	require.False(t, id.Authenticated())
}
