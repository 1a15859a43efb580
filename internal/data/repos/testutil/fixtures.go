package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/rentalchat-backend/internal/domain"
)

func SeedAccount(tb testing.TB, ctx context.Context, tx *gorm.DB, name string, role types.Role) *types.Account {
	tb.Helper()
	now := time.Now().UTC()
	a := &types.Account{
		ID:          uuid.New(),
		DisplayName: name,
		Role:        role,
		Email:       name + "@example.com",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed account: %v", err)
	}
	return a
}

// SeedThread creates a thread with both participant rows directly, bypassing
// the registry.
func SeedThread(tb testing.TB, ctx context.Context, tx *gorm.DB, initiator, counterparty uuid.UUID, createdAt time.Time) *types.ChatThread {
	tb.Helper()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	th := &types.ChatThread{
		ID:        uuid.New(),
		PairKey:   types.PairKey(initiator, counterparty),
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := tx.WithContext(ctx).Create(th).Error; err != nil {
		tb.Fatalf("seed thread: %v", err)
	}
	parts := []*types.ChatParticipant{
		{ThreadID: th.ID, UserID: initiator, Role: types.ParticipantInitiator, CreatedAt: createdAt},
		{ThreadID: th.ID, UserID: counterparty, Role: types.ParticipantCounterparty, CreatedAt: createdAt},
	}
	if err := tx.WithContext(ctx).Create(&parts).Error; err != nil {
		tb.Fatalf("seed participants: %v", err)
	}
	return th
}

func SeedMessage(tb testing.TB, ctx context.Context, tx *gorm.DB, threadID, senderID uuid.UUID, body string, at time.Time) *types.ChatMessage {
	tb.Helper()
	m := &types.ChatMessage{ThreadID: threadID, SenderID: senderID, Body: body, CreatedAt: at.UTC()}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed message: %v", err)
	}
	if err := tx.WithContext(ctx).Model(&types.ChatThread{}).Where("id = ?", threadID).
		Update("last_message_at", at.UTC()).Error; err != nil {
		tb.Fatalf("seed message touch thread: %v", err)
	}
	return m
}
