package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/rentalchat-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return EnsureChatIndexes(db)
}

// EnsureChatIndexes adds composite indexes gorm tags cannot express portably.
// The statements are valid on both Postgres and SQLite.
func EnsureChatIndexes(db *gorm.DB) error {
	stmts := []string{
		`CREATE INDEX IF NOT EXISTS idx_chat_message_thread_sender_id ON chat_message(thread_id, sender_id, id)`,
		`CREATE INDEX IF NOT EXISTS idx_auto_reply_rule_active_priority ON auto_reply_rule(active, priority, id)`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("ensure chat indexes: %w", err)
		}
	}
	return nil
}
