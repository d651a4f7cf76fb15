// Package repo implements the data persistence layer for conversations and
// idempotency records, backed by GORM.
//
// All functions are context-aware and accept a *gorm.DB handle, so the same
// helpers serve the SQLite fallback and the PostgreSQL primary. They follow
// the thin-repository approach: no business logic, only persistence and
// query composition.
//
// Error semantics:
//   - A missing conversation yields gorm.ErrRecordNotFound (exported here as
//     ErrNotFound).
//   - Any other database error is propagated unchanged.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/wellness-chat-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

func orderedMessages(tx *gorm.DB) *gorm.DB { return tx.Order("seq ASC") }

// FindConversation loads the conversation for (userID, sessionID) with its
// messages in append order.
func FindConversation(ctx context.Context, db *gorm.DB, userID, sessionID string) (*domain.Conversation, error) {
	var c domain.Conversation
	err := db.WithContext(ctx).
		Preload("Messages", orderedMessages).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	if c.Messages == nil {
		c.Messages = []domain.Message{}
	}
	return &c, nil
}

// SaveConversation upserts the conversation row and inserts any messages not
// yet stored. Messages are append-only, so existing (id) rows are left alone
// and saving the same aggregate twice is a no-op. A different message at an
// already stored seq fails the write.
func SaveConversation(ctx context.Context, db *gorm.DB, c *domain.Conversation) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"last_activity", "total_messages", "updated_at"}),
			}).
			Create(c).Error
		if err != nil {
			return err
		}
		if len(c.Messages) == 0 {
			return nil
		}
		for i := range c.Messages {
			c.Messages[i].ConversationID = c.ID
		}
		// Only an id conflict is a repeat; a seq conflict means another
		// writer appended to the same session and must surface as an error.
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).CreateInBatches(&c.Messages, 100).Error
	})
}

// DeleteConversation removes the conversation for (userID, sessionID) and all
// of its messages. It returns ErrNotFound when nothing matched.
func DeleteConversation(ctx context.Context, db *gorm.DB, userID, sessionID string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c domain.Conversation
		err := tx.Select("id").
			Where("user_id = ? AND session_id = ?", userID, sessionID).
			First(&c).Error
		if err != nil {
			return err
		}
		if err := tx.Where("conversation_id = ?", c.ID).Delete(&domain.Message{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", c.ID).Delete(&domain.Conversation{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// CountConversations returns how many conversations userID owns.
func CountConversations(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Conversation{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n, err
}

// ListConversationsPage returns a page of userID's conversations, most
// recently active first. Messages are not loaded.
func ListConversationsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Conversation, error) {
	var out []domain.Conversation
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_activity DESC").
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
