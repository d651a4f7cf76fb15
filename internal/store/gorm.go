package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/wellness-chat-backend/internal/domain"
	"github.com/tbourn/wellness-chat-backend/internal/repo"
)

// GormStore persists conversations through the repo package. The same type
// serves the SQLite fallback and the PostgreSQL primary.
type GormStore struct {
	DB *gorm.DB
}

// NewGormStore wraps db.
func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{DB: db} }

// Find loads a conversation with its ordered messages.
func (s *GormStore) Find(ctx context.Context, userID, sessionID string) (*domain.Conversation, error) {
	c, err := repo.FindConversation(ctx, s.DB, userID, sessionID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	return c, err
}

// Save upserts the conversation and appends unsaved messages.
func (s *GormStore) Save(ctx context.Context, c *domain.Conversation) error {
	return repo.SaveConversation(ctx, s.DB, c)
}

// Delete removes a conversation and its messages.
func (s *GormStore) Delete(ctx context.Context, userID, sessionID string) error {
	err := repo.DeleteConversation(ctx, s.DB, userID, sessionID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// List returns one page of userID's conversations (without messages) and the
// total count.
func (s *GormStore) List(ctx context.Context, userID string, offset, limit int) ([]domain.Conversation, int64, error) {
	total, err := repo.CountConversations(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	items, err := repo.ListConversationsPage(ctx, s.DB, userID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Stats returns the conversation count and latest activity for userID.
func (s *GormStore) Stats(ctx context.Context, userID string) (int64, *time.Time, error) {
	return repo.ConversationsStats(ctx, s.DB, userID)
}
