// Package store provides the tiered conversation store: one
// ConversationStore interface implemented by an in-memory demo store and a
// GORM-backed store used for both the SQLite fallback and the PostgreSQL
// primary. Registry picks the implementation for a storage tier.
package store

import (
	"context"
	"errors"

	"github.com/tbourn/wellness-chat-backend/internal/domain"
)

var (
	// ErrNotFound is returned when no conversation exists for (userID, sessionID).
	ErrNotFound = errors.New("conversation not found")
	// ErrUnavailable is returned when a tier's backing store cannot be used.
	ErrUnavailable = errors.New("store unavailable")
)

// ConversationStore reads and writes whole conversations. Implementations must
// behave identically so callers stay tier-agnostic:
//   - Find returns ErrNotFound for an absent conversation.
//   - Save is idempotent; saving the same aggregate twice stores it once.
//   - Delete removes the conversation and its messages, or returns ErrNotFound.
//
// Write failures are always returned to the caller.
type ConversationStore interface {
	Find(ctx context.Context, userID, sessionID string) (*domain.Conversation, error)
	Save(ctx context.Context, c *domain.Conversation) error
	Delete(ctx context.Context, userID, sessionID string) error
}
