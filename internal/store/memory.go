package store

import (
	"context"
	"sync"

	"github.com/tbourn/wellness-chat-backend/internal/domain"
)

// MemoryStore is the demo tier: process-local conversations grouped by user.
// Nothing survives a restart and a user's data is only dropped by Cleanup.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]map[string]*domain.Conversation
}

// NewMemoryStore returns an empty demo store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]map[string]*domain.Conversation)}
}

// Find returns a copy of the stored conversation.
func (s *MemoryStore) Find(ctx context.Context, userID, sessionID string) (*domain.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.users[userID][sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

// Save stores a copy of c, replacing any previous version.
func (s *MemoryStore) Save(ctx context.Context, c *domain.Conversation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := c.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions, ok := s.users[c.UserID]
	if !ok {
		sessions = make(map[string]*domain.Conversation)
		s.users[c.UserID] = sessions
	}
	sessions[c.SessionID] = cp
	return nil
}

// Delete removes one conversation.
func (s *MemoryStore) Delete(ctx context.Context, userID, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := sessions[sessionID]; !ok {
		return ErrNotFound
	}
	delete(sessions, sessionID)
	if len(sessions) == 0 {
		delete(s.users, userID)
	}
	return nil
}

// Cleanup drops every conversation of userID and reports how many were held.
func (s *MemoryStore) Cleanup(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.users[userID])
	delete(s.users, userID)
	return n
}
