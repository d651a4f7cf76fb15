package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/wellness-chat-backend/internal/repo"
)

// IdempotencyService records completed chat turns so a retried request with
// the same Idempotency-Key replays the stored response instead of appending
// the message again.
type IdempotencyService struct {
	DB  *gorm.DB
	TTL time.Duration
}

// Lookup returns the stored status and body for (userID, sessionID, key).
func (s *IdempotencyService) Lookup(ctx context.Context, userID, sessionID, key string) (status int, body []byte, ok bool, err error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, userID, sessionID, key, time.Now().UTC())
	if errors.Is(err, repo.ErrNotFound) {
		return 0, nil, false, nil
	}
	if err != nil {
		return 0, nil, false, err
	}
	return rec.Status, rec.Response, true, nil
}

// Exists reports whether a live record exists for (userID, sessionID, key).
func (s *IdempotencyService) Exists(ctx context.Context, userID, sessionID, key string, now time.Time) (bool, error) {
	return repo.IdempotencyExists(ctx, s.DB, userID, sessionID, key, now)
}

// Remember stores a response. A concurrent duplicate is not an error.
func (s *IdempotencyService) Remember(ctx context.Context, userID, sessionID, key string, status int, body []byte) error {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	_, err := repo.CreateIdempotency(ctx, s.DB, userID, sessionID, key, status, body, ttl)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

// Purge removes expired records.
func (s *IdempotencyService) Purge(ctx context.Context) (int64, error) {
	return repo.PurgeExpiredIdempotency(ctx, s.DB, time.Now().UTC())
}
