// Package services holds the session orchestrator and the supporting
// conversation operations. This file centralizes service-level errors so
// handlers can map them to HTTP results consistently.
package services

import (
	"errors"
	"fmt"

	"github.com/tbourn/wellness-chat-backend/internal/domain"
)

var (
	// ErrValidation wraps every rejected request. No side effects have
	// happened when it is returned.
	ErrValidation = errors.New("invalid request")

	// ErrConversationNotFound indicates there is no conversation for the
	// (user, session) pair in the tier(s) consulted.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrPersistence indicates the conversation could not be written.
	ErrPersistence = errors.New("conversation could not be saved")

	// ErrPrimaryUnavailable is returned by operations that only the primary
	// store can serve while it is unreachable.
	ErrPrimaryUnavailable = errors.New("primary store unavailable")

	// ErrNotDemoAccount is returned when a demo-only operation targets a
	// registered account.
	ErrNotDemoAccount = errors.New("not a demo account")
)

func validation(msg string) error { return fmt.Errorf("%w: %s", ErrValidation, msg) }

// PersistenceError reports a failed write. Reply is the turn that was
// produced but could not be stored; it is still delivered to the caller so a
// crisis reply is never lost.
type PersistenceError struct {
	Reply *ChatReply
	Tier  domain.StorageTier
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("save conversation to %s tier: %v", e.Tier, e.Err)
}

// Unwrap exposes both ErrPersistence and the underlying cause.
func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }
