package store

import (
	"fmt"

	"github.com/tbourn/wellness-chat-backend/internal/domain"
)

// Registry maps a storage tier to its ConversationStore.
type Registry struct {
	demo     *MemoryStore
	fallback *GormStore
	primary  *Primary
}

// NewRegistry wires the three tiers.
func NewRegistry(demo *MemoryStore, fallback *GormStore, primary *Primary) *Registry {
	return &Registry{demo: demo, fallback: fallback, primary: primary}
}

// For returns the store for tier. The primary tier yields ErrUnavailable
// until the primary database has been reached at least once.
func (r *Registry) For(tier domain.StorageTier) (ConversationStore, error) {
	switch tier {
	case domain.TierDemo:
		return r.demo, nil
	case domain.TierFallback:
		return r.fallback, nil
	case domain.TierPrimary:
		if r.primary == nil {
			return nil, ErrUnavailable
		}
		s, err := r.primary.Store()
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage tier %q", tier)
	}
}

// Demo returns the demo store.
func (r *Registry) Demo() *MemoryStore { return r.demo }

// Primary returns the primary store, or ErrUnavailable.
func (r *Registry) Primary() (*GormStore, error) {
	if r.primary == nil {
		return nil, ErrUnavailable
	}
	return r.primary.Store()
}
