package tier

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tbourn/wellness-chat-backend/internal/domain"
	"github.com/tbourn/wellness-chat-backend/internal/observability"
)

// Prober checks whether the primary store can be reached.
type Prober interface {
	Ping(ctx context.Context) error
}

// Selector resolves the storage tier for an account.
type Selector struct {
	cache   *ConnectivityCache
	prober  Prober
	timeout time.Duration
	group   singleflight.Group
}

// NewSelector builds a selector that probes with the given timeout and reuses
// a verdict for ttl.
func NewSelector(p Prober, ttl, timeout time.Duration) *Selector {
	return &Selector{cache: NewConnectivityCache(ttl), prober: p, timeout: timeout}
}

// Select returns the tier for acct. It never fails: an unreachable primary
// downgrades to the fallback tier.
func (s *Selector) Select(ctx context.Context, acct domain.Account) domain.StorageTier {
	t := domain.TierFallback
	switch {
	case acct.IsDemo():
		t = domain.TierDemo
	case s.reachable(ctx):
		t = domain.TierPrimary
	}
	observability.RecordTier(t)
	return t
}

// Verdict returns the last probe outcome, refreshing it when stale.
func (s *Selector) Verdict(ctx context.Context) Verdict {
	s.reachable(ctx)
	v, _ := s.cache.Last()
	return v
}

// Invalidate drops the cached verdict, e.g. after a write to the primary
// failed.
func (s *Selector) Invalidate() { s.cache.Invalidate() }

func (s *Selector) reachable(ctx context.Context) bool {
	if v, ok := s.cache.Fresh(); ok {
		return v.Reachable
	}
	// Concurrent callers share one probe. The probe runs detached from the
	// first caller's cancellation so its result is still worth caching.
	res, _, _ := s.group.Do("probe", func() (any, error) {
		if v, ok := s.cache.Fresh(); ok {
			return v, nil
		}
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		err := s.prober.Ping(pctx)
		prev, hadPrev := s.cache.Last()
		v := s.cache.Record(err)

		l := observability.Logger(ctx)
		switch {
		case err != nil && (!hadPrev || prev.Reachable):
			l.Warn().Err(err).Dur("timeout", s.timeout).Msg("primary store unreachable; using fallback tier")
		case err != nil:
			l.Debug().Err(err).Msg("primary store still unreachable")
		case hadPrev && !prev.Reachable:
			l.Info().Msg("primary store reachable again")
		}
		return v, nil
	})
	return res.(Verdict).Reachable
}
