// Package tier decides which storage tier serves a request. Demo accounts are
// routed to the in-memory store without any I/O; everyone else goes to the
// primary database when the last connectivity probe succeeded and to the
// local fallback otherwise.
package tier

import (
	"sync"
	"time"
)

// Verdict is the outcome of one connectivity probe.
type Verdict struct {
	Reachable bool      `json:"reachable"`
	CheckedAt time.Time `json:"checkedAt"`
	Error     string    `json:"error,omitempty"`
}

// ConnectivityCache holds the most recent verdict and reports whether it is
// still within its validity window.
type ConnectivityCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	verdict Verdict
	set     bool
	now     func() time.Time
}

// NewConnectivityCache returns an empty cache whose verdicts expire after ttl.
func NewConnectivityCache(ttl time.Duration) *ConnectivityCache {
	return &ConnectivityCache{ttl: ttl, now: time.Now}
}

// Fresh returns the cached verdict if it is younger than the TTL.
func (c *ConnectivityCache) Fresh() (Verdict, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.set || c.now().Sub(c.verdict.CheckedAt) >= c.ttl {
		return Verdict{}, false
	}
	return c.verdict, true
}

// Last returns the most recent verdict regardless of age.
func (c *ConnectivityCache) Last() (Verdict, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.verdict, c.set
}

// Record stores a probe outcome stamped with the current time. Later writers
// win.
func (c *ConnectivityCache) Record(err error) Verdict {
	v := Verdict{Reachable: err == nil}
	if err != nil {
		v.Error = err.Error()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v.CheckedAt = c.now()
	c.verdict = v
	c.set = true
	return v
}

// Invalidate forces the next lookup to probe again.
func (c *ConnectivityCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set = false
}
