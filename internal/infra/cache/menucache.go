package cache

import (
	"sync"
	"time"

	"github.com/suryadigit/affiliate-gateway/internal/domain"
)

// MenuCache holds one menu envelope per user. Reuse is gated by the
// envelope's own validity rules (age under 10s, matching owner).
//
// Profile refresh and menu fetch run concurrently and may complete in any
// order, so each fetch takes a sequence number before it starts and a
// response is only applied if no higher sequence number has been applied
// for that user already. Arrival order alone never decides the winner.
type MenuCache struct {
	mu      sync.Mutex
	nextSeq uint64
	entries map[string]*menuEntry
}

type menuEntry struct {
	envelope *domain.MenuEnvelope
	applied  uint64 // highest sequence number applied for this user
}

// NewMenuCache creates an empty menu cache.
func NewMenuCache() *MenuCache {
	return &MenuCache{entries: make(map[string]*menuEntry)}
}

// NextSeq hands out the sequence number for a fetch about to be issued.
func (c *MenuCache) NextSeq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextSeq++
	return c.nextSeq
}

// Apply stores the envelope for its user unless a response with a higher
// sequence number already landed. Returns whether the envelope was applied.
func (c *MenuCache) Apply(seq uint64, env *domain.MenuEnvelope) bool {
	if env == nil || env.UserID == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[env.UserID]
	if !ok {
		e = &menuEntry{}
		c.entries[env.UserID] = e
	}
	if seq < e.applied {
		return false
	}
	e.applied = seq
	e.envelope = env
	return true
}

// Get returns the cached envelope for userID if it is still valid at now.
// Stale or foreign envelopes are dropped on read.
func (c *MenuCache) Get(userID string, now time.Time) (*domain.MenuEnvelope, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[userID]
	if !ok || e.envelope == nil {
		return nil, false
	}
	if !e.envelope.ValidFor(userID, now) {
		e.envelope = nil
		return nil, false
	}
	return e.envelope, true
}

// Invalidate drops the cached envelope for userID. The applied sequence
// number survives so a straggling response from before the invalidation
// still loses to anything fetched after it.
func (c *MenuCache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[userID]; ok {
		e.envelope = nil
	}
}
