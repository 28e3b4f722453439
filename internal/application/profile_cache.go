package application

import (
	"sync"
	"time"

	"github.com/example/labor-tracker/internal/persistence"
)

// profileCache stores recently resolved directory profiles so repeated
// aggregation queries do not hammer the user directory while compensation
// data remains unchanged.
type profileCache struct {
	mu      sync.RWMutex
	now     func() time.Time
	ttl     time.Duration
	entries map[string]profileCacheEntry
}

type profileCacheEntry struct {
	profile   persistence.UserProfile
	expiresAt time.Time
}

func newProfileCache(ttl time.Duration, now func() time.Time) *profileCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &profileCache{
		now:     now,
		ttl:     ttl,
		entries: make(map[string]profileCacheEntry),
	}
}

func (c *profileCache) Get(userID string) (persistence.UserProfile, bool) {
	if c == nil {
		return persistence.UserProfile{}, false
	}
	c.mu.RLock()
	entry, ok := c.entries[userID]
	c.mu.RUnlock()
	if !ok {
		return persistence.UserProfile{}, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, userID)
		c.mu.Unlock()
		return persistence.UserProfile{}, false
	}
	return entry.profile, true
}

func (c *profileCache) Store(profile persistence.UserProfile) {
	if c == nil {
		return
	}
	expiry := c.now().Add(c.ttl)
	c.mu.Lock()
	c.entries[profile.ID] = profileCacheEntry{profile: profile, expiresAt: expiry}
	c.mu.Unlock()
}

func (c *profileCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]profileCacheEntry)
	c.mu.Unlock()
}
