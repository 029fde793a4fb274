package stats

import (
	"sync"
	"time"
)

// summaryCache keeps the last computed summary until it expires, so
// dashboard polls do not re-read the collection files on every request.
type summaryCache struct {
	mu         sync.RWMutex
	value      *Summary
	expiration time.Time
	ttl        time.Duration
}

func newSummaryCache(ttl time.Duration) *summaryCache {
	return &summaryCache{ttl: ttl}
}

func (c *summaryCache) get() (*Summary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.value == nil || time.Now().After(c.expiration) {
		return nil, false
	}
	return c.value, true
}

func (c *summaryCache) set(value *Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.value = value
	c.expiration = time.Now().Add(c.ttl)
}
