// Package generation implements last-request-wins bookkeeping for screens
// that refetch on focus: every fetch takes a ticket, and only the newest
// ticket may apply its result.
package generation

import "sync"

// Counter hands out monotonically increasing tickets. The zero value is ready to use.
type Counter struct {
	mu     sync.Mutex
	latest uint64
}

// Next starts a new request and returns its ticket. Earlier tickets become stale.
func (c *Counter) Next() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest++
	return c.latest
}

// IsLatest reports whether gen is still the newest ticket.
func (c *Counter) IsLatest(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.latest
}

// Apply runs fn only if gen is still the newest ticket, holding the counter
// lock so no newer request can start in between. It reports whether fn ran.
func (c *Counter) Apply(gen uint64, fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.latest {
		return false
	}
	fn()
	return true
}
