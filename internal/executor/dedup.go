package executor

import (
	"sync"
	"time"
)

// Dedup drops intents whose ID was already seen within the TTL window. It is
// safe for concurrent use.
type Dedup struct {
	seen map[string]time.Time // intentID -> last seen time
	ttl  time.Duration
	now  func() time.Time
	mu   sync.Mutex
}

// NewDedup creates a Dedup that treats an ID as a duplicate for ttl after it
// was first seen.
func NewDedup(ttl time.Duration) *Dedup {
	return &Dedup{
		seen: make(map[string]time.Time),
		ttl:  ttl,
		now:  time.Now,
	}
}

// IsDuplicate returns true if id was seen within the TTL. Otherwise it records
// id and returns false.
func (d *Dedup) IsDuplicate(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if lastSeen, ok := d.seen[id]; ok && now.Sub(lastSeen) < d.ttl {
		return true
	}
	d.seen[id] = now
	return false
}

// Cleanup removes expired entries. Call it periodically to keep the map
// bounded.
func (d *Dedup) Cleanup() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for id, ts := range d.seen {
		if now.Sub(ts) >= d.ttl {
			delete(d.seen, id)
		}
	}
}

// Len returns the number of tracked IDs.
func (d *Dedup) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
