package cache

import (
	"careerchat/internal/model"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	version   int64
	expiresAt time.Time
}

// sweepInterval bounds how often Save scans for expired entries
const sweepInterval = time.Minute

type memorySessionCache struct {
	mu        sync.Mutex
	entries   map[string]memoryEntry
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

// NewMemorySessionCache creates a process-local session cache. Sessions are stored
// serialized so reads never alias a caller's maps.
func NewMemorySessionCache(ttl time.Duration) SessionCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &memorySessionCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// sweep drops every expired entry, at most once per interval. Caller holds mu.
func (c *memorySessionCache) sweep() {
	now := c.now()
	if now.Sub(c.lastSweep) < min(c.ttl, sweepInterval) {
		return
	}
	c.lastSweep = now
	for id, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, id)
		}
	}
}

// live returns the entry for id, dropping it when expired. Caller holds mu.
func (c *memorySessionCache) live(id string) (memoryEntry, bool) {
	e, ok := c.entries[id]
	if !ok {
		return memoryEntry{}, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, id)
		return memoryEntry{}, false
	}
	return e, true
}

func (c *memorySessionCache) Get(ctx context.Context, id string) (*model.Session, error) {
	c.mu.Lock()
	e, ok := c.live(id)
	c.mu.Unlock()
	if !ok {
		return nil, nil
	}

	var session model.Session
	if err := json.Unmarshal(e.data, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &session, nil
}

func (c *memorySessionCache) Save(ctx context.Context, session *model.Session) error {
	next := session.Clone()
	next.Version = session.Version + 1
	next.UpdatedAt = c.now().UTC()
	data, err := json.Marshal(next)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweep()

	var current int64
	if e, ok := c.live(session.ID); ok {
		current = e.version
	}
	if current != session.Version {
		return ErrVersionConflict
	}

	c.entries[session.ID] = memoryEntry{
		data:      data,
		version:   next.Version,
		expiresAt: c.now().Add(c.ttl),
	}
	session.Version = next.Version
	session.UpdatedAt = next.UpdatedAt
	return nil
}

func (c *memorySessionCache) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
	return nil
}
