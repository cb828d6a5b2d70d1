package service

import (
	"careerchat/internal/assessment"
	"careerchat/internal/cache"
	"careerchat/internal/model"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// defaultDegradedTTL matches the default session TTL of both caches
const defaultDegradedTTL = 24 * time.Hour

// SessionGateway loads and stores sessions. Reads of an absent session yield a fresh
// one; a failing durable store degrades that session to process memory.
type SessionGateway struct {
	durable cache.SessionCache // nil when Redis is not configured
	memory  cache.SessionCache
	engine  *assessment.Engine
	logger  *zap.Logger
	now     func() time.Time

	mu          sync.RWMutex
	degraded    map[string]time.Time // session id -> when the flag lapses
	degradedTTL time.Duration
}

// NewSessionGateway creates a gateway. durable may be nil.
func NewSessionGateway(durable, memory cache.SessionCache, engine *assessment.Engine, logger *zap.Logger) *SessionGateway {
	return &SessionGateway{
		durable:     durable,
		memory:      memory,
		engine:      engine,
		logger:      logger,
		now:         time.Now,
		degraded:    make(map[string]time.Time),
		degradedTTL: defaultDegradedTTL,
	}
}

// SetDegradedTTL sets how long a session stays pinned to memory after its last
// memory write. It should equal the memory cache TTL.
func (g *SessionGateway) SetDegradedTTL(ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	g.mu.Lock()
	g.degradedTTL = ttl
	g.mu.Unlock()
}

// Degraded reports whether the session is being kept in memory only
func (g *SessionGateway) Degraded(id string) bool {
	if g.durable == nil {
		return true
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	until, ok := g.degraded[id]
	return ok && g.now().Before(until)
}

func (g *SessionGateway) markDegraded(id string, err error) {
	g.mu.Lock()
	now := g.now()
	for sid, until := range g.degraded {
		if !now.Before(until) {
			delete(g.degraded, sid)
		}
	}
	g.degraded[id] = now.Add(g.degradedTTL)
	g.mu.Unlock()
	g.logger.Warn("durable session store failed, keeping session in memory",
		zap.String("session_id", id), zap.Error(err))
}

// touchDegraded extends the flag alongside the memory entry it guards
func (g *SessionGateway) touchDegraded(id string) {
	g.mu.Lock()
	if _, ok := g.degraded[id]; ok {
		g.degraded[id] = g.now().Add(g.degradedTTL)
	}
	g.mu.Unlock()
}

func (g *SessionGateway) clearDegraded(id string) {
	g.mu.Lock()
	delete(g.degraded, id)
	g.mu.Unlock()
}

func (g *SessionGateway) store(id string) cache.SessionCache {
	if g.Degraded(id) {
		return g.memory
	}
	return g.durable
}

// Load returns the stored session or a freshly initialized one
func (g *SessionGateway) Load(ctx context.Context, id string) (*model.Session, error) {
	if g.durable != nil && g.Degraded(id) {
		mem, err := g.memory.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load session %s: %w", id, err)
		}
		if mem != nil {
			return mem, nil
		}
		// The memory copy expired; the durable store is authoritative again.
		g.clearDegraded(id)
	}

	s, err := g.store(id).Get(ctx, id)
	if err != nil && g.durable != nil {
		// The durable copy may exist; only a memory copy can stand in for it.
		g.logger.Warn("durable session read failed", zap.String("session_id", id), zap.Error(err))
		mem, memErr := g.memory.Get(ctx, id)
		if memErr != nil || mem == nil {
			return nil, fmt.Errorf("load session %s: %w", id, err)
		}
		g.markDegraded(id, err)
		s, err = mem, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	if s == nil {
		return g.fresh(id), nil
	}
	return s, nil
}

// Create stores a new empty session without reading the durable store first, so a
// session can start while that store is down.
func (g *SessionGateway) Create(ctx context.Context, id string) (*model.Session, error) {
	s := g.fresh(id)
	if err := g.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Exists reports whether a stored session is present
func (g *SessionGateway) Exists(ctx context.Context, id string) (bool, error) {
	s, err := g.store(id).Get(ctx, id)
	if err != nil {
		return false, fmt.Errorf("load session %s: %w", id, err)
	}
	return s != nil, nil
}

func (g *SessionGateway) fresh(id string) *model.Session {
	now := g.now().UTC()
	return &model.Session{
		ID:         id,
		Assessment: g.engine.NewState(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Save persists the full session. Version conflicts are returned as-is; other durable
// failures move the session to memory and the save is retried there.
func (g *SessionGateway) Save(ctx context.Context, s *model.Session) error {
	if g.Degraded(s.ID) {
		return g.saveMemory(ctx, s)
	}

	err := g.durable.Save(ctx, s)
	if err == nil {
		return nil
	}
	if errors.Is(err, cache.ErrVersionConflict) || ctx.Err() != nil {
		return err
	}

	g.markDegraded(s.ID, err)
	return g.seedMemory(ctx, s)
}

func (g *SessionGateway) saveMemory(ctx context.Context, s *model.Session) error {
	if err := g.memory.Save(ctx, s); err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	g.touchDegraded(s.ID)
	return nil
}

// seedMemory writes s into memory regardless of what memory held before. Versions
// restart in memory, which is fine because the caller holds the session lock.
func (g *SessionGateway) seedMemory(ctx context.Context, s *model.Session) error {
	if err := g.memory.Delete(ctx, s.ID); err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	seed := s.Clone()
	seed.Version = 0
	if err := g.saveMemory(ctx, seed); err != nil {
		return err
	}
	s.Version = seed.Version
	s.UpdatedAt = seed.UpdatedAt
	return nil
}

// Reset replaces the assessment with the initial state. Persona and timestamps survive.
func (g *SessionGateway) Reset(ctx context.Context, id string) (*model.Session, error) {
	s, err := g.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Assessment = g.engine.NewState()
	s.LastTurnID = ""
	if err := g.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Delete removes the session from every store
func (g *SessionGateway) Delete(ctx context.Context, id string) error {
	if err := g.memory.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if g.durable != nil {
		if err := g.durable.Delete(ctx, id); err != nil && !g.Degraded(id) {
			return fmt.Errorf("delete session %s: %w", id, err)
		}
	}
	g.clearDegraded(id)
	return nil
}
