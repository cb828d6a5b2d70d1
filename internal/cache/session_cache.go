package cache

import (
	"careerchat/internal/model"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrVersionConflict means the stored session changed between load and save
var ErrVersionConflict = errors.New("session version conflict")

// SessionCache stores whole sessions keyed by id.
// Get returns nil, nil when the session does not exist.
// Save only succeeds when the stored version equals session.Version (0 for a new session);
// on success session.Version and session.UpdatedAt are advanced.
type SessionCache interface {
	Get(ctx context.Context, id string) (*model.Session, error)
	Save(ctx context.Context, session *model.Session) error
	Delete(ctx context.Context, id string) error
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a Redis-backed session cache
func NewSessionCache(client *redis.Client, ttl time.Duration) SessionCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &sessionCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *sessionCache) key(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func (c *sessionCache) Get(ctx context.Context, id string) (*model.Session, error) {
	data, err := c.client.Get(ctx, c.key(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session model.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &session, nil
}

func (c *sessionCache) Save(ctx context.Context, session *model.Session) error {
	key := c.key(session.ID)

	next := session.Clone()
	next.Version = session.Version + 1
	next.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(next)
	if err != nil {
		return err
	}

	txf := func(tx *redis.Tx) error {
		stored, err := tx.Get(ctx, key).Result()
		var current int64
		switch {
		case err == redis.Nil:
		case err != nil:
			return err
		default:
			var existing model.Session
			if err := json.Unmarshal([]byte(stored), &existing); err != nil {
				return fmt.Errorf("decode session %s: %w", session.ID, err)
			}
			current = existing.Version
		}
		if current != session.Version {
			return ErrVersionConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			return nil
		})
		return err
	}

	if err := c.client.Watch(ctx, txf, key); err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return ErrVersionConflict
		}
		return err
	}

	session.Version = next.Version
	session.UpdatedAt = next.UpdatedAt
	return nil
}

func (c *sessionCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}
