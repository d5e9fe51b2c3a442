package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/quizhub-backend/internal/config"
	"github.com/stemsi/quizhub-backend/internal/model"
)

// SessionStore is the registry of live sessions. A session absent from the
// registry is invalid even if its token has not expired yet.
type SessionStore interface {
	Save(ctx context.Context, sessionID string, p model.Principal, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (*model.Principal, error)
	Touch(ctx context.Context, sessionID string, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string) error
}

// SessionRepository keeps sessions in Redis with a TTL equal to the
// session lifetime.
type SessionRepository struct {
	rdb *redis.Client
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(rdb *redis.Client) *SessionRepository {
	return &SessionRepository{rdb: rdb}
}

func (r *SessionRepository) Save(ctx context.Context, sessionID string, p model.Principal, ttl time.Duration) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal principal: %w", err)
	}
	return r.rdb.Set(ctx, config.CacheKey.SessionKey(sessionID), payload, ttl).Err()
}

func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*model.Principal, error) {
	raw, err := r.rdb.Get(ctx, config.CacheKey.SessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var p model.Principal
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("unmarshal principal: %w", err)
	}
	return &p, nil
}

// Touch extends the TTL of a live session.
func (r *SessionRepository) Touch(ctx context.Context, sessionID string, ttl time.Duration) error {
	ok, err := r.rdb.Expire(ctx, config.CacheKey.SessionKey(sessionID), ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	return r.rdb.Del(ctx, config.CacheKey.SessionKey(sessionID)).Err()
}
