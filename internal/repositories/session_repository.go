package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"buildtrack/internal/models"

	"github.com/redis/go-redis/v9"
)

// SessionStore persists wizard sessions. Get returns nil, nil for an unknown
// or expired session.
type SessionStore interface {
	Save(ctx context.Context, s models.WizardSession) error
	Get(ctx context.Context, id string) (*models.WizardSession, error)
	Delete(ctx context.Context, id string) error
}

const sessionKeyPrefix = "wizard:session:"

type RedisSessionRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSessionRepository(rdb *redis.Client, ttl time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisSessionRepository) Save(ctx context.Context, s models.WizardSession) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return r.rdb.Set(ctx, sessionKeyPrefix+s.ID, raw, r.ttl).Err()
}

func (r *RedisSessionRepository) Get(ctx context.Context, id string) (*models.WizardSession, error) {
	raw, err := r.rdb.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s models.WizardSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &s, nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, sessionKeyPrefix+id).Err()
}

// MemorySessionRepository keeps sessions in process. It is used when no
// Redis address is configured.
type MemorySessionRepository struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]memorySession
}

type memorySession struct {
	session   models.WizardSession
	expiresAt time.Time
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{ttl: ttl, now: time.Now, sessions: make(map[string]memorySession)}
}

func (r *MemorySessionRepository) Save(_ context.Context, s models.WizardSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := memorySession{session: s}
	if r.ttl > 0 {
		entry.expiresAt = r.now().Add(r.ttl)
	}
	r.sessions[s.ID] = entry
	return nil
}

func (r *MemorySessionRepository) Get(_ context.Context, id string) (*models.WizardSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	if !entry.expiresAt.IsZero() && r.now().After(entry.expiresAt) {
		delete(r.sessions, id)
		return nil, nil
	}
	s := entry.session
	return &s, nil
}

func (r *MemorySessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}
