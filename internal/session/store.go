package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultTTL = 24 * time.Hour
	keyPrefix  = "session:"
)

// Store loads and saves sessions. Get returns a fresh AwaitingPair session
// for unknown chats.
type Store interface {
	Get(ctx context.Context, chatID int64) (Session, error)
	Save(ctx context.Context, s Session) error
}

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]Session)}
}

func (m *MemoryStore) Get(_ context.Context, chatID int64) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[chatID]; ok {
		return s, nil
	}
	return New(chatID), nil
}

func (m *MemoryStore) Save(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ChatID] = s
	return nil
}

// RedisStore keeps sessions as JSON under session:<chatID> with a TTL.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(chatID int64) string {
	return keyPrefix + strconv.FormatInt(chatID, 10)
}

func (r *RedisStore) Get(ctx context.Context, chatID int64) (Session, error) {
	raw, err := r.client.Get(ctx, redisKey(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return New(chatID), nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session %d: %w", chatID, err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session{}, fmt.Errorf("decode session %d: %w", chatID, err)
	}
	return s, nil
}

func (r *RedisStore) Save(ctx context.Context, s Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %d: %w", s.ChatID, err)
	}
	if err := r.client.Set(ctx, redisKey(s.ChatID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session %d: %w", s.ChatID, err)
	}
	return nil
}
