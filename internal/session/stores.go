package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the session identifier in Redis so it survives process
// restarts. Used as the primary link in the chain.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisStore(addr, password, key string, ttl time.Duration) *RedisStore {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisStore{client: c, key: key, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context) (string, error) {
	id, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return id, err
}

func (s *RedisStore) Set(ctx context.Context, userID string) error {
	if userID == "" {
		return s.client.Del(ctx, s.key).Err()
	}
	return s.client.Set(ctx, s.key, userID, s.ttl).Err()
}

// MemoryStore is the in-process fallback link.
type MemoryStore struct {
	mu sync.RWMutex
	id string
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Get(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id, nil
}

func (s *MemoryStore) Set(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = userID
	return nil
}
