package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// StateStore keeps pending OAuth states until the callback consumes them.
// The stored value is the redirect URL the flow was started with.
type StateStore interface {
	Put(ctx context.Context, state, redirectURL string, ttl time.Duration) error
	// Consume removes the state and reports whether it was present and fresh.
	Consume(ctx context.Context, state string) (redirectURL string, ok bool, err error)
}

type memoryState struct {
	redirectURL string
	expires     time.Time
}

// MemoryStateStore works for a single API instance.
type MemoryStateStore struct {
	mu    sync.Mutex
	items map[string]memoryState
	now   func() time.Time
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{items: make(map[string]memoryState), now: time.Now}
}

func (s *MemoryStateStore) Put(_ context.Context, state, redirectURL string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, v := range s.items {
		if now.After(v.expires) {
			delete(s.items, k)
		}
	}
	s.items[state] = memoryState{redirectURL: redirectURL, expires: now.Add(ttl)}
	return nil
}

func (s *MemoryStateStore) Consume(_ context.Context, state string) (string, bool, error) {
	s.mu.Lock()
	item, ok := s.items[state]
	if ok {
		delete(s.items, state)
	}
	s.mu.Unlock()
	if !ok || s.now().After(item.expires) {
		return "", false, nil
	}
	return item.redirectURL, true, nil
}

const redisStatePrefix = "oauth_state:"

// RedisStateStore shares states across API instances.
type RedisStateStore struct {
	Client *redis.Client
}

// NewRedisStateStore connects using a redis:// URL.
func NewRedisStateStore(rawURL string) (*RedisStateStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisStateStore{Client: redis.NewClient(opts)}, nil
}

func (s *RedisStateStore) Put(ctx context.Context, state, redirectURL string, ttl time.Duration) error {
	return s.Client.Set(ctx, redisStatePrefix+state, redirectURL, ttl).Err()
}

func (s *RedisStateStore) Consume(ctx context.Context, state string) (string, bool, error) {
	val, err := s.Client.GetDel(ctx, redisStatePrefix+state).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Ping checks connectivity.
func (s *RedisStateStore) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

func (s *RedisStateStore) Close() error { return s.Client.Close() }
