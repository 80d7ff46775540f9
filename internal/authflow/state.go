package authflow

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// stateTTL bounds how long a started handshake may wait for its callback.
const stateTTL = 10 * time.Minute

// StateStore issues single-use state nonces binding a handshake to a shop.
type StateStore interface {
	// Issue creates a nonce bound to the shop.
	Issue(ctx context.Context, shop string) (string, error)
	// Redeem consumes the nonce and returns the bound shop. A nonce redeems
	// at most once.
	Redeem(ctx context.Context, state string) (string, bool)
}

// redisStateStore shares nonces across instances.
type redisStateStore struct {
	rdb *redis.Client
}

func NewRedisStateStore(rdb *redis.Client) StateStore {
	return &redisStateStore{rdb: rdb}
}

func (s *redisStateStore) Issue(ctx context.Context, shop string) (string, error) {
	state := uuid.NewString()
	if err := s.rdb.SetNX(ctx, "oauthstate:"+state, shop, stateTTL).Err(); err != nil {
		return "", err
	}
	return state, nil
}

func (s *redisStateStore) Redeem(ctx context.Context, state string) (string, bool) {
	shop, err := s.rdb.GetDel(ctx, "oauthstate:"+state).Result()
	if err != nil || shop == "" {
		return "", false
	}
	return shop, true
}

// memoryStateStore is the single-process fallback when REDIS_URL is unset.
type memoryStateStore struct {
	mu     sync.Mutex
	states map[string]stateEntry
}

type stateEntry struct {
	shop    string
	expires time.Time
}

func NewMemoryStateStore() StateStore {
	return &memoryStateStore{states: map[string]stateEntry{}}
}

func (s *memoryStateStore) Issue(ctx context.Context, shop string) (string, error) {
	state := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for k, e := range s.states {
		if now.After(e.expires) {
			delete(s.states, k)
		}
	}
	s.states[state] = stateEntry{shop: shop, expires: now.Add(stateTTL)}
	return state, nil
}

func (s *memoryStateStore) Redeem(ctx context.Context, state string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.states[state]
	delete(s.states, state)
	if !ok || time.Now().After(e.expires) {
		return "", false
	}
	return e.shop, true
}
