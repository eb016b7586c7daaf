package session

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/zhouzirui/mock-interview/backend/internal/model/conversation"
)

// CacheStore expires sessions that stay idle longer than the configured TTL.
type CacheStore struct {
	mu    sync.Mutex
	seed  SeedFunc
	ttl   time.Duration
	cache *cache.Cache
}

// NewCacheStore creates a TTL-bound store; the janitor purges expired sessions every cleanup interval.
func NewCacheStore(seed SeedFunc, ttl, cleanup time.Duration) *CacheStore {
	return &CacheStore{
		seed:  seed,
		ttl:   ttl,
		cache: cache.New(ttl, cleanup),
	}
}

// GetOrCreate returns the session's turns and refreshes its expiry.
func (s *CacheStore) GetOrCreate(_ context.Context, sessionID string) ([]conversation.Turn, error) {
	if sessionID == "" {
		return nil, ErrSessionIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if x, found := s.cache.Get(sessionID); found {
		turns := x.([]conversation.Turn)
		s.cache.Set(sessionID, turns, cache.DefaultExpiration)
		return conversation.Clone(turns), nil
	}

	seeded := seedTurns(s.seed)
	s.cache.Set(sessionID, seeded, cache.DefaultExpiration)
	return conversation.Clone(seeded), nil
}

// Replace overwrites the session and restarts its TTL.
func (s *CacheStore) Replace(_ context.Context, sessionID string, turns []conversation.Turn) error {
	if sessionID == "" {
		return ErrSessionIDRequired
	}

	s.cache.Set(sessionID, conversation.Clone(turns), cache.DefaultExpiration)
	return nil
}

// Lookup reads a session without touching its expiry.
func (s *CacheStore) Lookup(_ context.Context, sessionID string) ([]conversation.Turn, bool, error) {
	x, found := s.cache.Get(sessionID)
	if !found {
		return nil, false, nil
	}
	return conversation.Clone(x.([]conversation.Turn)), true, nil
}

// TTL reports the idle expiry applied to sessions.
func (s *CacheStore) TTL() time.Duration {
	return s.ttl
}
