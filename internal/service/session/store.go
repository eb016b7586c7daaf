// Package session keeps per-session conversation turns.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/zhouzirui/mock-interview/backend/internal/model/conversation"
)

var ErrSessionIDRequired = errors.New("session id is required")

// SeedFunc produces the priming turns installed for a session seen for the first time.
type SeedFunc func() []conversation.Turn

// Store is the session repository consumed by the conversation engine.
//
// Implementations do not lock across GetOrCreate/Replace; callers that need
// read-modify-write atomicity serialize per session with KeyedMutex.
type Store interface {
	// GetOrCreate returns a copy of the session's turns, seeding it on first use.
	GetOrCreate(ctx context.Context, sessionID string) ([]conversation.Turn, error)
	// Replace overwrites the session's turns.
	Replace(ctx context.Context, sessionID string, turns []conversation.Turn) error
	// Lookup returns the turns without creating the session.
	Lookup(ctx context.Context, sessionID string) ([]conversation.Turn, bool, error)
}

// MemoryStore keeps every session for the life of the process.
type MemoryStore struct {
	mu       sync.RWMutex
	seed     SeedFunc
	sessions map[string][]conversation.Turn
}

// NewMemoryStore bootstraps an in-memory store seeded by seed.
func NewMemoryStore(seed SeedFunc) *MemoryStore {
	return &MemoryStore{
		seed:     seed,
		sessions: make(map[string][]conversation.Turn),
	}
}

// GetOrCreate returns the existing sequence or atomically installs a seeded one.
func (s *MemoryStore) GetOrCreate(_ context.Context, sessionID string) ([]conversation.Turn, error) {
	if sessionID == "" {
		return nil, ErrSessionIDRequired
	}

	s.mu.RLock()
	turns, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		return conversation.Clone(turns), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// 双重检查，避免并发首次访问时重复播种
	if turns, ok := s.sessions[sessionID]; ok {
		return conversation.Clone(turns), nil
	}

	seeded := seedTurns(s.seed)
	s.sessions[sessionID] = seeded
	return conversation.Clone(seeded), nil
}

// Replace overwrites the stored sequence.
func (s *MemoryStore) Replace(_ context.Context, sessionID string, turns []conversation.Turn) error {
	if sessionID == "" {
		return ErrSessionIDRequired
	}

	s.mu.Lock()
	s.sessions[sessionID] = conversation.Clone(turns)
	s.mu.Unlock()
	return nil
}

// Lookup retrieves a session without seeding it.
func (s *MemoryStore) Lookup(_ context.Context, sessionID string) ([]conversation.Turn, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns, ok := s.sessions[sessionID]
	if !ok {
		return nil, false, nil
	}
	return conversation.Clone(turns), true, nil
}

// Len reports how many sessions are retained.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func seedTurns(seed SeedFunc) []conversation.Turn {
	if seed == nil {
		return make([]conversation.Turn, 0, 16)
	}
	turns := seed()
	out := make([]conversation.Turn, len(turns), len(turns)+16)
	copy(out, turns)
	return out
}
