package auth

import (
	"context"
	"sync"
	"time"
)

// MemoryRevocationStore keeps revoked token ids in process memory
type MemoryRevocationStore struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
	clock   func() time.Time
}

// NewMemoryRevocationStore creates an empty store
func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{
		revoked: make(map[string]time.Time),
		clock:   time.Now,
	}
}

// Revoke records jti until expiresAt
func (s *MemoryRevocationStore) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[jti] = expiresAt
	return nil
}

// IsRevoked reports whether jti was revoked and has not yet expired
func (s *MemoryRevocationStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exp, ok := s.revoked[jti]
	if !ok {
		return false, nil
	}
	return exp.IsZero() || s.clock().Before(exp), nil
}

// Prune drops entries whose token already expired and returns how many were removed
func (s *MemoryRevocationStore) Prune() int {
	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for jti, exp := range s.revoked {
		if !exp.IsZero() && !now.Before(exp) {
			delete(s.revoked, jti)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked ids
func (s *MemoryRevocationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.revoked)
}
