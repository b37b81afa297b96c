package revocation

import (
	"context"
	"sync"
	"time"
)

// MemorySet is an in-process [Set] for single-instance deployments. Expired
// entries are swept opportunistically during Add so the map does not grow
// with every token ever revoked.
type MemorySet struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time

	sweepEvery int
	sinceSweep int
}

// NewMemorySet constructs an empty MemorySet.
func NewMemorySet() *MemorySet {
	return &MemorySet{
		entries:    make(map[string]time.Time),
		now:        time.Now,
		sweepEvery: 256,
	}
}

// Add implements [Set]. A second Add for the same jti keeps the later
// expiry; membership never shortens.
func (s *MemorySet) Add(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	expiry := s.now().Add(ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[jti]; !ok || expiry.After(existing) {
		s.entries[jti] = expiry
	}

	s.sinceSweep++
	if s.sinceSweep >= s.sweepEvery {
		s.sinceSweep = 0
		now := s.now()
		for id, exp := range s.entries {
			if exp.Before(now) {
				delete(s.entries, id)
			}
		}
	}
	return nil
}

// Contains implements [Set].
func (s *MemorySet) Contains(_ context.Context, jti string) (bool, error) {
	s.mu.RLock()
	expiry, ok := s.entries[jti]
	s.mu.RUnlock()

	return ok && expiry.After(s.now()), nil
}
