// Package memstore provides an in-memory implementation of profile.Store.
package memstore

import (
	"context"
	"sync"

	"github.com/linnemanlabs/wildwatch/internal/profile"
)

// Store holds profiles in memory. Suitable for dev/testing.
type Store struct {
	mu       sync.RWMutex
	profiles map[string]*profile.Profile // user ID -> profile
	order    []string                    // insertion order for stable scans
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{
		profiles: make(map[string]*profile.Profile),
	}
}

// Get retrieves a profile by user ID. Returns a copy.
func (s *Store) Get(_ context.Context, userID string) (*profile.Profile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, false, nil
	}
	cp := *p
	return &cp, true, nil
}

// Put stores a copy of the profile.
func (s *Store) Put(_ context.Context, p *profile.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.UserID]; !ok {
		s.order = append(s.order, p.UserID)
	}
	cp := *p
	s.profiles[p.UserID] = &cp
	return nil
}

// All returns copies of every profile in insertion order.
func (s *Store) All(_ context.Context) ([]profile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]profile.Profile, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.profiles[id])
	}
	return out, nil
}
