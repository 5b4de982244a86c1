package pending

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store, used in tests and anywhere a real
// Redis is not wanted. Safe for concurrent use.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]Profile
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Profile)}
}

func (s *MemoryStore) Put(_ context.Context, p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[p.Email] = p
	return nil
}

func (s *MemoryStore) Get(_ context.Context, email string) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[email]
	if !ok {
		return nil, nil
	}
	cp := p
	return &cp, nil
}

func (s *MemoryStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, email)
	return nil
}
