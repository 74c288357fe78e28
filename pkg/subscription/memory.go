package subscription

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]Subscription
}

// NewMemoryStore returns an in-memory Store safe for concurrent use.
// Values are copied on both read and write so callers can never mutate
// stored state through retained pointers.
func NewMemoryStore() Store {
	return &memoryStore{subs: make(map[uuid.UUID]Subscription)}
}

func (s *memoryStore) Find(_ context.Context, id uuid.UUID) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[id]
	if !ok {
		return nil, ErrNotFound
	}
	sub.Items = slices.Clone(sub.Items)
	return &sub, nil
}

func (s *memoryStore) Save(_ context.Context, sub *Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *sub
	copied.Items = slices.Clone(sub.Items)
	s.subs[sub.ID] = copied
	return nil
}
