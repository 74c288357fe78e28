package idmap

import (
	"context"
	"sync"
)

type scope struct {
	entity   EntityType
	provider string
}

type memoryStore struct {
	mu sync.RWMutex
	// byExternal and byInternal hold the two lookup directions per
	// (entity, provider) scope. A scope that was never written to simply
	// has no entry, which lookups treat the same as an empty one.
	byExternal map[scope]map[string]string
	byInternal map[scope]map[string]string
}

// NewMemoryStore returns an in-memory Store safe for concurrent use.
// Intended for tests and single-process deployments.
func NewMemoryStore() Store {
	return &memoryStore{
		byExternal: make(map[scope]map[string]string),
		byInternal: make(map[scope]map[string]string),
	}
}

func (s *memoryStore) InternalID(_ context.Context, entity EntityType, provider, externalID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byExternal[scope{entity, provider}][externalID], nil
}

func (s *memoryStore) ExternalID(_ context.Context, entity EntityType, provider, internalID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byInternal[scope{entity, provider}][internalID], nil
}

func (s *memoryStore) InternalIDMap(_ context.Context, entity EntityType, provider string, externalIDs []string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := s.byExternal[scope{entity, provider}]
	result := make(map[string]string, len(externalIDs))
	for _, id := range externalIDs {
		if internal, ok := dir[id]; ok {
			result[id] = internal
		}
	}
	return result, nil
}

func (s *memoryStore) ExternalIDMap(_ context.Context, entity EntityType, provider string, internalIDs []string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := s.byInternal[scope{entity, provider}]
	result := make(map[string]string, len(internalIDs))
	for _, id := range internalIDs {
		if external, ok := dir[id]; ok {
			result[id] = external
		}
	}
	return result, nil
}

func (s *memoryStore) Save(ctx context.Context, m Mapping) error {
	return s.SaveMany(ctx, []Mapping{m})
}

func (s *memoryStore) SaveMany(_ context.Context, ms []Mapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range ms {
		if !m.Valid() {
			return ErrInvalidMapping
		}
		sc := scope{m.Entity, m.Provider}
		if s.byExternal[sc] == nil {
			s.byExternal[sc] = make(map[string]string)
			s.byInternal[sc] = make(map[string]string)
		}
		s.byExternal[sc][m.ExternalID] = m.InternalID
		s.byInternal[sc][m.InternalID] = m.ExternalID
	}
	return nil
}
