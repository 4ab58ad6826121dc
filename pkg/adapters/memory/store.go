package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/strata/pkg/domain"
)

// Store implements ports.AssetStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

// NewStoreFrom creates a store seeded with raw documents keyed by identifier.
// This improves DX for tests.
func NewStoreFrom(docs map[string]string) *Store {
	s := NewStore()
	for id, text := range docs {
		s.data[id] = []byte(text)
	}
	return s
}

// Write stores a copy of data.
func (s *Store) Write(ctx context.Context, identifier string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[identifier] = slices.Clone(data)
	return nil
}

// Read returns a copy so callers can't mutate store contents by slice.
func (s *Store) Read(ctx context.Context, identifier string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[identifier]
	if !ok {
		return nil, domain.ErrAssetNotFound
	}
	return slices.Clone(data), nil
}

// Delete removes the document.
func (s *Store) Delete(ctx context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, identifier)
	return nil
}

// List returns stored identifiers in deterministic order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}
