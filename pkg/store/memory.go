package store

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/matzehuels/gradlayer/pkg/errors"
	"github.com/matzehuels/gradlayer/pkg/graph"
)

// MemoryStore keeps layouts in a map. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	layouts map[string]graph.Layout
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{layouts: make(map[string]graph.Layout)}
}

// Put implements [Store].
func (s *MemoryStore) Put(ctx context.Context, l graph.Layout) error {
	if err := checkID(l.ID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layouts[l.ID] = l
	return nil
}

// Get implements [Store].
func (s *MemoryStore) Get(ctx context.Context, id string) (graph.Layout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.layouts[id]
	if !ok {
		return graph.Layout{}, errors.NotFound("layout %q", id)
	}
	return l, nil
}

// Delete implements [Store].
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.layouts, id)
	return nil
}

// List implements [Store].
func (s *MemoryStore) List(ctx context.Context, limit int) ([]string, error) {
	s.mu.RLock()
	ids := slices.Sorted(maps.Keys(s.layouts))
	s.mu.RUnlock()
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// Close implements [Store].
func (s *MemoryStore) Close() error { return nil }
