package repository

import (
	"context"
	"sync"
)

// MemoryStore is a Keyed backed by a map and a RWMutex.
type MemoryStore[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

func NewMemoryStore[K comparable, V any]() *MemoryStore[K, V] {
	return &MemoryStore[K, V]{items: make(map[K]V)}
}

func (s *MemoryStore[K, V]) Get(_ context.Context, key K) (V, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok, nil
}

func (s *MemoryStore[K, V]) Set(_ context.Context, key K, v V) error {
	s.mu.Lock()
	s.items[key] = v
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore[K, V]) SetIfAbsent(_ context.Context, key K, v V) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; ok {
		return false, nil
	}
	s.items[key] = v
	return true, nil
}

// Update holds the write lock while fn runs, so fn must be quick and must
// not call back into the store.
func (s *MemoryStore[K, V]) Update(_ context.Context, key K, fn func(V) (V, error)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[key]
	if !ok {
		return false, nil
	}
	next, err := fn(cur)
	if err != nil {
		return true, err
	}
	s.items[key] = next
	return true, nil
}

func (s *MemoryStore[K, V]) Delete(_ context.Context, key K) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; !ok {
		return false, nil
	}
	delete(s.items, key)
	return true, nil
}

func (s *MemoryStore[K, V]) List(_ context.Context) ([]V, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]V, 0, len(s.items))
	for _, v := range s.items {
		out = append(out, v)
	}
	return out, nil
}
