package repository

import "context"

// Keyed is the storage contract shared by every collection.  Implementations
// must make each call atomic with respect to concurrent callers; in
// particular SetIfAbsent and Update are single check-then-write operations.
type Keyed[K comparable, V any] interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key K) (V, bool, error)
	// Set inserts or replaces the value for key.
	Set(ctx context.Context, key K, v V) error
	// SetIfAbsent inserts v only when key is free and reports whether it did.
	SetIfAbsent(ctx context.Context, key K, v V) (bool, error)
	// Update replaces the value for key with fn(current).  It reports false
	// without calling fn when key does not exist.
	Update(ctx context.Context, key K, fn func(V) (V, error)) (bool, error)
	// Delete removes key and reports whether it existed.
	Delete(ctx context.Context, key K) (bool, error)
	// List returns every stored value in no particular order.
	List(ctx context.Context) ([]V, error)
}
