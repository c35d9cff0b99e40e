// Package registry provides a named registry for pluggable implementations.
// The combat resolver uses it to look up enemy AI behaviours by the name
// given in the world configuration.
package registry

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps string ids to values of type T. It is safe for concurrent use.
type Registry[T any] struct {
	kind  string
	mu    sync.RWMutex
	items map[string]T
}

// New creates an empty registry. kind names the registered things in
// error messages (e.g. "behavior").
func New[T any](kind string) *Registry[T] {
	return &Registry[T]{
		kind:  kind,
		items: make(map[string]T),
	}
}

// Register adds v under id.
// Panics if the id is already registered.
func (r *Registry[T]) Register(id string, v T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[id]; exists {
		panic(fmt.Sprintf("registry: %s %q already registered", r.kind, id))
	}
	r.items[id] = v
}

// Get returns the value registered under id.
// Returns an error if the id is not registered.
func (r *Registry[T]) Get(id string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.items[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("registry: unknown %s %q", r.kind, id)
	}
	return v, nil
}

// List returns all registered ids, sorted.
func (r *Registry[T]) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Exists checks if an id is registered.
func (r *Registry[T]) Exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.items[id]
	return ok
}
