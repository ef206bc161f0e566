// Package analyzer selects among interchangeable analyzer implementations.
// Each implementation declares a name, a priority and whether it can serve
// right now; callers ask the registry for the best available one instead of
// chaining fallbacks by hand.
package analyzer

import (
	"errors"
	"sort"
	"sync"
)

// ErrNoImplementation is returned by Select when no registered
// implementation is available.
var ErrNoImplementation = errors.New("no analyzer implementation available")

// Capability is what every registered implementation exposes.
type Capability interface {
	Name() string
	// Priority orders implementations; higher wins.
	Priority() int
	// Available reports whether the implementation can serve requests now.
	Available() bool
}

// Info describes one registered implementation.
type Info struct {
	Name      string `json:"name"`
	Priority  int    `json:"priority"`
	Available bool   `json:"available"`
}

// Registry holds implementations of one capability in priority order. It is
// safe for concurrent use.
type Registry[T Capability] struct {
	mu    sync.RWMutex
	impls []T
}

// NewRegistry returns a registry holding impls.
func NewRegistry[T Capability](impls ...T) *Registry[T] {
	r := &Registry[T]{}
	for _, impl := range impls {
		r.Register(impl)
	}
	return r
}

// Register adds impl, replacing any implementation with the same name.
// Equal priorities keep registration order.
func (r *Registry[T]) Register(impl T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.impls {
		if existing.Name() == impl.Name() {
			r.impls = append(r.impls[:i], r.impls[i+1:]...)
			break
		}
	}
	r.impls = append(r.impls, impl)
	sort.SliceStable(r.impls, func(a, b int) bool { return r.impls[a].Priority() > r.impls[b].Priority() })
}

// Select returns the implementation named prefer when it is available,
// otherwise the highest-priority available one.
func (r *Registry[T]) Select(prefer string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if prefer != "" {
		for _, impl := range r.impls {
			if impl.Name() == prefer && impl.Available() {
				return impl, nil
			}
		}
	}
	for _, impl := range r.impls {
		if impl.Available() {
			return impl, nil
		}
	}
	var zero T
	return zero, ErrNoImplementation
}

// List describes every registered implementation in priority order.
func (r *Registry[T]) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Info, len(r.impls))
	for i, impl := range r.impls {
		out[i] = Info{Name: impl.Name(), Priority: impl.Priority(), Available: impl.Available()}
	}
	return out
}
