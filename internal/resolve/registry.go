package resolve

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vectorpbx/dnsresolver/internal/timer"
)

// Registry holds the set of registered backends, ordered by ascending
// priority (lower value = higher priority), ties broken by registration
// order. Reads (Selected, List) take the read lock; Register/Unregister take
// the write lock.
type Registry struct {
	mu       sync.RWMutex
	backends []Resolver
	seq      int

	schedOnce sync.Once
	scheduler *timer.Scheduler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

type orderedBackend struct {
	backend Resolver
	seq     int
}

// Register adds a backend to the registry. It fails with ErrNoName if the
// backend's name is empty, ErrDuplicateName if a backend with that name is
// already registered, or ErrMissingCapability if the backend reports (via
// CapabilityReporter) that it lacks resolve or cancel support. The first
// successful registration lazily starts the shared timer scheduler used by
// recurring queries.
func (r *Registry) Register(b Resolver) error {
	if b.Name() == "" {
		return ErrNoName
	}
	if cr, ok := b.(CapabilityReporter); ok {
		if canResolve, canCancel := cr.Capabilities(); !canResolve || !canCancel {
			return fmt.Errorf("%w: %s", ErrMissingCapability, b.Name())
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.backends {
		if existing.Name() == b.Name() {
			return fmt.Errorf("%w: %s", ErrDuplicateName, b.Name())
		}
	}

	r.seq++
	ordered := append(make([]orderedBackend, 0, len(r.backends)+1), toOrdered(r.backends)...)
	ordered = append(ordered, orderedBackend{backend: b, seq: r.seq})
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].backend.Priority() != ordered[j].backend.Priority() {
			return ordered[i].backend.Priority() < ordered[j].backend.Priority()
		}
		return ordered[i].seq < ordered[j].seq
	})

	r.backends = make([]Resolver, len(ordered))
	for i, o := range ordered {
		r.backends[i] = o.backend
	}

	r.schedOnce.Do(func() { r.scheduler = timer.New() })
	return nil
}

func toOrdered(backends []Resolver) []orderedBackend {
	out := make([]orderedBackend, len(backends))
	for i, b := range backends {
		out[i] = orderedBackend{backend: b, seq: i}
	}
	return out
}

// Unregister removes the registered backend equal to b (compared as a
// Resolver value, not by name). It is safe to call with a backend that
// isn't registered.
func (r *Registry) Unregister(b Resolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.backends {
		if existing == b {
			r.backends = append(r.backends[:i], r.backends[i+1:]...)
			return
		}
	}
}

// Selected returns the highest-priority registered backend, or false if the
// registry is empty.
func (r *Registry) Selected() (Resolver, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.backends) == 0 {
		return nil, false
	}
	return r.backends[0], true
}

// List returns a snapshot of the registered backends in priority order.
func (r *Registry) List() []Resolver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Resolver, len(r.backends))
	copy(out, r.backends)
	return out
}

// Scheduler returns the shared timer scheduler, or nil if no backend has
// ever been registered.
func (r *Registry) Scheduler() *timer.Scheduler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.scheduler
}
