// Package registry provides the name-keyed catalog of pluggable
// implementations. One generic component serves all four kinds
// (algorithm, oracle, DEX, strategy); kinds never share a namespace.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"solana-basket-engine/internal/domain"
)

// Registry errors.
var (
	ErrDuplicateName = errors.New("name already registered")
	ErrNotFound      = errors.New("name not registered")
	ErrInactive      = errors.New("entry is deactivated")
)

// Entry is a registered implementation with audit metadata.
// Names are immutable once created; deactivated entries are retained.
type Entry[M any] struct {
	Name        string
	Creator     domain.Mint
	CreatedAt   int64
	LastUpdated int64
	IsActive    bool
	Meta        M
}

// Registry is a concurrent name-keyed catalog parameterized over the
// metadata shape. Reads never block each other; writes lock the registry.
type Registry[M any] struct {
	kind domain.RegistryKind

	mu      sync.RWMutex
	entries map[string]*Entry[M]
}

// New creates an empty registry for one kind.
func New[M any](kind domain.RegistryKind) *Registry[M] {
	return &Registry[M]{
		kind:    kind,
		entries: make(map[string]*Entry[M]),
	}
}

// Kind returns the registry kind.
func (r *Registry[M]) Kind() domain.RegistryKind {
	return r.kind
}

// Register adds a new active entry. Returns ErrDuplicateName if the name
// exists, active or not.
func (r *Registry[M]) Register(name string, creator domain.Mint, meta M, now int64) (*Entry[M], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		return nil, fmt.Errorf("%w: %s/%s", ErrDuplicateName, r.kind, name)
	}
	e := &Entry[M]{
		Name:        name,
		Creator:     creator,
		CreatedAt:   now,
		LastUpdated: now,
		IsActive:    true,
		Meta:        meta,
	}
	r.entries[name] = e
	cp := *e
	return &cp, nil
}

// Activate marks an entry active and bumps LastUpdated.
func (r *Registry[M]) Activate(name string, now int64) error {
	return r.setActive(name, true, now)
}

// Deactivate marks an entry inactive without removing it. The entry stays
// visible to audit reads but is excluded from active-only resolution.
func (r *Registry[M]) Deactivate(name string, now int64) error {
	return r.setActive(name, false, now)
}

func (r *Registry[M]) setActive(name string, active bool, now int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.entries[name]
	if !exists {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, r.kind, name)
	}
	e.IsActive = active
	e.LastUpdated = now
	return nil
}

// Lookup resolves a name. With activeOnly set, a deactivated entry returns
// ErrInactive; an absent name always returns ErrNotFound.
func (r *Registry[M]) Lookup(name string, activeOnly bool) (*Entry[M], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, r.kind, name)
	}
	if activeOnly && !e.IsActive {
		return nil, fmt.Errorf("%w: %s/%s", ErrInactive, r.kind, name)
	}
	cp := *e
	return &cp, nil
}

// List returns all entries sorted by name, including deactivated ones.
func (r *Registry[M]) List() []*Entry[M] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Entry[M], 0, len(r.entries))
	for _, e := range r.entries {
		cp := *e
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Restore inserts an entry as loaded from storage, preserving its
// timestamps and active flag. Used when hydrating from the durable record.
func (r *Registry[M]) Restore(e Entry[M]) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[e.Name]; exists {
		return fmt.Errorf("%w: %s/%s", ErrDuplicateName, r.kind, e.Name)
	}
	cp := e
	r.entries[e.Name] = &cp
	return nil
}
