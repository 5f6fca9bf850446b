package cipher

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is an in-memory, concurrency-safe Lookup. Definitions are shared
// read-only between callers.
type Registry struct {
	mu     sync.RWMutex
	rotors map[string]*RotorDefinition
}

// NewRegistry returns a registry holding defs.
func NewRegistry(defs ...*RotorDefinition) (*Registry, error) {
	r := &Registry{rotors: make(map[string]*RotorDefinition)}
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a definition. Its permutation is revalidated so the registry
// never hands out a broken rotor.
func (r *Registry) Register(def *RotorDefinition) error {
	if def == nil {
		return fmt.Errorf("cannot register nil rotor")
	}
	if def.ID == "" {
		return fmt.Errorf("rotor id cannot be empty")
	}
	if err := ValidatePermutation(def.Permutation[:]); err != nil {
		return fmt.Errorf("rotor %q: %w", def.ID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rotors[def.ID]; exists {
		return fmt.Errorf("rotor %s is already registered", def.ID)
	}
	r.rotors[def.ID] = def
	return nil
}

// Replace swaps in an edited definition with the same id.
func (r *Registry) Replace(def *RotorDefinition) error {
	if def == nil {
		return fmt.Errorf("cannot register nil rotor")
	}
	if err := ValidatePermutation(def.Permutation[:]); err != nil {
		return fmt.Errorf("rotor %q: %w", def.ID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rotors[def.ID]; !exists {
		return &UnknownRotorError{ID: def.ID}
	}
	r.rotors[def.ID] = def
	return nil
}

// Rotor implements Lookup.
func (r *Registry) Rotor(id string) (*RotorDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.rotors[id]
	return def, ok
}

// List returns every definition sorted by name, then id.
func (r *Registry) List() []*RotorDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]*RotorDefinition, 0, len(r.rotors))
	for _, def := range r.rotors {
		defs = append(defs, def)
	}

	sort.Slice(defs, func(i, j int) bool {
		if defs[i].Name != defs[j].Name {
			return defs[i].Name < defs[j].Name
		}
		return defs[i].ID < defs[j].ID
	})

	return defs
}

// Unregister removes a definition. Unknown ids are ignored.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.rotors, id)
}

// Len reports how many definitions are registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rotors)
}
