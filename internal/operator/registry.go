package operator

import (
	"slices"
	"sort"
	"sync"
)

// Registry maps field types to their ordered operator sets.
// Lookups never fail: an unknown type gets the text operators.
type Registry struct {
	mu   sync.RWMutex
	sets map[string][]Operator
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sets: make(map[string][]Operator)}
}

// Set stores the operators for fieldType, replacing any previous entry.
func (r *Registry) Set(fieldType string, ops []Operator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sets[fieldType] = slices.Clone(ops)
}

// For returns the operators for fieldType, falling back to the text set.
func (r *Registry) For(fieldType string) []Operator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ops, ok := r.sets[fieldType]; ok && len(ops) > 0 {
		return slices.Clone(ops)
	}
	if ops, ok := r.sets[TypeText]; ok && len(ops) > 0 {
		return slices.Clone(ops)
	}
	return typeRules[TypeText].Resolve()
}

// Has reports whether fieldType has an explicit entry.
func (r *Registry) Has(fieldType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sets[fieldType]
	return ok
}

// Types returns the registered field types, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.sets))
	for t := range r.sets {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r := NewRegistry()
	Register(r.Set)
	return r
})

// Default returns the registry built from the static table and aliases.
func Default() *Registry {
	return defaultRegistry()
}

// OperatorsFor is Default().For(fieldType).
func OperatorsFor(fieldType string) []Operator {
	return Default().For(fieldType)
}
