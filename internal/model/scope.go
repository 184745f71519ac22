package model

import (
	"fmt"
	"sort"
)

// ScopeFunc is a named, reusable query. It receives the relation it is
// applied to and the call's arguments, and returns the narrowed relation.
type ScopeFunc func(rel *Relation, args ...any) (*Relation, error)

// DefineScope registers fn under name. Redefining a name replaces it.
func (m *Model) DefineScope(name string, fn ScopeFunc) error {
	if fn == nil {
		return fmt.Errorf("scope %s.%s: body must not be nil", m.name, name)
	}
	if name == "" {
		return fmt.Errorf("scope on %s: name must not be empty", m.name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.scopes[name] = fn
	return nil
}

// HasScope reports whether name is a registered scope.
func (m *Model) HasScope(name string) bool {
	_, ok := m.scope(name)
	return ok
}

// Scopes returns the registered scope names, sorted.
func (m *Model) Scopes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.scopes))
	for name := range m.scopes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Model) scope(name string) (ScopeFunc, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	fn, ok := m.scopes[name]
	return fn, ok
}

// Scope evaluates the named scope against every stored record. The result
// is an ordinary Relation, so further Where and Order calls chain onto it.
func (m *Model) Scope(name string, args ...any) (*Relation, error) {
	return m.All().Scope(name, args...)
}

// Scope applies the named scope to rel.
func (rel *Relation) Scope(name string, args ...any) (*Relation, error) {
	fn, ok := rel.model.scope(name)
	if !ok {
		return nil, &NoMethodError{Model: rel.model.name, Method: name}
	}

	// the body runs without the model lock; it may call back into the model
	out, err := fn(rel.derive(rel.Records()), args...)
	if err != nil {
		return nil, fmt.Errorf("scope %s.%s: %w", rel.model.name, name, err)
	}
	if out == nil {
		return rel.derive([]*Record{}), nil
	}
	return out, nil
}
