// Package scope implements layered binding environments for masked
// expression evaluation.
//
// A Scope maps names to values and falls back to its parent when a name
// is not bound locally. Bindings come in two forms: plain values, and
// computed bindings whose producer function runs on every access. A
// scope never caches what a computed binding returns; producers that
// want caching write the materialized value into a descendant scope so
// later lookups short-circuit before reaching the producer.
//
// Scopes are confined to a single goroutine. Resolution is re-entrant:
// a computed binding may resolve other names in the same chain and may
// define bindings while it runs.
package scope

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNotBound reports a name that no scope in the chain binds.
// Callers classify with errors.Is.
var ErrNotBound = errors.New("name not bound")

// ComputedFn produces the value of a computed binding. It is invoked on
// every access; the name it was bound under is passed through.
type ComputedFn func(name string) (any, error)

// Scope is one layer of a binding environment chain.
type Scope struct {
	parent   *Scope
	values   map[string]any
	computed map[string]ComputedFn
}

// New creates a root scope with no parent.
func New() *Scope {
	return NewChild(nil)
}

// NewChild creates a scope whose unresolved lookups fall back to parent.
func NewChild(parent *Scope) *Scope {
	return &Scope{
		parent:   parent,
		values:   make(map[string]any),
		computed: make(map[string]ComputedFn),
	}
}

// Parent returns the enclosing scope, or nil for a root.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Define binds name to value in this scope, replacing any prior local
// binding of either form.
func (s *Scope) Define(name string, value any) {
	delete(s.computed, name)
	s.values[name] = value
}

// DefineComputed binds name to a producer invoked on each access.
func (s *Scope) DefineComputed(name string, fn ComputedFn) {
	delete(s.values, name)
	s.computed[name] = fn
}

// Remove drops the local binding for name. Bindings inherited from
// ancestors are unaffected.
func (s *Scope) Remove(name string) {
	delete(s.values, name)
	delete(s.computed, name)
}

// Has reports whether this scope binds name locally.
func (s *Scope) Has(name string) bool {
	if _, ok := s.values[name]; ok {
		return true
	}
	_, ok := s.computed[name]
	return ok
}

// Names returns the locally bound names in sorted order.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.values)+len(s.computed))
	for name := range s.values {
		names = append(names, name)
	}
	for name := range s.computed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve walks the chain from this scope outward and returns the first
// binding of name. Within one scope a plain value shadows a computed
// binding, so materialized results written into a child win over the
// lazy binding in its parent. Unbound names fail with ErrNotBound.
func (s *Scope) Resolve(name string) (any, error) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.values[name]; ok {
			return v, nil
		}
		if fn, ok := cur.computed[name]; ok {
			return fn(name)
		}
	}
	return nil, fmt.Errorf("%q: %w", name, ErrNotBound)
}

// ResolveLocal resolves name in this scope only, without parent fallback.
func (s *Scope) ResolveLocal(name string) (any, error) {
	if v, ok := s.values[name]; ok {
		return v, nil
	}
	if fn, ok := s.computed[name]; ok {
		return fn(name)
	}
	return nil, fmt.Errorf("%q: %w", name, ErrNotBound)
}
