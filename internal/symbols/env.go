package symbols

import (
	"errors"

	"golang.org/x/exp/slices"
)

var (
	ErrAlreadyParented = errors.New("environment already has a parent")
	ErrParentCycle     = errors.New("environment parent chain would form a cycle")
)

// Env is a lexical scope: its own bindings, a list of imported scopes
// searched one level deep, and the enclosing scope.
//
// The parent link does not own the parent; the module that created an
// Env owns it. An Env is not safe for concurrent mutation.
type Env[T any] struct {
	parent     *Env[T]
	attributes map[string]T
	imports    []*Env[T]
}

// NewEnv creates a scope enclosed by parent (nil for a root scope).
func NewEnv[T any](parent *Env[T]) *Env[T] {
	return &Env[T]{
		parent:     parent,
		attributes: make(map[string]T),
	}
}

// Parent returns the enclosing scope, or nil at the root.
func (e *Env[T]) Parent() *Env[T] {
	return e.parent
}

// SetParent links a root scope under parent. It can be done once.
func (e *Env[T]) SetParent(parent *Env[T]) error {
	if e.parent != nil {
		return ErrAlreadyParented
	}
	for p := parent; p != nil; p = p.parent {
		if p == e {
			return ErrParentCycle
		}
	}
	e.parent = parent
	return nil
}

// Define binds name in this scope, replacing an existing binding of the
// same name in this scope.
func (e *Env[T]) Define(name string, value T) {
	e.attributes[name] = value
}

// AddImport makes the direct bindings of other visible from this scope.
// Adding the same scope twice, or the scope itself, has no effect.
func (e *Env[T]) AddImport(other *Env[T]) {
	if other == nil || other == e || slices.Contains(e.imports, other) {
		return
	}
	e.imports = append(e.imports, other)
}

// Imports returns the imported scopes in search order.
func (e *Env[T]) Imports() []*Env[T] {
	return slices.Clone(e.imports)
}

// LookupLocal checks this scope's own bindings only.
func (e *Env[T]) LookupLocal(name string) (T, bool) {
	v, ok := e.attributes[name]
	return v, ok
}

// LookupWithScope resolves name and returns the scope whose table held it:
// first this scope, then each import (their own bindings only, in order),
// then the enclosing scopes the same way.
func (e *Env[T]) LookupWithScope(name string) (T, *Env[T], bool) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.attributes[name]; ok {
			return v, env, true
		}
		for _, imp := range env.imports {
			if v, ok := imp.attributes[name]; ok {
				return v, imp, true
			}
		}
	}
	var zero T
	return zero, nil, false
}

// Lookup resolves name; see LookupWithScope for the search order.
func (e *Env[T]) Lookup(name string) (T, bool) {
	v, _, ok := e.LookupWithScope(name)
	return v, ok
}

// IsDefined reports whether Lookup would find name.
func (e *Env[T]) IsDefined(name string) bool {
	_, _, ok := e.LookupWithScope(name)
	return ok
}

// Names returns this scope's own names, sorted.
func (e *Env[T]) Names() []string {
	names := make([]string, 0, len(e.attributes))
	for name := range e.attributes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// VisibleNames returns every name Lookup can answer from this scope,
// sorted and without duplicates. Useful for "did you mean" suggestions.
func (e *Env[T]) VisibleNames() []string {
	seen := make(map[string]bool)
	var names []string
	add := func(env *Env[T]) {
		for name := range env.attributes {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	for env := e; env != nil; env = env.parent {
		add(env)
		for _, imp := range env.imports {
			add(imp)
		}
	}
	slices.Sort(names)
	return names
}

// Len returns the number of bindings in this scope.
func (e *Env[T]) Len() int {
	return len(e.attributes)
}
