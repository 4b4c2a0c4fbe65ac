package modules

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/szktty/trompe/internal/symbols"
	"github.com/szktty/trompe/internal/token"
	"github.com/szktty/trompe/internal/typesystem"
)

// UnresolvedNameError reports a qualified name that did not resolve to a
// module or binding.
type UnresolvedNameError struct {
	Path token.QualifiedName
	// Segment is the index of the first segment that failed.
	Segment int
	// Module is set when every segment of Path names a module.
	Module bool
}

func (e *UnresolvedNameError) Error() string {
	if e.Module || e.Segment < len(e.Path)-1 {
		return fmt.Sprintf("unbound module %s", e.Path.Upto(e.Segment))
	}
	return fmt.Sprintf("unbound name %s", e.Path)
}

func NewUnresolvedNameError(path token.QualifiedName, segment int) *UnresolvedNameError {
	return &UnresolvedNameError{Path: path, Segment: segment}
}

// Manager holds the root namespace of one compilation unit. The root owns
// the whole module forest.
type Manager[T any] struct {
	ID   uuid.UUID
	Root *Module[T]
}

func NewManager[T any]() *Manager[T] {
	return &Manager[T]{ID: uuid.New(), Root: New[T]("")}
}

// Resolve resolves a module path from the root.
func (mm *Manager[T]) Resolve(path token.QualifiedName) (*Module[T], bool) {
	return mm.Root.Resolve(path)
}

// ResolveModule is Resolve with an error describing the failing segment.
func (mm *Manager[T]) ResolveModule(path token.QualifiedName) (*Module[T], error) {
	mod, failed := mm.resolvePrefix(path)
	if failed >= 0 {
		return nil, &UnresolvedNameError{Path: path, Segment: failed, Module: true}
	}
	return mod, nil
}

// resolvePrefix returns the module named by path, or the index of the
// first segment Find could not answer.
func (mm *Manager[T]) resolvePrefix(path token.QualifiedName) (*Module[T], int) {
	current := mm.Root
	for i, segment := range path {
		next, ok := current.Find(segment)
		if !ok {
			return nil, i
		}
		current = next
	}
	return current, -1
}

// Lookup resolves a qualified binding. A single-segment name is looked up
// lexically in the root scope; otherwise the base is resolved as a module
// path and the last segment looked up in that module's scope.
func (mm *Manager[T]) Lookup(path token.QualifiedName) (T, error) {
	var zero T
	if path.IsEmpty() {
		return zero, NewUnresolvedNameError(path, 0)
	}
	mod, failed := mm.resolvePrefix(path.Base())
	if failed >= 0 {
		return zero, NewUnresolvedNameError(path, failed)
	}
	v, ok := mod.Env().Lookup(path.Last())
	if !ok {
		return zero, NewUnresolvedNameError(path, len(path)-1)
	}
	return v, nil
}

// LookupFrom resolves a qualified binding as seen from inside scope:
// a single-segment name goes through scope's lexical chain, and the first
// segment of a longer path is searched from scope's module outward.
func (mm *Manager[T]) LookupFrom(scope *Module[T], path token.QualifiedName) (T, error) {
	var zero T
	if path.IsEmpty() {
		return zero, NewUnresolvedNameError(path, 0)
	}
	if !path.HasBase() {
		if v, ok := scope.Env().Lookup(path.Last()); ok {
			return v, nil
		}
		return zero, NewUnresolvedNameError(path, 0)
	}
	for m := scope; m != nil; m = m.Parent() {
		base, ok := m.Resolve(path.Base())
		if !ok {
			continue
		}
		if v, ok := base.Env().Lookup(path.Last()); ok {
			return v, nil
		}
		return zero, NewUnresolvedNameError(path, len(path)-1)
	}
	return zero, NewUnresolvedNameError(path, 0)
}

// Define binds the last segment of path in the module named by its base,
// creating missing named submodules along the way.
func (mm *Manager[T]) Define(path token.QualifiedName, value T) (*Module[T], error) {
	if path.IsEmpty() {
		return nil, fmt.Errorf("cannot define an empty name")
	}
	mod, err := mm.EnsureModule(path.Base())
	if err != nil {
		return nil, err
	}
	mod.Env().Define(path.Last(), value)
	return mod, nil
}

// EnsureModule resolves path through direct submodules only, creating the
// missing ones. Imports are not followed so new modules always land in
// the tree under the root.
func (mm *Manager[T]) EnsureModule(path token.QualifiedName) (*Module[T], error) {
	current := mm.Root
	for _, segment := range path {
		var next *Module[T]
		for _, sub := range current.submodules {
			if sub.name == segment {
				next = sub
				break
			}
		}
		if next == nil {
			next = New[T](segment)
			if err := current.AddSubmodule(next); err != nil {
				return nil, err
			}
		}
		current = next
	}
	return current, nil
}

type (
	TypeModule         = Module[typesystem.TypeAnnot]
	ValueModule        = Module[symbols.Symbol]
	TypeModuleManager  = Manager[typesystem.TypeAnnot]
	ValueModuleManager = Manager[symbols.Symbol]
)
