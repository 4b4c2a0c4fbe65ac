package modules

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-set/v2"
	"golang.org/x/exp/slices"

	"github.com/szktty/trompe/internal/symbols"
	"github.com/szktty/trompe/internal/token"
)

var (
	ErrAlreadyAttached = errors.New("module is already attached to a parent")
	ErrSelfAttach      = errors.New("module cannot be attached to itself")
	ErrAttachCycle     = errors.New("module is an ancestor of the target")
)

// Module is a node of the namespace tree. It owns its scope and its
// submodules; imports and the parent link are references only.
// Modules compare by identity.
type Module[T any] struct {
	name       string
	env        *symbols.Env[T]
	submodules []*Module[T]
	imports    []*Module[T]
	parent     *Module[T]
}

// New creates an unattached module. An empty name makes it anonymous;
// anonymous modules are never found by name.
func New[T any](name string) *Module[T] {
	return &Module[T]{
		name: name,
		env:  symbols.NewEnv[T](nil),
	}
}

func (m *Module[T]) Name() string { return m.name }

func (m *Module[T]) HasName() bool { return m.name != "" }

func (m *Module[T]) Env() *symbols.Env[T] { return m.env }

func (m *Module[T]) Parent() *Module[T] { return m.parent }

func (m *Module[T]) Submodules() []*Module[T] { return slices.Clone(m.submodules) }

func (m *Module[T]) Imports() []*Module[T] { return slices.Clone(m.imports) }

// AddSubmodule attaches child under m. The child's scope becomes enclosed
// by m's scope. A module can be attached once.
func (m *Module[T]) AddSubmodule(child *Module[T]) error {
	switch {
	case child == m:
		return ErrSelfAttach
	case child.parent != nil:
		return fmt.Errorf("%w: %s", ErrAlreadyAttached, child.describe())
	}
	for p := m; p != nil; p = p.parent {
		if p == child {
			return fmt.Errorf("%w: %s", ErrAttachCycle, child.describe())
		}
	}
	if err := child.env.SetParent(m.env); err != nil {
		return fmt.Errorf("attaching %s: %w", child.describe(), err)
	}
	child.parent = m
	m.submodules = append(m.submodules, child)
	return nil
}

// AddImport makes other searchable from m by Find. Imports may form
// cycles. Importing m itself or an already imported module is a no-op.
func (m *Module[T]) AddImport(other *Module[T]) {
	if other == nil || other == m || slices.Contains(m.imports, other) {
		return
	}
	m.imports = append(m.imports, other)
}

// ImportScope imports other and also makes its direct bindings visible
// from m's scope.
func (m *Module[T]) ImportScope(other *Module[T]) {
	m.AddImport(other)
	m.env.AddImport(other.env)
}

// Find looks name up among m's direct submodules, then through each
// imported module's own Find, in list order. Import cycles are cut by
// remembering the modules already searched.
func (m *Module[T]) Find(name string) (*Module[T], bool) {
	if name == "" {
		return nil, false
	}
	return m.find(name, set.New[*Module[T]](0))
}

func (m *Module[T]) find(name string, visited *set.Set[*Module[T]]) (*Module[T], bool) {
	if !visited.Insert(m) {
		return nil, false
	}
	if i := slices.IndexFunc(m.submodules, func(sub *Module[T]) bool { return sub.name == name }); i >= 0 {
		return m.submodules[i], true
	}
	for _, imp := range m.imports {
		if found, ok := imp.find(name, visited); ok {
			return found, true
		}
	}
	return nil, false
}

// Resolve follows path one segment at a time with Find, starting at m.
// An empty path resolves to m.
func (m *Module[T]) Resolve(path token.QualifiedName) (*Module[T], bool) {
	current := m
	for _, segment := range path {
		next, ok := current.Find(segment)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// Path returns the names from the tree root down to m. Anonymous
// modules contribute no segment.
func (m *Module[T]) Path() token.QualifiedName {
	var rev []string
	for p := m; p != nil; p = p.parent {
		if p.HasName() {
			rev = append(rev, p.name)
		}
	}
	slices.Reverse(rev)
	return token.NewQualifiedName(rev...)
}

// Walk visits m and its submodule tree in pre-order. Returning false
// from fn skips the module's children.
func (m *Module[T]) Walk(fn func(*Module[T]) bool) {
	if !fn(m) {
		return
	}
	for _, sub := range m.submodules {
		sub.Walk(fn)
	}
}

func (m *Module[T]) String() string {
	return m.describe()
}

func (m *Module[T]) describe() string {
	if path := m.Path(); !path.IsEmpty() {
		return fmt.Sprintf("module %s", path)
	}
	return "anonymous module"
}
