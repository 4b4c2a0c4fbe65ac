package analyzer

import (
	"errors"
	"fmt"

	"github.com/szktty/trompe/internal/modules"
	"github.com/szktty/trompe/internal/symbols"
	"github.com/szktty/trompe/internal/token"
	"github.com/szktty/trompe/internal/typesystem"
)

// ErrNotException is returned when a value name does not denote an
// exception constructor.
var ErrNotException = errors.New("not an exception")

// TypingEngine ties the type and value namespaces of one compilation unit
// to the unifier. Both trees are kept in step: every module created
// through the engine exists under the same path in each.
type TypingEngine struct {
	Types  *modules.TypeModuleManager
	Values *modules.ValueModuleManager
}

// NewTypingEngine returns an engine whose root scopes hold the prelude.
func NewTypingEngine() *TypingEngine {
	e := &TypingEngine{
		Types:  modules.NewManager[typesystem.TypeAnnot](),
		Values: modules.NewManager[symbols.Symbol](),
	}
	registerBuiltins(e)
	return e
}

// Unify delegates to typesystem.Unify.
func (e *TypingEngine) Unify(expected, actual typesystem.TypeAnnot) error {
	return typesystem.Unify(expected, actual)
}

// TryUnify is Unify that leaves every cell as it was when it fails.
func (e *TypingEngine) TryUnify(expected, actual typesystem.TypeAnnot) error {
	snap := typesystem.Snapshot(expected, actual)
	if err := typesystem.Unify(expected, actual); err != nil {
		snap.Restore()
		return err
	}
	return nil
}

// EnsureModule creates the module named by path in both namespaces.
func (e *TypingEngine) EnsureModule(path token.QualifiedName) (*modules.TypeModule, *modules.ValueModule, error) {
	tm, err := e.Types.EnsureModule(path)
	if err != nil {
		return nil, nil, err
	}
	vm, err := e.Values.EnsureModule(path)
	if err != nil {
		return nil, nil, err
	}
	return tm, vm, nil
}

// Import makes the module at target visible from the module at from, in
// both namespaces: submodules through Find and direct bindings through
// scope lookup.
func (e *TypingEngine) Import(from, target token.QualifiedName) error {
	fromTypes, err := e.Types.ResolveModule(from)
	if err != nil {
		return err
	}
	targetTypes, err := e.Types.ResolveModule(target)
	if err != nil {
		return err
	}
	fromValues, err := e.Values.ResolveModule(from)
	if err != nil {
		return err
	}
	targetValues, err := e.Values.ResolveModule(target)
	if err != nil {
		return err
	}
	fromTypes.ImportScope(targetTypes)
	fromValues.ImportScope(targetValues)
	return nil
}

// DefineType declares a named type. Lookups of path yield an alias so
// diagnostics keep the name.
func (e *TypingEngine) DefineType(path token.QualifiedName, body typesystem.TypeAnnot) error {
	if err := validate(body); err != nil {
		return fmt.Errorf("type %s: %w", path, err)
	}
	if _, _, err := e.EnsureModule(path.Base()); err != nil {
		return err
	}
	_, err := e.Types.Define(path, typesystem.Alias(path, body))
	return err
}

// LookupType resolves a type name from the root.
func (e *TypingEngine) LookupType(path token.QualifiedName) (typesystem.TypeAnnot, error) {
	return e.Types.Lookup(path)
}

// LookupTypeFrom resolves a type name as seen from inside the module at
// scope.
func (e *TypingEngine) LookupTypeFrom(scope, path token.QualifiedName) (typesystem.TypeAnnot, error) {
	mod, err := e.Types.ResolveModule(scope)
	if err != nil {
		return typesystem.TypeAnnot{}, err
	}
	return e.Types.LookupFrom(mod, path)
}

// DefineValue binds sym at path.
func (e *TypingEngine) DefineValue(path token.QualifiedName, sym symbols.Symbol) error {
	if err := validate(sym.Type); err != nil {
		return fmt.Errorf("value %s: %w", path, err)
	}
	if _, _, err := e.EnsureModule(path.Base()); err != nil {
		return err
	}
	_, err := e.Values.Define(path, sym)
	return err
}

func (e *TypingEngine) LookupValue(path token.QualifiedName) (symbols.Symbol, error) {
	return e.Values.Lookup(path)
}

// DefineException declares an exception constructor at path.
func (e *TypingEngine) DefineException(path token.QualifiedName) (*typesystem.ExceptionType, error) {
	exn := typesystem.NewExceptionType(path)
	if err := e.DefineValue(path, symbols.NewException(path.Last(), exn, path.Base().String())); err != nil {
		return nil, err
	}
	return exn, nil
}

// LookupException returns the exception declared at path.
func (e *TypingEngine) LookupException(path token.QualifiedName) (*typesystem.ExceptionType, error) {
	sym, err := e.LookupValue(path)
	if err != nil {
		return nil, err
	}
	if sym.Kind != symbols.ExceptionSymbol {
		return nil, fmt.Errorf("%s: %w", path, ErrNotException)
	}
	app, ok := sym.Type.Type.(typesystem.TApp)
	if !ok || app.Const.Exn == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNotException)
	}
	return app.Const.Exn, nil
}

// UnifyValue checks a use of the value at path against actual. The
// declared type is the expected side; schemes are instantiated first.
func (e *TypingEngine) UnifyValue(path token.QualifiedName, actual typesystem.TypeAnnot) error {
	sym, err := e.LookupValue(path)
	if err != nil {
		return err
	}
	if err := typesystem.Unify(sym.MonoType(), actual); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// validate checks every application in t against its head.
func validate(t typesystem.TypeAnnot) error {
	switch typ := t.Type.(type) {
	case nil:
		return errors.New("missing type")
	case typesystem.TApp:
		if err := typ.Validate(); err != nil {
			return err
		}
		for _, arg := range typ.Args {
			if err := validate(arg); err != nil {
				return err
			}
		}
	case typesystem.TPoly:
		return validate(typ.Body)
	case typesystem.TAlias:
		return validate(typ.Body)
	}
	return nil
}
