package analyzer

import (
	"github.com/szktty/trompe/internal/config"
	"github.com/szktty/trompe/internal/symbols"
	"github.com/szktty/trompe/internal/token"
	"github.com/szktty/trompe/internal/typesystem"
)

var groundTypes = map[string]func() typesystem.TypeAnnot{
	config.UnitTypeName:   typesystem.Unit,
	config.BoolTypeName:   typesystem.Bool,
	config.IntTypeName:    typesystem.Int,
	config.FloatTypeName:  typesystem.Float,
	config.StringTypeName: typesystem.String,
}

// GroundType returns the built-in type called name.
func GroundType(name string) (typesystem.TypeAnnot, bool) {
	ctor, ok := groundTypes[name]
	if !ok {
		return typesystem.TypeAnnot{}, false
	}
	return ctor(), true
}

// Built-in exceptions, declared in the root scope.
var builtinExceptions = []string{"Failure", "Not_found", "Invalid_argument"}

// registerBuiltins installs the prelude into the root scopes of e.
// Ground types are bound to themselves, not to aliases, so they print
// under their own names.
func registerBuiltins(e *TypingEngine) {
	types := e.Types.Root.Env()
	for _, name := range config.GroundTypeNames {
		t, _ := GroundType(name)
		types.Define(name, t)
	}

	values := e.Values.Root.Env()
	define := func(name string, t typesystem.TypeAnnot) {
		values.Define(name, symbols.NewVariable(name, t, config.PreludeOrigin))
	}

	a := typesystem.NewTVar("a")
	b := typesystem.NewTVar("b")
	va, vb := typesystem.Var(a), typesystem.Var(b)
	fun := func(ret typesystem.TypeAnnot, params ...typesystem.TypeAnnot) typesystem.TypeAnnot {
		return typesystem.Fun(params, ret)
	}

	define("not", fun(typesystem.Bool(), typesystem.Bool()))
	define("print_string", fun(typesystem.Unit(), typesystem.String()))
	define("string_of_int", fun(typesystem.String(), typesystem.Int()))
	define("ignore", typesystem.Poly([]*typesystem.TVar{a}, fun(typesystem.Unit(), va)))
	define("ref", typesystem.Poly([]*typesystem.TVar{a}, fun(typesystem.Ref(va), va)))
	define("fst", typesystem.Poly([]*typesystem.TVar{a, b}, fun(va, typesystem.Tuple(va, vb))))
	define("snd", typesystem.Poly([]*typesystem.TVar{a, b}, fun(vb, typesystem.Tuple(va, vb))))
	define("failwith", typesystem.Poly([]*typesystem.TVar{a}, fun(va, typesystem.String())))

	for _, name := range builtinExceptions {
		exn := typesystem.NewExceptionType(token.NewQualifiedName(name))
		values.Define(name, symbols.NewException(name, exn, config.PreludeOrigin))
	}
}
