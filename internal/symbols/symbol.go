package symbols

import (
	"fmt"

	"github.com/szktty/trompe/internal/typesystem"
)

type SymbolKind int

const (
	VariableSymbol SymbolKind = iota
	ConstantSymbol
	ExceptionSymbol
)

func (k SymbolKind) String() string {
	switch k {
	case VariableSymbol:
		return "variable"
	case ConstantSymbol:
		return "constant"
	case ExceptionSymbol:
		return "exception"
	}
	return fmt.Sprintf("SymbolKind(%d)", int(k))
}

// Symbol is the payload of value-level scopes: what a name denotes and
// its (possibly polymorphic) type.
type Symbol struct {
	Name   string
	Kind   SymbolKind
	Type   typesystem.TypeAnnot
	Origin string // module path the symbol was declared in
}

func NewVariable(name string, t typesystem.TypeAnnot, origin string) Symbol {
	return Symbol{Name: name, Kind: VariableSymbol, Type: t, Origin: origin}
}

func NewConstant(name string, t typesystem.TypeAnnot, origin string) Symbol {
	return Symbol{Name: name, Kind: ConstantSymbol, Type: t, Origin: origin}
}

// NewException declares an exception constructor whose type is the
// exception itself.
func NewException(name string, exn *typesystem.ExceptionType, origin string) Symbol {
	return Symbol{Name: name, Kind: ExceptionSymbol, Type: typesystem.Exn(exn), Origin: origin}
}

// IsPolymorphic reports whether the symbol's type is a scheme and must be
// instantiated before unification.
func (s Symbol) IsPolymorphic() bool {
	_, ok := typesystem.Resolve(s.Type).Type.(typesystem.TPoly)
	return ok
}

// MonoType returns the symbol's type with any scheme instantiated to
// fresh cells.
func (s Symbol) MonoType() typesystem.TypeAnnot {
	return typesystem.Instantiate(s.Type)
}

func (s Symbol) String() string {
	return fmt.Sprintf("%s %s : %s", s.Kind, s.Name, s.Type)
}

// Scope instantiations used by the checker: value bindings carry
// symbols, type bindings carry type annotations.
type (
	ValueEnv = Env[Symbol]
	TypeEnv  = Env[typesystem.TypeAnnot]
)
