package typesystem

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/szktty/trompe/internal/config"
	"github.com/szktty/trompe/internal/token"
)

// Type is the closed sum of type forms: *TVar, TApp, TPoly, TMeta and TAlias.
type Type interface {
	String() string
	isType()
}

// TVar is a rigid type variable, introduced by a universally quantified
// type. Two TVars are the same variable only if they are the same pointer.
type TVar struct {
	Name string
	id   uuid.UUID
}

func NewTVar(name string) *TVar {
	return &TVar{Name: name, id: uuid.New()}
}

func (t *TVar) ID() uuid.UUID { return t.id }

func (t *TVar) String() string {
	if t.Name != "" {
		return "'" + t.Name
	}
	return "'" + shortID(t.id)
}

func (*TVar) isType() {}

// ConstKind enumerates the head constructors of TApp.
type ConstKind int

const (
	ConstUnit ConstKind = iota
	ConstBool
	ConstInt
	ConstFloat
	ConstString
	ConstList
	ConstTuple
	ConstOption
	ConstRef
	ConstFun
	ConstExn
)

var constNames = map[ConstKind]string{
	ConstUnit:   config.UnitTypeName,
	ConstBool:   config.BoolTypeName,
	ConstInt:    config.IntTypeName,
	ConstFloat:  config.FloatTypeName,
	ConstString: config.StringTypeName,
	ConstList:   config.ListTypeName,
	ConstTuple:  config.TupleTypeName,
	ConstOption: config.OptionTypeName,
	ConstRef:    config.RefTypeName,
	ConstFun:    config.FunTypeName,
	ConstExn:    config.ExnTypeName,
}

func (k ConstKind) String() string {
	if name, ok := constNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ConstKind(%d)", int(k))
}

// Arity returns the number of type arguments the head takes, or -1 when
// the count is carried by the application itself (tuple, fun).
func (k ConstKind) Arity() int {
	switch k {
	case ConstUnit, ConstBool, ConstInt, ConstFloat, ConstString, ConstExn:
		return 0
	case ConstList, ConstOption, ConstRef:
		return 1
	default:
		return -1
	}
}

// IsGround reports whether the head is one of the argument-free base types.
func (k ConstKind) IsGround() bool {
	switch k {
	case ConstUnit, ConstBool, ConstInt, ConstFloat, ConstString:
		return true
	}
	return false
}

// ExceptionType identifies a declared exception by its qualified name.
type ExceptionType struct {
	Path token.QualifiedName
}

func NewExceptionType(path token.QualifiedName) *ExceptionType {
	return &ExceptionType{Path: path}
}

func (e *ExceptionType) Equal(other *ExceptionType) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e == other || e.Path.Equal(other.Path)
}

// TypeConst is the head shape of an application. The contained types
// (list element, tuple members, function parameters and result) are the
// arguments of the enclosing TApp.
type TypeConst struct {
	Kind ConstKind
	Exn  *ExceptionType // only for ConstExn
}

// SameHead reports whether two heads are the same constructor. Argument
// counts are compared separately by the caller.
func (c TypeConst) SameHead(other TypeConst) bool {
	if c.Kind != other.Kind {
		return false
	}
	if c.Kind == ConstExn {
		return c.Exn.Equal(other.Exn)
	}
	return true
}

func (c TypeConst) String() string {
	if c.Kind == ConstExn && c.Exn != nil {
		return fmt.Sprintf("%s<%s>", c.Kind, c.Exn.Path)
	}
	return c.Kind.String()
}

// TApp applies a head constructor to its type arguments.
// Functions keep their parameters first and the result type last.
type TApp struct {
	Const TypeConst
	Args  []TypeAnnot
}

func (TApp) isType() {}

// Validate checks the argument count against the head.
func (t TApp) Validate() error {
	switch arity := t.Const.Kind.Arity(); {
	case arity >= 0 && len(t.Args) != arity:
		return fmt.Errorf("%s takes %d type argument(s), got %d", t.Const, arity, len(t.Args))
	case t.Const.Kind == ConstFun && len(t.Args) == 0:
		return fmt.Errorf("%s requires a return type", t.Const)
	case t.Const.Kind == ConstExn && t.Const.Exn == nil:
		return fmt.Errorf("%s without exception type", t.Const)
	}
	return nil
}

func (t TApp) String() string {
	args := make([]string, len(t.Args))
	for i, arg := range t.Args {
		args[i] = arg.String()
	}
	switch t.Const.Kind {
	case ConstTuple:
		return fmt.Sprintf("(%s)", strings.Join(args, ", "))
	case ConstFun:
		if len(args) == 0 {
			return "(?) -> ?"
		}
		return fmt.Sprintf("(%s) -> %s", strings.Join(args[:len(args)-1], ", "), args[len(args)-1])
	}
	if len(args) == 0 {
		return t.Const.String()
	}
	return fmt.Sprintf("%s<%s>", t.Const, strings.Join(args, ", "))
}

// TPoly is a universally quantified scheme. Vars bind the TVars used in Body.
type TPoly struct {
	Vars []*TVar
	Body TypeAnnot
}

func (TPoly) isType() {}

func (t TPoly) String() string {
	vars := make([]string, len(t.Vars))
	for i, v := range t.Vars {
		vars[i] = v.String()
	}
	return fmt.Sprintf("forall %s. %s", strings.Join(vars, " "), t.Body)
}

// TMeta wraps a unification cell. Copies of a TMeta share the cell.
type TMeta struct {
	Meta *MetaType
}

func (TMeta) isType() {}

func (t TMeta) String() string {
	return t.Meta.String()
}

// TAlias is a named shorthand that unifies exactly as Body. Path is kept
// for diagnostics only.
type TAlias struct {
	Path token.QualifiedName
	Body TypeAnnot
}

func (TAlias) isType() {}

func (t TAlias) String() string {
	return fmt.Sprintf("%s=%s", t.Path, t.Body)
}

func shortID(id uuid.UUID) string {
	if config.IsTestMode {
		return "?"
	}
	return id.String()[:8]
}
