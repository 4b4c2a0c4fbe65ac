package typesystem

import "github.com/szktty/trompe/internal/token"

// TypeAnnot is a type together with the source span it was written at.
// The location is used for diagnostics only and never affects unification.
type TypeAnnot struct {
	Location *token.Location
	Type     Type
}

func NewAnnot(loc *token.Location, t Type) TypeAnnot {
	return TypeAnnot{Location: loc, Type: t}
}

// At returns a copy of the annotation placed at loc.
func (a TypeAnnot) At(loc *token.Location) TypeAnnot {
	a.Location = loc
	return a
}

func (a TypeAnnot) IsZero() bool {
	return a.Type == nil
}

func (a TypeAnnot) String() string {
	if a.Type == nil {
		return "<none>"
	}
	return a.Type.String()
}

func ground(kind ConstKind) TypeAnnot {
	return TypeAnnot{Type: TApp{Const: TypeConst{Kind: kind}}}
}

func Unit() TypeAnnot   { return ground(ConstUnit) }
func Bool() TypeAnnot   { return ground(ConstBool) }
func Int() TypeAnnot    { return ground(ConstInt) }
func Float() TypeAnnot  { return ground(ConstFloat) }
func String() TypeAnnot { return ground(ConstString) }

func List(elem TypeAnnot) TypeAnnot {
	return TypeAnnot{Type: TApp{Const: TypeConst{Kind: ConstList}, Args: []TypeAnnot{elem}}}
}

func Option(elem TypeAnnot) TypeAnnot {
	return TypeAnnot{Type: TApp{Const: TypeConst{Kind: ConstOption}, Args: []TypeAnnot{elem}}}
}

func Ref(elem TypeAnnot) TypeAnnot {
	return TypeAnnot{Type: TApp{Const: TypeConst{Kind: ConstRef}, Args: []TypeAnnot{elem}}}
}

func Tuple(elems ...TypeAnnot) TypeAnnot {
	args := make([]TypeAnnot, len(elems))
	copy(args, elems)
	return TypeAnnot{Type: TApp{Const: TypeConst{Kind: ConstTuple}, Args: args}}
}

func Fun(params []TypeAnnot, ret TypeAnnot) TypeAnnot {
	args := make([]TypeAnnot, 0, len(params)+1)
	args = append(args, params...)
	args = append(args, ret)
	return TypeAnnot{Type: TApp{Const: TypeConst{Kind: ConstFun}, Args: args}}
}

func Exn(e *ExceptionType) TypeAnnot {
	return TypeAnnot{Type: TApp{Const: TypeConst{Kind: ConstExn, Exn: e}}}
}

func Var(v *TVar) TypeAnnot {
	return TypeAnnot{Type: v}
}

func Meta(m *MetaType) TypeAnnot {
	return TypeAnnot{Type: TMeta{Meta: m}}
}

// FreshMeta returns an annotation wrapping a new unbound cell.
func FreshMeta() TypeAnnot {
	return Meta(NewMeta())
}

func Poly(vars []*TVar, body TypeAnnot) TypeAnnot {
	return TypeAnnot{Type: TPoly{Vars: vars, Body: body}}
}

func Alias(path token.QualifiedName, body TypeAnnot) TypeAnnot {
	return TypeAnnot{Type: TAlias{Path: path, Body: body}}
}

// FunParams returns the parameter types of a function application.
func FunParams(t TApp) []TypeAnnot {
	if t.Const.Kind != ConstFun || len(t.Args) == 0 {
		return nil
	}
	return t.Args[:len(t.Args)-1]
}

// FunReturn returns the result type of a function application.
func FunReturn(t TApp) (TypeAnnot, bool) {
	if t.Const.Kind != ConstFun || len(t.Args) == 0 {
		return TypeAnnot{}, false
	}
	return t.Args[len(t.Args)-1], true
}
