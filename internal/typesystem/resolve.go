package typesystem

// Resolve strips aliases and follows bound cells at the top of t until
// neither applies. Nested positions are left untouched.
func Resolve(t TypeAnnot) TypeAnnot {
	for {
		switch typ := t.Type.(type) {
		case TAlias:
			t = typ.Body
		case TMeta:
			b, ok := typ.Meta.Bound()
			if !ok {
				return t
			}
			t = b
		default:
			return t
		}
	}
}

// Zonk resolves t everywhere: every alias is expanded and every bound
// cell is replaced by what it is bound to. Unbound cells stay in place.
func Zonk(t TypeAnnot) TypeAnnot {
	t = Resolve(t)
	switch typ := t.Type.(type) {
	case TApp:
		args := make([]TypeAnnot, len(typ.Args))
		for i, arg := range typ.Args {
			args[i] = Zonk(arg)
		}
		return TypeAnnot{Location: t.Location, Type: TApp{Const: typ.Const, Args: args}}
	case TPoly:
		return TypeAnnot{Location: t.Location, Type: TPoly{Vars: typ.Vars, Body: Zonk(typ.Body)}}
	default:
		return t
	}
}

// occurs reports whether m appears in t once bindings and aliases are
// looked through.
func occurs(m *MetaType, t TypeAnnot) bool {
	t = Resolve(t)
	switch typ := t.Type.(type) {
	case TMeta:
		return typ.Meta == m
	case TApp:
		for _, arg := range typ.Args {
			if occurs(m, arg) {
				return true
			}
		}
	case TPoly:
		return occurs(m, typ.Body)
	}
	return false
}

// Instantiate replaces the quantified variables of a scheme with fresh
// cells and returns the body. Anything that is not a scheme is returned
// as is. Cells already present in the body are shared, not copied.
func Instantiate(t TypeAnnot) TypeAnnot {
	poly, ok := Resolve(t).Type.(TPoly)
	if !ok {
		return t
	}
	subst := make(map[*TVar]TypeAnnot, len(poly.Vars))
	for _, v := range poly.Vars {
		subst[v] = FreshMeta()
	}
	body := substVars(poly.Body, subst)
	if body.Location == nil {
		body.Location = t.Location
	}
	return body
}

func substVars(t TypeAnnot, subst map[*TVar]TypeAnnot) TypeAnnot {
	if len(subst) == 0 {
		return t
	}
	switch typ := t.Type.(type) {
	case *TVar:
		if r, ok := subst[typ]; ok {
			return r.At(t.Location)
		}
		return t
	case TApp:
		args := make([]TypeAnnot, len(typ.Args))
		for i, arg := range typ.Args {
			args[i] = substVars(arg, subst)
		}
		return TypeAnnot{Location: t.Location, Type: TApp{Const: typ.Const, Args: args}}
	case TAlias:
		return TypeAnnot{Location: t.Location, Type: TAlias{Path: typ.Path, Body: substVars(typ.Body, subst)}}
	case TPoly:
		// Inner quantifiers shadow outer ones.
		inner := make(map[*TVar]TypeAnnot, len(subst))
		for v, r := range subst {
			inner[v] = r
		}
		for _, v := range typ.Vars {
			delete(inner, v)
		}
		return TypeAnnot{Location: t.Location, Type: TPoly{Vars: typ.Vars, Body: substVars(typ.Body, inner)}}
	default:
		return t
	}
}

// Equal is plain structural equality. Variables and cells compare by
// identity and aliases by name and body, so the result only agrees with
// Unify on closed types without aliases or cells.
func Equal(a, b TypeAnnot) bool {
	switch x := a.Type.(type) {
	case nil:
		return b.Type == nil
	case *TVar:
		y, ok := b.Type.(*TVar)
		return ok && x == y
	case TMeta:
		y, ok := b.Type.(TMeta)
		return ok && x.Meta == y.Meta
	case TApp:
		y, ok := b.Type.(TApp)
		if !ok || !x.Const.SameHead(y.Const) || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !Equal(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	case TAlias:
		y, ok := b.Type.(TAlias)
		return ok && x.Path.Equal(y.Path) && Equal(x.Body, y.Body)
	case TPoly:
		y, ok := b.Type.(TPoly)
		if !ok || len(x.Vars) != len(y.Vars) {
			return false
		}
		for i := range x.Vars {
			if x.Vars[i] != y.Vars[i] {
				return false
			}
		}
		return Equal(x.Body, y.Body)
	}
	return false
}
