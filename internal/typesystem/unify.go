package typesystem

// Unify makes expected and actual equal by binding unbound cells, or
// reports why they cannot be. The returned error is nil or *TypeMismatch.
//
// Unify is not transactional: cells bound while unifying earlier
// arguments stay bound when a later argument fails. Callers that need to
// back out take a Snapshot first and Restore it on failure.
func Unify(expected, actual TypeAnnot) error {
	if m := unify(expected, actual); m != nil {
		return m
	}
	return nil
}

func unify(expected, actual TypeAnnot) *TypeMismatch {
	e := Resolve(expected)
	a := Resolve(actual)

	if isSameGround(e, a) {
		return nil
	}

	eMeta, eIsMeta := e.Type.(TMeta)
	aMeta, aIsMeta := a.Type.(TMeta)
	switch {
	case eIsMeta && aIsMeta:
		if eMeta.Meta != aMeta.Meta {
			aMeta.Meta.bind(e)
		}
		return nil
	case eIsMeta:
		return bindMeta(eMeta.Meta, a, expected, actual)
	case aIsMeta:
		return bindMeta(aMeta.Meta, e, expected, actual)
	}

	switch et := e.Type.(type) {
	case TApp:
		at, ok := a.Type.(TApp)
		if !ok {
			return newMismatch(KindMismatch, expected, actual)
		}
		return unifyApp(et, at, expected, actual)
	case *TVar:
		at, ok := a.Type.(*TVar)
		if !ok {
			return newMismatch(KindMismatch, expected, actual)
		}
		if et != at {
			return newMismatch(KindRigidMismatch, expected, actual)
		}
		return nil
	case TPoly:
		if _, ok := a.Type.(TPoly); ok {
			return newMismatch(KindUnsupportedForm, expected, actual)
		}
		return newMismatch(KindMismatch, expected, actual)
	default:
		return newMismatch(KindMismatch, expected, actual)
	}
}

func isSameGround(e, a TypeAnnot) bool {
	et, ok := e.Type.(TApp)
	if !ok || !et.Const.Kind.IsGround() || len(et.Args) != 0 {
		return false
	}
	at, ok := a.Type.(TApp)
	return ok && at.Const.Kind == et.Const.Kind && len(at.Args) == 0
}

// bindMeta binds m to the resolved non-cell type t after the occurs check.
func bindMeta(m *MetaType, t TypeAnnot, expected, actual TypeAnnot) *TypeMismatch {
	if occurs(m, t) {
		return newMismatch(KindInfiniteType, expected, actual)
	}
	m.bind(t)
	return nil
}

// unifyApp compares heads, then arguments left to right, stopping at the
// first failing position.
func unifyApp(e, a TApp, expected, actual TypeAnnot) *TypeMismatch {
	if !e.Const.SameHead(a.Const) {
		return newMismatch(KindMismatch, expected, actual)
	}
	if len(e.Args) != len(a.Args) {
		return newMismatch(KindArityMismatch, expected, actual)
	}
	for i := range e.Args {
		if cause := unify(e.Args[i], a.Args[i]); cause != nil {
			return &TypeMismatch{
				Kind:     cause.Kind,
				Expected: expected,
				Actual:   actual,
				Index:    i,
				Cause:    cause,
			}
		}
	}
	return nil
}
