package typesystem

import (
	"errors"
	"fmt"
)

// MismatchKind classifies why two types failed to unify.
type MismatchKind int

const (
	KindMismatch        MismatchKind = iota // head shapes or constants differ
	KindArityMismatch                       // same head, different argument count
	KindInfiniteType                        // occurs check failed
	KindRigidMismatch                       // two distinct rigid variables
	KindUnsupportedForm                     // a scheme reached without instantiation
)

func (k MismatchKind) String() string {
	switch k {
	case KindMismatch:
		return "mismatch"
	case KindArityMismatch:
		return "arity mismatch"
	case KindInfiniteType:
		return "infinite type"
	case KindRigidMismatch:
		return "rigid variable mismatch"
	case KindUnsupportedForm:
		return "unsupported form"
	}
	return fmt.Sprintf("MismatchKind(%d)", int(k))
}

// TypeMismatch is the failure returned by Unify.
//
// Expected and Actual are the annotations as passed in at this level,
// before aliases or cells were resolved, so their locations point at the
// source. When the failure happened inside an argument, Index is that
// argument's position and Cause is the nested failure; Kind is then the
// kind of the innermost failure.
type TypeMismatch struct {
	Kind     MismatchKind
	Expected TypeAnnot
	Actual   TypeAnnot
	Index    int
	Cause    *TypeMismatch
}

func newMismatch(kind MismatchKind, expected, actual TypeAnnot) *TypeMismatch {
	return &TypeMismatch{Kind: kind, Expected: expected, Actual: actual, Index: -1}
}

func (e *TypeMismatch) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("in argument %d of %s: %s", e.Index, e.Expected, e.Cause.Error())
	}
	return fmt.Sprintf("type %s: expected %s, actual %s", e.Kind, e.Expected, e.Actual)
}

func (e *TypeMismatch) Unwrap() error {
	if e.Cause == nil {
		return nil
	}
	return e.Cause
}

// Innermost returns the leaf failure of a nested mismatch.
func (e *TypeMismatch) Innermost() *TypeMismatch {
	for e.Cause != nil {
		e = e.Cause
	}
	return e
}

// Path returns the argument positions leading to the innermost failure.
func (e *TypeMismatch) Path() []int {
	var path []int
	for ; e.Cause != nil; e = e.Cause {
		path = append(path, e.Index)
	}
	return path
}

// IsKind reports whether err is a TypeMismatch of the given kind.
func IsKind(err error, kind MismatchKind) bool {
	var m *TypeMismatch
	if !errors.As(err, &m) {
		return false
	}
	return m.Kind == kind
}
