package typesystem

import (
	"errors"
	"fmt"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/szktty/trompe/internal/token"
)

func mustMismatch(t *testing.T, err error) *TypeMismatch {
	t.Helper()
	var m *TypeMismatch
	if !errors.As(err, &m) {
		t.Fatalf("expected *TypeMismatch, got %v", err)
	}
	return m
}

func TestUnifyReflexive(t *testing.T) {
	a := NewTVar("a")
	exn := NewExceptionType(token.ParseQualifiedName("Std.Not_found"))

	tests := []struct {
		name string
		typ  TypeAnnot
	}{
		{"unit", Unit()},
		{"bool", Bool()},
		{"int", Int()},
		{"float", Float()},
		{"string", String()},
		{"list", List(Int())},
		{"option", Option(List(String()))},
		{"ref", Ref(Bool())},
		{"empty tuple", Tuple()},
		{"tuple", Tuple(Int(), Bool(), Float())},
		{"fun", Fun([]TypeAnnot{Int(), String()}, Bool())},
		{"thunk", Fun(nil, Unit())},
		{"exn", Exn(exn)},
		{"rigid", Var(a)},
		{"nested", List(Tuple(Var(a), Fun([]TypeAnnot{Var(a)}, Option(Int()))))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Unify(tt.typ, tt.typ); err != nil {
				t.Errorf("Unify(%s, %s) = %v", tt.typ, tt.typ, err)
			}
		})
	}
}

func TestUnifyFailures(t *testing.T) {
	a := NewTVar("a")
	b := NewTVar("b")
	notFound := NewExceptionType(token.ParseQualifiedName("Std.Not_found"))
	failure := NewExceptionType(token.ParseQualifiedName("Std.Failure"))

	tests := []struct {
		name     string
		expected TypeAnnot
		actual   TypeAnnot
		kind     MismatchKind
	}{
		{"ground", Int(), Bool(), KindMismatch},
		{"ground vs app", Int(), List(Int()), KindMismatch},
		{"different heads", List(Int()), Option(Int()), KindMismatch},
		{"fun vs tuple", Fun([]TypeAnnot{Int()}, Int()), Tuple(Int(), Int()), KindMismatch},
		{"tuple arity", Tuple(Int()), Tuple(Int(), Int()), KindArityMismatch},
		{"fun arity", Fun([]TypeAnnot{Int()}, Int()), Fun([]TypeAnnot{Int(), Int()}, Int()), KindArityMismatch},
		{"exn", Exn(notFound), Exn(failure), KindMismatch},
		{"rigid vs rigid", Var(a), Var(b), KindRigidMismatch},
		{"rigid vs ground", Var(a), Int(), KindMismatch},
		{"ground vs rigid", Int(), Var(a), KindMismatch},
		{"poly vs poly", Poly([]*TVar{a}, Var(a)), Poly([]*TVar{a}, Var(a)), KindUnsupportedForm},
		{"poly vs ground", Poly([]*TVar{a}, Var(a)), Int(), KindMismatch},
		{"ground vs poly", Int(), Poly([]*TVar{a}, Var(a)), KindMismatch},
		{"nested", List(List(Int())), List(List(Bool())), KindMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Unify(tt.expected, tt.actual)
			m := mustMismatch(t, err)
			if m.Kind != tt.kind {
				t.Errorf("kind = %s, want %s\n%s", m.Kind, tt.kind, spew.Sdump(m))
			}
			if !IsKind(err, tt.kind) {
				t.Errorf("IsKind(%s) = false", tt.kind)
			}
		})
	}
}

func TestUnifyExceptionByPath(t *testing.T) {
	e1 := NewExceptionType(token.ParseQualifiedName("Std.Not_found"))
	e2 := NewExceptionType(token.ParseQualifiedName("Std.Not_found"))
	if err := Unify(Exn(e1), Exn(e2)); err != nil {
		t.Errorf("exceptions with the same path should unify: %v", err)
	}
}

func TestUnifyBindsMeta(t *testing.T) {
	m := NewMeta()
	if !m.IsUndefined() {
		t.Fatalf("fresh meta should be unbound")
	}
	if err := Unify(Meta(m), Int()); err != nil {
		t.Fatalf("Unify(?m, int) = %v", err)
	}
	if m.IsUndefined() {
		t.Fatalf("meta should be bound after unification")
	}
	if got := Zonk(Meta(m)); !Equal(got, Int()) {
		t.Errorf("?m resolves to %s, want int", got)
	}
	// A bound cell behaves as what it is bound to.
	if err := Unify(Meta(m), Int()); err != nil {
		t.Errorf("Unify(bound ?m, int) = %v", err)
	}
	if err := Unify(Meta(m), Bool()); !IsKind(err, KindMismatch) {
		t.Errorf("Unify(bound ?m, bool) = %v, want mismatch", err)
	}
}

func TestUnifyBindsActualMeta(t *testing.T) {
	m := NewMeta()
	if err := Unify(List(Int()), Meta(m)); err != nil {
		t.Fatalf("Unify(list<int>, ?m) = %v", err)
	}
	if got := Zonk(Meta(m)); !Equal(got, List(Int())) {
		t.Errorf("?m resolves to %s, want list<int>", got)
	}
}

func TestUnifyMetaBindsThroughAlias(t *testing.T) {
	m := NewMeta()
	count := Alias(token.ParseQualifiedName("App.count"), Int())
	if err := Unify(Meta(m), count); err != nil {
		t.Fatalf("Unify(?m, alias) = %v", err)
	}
	bound, _ := m.Bound()
	if _, ok := bound.Type.(TApp); !ok {
		t.Errorf("meta should be bound to the unfolded type, got %s", spew.Sdump(bound))
	}
}

func TestUnifyMetaWithMeta(t *testing.T) {
	expected := NewMeta()
	actual := NewMeta()
	if err := Unify(Meta(expected), Meta(actual)); err != nil {
		t.Fatalf("Unify(?e, ?a) = %v", err)
	}
	if !expected.IsUndefined() {
		t.Errorf("expected-side meta must stay unbound")
	}
	if actual.IsUndefined() {
		t.Fatalf("actual-side meta must be bound")
	}
	resolved, ok := Resolve(Meta(actual)).Type.(TMeta)
	if !ok || resolved.Meta != expected {
		t.Errorf("?a should resolve to ?e")
	}

	// Binding the representative is seen through the chain.
	if err := Unify(Meta(expected), String()); err != nil {
		t.Fatal(err)
	}
	if got := Zonk(Meta(actual)); !Equal(got, String()) {
		t.Errorf("?a resolves to %s, want string", got)
	}
}

func TestUnifySameMetaTwice(t *testing.T) {
	m := NewMeta()
	if err := Unify(Meta(m), Meta(m)); err != nil {
		t.Fatalf("Unify(?m, ?m) = %v", err)
	}
	if !m.IsUndefined() {
		t.Errorf("unifying a meta with itself must not bind it")
	}
	// The same holds when one side reaches the cell through a binding.
	other := NewMeta()
	if err := Unify(Meta(m), Meta(other)); err != nil {
		t.Fatal(err)
	}
	if err := Unify(Meta(other), Meta(m)); err != nil {
		t.Errorf("Unify(?other, ?m) after linking = %v", err)
	}
	if !m.IsUndefined() {
		t.Errorf("representative should still be unbound")
	}
}

func TestUnifyOccursCheck(t *testing.T) {
	m := NewMeta()
	err := Unify(Meta(m), List(Meta(m)))
	if !IsKind(err, KindInfiniteType) {
		t.Fatalf("Unify(?m, list<?m>) = %v, want infinite type", err)
	}
	if !m.IsUndefined() {
		t.Errorf("failed occurs check must leave the meta unbound")
	}

	// Mirrored.
	if err := Unify(Fun([]TypeAnnot{Meta(m)}, Int()), Meta(m)); !IsKind(err, KindInfiniteType) {
		t.Errorf("Unify(fun(?m), ?m) = %v, want infinite type", err)
	}
}

func TestUnifyOccursCheckThroughBinding(t *testing.T) {
	m1 := NewMeta()
	m2 := NewMeta()
	if err := Unify(Meta(m2), List(Meta(m1))); err != nil {
		t.Fatal(err)
	}
	// ?m2 = list<?m1>, so ?m1 = ?m2 would be ?m1 = list<?m1>.
	if err := Unify(Meta(m1), Meta(m2)); !IsKind(err, KindInfiniteType) {
		t.Errorf("Unify(?m1, ?m2) = %v, want infinite type", err)
	}
}

func TestUnifyArgumentShortCircuit(t *testing.T) {
	err := Unify(Tuple(Int(), Bool()), Tuple(Int(), String()))
	m := mustMismatch(t, err)

	if m.Kind != KindMismatch || m.Index != 1 {
		t.Fatalf("got kind %s at index %d, want mismatch at 1", m.Kind, m.Index)
	}
	leaf := m.Innermost()
	if !Equal(leaf.Expected, Bool()) || !Equal(leaf.Actual, String()) {
		t.Errorf("innermost = %s vs %s, want bool vs string", leaf.Expected, leaf.Actual)
	}
	if leaf.Index != -1 || leaf.Cause != nil {
		t.Errorf("leaf should carry no index: %s", spew.Sdump(leaf))
	}
	if want := "in argument 1 of (int, bool): type mismatch: expected bool, actual string"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestUnifyIsNotTransactional(t *testing.T) {
	a := NewMeta()
	c := NewMeta()
	expected := Tuple(Meta(a), Bool(), Meta(c))
	actual := Tuple(Int(), String(), Float())

	if err := Unify(expected, actual); !IsKind(err, KindMismatch) {
		t.Fatalf("Unify = %v, want mismatch", err)
	}
	if a.IsUndefined() {
		t.Errorf("meta bound before the failing position must stay bound")
	}
	if !c.IsUndefined() {
		t.Errorf("meta after the failing position must not be touched")
	}
}

func TestUnifyFunctionResult(t *testing.T) {
	a := NewMeta()
	expected := Fun([]TypeAnnot{Meta(a)}, Meta(a))
	actual := Fun([]TypeAnnot{Int()}, Bool())

	m := mustMismatch(t, Unify(expected, actual))
	if m.Index != 1 {
		t.Errorf("failure at index %d, want the result position 1", m.Index)
	}
	if got := Zonk(Meta(a)); !Equal(got, Int()) {
		t.Errorf("?a = %s, want int", got)
	}
}

func TestUnifyNestedPath(t *testing.T) {
	expected := List(Tuple(Int(), Option(Bool())))
	actual := List(Tuple(Int(), Option(Float())))

	m := mustMismatch(t, Unify(expected, actual))
	if got, want := spew.Sdump(m.Path()), spew.Sdump([]int{0, 1, 0}); got != want {
		t.Errorf("Path = %s, want %s", got, want)
	}
	if m.Kind != KindMismatch {
		t.Errorf("wrapper kind = %s, want the innermost kind", m.Kind)
	}
}

func TestUnifyAliasTransparency(t *testing.T) {
	count := Alias(token.ParseQualifiedName("App.count"), Int())
	counts := Alias(token.ParseQualifiedName("App.counts"), List(count))

	tests := []struct {
		name     string
		expected TypeAnnot
		actual   TypeAnnot
	}{
		{"alias left", count, Int()},
		{"alias right", Int(), count},
		{"both", count, count},
		{"alias of alias", counts, List(Int())},
		{"nested", Tuple(count, Bool()), Tuple(Int(), Bool())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Unify(tt.expected, tt.actual); err != nil {
				t.Errorf("Unify(%s, %s) = %v", tt.expected, tt.actual, err)
			}
		})
	}

	// Diagnostics keep the alias as written.
	m := mustMismatch(t, Unify(count, Bool()))
	if _, ok := m.Expected.Type.(TAlias); !ok {
		t.Errorf("Expected should be the alias, got %s", spew.Sdump(m.Expected))
	}
}

func TestUnifyPreservesLocations(t *testing.T) {
	loc := token.NewLocation(
		token.Position{Line: 3, Column: 5, Offset: 40},
		token.Position{Line: 3, Column: 8, Offset: 43},
	)
	m := mustMismatch(t, Unify(Int().At(loc), Bool()))
	if m.Expected.Location != loc {
		t.Errorf("Expected location = %v, want %v", m.Expected.Location, loc)
	}
	if m.Actual.Location != nil {
		t.Errorf("Actual location = %v, want none", m.Actual.Location)
	}
	// Locations never take part in unification.
	if err := Unify(Int().At(loc), Int()); err != nil {
		t.Errorf("located int vs int = %v", err)
	}
}

func TestIsKindWrapped(t *testing.T) {
	err := Unify(Int(), Bool())
	wrapped := fmt.Errorf("checking main: %w", err)
	if !IsKind(wrapped, KindMismatch) {
		t.Errorf("IsKind should see through wrapping")
	}
	if IsKind(errors.New("other"), KindMismatch) {
		t.Errorf("IsKind on a foreign error")
	}
	if IsKind(nil, KindMismatch) {
		t.Errorf("IsKind(nil)")
	}
}

func TestSnapshotRestore(t *testing.T) {
	a := NewMeta()
	expected := Tuple(Meta(a), Bool())
	actual := Tuple(Int(), String())

	snap := Snapshot(expected, actual)
	if snap.Len() != 1 {
		t.Fatalf("snapshot recorded %d cells, want 1", snap.Len())
	}
	if err := Unify(expected, actual); err == nil {
		t.Fatal("expected failure")
	}
	if a.IsUndefined() {
		t.Fatal("?a should be bound by the failed attempt")
	}
	snap.Restore()
	if !a.IsUndefined() {
		t.Errorf("Restore should unbind ?a")
	}
	// The cell is usable again.
	if err := Unify(Meta(a), Float()); err != nil {
		t.Errorf("Unify after restore = %v", err)
	}
}

func TestSnapshotFollowsBindings(t *testing.T) {
	outer := NewMeta()
	inner := NewMeta()
	if err := Unify(Meta(outer), List(Meta(inner))); err != nil {
		t.Fatal(err)
	}
	snap := Snapshot(Meta(outer))
	if snap.Len() != 2 {
		t.Fatalf("snapshot recorded %d cells, want 2", snap.Len())
	}
	if err := Unify(Meta(outer), List(Int())); err != nil {
		t.Fatal(err)
	}
	snap.Restore()
	if !inner.IsUndefined() {
		t.Errorf("inner cell should be restored")
	}
	if outer.IsUndefined() {
		t.Errorf("outer cell was bound before the snapshot and must stay bound")
	}
}

func TestRebindPanics(t *testing.T) {
	m := NewMeta()
	m.bind(Int())
	defer func() {
		if recover() == nil {
			t.Errorf("binding a bound meta should panic")
		}
	}()
	m.bind(Bool())
}
