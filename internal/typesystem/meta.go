package typesystem

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/go-set/v2"
)

// MetaType is a unification cell. It starts unbound and is bound at most
// once; every TMeta holding the same *MetaType observes the binding.
// Cells are not safe for concurrent use.
type MetaType struct {
	id    uuid.UUID
	annot *TypeAnnot
}

func NewMeta() *MetaType {
	return &MetaType{id: uuid.New()}
}

func (m *MetaType) ID() uuid.UUID { return m.id }

// IsUndefined reports whether the cell is still unbound.
func (m *MetaType) IsUndefined() bool {
	return m.annot == nil
}

// Bound returns the annotation the cell is bound to.
func (m *MetaType) Bound() (TypeAnnot, bool) {
	if m.annot == nil {
		return TypeAnnot{}, false
	}
	return *m.annot, true
}

func (m *MetaType) bind(t TypeAnnot) {
	if m.annot != nil {
		panic(fmt.Sprintf("meta %s is already bound to %s", m, m.annot))
	}
	m.annot = &t
}

func (m *MetaType) String() string {
	if m.annot != nil {
		return m.annot.String()
	}
	return "?" + shortID(m.id)
}

// MetaSnapshot records the binding state of a set of cells so a caller
// can undo a failed speculative unification.
type MetaSnapshot struct {
	entries []metaEntry
}

type metaEntry struct {
	meta  *MetaType
	annot *TypeAnnot
}

// Snapshot captures every cell reachable from annots, including cells
// reachable only through existing bindings.
func Snapshot(annots ...TypeAnnot) *MetaSnapshot {
	seen := set.New[*MetaType](0)
	snap := &MetaSnapshot{}
	for _, a := range annots {
		collectMetas(a, seen, func(m *MetaType) {
			snap.entries = append(snap.entries, metaEntry{meta: m, annot: m.annot})
		})
	}
	return snap
}

// Restore puts every recorded cell back into its captured state.
func (s *MetaSnapshot) Restore() {
	for _, e := range s.entries {
		e.meta.annot = e.annot
	}
}

// Len returns the number of recorded cells.
func (s *MetaSnapshot) Len() int {
	return len(s.entries)
}

// collectMetas visits each cell reachable from t once, bound or not.
func collectMetas(t TypeAnnot, seen *set.Set[*MetaType], visit func(*MetaType)) {
	switch typ := t.Type.(type) {
	case TMeta:
		if !seen.Insert(typ.Meta) {
			return
		}
		visit(typ.Meta)
		if b, ok := typ.Meta.Bound(); ok {
			collectMetas(b, seen, visit)
		}
	case TApp:
		for _, arg := range typ.Args {
			collectMetas(arg, seen, visit)
		}
	case TPoly:
		collectMetas(typ.Body, seen, visit)
	case TAlias:
		collectMetas(typ.Body, seen, visit)
	}
}

// FreeMetas returns the unbound cells reachable from t in first-occurrence
// order.
func FreeMetas(t TypeAnnot) []*MetaType {
	var free []*MetaType
	collectMetas(t, set.New[*MetaType](0), func(m *MetaType) {
		if m.IsUndefined() {
			free = append(free, m)
		}
	})
	return free
}
