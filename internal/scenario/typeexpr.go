package scenario

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-set/v2"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"github.com/szktty/trompe/internal/analyzer"
	"github.com/szktty/trompe/internal/token"
	"github.com/szktty/trompe/internal/typesystem"
)

// typeBuilder turns type expressions into annotations. Named metas and
// rigid variables are shared by every expression built with the same
// builder.
type typeBuilder struct {
	engine *analyzer.TypingEngine
	file   string
	scope  token.QualifiedName
	metas  map[string]*typesystem.MetaType
	vars   map[string]*typesystem.TVar
	// anchors being expanded; a repeat means the anchor contains itself
	anchors *set.Set[*yaml.Node]
}

func newTypeBuilder(engine *analyzer.TypingEngine, file string, scope token.QualifiedName) *typeBuilder {
	return &typeBuilder{
		engine: engine,
		file:   file,
		scope:  scope,
		metas:  make(map[string]*typesystem.MetaType),
		vars:   make(map[string]*typesystem.TVar),

		anchors: set.New[*yaml.Node](0),
	}
}

func (b *typeBuilder) errorf(node *yaml.Node, format string, args ...interface{}) error {
	return fmt.Errorf("%s:%d:%d: %s", b.file, node.Line, node.Column, fmt.Sprintf(format, args...))
}

func (b *typeBuilder) location(node *yaml.Node) *token.Location {
	start := token.Position{Line: node.Line - 1, Column: node.Column - 1}
	end := start
	if node.Kind == yaml.ScalarNode {
		end.Column += len(node.Value)
	}
	loc := token.NewLocation(start, end)
	loc.File = b.file
	return loc
}

func (b *typeBuilder) Build(expr TypeExpr) (typesystem.TypeAnnot, error) {
	if expr.node == nil {
		return typesystem.TypeAnnot{}, fmt.Errorf("%s: missing type expression", b.file)
	}
	return b.build(expr.node)
}

func (b *typeBuilder) build(node *yaml.Node) (typesystem.TypeAnnot, error) {
	var (
		t   typesystem.TypeAnnot
		err error
	)
	switch node.Kind {
	case yaml.ScalarNode:
		t, err = b.buildScalar(node)
	case yaml.MappingNode:
		t, err = b.buildMapping(node)
	case yaml.AliasNode:
		if !b.anchors.Insert(node.Alias) {
			return t, b.errorf(node, "recursive type expression")
		}
		defer b.anchors.Remove(node.Alias)
		return b.build(node.Alias)
	default:
		return t, b.errorf(node, "type expression must be a name or a mapping")
	}
	if err != nil {
		return t, err
	}
	return t.At(b.location(node)), nil
}

func (b *typeBuilder) buildScalar(node *yaml.Node) (typesystem.TypeAnnot, error) {
	name := strings.TrimSpace(node.Value)
	switch {
	case name == "":
		return typesystem.TypeAnnot{}, b.errorf(node, "empty type name")
	case name == "?":
		return typesystem.FreshMeta(), nil
	case strings.HasPrefix(name, "?"):
		return typesystem.Meta(b.meta(name[1:])), nil
	case strings.HasPrefix(name, "'"):
		v, ok := b.vars[name[1:]]
		if !ok {
			v = typesystem.NewTVar(name[1:])
			b.vars[name[1:]] = v
		}
		return typesystem.Var(v), nil
	}
	t, err := b.engine.LookupTypeFrom(b.scope, token.ParseQualifiedName(name))
	if err != nil {
		return typesystem.TypeAnnot{}, b.errorf(node, "%v", err)
	}
	return t, nil
}

func (b *typeBuilder) meta(name string) *typesystem.MetaType {
	m, ok := b.metas[name]
	if !ok {
		m = typesystem.NewMeta()
		b.metas[name] = m
	}
	return m
}

// metaName returns the name m was introduced under, if any.
func (b *typeBuilder) metaName(m *typesystem.MetaType) string {
	for name, candidate := range b.metas {
		if candidate == m {
			return "?" + name
		}
	}
	return m.String()
}

// freeMetaNames lists the named metas still unbound in annots, in order
// of first occurrence. Anonymous metas are left out.
func (b *typeBuilder) freeMetaNames(annots ...typesystem.TypeAnnot) []string {
	names := make(map[*typesystem.MetaType]string, len(b.metas))
	for name, m := range b.metas {
		names[m] = "?" + name
	}
	var free []string
	for _, t := range annots {
		for _, m := range typesystem.FreeMetas(t) {
			if name, ok := names[m]; ok && !slices.Contains(free, name) {
				free = append(free, name)
			}
		}
	}
	return free
}

// modifierHeads maps each modifier key to the constructor it belongs to.
var modifierHeads = map[string]string{
	"return": "fun",
	"of":     "alias",
	"body":   "forall",
}

func (b *typeBuilder) buildMapping(node *yaml.Node) (typesystem.TypeAnnot, error) {
	fields := make(map[string]*yaml.Node, len(node.Content)/2)
	var head string
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		fields[key] = node.Content[i+1]
		switch key {
		case "return", "of", "body":
		default:
			if head != "" {
				return typesystem.TypeAnnot{}, b.errorf(node, "type expression has both %q and %q", head, key)
			}
			head = key
		}
	}

	for key, owner := range modifierHeads {
		if _, ok := fields[key]; ok && head != "" && head != owner {
			return typesystem.TypeAnnot{}, b.errorf(node, "%q does not apply to %q", key, head)
		}
	}

	arg := fields[head]
	switch head {
	case "list", "option", "ref":
		elem, err := b.build(arg)
		if err != nil {
			return elem, err
		}
		switch head {
		case "list":
			return typesystem.List(elem), nil
		case "option":
			return typesystem.Option(elem), nil
		default:
			return typesystem.Ref(elem), nil
		}

	case "tuple":
		elems, err := b.buildSeq(arg)
		if err != nil {
			return typesystem.TypeAnnot{}, err
		}
		return typesystem.Tuple(elems...), nil

	case "fun":
		params, err := b.buildSeq(arg)
		if err != nil {
			return typesystem.TypeAnnot{}, err
		}
		retNode, ok := fields["return"]
		if !ok {
			return typesystem.TypeAnnot{}, b.errorf(node, "fun requires return")
		}
		ret, err := b.build(retNode)
		if err != nil {
			return ret, err
		}
		return typesystem.Fun(params, ret), nil

	case "exn":
		exn, err := b.engine.LookupException(token.ParseQualifiedName(arg.Value))
		if err != nil {
			return typesystem.TypeAnnot{}, b.errorf(arg, "%v", err)
		}
		return typesystem.Exn(exn), nil

	case "alias":
		ofNode, ok := fields["of"]
		if !ok {
			return typesystem.TypeAnnot{}, b.errorf(node, "alias requires of")
		}
		body, err := b.build(ofNode)
		if err != nil {
			return body, err
		}
		return typesystem.Alias(token.ParseQualifiedName(arg.Value), body), nil

	case "forall":
		return b.buildForall(node, arg, fields["body"])

	case "":
		return typesystem.TypeAnnot{}, b.errorf(node, "empty type expression")
	}
	return typesystem.TypeAnnot{}, b.errorf(node, "unknown type constructor %q", head)
}

// buildForall introduces fresh rigid variables for the duration of body.
func (b *typeBuilder) buildForall(node, varsNode, bodyNode *yaml.Node) (typesystem.TypeAnnot, error) {
	if bodyNode == nil {
		return typesystem.TypeAnnot{}, b.errorf(node, "forall requires body")
	}
	if varsNode.Kind != yaml.SequenceNode {
		return typesystem.TypeAnnot{}, b.errorf(varsNode, "forall expects a list of variables")
	}

	saved := make(map[string]*typesystem.TVar)
	var vars []*typesystem.TVar
	for _, n := range varsNode.Content {
		name := strings.TrimPrefix(n.Value, "'")
		if name == "" {
			return typesystem.TypeAnnot{}, b.errorf(n, "empty variable name")
		}
		if _, done := saved[name]; !done {
			saved[name] = b.vars[name]
		}
		v := typesystem.NewTVar(name)
		b.vars[name] = v
		vars = append(vars, v)
	}
	defer func() {
		for name, v := range saved {
			if v == nil {
				delete(b.vars, name)
			} else {
				b.vars[name] = v
			}
		}
	}()

	body, err := b.build(bodyNode)
	if err != nil {
		return body, err
	}
	return typesystem.Poly(vars, body), nil
}

func (b *typeBuilder) buildSeq(node *yaml.Node) ([]typesystem.TypeAnnot, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, b.errorf(node, "expected a list of types")
	}
	elems := make([]typesystem.TypeAnnot, 0, len(node.Content))
	for _, n := range node.Content {
		t, err := b.build(n)
		if err != nil {
			return nil, err
		}
		elems = append(elems, t)
	}
	return elems, nil
}
