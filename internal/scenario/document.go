package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is one scenario file: a module forest to build and the checks
// to run against it.
type Document struct {
	Modules []ModuleSpec `yaml:"modules"`
	Checks  []Check      `yaml:"checks"`

	// File is the path the document was read from, used in locations.
	File string `yaml:"-"`
}

// ModuleSpec describes a module and, recursively, its submodules.
type ModuleSpec struct {
	Name       string       `yaml:"name"`
	Types      Bindings     `yaml:"types"`
	Values     Bindings     `yaml:"values"`
	Exceptions []string     `yaml:"exceptions"`
	Submodules []ModuleSpec `yaml:"submodules"`
	// Imports are qualified module paths, resolved from the root once the
	// whole forest is built.
	Imports []string `yaml:"imports"`
}

// Check is a single assertion. Exactly one of Unify, Use, Resolve and
// Lookup is set.
type Check struct {
	Name string `yaml:"name"`
	// Scope is the module the check's names are resolved from; the root
	// when empty.
	Scope   string      `yaml:"scope"`
	Unify   *UnifyCheck `yaml:"unify"`
	Use     *UseCheck   `yaml:"use"`
	Resolve string      `yaml:"resolve"`
	Lookup  string      `yaml:"lookup"`
	Expect  string      `yaml:"expect"`
	// Bindings, for unify and use checks that succeed, gives the type each
	// named meta must resolve to afterwards.
	Bindings Bindings `yaml:"bindings"`
}

type UnifyCheck struct {
	Expected TypeExpr `yaml:"expected"`
	Actual   TypeExpr `yaml:"actual"`
}

// UseCheck unifies the declared type of a value with Type.
type UseCheck struct {
	Value string   `yaml:"value"`
	Type  TypeExpr `yaml:"type"`
}

// Expected outcomes.
const (
	ExpectOK              = "ok"
	ExpectMismatch        = "mismatch"
	ExpectArityMismatch   = "arity_mismatch"
	ExpectInfiniteType    = "infinite_type"
	ExpectRigidMismatch   = "rigid_mismatch"
	ExpectUnsupportedForm = "unsupported_form"
	ExpectUnresolved      = "unresolved"
	ExpectFound           = "found"
	ExpectMissing         = "missing"
)

// TypeExpr is an unparsed type expression. It is kept as a YAML node so
// metas and rigid variables can be shared across the expressions of one
// check.
type TypeExpr struct {
	node *yaml.Node
}

func (t *TypeExpr) UnmarshalYAML(node *yaml.Node) error {
	t.node = node
	return nil
}

func (t TypeExpr) IsZero() bool {
	return t.node == nil
}

// Binding is one name/type pair of a Bindings mapping.
type Binding struct {
	Name string
	Type TypeExpr
}

// Bindings is a YAML mapping from names to type expressions that keeps
// document order, so later entries may refer to earlier ones.
type Bindings []Binding

func (b *Bindings) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping of names to types", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		if key.Kind != yaml.ScalarNode || key.Value == "" {
			return fmt.Errorf("line %d: binding name must be a non-empty string", key.Line)
		}
		*b = append(*b, Binding{Name: key.Value, Type: TypeExpr{node: node.Content[i+1]}})
	}
	return nil
}

// Load reads a scenario file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes scenario content. Unknown keys are rejected.
func Parse(data []byte, path string) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing %s: empty document", path)
		}
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	doc.File = path
	if err := doc.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &doc, nil
}

// ParseCheck decodes a single check, such as one line of interactive
// input in YAML flow style.
func ParseCheck(data []byte) (*Check, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var check Check
	if err := dec.Decode(&check); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty check")
		}
		return nil, err
	}
	if err := check.validate(); err != nil {
		return nil, err
	}
	return &check, nil
}

func (d *Document) validate() error {
	var checkModules func(specs []ModuleSpec, prefix string) error
	checkModules = func(specs []ModuleSpec, prefix string) error {
		for i, m := range specs {
			if m.Name == "" {
				return fmt.Errorf("%smodules[%d]: name is required", prefix, i)
			}
			if err := checkModules(m.Submodules, prefix+m.Name+"."); err != nil {
				return err
			}
		}
		return nil
	}
	if err := checkModules(d.Modules, ""); err != nil {
		return err
	}

	for i := range d.Checks {
		c := &d.Checks[i]
		if err := c.validate(); err != nil {
			return fmt.Errorf("checks[%d] %q: %w", i, c.Name, err)
		}
	}
	return nil
}

// validate checks that exactly one action is set and fills in the
// default expectation.
func (c *Check) validate() error {
	n := 0
	if c.Unify != nil {
		n++
	}
	if c.Use != nil {
		n++
	}
	if c.Resolve != "" {
		n++
	}
	if c.Lookup != "" {
		n++
	}
	if n != 1 {
		return errors.New("exactly one of unify, use, resolve or lookup is required")
	}

	switch {
	case c.Unify != nil || c.Use != nil:
		if c.Unify != nil && (c.Unify.Expected.IsZero() || c.Unify.Actual.IsZero()) {
			return errors.New("unify needs expected and actual")
		}
		if c.Use != nil && (c.Use.Value == "" || c.Use.Type.IsZero()) {
			return errors.New("use needs value and type")
		}
		switch c.Expect {
		case "":
			c.Expect = ExpectOK
		case ExpectOK, ExpectMismatch, ExpectArityMismatch, ExpectInfiniteType,
			ExpectRigidMismatch, ExpectUnsupportedForm, ExpectUnresolved:
		default:
			return fmt.Errorf("unknown expect %q for a unification check", c.Expect)
		}
	default:
		if len(c.Bindings) > 0 {
			return errors.New("bindings only apply to unify and use checks")
		}
		switch c.Expect {
		case "":
			c.Expect = ExpectFound
		case ExpectFound, ExpectMissing:
		default:
			return fmt.Errorf("unknown expect %q for a name check", c.Expect)
		}
	}
	return nil
}
