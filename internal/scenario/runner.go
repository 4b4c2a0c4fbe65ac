package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/szktty/trompe/internal/analyzer"
	"github.com/szktty/trompe/internal/config"
	"github.com/szktty/trompe/internal/modules"
	"github.com/szktty/trompe/internal/symbols"
	"github.com/szktty/trompe/internal/token"
	"github.com/szktty/trompe/internal/typesystem"
)

// Result is the outcome of one check.
type Result struct {
	Name   string
	Passed bool
	// Outcome is what actually happened, in the vocabulary of expect.
	Outcome string
	Detail  string
}

// Runner builds a document's module forest and evaluates its checks.
type Runner struct {
	Config *config.Config
	Logger *slog.Logger
}

// Run evaluates doc with cfg and the default logger.
func Run(ctx context.Context, doc *Document, cfg *config.Config) ([]Result, error) {
	r := &Runner{Config: cfg, Logger: slog.Default()}
	return r.Run(ctx, doc)
}

// Run evaluates every check of doc against a fresh engine. Checks run in
// document order and are independent of each other: metas bound by a
// check, including metas in the types of module values, are unbound again
// once it finishes. The context is checked before each check; on
// cancellation the results so far are returned with the context's error.
func (r *Runner) Run(ctx context.Context, doc *Document) ([]Result, error) {
	cfg := r.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("file", doc.File)

	session, err := NewSession(doc)
	if err != nil {
		return nil, err
	}
	logger.Debug("module forest built", "unit", session.Engine.Types.ID, "modules", countModules(session.Engine.Types.Root))

	results := make([]Result, 0, len(doc.Checks))
	failed := 0
	for i := range doc.Checks {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := session.Check(&doc.Checks[i])
		if res.Name == "" {
			res.Name = fmt.Sprintf("check %d", i+1)
		}
		results = append(results, res)
		logger.Debug("check finished", "check", res.Name, "outcome", res.Outcome, "passed", res.Passed)

		if !res.Passed {
			failed++
			if cfg.FailFast {
				logger.Info("stopping at first failure", "check", res.Name)
				break
			}
		}
	}
	logger.Debug("scenario finished", "checks", len(results), "failed", failed)
	return results, nil
}

// Session is a built module forest that checks can be run against one at
// a time.
type Session struct {
	Engine *analyzer.TypingEngine
	file   string
}

// NewSession builds the module forest of doc. A nil doc gives a session
// holding only the prelude.
func NewSession(doc *Document) (*Session, error) {
	s := &Session{Engine: analyzer.NewTypingEngine()}
	if doc == nil {
		return s, nil
	}
	s.file = doc.File
	if err := build(s.Engine, doc); err != nil {
		return nil, err
	}
	return s, nil
}

// Check runs a single check. Metas it binds, in its own types or in the
// forest, are restored before it returns.
func (s *Session) Check(check *Check) Result {
	return runCheck(s.Engine, s.file, check)
}

func countModules(root *modules.TypeModule) int {
	n := 0
	root.Walk(func(*modules.TypeModule) bool {
		n++
		return true
	})
	return n
}

type pendingImport struct {
	from   token.QualifiedName
	target token.QualifiedName
}

// build creates the module forest of doc. Imports are applied after every
// module exists so they may point forward.
func build(engine *analyzer.TypingEngine, doc *Document) error {
	var imports []pendingImport
	var buildModule func(parent token.QualifiedName, spec ModuleSpec) error
	buildModule = func(parent token.QualifiedName, spec ModuleSpec) error {
		path := parent.Append(token.ParseQualifiedName(spec.Name)...)
		if _, _, err := engine.EnsureModule(path); err != nil {
			return fmt.Errorf("module %s: %w", path, err)
		}
		for _, name := range spec.Exceptions {
			if _, err := engine.DefineException(path.Append(name)); err != nil {
				return err
			}
		}
		for _, bind := range spec.Types {
			t, err := newTypeBuilder(engine, doc.File, path).Build(bind.Type)
			if err != nil {
				return err
			}
			if err := engine.DefineType(path.Append(bind.Name), t); err != nil {
				return err
			}
		}
		for _, bind := range spec.Values {
			t, err := newTypeBuilder(engine, doc.File, path).Build(bind.Type)
			if err != nil {
				return err
			}
			sym := symbols.NewVariable(bind.Name, t, path.String())
			if err := engine.DefineValue(path.Append(bind.Name), sym); err != nil {
				return err
			}
		}
		for _, imp := range spec.Imports {
			imports = append(imports, pendingImport{from: path, target: token.ParseQualifiedName(imp)})
		}
		for _, sub := range spec.Submodules {
			if err := buildModule(path, sub); err != nil {
				return err
			}
		}
		return nil
	}

	for _, spec := range doc.Modules {
		if err := buildModule(nil, spec); err != nil {
			return fmt.Errorf("%s: %w", doc.File, err)
		}
	}
	for _, imp := range imports {
		if err := engine.Import(imp.from, imp.target); err != nil {
			return fmt.Errorf("%s: import %s into %s: %w", doc.File, imp.target, imp.from, err)
		}
	}
	return nil
}

func runCheck(engine *analyzer.TypingEngine, file string, check *Check) Result {
	res := Result{Name: check.Name}
	scope := token.ParseQualifiedName(check.Scope)

	fail := func(err error) Result {
		res.Outcome = "error"
		res.Detail = err.Error()
		return res
	}

	switch {
	case check.Unify != nil || check.Use != nil:
		b := newTypeBuilder(engine, file, scope)
		var (
			expected, actual typesystem.TypeAnnot
			berr             error
		)
		if check.Unify != nil {
			if expected, berr = b.Build(check.Unify.Expected); berr != nil {
				return fail(berr)
			}
			if actual, berr = b.Build(check.Unify.Actual); berr != nil {
				return fail(berr)
			}
		} else {
			if actual, berr = b.Build(check.Use.Type); berr != nil {
				return fail(berr)
			}
			if sym, lerr := engine.LookupValue(token.ParseQualifiedName(check.Use.Value)); lerr == nil {
				expected = sym.Type
			}
		}
		snap := typesystem.Snapshot(expected, actual)
		defer snap.Restore()

		var err error
		if check.Unify != nil {
			err = engine.Unify(expected, actual)
		} else {
			err = engine.UnifyValue(token.ParseQualifiedName(check.Use.Value), actual)
		}
		res.Outcome = outcome(err)
		res.Passed = res.Outcome == check.Expect
		switch {
		case err != nil:
			res.Detail = err.Error()
		case res.Passed:
			if detail, ok := checkBindings(b, check.Bindings); !ok {
				res.Passed = false
				res.Detail = detail
			} else if free := b.freeMetaNames(expected, actual); len(free) > 0 {
				res.Detail = "unbound: " + strings.Join(free, ", ")
			}
		}

	case check.Resolve != "":
		mod, err := engine.Types.ResolveModule(scope)
		if err != nil {
			return fail(err)
		}
		_, found := mod.Resolve(token.ParseQualifiedName(check.Resolve))
		res.Outcome = foundOutcome(found)
		res.Passed = res.Outcome == check.Expect

	case check.Lookup != "":
		mod, err := engine.Values.ResolveModule(scope)
		if err != nil {
			return fail(err)
		}
		sym, err := engine.Values.LookupFrom(mod, token.ParseQualifiedName(check.Lookup))
		res.Outcome = foundOutcome(err == nil)
		res.Passed = res.Outcome == check.Expect
		if err == nil {
			res.Detail = sym.String()
		} else {
			res.Detail = err.Error()
		}
	}
	return res
}

// checkBindings verifies that every named meta resolves to its expected
// type.
func checkBindings(b *typeBuilder, bindings Bindings) (string, bool) {
	for _, bind := range bindings {
		m, ok := b.metas[strings.TrimPrefix(bind.Name, "?")]
		if !ok {
			return fmt.Sprintf("no meta named %s", bind.Name), false
		}
		want, err := b.Build(bind.Type)
		if err != nil {
			return err.Error(), false
		}
		got := typesystem.Zonk(typesystem.Meta(m))
		if !typesystem.Equal(got, typesystem.Zonk(want)) {
			return fmt.Sprintf("%s resolved to %s, want %s", b.metaName(m), got, typesystem.Zonk(want)), false
		}
	}
	return "", true
}

func foundOutcome(found bool) string {
	if found {
		return ExpectFound
	}
	return ExpectMissing
}

// outcome maps a unification result to its expect keyword.
func outcome(err error) string {
	if err == nil {
		return ExpectOK
	}
	var m *typesystem.TypeMismatch
	if errors.As(err, &m) {
		switch m.Kind {
		case typesystem.KindMismatch:
			return ExpectMismatch
		case typesystem.KindArityMismatch:
			return ExpectArityMismatch
		case typesystem.KindInfiniteType:
			return ExpectInfiniteType
		case typesystem.KindRigidMismatch:
			return ExpectRigidMismatch
		case typesystem.KindUnsupportedForm:
			return ExpectUnsupportedForm
		}
	}
	var unresolved *modules.UnresolvedNameError
	if errors.As(err, &unresolved) {
		return ExpectUnresolved
	}
	return "error"
}
