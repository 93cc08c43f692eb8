package directive

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/hanpama/constraintgraph/internal/constraint"
	"github.com/hanpama/constraintgraph/internal/schema"
)

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used for debug output. The default is the
// logrus standard logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Compiler) { c.logger = logger }
}

// WithInterner shares a placeholder table between compilers.
func WithInterner(in *Interner) Option {
	return func(c *Compiler) { c.interner = in }
}

// Compiler applies constraint directives to schemas. It is a
// schema.Transform and may be applied to any number of schemas; applying
// it to the same schema twice changes nothing.
type Compiler struct {
	directives []Directive
	logger     logrus.FieldLogger
	interner   *Interner

	mu        sync.Mutex
	processed map[processedKey]struct{}
}

type processedKey struct {
	schema    *schema.Schema
	directive string
}

// NewCompiler returns a Compiler for ds. Each Compiler owns its Interner
// unless WithInterner supplies one.
func NewCompiler(ds []Directive, opts ...Option) *Compiler {
	c := &Compiler{
		directives: ds,
		processed:  map[processedKey]struct{}{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logrus.StandardLogger()
	}
	if c.interner == nil {
		c.interner = NewInterner()
	}
	return c
}

// Directives returns the directives the compiler handles.
func (c *Compiler) Directives() []Directive { return c.directives }

// TypeDefs returns the SDL declarations of the compiler's directives.
func (c *Compiler) TypeDefs() string { return TypeDefs(c.directives...) }

// TransformSchema collects every directive usage in s and then applies
// them. Any misconfigured usage fails the whole transform with a
// ValidationError.
func (c *Compiler) TransformSchema(s *schema.Schema) error {
	invs, violations := collect(s, c.directives)
	if len(violations) > 0 {
		return violations
	}

	reg := NewRegistry(s, c.logger)
	var lists []*Invocation
	for _, inv := range invs {
		if inv.Directive.Kind.IsScalar() {
			if v := c.substitute(s, reg, inv); v != nil {
				violations = append(violations, v)
			}
			continue
		}
		lists = append(lists, inv)
	}

	byDirective := map[string][]*Invocation{}
	var order []Directive
	for _, inv := range lists {
		if !schema.IsList(inv.Target.Type) {
			violations = append(violations, violationWrongType(inv.Directive.Name, constraint.KindList, inv.Target.Type.String(), inv.Position))
			continue
		}
		if _, ok := byDirective[inv.Directive.Name]; !ok {
			order = append(order, inv.Directive)
		}
		byDirective[inv.Directive.Name] = append(byDirective[inv.Directive.Name], inv)
	}
	if len(violations) > 0 {
		return violations
	}

	for _, d := range order {
		if !c.claim(s, d.Name) {
			continue
		}
		c.applyLists(s, d, byDirective[d.Name])
	}
	return nil
}

// claim marks the directive as applied to s and reports whether it was
// not applied before.
func (c *Compiler) claim(s *schema.Schema, name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := processedKey{schema: s, directive: name}
	if _, ok := c.processed[key]; ok {
		return false
	}
	c.processed[key] = struct{}{}
	return true
}

// substitute replaces the target's base scalar with a constrained scalar,
// keeping its list and non-null wrappers.
func (c *Compiler) substitute(s *schema.Schema, reg *Registry, inv *Invocation) *Violation {
	base := inv.Directive.Kind.String()
	var failure *Violation
	typ := rewrap(inv.Target.Type, func(named string) string {
		if t, ok := s.Types[named]; ok && t.BaseType != "" {
			named = t.BaseType
		}
		if named != base {
			failure = violationWrongType(inv.Directive.Name, inv.Directive.Kind, named, inv.Position)
			return named
		}
		key := NewTypeKey(inv.Directive.Kind, inv.Args, inv.Target.Name, c.interner)
		t, err := reg.Synthesize(key, inv.Options)
		if err != nil {
			failure = violationSynthesis(inv.Directive.Name, err, inv.Position)
			return named
		}
		return t.Name
	})
	if failure != nil {
		return failure
	}
	inv.Target.Type = typ
	return nil
}

func rewrap(ref *schema.TypeRef, named func(string) string) *schema.TypeRef {
	switch ref.Kind {
	case schema.TypeRefKindNonNull:
		return schema.NonNullType(rewrap(ref.OfType, named))
	case schema.TypeRefKindList:
		return schema.ListType(rewrap(ref.OfType, named))
	}
	return schema.NamedType(named(ref.Named))
}
