package directive

import (
	"slices"
	"sort"

	"github.com/pkg/errors"

	"github.com/hanpama/constraintgraph/internal/constraint"
	language "github.com/hanpama/constraintgraph/internal/language"
	"github.com/hanpama/constraintgraph/internal/schema"
)

// Invocation is one directive application found in a schema.
type Invocation struct {
	Directive Directive
	Args      constraint.Args
	Options   constraint.Options
	Position  *language.Position

	// Owner is the object, interface or input object type declaring
	// Target. Field is set when Target is a field argument.
	Owner  *schema.Type
	Field  *schema.Field
	Target *schema.InputValue
}

// IsArgument reports whether the directive annotates a field argument.
func (inv *Invocation) IsArgument() bool { return inv.Field != nil }

// collect finds every application of ds in s, in type name order. Usages
// with bad arguments are reported as violations and left out.
func collect(s *schema.Schema, ds []Directive) ([]*Invocation, ValidationError) {
	byName := make(map[string]Directive, len(ds))
	for _, d := range ds {
		byName[d.Name] = d
	}

	names := make([]string, 0, len(s.Types))
	for name := range s.Types {
		names = append(names, name)
	}
	sort.Strings(names)

	var invs []*Invocation
	var violations ValidationError
	visit := func(owner *schema.Type, field *schema.Field, target *schema.InputValue) {
		for _, use := range target.Directives {
			d, ok := byName[use.Name]
			if !ok {
				continue
			}
			inv, v := newInvocation(d, use)
			if v != nil {
				violations = append(violations, v)
				continue
			}
			inv.Owner, inv.Field, inv.Target = owner, field, target
			invs = append(invs, inv)
		}
	}

	for _, name := range names {
		t := s.Types[name]
		switch t.Kind {
		case schema.TypeKindObject, schema.TypeKindInterface:
			for _, f := range t.Fields {
				for _, arg := range f.Arguments {
					visit(t, f, arg)
				}
			}
		case schema.TypeKindInputObject:
			for _, f := range t.InputFields {
				visit(t, nil, f)
			}
		}
	}
	return append(invs, inherited(s, names, invs)...), violations
}

// inherited copies usages on interface field arguments to the matching
// arguments of the implementing object types, whose fields are the ones
// executed. An argument with its own usage of the same directive keeps it.
func inherited(s *schema.Schema, names []string, invs []*Invocation) []*Invocation {
	var out []*Invocation
	for _, inv := range invs {
		if !inv.IsArgument() || inv.Owner.Kind != schema.TypeKindInterface {
			continue
		}
		for _, name := range names {
			impl := s.Types[name]
			if impl.Kind != schema.TypeKindObject || !slices.Contains(impl.Interfaces, inv.Owner.Name) {
				continue
			}
			field := impl.Field(inv.Field.Name)
			if field == nil {
				continue
			}
			arg := field.Argument(inv.Target.Name)
			if arg == nil || arg.Directive(inv.Directive.Name) != nil {
				continue
			}
			cp := *inv
			cp.Owner, cp.Field, cp.Target = impl, field, arg
			out = append(out, &cp)
		}
	}
	return out
}

func newInvocation(d Directive, use *schema.DirectiveUse) (*Invocation, *Violation) {
	args := make(constraint.Args, len(use.Arguments))
	for _, arg := range use.Arguments {
		if hasVariable(arg.Value) {
			return nil, violationVariableArgument(d.Name, use.Position)
		}
		args[arg.Name] = language.ValueToGo(arg.Value, nil)
	}

	opts, err := constraint.Parse(d.Kind, args)
	if err != nil {
		var unknown *constraint.UnknownOptionError
		if errors.As(err, &unknown) {
			return nil, violationUnknownArgument(d.Name, unknown.Option, use.Position)
		}
		return nil, violationInvalidOption(d.Name, err, use.Position)
	}
	return &Invocation{Directive: d, Args: args, Options: opts, Position: use.Position}, nil
}

func hasVariable(v *language.Value) bool {
	if v == nil {
		return false
	}
	if v.Kind == language.Variable {
		return true
	}
	for _, c := range v.Children {
		if hasVariable(c.Value) {
			return true
		}
	}
	return false
}
