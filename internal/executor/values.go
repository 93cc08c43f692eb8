package executor

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/hanpama/constraintgraph/internal/constraint"
	language "github.com/hanpama/constraintgraph/internal/language"
	schema "github.com/hanpama/constraintgraph/internal/schema"
)

// coercer converts literals and external values to schema input types.
// vars holds the coerced variables of the operation, or nil while the
// variables themselves are being coerced.
//
// site is the argument or input field a value is bound to. Constraint
// failures of scalars are reported under it; the empty site keeps the
// scalar's own label.
type coercer struct {
	schema *schema.Schema
	vars   map[string]any
}

// coerceVariableValues coerces the operation's variables against their
// declared types.
func coerceVariableValues(sch *schema.Schema, op *language.OperationDefinition, raw map[string]any) (map[string]any, error) {
	c := coercer{schema: sch}
	out := make(map[string]any, len(op.VariableDefinitions))
	for _, def := range op.VariableDefinitions {
		name := def.Variable
		ref := typeRefFromAST(def.Type)
		value, ok := lookupVariable(raw, name)
		switch {
		case !ok && def.DefaultValue != nil:
			v, err := c.literal(def.DefaultValue, ref, "")
			if err != nil {
				return nil, variableError(name, def.Type, err)
			}
			out[name] = v
		case !ok && def.Type.NonNull:
			return nil, errors.Errorf("variable $%s of required type %s was not provided", name, def.Type.String())
		case !ok:
		case value == nil && def.Type.NonNull:
			return nil, errors.Errorf("variable $%s of type %s cannot be null", name, def.Type.String())
		default:
			v, err := c.external(value, ref, "")
			if err != nil {
				return nil, variableError(name, def.Type, err)
			}
			out[name] = v
		}
	}
	return out, nil
}

func lookupVariable(vars map[string]any, name string) (any, bool) {
	if v, ok := vars[name]; ok {
		return v, true
	}
	v, ok := vars[strings.TrimPrefix(name, "$")]
	return v, ok
}

func variableError(name string, t *language.Type, err error) error {
	if isConstraintViolation(err) {
		return err
	}
	return errors.Errorf("variable $%s of type %s cannot be coerced: %v", name, t.String(), err)
}

// coerceArgumentValues coerces the arguments of a field. Variables are
// coerced again with the argument type, so a variable declared with a base
// type still passes through a constrained argument's scalar.
func coerceArgumentValues(sch *schema.Schema, def *schema.Field, args language.ArgumentList, vars map[string]any) (map[string]any, error) {
	c := coercer{schema: sch, vars: vars}
	out := make(map[string]any, len(def.Arguments))
	for _, arg := range def.Arguments {
		node := args.ForName(arg.Name)
		if node == nil || !c.provided(node.Value) {
			if arg.DefaultValue != nil {
				out[arg.Name] = arg.DefaultValue
			} else if schema.IsNonNull(arg.Type) {
				return nil, errors.Errorf("argument '%s' of required type was not provided", arg.Name)
			}
			continue
		}
		v, err := c.literal(node.Value, arg.Type, arg.Name)
		if err != nil {
			if isConstraintViolation(err) {
				return nil, err
			}
			return nil, errors.Errorf("argument '%s' cannot be coerced: %v", arg.Name, err)
		}
		out[arg.Name] = v
	}
	return out, nil
}

// provided reports whether value is present, treating an unset variable as
// absent.
func (c coercer) provided(value *language.Value) bool {
	if value == nil || value.Kind != language.Variable {
		return true
	}
	_, ok := c.vars[value.Raw]
	return ok
}

// literal coerces an AST value to ref.
func (c coercer) literal(value *language.Value, ref *schema.TypeRef, site string) (any, error) {
	if value != nil && value.Kind == language.Variable {
		v, _ := lookupVariable(c.vars, value.Raw)
		return c.external(v, ref, site)
	}
	null := value == nil || value.Kind == language.NullValue
	if schema.IsNonNull(ref) {
		if null {
			return nil, fmt.Errorf("cannot provide null for non-null type")
		}
		return c.literal(value, schema.Unwrap(ref), site)
	}
	if null {
		return nil, nil
	}
	if schema.IsList(ref) {
		inner := schema.Unwrap(ref)
		if value.Kind != language.ListValue {
			item, err := c.literal(value, inner, site)
			if err != nil {
				return nil, err
			}
			return []any{item}, nil
		}
		out := make([]any, len(value.Children))
		for i, child := range value.Children {
			item, err := c.literal(child.Value, inner, site)
			if err != nil {
				return nil, err
			}
			out[i] = item
		}
		return out, nil
	}

	typ, err := c.named(ref)
	if err != nil {
		return nil, err
	}
	switch typ.Kind {
	case schema.TypeKindScalar:
		if typ.ParseLiteral == nil {
			return language.ValueToGo(value, c.vars), nil
		}
		v, err := typ.ParseLiteral(value, c.vars)
		return v, relabel(err, site)
	case schema.TypeKindEnum:
		if value.Kind != language.EnumValue {
			return nil, fmt.Errorf("enum %s cannot represent non-enum value: %s", typ.Name, value.String())
		}
		return coerceEnum(typ, value.Raw)
	case schema.TypeKindInputObject:
		if value.Kind != language.ObjectValue {
			return nil, fmt.Errorf("expected input object %s, got %s", typ.Name, value.String())
		}
		fields := make(map[string]*language.Value, len(value.Children))
		for _, child := range value.Children {
			fields[child.Name] = child.Value
		}
		return c.inputObject(typ, keys(fields), func(f *schema.InputValue) (any, bool, error) {
			fv, ok := fields[f.Name]
			if !ok || !c.provided(fv) {
				return nil, false, nil
			}
			v, err := c.literal(fv, f.Type, f.Name)
			return v, true, err
		})
	}
	return nil, fmt.Errorf("type %s is not an input type", typ.Name)
}

// external coerces a JSON-decoded value to ref.
func (c coercer) external(value any, ref *schema.TypeRef, site string) (any, error) {
	if schema.IsNonNull(ref) {
		if value == nil {
			return nil, fmt.Errorf("cannot provide null for non-null type")
		}
		return c.external(value, schema.Unwrap(ref), site)
	}
	if value == nil {
		return nil, nil
	}
	if schema.IsList(ref) {
		inner := schema.Unwrap(ref)
		items, ok := value.([]any)
		if !ok {
			item, err := c.external(value, inner, site)
			if err != nil {
				return nil, err
			}
			return []any{item}, nil
		}
		out := make([]any, len(items))
		for i, item := range items {
			v, err := c.external(item, inner, site)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	typ, err := c.named(ref)
	if err != nil {
		return nil, err
	}
	switch typ.Kind {
	case schema.TypeKindScalar:
		if typ.ParseValue == nil {
			return value, nil
		}
		v, err := typ.ParseValue(value)
		return v, relabel(err, site)
	case schema.TypeKindEnum:
		name, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("enum %s cannot represent non-string value: %v", typ.Name, value)
		}
		return coerceEnum(typ, name)
	case schema.TypeKindInputObject:
		m, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected input object %s, got %T", typ.Name, value)
		}
		return c.inputObject(typ, keys(m), func(f *schema.InputValue) (any, bool, error) {
			fv, ok := m[f.Name]
			if !ok {
				return nil, false, nil
			}
			v, err := c.external(fv, f.Type, f.Name)
			return v, true, err
		})
	}
	return nil, fmt.Errorf("type %s is not an input type", typ.Name)
}

// inputObject builds an input object value field by field. field returns
// the coerced value of f and whether it was given; defaults fill the rest.
// given lists the field names present in the input.
func (c coercer) inputObject(typ *schema.Type, given []string, field func(f *schema.InputValue) (any, bool, error)) (map[string]any, error) {
	for _, name := range given {
		if typ.InputField(name) == nil {
			return nil, fmt.Errorf("unknown field '%s' for input object %s", name, typ.Name)
		}
	}
	out := make(map[string]any, len(typ.InputFields))
	for _, f := range typ.InputFields {
		v, ok, err := field(f)
		if err != nil {
			return nil, err
		}
		switch {
		case ok:
			out[f.Name] = v
		case f.DefaultValue != nil:
			out[f.Name] = f.DefaultValue
		case schema.IsNonNull(f.Type):
			return nil, fmt.Errorf("required field '%s' of input object %s was not provided", f.Name, typ.Name)
		}
	}
	return out, nil
}

func (c coercer) named(ref *schema.TypeRef) (*schema.Type, error) {
	name := schema.GetNamedType(ref)
	typ := c.schema.Types[name]
	if typ == nil {
		return nil, fmt.Errorf("unknown type %s", name)
	}
	return typ, nil
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// relabel reports a scalar's constraint failure under site.
func relabel(err error, site string) error {
	var verr *constraint.ValidationError
	if err == nil || site == "" || !errors.As(err, &verr) {
		return err
	}
	return verr.Relabel(site)
}

func coerceEnum(typ *schema.Type, name string) (any, error) {
	if !typ.HasEnumValue(name) {
		return nil, fmt.Errorf("value %q does not exist in enum %s", name, typ.Name)
	}
	return name, nil
}

// valueFromAST converts an AST value to a Go value, substituting variables.
func valueFromAST(value *language.Value, vars map[string]any) any {
	if value == nil {
		return nil
	}
	if value.Kind == language.Variable {
		v, _ := lookupVariable(vars, value.Raw)
		return v
	}
	return language.ValueToGo(value, vars)
}

func typeRefFromAST(t *language.Type) *schema.TypeRef {
	switch {
	case t == nil:
		return nil
	case t.NonNull:
		return schema.NonNullType(typeRefFromAST(&language.Type{NamedType: t.NamedType, Elem: t.Elem}))
	case t.NamedType != "":
		return schema.NamedType(t.NamedType)
	case t.Elem != nil:
		return schema.ListType(typeRefFromAST(t.Elem))
	}
	return nil
}
