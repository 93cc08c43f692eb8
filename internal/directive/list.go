package directive

import (
	"context"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/hanpama/constraintgraph/internal/schema"
)

// taggedInput is a list directive found under a field argument. path runs
// from the argument name to the annotated input field.
type taggedInput struct {
	path []string
	rule *rule
}

// applyLists installs middleware for the list directive d. Argument usages
// get one middleware each; input field usages are found through the
// arguments of every object field and share one middleware per field.
func (c *Compiler) applyLists(s *schema.Schema, d Directive, invs []*Invocation) {
	inputRules := map[*schema.InputValue]*Invocation{}
	for _, inv := range invs {
		if inv.IsArgument() {
			inv.Field.Use(argumentMiddleware(inv.Target.Name, newRule(inv.Options, inv.Target.Name)))
			continue
		}
		inputRules[inv.Target] = inv
	}
	if len(inputRules) > 0 {
		c.discover(s, d, inputRules)
	}
}

func argumentMiddleware(name string, r *rule) schema.FieldMiddleware {
	return func(_ context.Context, args map[string]any) error {
		value, ok := args[name]
		if !ok || value == nil {
			return nil
		}
		_, err := r.Validate(value)
		return err
	}
}

// discover walks the input objects reachable from every object field
// argument and installs one middleware per field that has tagged inputs.
func (c *Compiler) discover(s *schema.Schema, d Directive, rules map[*schema.InputValue]*Invocation) {
	names := make([]string, 0, len(s.Types))
	for name, t := range s.Types {
		if t.Kind == schema.TypeKindObject {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		for _, field := range s.Types[name].Fields {
			var tagged []taggedInput
			for _, arg := range field.Arguments {
				input := inputObject(s, arg.Type)
				if input == nil {
					continue
				}
				tagged = findTaggedInputs(s, input, rules, []string{arg.Name}, map[string]bool{}, tagged)
			}
			if len(tagged) == 0 {
				continue
			}
			sort.SliceStable(tagged, func(i, j int) bool {
				return len(tagged[i].path) < len(tagged[j].path)
			})
			field.Use(taggedInputMiddleware(tagged))
			c.logger.WithFields(logrus.Fields{
				"directive": d.Name,
				"field":     name + "." + field.Name,
				"paths":     len(tagged),
			}).Debug("installed list constraint middleware")
		}
	}
}

// findTaggedInputs appends the tagged fields of input and of the input
// objects nested in it. Types already on the current path are not
// entered again.
func findTaggedInputs(s *schema.Schema, input *schema.Type, rules map[*schema.InputValue]*Invocation, path []string, visiting map[string]bool, acc []taggedInput) []taggedInput {
	visiting[input.Name] = true
	defer delete(visiting, input.Name)

	for _, f := range input.InputFields {
		fieldPath := append(append([]string(nil), path...), f.Name)
		if inv, ok := rules[f]; ok {
			acc = append(acc, taggedInput{
				path: fieldPath,
				rule: newRule(inv.Options, strings.Join(fieldPath, ".")),
			})
		}
		if nested := inputObject(s, f.Type); nested != nil && !visiting[nested.Name] {
			acc = findTaggedInputs(s, nested, rules, fieldPath, visiting, acc)
		}
	}
	return acc
}

// inputObject returns the input object named by ref after removing a
// non-null wrapper. Lists of input objects are not entered.
func inputObject(s *schema.Schema, ref *schema.TypeRef) *schema.Type {
	ref = schema.UnwrapNonNull(ref)
	if ref == nil || ref.Kind != schema.TypeRefKindNamed {
		return nil
	}
	if t, ok := s.Types[ref.Named]; ok && t.Kind == schema.TypeKindInputObject {
		return t
	}
	return nil
}

func taggedInputMiddleware(tagged []taggedInput) schema.FieldMiddleware {
	return func(_ context.Context, args map[string]any) error {
		for _, t := range tagged {
			value, ok := lookupPath(args, t.path)
			if !ok || value == nil {
				continue
			}
			if _, err := t.rule.Validate(value); err != nil {
				return err
			}
		}
		return nil
	}
}

func lookupPath(args map[string]any, path []string) (any, bool) {
	var current any = args
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = m[key]; !ok {
			return nil, false
		}
	}
	return current, true
}
