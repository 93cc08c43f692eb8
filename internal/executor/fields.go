package executor

import (
	"slices"

	language "github.com/hanpama/constraintgraph/internal/language"
	schema "github.com/hanpama/constraintgraph/internal/schema"
)

// fieldGroup is the fields of a selection set sharing one response name.
type fieldGroup struct {
	responseName string
	fields       []*language.Field
}

// collectFields groups the selections that apply to objectType by response
// name, in query order. Fragments are expanded once.
func (ex *execution) collectFields(objectType *schema.Type, set language.SelectionSet) []*fieldGroup {
	var groups []*fieldGroup
	index := map[string]*fieldGroup{}
	visited := map[string]bool{}

	var walk func(language.SelectionSet)
	walk = func(set language.SelectionSet) {
		for _, selection := range set {
			switch sel := selection.(type) {
			case *language.Field:
				if !ex.included(sel.Directives) {
					continue
				}
				name := sel.Alias
				if name == "" {
					name = sel.Name
				}
				if g, ok := index[name]; ok {
					g.fields = append(g.fields, sel)
					continue
				}
				g := &fieldGroup{responseName: name, fields: []*language.Field{sel}}
				index[name] = g
				groups = append(groups, g)
			case *language.InlineFragment:
				if ex.included(sel.Directives) && ex.applies(sel.TypeCondition, objectType) {
					walk(sel.SelectionSet)
				}
			case *language.FragmentSpread:
				if visited[sel.Name] || !ex.included(sel.Directives) {
					continue
				}
				visited[sel.Name] = true
				frag := ex.doc.Fragments.ForName(sel.Name)
				if frag != nil && ex.applies(frag.TypeCondition, objectType) {
					walk(frag.SelectionSet)
				}
			}
		}
	}
	walk(set)
	return groups
}

// included evaluates @skip and @include.
func (ex *execution) included(directives language.DirectiveList) bool {
	if skip, ok := ex.flag(directives.ForName("skip")); ok && skip {
		return false
	}
	if include, ok := ex.flag(directives.ForName("include")); ok && !include {
		return false
	}
	return true
}

func (ex *execution) flag(d *language.Directive) (bool, bool) {
	if d == nil {
		return false, false
	}
	arg := d.Arguments.ForName("if")
	if arg == nil {
		return false, false
	}
	v, ok := valueFromAST(arg.Value, ex.vars).(bool)
	return v, ok
}

// applies reports whether a fragment on condition selects fields of
// objectType: the type itself, one of its interfaces, or a union holding it.
func (ex *execution) applies(condition string, objectType *schema.Type) bool {
	if condition == "" || condition == objectType.Name {
		return true
	}
	if slices.Contains(objectType.Interfaces, condition) {
		return true
	}
	t := ex.schema.Types[condition]
	return t != nil && t.Kind == schema.TypeKindUnion && slices.Contains(t.PossibleTypes, objectType.Name)
}
