// Package directive compiles constraint directives (@str, @int, @float and
// @list by default) into a schema.
//
// A Compiler runs as a schema.Transform. Scalar directives replace the
// annotated argument or input field type with a synthesized constrained
// scalar; list directives install field middleware that validates list
// values before the field resolves.
package directive

import (
	"github.com/hanpama/constraintgraph/internal/constraint"
)

// Directive is a constraint directive declared under Name.
type Directive struct {
	Name string
	Kind constraint.Kind
}

// Str returns a string constraint directive named name.
func Str(name string) Directive { return Directive{Name: name, Kind: constraint.KindString} }

// Int returns an integer constraint directive named name.
func Int(name string) Directive { return Directive{Name: name, Kind: constraint.KindInt} }

// Float returns a float constraint directive named name.
func Float(name string) Directive { return Directive{Name: name, Kind: constraint.KindFloat} }

// List returns a list length constraint directive named name.
func List(name string) Directive { return Directive{Name: name, Kind: constraint.KindList} }

// Defaults returns the four directives under their usual names.
func Defaults() []Directive {
	return []Directive{Str("str"), Int("int"), Float("float"), List("list")}
}

// ForKinds builds directives from a kind to name mapping. Kinds missing
// from names are left out.
func ForKinds(names map[constraint.Kind]string) []Directive {
	var out []Directive
	for _, d := range Defaults() {
		if name, ok := names[d.Kind]; ok && name != "" {
			d.Name = name
			out = append(out, d)
		}
	}
	return out
}
