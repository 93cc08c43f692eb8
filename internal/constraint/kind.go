// Package constraint compiles directive option sets into validators.
//
// Options are checked eagerly by Parse so that bad directive usages fail
// schema construction. The resulting Options compile into a Schema, which
// validates (and for strings, transforms) a single value.
package constraint

// Kind is the closed set of constraint kinds.
type Kind int

const (
	KindString Kind = iota + 1
	KindInt
	KindFloat
	KindList
)

// String returns the base GraphQL type name of the kind, or "List".
func (k Kind) String() string {
	switch k {
	case KindString:
		return "String"
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindList:
		return "List"
	}
	return "Unknown"
}

// IsScalar reports whether values of the kind are scalars (and therefore
// validated through a derived scalar type rather than field middleware).
func (k Kind) IsScalar() bool {
	return k == KindString || k == KindInt || k == KindFloat
}

// Args is a directive argument mapping with literal values already
// converted to Go values (int, float64, string, bool, []any,
// map[string]any).
type Args map[string]any
