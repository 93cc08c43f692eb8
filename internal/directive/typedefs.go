package directive

import (
	"fmt"
	"strings"

	"github.com/hanpama/constraintgraph/internal/constraint"
)

// CaseEnumName is the enum type used by the case option of string
// directives.
const CaseEnumName = "ConstraintCase"

const caseEnumTypeDefs = `"Case conversion applied before string constraints are checked."
enum ConstraintCase {
  UPPER
  LOWER
}
`

type optionDef struct {
	name, typ, description string
}

var optionDefs = map[constraint.Kind][]optionDef{
	constraint.KindString: {
		{"min", "Int", "Requires a minimum length of min."},
		{"max", "Int", "Requires a maximum length of max."},
		{"length", "Int", "Requires a length of exactly length."},
		{"trim", "Boolean", "Trims the string before validation."},
		{"pattern", "String", "Requires the string to match a regular expression written as /body/flags."},
		{"creditCard", "Boolean", "Requires a credit card number."},
		{"case", CaseEnumName, "Converts the string to upper or lower case."},
		{"isoDate", "Boolean", "Requires an ISO 8601 date."},
		{"isoDuration", "Boolean", "Requires an ISO 8601 duration."},
	},
	constraint.KindInt: {
		{"min", "Int", "Value must be greater than or equal to min."},
		{"max", "Int", "Value must be less than or equal to max."},
	},
	constraint.KindFloat: {
		{"min", "Float", "Value must be greater than or equal to min."},
		{"max", "Float", "Value must be less than or equal to max."},
		{"minExclusive", "Float", "Value must be greater than minExclusive."},
		{"maxExclusive", "Float", "Value must be less than maxExclusive."},
		{"precision", "Int", "Rounds the value to at most precision decimal places."},
	},
	constraint.KindList: {
		{"min", "Int", "Requires at least min items."},
		{"max", "Int", "Requires at most max items."},
		{"length", "Int", "Requires exactly length items. Accepted but not enforced."},
		{"unique", "Boolean", "Requires unique items. Accepted but not enforced."},
	},
}

// TypeDefs returns the SDL declaration of d. String directives reference
// the ConstraintCase enum, which TypeDefs (the package function) declares.
func (d Directive) TypeDefs() string {
	var b strings.Builder
	fmt.Fprintf(&b, "directive @%s(\n", d.Name)
	for _, opt := range optionDefs[d.Kind] {
		fmt.Fprintf(&b, "  %q\n  %s: %s\n", opt.description, opt.name, opt.typ)
	}
	b.WriteString(") on INPUT_FIELD_DEFINITION | ARGUMENT_DEFINITION\n")
	return b.String()
}

// TypeDefs returns the declarations of ds followed by the ConstraintCase
// enum when any string directive is present.
func TypeDefs(ds ...Directive) string {
	var parts []string
	needsCase := false
	for _, d := range ds {
		parts = append(parts, d.TypeDefs())
		if d.Kind == constraint.KindString {
			needsCase = true
		}
	}
	if needsCase {
		parts = append(parts, caseEnumTypeDefs)
	}
	return strings.Join(parts, "\n")
}
