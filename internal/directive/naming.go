package directive

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/hanpama/constraintgraph/internal/constraint"
)

var (
	identRegex     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	nameCharsRegex = regexp.MustCompile(`^[A-Za-z0-9_]*$`)
)

// Interner assigns stable placeholder numbers to raw strings that cannot
// appear in a type name. Numbers start at 0 and are never reused for the
// lifetime of the Interner.
type Interner struct {
	mu    sync.Mutex
	index map[string]int
}

// NewInterner returns an empty placeholder table.
func NewInterner() *Interner {
	return &Interner{index: map[string]int{}}
}

// Intern returns the placeholder number for raw.
func (in *Interner) Intern(raw string) int {
	in.mu.Lock()
	defer in.mu.Unlock()
	if n, ok := in.index[raw]; ok {
		return n
	}
	n := len(in.index)
	in.index[raw] = n
	return n
}

// Len returns how many strings have been interned.
func (in *Interner) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.index)
}

// SerializeArgs renders args as a type name fragment. Keys are visited in
// sorted order. A true option contributes its name, a false one nothing,
// and any other value name_value. Values that would not be valid in a type
// name are replaced with name_sub_<n> using in.
func SerializeArgs(args constraint.Args, in *Interner) string {
	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		switch v := args[name].(type) {
		case bool:
			if v {
				parts = append(parts, name)
			}
		case string:
			if identRegex.MatchString(v) {
				parts = append(parts, name+"_"+v)
			} else {
				parts = append(parts, fmt.Sprintf("%s_sub_%d", name, in.Intern(v)))
			}
		default:
			rendered := renderArg(v)
			if nameCharsRegex.MatchString(rendered) {
				parts = append(parts, name+"_"+rendered)
			} else {
				parts = append(parts, fmt.Sprintf("%s_sub_%d", name, in.Intern(rendered)))
			}
		}
	}
	return strings.Join(parts, "__")
}

func renderArg(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// TypeKey identifies a synthesized scalar. Field is the label used in
// validation messages; it does not take part in the name.
type TypeKey struct {
	Base  string
	Args  string
	Field string
}

// NewTypeKey derives the key of the scalar synthesized for a directive of
// kind with args, declared on field.
func NewTypeKey(kind constraint.Kind, args constraint.Args, field string, in *Interner) TypeKey {
	return TypeKey{Base: kind.String(), Args: SerializeArgs(args, in), Field: field}
}

// Name returns the synthesized type name, Constrained<Base>__<args>.
func (k TypeKey) Name() string {
	return "Constrained" + k.Base + "__" + k.Args
}
