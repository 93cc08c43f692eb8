package schema

import (
	"fmt"
	"sort"
	"strings"

	language "github.com/hanpama/constraintgraph/internal/language"
)

// Transform rewrites a schema after its types have been registered.
// Transforms run in order; the first error aborts schema construction.
type Transform interface {
	TransformSchema(s *Schema) error
}

// TransformFunc adapts a function to the Transform interface.
type TransformFunc func(s *Schema) error

func (f TransformFunc) TransformSchema(s *Schema) error { return f(s) }

const asyncDirectiveSDL = `"Resolve this field in the per-depth batch instead of synchronously."
directive @async on FIELD_DEFINITION
`

// BuildFromSDL parses and validates SDL and returns the corresponding
// Schema after applying transforms.
func BuildFromSDL(sdl string, transforms ...Transform) (*Schema, error) {
	return BuildFromSources([]*language.Source{{Name: "schema.graphql", Input: sdl}}, transforms...)
}

// BuildFromSources is BuildFromSDL for several named SDL documents.
func BuildFromSources(sources []*language.Source, transforms ...Transform) (*Schema, error) {
	declaresAsync := false
	for _, src := range sources {
		if strings.Contains(src.Input, "directive @async") {
			declaresAsync = true
		}
	}
	if !declaresAsync {
		sources = append([]*language.Source{{Name: "async.graphql", Input: asyncDirectiveSDL, BuiltIn: true}}, sources...)
	}
	doc, err := language.LoadSchema(sources...)
	if err != nil {
		return nil, err
	}
	return BuildFromAST(doc, transforms...)
}

// BuildFromAST converts a validated gqlparser schema into an executable
// Schema and applies transforms.
func BuildFromAST(doc *language.Schema, transforms ...Transform) (*Schema, error) {
	s := NewSchema(doc.Description)
	if doc.Query != nil {
		s.SetQueryType(doc.Query.Name)
	}
	if doc.Mutation != nil {
		s.SetMutationType(doc.Mutation.Name)
	}
	if doc.Subscription != nil {
		s.SetSubscriptionType(doc.Subscription.Name)
	}

	names := make([]string, 0, len(doc.Types))
	for name, def := range doc.Types {
		if def.BuiltIn {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		def := doc.Types[name]
		switch def.Kind {
		case language.Object:
			s.AddType(buildObject(def, TypeKindObject))
		case language.Interface:
			t := buildObject(def, TypeKindInterface)
			for _, impl := range doc.PossibleTypes[def.Name] {
				t.AddPossibleType(impl.Name)
			}
			s.AddType(t)
		case language.Union:
			t := NewType(def.Name, TypeKindUnion, def.Description)
			for _, member := range def.Types {
				t.AddPossibleType(member)
			}
			s.AddType(t)
		case language.Enum:
			s.AddType(buildEnum(def))
		case language.InputObject:
			s.AddType(buildInput(def))
		case language.Scalar:
			s.AddType(buildScalar(def))
		default:
			return nil, fmt.Errorf("unsupported definition kind %s for %s", def.Kind, def.Name)
		}
	}

	dirNames := make([]string, 0, len(doc.Directives))
	for name, dir := range doc.Directives {
		if isBuiltinPosition(dir.Position) {
			continue
		}
		dirNames = append(dirNames, name)
	}
	sort.Strings(dirNames)
	for _, name := range dirNames {
		s.AddDirective(buildDirective(doc.Directives[name]))
	}

	for _, tr := range transforms {
		if err := tr.TransformSchema(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func isBuiltinPosition(pos *language.Position) bool {
	return pos != nil && pos.Src != nil && pos.Src.BuiltIn
}

func buildObject(def *language.Definition, kind TypeKind) *Type {
	t := NewType(def.Name, kind, def.Description)
	for _, name := range def.Interfaces {
		t.AddInterface(name)
	}
	for _, fd := range def.Fields {
		if strings.HasPrefix(fd.Name, "__") {
			continue
		}
		t.AddField(buildField(fd))
	}
	return t
}

func buildField(def *language.FieldDefinition) *Field {
	f := NewField(def.Name, def.Description, buildTypeRef(def.Type)).
		SetAsync(def.Directives.ForName("async") != nil)
	if reason, ok := deprecation(def.Directives); ok {
		f.Deprecate(reason)
	}
	for _, arg := range def.Arguments {
		in := NewInputValue(arg.Name, arg.Description, buildTypeRef(arg.Type))
		if arg.DefaultValue != nil {
			in.SetDefault(language.ValueToGo(arg.DefaultValue, nil))
		}
		if reason, ok := deprecation(arg.Directives); ok {
			in.Deprecate(reason)
		}
		in.Directives = buildDirectiveUses(arg.Directives)
		f.AddArgument(in)
	}
	return f
}

func buildEnum(def *language.Definition) *Type {
	t := NewType(def.Name, TypeKindEnum, def.Description)
	for _, v := range def.EnumValues {
		e := NewEnumValue(v.Name, v.Description)
		if reason, ok := deprecation(v.Directives); ok {
			e.Deprecate(reason)
		}
		t.AddEnumValue(e)
	}
	return t
}

func buildInput(def *language.Definition) *Type {
	t := NewType(def.Name, TypeKindInputObject, def.Description).
		SetOneOf(def.Directives.ForName("oneOf") != nil)
	for _, fd := range def.Fields {
		in := NewInputValue(fd.Name, fd.Description, buildTypeRef(fd.Type))
		if fd.DefaultValue != nil {
			in.SetDefault(language.ValueToGo(fd.DefaultValue, nil))
		}
		if reason, ok := deprecation(fd.Directives); ok {
			in.Deprecate(reason)
		}
		in.Directives = buildDirectiveUses(fd.Directives)
		t.AddInputField(in)
	}
	return t
}

func buildScalar(def *language.Definition) *Type {
	t := NewType(def.Name, TypeKindScalar, def.Description)
	if d := def.Directives.ForName("specifiedBy"); d != nil {
		if url := d.Arguments.ForName("url"); url != nil && url.Value != nil {
			t.SetSpecifiedByURL(url.Value.Raw)
		}
	}
	return t
}

func buildDirective(def *language.DirectiveDefinition) *Directive {
	d := NewDirective(def.Name, def.Description).SetRepeatable(def.IsRepeatable)
	for _, loc := range def.Locations {
		d.Locations = append(d.Locations, string(loc))
	}
	for _, arg := range def.Arguments {
		in := NewInputValue(arg.Name, arg.Description, buildTypeRef(arg.Type))
		if arg.DefaultValue != nil {
			in.SetDefault(language.ValueToGo(arg.DefaultValue, nil))
		}
		d.AddArgument(in)
	}
	return d
}

func buildDirectiveUses(list language.DirectiveList) []*DirectiveUse {
	var out []*DirectiveUse
	for _, d := range list {
		if d.Name == "deprecated" {
			continue
		}
		out = append(out, &DirectiveUse{Name: d.Name, Arguments: d.Arguments, Position: d.Position})
	}
	return out
}

func deprecation(list language.DirectiveList) (string, bool) {
	d := list.ForName("deprecated")
	if d == nil {
		return "", false
	}
	if reason := d.Arguments.ForName("reason"); reason != nil && reason.Value != nil {
		return reason.Value.Raw, true
	}
	return "No longer supported", true
}

func buildTypeRef(t *language.Type) *TypeRef {
	if t == nil {
		return nil
	}
	var ref *TypeRef
	if t.Elem != nil {
		ref = ListType(buildTypeRef(t.Elem))
	} else {
		ref = NamedType(t.NamedType)
	}
	if t.NonNull {
		return NonNullType(ref)
	}
	return ref
}
