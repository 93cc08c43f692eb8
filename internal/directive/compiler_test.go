package directive

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/constraintgraph/internal/executor"
	language "github.com/hanpama/constraintgraph/internal/language"
	"github.com/hanpama/constraintgraph/internal/schema"
)

const testSDL = `
type Query {
  greet(name: String! @str(min: 2, trim: true)): String
  scores(values: [Int] @int(min: 0, max: 100)): Int
  price(amount: Float @float(precision: 2, minExclusive: 0)): Float
  search(tags: [String!] @list(max: 2)): [String]
  create(input: CreateInput!): String @async
}

input CreateInput {
  title: String! @str(max: 5, case: UPPER)
  tags: [String] @list(min: 1, max: 2)
  meta: MetaInput
}

input MetaInput {
  labels: [String!] @list(max: 1)
}
`

func build(t *testing.T, sdl string, opts ...Option) (*schema.Schema, *Compiler) {
	t.Helper()
	ds := Defaults()
	c := NewCompiler(ds, opts...)
	s, err := schema.BuildFromSDL(TypeDefs(ds...)+sdl, c)
	require.NoError(t, err)
	return s, c
}

func buildErr(t *testing.T, sdl string) ValidationError {
	t.Helper()
	ds := Defaults()
	_, err := schema.BuildFromSDL(TypeDefs(ds...)+sdl, NewCompiler(ds))
	require.Error(t, err)
	var verr ValidationError
	require.ErrorAs(t, err, &verr)
	return verr
}

func execute(t *testing.T, s *schema.Schema, rt *executor.MockRuntime, query string, vars map[string]any) *executor.ExecutionResult {
	t.Helper()
	doc, err := language.ParseQuery(query)
	require.NoError(t, err)
	return executor.NewExecutor(rt, s).ExecuteRequest(context.Background(), doc, "", vars, nil)
}

func echoArgs(ctx context.Context, src any, args map[string]any) (any, error) { return "ok", nil }

func TestCompiler_SubstitutesScalarTypes(t *testing.T) {
	s, _ := build(t, testSDL)
	query := s.Types["Query"]

	assert.Equal(t, "ConstrainedString__min_2__trim!", query.Field("greet").Argument("name").Type.String())
	assert.Equal(t, "[ConstrainedInt__max_100__min_0]", query.Field("scores").Argument("values").Type.String())
	assert.Equal(t, "ConstrainedFloat__minExclusive_0__precision_2", query.Field("price").Argument("amount").Type.String())
	assert.Equal(t, "ConstrainedString__case_UPPER__max_5!", s.Types["CreateInput"].InputField("title").Type.String())

	assert.Equal(t, "[String!]", query.Field("search").Argument("tags").Type.String())
	assert.Equal(t, "String", s.Types["ConstrainedString__min_2__trim"].BaseType)
}

func TestCompiler_InstallsListMiddleware(t *testing.T) {
	s, _ := build(t, testSDL)
	query := s.Types["Query"]

	assert.Len(t, query.Field("search").Middleware, 1)
	assert.Len(t, query.Field("create").Middleware, 1)
	assert.Empty(t, query.Field("greet").Middleware)
}

func TestCompiler_ReapplyChangesNothing(t *testing.T) {
	s, c := build(t, testSDL)
	typeCount := len(s.Types)
	query := s.Types["Query"]
	before := query.Field("greet").Argument("name").Type.String()

	require.NoError(t, c.TransformSchema(s))
	require.NoError(t, c.TransformSchema(s))

	assert.Len(t, s.Types, typeCount)
	assert.Equal(t, before, query.Field("greet").Argument("name").Type.String())
	assert.Len(t, query.Field("search").Middleware, 1)
	assert.Len(t, query.Field("create").Middleware, 1)
}

func TestCompiler_SharedScalarName(t *testing.T) {
	s, _ := build(t, `
type Query {
  a(x: String @str(min: 3)): String
  b(y: String @str(min: 3)): String
}
`)
	query := s.Types["Query"]
	assert.Equal(t, "ConstrainedString__min_3", query.Field("a").Argument("x").Type.String())
	assert.Equal(t, "ConstrainedString__min_3", query.Field("b").Argument("y").Type.String())
}

func TestCompiler_DebugLogging(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	build(t, testSDL, WithLogger(logger))

	var messages []string
	for _, e := range hook.AllEntries() {
		messages = append(messages, e.Message)
	}
	assert.Contains(t, messages, "synthesized constrained scalar")
	assert.Contains(t, messages, "installed list constraint middleware")
}

func TestCompiler_Violations(t *testing.T) {
	tests := []struct {
		name string
		sdl  string
		want string
	}{
		{
			"str on Int",
			`type Query { f(n: Int @str(min: 1)): String }`,
			"@str can only be used on type String",
		},
		{
			"int on list of String",
			`type Query { f(n: [String] @int(min: 1)): String }`,
			"@int can only be used on type Int",
		},
		{
			"list on scalar",
			`type Query { f(n: String @list(max: 1)): String }`,
			"@list can only be used on type List. It was used on String",
		},
		{
			"list on non-null scalar",
			`input In { v: Int! @list(max: 1) } type Query { f(in: In): String }`,
			"@list can only be used on type List. It was used on Int!",
		},
		{
			"bad pattern",
			`type Query { f(s: String @str(pattern: "abc")): String }`,
			"Invalid @str directive: Invalid RegExp syntax, matcher should be surrounded with slashes",
		},
		{
			"negative length",
			`type Query { f(s: String @str(min: -1)): String }`,
			"Invalid @str directive: argument min must not be negative, got -1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := buildErr(t, tt.sdl)
			require.Len(t, verr, 1)
			assert.Equal(t, tt.want, verr[0].Message)
			assert.Equal(t, "schema.graphql", verr[0].File)
			assert.NotZero(t, verr[0].Line)
		})
	}
}

func TestCompiler_ReportsAllViolations(t *testing.T) {
	verr := buildErr(t, `
type Query {
  a(n: Int @str(min: 1)): String
  b(s: String @int(min: 1)): String
}
`)
	require.Len(t, verr, 2)
	assert.Contains(t, verr.Error(), "violations found:\n- @str can only be used on type String schema.graphql:")
}

func handBuiltSchema(use *schema.DirectiveUse) *schema.Schema {
	s := schema.NewSchema("")
	s.SetQueryType("Query")
	arg := schema.NewInputValue("n", "", schema.NamedType("Int"))
	arg.Directives = []*schema.DirectiveUse{use}
	q := schema.NewType("Query", schema.TypeKindObject, "")
	q.AddField(schema.NewField("f", "", schema.NamedType("String")).AddArgument(arg))
	s.AddType(q)
	return s
}

func TestCompiler_UnknownAndVariableArguments(t *testing.T) {
	c := NewCompiler(Defaults())

	err := c.TransformSchema(handBuiltSchema(&schema.DirectiveUse{
		Name: "int",
		Arguments: language.ArgumentList{
			{Name: "foo", Value: &language.Value{Kind: language.IntValue, Raw: "1"}},
		},
	}))
	var verr ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Unknown argument 'foo' in @int directive", verr[0].Message)

	err = c.TransformSchema(handBuiltSchema(&schema.DirectiveUse{
		Name: "int",
		Arguments: language.ArgumentList{
			{Name: "min", Value: &language.Value{Kind: language.Variable, Raw: "lo"}},
		},
	}))
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Directive @int does not accept Variable arguments", verr[0].Message)
}

func TestExecution_ScalarArguments(t *testing.T) {
	s, _ := build(t, testSDL)
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.greet":  echoArgs,
		"Query.scores": echoArgs,
		"Query.price":  echoArgs,
	})

	res := execute(t, s, rt, `{ greet(name: " a ") }`, nil)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, `"name" length must be at least 2 characters long`, res.Errors[0].Message)
	assert.Equal(t, map[string]any{"code": executor.CodeBadUserInput}, res.Errors[0].Extensions)

	res = execute(t, s, rt, `{ scores(values: [5, 101]) }`, nil)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, `"values" must be less than or equal to 100`, res.Errors[0].Message)

	res = execute(t, s, rt, `query($a: Float) { price(amount: $a) }`, map[string]any{"a": 0.001})
	require.Len(t, res.Errors, 1)
	assert.Equal(t, `"amount" must be greater than 0`, res.Errors[0].Message)

	assert.Empty(t, rt.GetCalls())

	res = execute(t, s, rt, `query($a: Float) { greet(name: "  bob ") price(amount: $a) }`, map[string]any{"a": 1.005})
	assert.Empty(t, res.Errors)
	calls := rt.GetCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, map[string]any{"name": "bob"}, calls[0].Args)
	assert.Equal(t, map[string]any{"amount": 1.0}, calls[1].Args)
}

func TestExecution_ListConstraints(t *testing.T) {
	s, _ := build(t, testSDL)
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.search": func(ctx context.Context, src any, args map[string]any) (any, error) { return []any{}, nil },
		"Query.create": echoArgs,
	})

	res := execute(t, s, rt, `{ search(tags: ["a", "b", "c"]) }`, nil)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, `"tags" must contain at most 2 items`, res.Errors[0].Message)

	res = execute(t, s, rt, `{ create(input: {title: "hi", tags: []}) }`, nil)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, `"input.tags" must contain at least 1 items`, res.Errors[0].Message)
	assert.Equal(t, executor.Path{"create"}, res.Errors[0].Path)

	res = execute(t, s, rt, `query($in: CreateInput!) { create(input: $in) }`, map[string]any{
		"in": map[string]any{"title": "hi", "meta": map[string]any{"labels": []any{"x", "y"}}},
	})
	require.Len(t, res.Errors, 1)
	assert.Equal(t, `"input.meta.labels" must contain at most 1 items`, res.Errors[0].Message)

	assert.Empty(t, rt.GetCalls(), "async field must be rejected before batching")

	res = execute(t, s, rt, `{ search create(input: {title: "hi", tags: null}) }`, nil)
	assert.Empty(t, res.Errors)
	calls := rt.GetCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "async", calls[1].Kind)
	assert.Equal(t, map[string]any{"input": map[string]any{"title": "HI", "tags": nil}}, calls[1].Args)
}

func TestExecution_ScalarInputField(t *testing.T) {
	s, _ := build(t, testSDL)
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{"Query.create": echoArgs})

	res := execute(t, s, rt, `{ create(input: {title: "toolong"}) }`, nil)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, `"title" length must be less than or equal to 5 characters long`, res.Errors[0].Message)
	assert.Empty(t, rt.GetCalls())
}

func TestExecution_SharedScalarReportsEachSite(t *testing.T) {
	s, _ := build(t, `
type Query {
  a(first: Int @int(min: 1)): String
  b(second: Int @int(min: 1)): String
}
`)
	query := s.Types["Query"]
	require.Equal(t, "ConstrainedInt__min_1", query.Field("a").Argument("first").Type.String())
	require.Equal(t, "ConstrainedInt__min_1", query.Field("b").Argument("second").Type.String())

	rt := executor.NewMockRuntime(map[string]executor.MockResolver{"Query.a": echoArgs, "Query.b": echoArgs})
	for _, vars := range []map[string]any{nil, {"v": 0}} {
		q := `{ b(second: 0) }`
		if vars != nil {
			q = `query($v: Int) { b(second: $v) }`
		}
		res := execute(t, s, rt, q, vars)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, `"second" must be greater than or equal to 1`, res.Errors[0].Message)
	}

	res := execute(t, s, rt, `{ a(first: 0) }`, nil)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, `"first" must be greater than or equal to 1`, res.Errors[0].Message)
}

func TestExecution_NullsAndEmptyValues(t *testing.T) {
	s, _ := build(t, `
type Query {
  users(limit: Int @int(min: 1, max: 10)): [Users!]!
  users2(input: Users2Input): [Users!]!
  users3(input: OuterInput): [Users!]!
  ratios(ratio: Float @float(minExclusive: 1, maxExclusive: 10)): [Users!]!
  named(name: String @str): [Users!]!
  required(name: String @str(min: 1)): [Users!]!
  tagged(items: [String] @list(min: 1, max: 2)): [Users!]!
}
input Users2Input { limit: Int @int(min: 1, max: 10) }
input OuterInput { mid: Users2Input }
type Users { id: Int! }
`)
	empty := func(ctx context.Context, src any, args map[string]any) (any, error) { return []any{}, nil }

	tests := []struct {
		name  string
		query string
		field string
		want  string
	}{
		{"int below min", `{ users(limit: 0) { id } }`, "users", `"limit" must be greater than or equal to 1`},
		{"int above max", `{ users(limit: 11) { id } }`, "users", `"limit" must be less than or equal to 10`},
		{"int null", `{ users(limit: null) { id } }`, "users", ""},
		{"null root input", `{ users2(input: null) { id } }`, "users2", ""},
		{"input field below min", `{ users2(input: {limit: 0}) { id } }`, "users2", `"limit" must be greater than or equal to 1`},
		{"null intermediate input", `{ users3(input: {mid: null}) { id } }`, "users3", ""},
		{"nested input field above max", `{ users3(input: {mid: {limit: 11}}) { id } }`, "users3", `"limit" must be less than or equal to 10`},
		{"float at exclusive min", `{ ratios(ratio: 1) { id } }`, "ratios", `"ratio" must be greater than 1`},
		{"float at exclusive max", `{ ratios(ratio: 10) { id } }`, "ratios", `"ratio" must be less than 10`},
		{"float inside bounds", `{ ratios(ratio: 1.5) { id } }`, "ratios", ""},
		{"float null", `{ ratios(ratio: null) { id } }`, "ratios", ""},
		{"bare str on empty string", `{ named(name: "") { id } }`, "named", ""},
		{"str min on empty string", `{ required(name: "") { id } }`, "required", `"name" is not allowed to be empty`},
		{"list empty", `{ tagged(items: []) { id } }`, "tagged", `"items" must contain at least 1 items`},
		{"list too long", `{ tagged(items: ["1", "2", "3"]) { id } }`, "tagged", `"items" must contain at most 2 items`},
		{"list null", `{ tagged(items: null) { id } }`, "tagged", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := executor.NewMockRuntime(map[string]executor.MockResolver{
				"Query." + tt.field: empty,
			})
			res := execute(t, s, rt, tt.query, nil)
			data := res.Data.(map[string]any)
			if tt.want == "" {
				assert.Empty(t, res.Errors)
				assert.Equal(t, []any{}, data[tt.field])
				return
			}
			require.Len(t, res.Errors, 1)
			assert.Equal(t, tt.want, res.Errors[0].Message)
			assert.Equal(t, executor.Path{tt.field}, res.Errors[0].Path)
			assert.Nil(t, data[tt.field])
			assert.Empty(t, rt.GetCalls())
		})
	}
}

func TestCompiler_InterfaceArgumentsReachImplementations(t *testing.T) {
	s, _ := build(t, `
interface Node {
  items(ids: [ID] @list(max: 1), first: Int @int(min: 1)): [String]
}
type Thing implements Node {
  items(ids: [ID], first: Int): [String]
}
type Query { thing: Thing }
`)
	thing := s.Types["Thing"].Field("items")
	assert.Equal(t, "ConstrainedInt__min_1", thing.Argument("first").Type.String())
	assert.Len(t, thing.Middleware, 1)

	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.thing": executor.NewMockValueResolver(map[string]any{}),
		"Thing.items": func(ctx context.Context, src any, args map[string]any) (any, error) { return []any{"x"}, nil },
	})

	res := execute(t, s, rt, `{ thing { items(ids: ["1", "2"]) } }`, nil)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, `"ids" must contain at most 1 items`, res.Errors[0].Message)
	assert.Equal(t, executor.Path{"thing", "items"}, res.Errors[0].Path)

	res = execute(t, s, rt, `{ thing { items(first: 0) } }`, nil)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, `"first" must be greater than or equal to 1`, res.Errors[0].Message)

	res = execute(t, s, rt, `{ thing { items(ids: ["1"], first: 1) } }`, nil)
	assert.Empty(t, res.Errors)
	assert.Equal(t, map[string]any{"thing": map[string]any{"items": []any{"x"}}}, res.Data)
}
