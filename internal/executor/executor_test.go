package executor

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/constraintgraph/internal/directive"
	schema "github.com/hanpama/constraintgraph/internal/schema"
)

// compileSchema builds sdl with the constraint directives applied.
func compileSchema(t *testing.T, sdl string) *schema.Schema {
	t.Helper()
	ds := directive.Defaults()
	s, err := schema.BuildFromSDL(directive.TypeDefs(ds...)+sdl, directive.NewCompiler(ds))
	require.NoError(t, err)
	return s
}

// prop resolves a key of a map source.
func prop(key string) MockResolver {
	return func(_ context.Context, source any, _ map[string]any) (any, error) {
		return source.(map[string]any)[key], nil
	}
}

func arg(name string) MockResolver {
	return func(_ context.Context, _ any, args map[string]any) (any, error) {
		return args[name], nil
	}
}

// trace renders calls as "kind Type.field batch".
func trace(calls []Call) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = fmt.Sprintf("%s %s.%s %d", c.Kind, c.ObjectType, c.Field, c.BatchID)
	}
	return out
}

func badInput(message string, path ...PathElement) GraphQLError {
	return GraphQLError{Message: message, Path: path, Extensions: map[string]any{"code": CodeBadUserInput}}
}

func TestExecuteRequest_Operations(t *testing.T) {
	s := compileSchema(t, `
type Query { hello: String }
type Mutation { rename(name: String! @str(min: 2)): String }
`)
	const multi = `
query A { hello }
query B { hello }
mutation M { rename(name: "bo") }
`
	tests := []struct {
		name      string
		query     string
		operation string
		want      *ExecutionResult
	}{
		{
			name:  "only operation",
			query: `{ hello }`,
			want:  &ExecutionResult{Data: map[string]any{"hello": "world"}, Errors: []GraphQLError{}},
		},
		{
			name:      "named query",
			query:     multi,
			operation: "B",
			want:      &ExecutionResult{Data: map[string]any{"hello": "world"}, Errors: []GraphQLError{}},
		},
		{
			name:      "named mutation",
			query:     multi,
			operation: "M",
			want:      &ExecutionResult{Data: map[string]any{"rename": "bo"}, Errors: []GraphQLError{}},
		},
		{
			name:  "ambiguous",
			query: multi,
			want:  &ExecutionResult{Errors: []GraphQLError{{Message: "operation not found"}}},
		},
		{
			name:      "unknown name",
			query:     multi,
			operation: "C",
			want:      &ExecutionResult{Errors: []GraphQLError{{Message: "operation not found"}}},
		},
		{
			name:  "no subscription root",
			query: `subscription { hello }`,
			want:  &ExecutionResult{Errors: []GraphQLError{{Message: "root type not found for subscription operation"}}},
		},
		{
			name:  "unknown field",
			query: `{ hello nope }`,
			want: &ExecutionResult{
				Data:   map[string]any{"hello": "world"},
				Errors: []GraphQLError{{Message: "Cannot query field 'nope' on type 'Query'", Path: Path{"nope"}}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := NewMockRuntime(map[string]MockResolver{
				"Query.hello":     NewMockValueResolver("world"),
				"Mutation.rename": arg("name"),
			})
			got := NewExecutor(rt, s).ExecuteRequest(context.Background(), mustParseQuery(t, tt.query), tt.operation, nil, nil)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExecuteRequest_Variables(t *testing.T) {
	s := compileSchema(t, `type Query { page(limit: Int @int(min: 1)): Int }`)

	tests := []struct {
		name  string
		query string
		vars  map[string]any
		want  *ExecutionResult
	}{
		{
			name:  "default",
			query: `query($l: Int = 5) { page(limit: $l) }`,
			want:  &ExecutionResult{Data: map[string]any{"page": 5}, Errors: []GraphQLError{}},
		},
		{
			name:  "default checked at the argument",
			query: `query($l: Int = 0) { page(limit: $l) }`,
			want: &ExecutionResult{
				Data:   map[string]any{"page": nil},
				Errors: []GraphQLError{badInput(`"limit" must be greater than or equal to 1`, "page")},
			},
		},
		{
			name:  "provided value checked at the argument",
			query: `query($l: Int) { page(limit: $l) }`,
			vars:  map[string]any{"l": 0},
			want: &ExecutionResult{
				Data:   map[string]any{"page": nil},
				Errors: []GraphQLError{badInput(`"limit" must be greater than or equal to 1`, "page")},
			},
		},
		{
			name:  "unset nullable variable leaves the argument out",
			query: `query($l: Int) { page(limit: $l) }`,
			want:  &ExecutionResult{Data: map[string]any{"page": nil}, Errors: []GraphQLError{}},
		},
		{
			name:  "missing required",
			query: `query($l: Int!) { page(limit: $l) }`,
			want:  &ExecutionResult{Errors: []GraphQLError{badInput("variable $l of required type Int! was not provided")}},
		},
		{
			name:  "null for non-null",
			query: `query($l: Int!) { page(limit: $l) }`,
			vars:  map[string]any{"l": nil},
			want:  &ExecutionResult{Errors: []GraphQLError{badInput("variable $l of type Int! cannot be null")}},
		},
		{
			name:  "string for Int",
			query: `query($l: Int) { page(limit: $l) }`,
			vars:  map[string]any{"l": "3"},
			want:  &ExecutionResult{Errors: []GraphQLError{badInput(`variable $l of type Int cannot be coerced: cannot coerce "3" to Int`)}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := NewMockRuntime(map[string]MockResolver{"Query.page": arg("limit")})
			got := NewExecutor(rt, s).ExecuteRequest(context.Background(), mustParseQuery(t, tt.query), "", tt.vars, nil)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

const graphSDL = `
type Query {
  users(limit: Int @int(min: 1, max: 10)): [User!]! @async
  user: User
}
type User {
  id: Int!
  friends: [User]
  posts(first: Int @int(max: 2), tags: [String] @list(max: 1)): [Post!]! @async
}
type Post { title: String }
`

func graphRuntime(users ...any) *MockRuntime {
	return NewMockRuntime(map[string]MockResolver{
		"Query.users":  NewMockValueResolver(users),
		"User.id":      prop("id"),
		"User.friends": prop("friends"),
		"User.posts":   NewMockValueResolver([]any{map[string]any{"title": "hello"}}),
		"Post.title":   prop("title"),
	})
}

func TestExecuteRequest_BatchesPerDepth(t *testing.T) {
	s := compileSchema(t, graphSDL)
	rt := graphRuntime(map[string]any{"id": 1}, map[string]any{"id": 2})

	got := NewExecutor(rt, s).ExecuteRequest(context.Background(),
		mustParseQuery(t, `{ users(limit: 2) { id posts(first: 1) { title } } }`), "", nil, nil)

	posts := []any{map[string]any{"title": "hello"}}
	want := &ExecutionResult{
		Data: map[string]any{"users": []any{
			map[string]any{"id": 1, "posts": posts},
			map[string]any{"id": 2, "posts": posts},
		}},
		Errors: []GraphQLError{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}

	calls := rt.GetCalls()
	assert.Equal(t, []string{
		"async Query.users 1",
		"sync User.id 0",
		"sync User.id 0",
		"async User.posts 2",
		"async User.posts 2",
		"sync Post.title 0",
		"sync Post.title 0",
	}, trace(calls))
	assert.Equal(t, map[string]any{"limit": 2}, calls[0].Args)
	assert.Equal(t, map[string]any{"first": 1}, calls[3].Args)
	assert.Equal(t, map[string]any{"id": 1}, calls[3].Source)
}

func TestExecuteRequest_RejectsArgumentsPerItem(t *testing.T) {
	s := compileSchema(t, graphSDL)
	tests := []struct {
		name    string
		args    string
		message string
	}{
		{"scalar", `first: 3`, `"first" must be less than or equal to 2`},
		{"list", `tags: ["a", "b"]`, `"tags" must contain at most 1 items`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := graphRuntime(map[string]any{"id": 1}, map[string]any{"id": 2})
			query := fmt.Sprintf(`{ users(limit: 2) { id posts(%s) { title } } }`, tt.args)
			got := NewExecutor(rt, s).ExecuteRequest(context.Background(), mustParseQuery(t, query), "", nil, nil)

			// posts is non-null: the first failure nulls users and the second
			// item is never completed.
			want := &ExecutionResult{
				Data: map[string]any{"users": nil},
				Errors: []GraphQLError{
					badInput(tt.message, "users", 0, "posts"),
				},
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, []string{"async Query.users 1", "sync User.id 0"}, trace(rt.GetCalls()))
		})
	}
}

func TestExecuteRequest_NullPropagation(t *testing.T) {
	s := compileSchema(t, graphSDL)

	tests := []struct {
		name      string
		query     string
		runtime   *MockRuntime
		want      *ExecutionResult
		wantCalls []string
	}{
		{
			name:    "root argument failure",
			query:   `{ users(limit: 0) { id } }`,
			runtime: graphRuntime(),
			want: &ExecutionResult{
				Data:   map[string]any{"users": nil},
				Errors: []GraphQLError{badInput(`"limit" must be greater than or equal to 1`, "users")},
			},
			wantCalls: []string{},
		},
		{
			name:    "non-null item drops queued tasks",
			query:   `{ users(limit: 2) { id posts { title } } }`,
			runtime: graphRuntime(map[string]any{"id": 1}, map[string]any{"id": nil}),
			want: &ExecutionResult{
				Data: map[string]any{"users": nil},
				Errors: []GraphQLError{{
					Message: "Cannot return null for non-nullable field users.[1].id",
					Path:    Path{"users", 1, "id"},
				}},
			},
			wantCalls: []string{"async Query.users 1", "sync User.id 0", "sync User.id 0"},
		},
		{
			name:  "nullable item absorbs",
			query: `{ user { id friends { id } } }`,
			runtime: func() *MockRuntime {
				rt := graphRuntime()
				rt.SetResolver("Query", "user", NewMockValueResolver(map[string]any{
					"id":      1,
					"friends": []any{map[string]any{"id": 2}, map[string]any{"id": nil}},
				}))
				return rt
			}(),
			want: &ExecutionResult{
				Data: map[string]any{"user": map[string]any{
					"id":      1,
					"friends": []any{map[string]any{"id": 2}, nil},
				}},
				Errors: []GraphQLError{{
					Message: "Cannot return null for non-nullable field user.friends.[1].id",
					Path:    Path{"user", "friends", 1, "id"},
				}},
			},
			wantCalls: []string{"sync Query.user 0", "sync User.id 0", "sync User.friends 0", "sync User.id 0", "sync User.id 0"},
		},
		{
			name:  "async error on non-null field",
			query: `{ users(limit: 1) { id posts { title } } }`,
			runtime: func() *MockRuntime {
				rt := graphRuntime(map[string]any{"id": 1})
				rt.SetResolver("User", "posts", NewMockErrorResolver(errors.New("backend down")))
				return rt
			}(),
			want: &ExecutionResult{
				Data:   map[string]any{"users": nil},
				Errors: []GraphQLError{{Message: "backend down", Path: Path{"users", 0, "posts"}}},
			},
			wantCalls: []string{"async Query.users 1", "sync User.id 0", "async User.posts 2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewExecutor(tt.runtime, s).ExecuteRequest(context.Background(), mustParseQuery(t, tt.query), "", nil, nil)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.wantCalls, trace(tt.runtime.GetCalls()))
		})
	}
}

func TestExecuteRequest_Fragments(t *testing.T) {
	s := compileSchema(t, `
interface Node { id: ID! }
type User implements Node { id: ID! name: String }
type Post implements Node { id: ID! title: String }
union Result = User | Post
type Query {
  node: Node
  search(q: String! @str(min: 2)): [Result]
}
`)
	const query = `
query($full: Boolean!) {
  node { ... on Node { id } ...userFields }
  search(q: "an") {
    ... on Result { __typename }
    ... on Node { id }
    ... on User @include(if: $full) { name }
    ... on Post { title }
  }
}
fragment userFields on User { name @skip(if: $full) }
`
	ann := map[string]any{"__typename": "User", "id": "u1", "name": "ann"}
	post := map[string]any{"__typename": "Post", "id": "p1", "title": "hi"}

	tests := []struct {
		full bool
		want map[string]any
	}{
		{
			full: false,
			want: map[string]any{
				"node": map[string]any{"id": "u1", "name": "ann"},
				"search": []any{
					map[string]any{"__typename": "User", "id": "u1"},
					map[string]any{"__typename": "Post", "id": "p1", "title": "hi"},
				},
			},
		},
		{
			full: true,
			want: map[string]any{
				"node": map[string]any{"id": "u1"},
				"search": []any{
					map[string]any{"__typename": "User", "id": "u1", "name": "ann"},
					map[string]any{"__typename": "Post", "id": "p1", "title": "hi"},
				},
			},
		},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("full=%v", tt.full), func(t *testing.T) {
			rt := NewMockRuntime(map[string]MockResolver{
				"Query.node":   NewMockValueResolver(ann),
				"Query.search": NewMockValueResolver([]any{ann, post}),
				"User.id":      prop("id"),
				"User.name":    prop("name"),
				"Post.id":      prop("id"),
				"Post.title":   prop("title"),
			})
			got := NewExecutor(rt, s).ExecuteRequest(context.Background(), mustParseQuery(t, query), "", map[string]any{"full": tt.full}, nil)
			want := &ExecutionResult{Data: tt.want, Errors: []GraphQLError{}}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExecuteRequest_AbstractTypeMustBePossible(t *testing.T) {
	s := compileSchema(t, `
union Result = User
type User { id: ID }
type Post { id: ID }
type Query { search: [Result] }
`)
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.search": NewMockValueResolver([]any{map[string]any{"__typename": "Post"}}),
	})
	got := NewExecutor(rt, s).ExecuteRequest(context.Background(), mustParseQuery(t, `{ search { __typename } }`), "", nil, nil)
	want := &ExecutionResult{
		Data: map[string]any{"search": []any{nil}},
		Errors: []GraphQLError{{
			Message: "Runtime Object type Post is not a possible type for Result",
			Path:    Path{"search", 0},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}
