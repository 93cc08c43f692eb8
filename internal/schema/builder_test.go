package schema

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const builderSDL = `
directive @tag(name: String!) on ARGUMENT_DEFINITION | INPUT_FIELD_DEFINITION

interface Node { id: ID! }

type User implements Node {
  id: ID!
  name(upper: Boolean = false @tag(name: "case")): String
  friends: [User!] @async
  nick: String @deprecated(reason: "use name")
}

type Query {
  node(id: ID!): Node
}

input Filter {
  ids: [ID!]! @tag(name: "ids")
  limit: Int = 10
}
`

func TestBuildFromSDL(t *testing.T) {
	s, err := BuildFromSDL(builderSDL)
	require.NoError(t, err)

	assert.Equal(t, "Query", s.QueryType)
	assert.Equal(t, []string{"User"}, s.Types["Node"].PossibleTypes)

	user := s.Types["User"]
	require.NotNil(t, user)
	assert.Equal(t, []string{"Node"}, user.Interfaces)
	assert.True(t, user.Field("friends").Async)
	assert.False(t, user.Field("name").Async)
	assert.Equal(t, "[User!]", user.Field("friends").Type.String())
	assert.True(t, user.Field("nick").IsDeprecated)
	assert.Equal(t, "use name", user.Field("nick").DeprecationReason)

	upper := user.Field("name").Argument("upper")
	assert.Equal(t, false, upper.DefaultValue)
	require.NotNil(t, upper.Directive("tag"))
	assert.Equal(t, "case", upper.Directive("tag").Arguments.ForName("name").Value.Raw)
	assert.Equal(t, "schema.graphql", upper.Directive("tag").Position.Src.Name)

	filter := s.Types["Filter"]
	assert.Equal(t, 10, filter.InputField("limit").DefaultValue)
	assert.NotNil(t, filter.InputField("ids").Directive("tag"))
	assert.Nil(t, filter.InputField("limit").Directive("tag"))

	assert.Contains(t, s.Directives, "tag")
	assert.NotContains(t, s.Directives, "async")
	assert.True(t, IsBuiltinScalar(s.Types["String"]))
}

func TestBuildFromSDL_Transforms(t *testing.T) {
	var order []string
	first := TransformFunc(func(s *Schema) error {
		order = append(order, "first")
		return nil
	})
	failing := TransformFunc(func(s *Schema) error {
		order = append(order, "failing")
		return errors.New("nope")
	})
	never := TransformFunc(func(s *Schema) error {
		order = append(order, "never")
		return nil
	})

	_, err := BuildFromSDL(builderSDL, first, failing, never)
	assert.EqualError(t, err, "nope")
	assert.Equal(t, []string{"first", "failing"}, order)
}

func TestBuildFromSDL_InvalidSDL(t *testing.T) {
	_, err := BuildFromSDL(`type Query { a: Missing }`)
	assert.Error(t, err)
}

func TestBuiltinScalarHooks(t *testing.T) {
	s := NewSchema("")

	v, err := s.Types["Int"].ParseValue(float64(3))
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	_, err = s.Types["Int"].ParseValue("3")
	assert.ErrorContains(t, err, `cannot coerce "3" to Int`)
	_, err = s.Types["Float"].ParseValue("1.5")
	assert.ErrorContains(t, err, "to Float")
	_, err = s.Types["String"].ParseValue(5)
	assert.ErrorContains(t, err, "to String")
}
