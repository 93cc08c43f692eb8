// Package fixture provides an executor.Runtime that answers fields from a
// static JSON document, so constraint schemas can be served without
// writing resolvers.
//
// The document is an object keyed by "Type.field". A value is returned as
// the field's result, except the string "$args", which returns the field's
// coerced arguments. Fields without an entry read the property of the same
// name from their parent value when the parent is an object.
//
//	{
//	  "Query.me": {"name": "ann", "tags": ["a"]},
//	  "Mutation.createUser": "$args"
//	}
package fixture

import (
	"context"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	executor "github.com/hanpama/constraintgraph/internal/executor"
)

// ArgsMarker makes a field return its own arguments.
const ArgsMarker = "$args"

// TypenameKey names the property used to resolve abstract types.
const TypenameKey = "__typename"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Runtime resolves fields from fixture entries. It never mutates its
// entries and is safe for concurrent use.
type Runtime struct {
	entries map[string]any
}

var _ executor.Runtime = (*Runtime)(nil)

// New returns a Runtime over entries.
func New(entries map[string]any) *Runtime {
	if entries == nil {
		entries = map[string]any{}
	}
	return &Runtime{entries: entries}
}

// Parse decodes a fixture document.
func Parse(data []byte) (*Runtime, error) {
	var entries map[string]any
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrap(err, "decode fixtures")
	}
	return New(entries), nil
}

// Load reads and decodes the fixture file at path.
func Load(path string) (*Runtime, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read fixtures %s", path)
	}
	rt, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return rt, nil
}

func (r *Runtime) resolve(objectType, field string, source any, args map[string]any) any {
	if v, ok := r.entries[objectType+"."+field]; ok {
		if s, ok := v.(string); ok && s == ArgsMarker {
			return args
		}
		return v
	}
	if m, ok := source.(map[string]any); ok {
		return m[field]
	}
	return nil
}

func (r *Runtime) ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.resolve(objectType, field, source, args), nil
}

func (r *Runtime) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	results := make([]executor.AsyncResolveResult, len(tasks))
	for i, t := range tasks {
		if err := ctx.Err(); err != nil {
			results[i].Error = err
			continue
		}
		results[i].Value = r.resolve(t.ObjectType, t.Field, t.Source, t.Args)
	}
	return results
}

// ResolveType reads the __typename property of value.
func (r *Runtime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	if m, ok := value.(map[string]any); ok {
		if name, ok := m[TypenameKey].(string); ok && name != "" {
			return name, nil
		}
	}
	return "", errors.Errorf("fixture value for %s has no %s", abstractType, TypenameKey)
}

// SerializeLeafValue returns enum names and custom scalar values unchanged.
func (r *Runtime) SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error) {
	return value, nil
}
