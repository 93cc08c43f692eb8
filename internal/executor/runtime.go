package executor

import (
	"context"
)

// Runtime resolves field values for the Executor.
//
// Sync fields go to ResolveSync as they are reached. Async fields of one
// depth are collected and sent to BatchResolveAsync in a single call, and
// the next depth starts only after that call returns. Tasks below a path
// that was already nulled are not sent.
//
// Arguments arrive coerced and validated: a field whose arguments or
// middleware failed is never resolved. Implementations must not modify
// source or args and may be called for several operations at once.
type Runtime interface {
	// ResolveSync returns the raw value of a sync field. (nil, nil) is null.
	ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error)

	// BatchResolveAsync returns one result per task, in task order. An
	// error in one result does not affect the others.
	BatchResolveAsync(ctx context.Context, tasks []AsyncResolveTask) []AsyncResolveResult

	// ResolveType names the object type of a value of an interface or union.
	ResolveType(ctx context.Context, abstractType string, value any) (string, error)

	// SerializeLeafValue serializes enums and scalars whose schema type has
	// no Serialize hook.
	SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error)
}

type AsyncResolveTask struct {
	ObjectType string
	Field      string
	// Source is the parent value, or the initial value for root fields.
	Source any
	Args   map[string]any
}

type AsyncResolveResult struct {
	Value any
	Error error
}
