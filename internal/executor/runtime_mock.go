package executor

import (
	"context"
	"fmt"
	"sync"
)

// MockResolver resolves one field value for MockRuntime.
type MockResolver func(ctx context.Context, source any, args map[string]any) (any, error)

const (
	CallKindSync  = "sync"
	CallKindAsync = "async"
)

func NewMockValueResolver(val any) MockResolver {
	return func(context.Context, any, map[string]any) (any, error) { return val, nil }
}

func NewMockErrorResolver(err error) MockResolver {
	return func(context.Context, any, map[string]any) (any, error) { return nil, err }
}

// Call records one resolver invocation. Async calls of one batch share a
// BatchID starting at 1; sync calls have 0.
type Call struct {
	Kind       string
	ObjectType string
	Field      string
	Source     any
	Args       map[string]any
	BatchID    int
}

// MockRuntime is a Runtime backed by resolvers keyed "ObjectType.field".
// It records every call so tests can assert that rejected fields never
// reached a resolver. Fields without a resolver resolve to null.
type MockRuntime struct {
	mu        sync.Mutex
	resolvers map[string]MockResolver
	calls     []Call
	batches   int
}

func NewMockRuntime(resolvers map[string]MockResolver) *MockRuntime {
	m := &MockRuntime{resolvers: make(map[string]MockResolver, len(resolvers))}
	for k, r := range resolvers {
		m.resolvers[k] = r
	}
	return m
}

func (m *MockRuntime) SetResolver(objectType, field string, resolver MockResolver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolvers[objectType+"."+field] = resolver
}

func (m *MockRuntime) ResolveSync(ctx context.Context, objectType, field string, source any, args map[string]any) (any, error) {
	return m.call(ctx, Call{Kind: CallKindSync, ObjectType: objectType, Field: field, Source: source, Args: args})
}

// BatchResolveAsync resolves the tasks in order.
func (m *MockRuntime) BatchResolveAsync(ctx context.Context, tasks []AsyncResolveTask) []AsyncResolveResult {
	m.mu.Lock()
	m.batches++
	id := m.batches
	m.mu.Unlock()

	results := make([]AsyncResolveResult, len(tasks))
	for i, t := range tasks {
		v, err := m.call(ctx, Call{Kind: CallKindAsync, ObjectType: t.ObjectType, Field: t.Field, Source: t.Source, Args: t.Args, BatchID: id})
		results[i] = AsyncResolveResult{Value: v, Error: err}
	}
	return results
}

func (m *MockRuntime) call(ctx context.Context, c Call) (any, error) {
	m.mu.Lock()
	m.calls = append(m.calls, c)
	r := m.resolvers[c.ObjectType+"."+c.Field]
	m.mu.Unlock()
	if r == nil {
		return nil, nil
	}
	return r(ctx, c.Source, c.Args)
}

// ResolveType reads the "__typename" key of a map value.
func (m *MockRuntime) ResolveType(_ context.Context, abstractType string, value any) (string, error) {
	if obj, ok := value.(map[string]any); ok {
		if name, ok := obj["__typename"].(string); ok {
			return name, nil
		}
	}
	return "", fmt.Errorf("cannot resolve type of %s value %v", abstractType, value)
}

func (m *MockRuntime) SerializeLeafValue(_ context.Context, _ string, value any) (any, error) {
	return value, nil
}

// GetCalls returns a copy of the recorded calls.
func (m *MockRuntime) GetCalls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// Reset forgets the recorded calls and batch count.
func (m *MockRuntime) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.batches = 0
}
