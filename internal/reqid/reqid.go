// Package reqid assigns request IDs and carries them through contexts.
package reqid

import (
	"context"
	"math"
	"math/rand/v2"
	"strconv"
)

// key is the context key for the request ID.
type key struct{}

// NewContext returns a copy of parent with a new random, positive request
// ID stored. It also returns the generated ID.
func NewContext(parent context.Context) (context.Context, int64) {
	return WithID(parent, rand.Int64N(math.MaxInt64)+1)
}

// WithID stores an existing request ID in a copy of parent.
func WithID(parent context.Context, id int64) (context.Context, int64) {
	return context.WithValue(parent, key{}, id), id
}

// FromHeader reuses a client-supplied ID when it is a positive decimal
// integer and generates a fresh one otherwise.
func FromHeader(parent context.Context, header string) (context.Context, int64) {
	if id, err := strconv.ParseInt(header, 10, 64); err == nil && id > 0 {
		return WithID(parent, id)
	}
	return NewContext(parent)
}

// FromContext extracts the request ID from ctx.
// It returns the ID and whether it was present.
func FromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(key{})
	id, ok := v.(int64)
	return id, ok
}
