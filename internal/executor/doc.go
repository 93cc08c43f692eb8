// Package executor runs GraphQL operations breadth-first against a Runtime,
// batching asynchronous fields once per depth and validating every input
// value through the schema before a resolver sees it.
//
// # Inputs
//
// Variables are coerced against their declared types when the operation
// starts. Field arguments are coerced again against the argument
// definitions when the field is reached:
//
//   - Scalars go through the schema type's ParseLiteral (for literals) or
//     ParseValue (for variables) hook. Derived constrained scalars install
//     hooks that convert to the base type and then run their constraint
//     schema, so a value that fails its constraint never reaches the runtime.
//   - A variable bound to an argument is coerced with the argument's type,
//     not only the variable's declared type. A `String!` variable passed to a
//     constrained argument is therefore still checked.
//   - Input objects are coerced field by field: defaults fill missing
//     fields, missing required fields and unknown fields are errors.
//   - Enums must name a declared value.
//
// After the arguments are coerced, the field's middleware runs in order with
// the coerced argument map. List constraints are enforced this way.
//
// The first coercion or middleware failure for a field becomes one located
// error with extensions {"code": "BAD_USER_INPUT"}; the field resolves to
// null and its resolver is not called. A failure while coercing variables
// aborts the whole operation with the same code. Constraint failures are also
// published on the event bus as events.ConstraintViolation.
//
// # Execution
//
// Each depth is processed in two phases. Synchronous fields
// (schema.Field.Async == false) are resolved immediately through
// Runtime.ResolveSync and expanded in place without adding depth.
// Asynchronous fields discovered along the way are queued and sent to
// Runtime.BatchResolveAsync in a single call for the depth; their object
// results feed the next depth. A graph with asynchronous depth d therefore
// produces exactly d batch calls.
//
// Value completion follows GraphQL rules. Lists complete element-wise with
// index paths. Leaf values use the schema type's Serialize hook when it has
// one and Runtime.SerializeLeafValue otherwise. Interfaces and unions are
// resolved through Runtime.ResolveType and validated against the schema's
// possible types.
//
// A Non-Null field that ends up null makes its parent null, up to the
// nearest nullable field or list item; a root field is nulled on its own.
// Queued tasks under a nulled path are dropped before the next batch, and
// the failure is reported once. Errors accumulate as located errors so one
// failing field does not fail its siblings.
//
// Fragments apply when their type condition names the object type, one of
// its interfaces, or a union containing it.
package executor
