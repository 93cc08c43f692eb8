package executor

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/hanpama/constraintgraph/internal/constraint"
	eventbus "github.com/hanpama/constraintgraph/internal/eventbus"
	events "github.com/hanpama/constraintgraph/internal/events"
	language "github.com/hanpama/constraintgraph/internal/language"
	schema "github.com/hanpama/constraintgraph/internal/schema"
)

// CodeBadUserInput is the error extension code of argument and variable
// failures.
const CodeBadUserInput = "BAD_USER_INPUT"

// Path locates a value in the response: field names and list indexes.
type Path []PathElement

type PathElement any

// Executor runs operations of one schema against a Runtime. It holds no
// per-request state and may be shared.
type Executor struct {
	runtime Runtime
	schema  *schema.Schema
}

func NewExecutor(runtime Runtime, schema *schema.Schema) *Executor {
	return &Executor{runtime: runtime, schema: schema}
}

// ExecuteRequest runs the operation named operationName, or the only
// operation of document when the name is empty. initialValue is the source
// of the root fields.
func (e *Executor) ExecuteRequest(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	initialValue any,
) *ExecutionResult {
	op := selectOperation(document, operationName)
	if op == nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: "operation not found"}}}
	}

	vars, err := coerceVariableValues(e.schema, op, variableValues)
	if err != nil {
		publishViolation(ctx, err, "", "", nil)
		return &ExecutionResult{Errors: []GraphQLError{badUserInput(err, nil)}}
	}

	root, err := e.rootType(op.Operation)
	if err != nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: err.Error()}}}
	}

	ex := &execution{
		ctx:     ctx,
		runtime: e.runtime,
		schema:  e.schema,
		doc:     document,
		vars:    vars,
		errors:  []GraphQLError{},
		dead:    map[string]struct{}{},
	}
	data := ex.executeSelectionSet(root, op.SelectionSet, initialValue, Path{}, nil)
	for len(ex.queue) > 0 {
		ex.flush()
	}
	return &ExecutionResult{Data: data, Errors: ex.errors}
}

func (e *Executor) rootType(op language.Operation) (*schema.Type, error) {
	var t *schema.Type
	switch op {
	case language.Query:
		t = e.schema.GetQueryType()
	case language.Mutation:
		t = e.schema.GetMutationType()
	case language.Subscription:
		t = e.schema.GetSubscriptionType()
	default:
		return nil, errors.Errorf("unsupported operation type: %s", op)
	}
	if t == nil {
		return nil, errors.Errorf("root type not found for %s operation", op)
	}
	return t, nil
}

func selectOperation(doc *language.QueryDocument, name string) *language.OperationDefinition {
	if name == "" {
		if len(doc.Operations) == 1 {
			return doc.Operations[0]
		}
		return nil
	}
	for _, op := range doc.Operations {
		if op.Name == name {
			return op
		}
	}
	return nil
}

// execution is the state of one operation.
type execution struct {
	ctx     context.Context
	runtime Runtime
	schema  *schema.Schema
	doc     *language.QueryDocument
	vars    map[string]any

	errors []GraphQLError

	// queue holds the async fields of the next batch.
	queue []*pendingField

	// dead holds the paths that were set to null. Pending fields below
	// them are dropped.
	dead map[string]struct{}
}

// holder is the nearest position at or above a value that can take a null
// when a Non-Null value below it fails.
type holder struct {
	path  Path
	clear func()
}

// pendingField is an async field waiting for its batch.
type pendingField struct {
	task   AsyncResolveTask
	path   Path
	typ    *schema.TypeRef
	nodes  []*language.Field
	set    func(any)
	holder *holder
}

// executeSelectionSet resolves the selections of one object. Sync fields
// complete in place; async fields are queued and written back by flush.
// h is nil for the root object, whose Non-Null fields are set to null
// individually. Otherwise a Non-Null field that ends up null makes the
// whole object null.
func (ex *execution) executeSelectionSet(objectType *schema.Type, set language.SelectionSet, source any, path Path, h *holder) map[string]any {
	result := make(map[string]any)
	for _, group := range ex.collectFields(objectType, set) {
		key := group.responseName
		fieldPath := appendPath(path, key)
		name := group.fields[0].Name
		if name == "__typename" {
			result[key] = objectType.Name
			continue
		}
		def := objectType.Field(name)
		if def == nil {
			ex.addError(fmt.Sprintf("Cannot query field '%s' on type '%s'", name, objectType.Name), fieldPath)
			continue
		}

		fh := h
		if h == nil || !schema.IsNonNull(def.Type) {
			fh = &holder{path: fieldPath, clear: func() { result[key] = nil }}
		}
		value, pending := ex.executeField(objectType, def, group.fields, source, fieldPath, func(v any) { result[key] = v }, fh)
		switch {
		case pending:
			result[key] = nil
		case !isNullish(value):
			result[key] = value
		case h != nil && schema.IsNonNull(def.Type):
			return nil
		default:
			ex.kill(fieldPath)
			result[key] = nil
		}
	}
	return result
}

// executeField coerces the arguments, runs the middleware and resolves
// the field. It reports true when the field was queued for the batch.
func (ex *execution) executeField(parent *schema.Type, def *schema.Field, nodes []*language.Field, source any, path Path, set func(any), h *holder) (any, bool) {
	args, err := coerceArgumentValues(ex.schema, def, nodes[0].Arguments, ex.vars)
	if err == nil {
		err = runMiddleware(ex.ctx, def, args)
	}
	if err != nil {
		ex.addInputError(err, parent.Name, def.Name, path)
		return nil, false
	}

	if def.Async {
		ex.queue = append(ex.queue, &pendingField{
			task:   AsyncResolveTask{ObjectType: parent.Name, Field: def.Name, Source: source, Args: args},
			path:   path,
			typ:    def.Type,
			nodes:  nodes,
			set:    set,
			holder: h,
		})
		return nil, true
	}

	value, err := ex.runtime.ResolveSync(ex.ctx, parent.Name, def.Name, source, args)
	if err != nil {
		ex.addError(err.Error(), path)
		return nil, false
	}
	return ex.completeValue(def.Type, nodes, value, path, h), false
}

// flush sends the queued fields to the runtime in one batch and completes
// the results. Completion may queue the next depth.
func (ex *execution) flush() {
	var batch []*pendingField
	for _, p := range ex.queue {
		if !ex.isDead(p.path) {
			batch = append(batch, p)
		}
	}
	ex.queue = nil
	if len(batch) == 0 {
		return
	}

	tasks := make([]AsyncResolveTask, len(batch))
	for i, p := range batch {
		tasks[i] = p.task
	}
	results := ex.runtime.BatchResolveAsync(ex.ctx, tasks)
	for i, p := range batch {
		if i >= len(results) {
			ex.finish(p, AsyncResolveResult{Error: errors.Errorf("runtime returned no result for %s.%s", p.task.ObjectType, p.task.Field)})
			continue
		}
		ex.finish(p, results[i])
	}
}

// finish completes one batched field. A failed Non-Null field nulls its
// holder.
func (ex *execution) finish(p *pendingField, res AsyncResolveResult) {
	if ex.isDead(p.path) {
		return
	}
	var value any
	if res.Error != nil {
		ex.addError(res.Error.Error(), p.path)
	} else {
		value = ex.completeValue(p.typ, p.nodes, res.Value, p.path, p.holder)
	}
	switch {
	case !isNullish(value):
		p.set(value)
	case schema.IsNonNull(p.typ):
		p.holder.clear()
		ex.kill(p.holder.path)
	default:
		p.set(nil)
		ex.kill(p.path)
	}
}

// completeValue shapes a resolved value by its field type. h is the
// nearest position at or above the value that can be nulled.
func (ex *execution) completeValue(ref *schema.TypeRef, nodes []*language.Field, value any, path Path, h *holder) any {
	if schema.IsNonNull(ref) {
		if isNullish(value) {
			if !ex.hasErrorAt(path) {
				ex.addError(fmt.Sprintf("Cannot return null for non-nullable field %s", pathToString(path)), path)
			}
			return nil
		}
		return ex.completeValue(schema.Unwrap(ref), nodes, value, path, h)
	}
	if isNullish(value) {
		return nil
	}
	if schema.IsList(ref) {
		return ex.completeList(ref, nodes, value, path, h)
	}

	name := schema.GetNamedType(ref)
	typ := ex.schema.Types[name]
	if typ == nil {
		ex.addError(fmt.Sprintf("Unknown type: %s", name), path)
		return nil
	}
	switch typ.Kind {
	case schema.TypeKindScalar, schema.TypeKindEnum:
		return ex.serializeLeaf(typ, value, path)
	case schema.TypeKindObject:
		return ex.executeSelectionSet(typ, mergeSelectionSets(nodes), value, path, h)
	case schema.TypeKindInterface, schema.TypeKindUnion:
		concrete, err := ex.resolveAbstract(typ, value)
		if err != nil {
			ex.addError(err.Error(), path)
			return nil
		}
		return ex.executeSelectionSet(concrete, mergeSelectionSets(nodes), value, path, h)
	}
	ex.addError(fmt.Sprintf("Cannot complete value of unexpected type: %s", typ.Kind), path)
	return nil
}

func (ex *execution) completeList(ref *schema.TypeRef, nodes []*language.Field, value any, path Path, h *holder) any {
	items, ok := toSlice(value)
	if !ok {
		ex.addError(fmt.Sprintf("Expected list value, got %T", value), path)
		return nil
	}
	inner := schema.Unwrap(ref)
	out := make([]any, len(items))
	for i, item := range items {
		itemPath := appendPath(path, i)
		ih := h
		if !schema.IsNonNull(inner) {
			ih = &holder{path: itemPath, clear: func() { out[i] = nil }}
		}
		v := ex.completeValue(inner, nodes, item, itemPath, ih)
		if isNullish(v) {
			if schema.IsNonNull(inner) {
				return nil
			}
			ex.kill(itemPath)
			v = nil
		}
		out[i] = v
	}
	return out
}

func (ex *execution) serializeLeaf(typ *schema.Type, value any, path Path) any {
	serialize := typ.Serialize
	if serialize == nil {
		serialize = func(v any) (any, error) { return ex.runtime.SerializeLeafValue(ex.ctx, typ.Name, v) }
	}
	out, err := serialize(value)
	if err != nil {
		ex.addError(err.Error(), path)
		return nil
	}
	return out
}

func (ex *execution) resolveAbstract(abstract *schema.Type, value any) (*schema.Type, error) {
	name, err := ex.runtime.ResolveType(ex.ctx, abstract.Name, value)
	if err != nil {
		return nil, err
	}
	t := ex.schema.Types[name]
	if t == nil || t.Kind != schema.TypeKindObject {
		return nil, errors.Errorf("Abstract type %s must resolve to an Object type at runtime. Got: %s", abstract.Name, name)
	}
	if len(abstract.PossibleTypes) > 0 && !slices.Contains(abstract.PossibleTypes, name) {
		return nil, errors.Errorf("Runtime Object type %s is not a possible type for %s", name, abstract.Name)
	}
	return t, nil
}

func (ex *execution) addError(message string, path Path) {
	ex.errors = append(ex.errors, GraphQLError{Message: message, Path: path})
}

// addInputError records a failed argument coercion or middleware check.
func (ex *execution) addInputError(err error, objectType, field string, path Path) {
	ex.errors = append(ex.errors, badUserInput(err, path))
	publishViolation(ex.ctx, err, objectType, field, path)
}

func (ex *execution) hasErrorAt(path Path) bool {
	for _, err := range ex.errors {
		if slices.Equal(err.Path, path) {
			return true
		}
	}
	return false
}

func (ex *execution) kill(path Path) {
	ex.dead[pathToString(path)] = struct{}{}
}

// isDead reports whether path or one of its prefixes was nulled.
func (ex *execution) isDead(path Path) bool {
	if len(ex.dead) == 0 {
		return false
	}
	for i := 1; i <= len(path); i++ {
		if _, ok := ex.dead[pathToString(path[:i])]; ok {
			return true
		}
	}
	return false
}

func badUserInput(err error, path Path) GraphQLError {
	return GraphQLError{
		Message:    err.Error(),
		Path:       path,
		Extensions: map[string]any{"code": CodeBadUserInput},
	}
}

// runMiddleware runs the field's middleware in order and stops at the
// first error.
func runMiddleware(ctx context.Context, def *schema.Field, args map[string]any) error {
	for _, mw := range def.Middleware {
		if err := mw(ctx, args); err != nil {
			return err
		}
	}
	return nil
}

func isConstraintViolation(err error) bool {
	var verr *constraint.ValidationError
	return errors.As(err, &verr)
}

func publishViolation(ctx context.Context, err error, objectType, field string, path Path) {
	var verr *constraint.ValidationError
	if !errors.As(err, &verr) {
		return
	}
	var p []any
	for _, elem := range path {
		p = append(p, elem)
	}
	eventbus.Publish(ctx, events.ConstraintViolation{
		ObjectType: objectType,
		Field:      field,
		Path:       p,
		Label:      verr.Label,
		Rule:       verr.Rule,
		Message:    verr.Message,
	})
}

func pathToString(path Path) string {
	var b strings.Builder
	for i, elem := range path {
		if i > 0 {
			b.WriteByte('.')
		}
		switch v := elem.(type) {
		case string:
			b.WriteString(v)
		case int:
			b.WriteString("[" + strconv.Itoa(v) + "]")
		}
	}
	return b.String()
}

func appendPath(path Path, elem PathElement) Path {
	out := make(Path, len(path), len(path)+1)
	copy(out, path)
	return append(out, elem)
}

func mergeSelectionSets(fields []*language.Field) language.SelectionSet {
	var merged language.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}

func toSlice(value any) ([]any, bool) {
	if items, ok := value.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

// isNullish reports nil and typed nil values.
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
