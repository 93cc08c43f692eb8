package directive

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hanpama/constraintgraph/internal/constraint"
	language "github.com/hanpama/constraintgraph/internal/language"
	"github.com/hanpama/constraintgraph/internal/schema"
)

// Registry synthesizes constrained scalars into a schema's type map.
type Registry struct {
	schema *schema.Schema
	logger logrus.FieldLogger
}

// NewRegistry returns a Registry adding types to s. A nil logger means the
// logrus standard logger.
func NewRegistry(s *schema.Schema, logger logrus.FieldLogger) *Registry {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Registry{schema: s, logger: logger}
}

// Synthesize returns the scalar named key.Name(), registering it first if
// the schema does not have it yet.
func (r *Registry) Synthesize(key TypeKey, opts constraint.Options) (*schema.Type, error) {
	name := key.Name()
	if t, ok := r.schema.Types[name]; ok {
		if t.BaseType != key.Base {
			return nil, errors.Errorf("type %s already exists and is not derived from %s", name, key.Base)
		}
		return t, nil
	}
	base, ok := r.schema.Types[key.Base]
	if !ok || base.Kind != schema.TypeKindScalar {
		return nil, errors.Errorf("base scalar %s is not defined", key.Base)
	}

	t := newConstrainedScalar(name, base, newRule(opts, key.Field))
	r.schema.AddType(t)
	r.logger.WithFields(logrus.Fields{
		"type":  name,
		"base":  key.Base,
		"label": key.Field,
	}).Debug("synthesized constrained scalar")
	return t, nil
}

// rule compiles its constraint schema on first use.
type rule struct {
	opts  constraint.Options
	label string

	once     sync.Once
	compiled *constraint.Schema
}

func newRule(opts constraint.Options, label string) *rule {
	return &rule{opts: opts, label: label}
}

func (r *rule) Validate(value any) (any, error) {
	r.once.Do(func() {
		r.compiled = r.opts.Compile(r.label)
	})
	return r.compiled.Validate(value)
}

func newConstrainedScalar(name string, base *schema.Type, r *rule) *schema.Type {
	t := schema.NewType(name, schema.TypeKindScalar, "A "+base.Name+" checked against the constraint named in its type name.")
	t.BaseType = base.Name
	t.Serialize = func(value any) (any, error) {
		v, err := convert(base.Serialize, value)
		if err != nil {
			return nil, err
		}
		return r.Validate(v)
	}
	// Variable values convert like results do, so "3" is accepted for a
	// constrained Int while plain Int rejects it.
	t.ParseValue = func(value any) (any, error) {
		v, err := convert(base.Serialize, value)
		if err != nil {
			return nil, err
		}
		return r.Validate(v)
	}
	t.ParseLiteral = func(value *language.Value, variables map[string]any) (any, error) {
		var v any
		if base.ParseLiteral != nil {
			var err error
			if v, err = base.ParseLiteral(value, variables); err != nil {
				return nil, err
			}
		} else {
			v = language.ValueToGo(value, variables)
		}
		return r.Validate(v)
	}
	return t
}

func convert(fn func(any) (any, error), value any) (any, error) {
	if fn == nil {
		return value, nil
	}
	return fn(value)
}
