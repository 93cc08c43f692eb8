package constraint

import (
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// Schema is a compiled constraint bound to a label, the field or path name
// used in error messages. It is immutable and safe for concurrent use.
type Schema struct {
	label  string
	opts   Options
	bounds string // validator tags checked first
	format string // validator tags checked after the pattern
}

// Compile builds the validator for o.
func (o Options) Compile(label string) *Schema {
	s := &Schema{label: label, opts: o}
	var bounds, format []string
	switch o.Kind {
	case KindString:
		bounds = appendIntTag(bounds, "len", o.Length)
		bounds = appendTag(bounds, "min", o.Min)
		bounds = appendTag(bounds, "max", o.Max)
		if o.CreditCard {
			format = append(format, "credit_card")
		}
		if o.ISODate {
			format = append(format, "iso8601date")
		}
		if o.ISODuration {
			format = append(format, "iso8601duration")
		}
	case KindInt, KindFloat:
		bounds = appendTag(bounds, "gte", o.Min)
		bounds = appendTag(bounds, "lte", o.Max)
		bounds = appendTag(bounds, "gt", o.MinExclusive)
		bounds = appendTag(bounds, "lt", o.MaxExclusive)
	case KindList:
		// Length and Unique are accepted but not enforced.
		bounds = appendTag(bounds, "min", o.Min)
		bounds = appendTag(bounds, "max", o.Max)
	}
	s.bounds = strings.Join(bounds, ",")
	s.format = strings.Join(format, ",")
	return s
}

// Label returns the name the schema reports errors under.
func (s *Schema) Label() string { return s.label }

// Validate checks value and returns it, converted for the kind. String
// values come back trimmed and cased as configured; floats come back
// rounded to the configured precision. Lists are never converted.
func (s *Schema) Validate(value any) (any, error) {
	switch s.opts.Kind {
	case KindString:
		return s.validateString(value)
	case KindInt:
		return s.validateInt(value)
	case KindFloat:
		return s.validateFloat(value)
	case KindList:
		return s.validateList(value)
	}
	return nil, errors.Errorf("unknown constraint kind %d", s.opts.Kind)
}

func (s *Schema) validateString(value any) (any, error) {
	str, ok := value.(string)
	if !ok {
		return nil, newValidationError(s.label, "string.base", "must be a string")
	}
	if s.opts.Trim {
		str = strings.TrimSpace(str)
	}
	switch s.opts.Case {
	case CaseUpper:
		str = strings.ToUpper(str)
	case CaseLower:
		str = strings.ToLower(str)
	}
	if str == "" {
		if s.opts.Min == nil || *s.opts.Min == 0 {
			return str, nil
		}
		return nil, newValidationError(s.label, "string.empty", "is not allowed to be empty")
	}
	if err := s.check(str, s.bounds); err != nil {
		return nil, err
	}
	if p := s.opts.Pattern; p != nil && !p.MatchString(str) {
		return nil, newValidationError(s.label, "string.pattern", "with value %q fails to match the required pattern: %s", str, p)
	}
	if err := s.check(str, s.format); err != nil {
		return nil, err
	}
	return str, nil
}

func (s *Schema) validateInt(value any) (any, error) {
	f, ok := toNumber(value)
	if !ok {
		return nil, newValidationError(s.label, "number.base", "must be a number")
	}
	if f != math.Trunc(f) {
		return nil, newValidationError(s.label, "number.integer", "must be an integer")
	}
	n := int(f)
	if err := s.check(n, s.bounds); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Schema) validateFloat(value any) (any, error) {
	f, ok := toNumber(value)
	if !ok {
		return nil, newValidationError(s.label, "number.base", "must be a number")
	}
	if p := s.opts.Precision; p != nil {
		scale := math.Pow10(*p)
		f = math.Round(f*scale) / scale
	}
	if err := s.check(f, s.bounds); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Schema) validateList(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if k := reflect.ValueOf(value).Kind(); k != reflect.Slice && k != reflect.Array {
		return nil, newValidationError(s.label, "array.base", "must be an array")
	}
	if err := s.check(value, s.bounds); err != nil {
		return nil, err
	}
	return value, nil
}

func (s *Schema) check(value any, tags string) error {
	if tags == "" {
		return nil
	}
	err := validate.Var(value, tags)
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		return s.translate(verrs[0])
	}
	return newValidationError(s.label, "any.invalid", "is invalid: %v", err)
}

// translate turns the first failing validator tag into a message naming
// the label and the violated bound.
func (s *Schema) translate(fe validator.FieldError) *ValidationError {
	tag, param := fe.Tag(), fe.Param()
	switch s.opts.Kind {
	case KindString:
		switch tag {
		case "min":
			return newValidationError(s.label, "string.min", "length must be at least %s characters long", param)
		case "max":
			return newValidationError(s.label, "string.max", "length must be less than or equal to %s characters long", param)
		case "len":
			return newValidationError(s.label, "string.length", "length must be %s characters long", param)
		case "credit_card":
			return newValidationError(s.label, "string.creditCard", "must be a credit card")
		case "iso8601date":
			return newValidationError(s.label, "string.isoDate", "must be in ISO 8601 date format")
		case "iso8601duration":
			return newValidationError(s.label, "string.isoDuration", "must be a valid ISO 8601 duration")
		}
	case KindInt, KindFloat:
		switch tag {
		case "gte":
			return newValidationError(s.label, "number.min", "must be greater than or equal to %s", param)
		case "lte":
			return newValidationError(s.label, "number.max", "must be less than or equal to %s", param)
		case "gt":
			return newValidationError(s.label, "number.greater", "must be greater than %s", param)
		case "lt":
			return newValidationError(s.label, "number.less", "must be less than %s", param)
		}
	case KindList:
		switch tag {
		case "min":
			return newValidationError(s.label, "array.min", "must contain at least %s items", param)
		case "max":
			return newValidationError(s.label, "array.max", "must contain at most %s items", param)
		}
	}
	return newValidationError(s.label, tag, "failed on the %s constraint", tag)
}

func appendTag(tags []string, name string, bound *float64) []string {
	if bound == nil {
		return tags
	}
	return append(tags, name+"="+strconv.FormatFloat(*bound, 'f', -1, 64))
}

func appendIntTag(tags []string, name string, bound *int) []string {
	if bound == nil {
		return tags
	}
	return append(tags, name+"="+strconv.Itoa(*bound))
}

// toNumber converts numeric values and numeric strings.
func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}
