package schema

import (
	"fmt"
	"math"
	"strconv"

	language "github.com/hanpama/constraintgraph/internal/language"
)

var stringType = &Type{
	Name:         "String",
	Kind:         TypeKindScalar,
	Description:  "The `String` scalar type represents textual data, represented as UTF-8 character sequences.",
	Serialize:    coerceString,
	ParseValue:   parseStringValue,
	ParseLiteral: parseStringLiteral,
}

var intType = &Type{
	Name:         "Int",
	Kind:         TypeKindScalar,
	Description:  "The `Int` scalar type represents non-fractional signed whole numeric values.",
	Serialize:    coerceInt,
	ParseValue:   parseIntValue,
	ParseLiteral: parseIntLiteral,
}

var floatType = &Type{
	Name:         "Float",
	Kind:         TypeKindScalar,
	Description:  "The `Float` scalar type represents signed double-precision fractional values.",
	Serialize:    coerceFloat,
	ParseValue:   parseFloatValue,
	ParseLiteral: parseFloatLiteral,
}

var booleanType = &Type{
	Name:         "Boolean",
	Kind:         TypeKindScalar,
	Description:  "The `Boolean` scalar type represents `true` or `false`.",
	Serialize:    coerceBoolean,
	ParseValue:   coerceBoolean,
	ParseLiteral: parseBooleanLiteral,
}

var idType = &Type{
	Name:         "ID",
	Kind:         TypeKindScalar,
	Description:  "The `ID` scalar type represents a unique identifier, often used to refetch an object or as a key for caching.",
	Serialize:    coerceID,
	ParseValue:   coerceID,
	ParseLiteral: parseIDLiteral,
}

func builtinScalars() []*Type {
	return []*Type{stringType, intType, floatType, booleanType, idType}
}

// IsBuiltinScalar reports whether t is one of the five specified scalars.
func IsBuiltinScalar(t *Type) bool {
	switch t {
	case stringType, intType, floatType, booleanType, idType:
		return true
	}
	return false
}

var includeDirective = &Directive{
	Name:        "include",
	Description: "Directs the executor to include this field or fragment only when the `if` argument is true.",
	Arguments: []*InputValue{
		{
			Name:        "if",
			Description: "Included when true.",
			Type:        NonNullType(NamedType("Boolean")),
		},
	},
	Locations: []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
}

var skipDirective = &Directive{
	Name:        "skip",
	Description: "Directs the executor to skip this field or fragment when the `if` argument is true.",
	Arguments: []*InputValue{
		{
			Name:        "if",
			Description: "Skipped when true.",
			Type:        NonNullType(NamedType("Boolean")),
		},
	},
	Locations: []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
}

// ----- coercion -----

func coerceInt(value any) (any, error) {
	var n int64
	switch v := value.(type) {
	case int:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("Int cannot represent non-integer value: %v", v)
		}
		n = int64(v)
	case float32:
		if float64(v) != math.Trunc(float64(v)) {
			return nil, fmt.Errorf("Int cannot represent non-integer value: %v", v)
		}
		n = int64(v)
	case string:
		iv, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %q to Int", v)
		}
		n = iv
	default:
		return nil, fmt.Errorf("cannot coerce %v (%T) to Int", value, value)
	}
	if n > math.MaxInt32 || n < math.MinInt32 {
		return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %d", n)
	}
	return int(n), nil
}

func coerceFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		if fv, err := strconv.ParseFloat(v, 64); err == nil {
			return fv, nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Float", value, value)
}

func coerceString(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool, int, int32, int64, float32, float64:
		return fmt.Sprintf("%v", v), nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to String", value, value)
}

func coerceBoolean(value any) (any, error) {
	if v, ok := value.(bool); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Boolean", value, value)
}

func coerceID(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to ID", value, value)
}

// Input values are stricter than results: strings never become numbers
// and numbers never become strings.

func parseIntValue(value any) (any, error) {
	if s, ok := value.(string); ok {
		return nil, fmt.Errorf("cannot coerce %q to Int", s)
	}
	return coerceInt(value)
}

func parseFloatValue(value any) (any, error) {
	if s, ok := value.(string); ok {
		return nil, fmt.Errorf("cannot coerce %q to Float", s)
	}
	return coerceFloat(value)
}

func parseStringValue(value any) (any, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to String", value, value)
}

func parseIntLiteral(value *language.Value, _ map[string]any) (any, error) {
	if value.Kind != language.IntValue {
		return nil, fmt.Errorf("Int cannot represent non-integer value: %s", value.String())
	}
	n, err := strconv.ParseInt(value.Raw, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %s", value.Raw)
	}
	return int(n), nil
}

func parseFloatLiteral(value *language.Value, _ map[string]any) (any, error) {
	if value.Kind != language.IntValue && value.Kind != language.FloatValue {
		return nil, fmt.Errorf("Float cannot represent non numeric value: %s", value.String())
	}
	return strconv.ParseFloat(value.Raw, 64)
}

func parseStringLiteral(value *language.Value, _ map[string]any) (any, error) {
	if value.Kind != language.StringValue && value.Kind != language.BlockValue {
		return nil, fmt.Errorf("String cannot represent a non string value: %s", value.String())
	}
	return value.Raw, nil
}

func parseBooleanLiteral(value *language.Value, _ map[string]any) (any, error) {
	if value.Kind != language.BooleanValue {
		return nil, fmt.Errorf("Boolean cannot represent a non boolean value: %s", value.String())
	}
	return value.Raw == "true", nil
}

func parseIDLiteral(value *language.Value, _ map[string]any) (any, error) {
	if value.Kind != language.StringValue && value.Kind != language.IntValue {
		return nil, fmt.Errorf("ID cannot represent a non-string and non-integer value: %s", value.String())
	}
	return value.Raw, nil
}
