package constraint

import "fmt"

// UnknownOptionError reports an option name outside the kind's option set.
type UnknownOptionError struct {
	Kind   Kind
	Option string
}

func (e *UnknownOptionError) Error() string {
	return fmt.Sprintf("unsupported argument %s for %s constraint", e.Option, e.Kind)
}

// ValidationError is a value that failed its constraint schema. Message
// names the label and the violated constraint.
type ValidationError struct {
	Label   string
	Rule    string
	Message string

	detail string // Message without the label
}

func (e *ValidationError) Error() string { return e.Message }

// Relabel returns e reported under label. A synthesized scalar shared by
// several arguments is compiled once; the executor relabels its failures
// with the argument or input field actually being coerced.
func (e *ValidationError) Relabel(label string) *ValidationError {
	if e.Label == label || e.detail == "" {
		return e
	}
	return newValidationError(label, e.Rule, "%s", e.detail)
}

func newValidationError(label, rule, format string, args ...any) *ValidationError {
	detail := fmt.Sprintf(format, args...)
	return &ValidationError{
		Label:   label,
		Rule:    rule,
		Message: fmt.Sprintf("%q ", label) + detail,
		detail:  detail,
	}
}
