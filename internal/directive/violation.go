package directive

import (
	"fmt"

	"github.com/hanpama/constraintgraph/internal/constraint"
	language "github.com/hanpama/constraintgraph/internal/language"
)

// Violation is a misconfigured directive usage.
type Violation struct {
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// ValidationError is returned by Compiler.TransformSchema when any
// directive usage is misconfigured.
type ValidationError []*Violation

func (e ValidationError) Error() string {
	msg := "violations found:\n"
	for _, v := range e {
		line := "- " + v.Message
		if v.File != "" {
			line += fmt.Sprintf(" %s:%d:%d", v.File, v.Line, v.Column)
		}
		msg += line + "\n"
	}
	return msg
}

func violationWithPosition(message string, pos *language.Position) *Violation {
	v := &Violation{Message: message}
	if pos != nil {
		v.Line, v.Column = pos.Line, pos.Column
		if pos.Src != nil {
			v.File = pos.Src.Name
		}
	}
	return v
}

func violationUnknownArgument(directive, arg string, pos *language.Position) *Violation {
	return violationWithPosition("Unknown argument '"+arg+"' in @"+directive+" directive", pos)
}

func violationVariableArgument(directive string, pos *language.Position) *Violation {
	return violationWithPosition("Directive @"+directive+" does not accept Variable arguments", pos)
}

func violationInvalidOption(directive string, err error, pos *language.Position) *Violation {
	return violationWithPosition(fmt.Sprintf("Invalid @%s directive: %v", directive, err), pos)
}

func violationWrongType(directive string, kind constraint.Kind, actual string, pos *language.Position) *Violation {
	if kind == constraint.KindList {
		return violationWithPosition(fmt.Sprintf("@%s can only be used on type List. It was used on %s", directive, actual), pos)
	}
	return violationWithPosition(fmt.Sprintf("@%s can only be used on type %s", directive, kind), pos)
}

func violationSynthesis(directive string, err error, pos *language.Position) *Violation {
	return violationWithPosition(fmt.Sprintf("Cannot apply @%s directive: %v", directive, err), pos)
}
