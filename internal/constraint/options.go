package constraint

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// Case is the case conversion applied by string constraints.
type Case string

const (
	CaseNone  Case = ""
	CaseUpper Case = "UPPER"
	CaseLower Case = "LOWER"
)

// Options is a parsed and checked directive option set.
//
// Min and Max bound the value for Int and Float, the length for String and
// the item count for List.
type Options struct {
	Kind Kind

	Min          *float64
	Max          *float64
	MinExclusive *float64
	MaxExclusive *float64
	Precision    *int
	Length       *int

	Trim        bool
	Case        Case
	Pattern     *Pattern
	CreditCard  bool
	ISODate     bool
	ISODuration bool

	// Unique is accepted for lists but not enforced, like Length.
	Unique bool
}

// Parse checks args against the option set of kind. Unknown option names
// fail with *UnknownOptionError; malformed values and patterns fail with a
// descriptive error. Null values count as absent.
func Parse(kind Kind, args Args) (Options, error) {
	o := Options{Kind: kind}
	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		var err error
		switch kind {
		case KindString:
			err = o.setStringOption(name, args[name])
		case KindInt:
			err = o.setIntOption(name, args[name])
		case KindFloat:
			err = o.setFloatOption(name, args[name])
		case KindList:
			err = o.setListOption(name, args[name])
		default:
			return Options{}, errors.Errorf("unknown constraint kind %d", kind)
		}
		if err != nil {
			return Options{}, err
		}
	}
	return o, nil
}

func (o *Options) setStringOption(name string, v any) error {
	var err error
	switch name {
	case "min":
		o.Min, err = lengthOption(name, v)
	case "max":
		o.Max, err = lengthOption(name, v)
	case "length":
		var n *float64
		n, err = lengthOption(name, v)
		o.Length = toIntPtr(n)
	case "trim":
		o.Trim, err = boolOption(name, v)
	case "pattern":
		var src string
		if src, err = stringOption(name, v); err == nil && v != nil {
			o.Pattern, err = ParsePattern(src)
		}
	case "creditCard":
		o.CreditCard, err = boolOption(name, v)
	case "case":
		var c string
		if c, err = stringOption(name, v); err == nil {
			switch Case(c) {
			case CaseNone, CaseUpper, CaseLower:
				o.Case = Case(c)
			default:
				err = errors.Errorf("argument case must be one of UPPER, LOWER; got %q", c)
			}
		}
	case "isoDate":
		o.ISODate, err = boolOption(name, v)
	case "isoDuration":
		o.ISODuration, err = boolOption(name, v)
	default:
		return &UnknownOptionError{Kind: KindString, Option: name}
	}
	return err
}

func (o *Options) setIntOption(name string, v any) error {
	var err error
	switch name {
	case "min":
		o.Min, err = intOption(name, v)
	case "max":
		o.Max, err = intOption(name, v)
	default:
		return &UnknownOptionError{Kind: KindInt, Option: name}
	}
	return err
}

func (o *Options) setFloatOption(name string, v any) error {
	var err error
	switch name {
	case "min":
		o.Min, err = floatOption(name, v)
	case "max":
		o.Max, err = floatOption(name, v)
	case "minExclusive":
		o.MinExclusive, err = floatOption(name, v)
	case "maxExclusive":
		o.MaxExclusive, err = floatOption(name, v)
	case "precision":
		var n *float64
		n, err = lengthOption(name, v)
		o.Precision = toIntPtr(n)
	default:
		return &UnknownOptionError{Kind: KindFloat, Option: name}
	}
	return err
}

func (o *Options) setListOption(name string, v any) error {
	var err error
	switch name {
	case "min":
		o.Min, err = lengthOption(name, v)
	case "max":
		o.Max, err = lengthOption(name, v)
	case "length":
		var n *float64
		n, err = lengthOption(name, v)
		o.Length = toIntPtr(n)
	case "unique":
		o.Unique, err = boolOption(name, v)
	default:
		return &UnknownOptionError{Kind: KindList, Option: name}
	}
	return err
}

// ----- value helpers -----

func floatOption(name string, v any) (*float64, error) {
	switch n := v.(type) {
	case nil:
		return nil, nil
	case int:
		f := float64(n)
		return &f, nil
	case int64:
		f := float64(n)
		return &f, nil
	case float64:
		return &n, nil
	}
	return nil, errors.Errorf("argument %s must be a number, got %v", name, v)
}

func intOption(name string, v any) (*float64, error) {
	f, err := floatOption(name, v)
	if err != nil || f == nil {
		return f, err
	}
	if *f != math.Trunc(*f) {
		return nil, errors.Errorf("argument %s must be an integer, got %v", name, v)
	}
	return f, nil
}

func lengthOption(name string, v any) (*float64, error) {
	f, err := intOption(name, v)
	if err != nil || f == nil {
		return f, err
	}
	if *f < 0 {
		return nil, errors.Errorf("argument %s must not be negative, got %v", name, v)
	}
	return f, nil
}

func boolOption(name string, v any) (bool, error) {
	switch b := v.(type) {
	case nil:
		return false, nil
	case bool:
		return b, nil
	}
	return false, errors.Errorf("argument %s must be a boolean, got %v", name, v)
}

func stringOption(name string, v any) (string, error) {
	switch s := v.(type) {
	case nil:
		return "", nil
	case string:
		return s, nil
	}
	return "", errors.Errorf("argument %s must be a string, got %v", name, v)
}

func toIntPtr(f *float64) *int {
	if f == nil {
		return nil
	}
	n := int(*f)
	return &n
}
